package fbx

import "fmt"

type MappingType string

const (
	AllSame         MappingType = "AllSame"
	ByPolygon       MappingType = "ByPolygon"
	ByPolygonVertex MappingType = "ByPolygonVertex"
	ByVertex        MappingType = "ByVertex"
	ByVertice       MappingType = "ByVertice"      // older exporters
	ByControlPoint  MappingType = "ByControlPoint" // same as ByVertex
)

type ReferenceType string

const (
	Direct        ReferenceType = "Direct"
	IndexToDirect ReferenceType = "IndexToDirect"
)

// LayerElement is a decoded LayerElementUV / LayerElementNormal block.
type LayerElement struct {
	Mapping   MappingType
	Reference ReferenceType
	Data      []float32
	Index     []int32 // only for IndexToDirect
}

// GeometryData holds the raw buffers of a Geometry object.
type GeometryData struct {
	Vertices           []float32
	PolygonVertexIndex []int32
	UV                 *LayerElement
	Normal             *LayerElement
}

// GeometryData loads a Geometry object and returns its flat buffers.
// Only the first UV and normal layers are used.
func (o *Object) GeometryData() (*GeometryData, error) {
	if o.Type != "Geometry" {
		return nil, fmt.Errorf("%v is not a geometry", o)
	}
	if err := o.Load(); err != nil {
		return nil, err
	}
	g := &GeometryData{
		Vertices:           o.Props.Lookup("Vertices").Float32s(),
		PolygonVertexIndex: o.Props.Lookup("PolygonVertexIndex").Int32s(),
		UV:                 layerElement(o.Props.Lookup("LayerElementUV"), "UV", "UVIndex"),
		Normal:             layerElement(o.Props.Lookup("LayerElementNormal"), "Normals", "NormalsIndex"),
	}
	return g, nil
}

func layerElement(v Value, data, index string) *LayerElement {
	v = v.First()
	if v.Kind != KindTable {
		return nil
	}
	t := v.Table
	e := &LayerElement{
		Mapping:   MappingType(t.Lookup("MappingInformationType").ToString("")),
		Reference: ReferenceType(t.Lookup("ReferenceInformationType").ToString("")),
		Data:      t.Lookup(data).Float32s(),
	}
	if e.Reference == IndexToDirect {
		e.Index = t.Lookup(index).Int32s()
	}
	return e
}

// Deformer returns the skin deformer attached to a geometry, or nil.
func (o *Object) Deformer() *Object {
	if d := o.Child(0); d != nil && d.Type == "Deformer" {
		return d
	}
	return nil
}
