package mesh

import (
	"fmt"

	"github.com/binzume/fbxscene/fbx"
	"github.com/binzume/fbxscene/geom"
	"go.uber.org/zap"
)

type vertexKey struct {
	position geom.Vector3
	uv       geom.Vector2
}

// layerIndex returns the element index a layer holds for one polygon-vertex occurrence.
func layerIndex(e *fbx.LayerElement, vertex, polygon, polygonVertex int) (int, error) {
	var i int
	switch e.Mapping {
	case fbx.ByVertex, fbx.ByVertice, fbx.ByControlPoint:
		i = vertex
	case fbx.ByPolygon:
		i = polygon
	case fbx.AllSame:
		i = 0
	default:
		i = polygonVertex
	}
	if e.Reference == fbx.IndexToDirect {
		if i < 0 || i >= len(e.Index) {
			return 0, fmt.Errorf("%w: layer index %d (len %d)", ErrBufferRange, i, len(e.Index))
		}
		i = int(e.Index[i])
	}
	return i, nil
}

func readUV(e *fbx.LayerElement, vertex, polygon, polygonVertex int) (geom.Vector2, error) {
	if e == nil {
		return geom.Vector2{}, nil
	}
	i, err := layerIndex(e, vertex, polygon, polygonVertex)
	if err != nil {
		return geom.Vector2{}, err
	}
	if i < 0 || i*2+1 >= len(e.Data) {
		return geom.Vector2{}, fmt.Errorf("%w: uv %d", ErrBufferRange, i)
	}
	return geom.Vector2{X: e.Data[i*2], Y: 1 - e.Data[i*2+1]}, nil
}

func readNormal(e *fbx.LayerElement, vertex, polygon, polygonVertex int) (geom.Vector3, error) {
	if e == nil {
		return geom.Vector3{}, nil
	}
	i, err := layerIndex(e, vertex, polygon, polygonVertex)
	if err != nil {
		return geom.Vector3{}, err
	}
	if i < 0 || i*3+2 >= len(e.Data) {
		return geom.Vector3{}, fmt.Errorf("%w: normal %d", ErrBufferRange, i)
	}
	return *geom.NewVector3FromSlice(e.Data, i), nil
}

func triangulate(polygon []uint32) []Face {
	switch len(polygon) {
	case 3:
		return []Face{{polygon[0], polygon[1], polygon[2]}}
	case 4:
		return []Face{{polygon[0], polygon[1], polygon[2]}, {polygon[0], polygon[2], polygon[3]}}
	}
	faces := make([]Face, 0, len(polygon)-2)
	for i := 2; i < len(polygon); i++ {
		faces = append(faces, Face{polygon[0], polygon[i-1], polygon[i]})
	}
	return faces
}

// Decode builds a deduplicated triangle mesh from raw geometry buffers.
// Polygon-vertex occurrences sharing position and uv share one output vertex.
func Decode(g *fbx.GeometryData, opts ...Option) (*Mesh, VertexMap, error) {
	o := newOptions(opts)
	if len(g.Vertices)%3 != 0 {
		o.logger.Warn("vertex buffer is not a multiple of 3", zap.Int("len", len(g.Vertices)))
	}
	numPositions := len(g.Vertices) / 3

	m := &Mesh{}
	vmap := make(VertexMap, numPositions)
	ids := map[vertexKey]uint32{}
	var polygon []uint32
	polygonIndex := 0

	for pvi, raw := range g.PolygonVertexIndex {
		vi := int(raw)
		end := raw < 0
		if end {
			vi = int(^raw)
		}
		if vi >= numPositions {
			return nil, nil, fmt.Errorf("%w: vertex %d at %d (%d positions)", ErrBufferRange, vi, pvi, numPositions)
		}
		position := *geom.NewVector3FromSlice(g.Vertices, vi)
		uv, err := readUV(g.UV, vi, polygonIndex, pvi)
		if err != nil {
			return nil, nil, err
		}
		key := vertexKey{position, uv}
		id, ok := ids[key]
		if !ok {
			normal, err := readNormal(g.Normal, vi, polygonIndex, pvi)
			if err != nil {
				return nil, nil, err
			}
			id = uint32(len(m.Vertices))
			m.Vertices = append(m.Vertices, &Vertex{Position: position, UV: uv, Normal: normal})
			ids[key] = id
			vmap[vi] = append(vmap[vi], id)
		}
		polygon = append(polygon, id)

		if end {
			if len(polygon) < 3 {
				o.logger.Warn("skipping degenerate polygon", zap.Int("polygon", polygonIndex), zap.Int("count", len(polygon)))
			} else {
				m.Faces = append(m.Faces, triangulate(polygon)...)
			}
			polygon = polygon[:0]
			polygonIndex++
		}
	}
	if len(polygon) > 0 {
		o.logger.Warn("dropping unterminated polygon", zap.Int("polygon", polygonIndex), zap.Int("count", len(polygon)))
	}
	return m, vmap, nil
}

// Build loads a Geometry object and decodes it. The mesh is named after the
// geometry, or its first parent when the geometry is unnamed.
func Build(geometry *fbx.Object, opts ...Option) (*Mesh, VertexMap, error) {
	data, err := geometry.GeometryData()
	if err != nil {
		return nil, nil, err
	}
	m, vmap, err := Decode(data, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%v: %w", geometry, err)
	}
	m.Name = geometry.Name
	if m.Name == "" {
		if p := geometry.Parent(0); p != nil {
			m.Name = p.Name
		}
	}
	return m, vmap, nil
}
