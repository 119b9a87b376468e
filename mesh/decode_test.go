package mesh

import (
	"errors"
	"testing"

	"github.com/binzume/fbxscene/fbx"
	"github.com/binzume/fbxscene/geom"
)

var quadPositions = []float32{
	0, 0, 0,
	1, 0, 0,
	1, 1, 0,
	0, 1, 0,
}

func TestDecodeTriangle(t *testing.T) {
	g := &fbx.GeometryData{
		Vertices:           quadPositions[:9],
		PolygonVertexIndex: []int32{0, 1, ^2},
		UV:                 &fbx.LayerElement{Mapping: fbx.ByVertex, Reference: fbx.Direct, Data: []float32{0, 0, 1, 0, 1, 1}},
	}
	m, vmap, err := Decode(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Vertices) != 3 {
		t.Errorf("vertices: %v", len(m.Vertices))
	}
	if len(m.Faces) != 1 || m.Faces[0] != (Face{0, 1, 2}) {
		t.Errorf("faces: %v", m.Faces)
	}
	if len(vmap) != 3 || len(vmap[2]) != 1 || vmap[2][0] != 2 {
		t.Errorf("vertex map: %v", vmap)
	}
	if m.Skinned() {
		t.Error("should not be skinned")
	}
}

func TestDecodeQuad(t *testing.T) {
	g := &fbx.GeometryData{
		Vertices:           quadPositions,
		PolygonVertexIndex: []int32{0, 1, 2, ^3},
	}
	m, _, err := Decode(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Vertices) != 4 {
		t.Errorf("vertices: %v", len(m.Vertices))
	}
	if len(m.Faces) != 2 || m.Faces[0] != (Face{0, 1, 2}) || m.Faces[1] != (Face{0, 2, 3}) {
		t.Errorf("faces: %v", m.Faces)
	}
}

func TestDecodeUVSeam(t *testing.T) {
	// Two triangles share positions 0 and 2; vertex 2 has a different uv in the second one.
	g := &fbx.GeometryData{
		Vertices:           quadPositions,
		PolygonVertexIndex: []int32{0, 1, ^2, 0, 2, ^3},
		UV: &fbx.LayerElement{
			Mapping:   fbx.ByPolygonVertex,
			Reference: fbx.IndexToDirect,
			Data:      []float32{0, 0, 1, 0, 1, 1, 0.5, 0.5, 0, 1},
			Index:     []int32{0, 1, 2, 0, 3, 4},
		},
	}
	m, vmap, err := Decode(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Vertices) != 5 {
		t.Errorf("vertices: %v", len(m.Vertices))
	}
	if len(vmap[2]) != 2 || len(vmap[0]) != 1 {
		t.Errorf("vertex map: %v", vmap)
	}
	if m.Faces[1] != (Face{0, 3, 4}) {
		t.Errorf("faces: %v", m.Faces)
	}
}

func TestTriangulateCount(t *testing.T) {
	for n := 3; n < 10; n++ {
		positions := make([]float32, n*3)
		indices := make([]int32, n)
		for i := 0; i < n; i++ {
			positions[i*3] = float32(i)
			indices[i] = int32(i)
		}
		indices[n-1] = ^indices[n-1]
		m, _, err := Decode(&fbx.GeometryData{Vertices: positions, PolygonVertexIndex: indices})
		if err != nil {
			t.Fatal(err)
		}
		if len(m.Faces) != n-2 {
			t.Errorf("n=%d: faces %d", n, len(m.Faces))
		}
		for i, f := range m.Faces {
			if f != (Face{0, uint32(i + 1), uint32(i + 2)}) {
				t.Errorf("n=%d: face %d = %v", n, i, f)
			}
		}
	}
}

func TestDecodeDegenerate(t *testing.T) {
	g := &fbx.GeometryData{
		Vertices:           quadPositions,
		PolygonVertexIndex: []int32{0, ^1, 0, 1, ^2, 3},
	}
	m, _, err := Decode(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Faces) != 1 {
		t.Errorf("degenerate and unterminated polygons should be skipped: %v", m.Faces)
	}
}

func TestDecodeOutOfRange(t *testing.T) {
	_, _, err := Decode(&fbx.GeometryData{Vertices: quadPositions, PolygonVertexIndex: []int32{0, 1, ^7}})
	if !errors.Is(err, ErrBufferRange) {
		t.Errorf("expected ErrBufferRange, got %v", err)
	}
	_, _, err = Decode(&fbx.GeometryData{
		Vertices:           quadPositions,
		PolygonVertexIndex: []int32{0, 1, ^2},
		Normal:             &fbx.LayerElement{Mapping: fbx.ByPolygonVertex, Reference: fbx.IndexToDirect, Data: []float32{0, 0, 1}, Index: []int32{0}},
	})
	if !errors.Is(err, ErrBufferRange) {
		t.Errorf("expected ErrBufferRange, got %v", err)
	}
}

func TestLayerIndex(t *testing.T) {
	cases := []struct {
		mapping fbx.MappingType
		want    int
	}{
		{fbx.ByVertex, 5},
		{fbx.ByVertice, 5},
		{fbx.ByControlPoint, 5},
		{fbx.ByPolygon, 2},
		{fbx.ByPolygonVertex, 7},
		{fbx.AllSame, 0},
		{"", 7},
	}
	for _, c := range cases {
		i, err := layerIndex(&fbx.LayerElement{Mapping: c.mapping, Reference: fbx.Direct}, 5, 2, 7)
		if err != nil || i != c.want {
			t.Errorf("%v: %v %v", c.mapping, i, err)
		}
	}

	e := &fbx.LayerElement{Mapping: fbx.ByPolygon, Reference: fbx.IndexToDirect, Index: []int32{9, 8, 4}}
	if i, _ := layerIndex(e, 5, 2, 7); i != 4 {
		t.Errorf("IndexToDirect: %v", i)
	}
}

func TestUVFlipAndNormals(t *testing.T) {
	g := &fbx.GeometryData{
		Vertices:           quadPositions[:9],
		PolygonVertexIndex: []int32{0, 1, ^2},
		UV:                 &fbx.LayerElement{Mapping: fbx.ByPolygonVertex, Reference: fbx.Direct, Data: []float32{0, 0.25, 1, 0, 1, 1}},
		Normal:             &fbx.LayerElement{Mapping: fbx.ByPolygon, Reference: fbx.Direct, Data: []float32{0, 0, 1}},
	}
	m, _, err := Decode(g)
	if err != nil {
		t.Fatal(err)
	}
	if m.Vertices[0].UV != (geom.Vector2{X: 0, Y: 0.75}) || m.Vertices[1].UV != (geom.Vector2{X: 1, Y: 1}) {
		t.Errorf("uv: %v %v", m.Vertices[0].UV, m.Vertices[1].UV)
	}
	for _, v := range m.Vertices {
		if v.Normal != (geom.Vector3{X: 0, Y: 0, Z: 1}) {
			t.Errorf("normal: %v", v.Normal)
		}
	}
}
