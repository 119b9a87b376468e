package fbx

import (
	"errors"
	"reflect"
	"testing"
)

func TestProperties70(t *testing.T) {
	node := NewNode("Model", int64(1), objName("m", "Model"), "Mesh").AddChild(
		NewNode("Properties70").AddChild(
			NewNode("P", "Lcl Translation", "Lcl Translation", "", "A", 1.0, 2.0, 3.0),
			p70("Visibility", "bool", int32(1)),
			p70("InheritType", "enum", int32(2)),
			p70("DefaultAttributeIndex", "int", int32(-1)),
			p70("Shininess", "double", 20.5),
			p70("FieldOfView", "FieldOfView", 40.0),
			p70("Diffuse", "ColorRGB", 0.1, 0.2, 0.3),
			p70("Path", "KString", "a/b.png"),
			p70("Custom", "Unknown", "text"),
		),
	)
	s := Resolve([]*Node{NewNode("Objects").AddChild(node)})
	o := s.Object(1)
	if err := o.Load(); err != nil {
		t.Fatal(err)
	}

	if v := o.Props.Lookup("LclTranslation"); v.Kind != KindVector3 || v.Vector != [3]float64{1, 2, 3} {
		t.Errorf("unexpected LclTranslation: %+v", v)
	}
	if v := o.Props.Lookup("Visibility"); v.Kind != KindBool || !v.Bool {
		t.Errorf("unexpected Visibility: %+v", v)
	}
	if v := o.Props.Lookup("InheritType"); v.Kind != KindNumber || v.Int != 2 {
		t.Errorf("unexpected InheritType: %+v", v)
	}
	if v := o.Props.Lookup("DefaultAttributeIndex"); v.Int != -1 {
		t.Errorf("unexpected DefaultAttributeIndex: %+v", v)
	}
	if v := o.Props.Lookup("Shininess"); v.Number != 20.5 {
		t.Errorf("unexpected Shininess: %+v", v)
	}
	if v := o.Props.Lookup("FieldOfView"); v.Number != 40 {
		t.Errorf("unexpected FieldOfView: %+v", v)
	}
	if v := o.Props.Lookup("Diffuse"); v.Vector != [3]float64{0.1, 0.2, 0.3} {
		t.Errorf("unexpected Diffuse: %+v", v)
	}
	if v := o.Props.Lookup("Path"); v.Text != "a/b.png" {
		t.Errorf("unexpected Path: %+v", v)
	}
	if v := o.Props.Lookup("Custom"); v.Kind != KindText || v.Text != "text" {
		t.Errorf("unexpected Custom: %+v", v)
	}
}

func TestFirstWriteWins(t *testing.T) {
	node := NewNode("Geometry", int64(1), objName("g", "Geometry"), "Mesh").AddChild(
		NewNode("Version", int32(124)),
		NewNode("Properties70").AddChild(
			p70("Version", "int", int32(999)),
			p70("Color", "ColorRGB", 1.0, 0.0, 0.0),
			p70("Color", "ColorRGB", 0.0, 1.0, 0.0),
		),
		NewNode("Color", 0.5),
	)
	s := Resolve([]*Node{NewNode("Objects").AddChild(node)})
	o := s.Object(1)
	if v, _ := o.Get("Version"); v.Int != 124 {
		t.Errorf("generic child should win: %+v", v)
	}
	if v, _ := o.Get("Color"); v.Kind != KindVector3 || v.Vector != [3]float64{1, 0, 0} {
		t.Errorf("first Properties70 entry should win: %+v", v)
	}
}

func TestOPConnectionSurvivesLoad(t *testing.T) {
	s := Resolve(testNodes())
	mat := s.Object(50)
	mat.node.AddChild(NewNode("Properties70").AddChild(p70("DiffuseColor", "ColorRGB", 1.0, 1.0, 1.0)))
	if v, _ := mat.Get("DiffuseColor"); v.Kind != KindObject {
		t.Errorf("linked object should be kept: %+v", v)
	}
}

func TestNestedValues(t *testing.T) {
	node := NewNode("Geometry", int64(1), objName("g", "Geometry"), "Mesh").AddChild(
		NewNode("LayerElementUV", int32(0)).AddChild(
			NewNode("MappingInformationType", "ByPolygonVertex"),
			NewNode("UV", []float64{0, 0, 1, 1}),
		),
		NewNode("LayerElementUV", int32(1)).AddChild(
			NewNode("MappingInformationType", "ByVertex"),
		),
	)
	s := Resolve([]*Node{NewNode("Objects").AddChild(node)})
	v, _ := s.Object(1).Get("LayerElementUV")
	if v.Kind != KindTable {
		t.Fatalf("expected table, got %v", v.Kind)
	}
	if m := v.Table.Lookup("MappingInformationType").Text; m != "ByPolygonVertex" {
		t.Error(m)
	}
	if uv := v.Table.Lookup("UV").Float32s(); !reflect.DeepEqual(uv, []float32{0, 0, 1, 1}) {
		t.Error(uv)
	}

	table := NewProperties()
	table.Append("A", IntValue(1))
	table.Append("A", IntValue(2))
	if a := table.Lookup("A"); a.Kind != KindList || len(a.List) != 2 || a.First().Int != 1 {
		t.Errorf("unexpected list: %+v", a)
	}
}

func TestLoadIdempotent(t *testing.T) {
	s := Resolve(testNodes())
	g := s.Object(20)
	if g.State() != Unloaded {
		t.Error("should be unloaded")
	}
	if err := g.Load(); err != nil {
		t.Fatal(err)
	}
	keys := append([]string{}, g.Props.Keys()...)
	first := g.Props.Lookup("Vertices")

	g.node.AddChild(NewNode("Extra", int32(1)))
	if err := g.Load(); err != nil {
		t.Fatal(err)
	}
	if !g.Loaded() || !reflect.DeepEqual(keys, g.Props.Keys()) {
		t.Errorf("second load changed properties: %v", g.Props.Keys())
	}
	if g.Props.Lookup("Vertices").Array != first.Array {
		t.Error("second load re-decoded buffers")
	}
}

func TestLoadCycle(t *testing.T) {
	s := Resolve(testNodes())
	o := s.Object(10)
	o.state = Loading
	if err := o.Load(); !errors.Is(err, ErrLoadCycle) {
		t.Errorf("expected ErrLoadCycle, got %v", err)
	}
	if _, err := o.Get("LclTranslation"); !errors.Is(err, ErrLoadCycle) {
		t.Errorf("expected ErrLoadCycle, got %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"Lcl Translation":           "LclTranslation",
		"Geometry::LinkDeformIndex": "GeometryLinkDeformIndex",
		"d|X":                       "dX",
		"3dsMax|Param_1":            "dsMaxParam",
		"":                          "",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
