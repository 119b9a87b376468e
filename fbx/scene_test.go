package fbx

import (
	"errors"
	"testing"
)

func objName(name, class string) string {
	return name + nameSeparatorBinary + class
}

func p70(name, typ string, values ...interface{}) *Node {
	return NewNode("P", append([]interface{}{name, typ, "", ""}, values...)...)
}

// testNodes builds: Document(root 0) -> Model "body" -> Geometry "bodyMesh" <- Deformer <- Cluster -> LimbNode "hips".
func testNodes() []*Node {
	docs := NewNode("Documents").AddChild(
		NewNode("Document", int64(1000), "", "Scene").AddChild(
			NewNode("Properties70").AddChild(p70("SourceObject", "object")),
			NewNode("RootNode", int64(0)),
		),
	)
	objects := NewNode("Objects").AddChild(
		NewNode("Model", int64(10), objName("body", "Model"), "Mesh").AddChild(
			NewNode("Properties70").AddChild(
				p70("Lcl Translation", "Lcl Translation", 1.0, 2.0, 3.0),
			),
		),
		NewNode("Geometry", int64(20), objName("bodyMesh", "Geometry"), "Mesh").AddChild(
			NewNode("Vertices", []float64{0, 0, 0, 1, 0, 0, 1, 1, 0}),
			NewNode("PolygonVertexIndex", []int32{0, 1, ^2}),
		),
		NewNode("Deformer", int64(30), objName("skin", "Deformer"), "Skin"),
		NewNode("Deformer", int64(31), objName("cluster", "SubDeformer"), "Cluster").AddChild(
			NewNode("Indexes", []int32{0, 1}),
			NewNode("Weights", []float64{0.5, 1}),
		),
		NewNode("Model", int64(40), objName("hips", "Model"), "LimbNode"),
		NewNode("Material", int64(50), objName("mat", "Material"), ""),
		NewNode("Texture", int64(60), objName("tex", "Texture"), ""),
	)
	conns := NewNode("Connections").AddChild(
		NewNode("C", "OO", int64(10), int64(0)),
		NewNode("C", "OO", int64(20), int64(10)),
		NewNode("C", "OO", int64(30), int64(20)),
		NewNode("C", "OO", int64(31), int64(30)),
		NewNode("C", "OO", int64(40), int64(31)),
		NewNode("C", "OO", int64(40), int64(0)),
		NewNode("C", "OO", int64(50), int64(10)),
		NewNode("C", "OP", int64(60), int64(50), "DiffuseColor"),
	)
	return []*Node{NewNode("FBXHeaderExtension"), docs, objects, conns}
}

func TestResolve(t *testing.T) {
	s := Resolve(testNodes())

	if len(s.Documents) != 1 || s.Documents[0].Name != "Scene" || s.Documents[0].UID != 1000 {
		t.Fatalf("unexpected documents: %v", s.Documents)
	}
	if len(s.Objects.All) != 7 {
		t.Errorf("objects: %v", len(s.Objects.All))
	}
	if len(s.Objects.Models) != 2 || len(s.Objects.Geometries) != 1 || len(s.Objects.Materials) != 1 || len(s.Objects.Textures) != 1 {
		t.Errorf("unexpected grouping: %+v", s.Objects)
	}
	if len(s.Objects.Poses) != 0 || len(s.Objects.AnimStacks) != 0 {
		t.Error("unexpected poses or anim stacks")
	}
	g := s.Object(20)
	if g.Name != "bodyMesh" || g.Type != "Geometry" || g.Subtype != "Mesh" {
		t.Errorf("unexpected geometry: %v %v %v", g.Name, g.Type, g.Subtype)
	}
	if len(s.Connections) != 8 || s.Stats.Linked != 8 || s.Stats.Dropped != 0 {
		t.Errorf("unexpected link stats: %v %+v", len(s.Connections), s.Stats)
	}

	seen := map[int64]bool{}
	for _, o := range s.Objects.All {
		if seen[o.UID] {
			t.Errorf("duplicate uid %v", o.UID)
		}
		seen[o.UID] = true
	}
}

func TestResolveEmpty(t *testing.T) {
	s := Resolve(nil)
	if len(s.Documents) != 0 || len(s.Objects.All) != 0 || len(s.Connections) != 0 {
		t.Error("expected empty scene")
	}
	s = Resolve([]*Node{NewNode("Documents")})
	if len(s.Objects.Models) != 0 {
		t.Error("expected no models")
	}
	if _, err := s.Roots(0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLink(t *testing.T) {
	s := Resolve(testNodes())

	roots, err := s.Roots(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 2 || roots[0].Name != "body" || roots[1].Name != "hips" {
		t.Errorf("unexpected roots: %v", roots)
	}

	model := s.Object(10)
	if model.Parent(0) == nil || model.Parent(0).Type != "Document" {
		t.Errorf("model parent should be the document: %v", model.Parents())
	}
	g := model.Geometry()
	if g == nil || g.UID != 20 {
		t.Fatalf("geometry not linked: %v", model.Children())
	}
	if g.Parent(0) != model {
		t.Error("geometry parent should be the model")
	}

	// OP assigns to the sanitized property and not to children.
	mat := s.Object(50)
	if len(mat.ChildIDs) != 0 {
		t.Errorf("OP connection must not append children: %v", mat.ChildIDs)
	}
	if v := mat.Props.Lookup("DiffuseColor"); v.Kind != KindObject || v.Object != 60 {
		t.Errorf("unexpected DiffuseColor: %+v", v)
	}
	if tex := mat.DiffuseTexture(); tex == nil || tex.Name != "tex" {
		t.Errorf("unexpected texture: %v", tex)
	}
	if p := s.Object(60).Parent(0); p != mat {
		t.Errorf("texture parent should be the material: %v", p)
	}

	// Shared resource with two parents.
	hips := s.Object(40)
	if len(hips.ParentIDs) != 2 {
		t.Errorf("hips should have two parents: %v", hips.Parents())
	}
}

func TestLinkDropsBadConnections(t *testing.T) {
	nodes := testNodes()
	conns := nodes[3]
	conns.AddChild(
		NewNode("C", "OO", int64(999), int64(10)),
		NewNode("C", "OO", int64(10), int64(999)),
		NewNode("C", "PP", int64(20), int64(10)),
	)
	s := Resolve(nodes)
	if len(s.Connections) != 10 {
		t.Errorf("unknown tags should be rejected: %v", len(s.Connections))
	}
	if s.Stats.Dropped != 2 || s.Stats.Linked != 8 {
		t.Errorf("unexpected stats: %+v", s.Stats)
	}
	if len(s.Object(10).ChildIDs) != 2 {
		t.Errorf("unexpected model children: %v", s.Object(10).Children())
	}
}

func TestParseConnection(t *testing.T) {
	_, err := parseConnection(NewNode("C", "XX", int64(1), int64(2)))
	if !errors.Is(err, ErrUnknownConnection) {
		t.Errorf("expected ErrUnknownConnection, got %v", err)
	}
	c, err := parseConnection(NewNode("C", "OP", int64(1), int64(2), "Geometry::LinkDeformIndex"))
	if err != nil || c.Kind != ObjectProperty || c.PropertyName != "Geometry::LinkDeformIndex" {
		t.Errorf("unexpected connection: %+v %v", c, err)
	}
	if SanitizeName(c.PropertyName) != "GeometryLinkDeformIndex" {
		t.Error(SanitizeName(c.PropertyName))
	}
}

func TestSplitName(t *testing.T) {
	if n, typ := splitName("body\x00\x01Model"); n != "body" || typ != "Model" {
		t.Error(n, typ)
	}
	if n, typ := splitName("Model::body"); n != "Model" || typ != "body" {
		t.Error(n, typ)
	}
	if n, typ := splitName("plain"); n != "plain" || typ != "" {
		t.Error(n, typ)
	}
	if n, typ := splitName("ns::Bone\x00\x01Model"); n != "ns::Bone" || typ != "Model" {
		t.Error(n, typ)
	}

	s := Resolve([]*Node{NewNode("Objects").AddChild(NewNode("Model", int64(7), "rig::Hips\x00\x01Model", "LimbNode"))})
	if len(s.Objects.Models) != 1 || s.Objects.Models[0].Name != "rig::Hips" {
		t.Errorf("namespaced model: %v", s.Objects.Models)
	}

	// type falls back to the node name.
	s = Resolve([]*Node{NewNode("Objects").AddChild(NewNode("Pose", int64(5), "bindpose", "BindPose"))})
	if len(s.Objects.Poses) != 1 || s.Objects.Poses[0].Name != "bindpose" {
		t.Errorf("unexpected poses: %v", s.Objects.Poses)
	}
}

func TestDuplicateUID(t *testing.T) {
	s := Resolve([]*Node{NewNode("Objects").AddChild(
		NewNode("Model", int64(5), objName("a", "Model"), "Null"),
		NewNode("Model", int64(5), objName("b", "Model"), "Null"),
	)})
	if len(s.Objects.All) != 1 || s.Object(5).Name != "a" {
		t.Errorf("first object should win: %v", s.Objects.All)
	}
}
