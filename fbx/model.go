package fbx

import (
	"math"

	"github.com/binzume/fbxscene/geom"
)

// TransformVector returns a Model's 3-vector property. The value may be stored
// inline, as a scalar, or as an OP-linked AnimCurveNode whose d|X, d|Y, d|Z
// channels hold numbers or AnimCurves with a Default.
func (o *Object) TransformVector(name string, def [3]float64) [3]float64 {
	v, err := o.Get(name)
	if err != nil {
		return def
	}
	if v.Kind != KindObject {
		return v.ToVector3(def[0], def[1], def[2])
	}
	node := o.scene.Entity(v.Object)
	if node == nil || node.Load() != nil {
		return def
	}
	r := def
	for i, ch := range [3]string{"dX", "dY", "dZ"} {
		c := node.Props.Lookup(ch)
		if c.Kind == KindObject {
			if curve := o.scene.Entity(c.Object); curve != nil {
				c, _ = curve.Get("Default")
			}
		}
		r[i] = c.ToFloat64(def[i])
	}
	return r
}

func degToRad(v [3]float64) (x, y, z geom.Element) {
	return geom.Element(v[0] * math.Pi / 180), geom.Element(v[1] * math.Pi / 180), geom.Element(v[2] * math.Pi / 180)
}

// LocalMatrix returns T * PreRotation * Rotation * S. Rotations are XYZ euler angles in degrees.
func (o *Object) LocalMatrix() *geom.Matrix4 {
	t := o.TransformVector("LclTranslation", [3]float64{0, 0, 0})
	r := o.TransformVector("LclRotation", [3]float64{0, 0, 0})
	s := o.TransformVector("LclScaling", [3]float64{1, 1, 1})
	m := geom.NewTranslateMatrix4(geom.Element(t[0]), geom.Element(t[1]), geom.Element(t[2]))
	if o.Props.Has("PreRotation") {
		m = m.Mul(geom.NewEulerRotationMatrix4(degToRad(o.TransformVector("PreRotation", [3]float64{}))))
	}
	m = m.Mul(geom.NewEulerRotationMatrix4(degToRad(r)))
	return m.Mul(geom.NewScaleMatrix4(geom.Element(s[0]), geom.Element(s[1]), geom.Element(s[2])))
}

// ParentModel returns the first parent of type Model, or nil.
func (o *Object) ParentModel() *Object {
	for _, p := range o.Parents() {
		if p.Type == "Model" {
			return p
		}
	}
	return nil
}

// WorldMatrix accumulates LocalMatrix through the Model parents.
func (o *Object) WorldMatrix() *geom.Matrix4 {
	m := o.LocalMatrix()
	seen := map[int64]bool{o.UID: true}
	for p := o.ParentModel(); p != nil && !seen[p.UID]; p = p.ParentModel() {
		seen[p.UID] = true
		m = p.LocalMatrix().Mul(m)
	}
	return m
}

// Geometry returns the first Geometry child of a Model.
func (o *Object) Geometry() *Object {
	if g := o.ChildrenOfType("Geometry"); len(g) > 0 {
		return g[0]
	}
	return nil
}

// Materials returns the Material children of a Model in connection order.
func (o *Object) Materials() []*Object {
	return o.ChildrenOfType("Material")
}
