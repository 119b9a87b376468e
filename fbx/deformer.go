package fbx

import "github.com/binzume/fbxscene/geom"

// SubDeformers returns the clusters of a skin deformer.
func (o *Object) SubDeformers() []*Object {
	return o.Children()
}

// Indexes returns the control point indices bound by a SubDeformer.
func (o *Object) Indexes() []int32 {
	if err := o.Load(); err != nil {
		return nil
	}
	return o.Props.Lookup("Indexes").Int32s()
}

// Weights returns the weights parallel to Indexes.
func (o *Object) Weights() []float32 {
	if err := o.Load(); err != nil {
		return nil
	}
	return o.Props.Lookup("Weights").Float32s()
}

// Bone returns the LimbNode a SubDeformer binds to.
func (o *Object) Bone() *Object {
	return o.Child(0)
}

// Cluster returns the SubDeformer of a skin deformer bound to bone, or nil.
func (o *Object) Cluster(bone *Object) *Object {
	for _, sub := range o.SubDeformers() {
		if sub.Bone() == bone {
			return sub
		}
	}
	return nil
}

// Matrix returns a 16-element matrix property such as a cluster's Transform or TransformLink.
func (o *Object) Matrix(name string) (*geom.Matrix4, bool) {
	v, err := o.Get(name)
	if err != nil {
		return nil, false
	}
	a := v.Float32s()
	if len(a) != 16 {
		return nil, false
	}
	return geom.NewMatrix4FromSlice(a), true
}
