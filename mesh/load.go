package mesh

import (
	"fmt"

	"github.com/binzume/fbxscene/fbx"
)

// Selector picks a geometry: by Index when it is in range, else by geometry
// Name, else the first child of the Mesh model with that Name.
type Selector struct {
	Index int
	Name  string
}

// Find returns the geometry selected by sel.
func Find(s *fbx.Scene, sel Selector) (*fbx.Object, error) {
	if sel.Index >= 0 && sel.Index < len(s.Objects.Geometries) {
		return s.Objects.Geometries[sel.Index], nil
	}
	for _, g := range s.Objects.Geometries {
		if g.Name == sel.Name {
			return g, nil
		}
	}
	for _, m := range s.Objects.Models {
		if m.Name == sel.Name && m.Subtype == "Mesh" {
			if g := m.Child(0); g != nil && g.Type == "Geometry" {
				return g, nil
			}
			if g := m.Geometry(); g != nil {
				return g, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: mesh %d %q", fbx.ErrNotFound, sel.Index, sel.Name)
}

// Load selects a geometry and builds its mesh. When the geometry has a skin
// deformer its vertices receive bone weights, resolved against the scene's
// skeleton unless WithSkeleton is given.
func Load(s *fbx.Scene, sel Selector, opts ...Option) (*Mesh, error) {
	g, err := Find(s, sel)
	if err != nil {
		return nil, err
	}
	return LoadGeometry(g, opts...)
}

// LoadGeometry builds the mesh of g, applying its skin if present.
func LoadGeometry(g *fbx.Object, opts ...Option) (*Mesh, error) {
	m, vmap, err := Build(g, opts...)
	if err != nil {
		return nil, err
	}
	deformer := g.Deformer()
	if deformer == nil || deformer.Child(0) == nil {
		return m, nil
	}
	o := newOptions(opts)
	sk := o.skeleton
	if sk == nil {
		// Deformer -> SubDeformer -> LimbNode
		fsk, err := g.Scene().Skeleton(deformer.Child(0).Bone())
		if err != nil {
			return nil, fmt.Errorf("skeleton of %v: %w", g, err)
		}
		sk = fsk
	}
	if err := ApplySkin(m, vmap, deformer, sk, opts...); err != nil {
		return nil, err
	}
	return m, nil
}
