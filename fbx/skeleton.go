package fbx

import "fmt"

// Skeleton is an ordered set of LimbNode models. A bone's index is its position in Bones.
type Skeleton struct {
	Bones []*Object
	index map[string]int
}

// IndexOf returns the index of the named bone, or -1.
func (s *Skeleton) IndexOf(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

func (s *Skeleton) Root() *Object {
	if len(s.Bones) == 0 {
		return nil
	}
	return s.Bones[0]
}

func isLimbNode(o *Object) bool {
	return o.Type == "Model" && o.Subtype == "LimbNode"
}

// BuildSkeleton collects the skeleton containing limb: the topmost LimbNode ancestor
// followed by its LimbNode descendants in depth-first order. Non-bone models in
// between (e.g. Null helpers) are walked through but not indexed.
func BuildSkeleton(limb *Object) (*Skeleton, error) {
	if limb == nil || !isLimbNode(limb) {
		return nil, fmt.Errorf("%w: limb node %v", ErrNotFound, limb)
	}
	root := limb
	seen := map[int64]bool{limb.UID: true}
	for p := limb.ParentModel(); p != nil && !seen[p.UID]; p = p.ParentModel() {
		seen[p.UID] = true
		if isLimbNode(p) {
			root = p
		}
	}

	s := &Skeleton{index: map[string]int{}}
	visited := map[int64]bool{}
	var walk func(o *Object)
	walk = func(o *Object) {
		if visited[o.UID] {
			return
		}
		visited[o.UID] = true
		if isLimbNode(o) {
			if _, dup := s.index[o.Name]; !dup {
				s.index[o.Name] = len(s.Bones)
			}
			s.Bones = append(s.Bones, o)
		}
		for _, c := range o.ChildrenOfType("Model") {
			walk(c)
		}
	}
	walk(root)
	return s, nil
}

// Skeleton returns the cached skeleton containing limb, building it on first use.
func (s *Scene) Skeleton(limb *Object) (*Skeleton, error) {
	if limb == nil {
		return nil, fmt.Errorf("%w: limb node", ErrNotFound)
	}
	s.skMu.Lock()
	defer s.skMu.Unlock()
	for _, sk := range s.skeletons {
		if sk.IndexOf(limb.Name) >= 0 {
			return sk, nil
		}
	}
	sk, err := BuildSkeleton(limb)
	if err != nil {
		return nil, err
	}
	s.skeletons = append(s.skeletons, sk)
	return sk, nil
}

// Skeletons returns the skeletons built so far.
func (s *Scene) Skeletons() []*Skeleton {
	s.skMu.Lock()
	defer s.skMu.Unlock()
	return append([]*Skeleton(nil), s.skeletons...)
}
