package fbx

import "go.uber.org/zap"

// link resolves every connection and mutates the graph in place.
// Connections whose endpoints cannot be found are skipped.
func (s *Scene) link() {
	roots := s.documentRoots()
	for _, c := range s.Connections {
		parent := roots[c.ParentUID]
		if parent == nil {
			parent = s.objects[c.ParentUID]
		}
		child := s.objects[c.ChildUID]
		if parent == nil || child == nil {
			s.Stats.Dropped++
			s.logger.Debug("unresolved connection",
				zap.String("kind", string(c.Kind)),
				zap.Int64("child", c.ChildUID),
				zap.Int64("parent", c.ParentUID),
				zap.Bool("parentFound", parent != nil),
				zap.Bool("childFound", child != nil))
			continue
		}
		if c.Kind == ObjectProperty {
			parent.Props.Set(SanitizeName(c.PropertyName), ObjectValue(child.UID))
		} else {
			parent.ChildIDs = append(parent.ChildIDs, child.UID)
		}
		child.ParentIDs = append(child.ParentIDs, parent.UID)
		s.Stats.Linked++
	}
	if s.Stats.Dropped > 0 {
		s.logger.Warn("dropped connections", zap.Int("dropped", s.Stats.Dropped), zap.Int("linked", s.Stats.Linked))
	}
}

// documentRoots maps each document's RootNode uid to the document.
// The first document declaring a root wins.
func (s *Scene) documentRoots() map[int64]*Object {
	roots := map[int64]*Object{}
	for _, d := range s.Documents {
		root, ok := d.RootNode()
		if !ok {
			continue
		}
		if _, dup := roots[root]; !dup {
			roots[root] = &d.Object
		}
	}
	return roots
}
