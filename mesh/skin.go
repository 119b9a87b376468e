package mesh

import (
	"fmt"

	"github.com/binzume/fbxscene/fbx"
	"go.uber.org/zap"
)

// Skeleton resolves bone names to indices.
type Skeleton interface {
	IndexOf(name string) int
}

// ApplySkin distributes the bone weights of every SubDeformer of deformer onto
// the output vertices each original control point was split into.
// A missing weight counts as 1.
func ApplySkin(m *Mesh, vmap VertexMap, deformer *fbx.Object, sk Skeleton, opts ...Option) error {
	o := newOptions(opts)
	for _, sub := range deformer.SubDeformers() {
		indexes := sub.Indexes()
		if len(indexes) == 0 {
			continue
		}
		bone := sub.Bone()
		if bone == nil {
			return fmt.Errorf("%w: %v has no bone", ErrBoneNotFound, sub)
		}
		boneIndex := sk.IndexOf(bone.Name)
		if boneIndex < 0 {
			return fmt.Errorf("%w: %q (%v)", ErrBoneNotFound, bone.Name, sub)
		}
		weights := sub.Weights()
		for i, vi := range indexes {
			if vi < 0 || int(vi) >= len(vmap) {
				return fmt.Errorf("%w: %v binds vertex %d", ErrBufferRange, sub, vi)
			}
			weight := float32(1)
			if i < len(weights) {
				weight = weights[i]
			}
			for _, id := range vmap[vi] {
				v := m.Vertices[id]
				v.Bones = append(v.Bones, BoneWeight{Index: boneIndex, Weight: weight})
			}
		}
		o.logger.Debug("bound cluster", zap.String("bone", bone.Name), zap.Int("index", boneIndex), zap.Int("count", len(indexes)))
	}
	return nil
}
