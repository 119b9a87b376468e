// Package mesh builds indexed triangle meshes from FBX geometry buffers.
package mesh

import (
	"errors"

	"github.com/binzume/fbxscene/geom"
	"go.uber.org/zap"
)

var (
	// ErrBufferRange is returned when an index points outside its data buffer.
	ErrBufferRange = errors.New("mesh: index out of range")
	// ErrBoneNotFound is returned when a skin cluster names a bone missing from the skeleton.
	ErrBoneNotFound = errors.New("mesh: bone not found")
)

type BoneWeight struct {
	Index  int
	Weight float32
}

type Vertex struct {
	Position geom.Vector3
	UV       geom.Vector2
	Normal   geom.Vector3
	Bones    []BoneWeight // nil unless skinned
}

type Face [3]uint32

type Mesh struct {
	Name     string
	Vertices []*Vertex
	Faces    []Face
}

// Skinned reports whether any vertex carries bone influences.
func (m *Mesh) Skinned() bool {
	for _, v := range m.Vertices {
		if v.Bones != nil {
			return true
		}
	}
	return false
}

// VertexMap maps an original control point index to the output vertices created from it.
type VertexMap [][]uint32

type Option func(*options)

type options struct {
	logger   *zap.Logger
	skeleton Skeleton
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSkeleton resolves bone names against sk instead of the scene's own skeleton.
func WithSkeleton(sk Skeleton) Option {
	return func(o *options) {
		o.skeleton = sk
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
