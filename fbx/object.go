package fbx

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrLoadCycle is returned when Load is re-entered for an object that is still loading.
	ErrLoadCycle = errors.New("fbx: re-entrant load")
	// ErrNotFound is returned when a requested object or buffer does not exist.
	ErrNotFound = errors.New("fbx: not found")
)

type LoadState int

const (
	Unloaded LoadState = iota
	Loading
	Loaded
)

// Object is a record from the Objects section (or a Document).
// Edges are stored as uid lists and resolved through the owning Scene.
// Load is safe for concurrent use; Props must only be read after Load.
type Object struct {
	UID     int64
	Name    string
	Type    string // e.g. "Model", "Geometry", "Deformer"
	Subtype string // e.g. "Mesh", "LimbNode", "Skin"

	ParentIDs []int64
	ChildIDs  []int64 // OO connections only

	// Props holds materialized properties and OP-connected objects, keyed by sanitized name.
	Props *Properties

	mu    sync.Mutex // guards state and Props during Load
	state LoadState
	node  *Node
	scene *Scene
}

func newObject(scene *Scene, node *Node) *Object {
	return &Object{node: node, scene: scene, Props: NewProperties()}
}

func (o *Object) State() LoadState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Object) Loaded() bool {
	return o.State() == Loaded
}

// Load materializes the object's properties once. Later calls are no-ops.
// Concurrent callers wait for the first one; Loading is only ever observed by a
// call made while the same object is being materialized.
func (o *Object) Load() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.state {
	case Loaded:
		return nil
	case Loading:
		return fmt.Errorf("%w: %v", ErrLoadCycle, o)
	}
	o.state = Loading
	loadProperties(o.node, o.Props)
	o.state = Loaded
	return nil
}

// Get loads the object and returns the named property.
func (o *Object) Get(name string) (Value, error) {
	if err := o.Load(); err != nil {
		return Value{}, err
	}
	return o.Props.Lookup(name), nil
}

// Node returns the raw node the object was built from.
func (o *Object) Node() *Node {
	return o.node
}

func (o *Object) Scene() *Scene {
	return o.scene
}

func (o *Object) Parents() []*Object {
	return o.scene.entities(o.ParentIDs)
}

func (o *Object) Children() []*Object {
	return o.scene.entities(o.ChildIDs)
}

// Child returns the i-th OO child or nil.
func (o *Object) Child(i int) *Object {
	if o == nil || i < 0 || i >= len(o.ChildIDs) {
		return nil
	}
	return o.scene.Entity(o.ChildIDs[i])
}

// Parent returns the i-th parent or nil.
func (o *Object) Parent(i int) *Object {
	if o == nil || i < 0 || i >= len(o.ParentIDs) {
		return nil
	}
	return o.scene.Entity(o.ParentIDs[i])
}

func (o *Object) ChildrenOfType(typ string) []*Object {
	var r []*Object
	for _, c := range o.Children() {
		if c.Type == typ {
			r = append(r, c)
		}
	}
	return r
}

// Ref returns the object an OP connection assigned to the named property.
func (o *Object) Ref(name string) *Object {
	v, err := o.Get(name)
	if err != nil || v.Kind != KindObject {
		return nil
	}
	return o.scene.Entity(v.Object)
}

func (o *Object) String() string {
	if o == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s::%s(%d)", o.Type, o.Name, o.UID)
}

// Document is a scene root declared in the Documents section.
type Document struct {
	Object
}

// RootNode returns the uid this document uses as the parent of its top-level objects.
func (d *Document) RootNode() (int64, bool) {
	v, err := d.Get("RootNode")
	if err != nil || v.Kind != KindNumber {
		return 0, false
	}
	return v.Int, true
}
