package fbx

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

const nameSeparatorBinary = "\x00\x01"

// ErrUnknownConnection marks a connection tag other than OO or OP.
var ErrUnknownConnection = errors.New("fbx: unsupported connection type")

type ConnectionKind string

const (
	ObjectObject   ConnectionKind = "OO"
	ObjectProperty ConnectionKind = "OP"
)

type Connection struct {
	Kind         ConnectionKind
	ChildUID     int64
	ParentUID    int64
	PropertyName string // OP only
}

// Objects groups the resolved objects by type.
type Objects struct {
	All        []*Object
	Models     []*Object
	Geometries []*Object
	Materials  []*Object
	Poses      []*Object
	Textures   []*Object
	AnimStacks []*Object
}

// LinkStats counts the outcome of connection linking.
type LinkStats struct {
	Linked  int
	Dropped int
}

// Scene is the resolved object graph of one FBX file.
type Scene struct {
	Documents   []*Document
	Objects     Objects
	Connections []Connection
	Stats       LinkStats

	objects   map[int64]*Object
	documents map[int64]*Document
	logger    *zap.Logger

	skMu      sync.Mutex
	skeletons []*Skeleton
}

type Option func(*options)

type options struct {
	logger      *zap.Logger
	nameDecoder *encoding.Decoder
}

// WithLogger sets the logger receiving diagnostics about dropped records.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNameEncoding decodes object and document names from a legacy code page.
func WithNameEncoding(enc encoding.Encoding) Option {
	return func(o *options) {
		if enc != nil {
			o.nameDecoder = enc.NewDecoder()
		}
	}
}

// Resolve builds the object graph from the top-level nodes of a file and links its connections.
// Missing sections yield empty collections.
func Resolve(nodes []*Node, opts ...Option) *Scene {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Scene{
		objects:   map[int64]*Object{},
		documents: map[int64]*Document{},
		logger:    o.logger,
	}

	var docsFound, objectsFound, connectionsFound bool
	for _, node := range nodes {
		switch node.Name {
		case "Documents":
			docsFound = true
			for _, n := range node.Children {
				if n.Name == "Document" {
					s.addDocument(n, o.decodeName(n.PropString(2)))
				}
			}
		case "Objects":
			objectsFound = true
			for _, n := range node.Children {
				s.addObject(n, o.decodeName(n.PropString(1)))
			}
		case "Connections":
			connectionsFound = true
			for _, n := range node.Children {
				c, err := parseConnection(n)
				if err != nil {
					s.logger.Warn("skipping connection", zap.Error(err))
					continue
				}
				s.Connections = append(s.Connections, c)
			}
		}
		if docsFound && objectsFound && connectionsFound {
			break
		}
	}

	s.groupObjects()
	s.link()
	return s
}

func (o *options) decodeName(s string) string {
	if o.nameDecoder == nil {
		return s
	}
	if d, err := o.nameDecoder.String(s); err == nil {
		return d
	}
	return s
}

// splitName splits the binary "Name\x00\x01Type" at its last separator, so names
// may contain "::". Without it, s is split on the first literal "::".
func splitName(s string) (name, typ string) {
	if i := strings.LastIndex(s, nameSeparatorBinary); i >= 0 {
		return s[:i], s[i+len(nameSeparatorBinary):]
	}
	name, typ, _ = strings.Cut(s, "::")
	return name, typ
}

func (s *Scene) uidTaken(uid int64) bool {
	_, o := s.objects[uid]
	_, d := s.documents[uid]
	return o || d
}

func (s *Scene) addDocument(node *Node, name string) {
	doc := &Document{Object: Object{node: node, scene: s, Props: NewProperties()}}
	doc.UID = node.PropInt64(0)
	doc.Name = name
	doc.Type = "Document"
	if s.uidTaken(doc.UID) {
		s.logger.Warn("duplicate uid", zap.Int64("uid", doc.UID), zap.String("name", name))
		return
	}
	s.documents[doc.UID] = doc
	s.Documents = append(s.Documents, doc)
}

func (s *Scene) addObject(node *Node, fullName string) {
	obj := newObject(s, node)
	obj.UID = node.PropInt64(0)
	obj.Name, obj.Type = splitName(fullName)
	if obj.Type == "" {
		obj.Type = node.Name
	}
	obj.Subtype = node.PropString(2)
	if s.uidTaken(obj.UID) {
		s.logger.Warn("duplicate uid", zap.Int64("uid", obj.UID), zap.String("name", obj.Name))
		return
	}
	s.objects[obj.UID] = obj
	s.Objects.All = append(s.Objects.All, obj)
}

func parseConnection(node *Node) (Connection, error) {
	c := Connection{
		Kind:      ConnectionKind(node.PropString(0)),
		ChildUID:  node.PropInt64(1),
		ParentUID: node.PropInt64(2),
	}
	switch c.Kind {
	case ObjectObject:
	case ObjectProperty:
		c.PropertyName = node.PropString(3)
	default:
		return c, fmt.Errorf("%w: %q (%d -> %d)", ErrUnknownConnection, c.Kind, c.ChildUID, c.ParentUID)
	}
	return c, nil
}

func (s *Scene) groupObjects() {
	for _, o := range s.Objects.All {
		switch o.Type {
		case "Model":
			s.Objects.Models = append(s.Objects.Models, o)
		case "Geometry":
			s.Objects.Geometries = append(s.Objects.Geometries, o)
		case "Material":
			s.Objects.Materials = append(s.Objects.Materials, o)
		case "Pose":
			s.Objects.Poses = append(s.Objects.Poses, o)
		case "Texture":
			s.Objects.Textures = append(s.Objects.Textures, o)
		case "AnimStack":
			s.Objects.AnimStacks = append(s.Objects.AnimStacks, o)
		}
	}
}

// Object returns the object (not document) with the given uid.
func (s *Scene) Object(uid int64) *Object {
	return s.objects[uid]
}

// Entity returns the object or document with the given uid.
func (s *Scene) Entity(uid int64) *Object {
	if o, ok := s.objects[uid]; ok {
		return o
	}
	if d, ok := s.documents[uid]; ok {
		return &d.Object
	}
	return nil
}

func (s *Scene) entities(uids []int64) []*Object {
	r := make([]*Object, 0, len(uids))
	for _, uid := range uids {
		if o := s.Entity(uid); o != nil {
			r = append(r, o)
		}
	}
	return r
}

// Roots returns the top-level objects of the i-th document.
func (s *Scene) Roots(i int) ([]*Object, error) {
	if i < 0 || i >= len(s.Documents) {
		return nil, fmt.Errorf("%w: document %d", ErrNotFound, i)
	}
	doc := s.Documents[i]
	if err := doc.Load(); err != nil {
		return nil, err
	}
	return doc.Children(), nil
}

// Find returns the first object with the given type and name.
func (s *Scene) Find(typ, name string) *Object {
	for _, o := range s.Objects.All {
		if o.Type == typ && o.Name == name {
			return o
		}
	}
	return nil
}

func (s *Scene) Logger() *zap.Logger {
	return s.logger
}
