package fbx

import (
	"fmt"
	"io"
	"strings"
)

// Node is one element of the tokenized FBX tree.
type Node struct {
	Name       string
	Properties PropertyList
	Children   []*Node
}

// NewNode builds a node from plain Go values. Slices become array properties.
func NewNode(name string, values ...interface{}) *Node {
	n := &Node{Name: name}
	for _, v := range values {
		n.Properties = append(n.Properties, NewProperty(v))
	}
	return n
}

func (n *Node) AddChild(c ...*Node) *Node {
	n.Children = append(n.Children, c...)
	return n
}

func (n *Node) FindChild(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (n *Node) GetChildren() []*Node {
	if n == nil {
		return nil
	}
	return n.Children
}

func (n *Node) Prop(i int) *Property {
	if n == nil {
		return nil
	}
	return n.Properties.Get(i)
}

func (n *Node) PropInt64(i int) int64 {
	return n.Prop(i).ToInt64(0)
}

func (n *Node) PropString(i int) string {
	return n.Prop(i).ToString("")
}

type Property struct {
	Type  byte
	Value interface{}
	Count uint // array length, 0 for scalars
}

// NewProperty wraps v and picks the binary type code matching its Go type.
func NewProperty(v interface{}) *Property {
	p := &Property{Value: v}
	switch vv := v.(type) {
	case bool:
		p.Type = 'C'
	case int16:
		p.Type = 'Y'
	case int32:
		p.Type = 'I'
	case int:
		p.Type, p.Value = 'L', int64(vv)
	case int64:
		p.Type = 'L'
	case float32:
		p.Type = 'F'
	case float64:
		p.Type = 'D'
	case string:
		p.Type = 'S'
	case []byte:
		p.Type, p.Count = 'R', 0
	case []bool:
		p.Type, p.Count = 'b', uint(len(vv))
	case []int32:
		p.Type, p.Count = 'i', uint(len(vv))
	case []int64:
		p.Type, p.Count = 'l', uint(len(vv))
	case []float32:
		p.Type, p.Count = 'f', uint(len(vv))
	case []float64:
		p.Type, p.Count = 'd', uint(len(vv))
	}
	return p
}

type PropertyList []*Property

func (p PropertyList) Get(i int) *Property {
	if i < 0 || i >= len(p) {
		return nil
	}
	return p[i]
}

// IsArray reports whether p holds one of the typed array kinds.
func (p *Property) IsArray() bool {
	if p == nil {
		return false
	}
	switch p.Value.(type) {
	case []bool, []int32, []int64, []float32, []float64:
		return true
	}
	return false
}

func (p *Property) ToInt64(defvalue int64) int64 {
	if p == nil {
		return defvalue
	}
	switch v := p.Value.(type) {
	case bool:
		if v {
			return 1
		}
		return 0
	case uint8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float32:
		return int64(v)
	case float64:
		return int64(v)
	}
	return defvalue
}

func (p *Property) ToFloat64(defvalue float64) float64 {
	if p == nil {
		return defvalue
	}
	switch v := p.Value.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case bool, uint8, int16, int32, int64:
		return float64(p.ToInt64(0))
	}
	return defvalue
}

func (p *Property) ToBool(defvalue bool) bool {
	if p == nil {
		return defvalue
	}
	switch v := p.Value.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1" || v == "Y"
	case uint8, int16, int32, int64, float32, float64:
		return p.ToFloat64(0) != 0
	}
	return defvalue
}

func (p *Property) ToString(defvalue string) string {
	if p == nil {
		return defvalue
	}
	if v, ok := p.Value.(string); ok {
		return v
	} else if v, ok := p.Value.([]byte); ok {
		return string(v)
	}
	return defvalue
}

func (p *Property) ToInt32Array() []int32 {
	if p == nil {
		return nil
	}
	var r []int32
	switch vv := p.Value.(type) {
	case []int32:
		return vv
	case []byte:
		for _, v := range vv {
			r = append(r, int32(v))
		}
	case []bool:
		for _, v := range vv {
			if v {
				r = append(r, 1)
			} else {
				r = append(r, 0)
			}
		}
	case []int64:
		for _, v := range vv {
			r = append(r, int32(v))
		}
	case []float32:
		for _, v := range vv {
			r = append(r, int32(v))
		}
	case []float64:
		for _, v := range vv {
			r = append(r, int32(v))
		}
	}
	return r
}

func (p *Property) ToFloat32Array() []float32 {
	if p == nil {
		return nil
	}
	var r []float32
	switch vv := p.Value.(type) {
	case []float32:
		return vv
	case []float64:
		for _, v := range vv {
			r = append(r, float32(v))
		}
	case []int32:
		for _, v := range vv {
			r = append(r, float32(v))
		}
	case []int64:
		for _, v := range vv {
			r = append(r, float32(v))
		}
	}
	return r
}

func (p *Property) String() string {
	switch v := p.Value.(type) {
	case string:
		return fmt.Sprintf("%q", strings.ReplaceAll(v, nameSeparatorBinary, "::"))
	case []byte:
		return fmt.Sprintf("\"<%d bytes>\"", len(v))
	default:
		return fmt.Sprint(v)
	}
}

// Dump writes n in ASCII FBX notation. Arrays longer than 16 are elided unless full is set.
func (n *Node) Dump(w io.Writer, d int, full bool) {
	fmt.Fprint(w, strings.Repeat("  ", d), n.Name, ":")
	var arrayReplacer = strings.NewReplacer("[", "{ a:", "]", "}", " ", ", ")
	for i, p := range n.Properties {
		s := p.String()
		if p.IsArray() {
			if !full && p.Count > 16 {
				s = fmt.Sprintf("*%d { SKIPPED }", p.Count)
			} else {
				s = fmt.Sprint("*", p.Count, " ", arrayReplacer.Replace(s))
			}
		}
		if i == 0 {
			fmt.Fprint(w, " ", s)
		} else {
			fmt.Fprint(w, ", ", s)
		}
	}
	if len(n.Children) > 0 || len(n.Properties) == 0 {
		fmt.Fprintln(w, " {")
		for _, c := range n.Children {
			c.Dump(w, d+1, full)
		}
		fmt.Fprintln(w, strings.Repeat("  ", d)+"}")
	} else {
		fmt.Fprintln(w, "")
	}
}
