package fbx

import "strings"

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindNumber
	KindText
	KindVector3
	KindObject // reference to another object by uid
	KindArray  // raw buffer: typed array or byte blob
	KindTable  // nested properties of a structured child node
	KindList   // repeated child nodes with the same name
)

var kindNames = [...]string{"none", "bool", "number", "text", "vector3", "object", "array", "table", "list"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is one materialized property.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	Int    int64 // exact value of integral numbers
	Text   string
	Vector [3]float64
	Object int64
	Array  *Property
	Table  *Properties
	List   []Value
}

func BoolValue(b bool) Value         { return Value{Kind: KindBool, Bool: b} }
func NumberValue(n float64) Value    { return Value{Kind: KindNumber, Number: n, Int: int64(n)} }
func IntValue(n int64) Value         { return Value{Kind: KindNumber, Number: float64(n), Int: n} }
func TextValue(s string) Value       { return Value{Kind: KindText, Text: s} }
func ObjectValue(uid int64) Value    { return Value{Kind: KindObject, Object: uid} }
func TableValue(t *Properties) Value { return Value{Kind: KindTable, Table: t} }

func Vector3Value(x, y, z float64) Value {
	return Value{Kind: KindVector3, Vector: [3]float64{x, y, z}}
}

// ValueOf converts a tokenized scalar or buffer into a Value.
func ValueOf(p *Property) Value {
	if p == nil {
		return Value{}
	}
	switch v := p.Value.(type) {
	case bool:
		return BoolValue(v)
	case uint8, int16, int32, int64:
		return IntValue(p.ToInt64(0))
	case float32, float64:
		return NumberValue(p.ToFloat64(0))
	case string:
		return TextValue(v)
	case []byte, []bool, []int32, []int64, []float32, []float64:
		return Value{Kind: KindArray, Array: p}
	}
	return Value{}
}

func (v Value) IsNone() bool {
	return v.Kind == KindNone
}

// First returns the first element of a list, or v itself.
func (v Value) First() Value {
	if v.Kind == KindList {
		if len(v.List) == 0 {
			return Value{}
		}
		return v.List[0]
	}
	return v
}

func (v Value) Float32s() []float32 {
	if v.Kind != KindArray {
		return nil
	}
	return v.Array.ToFloat32Array()
}

func (v Value) Int32s() []int32 {
	if v.Kind != KindArray {
		return nil
	}
	return v.Array.ToInt32Array()
}

func (v Value) Bytes() []byte {
	if v.Kind != KindArray {
		return nil
	}
	b, _ := v.Array.Value.([]byte)
	return b
}

func (v Value) ToFloat64(def float64) float64 {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindBool:
		if v.Bool {
			return 1
		}
		return 0
	}
	return def
}

func (v Value) ToInt64(def int64) int64 {
	switch v.Kind {
	case KindNumber:
		return v.Int
	case KindObject:
		return v.Object
	case KindBool:
		if v.Bool {
			return 1
		}
		return 0
	}
	return def
}

func (v Value) ToString(def string) string {
	if v.Kind == KindText {
		return v.Text
	}
	return def
}

// ToVector3 returns the vector, or a scalar number broadcast to all components.
func (v Value) ToVector3(x, y, z float64) [3]float64 {
	switch v.Kind {
	case KindVector3:
		return v.Vector
	case KindNumber:
		return [3]float64{v.Number, v.Number, v.Number}
	}
	return [3]float64{x, y, z}
}

// Properties is an insertion-ordered map of sanitized names to values.
type Properties struct {
	keys   []string
	values map[string]Value
}

func NewProperties() *Properties {
	return &Properties{values: map[string]Value{}}
}

func (p *Properties) Get(name string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	v, ok := p.values[name]
	return v, ok
}

// Lookup returns the value or a KindNone value.
func (p *Properties) Lookup(name string) Value {
	v, _ := p.Get(name)
	return v
}

func (p *Properties) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// Set overwrites name.
func (p *Properties) Set(name string, v Value) {
	if _, ok := p.values[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.values[name] = v
}

// SetIfAbsent stores v only when name is unset. It reports whether v was stored.
func (p *Properties) SetIfAbsent(name string, v Value) bool {
	if _, ok := p.values[name]; ok {
		return false
	}
	p.Set(name, v)
	return true
}

// Append stores v, turning an existing entry into a list.
func (p *Properties) Append(name string, v Value) {
	old, ok := p.values[name]
	if !ok {
		p.Set(name, v)
		return
	}
	if old.Kind != KindList {
		old = Value{Kind: KindList, List: []Value{old}}
	}
	old.List = append(old.List, v)
	p.values[name] = old
}

func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	return p.keys
}

func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// SanitizeName strips every character outside A-Z and a-z,
// e.g. "Lcl Translation" becomes "LclTranslation".
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, name)
}
