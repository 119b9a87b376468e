package fbx

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

type tokenType int

const (
	Ident tokenType = iota
	Number
	String
	Operator
	BlockStart
	BlockEnd
	EOL
	EOF
)

type textParser struct {
	r   io.Reader
	buf []byte
	err error
}

func (p *textParser) errorf(f string, a ...interface{}) error {
	if p.err == nil {
		p.err = fmt.Errorf(f, a...)
	}
	return p.err
}

func (p *textParser) read() byte {
	if len(p.buf) > 0 {
		b := p.buf[0]
		p.buf = p.buf[1:]
		return b
	}
	b := []byte{0}
	if p.err == nil {
		_, err := io.ReadFull(p.r, b)
		p.err = err
	}
	return b[0]
}

func isNumberChar(c byte) bool {
	return c >= '0' && c <= '9' || c == '.' || c == 'e' || c == 'E' || c == '-' || c == '+'
}

func (p *textParser) getToken() (tokenType, string) {
	var c byte
	for p.err == nil {
		c = p.read()
		if c == ';' {
			for p.err == nil && c != '\n' {
				c = p.read()
			}
			return EOL, ""
		} else if c == '{' {
			return BlockStart, string(c)
		} else if c == '}' {
			return BlockEnd, string(c)
		} else if c == '*' || c == ':' || c == ',' {
			return Operator, string(c)
		} else if c >= '0' && c <= '9' || c == '.' || c == '-' {
			buf := []byte{c}
			c = p.read()
			for isNumberChar(c) && p.err == nil {
				buf = append(buf, c)
				c = p.read()
			}
			if p.err == nil {
				p.buf = append(p.buf, c)
			}
			return Number, string(buf)
		} else if c == '\n' {
			return EOL, ""
		} else if c == '"' {
			buf := []byte{}
			c = p.read()
			for c != '"' && p.err == nil {
				buf = append(buf, c)
				c = p.read()
			}
			return String, string(buf)
		} else if c >= 'A' && c <= 'z' {
			buf := []byte{}
			for (c >= 'A' && c <= 'z' || c >= '0' && c <= '9' || c == '-') && p.err == nil {
				buf = append(buf, c)
				c = p.read()
			}
			if p.err == nil {
				p.buf = append(p.buf, c)
			}
			return Ident, string(buf)
		}
	}
	return EOF, ""
}

func (p *textParser) skip(t tokenType) bool {
	typ, s := p.getToken()
	if typ != t && p.err == nil {
		p.errorf("unexpected token: %v != %v(%q)", typ, t, s)
	}
	return typ == t
}

func isFloatLiteral(s string) bool {
	return strings.ContainsAny(s, ".eE")
}

func (p *textParser) parseArrayProp() *Property {
	_, s := p.getToken()
	size, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		p.errorf("failed to parse array size: %q", s)
	}
	p.skip(BlockStart)
	for p.err == nil {
		if _, s := p.getToken(); s == ":" {
			break
		}
	}
	var dvalues []float64
	var hasPoint bool
	for p.err == nil {
		typ, s := p.getToken()
		if typ == EOL || typ == Operator {
			continue
		} else if typ == BlockEnd {
			break
		} else if typ == Number {
			v, _ := strconv.ParseFloat(s, 64)
			dvalues = append(dvalues, v)
			hasPoint = hasPoint || isFloatLiteral(s)
		} else {
			p.errorf("invalid token in array: %q", s)
			break
		}
	}
	if len(dvalues) != int(size) {
		p.errorf("array size mismatch: %v != %v", size, len(dvalues))
	}
	if hasPoint {
		return &Property{Type: 'd', Value: dvalues, Count: uint(size)}
	}
	i32values := make([]int32, len(dvalues))
	for i, v := range dvalues {
		i32values[i] = int32(v)
	}
	return &Property{Type: 'i', Value: i32values, Count: uint(size)}
}

func (p *textParser) parseNumber(s string) *Property {
	if isFloatLiteral(s) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			p.errorf("failed to parse num: %q", s)
		}
		return &Property{Type: 'D', Value: v}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		p.errorf("failed to parse num: %q", s)
	}
	return &Property{Type: 'L', Value: v}
}

func (p *textParser) parseNodeList() []*Node {
	var nodes []*Node
	for p.err == nil {
		typ, s := p.getToken()
		if typ == EOL {
			continue
		} else if typ == EOF || typ == BlockEnd {
			break
		} else if typ != Ident {
			p.errorf("unexpected token: %q", s)
			break
		}
		p.skip(Operator)
		node := &Node{Name: s}
		nodes = append(nodes, node)
		for p.err == nil {
			typ, s := p.getToken()
			if typ == EOL || typ == EOF {
				break
			} else if typ == BlockStart {
				node.Children = p.parseNodeList()
				break
			} else if typ == Number {
				node.Properties = append(node.Properties, p.parseNumber(s))
			} else if typ == String {
				node.Properties = append(node.Properties, &Property{Type: 'S', Value: s})
			} else if typ == Ident {
				node.Properties = append(node.Properties, &Property{Type: 'S', Value: s})
			} else if typ == Operator && s == "*" {
				node.Properties = append(node.Properties, p.parseArrayProp())
			}
		}
	}
	return nodes
}

func (p *textParser) Parse() ([]*Node, error) {
	nodes := p.parseNodeList()
	if p.err != nil && p.err != io.EOF {
		return nil, p.err
	}
	for _, n := range nodes {
		if n.Name == "Objects" {
			canonicalizeObjectNames(n)
		}
	}
	return nodes, nil
}

// canonicalizeObjectNames rewrites ASCII "Class::Name" object names to the
// binary "Name\x00\x01Class" layout.
func canonicalizeObjectNames(objects *Node) {
	for _, obj := range objects.Children {
		p := obj.Prop(1)
		if p == nil {
			continue
		}
		s, ok := p.Value.(string)
		if !ok || strings.Contains(s, nameSeparatorBinary) {
			continue
		}
		if i := strings.Index(s, "::"); i >= 0 {
			p.Value = s[i+2:] + nameSeparatorBinary + s[:i]
		}
	}
}
