package fbx

import (
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

const binaryMagic = "Kaydara FBX Binary  \x00"

type positionReader struct {
	r        io.Reader
	position int64
}

func (r *positionReader) Read(p []byte) (n int, err error) {
	n, err = r.r.Read(p)
	r.position += int64(n)
	return n, err
}

func (r *positionReader) SkipTo(pos int64) error {
	offset := pos - r.position
	if offset < 0 {
		return fmt.Errorf("cannot rewind to %d (at %d)", pos, r.position)
	}
	_, err := io.CopyN(io.Discard, r, offset)
	return err
}

type binaryParser struct {
	r       *positionReader
	version uint32
	err     error
}

func (p *binaryParser) read(v interface{}) error {
	if p.err == nil {
		p.err = binary.Read(p.r, binary.LittleEndian, v)
	}
	return p.err
}

func (p *binaryParser) readUint8() uint8 {
	var v uint8
	p.read(&v)
	return v
}

func (p *binaryParser) readUint32() uint32 {
	var v uint32
	p.read(&v)
	return v
}

// readOffset reads a node header field, 64 bits wide since FBX 7.5.
func (p *binaryParser) readOffset() uint64 {
	if p.version >= 7500 {
		var v uint64
		p.read(&v)
		return v
	}
	return uint64(p.readUint32())
}

func (p *binaryParser) readString(len uint) string {
	bytes := make([]byte, len)
	p.read(bytes)
	return string(bytes)
}

func (p *binaryParser) readPropArray(typ uint8) *Property {
	count := uint(p.readUint32())
	encoding := p.readUint32()
	sz := p.readUint32()
	var buf interface{}
	switch typ {
	case 'b':
		buf = make([]bool, count)
	case 'i':
		buf = make([]int32, count)
	case 'l':
		buf = make([]int64, count)
	case 'f':
		buf = make([]float32, count)
	case 'd':
		buf = make([]float64, count)
	}
	if encoding == 0 {
		p.read(buf)
	} else {
		next := p.r.position + int64(sz)
		r, err := zlib.NewReader(io.LimitReader(p.r, int64(sz)))
		if err != nil {
			p.err = err
			return &Property{typ, buf, count}
		}
		defer r.Close()
		if err = binary.Read(r, binary.LittleEndian, buf); p.err == nil {
			p.err = err
		}
		if err = p.r.SkipTo(next); p.err == nil {
			p.err = err
		}
	}
	return &Property{typ, buf, count}
}

func (p *binaryParser) readProp() *Property {
	typ := p.readUint8()

	switch typ {
	case 'C':
		return &Property{typ, p.readUint8() != 0, 0}
	case 'Y':
		var v int16
		p.read(&v)
		return &Property{typ, v, 0}
	case 'I':
		var v int32
		p.read(&v)
		return &Property{typ, v, 0}
	case 'L':
		var v int64
		p.read(&v)
		return &Property{typ, v, 0}
	case 'F':
		var v float32
		p.read(&v)
		return &Property{typ, v, 0}
	case 'D':
		var v float64
		p.read(&v)
		return &Property{typ, v, 0}
	case 'S':
		return &Property{typ, p.readString(uint(p.readUint32())), 0}
	case 'R':
		buf := make([]byte, p.readUint32())
		p.read(buf)
		return &Property{typ, buf, 0}
	case 'b', 'i', 'l', 'f', 'd':
		return p.readPropArray(typ)
	}
	if p.err == nil {
		p.err = fmt.Errorf("unknown property type: %q at %d", typ, p.r.position)
	}
	return nil
}

// readNode returns nil at a null record, which terminates a child list.
func (p *binaryParser) readNode() *Node {
	next := p.readOffset()
	nprop := p.readOffset()
	p.readOffset() // property list length
	name := p.readString(uint(p.readUint8()))
	if next == 0 || p.err != nil {
		return nil
	}

	n := &Node{Name: name}
	for i := uint64(0); i < nprop && p.err == nil; i++ {
		if prop := p.readProp(); prop != nil {
			n.Properties = append(n.Properties, prop)
		}
	}

	for p.r.position < int64(next) && p.err == nil {
		child := p.readNode()
		if child == nil {
			break
		}
		n.Children = append(n.Children, child)
	}

	if p.err == nil {
		p.err = p.r.SkipTo(int64(next))
	}
	if p.err != nil {
		return nil
	}
	return n
}

func (p *binaryParser) Parse() ([]*Node, error) {
	if p.readString(uint(len(binaryMagic))) != binaryMagic {
		return nil, fmt.Errorf("unknown fbx format")
	}
	p.r.SkipTo(23)
	p.version = p.readUint32()

	var nodes []*Node
	for p.err == nil {
		start := p.r.position
		node := p.readNode()
		if p.err == io.EOF && p.r.position == start {
			p.err = nil // files without the trailing null record
			break
		}
		if p.err == io.EOF {
			p.err = io.ErrUnexpectedEOF
		}
		if node == nil {
			break
		}
		nodes = append(nodes, node)
	}
	if p.err != nil {
		return nil, fmt.Errorf("fbx binary v%d: %w", p.version, p.err)
	}
	return nodes, nil
}
