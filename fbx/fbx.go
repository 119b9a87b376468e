package fbx

import (
	"bufio"
	"bytes"
	"io"
)

// Parse tokenizes binary or ASCII FBX into its top-level nodes.
func Parse(r io.Reader) ([]*Node, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(binaryMagic))
	if bytes.Equal(head, []byte(binaryMagic)) {
		p := binaryParser{r: &positionReader{r: br}}
		return p.Parse()
	}
	p := textParser{r: br}
	return p.Parse()
}
