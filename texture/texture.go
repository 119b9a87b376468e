// Package texture decodes embedded and external FBX textures.
package texture

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/fbxscene/fbx"
	"github.com/blezek/tga"
	_ "github.com/ftrvxmtrx/tga"
	_ "github.com/oov/psd"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Decode decodes png, jpeg, gif, bmp, psd or tga data. name is only used to
// recognize tga files the registered decoder rejects.
func Decode(data []byte, name string) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil && strings.ToLower(filepath.Ext(name)) == ".tga" {
		// retry
		img, err = tga.Decode(bytes.NewReader(data))
	}
	return img, err
}

// MimeType returns the mime type used when re-encoding a texture.
// Formats glTF cannot carry become png.
func MimeType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return "image/png"
}

// HasAlpha reports whether img has any non-opaque pixel.
func HasAlpha(img image.Image) bool {
	switch img.ColorModel() {
	case color.YCbCrModel, color.CMYKModel, color.GrayModel:
		return false
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}

// Encode scales img (limit caps the resulting width, 0 for none) and encodes it as mime.
func Encode(img image.Image, mime string, scale float32, limit int) (io.Reader, error) {
	rect := img.Bounds()
	if scale <= 0 {
		scale = 1
	}
	if limit > 0 {
		sz := int(float32(rect.Dx()) * scale)
		if sz > limit {
			scale *= float32(limit) / float32(sz)
		}
	}

	if scale != 1.0 {
		dst := image.NewRGBA(image.Rect(0, 0, int(float32(rect.Dx())*scale), int(float32(rect.Dy())*scale)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Over, nil)
		img = dst
	}

	w := new(bytes.Buffer)
	var err error
	if mime == "image/jpeg" {
		err = jpeg.Encode(w, img, nil)
	} else {
		err = png.Encode(w, img)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

type entry struct {
	img image.Image
	err error
}

// Cache decodes each FBX Texture object once. Embedded Video content is
// preferred, otherwise the file is read relative to SrcDir.
type Cache struct {
	SrcDir   string
	textures map[int64]*entry
}

func NewCache(srcDir string) *Cache {
	return &Cache{SrcDir: srcDir, textures: map[int64]*entry{}}
}

// Name returns the file name of a Texture object.
func Name(tex *fbx.Object) string {
	name := tex.RelativeFilename()
	if name == "" {
		if v := tex.Video(); v != nil {
			name = v.RelativeFilename()
		}
	}
	return filepath.FromSlash(strings.ReplaceAll(name, "\\", "/"))
}

func (c *Cache) Image(tex *fbx.Object) (image.Image, error) {
	if t, ok := c.textures[tex.UID]; ok {
		return t.img, t.err
	}
	t := &entry{}
	c.textures[tex.UID] = t

	name := Name(tex)
	data := tex.Content()
	if len(data) == 0 {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.SrcDir, path)
		}
		data, t.err = os.ReadFile(path)
		if t.err != nil {
			return nil, t.err
		}
	}
	t.img, t.err = Decode(data, name)
	return t.img, t.err
}
