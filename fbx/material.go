package fbx

import (
	"encoding/base64"
	"math"
	"strings"
)

// DiffuseTexture returns the Texture OP-connected to DiffuseColor, or nil.
func (o *Object) DiffuseTexture() *Object {
	if t := o.Ref("DiffuseColor"); t != nil && t.Type == "Texture" {
		return t
	}
	return nil
}

// DiffuseColor returns the material's Diffuse color, falling back to an inline DiffuseColor.
func (o *Object) DiffuseColor() [3]float64 {
	def := [3]float64{0.8, 0.8, 0.8}
	if v, err := o.Get("Diffuse"); err == nil && v.Kind == KindVector3 {
		return v.Vector
	}
	v, _ := o.Get("DiffuseColor")
	return v.ToVector3(def[0], def[1], def[2])
}

func (o *Object) DiffuseFactor() float64 {
	v, _ := o.Get("DiffuseFactor")
	return v.ToFloat64(1)
}

// Specular returns the magnitude of the Specular vector.
func (o *Object) Specular() float64 {
	v, _ := o.Get("Specular")
	s := v.ToVector3(0, 0, 0)
	return math.Sqrt(s[0]*s[0] + s[1]*s[1] + s[2]*s[2])
}

// Opacity returns Opacity, or 1 - TransparencyFactor when only that is set.
func (o *Object) Opacity() float64 {
	if v, err := o.Get("Opacity"); err == nil && v.Kind == KindNumber {
		return v.Number
	}
	v, _ := o.Get("TransparencyFactor")
	return 1 - v.ToFloat64(0)
}

// Video returns the Video child holding a Texture's image.
func (o *Object) Video() *Object {
	for _, c := range o.Children() {
		if c.Type == "Video" {
			return c
		}
	}
	return nil
}

// Content returns the embedded image bytes of a Video (or of a Texture's Video).
func (o *Object) Content() []byte {
	src := o
	if o.Type == "Texture" {
		if src = o.Video(); src == nil {
			return nil
		}
	}
	v, err := src.Get("Content")
	if err != nil {
		return nil
	}
	if v.Kind == KindText {
		// ASCII files store the blob as base64, possibly split across lines.
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(v.Text), ""))
		if err != nil {
			return nil
		}
		return b
	}
	return v.Bytes()
}

// RelativeFilename returns the file path of a Texture or Video.
func (o *Object) RelativeFilename() string {
	v, _ := o.Get("RelativeFilename")
	if s := v.ToString(""); s != "" {
		return s
	}
	v, _ = o.Get("FileName")
	return v.ToString("")
}
