package geom

import (
	"fmt"
	"math"
)

type Element = float32

type Vector2 struct {
	X Element
	Y Element
}

func (v Vector2) String() string {
	return fmt.Sprintf("(%v, %v)", v.X, v.Y)
}

type Vector3 struct {
	X Element
	Y Element
	Z Element
}

func NewVector3(x, y, z float32) *Vector3 {
	return &Vector3{X: x, Y: y, Z: z}
}

// NewVector3FromSlice reads three elements starting at offset i*3.
func NewVector3FromSlice(arr []Element, i int) *Vector3 {
	return &Vector3{X: arr[i*3], Y: arr[i*3+1], Z: arr[i*3+2]}
}

func (v *Vector3) Sub(v2 *Vector3) *Vector3 {
	return &Vector3{X: v.X - v2.X, Y: v.Y - v2.Y, Z: v.Z - v2.Z}
}

func (v *Vector3) Len() Element {
	return Element(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%v, %v, %v)", v.X, v.Y, v.Z)
}
