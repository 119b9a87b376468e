package geom

import "golang.org/x/exp/constraints"

// Clamp returns f limited to [low, high].
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// ScaleTranslation returns a copy of m with its translation multiplied by s.
// For a uniform scale S this equals S * m * S^-1.
func ScaleTranslation(m *Matrix4, s Element) *Matrix4 {
	r := *m
	r[12] *= s
	r[13] *= s
	r[14] *= s
	return &r
}
