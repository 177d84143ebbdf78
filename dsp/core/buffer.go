package core

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// ToFloat64 widens src into dst and returns the number of converted samples.
func ToFloat64(dst []float64, src []float32) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = float64(src[i])
	}
	return n
}

// ToFloat32 narrows src into dst and returns the number of converted samples.
// Values are rounded to the nearest float32; no clipping is applied.
func ToFloat32(dst []float32, src []float64) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = float32(src[i])
	}
	return n
}

// CloneFloat32 returns a copy of src. A nil input yields an empty, non-nil slice.
func CloneFloat32(src []float32) []float32 {
	out := make([]float32, len(src))
	copy(out, src)
	return out
}
