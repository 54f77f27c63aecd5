// Package palette derives hardware palettes from a brightness curve and
// reduces full RGB24 frames to a fixed palette for low-depth hardware.
package palette

import "math"

// Brightness is the gamma/brightness curve external helper: given a
// position in [0,1] across the palette, it returns the intensity
// multiplier to apply, also in [0,1]. The engine does not implement a
// curve itself -- this is supplied by the caller (by design an external
// helper).
type Brightness func(pos float64) float64

// LinearBrightness is a reference curve (identity) usable when no
// gamma-correct curve is supplied; production callers are expected to
// provide their own.
func LinearBrightness(pos float64) float64 { return pos }

// Colors is the byte-triple RGB palette: len(Colors)/3 entries.
type Colors []byte

// Update derives a new palette of 1<<depth entries tinted by (r,g,b) and
// shaped by curve, writing it into dst (resized if necessary). It
// returns true if the derived palette differs from dst's previous
// contents in any byte, so callers can gate re-sending a palette to
// hardware.
func Update(dst *Colors, depth int, r, g, b byte, curve Brightness) bool {
	if depth != 2 && depth != 4 {
		return false
	}
	if curve == nil {
		curve = LinearBrightness
	}

	colors := 1 << uint(depth)
	size := colors * 3

	prev := make([]byte, len(*dst))
	copy(prev, *dst)

	if cap(*dst) < size {
		*dst = make(Colors, size)
	} else {
		*dst = (*dst)[:size]
	}

	for i := 0; i < colors; i++ {
		var pos float64
		if colors > 1 {
			pos = float64(i) / float64(colors-1)
		}
		perc := curve(pos)
		(*dst)[i*3+0] = byte(float64(r) * perc)
		(*dst)[i*3+1] = byte(float64(g) * perc)
		(*dst)[i*3+2] = byte(float64(b) * perc)
	}

	return !bytesEqual(prev, *dst)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AdjustRGB24Depth maps src (RGB24, len(src)==n*3) into dst at the given
// depth: depth==24 is a byte-for-byte copy; otherwise each pixel's
// luminance is computed, clamped, and quantized into the colors-entry
// palette using the top `depth` bits, with the corresponding palette
// triple copied to dst.
func AdjustRGB24Depth(src, dst []byte, n int, p Colors, depth int) {
	if depth == 24 {
		copy(dst, src[:n*3])
		return
	}

	colors := 1 << uint(depth)
	shift := uint(8 - depth)

	for i := 0; i < n; i++ {
		pos := i * 3
		r := float64(src[pos])
		g := float64(src[pos+1])
		b := float64(src[pos+2])

		y := 0.2126*r + 0.7152*g + 0.0722*b
		if y > 255 {
			y = 255
		}
		if y < 0 {
			y = 0
		}

		idx := int(math.Round(y)) >> shift
		if idx >= colors {
			idx = colors - 1
		}

		ppos := idx * 3
		if ppos+2 < len(p) {
			dst[pos] = p[ppos]
			dst[pos+1] = p[ppos+1]
			dst[pos+2] = p[ppos+2]
		}
	}
}
