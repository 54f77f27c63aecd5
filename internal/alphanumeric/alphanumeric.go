// Package alphanumeric defines the interface to the external
// segment-to-pixel renderer (the concrete layout library is an external
// collaborator, out of scope here) and ships one reference implementation
// for tests and the demonstration CLI.
package alphanumeric

import "github.com/pinlab/dmdengine/internal/frame"

// Renderer converts alphanumeric segment words into a 128x32 monochrome
// pixel buffer. The real renderer (an external collaborator) understands
// many physical segment layouts; this package only defines the seam.
type Renderer interface {
	// Render writes a 128*32 monochrome frame into dst (len(dst) must be
	// >= 128*32) from seg1 (and seg2, if present) under the given layout.
	Render(dst []byte, layout frame.Layout, seg1 []uint16, seg2 []uint16)
}

// RendererFunc adapts a plain function to a Renderer.
type RendererFunc func(dst []byte, layout frame.Layout, seg1, seg2 []uint16)

// Render implements Renderer.
func (f RendererFunc) Render(dst []byte, layout frame.Layout, seg1, seg2 []uint16) {
	f(dst, layout, seg1, seg2)
}

// glyphWidth is the reference renderer's column width in
// pixels per digit, chosen so 16 digits fill a 128-pixel-wide frame.
const glyphWidth = 8

// NewSevenSegmentRenderer returns a minimal reference Renderer: each
// segment word's low 7 bits are drawn as the classic seven-segment
// digit shape into an 8-pixel-wide column, two rows of 16 digits
// (seg1 on top, seg2 beneath, when present) filling the 128x32 canvas.
// It exists so tests and the demo CLI can exercise the AlphaNumeric code
// path without a real segment-layout library.
func NewSevenSegmentRenderer() Renderer {
	return RendererFunc(renderSevenSegment)
}

// renderSevenSegment draws each word's a/d/g bars as full rows and
// approximates b/c/e/f as single edge pixels (bit numbering follows the
// common seven-segment convention: a,b,c,d,e,f,g = bit0..bit6).
func renderSevenSegment(dst []byte, _ frame.Layout, seg1, seg2 []uint16) {
	const width = 128
	const height = 32
	if len(dst) < width*height {
		return
	}
	for i := range dst[:width*height] {
		dst[i] = 0
	}

	draw := func(rowOffset int, words []uint16) {
		for digit := 0; digit < len(words) && digit*glyphWidth < width; digit++ {
			w := words[digit]
			x0 := digit * glyphWidth
			for bit := 0; bit < 7; bit++ {
				if w&(1<<uint(bit)) == 0 {
					continue
				}
				switch bit {
				case 0: // a: top row
					setRow(dst, width, rowOffset, x0, x0+glyphWidth-1)
				case 3: // d: bottom row (within this digit's half-height band)
					setRow(dst, width, rowOffset+15, x0, x0+glyphWidth-1)
				case 6: // g: middle row
					setRow(dst, width, rowOffset+7, x0, x0+glyphWidth-1)
				default:
					// b, c, e, f: vertical strokes, approximated as single pixels
					// at the column edges -- sufficient fidelity for a stand-in
					// renderer whose job is only to exercise the pixel pipeline.
					x := x0
					if bit == 1 || bit == 2 {
						x = x0 + glyphWidth - 1
					}
					setRow(dst, width, rowOffset+3, x, x)
				}
			}
		}
	}

	draw(0, seg1)
	if seg2 != nil {
		draw(16, seg2)
	}
}

func setRow(dst []byte, width, row, xStart, xEnd int) {
	if row < 0 || row*width >= len(dst) {
		return
	}
	for x := xStart; x <= xEnd; x++ {
		if x < 0 || x >= width {
			continue
		}
		dst[row*width+x] = 3
	}
}
