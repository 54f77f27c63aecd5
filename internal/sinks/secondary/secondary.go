// Package secondary implements the fixed-geometry (128x32 RGB-565)
// secondary pixel-display sink, grounded on the original PixelcadeDMDThread
// RGB24->RGB565 packing loop, generalized to: direct copy at native
// geometry, centering from 128x16, and 2x2 downscale from any 64-row
// geometry.
package secondary

import (
	"log"

	"github.com/pinlab/dmdengine/internal/alphanumeric"
	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/palette"
	"github.com/pinlab/dmdengine/internal/ring"
)

const (
	nativeWidth  = 128
	nativeHeight = 32
)

// Driver is the external collaborator owning the physical transport.
type Driver interface {
	Update(rgb565 []uint16)
}

// Worker is the secondary-pixel-display sink.
type Worker struct {
	driver     Driver
	brightness palette.Brightness
	renderer   alphanumeric.Renderer

	pal      palette.Colors
	alphaBuf [nativeWidth * nativeHeight]byte
}

// NewWorker creates a secondary sink worker.
func NewWorker(driver Driver, curve palette.Brightness, renderer alphanumeric.Renderer) *Worker {
	if curve == nil {
		curve = palette.LinearBrightness
	}
	return &Worker{driver: driver, brightness: curve, renderer: renderer}
}

// Run is the sink worker loop.
func (w *Worker) Run(c *ring.Consumer) {
	out := make([]uint16, nativeWidth*nativeHeight)
	for {
		f, ok := c.Next()
		if !ok {
			return
		}
		if w.convert(f, out) {
			w.driver.Update(out)
		}
	}
}

// convert fills out (len == nativeWidth*nativeHeight) with f scaled/centered
// to the secondary display's fixed geometry, and reports whether it did so.
func (w *Worker) convert(f frame.Frame, out []uint16) bool {
	switch {
	case f.Width == nativeWidth && f.Height == nativeHeight:
		return w.fill(f, out, func(x, y int) (int, int) { return x, y })

	case f.Width == nativeWidth && f.Height == 16:
		offset := (nativeHeight - f.Height) / 2
		for i := range out {
			out[i] = 0
		}
		return w.fillRegion(f, out, offset)

	case f.Height == 64:
		return w.downscale2x(f, out)

	default:
		return false
	}
}

func (w *Worker) fill(f frame.Frame, out []uint16, _ func(int, int) (int, int)) bool {
	px, ok := w.toRGB888(f)
	if !ok {
		return false
	}
	for i := 0; i < nativeWidth*nativeHeight; i++ {
		out[i] = pack565(px[i*3], px[i*3+1], px[i*3+2])
	}
	return true
}

func (w *Worker) fillRegion(f frame.Frame, out []uint16, rowOffset int) bool {
	px, ok := w.toRGB888(f)
	if !ok {
		return false
	}
	for row := 0; row < f.Height; row++ {
		for col := 0; col < f.Width; col++ {
			src := (row*f.Width + col) * 3
			dst := (row+rowOffset)*nativeWidth + col
			out[dst] = pack565(px[src], px[src+1], px[src+2])
		}
	}
	return true
}

// downscale2x averages 2x2 blocks of a double-height/width input down to
// the native 128x32 geometry.
func (w *Worker) downscale2x(f frame.Frame, out []uint16) bool {
	px, ok := w.toRGB888(f)
	if !ok {
		return false
	}
	srcW, srcH := f.Width, f.Height
	dstW, dstH := srcW/2, srcH/2
	if dstW > nativeWidth {
		dstW = nativeWidth
	}
	if dstH > nativeHeight {
		dstH = nativeHeight
	}
	for i := range out {
		out[i] = 0
	}
	for row := 0; row < dstH; row++ {
		for col := 0; col < dstW; col++ {
			var rs, gs, bs int
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					sx, sy := col*2+dx, row*2+dy
					idx := (sy*srcW + sx) * 3
					rs += int(px[idx])
					gs += int(px[idx+1])
					bs += int(px[idx+2])
				}
			}
			out[row*nativeWidth+col] = pack565(byte(rs/4), byte(gs/4), byte(bs/4))
		}
	}
	return true
}

// toRGB888 renders f into a width*height*3 RGB24 byte slice, per mode.
func (w *Worker) toRGB888(f frame.Frame) ([]byte, bool) {
	switch f.Mode {
	case frame.RGB24:
		if !f.HasPixels {
			return nil, false
		}
		return f.Pixels[:f.PixelLen()], true

	case frame.Data:
		if !f.HasPixels {
			return nil, false
		}
		palette.Update(&w.pal, f.Depth, f.Tint[0], f.Tint[1], f.Tint[2], w.brightness)
		n := f.Width * f.Height
		out := make([]byte, n*3)
		for i := 0; i < n; i++ {
			idx := int(f.Pixels[i]) * 3
			if idx+2 < len(w.pal) {
				out[i*3], out[i*3+1], out[i*3+2] = w.pal[idx], w.pal[idx+1], w.pal[idx+2]
			}
		}
		return out, true

	case frame.AlphaNumeric:
		if !f.HasSegA {
			return nil, false
		}
		seg1 := f.SegA[:frame.AlphaSegWords]
		var seg2 []uint16
		if f.HasSegB {
			seg2 = f.SegB[:frame.AlphaSegWords]
		}
		if w.renderer != nil {
			w.renderer.Render(w.alphaBuf[:], f.Layout, seg1, seg2)
		}
		palette.Update(&w.pal, 4, f.Tint[0], f.Tint[1], f.Tint[2], w.brightness)
		out := make([]byte, len(w.alphaBuf)*3)
		for i, v := range w.alphaBuf {
			idx := int(v) * 3
			if idx+2 < len(w.pal) {
				out[i*3], out[i*3+1], out[i*3+2] = w.pal[idx], w.pal[idx+1], w.pal[idx+2]
			}
		}
		return out, true

	case frame.ColorizedV1:
		if !f.HasPixels || !f.HasSegA {
			return nil, false
		}
		n := f.Width * f.Height
		var pal [frame.PaletteSize]byte
		for i := 0; i < len(pal); i += 2 {
			v := f.SegA[i/2]
			pal[i] = byte(v)
			pal[i+1] = byte(v >> 8)
		}
		out := make([]byte, n*3)
		for i := 0; i < n; i++ {
			idx := int(f.Pixels[i])
			if idx*3+2 >= len(pal) {
				continue
			}
			out[i*3], out[i*3+1], out[i*3+2] = pal[idx*3], pal[idx*3+1], pal[idx*3+2]
		}
		return out, true

	case frame.ColorizedV2_32, frame.ColorizedV2_64, frame.ColorizedV2_32_64, frame.ColorizedV2_64_32:
		if !f.HasSegA {
			return nil, false
		}
		n := f.Width * f.Height
		out := make([]byte, n*3)
		for i := 0; i < n; i++ {
			r := byte((f.SegA[i] >> 11 & 0x1f) << 3)
			g := byte((f.SegA[i] >> 5 & 0x3f) << 2)
			b := byte((f.SegA[i] & 0x1f) << 3)
			out[i*3], out[i*3+1], out[i*3+2] = r, g, b
		}
		return out, true

	default:
		log.Printf("secondary: unsupported mode %s", f.Mode)
		return nil, false
	}
}

// pack565 matches the original PixelcadeDMDThread's RGB888->RGB565 formula.
func pack565(r, g, b byte) uint16 {
	return uint16((uint32(r)&0xF8)<<8 | (uint32(g)&0xFC)<<3 | uint32(b)>>3)
}
