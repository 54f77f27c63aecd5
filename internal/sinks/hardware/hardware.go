// Package hardware defines the primary pixel-display driver seam (the
// concrete ZeDMD-style serial/Wi-Fi transport is out of scope) and the
// sink worker that dispatches ring frames to it per mode, mirroring the
// original ZeDMDThread's per-mode render calls.
package hardware

import (
	"log"

	"github.com/pinlab/dmdengine/internal/alphanumeric"
	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/palette"
	"github.com/pinlab/dmdengine/internal/ring"
)

// Driver is the external collaborator that owns the physical transport.
type Driver interface {
	SetFrameSize(w, h int)
	SetPalette(colors palette.Colors, numColors int)
	RenderRGB24(pixels []byte)
	RenderRGB565(words []uint16)
	RenderGray2(pixels []byte)
	RenderGray4(pixels []byte)
	RenderColoredGray6(pixels []byte, palette [frame.PaletteSize]byte, rotations []byte)
	SetPreUpscaling(enabled bool)
	// Width reports the device's native pixel width, used to select
	// between HD (256-wide) and SD colorized-V2 variants.
	Width() int
}

// Worker is the hardware-pixel-display sink.
type Worker struct {
	driver     Driver
	brightness palette.Brightness
	renderer   alphanumeric.Renderer
	colorized  bool // true while a colorization worker is active

	width, height int
	pal           palette.Colors

	cachedSegA [frame.AlphaSegWords]uint16
	cachedSegB [frame.AlphaSegWords]uint16
	hasCache   bool
	alphaBuf   [128 * 32]byte
}

// NewWorker creates a hardware sink worker. colorizedActive reports whether
// the colorization worker is enabled for the engine: when it is, this sink
// skips non-colorized records and waits for the colorizer to republish.
func NewWorker(driver Driver, curve palette.Brightness, renderer alphanumeric.Renderer, colorizedActive bool) *Worker {
	if curve == nil {
		curve = palette.LinearBrightness
	}
	return &Worker{driver: driver, brightness: curve, renderer: renderer, colorized: colorizedActive}
}

// Run is the sink worker loop.
func (w *Worker) Run(c *ring.Consumer) {
	for {
		f, ok := c.Next()
		if !ok {
			return
		}
		w.handle(f)
	}
}

func (w *Worker) handle(f frame.Frame) {
	if w.colorized && !f.Mode.IsColorized() && f.Mode != frame.Data {
		return
	}
	if w.colorized && f.Mode == frame.Data {
		// Colorization worker will republish this input; the hardware
		// sink only renders the colorized output.
		return
	}

	deviceWidth := w.driver.Width()
	switch f.Mode {
	case frame.ColorizedV2_64_32:
		if deviceWidth >= 256 {
			return
		}
	case frame.ColorizedV2_32_64:
		if deviceWidth < 256 {
			return
		}
	}

	if f.Width != w.width || f.Height != w.height {
		w.width, w.height = f.Width, f.Height
		w.driver.SetFrameSize(f.Width, f.Height)
	}

	switch f.Mode {
	case frame.RGB24:
		if !f.HasPixels {
			return
		}
		n := f.PixelLen()
		if f.Depth < 24 {
			palette.Update(&w.pal, f.Depth, f.Tint[0], f.Tint[1], f.Tint[2], w.brightness)
			out := make([]byte, n)
			palette.AdjustRGB24Depth(f.Pixels[:n], out, f.Width*f.Height, w.pal, f.Depth)
			w.driver.SetPreUpscaling(false)
			w.driver.RenderRGB24(out)
			w.driver.SetPreUpscaling(true)
			return
		}
		w.driver.SetPreUpscaling(false)
		w.driver.RenderRGB24(f.Pixels[:n])
		w.driver.SetPreUpscaling(true)

	case frame.RGB16:
		if !f.HasSegA {
			return
		}
		w.driver.SetPreUpscaling(false)
		w.driver.RenderRGB565(f.SegA[:f.Width*f.Height])
		w.driver.SetPreUpscaling(true)

	case frame.ColorizedV2_32, frame.ColorizedV2_64, frame.ColorizedV2_32_64, frame.ColorizedV2_64_32:
		if !f.HasSegA {
			return
		}
		w.driver.RenderRGB565(f.SegA[:f.Width*f.Height])

	case frame.ColorizedV1:
		if !f.HasPixels || !f.HasSegA {
			return
		}
		var pal [frame.PaletteSize]byte
		for i := 0; i < len(pal); i += 2 {
			v := f.SegA[i/2]
			pal[i] = byte(v)
			pal[i+1] = byte(v >> 8)
		}
		w.driver.RenderColoredGray6(f.Pixels[:f.Width*f.Height], pal, nil)

	case frame.Data:
		if !f.HasPixels {
			return
		}
		palette.Update(&w.pal, f.Depth, f.Tint[0], f.Tint[1], f.Tint[2], w.brightness)
		numColors := 4
		if f.Depth == 4 {
			numColors = 16
		}
		w.driver.SetPalette(w.pal, numColors)
		switch f.Depth {
		case 2:
			w.driver.RenderGray2(f.Pixels[:f.Width*f.Height])
		case 4:
			w.driver.RenderGray4(f.Pixels[:f.Width*f.Height])
		default:
			log.Printf("hardware: unsupported Data depth %d", f.Depth)
		}

	case frame.AlphaNumeric:
		if !f.HasSegA {
			return
		}
		seg1 := f.SegA[:frame.AlphaSegWords]
		changed := !w.hasCache || seg1ne(w.cachedSegA, seg1)
		var seg2 []uint16
		if f.HasSegB {
			seg2 = f.SegB[:frame.AlphaSegWords]
			if !w.hasCache || seg1ne(w.cachedSegB, seg2) {
				changed = true
			}
		}
		if changed {
			copy(w.cachedSegA[:], seg1)
			if f.HasSegB {
				copy(w.cachedSegB[:], seg2)
			}
			w.hasCache = true
			if w.renderer != nil {
				w.renderer.Render(w.alphaBuf[:], f.Layout, seg1, seg2)
			}
			w.driver.SetPalette(w.pal, 4)
			w.driver.RenderGray2(w.alphaBuf[:])
		}

	default:
		log.Printf("hardware: unsupported mode %s", f.Mode)
	}
}

func seg1ne(cached [frame.AlphaSegWords]uint16, in []uint16) bool {
	for i := 0; i < frame.AlphaSegWords && i < len(in); i++ {
		if cached[i] != in[i] {
			return true
		}
	}
	return false
}
