// Package rgb24 implements the in-process 24-bit-per-pixel buffer sink:
// it accepts every mode that can be expressed as RGB24 (RGB24 itself,
// Data, AlphaNumeric, ColorizedV1, and the RGB-565 colorized-V2 variants
// by channel expansion) and fans deduplicated output out to subscribers.
package rgb24

import (
	"sync"

	"github.com/pinlab/dmdengine/internal/alphanumeric"
	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/palette"
	"github.com/pinlab/dmdengine/internal/ring"
)

// Sink distributes RGB24 pixel buffers to in-process subscribers, keyed by
// buffer length (width*height*3), same subscription shape as sinks/level.
type Sink struct {
	mu         sync.RWMutex
	subs       map[int][]chan []byte
	bufferSize int

	brightness palette.Brightness
	renderer   alphanumeric.Renderer

	pal      palette.Colors
	palDepth int

	lastLen int
	last    []byte

	alphaBuf []byte
}

// New creates an rgb24 Sink. curve derives palettes for Data/AlphaNumeric
// input; renderer converts AlphaNumeric segment words to a pixel buffer.
func New(bufferSize int, curve palette.Brightness, renderer alphanumeric.Renderer) *Sink {
	if bufferSize <= 0 {
		bufferSize = 4
	}
	if curve == nil {
		curve = palette.LinearBrightness
	}
	return &Sink{
		subs:       make(map[int][]chan []byte),
		bufferSize: bufferSize,
		brightness: curve,
		renderer:   renderer,
		alphaBuf:   make([]byte, 128*32),
	}
}

// Subscribe registers a consumer expecting RGB24 buffers of exactly
// length bytes (width*height*3 for its geometry).
func (s *Sink) Subscribe(length int) <-chan []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan []byte, s.bufferSize)
	s.subs[length] = append(s.subs[length], ch)
	return ch
}

// Unsubscribe removes a previously registered channel.
func (s *Sink) Unsubscribe(length int, ch <-chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.subs[length]
	for i, c := range list {
		if c == ch {
			s.subs[length] = append(list[:i], list[i+1:]...)
			close(c)
			return
		}
	}
}

// Close closes every subscriber channel.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.subs {
		for _, ch := range list {
			close(ch)
		}
	}
}

// Run is the sink worker loop.
func (s *Sink) Run(c *ring.Consumer) {
	for {
		f, ok := c.Next()
		if !ok {
			return
		}
		out := s.convert(f)
		if out == nil {
			continue
		}
		if s.lastLen == len(out) && bytesEqual(s.last, out) {
			continue
		}
		s.last = append(s.last[:0], out...)
		s.lastLen = len(out)
		s.publish(out)
	}
}

// convert produces an RGB24 buffer for the frame, or nil if this sink does
// not support the frame's mode/geometry.
func (s *Sink) convert(f frame.Frame) []byte {
	switch f.Mode {
	case frame.RGB24:
		if !f.HasPixels {
			return nil
		}
		out := make([]byte, f.PixelLen())
		copy(out, f.Pixels[:f.PixelLen()])
		return out

	case frame.Data:
		if !f.HasPixels {
			return nil
		}
		depth := f.Depth
		if depth != 2 && depth != 4 {
			return nil
		}
		changed := palette.Update(&s.pal, depth, f.Tint[0], f.Tint[1], f.Tint[2], s.brightness)
		_ = changed
		s.palDepth = depth
		n := f.PixelLen()
		out := make([]byte, n*3)
		for i := 0; i < n; i++ {
			idx := int(f.Pixels[i]) * 3
			if idx+2 < len(s.pal) {
				out[i*3], out[i*3+1], out[i*3+2] = s.pal[idx], s.pal[idx+1], s.pal[idx+2]
			}
		}
		return out

	case frame.AlphaNumeric:
		if !f.HasSegA {
			return nil
		}
		seg1 := f.SegA[:frame.AlphaSegWords]
		var seg2 []uint16
		if f.HasSegB {
			seg2 = f.SegB[:frame.AlphaSegWords]
		}
		if s.renderer != nil {
			s.renderer.Render(s.alphaBuf, f.Layout, seg1, seg2)
		}
		changed := palette.Update(&s.pal, 4, f.Tint[0], f.Tint[1], f.Tint[2], s.brightness)
		_ = changed
		out := make([]byte, len(s.alphaBuf)*3)
		for i, v := range s.alphaBuf {
			idx := int(v) * 3
			if idx+2 < len(s.pal) {
				out[i*3], out[i*3+1], out[i*3+2] = s.pal[idx], s.pal[idx+1], s.pal[idx+2]
			}
		}
		return out

	case frame.ColorizedV1:
		if !f.HasPixels || !f.HasSegA {
			return nil
		}
		n := f.Width * f.Height
		if n == 0 || n > len(f.Pixels) {
			return nil
		}
		var pal [frame.PaletteSize]byte
		for i := 0; i < len(pal); i += 2 {
			w := f.SegA[i/2]
			pal[i] = byte(w)
			pal[i+1] = byte(w >> 8)
		}
		out := make([]byte, n*3)
		for i := 0; i < n; i++ {
			idx := int(f.Pixels[i])
			if idx*3+2 >= len(pal) {
				continue
			}
			out[i*3] = pal[idx*3]
			out[i*3+1] = pal[idx*3+1]
			out[i*3+2] = pal[idx*3+2]
		}
		return out

	case frame.ColorizedV2_32, frame.ColorizedV2_64, frame.ColorizedV2_32_64, frame.ColorizedV2_64_32:
		if !f.HasSegA {
			return nil
		}
		n := f.Width * f.Height
		if n == 0 || n > len(f.SegA) {
			return nil
		}
		out := make([]byte, n*3)
		for i := 0; i < n; i++ {
			r, g, b := rgb565to888(f.SegA[i])
			out[i*3] = r
			out[i*3+1] = g
			out[i*3+2] = b
		}
		return out

	default:
		return nil
	}
}

func rgb565to888(v uint16) (r, g, b byte) {
	r = byte((v >> 11 & 0x1f) << 3)
	g = byte((v >> 5 & 0x3f) << 2)
	b = byte((v & 0x1f) << 3)
	return
}

func (s *Sink) publish(out []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs[len(out)] {
		select {
		case ch <- out:
		default:
		}
	}
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
