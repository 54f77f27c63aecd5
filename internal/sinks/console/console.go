// Package console implements the ASCII-art console sink: Data frames only,
// rendered to an injected io.Writer per registered consumer. The rendering
// itself (mapping a pixel value to a glyph) is simple enough to live in
// core rather than behind a driver interface.
package console

import (
	"io"
	"log"
	"sync"

	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/ring"
)

// colors maps a 2-bit or top-2-bits-of-4-bit pixel value to a glyph.
var colors = [4]byte{' ', '.', '+', '#'}

// Sink renders Data frames as ASCII art to registered writers.
type Sink struct {
	mu      sync.Mutex
	writers map[int][]io.Writer // keyed by width, so each writer gets correctly wrapped lines

	lastLen int
	last    []byte
}

// New creates a console Sink.
func New() *Sink {
	return &Sink{writers: make(map[int][]io.Writer)}
}

// Register adds w as a renderer target for frames of the given width.
func (s *Sink) Register(width int, w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writers[width] = append(s.writers[width], w)
}

// Run is the sink worker loop.
func (s *Sink) Run(c *ring.Consumer) {
	for {
		f, ok := c.Next()
		if !ok {
			return
		}
		if f.Mode != frame.Data || !f.HasPixels {
			continue
		}
		n := f.PixelLen()
		pixels := f.Pixels[:n]
		if s.lastLen == n && bytesEqual(s.last, pixels) {
			continue
		}
		if cap(s.last) < n {
			s.last = make([]byte, n)
		}
		s.last = s.last[:n]
		copy(s.last, pixels)
		s.lastLen = n

		s.render(f.Width, f.Height, f.Depth, pixels)
	}
}

func (s *Sink) render(width, height, depth int, pixels []byte) {
	s.mu.Lock()
	targets := s.writers[width]
	s.mu.Unlock()
	if len(targets) == 0 {
		return
	}

	shift := uint(0)
	if depth == 4 {
		shift = 2
	}

	buf := make([]byte, 0, width*(height+1))
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			v := pixels[row*width+col] >> shift
			if int(v) >= len(colors) {
				v = byte(len(colors) - 1)
			}
			buf = append(buf, colors[v])
		}
		buf = append(buf, '\n')
	}

	for _, w := range targets {
		if _, err := w.Write(buf); err != nil {
			log.Printf("console: write: %v", err)
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
