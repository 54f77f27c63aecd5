package dump

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/ring"
)

// transitionalAgeThreshold is the maximum age, in milliseconds, a middle
// frame may have before it is no longer considered a fade intermediate.
const transitionalAgeThreshold = 40

type textEntry struct {
	f  frame.Frame
	ms uint32
}

// TextWriter maintains a 3-deep sliding window of Data frames and flushes
// the oldest entry once the window is full, suppressing brief depth=2
// fade intermediates rather than writing every transitional frame.
type TextWriter struct {
	dir     string
	romName func() string

	file         *os.File
	writer       *bufio.Writer
	start        time.Time
	openedForROM string

	window []textEntry
}

// NewTextWriter creates a TextWriter rotating files under dir, named
// "<rom>.txt".
func NewTextWriter(dir string, romName func() string) *TextWriter {
	return &TextWriter{dir: dir, romName: romName}
}

// Run is the sink worker loop. c must be a NoSnap consumer.
func (w *TextWriter) Run(c *ring.Consumer) {
	defer w.flushAll()
	for {
		f, ok := c.Next()
		if !ok {
			return
		}
		if f.Mode != frame.Data || !f.HasPixels {
			continue
		}
		if err := w.rotateIfNeeded(); err != nil {
			continue
		}
		ms := uint32(time.Since(w.start) / time.Millisecond)
		w.window = append(w.window, textEntry{f: f, ms: ms})
		w.drain()
	}
}

// drain flushes entries once the window holds more than 3, applying
// transitional-frame suppression to the middle entry first.
func (w *TextWriter) drain() {
	for len(w.window) > 3 {
		if len(w.window) >= 3 && w.isTransitional(w.window[0], w.window[1], w.window[2]) {
			// Merge the suppressed middle frame's time into the preceding
			// entry and drop it.
			w.window[0].ms = w.window[1].ms
			w.window = append(w.window[:1], w.window[2:]...)
			continue
		}
		w.flushEntry(w.window[0])
		w.window = w.window[1:]
	}
}

// isTransitional reports whether mid looks like a brief fade intermediate
// between a and b: young, and every mid pixel sits at an "on the way"
// value (1 or 2 of a depth=2 palette) while the corresponding outer pixels
// are at the boolean extremes (0 or 3).
func (w *TextWriter) isTransitional(a, mid, b textEntry) bool {
	if mid.f.Depth != 2 {
		return false
	}
	if mid.ms-a.ms >= transitionalAgeThreshold {
		return false
	}
	n := mid.f.PixelLen()
	if a.f.PixelLen() != n || b.f.PixelLen() != n {
		return false
	}
	for i := 0; i < n; i++ {
		mv := mid.f.Pixels[i]
		if mv != 1 && mv != 2 {
			return false
		}
		av, bv := a.f.Pixels[i], b.f.Pixels[i]
		if !(av == 0 || av == 3) || !(bv == 0 || bv == 3) {
			return false
		}
	}
	return true
}

func (w *TextWriter) flushAll() {
	for _, e := range w.window {
		w.flushEntry(e)
	}
	w.window = nil
	w.close()
}

func (w *TextWriter) flushEntry(e textEntry) {
	if w.writer == nil {
		return
	}
	fmt.Fprintf(w.writer, "0x%08x\n", e.ms)
	n := e.f.Width * e.f.Height
	for row := 0; row < e.f.Height; row++ {
		for col := 0; col < e.f.Width; col++ {
			fmt.Fprintf(w.writer, "%x", e.f.Pixels[row*e.f.Width+col])
		}
		fmt.Fprintln(w.writer)
	}
	_ = n
	fmt.Fprintln(w.writer)
	w.writer.Flush()
}

func (w *TextWriter) rotateIfNeeded() error {
	name := w.romName()
	if name == w.openedForROM && w.writer != nil {
		return nil
	}
	w.flushAll()
	if name == "" {
		return nil
	}
	path := filepath.Join(w.dir, name+".txt")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("dump: open text capture %q: %w", path, err)
	}
	w.file = file
	w.writer = bufio.NewWriter(file)
	w.start = time.Now()
	w.openedForROM = name
	return nil
}

func (w *TextWriter) close() {
	if w.writer != nil {
		w.writer.Flush()
	}
	if w.file != nil {
		w.file.Close()
	}
	w.writer = nil
	w.file = nil
	w.openedForROM = ""
}
