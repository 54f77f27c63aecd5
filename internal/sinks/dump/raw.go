// Package dump implements the text and raw frame-capture sinks. Both
// consume every ring slot (their ring.Consumer is constructed with
// NoSnap=true) and rotate their output file on ROM-name change, grounded
// on events.EventLog's O_APPEND file lifecycle.
package dump

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/ring"
	"github.com/pinlab/dmdengine/internal/wire"
)

// RawWriter appends every frame to a binary capture file, one record per
// frame: {u32 ms, u32 size, bytes[size]}. size is always len(encoded) --
// never a pointer-sized placeholder.
type RawWriter struct {
	dir     string
	romName func() string

	file       *os.File
	writer     *bufio.Writer
	start      time.Time
	openedForROM string
}

// NewRawWriter creates a RawWriter that rotates files under dir, named
// "<rom>.raw", reopening in append mode on each ROM-name change. romName
// is polled once per frame to detect the change.
func NewRawWriter(dir string, romName func() string) *RawWriter {
	return &RawWriter{dir: dir, romName: romName}
}

// Run is the sink worker loop. c must be a NoSnap consumer.
func (w *RawWriter) Run(c *ring.Consumer) {
	defer w.close()
	for {
		f, ok := c.Next()
		if !ok {
			return
		}
		if err := w.rotateIfNeeded(); err != nil {
			continue
		}
		if w.writer == nil {
			continue
		}
		if err := w.append(f); err != nil {
			continue
		}
	}
}

func (w *RawWriter) rotateIfNeeded() error {
	name := w.romName()
	if name == w.openedForROM && w.writer != nil {
		return nil
	}
	w.close()
	if name == "" {
		return nil
	}
	path := filepath.Join(w.dir, name+".raw")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("dump: open raw capture %q: %w", path, err)
	}
	w.file = file
	w.writer = bufio.NewWriter(file)
	w.start = time.Now()
	w.openedForROM = name
	return nil
}

func (w *RawWriter) append(f frame.Frame) error {
	encoded := wire.Encode(&f)
	ms := uint32(time.Since(w.start) / time.Millisecond)
	if err := binary.Write(w.writer, binary.LittleEndian, ms); err != nil {
		return err
	}
	if err := binary.Write(w.writer, binary.LittleEndian, uint32(len(encoded))); err != nil {
		return err
	}
	if _, err := w.writer.Write(encoded); err != nil {
		return err
	}
	return w.writer.Flush()
}

func (w *RawWriter) close() {
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
