// Package wire implements the binary frame-record codec shared by the
// network sink and the raw dump sink: a fixed-width, little-endian,
// self-describing encoding via encoding/binary, in the same explicit,
// length-prefixed byte-level style used elsewhere for event framing.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pinlab/dmdengine/internal/frame"
)

const (
	flagHasPixels = 1 << 0
	flagHasSegA   = 1 << 1
	flagHasSegB   = 1 << 2
)

// Encode serializes f into a self-contained byte slice: every variable
// region is length-prefixed with its real encoded size, never a
// placeholder.
func Encode(f *frame.Frame) []byte {
	var buf bytes.Buffer

	binary.Write(&buf, binary.LittleEndian, uint8(f.Mode))
	binary.Write(&buf, binary.LittleEndian, uint8(f.Depth))
	binary.Write(&buf, binary.LittleEndian, uint16(f.Width))
	binary.Write(&buf, binary.LittleEndian, uint16(f.Height))
	binary.Write(&buf, binary.LittleEndian, uint8(f.Layout))

	var flags uint8
	if f.HasPixels {
		flags |= flagHasPixels
	}
	if f.HasSegA {
		flags |= flagHasSegA
	}
	if f.HasSegB {
		flags |= flagHasSegB
	}
	binary.Write(&buf, binary.LittleEndian, flags)
	buf.Write(f.Tint[:])

	if f.HasPixels {
		n := f.PixelLen()
		binary.Write(&buf, binary.LittleEndian, uint32(n))
		buf.Write(f.Pixels[:n])
	}
	if f.HasSegA {
		n := f.Width * f.Height
		if n == 0 || n > len(f.SegA) {
			n = frame.AlphaSegWords
		}
		binary.Write(&buf, binary.LittleEndian, uint32(n))
		writeWords(&buf, f.SegA[:n])
	}
	if f.HasSegB {
		n := frame.AlphaSegWords
		binary.Write(&buf, binary.LittleEndian, uint32(n))
		writeWords(&buf, f.SegB[:n])
	}

	return buf.Bytes()
}

// Decode parses a byte slice produced by Encode back into a Frame.
func Decode(b []byte) (frame.Frame, error) {
	var f frame.Frame
	r := bytes.NewReader(b)

	var mode, depth, layout, flags uint8
	var width, height uint16
	for _, v := range []interface{}{&mode, &depth, &width, &height, &layout} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return f, fmt.Errorf("wire: decode header: %w", err)
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return f, fmt.Errorf("wire: decode flags: %w", err)
	}
	if _, err := r.Read(f.Tint[:]); err != nil {
		return f, fmt.Errorf("wire: decode tint: %w", err)
	}

	f.Mode = frame.Mode(mode)
	f.Depth = int(depth)
	f.Width = int(width)
	f.Height = int(height)
	f.Layout = frame.Layout(layout)

	if flags&flagHasPixels != 0 {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return f, fmt.Errorf("wire: decode pixel length: %w", err)
		}
		if int(n) > len(f.Pixels) {
			return f, fmt.Errorf("wire: pixel length %d exceeds capacity", n)
		}
		if _, err := r.Read(f.Pixels[:n]); err != nil {
			return f, fmt.Errorf("wire: decode pixels: %w", err)
		}
		f.HasPixels = true
	}
	if flags&flagHasSegA != 0 {
		n, err := readWordsInto(r, f.SegA[:])
		if err != nil {
			return f, fmt.Errorf("wire: decode segA: %w", err)
		}
		_ = n
		f.HasSegA = true
	}
	if flags&flagHasSegB != 0 {
		_, err := readWordsInto(r, f.SegB[:])
		if err != nil {
			return f, fmt.Errorf("wire: decode segB: %w", err)
		}
		f.HasSegB = true
	}

	return f, nil
}

func writeWords(buf *bytes.Buffer, words []uint16) {
	for _, w := range words {
		binary.Write(buf, binary.LittleEndian, w)
	}
}

func readWordsInto(r *bytes.Reader, dst []uint16) (int, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, err
	}
	if int(n) > len(dst) {
		return 0, fmt.Errorf("word length %d exceeds capacity", n)
	}
	for i := 0; i < int(n); i++ {
		if err := binary.Read(r, binary.LittleEndian, &dst[i]); err != nil {
			return 0, err
		}
	}
	return int(n), nil
}
