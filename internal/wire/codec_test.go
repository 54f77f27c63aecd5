package wire

import (
	"testing"

	"github.com/pinlab/dmdengine/internal/frame"
)

func TestEncodeDecode_DataFrame(t *testing.T) {
	var f frame.Frame
	f.Mode = frame.Data
	f.Depth = 4
	f.Width = 8
	f.Height = 4
	f.Tint = [3]byte{10, 20, 30}
	f.HasPixels = true
	for i := 0; i < f.Width*f.Height; i++ {
		f.Pixels[i] = byte(i)
	}

	got, err := Decode(Encode(&f))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Mode != f.Mode || got.Depth != f.Depth || got.Width != f.Width || got.Height != f.Height {
		t.Fatalf("header mismatch: got %+v", got)
	}
	if got.Tint != f.Tint {
		t.Fatalf("Tint = %v, want %v", got.Tint, f.Tint)
	}
	if !got.HasPixels {
		t.Fatal("HasPixels = false, want true")
	}
	for i := 0; i < f.Width*f.Height; i++ {
		if got.Pixels[i] != f.Pixels[i] {
			t.Fatalf("Pixels[%d] = %d, want %d", i, got.Pixels[i], f.Pixels[i])
		}
	}
}

func TestEncodeDecode_RGB16Frame(t *testing.T) {
	var f frame.Frame
	f.Mode = frame.RGB16
	f.Width = 16
	f.Height = 16
	f.HasSegA = true
	for i := 0; i < f.Width*f.Height; i++ {
		f.SegA[i] = uint16(i * 7)
	}

	got, err := Decode(Encode(&f))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.HasSegA {
		t.Fatal("HasSegA = false, want true")
	}
	for i := 0; i < f.Width*f.Height; i++ {
		if got.SegA[i] != f.SegA[i] {
			t.Fatalf("SegA[%d] = %d, want %d", i, got.SegA[i], f.SegA[i])
		}
	}
}

func TestEncodeDecode_AlphaNumericFrame(t *testing.T) {
	var f frame.Frame
	f.Mode = frame.AlphaNumeric
	f.Layout = frame.Layout(3)
	f.HasSegA = true
	f.HasSegB = true
	for i := 0; i < frame.AlphaSegWords; i++ {
		f.SegA[i] = uint16(i)
		f.SegB[i] = uint16(i * 2)
	}

	got, err := Decode(Encode(&f))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Layout != f.Layout {
		t.Fatalf("Layout = %v, want %v", got.Layout, f.Layout)
	}
	if !got.HasSegA || !got.HasSegB {
		t.Fatal("HasSegA/HasSegB = false, want true")
	}
	for i := 0; i < frame.AlphaSegWords; i++ {
		if got.SegA[i] != f.SegA[i] || got.SegB[i] != f.SegB[i] {
			t.Fatalf("segment mismatch at %d", i)
		}
	}
}

func TestDecode_TruncatedInput(t *testing.T) {
	if _, err := Decode([]byte{1, 2}); err == nil {
		t.Fatal("Decode(truncated) returned nil error, want an error")
	}
}

func TestDecode_OversizePixelLength(t *testing.T) {
	var f frame.Frame
	f.Mode = frame.Data
	f.Width, f.Height = 2, 2
	f.HasPixels = true
	b := Encode(&f)

	// Corrupt the pixel-length prefix (right after mode, depth, width,
	// height, layout, flags, and the 3-byte tint) to something oversize.
	offset := 1 + 1 + 2 + 2 + 1 + 1 + 3
	b[offset] = 0xFF
	b[offset+1] = 0xFF
	b[offset+2] = 0xFF
	b[offset+3] = 0xFF

	if _, err := Decode(b); err == nil {
		t.Fatal("Decode with an oversize pixel length returned nil error")
	}
}
