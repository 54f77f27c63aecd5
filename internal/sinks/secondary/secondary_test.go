package secondary

import (
	"testing"

	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/palette"
)

func TestConvert_NativeGeometryPassesThrough(t *testing.T) {
	w := NewWorker(NewRecorder(), palette.LinearBrightness, nil)
	var f frame.Frame
	f.Mode = frame.RGB24
	f.Width, f.Height = nativeWidth, nativeHeight
	f.HasPixels = true
	for i := 0; i < nativeWidth*nativeHeight; i++ {
		f.Pixels[i*3] = 255 // pure red
	}

	out := make([]uint16, nativeWidth*nativeHeight)
	if !w.convert(f, out) {
		t.Fatal("convert() = false for native geometry")
	}
	if out[0] == 0 {
		t.Fatalf("out[0] = 0, want a nonzero red channel packed into RGB565")
	}
}

func TestConvert_16RowCentersVertically(t *testing.T) {
	w := NewWorker(NewRecorder(), palette.LinearBrightness, nil)
	var f frame.Frame
	f.Mode = frame.RGB24
	f.Width, f.Height = nativeWidth, 16
	f.HasPixels = true
	for i := 0; i < nativeWidth*16; i++ {
		f.Pixels[i*3+1] = 255 // pure green
	}

	out := make([]uint16, nativeWidth*nativeHeight)
	if !w.convert(f, out) {
		t.Fatal("convert() = false for 16-row input")
	}
	// Row 0 should be blank (centered offset), the centered band non-blank.
	if out[0] != 0 {
		t.Fatalf("out[0] = %#x, want 0 (blank padding row)", out[0])
	}
	offset := (nativeHeight - 16) / 2
	if out[offset*nativeWidth] == 0 {
		t.Fatal("centered band is blank, want the green content")
	}
}

func TestConvert_64RowDownscales(t *testing.T) {
	w := NewWorker(NewRecorder(), palette.LinearBrightness, nil)
	var f frame.Frame
	f.Mode = frame.RGB24
	f.Width, f.Height = nativeWidth*2, 64
	f.HasPixels = true
	for i := 0; i < f.Width*f.Height; i++ {
		f.Pixels[i*3+2] = 255 // pure blue
	}

	out := make([]uint16, nativeWidth*nativeHeight)
	if !w.convert(f, out) {
		t.Fatal("convert() = false for 64-row input")
	}
	if out[0] == 0 {
		t.Fatal("downscaled output is blank, want the blue content")
	}
}

func TestConvert_UnsupportedGeometryReturnsFalse(t *testing.T) {
	w := NewWorker(NewRecorder(), palette.LinearBrightness, nil)
	var f frame.Frame
	f.Mode = frame.RGB24
	f.Width, f.Height = 17, 5
	f.HasPixels = true

	out := make([]uint16, nativeWidth*nativeHeight)
	if w.convert(f, out) {
		t.Fatal("convert() = true for an unsupported geometry")
	}
}

func TestPack565(t *testing.T) {
	if got := pack565(255, 0, 0); got&0xF800 == 0 {
		t.Fatalf("pack565(255,0,0) = %#x, want the red bits set", got)
	}
	if got := pack565(0, 255, 0); got&0x07E0 == 0 {
		t.Fatalf("pack565(0,255,0) = %#x, want the green bits set", got)
	}
	if got := pack565(0, 0, 255); got&0x001F == 0 {
		t.Fatalf("pack565(0,0,255) = %#x, want the blue bits set", got)
	}
}
