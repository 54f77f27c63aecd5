package frame

import "testing"

func TestMode_String(t *testing.T) {
	cases := map[Mode]string{
		Data:              "DATA",
		RGB24:             "RGB24",
		RGB16:             "RGB16",
		AlphaNumeric:      "ALPHANUMERIC",
		ColorizedV1:       "COLORIZED_V1",
		ColorizedV2_32:    "COLORIZED_V2_32",
		ColorizedV2_64:    "COLORIZED_V2_64",
		ColorizedV2_32_64: "COLORIZED_V2_32_64",
		ColorizedV2_64_32: "COLORIZED_V2_64_32",
		Mode(99):          "MODE(99)",
	}
	for m, want := range cases {
		if got := m.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", m, got, want)
		}
	}
}

func TestMode_IsColorized(t *testing.T) {
	colorized := []Mode{ColorizedV1, ColorizedV2_32, ColorizedV2_64, ColorizedV2_32_64, ColorizedV2_64_32}
	for _, m := range colorized {
		if !m.IsColorized() {
			t.Errorf("%s.IsColorized() = false, want true", m)
		}
	}
	plain := []Mode{Data, RGB24, RGB16, AlphaNumeric}
	for _, m := range plain {
		if m.IsColorized() {
			t.Errorf("%s.IsColorized() = true, want false", m)
		}
	}
}

func TestFrame_PixelLen(t *testing.T) {
	tests := []struct {
		mode       Mode
		w, h       int
		wantLength int
	}{
		{Data, 128, 32, 128 * 32},
		{RGB24, 128, 32, 128 * 32 * 3},
		{RGB16, 128, 32, 128 * 32},
	}
	for _, tt := range tests {
		f := Frame{Mode: tt.mode, Width: tt.w, Height: tt.h}
		if got := f.PixelLen(); got != tt.wantLength {
			t.Errorf("%s %dx%d: PixelLen() = %d, want %d", tt.mode, tt.w, tt.h, got, tt.wantLength)
		}
	}
}

func TestSegWordsCoversMaxGeometry(t *testing.T) {
	if SegWords < MaxWidth*MaxHeight {
		t.Fatalf("SegWords = %d, too small for max geometry %d", SegWords, MaxWidth*MaxHeight)
	}
	if AlphaSegWords >= SegWords {
		t.Fatalf("AlphaSegWords = %d should be far smaller than SegWords = %d", AlphaSegWords, SegWords)
	}
}

func TestFrameIsCopyable(t *testing.T) {
	var a Frame
	a.Mode = RGB24
	a.Width, a.Height = 4, 4
	a.Pixels[0] = 0xAB

	b := a
	b.Pixels[0] = 0xCD

	if a.Pixels[0] != 0xAB {
		t.Fatal("mutating a copy mutated the original Frame")
	}
}
