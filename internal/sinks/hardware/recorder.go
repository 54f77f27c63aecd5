package hardware

import (
	"sync"

	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/palette"
)

// Call records one Driver method invocation, for assertions in tests and
// the demo CLI's verbose mode.
type Call struct {
	Method string
	Width  int
	Height int
}

// Recorder is a dependency-free, in-memory reference Driver: it records
// every call instead of talking to real hardware. Used by tests and the
// demonstration CLI in place of a concrete ZeDMD/Wi-Fi transport, which
// is out of scope for this module.
type Recorder struct {
	mu    sync.Mutex
	calls []Call

	width, height int
	deviceWidth   int
}

// NewRecorder creates a Recorder pretending to be a device of the given
// native width (256 for HD, 128 for SD).
func NewRecorder(deviceWidth int) *Recorder {
	return &Recorder{deviceWidth: deviceWidth}
}

func (r *Recorder) record(method string) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Method: method, Width: r.width, Height: r.height})
	r.mu.Unlock()
}

// Calls returns a copy of every call recorded so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *Recorder) SetFrameSize(w, h int) {
	r.mu.Lock()
	r.width, r.height = w, h
	r.mu.Unlock()
	r.record("SetFrameSize")
}

func (r *Recorder) SetPalette(palette.Colors, int)                        { r.record("SetPalette") }
func (r *Recorder) RenderRGB24(pixels []byte)                             { r.record("RenderRGB24") }
func (r *Recorder) RenderRGB565(words []uint16)                           { r.record("RenderRGB565") }
func (r *Recorder) RenderGray2(pixels []byte)                             { r.record("RenderGray2") }
func (r *Recorder) RenderGray4(pixels []byte)                             { r.record("RenderGray4") }
func (r *Recorder) RenderColoredGray6(pixels []byte, pal [frame.PaletteSize]byte, rotations []byte) {
	r.record("RenderColoredGray6")
}
func (r *Recorder) SetPreUpscaling(bool) { r.record("SetPreUpscaling") }
func (r *Recorder) Width() int           { return r.deviceWidth }
