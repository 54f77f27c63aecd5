// Package colorize drives the external colorization library: it loads
// and disposes ROM-keyed sessions, submits mono frames for colorizing,
// schedules palette-rotation ticks, and republishes colorized output
// frames back into the ring.
package colorize

import "github.com/pinlab/dmdengine/internal/frame"

// Result is what a Colorizer reports for one submitted Data frame.
type Result struct {
	// Colorized is false when the colorizer has nothing to emit for this
	// input.
	Colorized bool

	// Version selects which of the fields below are populated.
	Version Version

	// V1 fields.
	Width, Height int    // geometry of V1Pixels, echoing the submitted input.
	V1Pixels      []byte // width*height bytes, 6-bit indices.
	V1Palette     [frame.PaletteSize]byte

	// V2 fields: non-zero Width32/Width64 select which outputs to emit.
	Width32     int
	Height32RGB []uint16 // width32 * 32 RGB-565 words.
	Width64     int
	Height64RGB []uint16 // width64 * 64 RGB-565 words.

	// RotationTimer, when in [1, 2048), schedules the next rotation tick
	// this many milliseconds from now. Zero or out of range means "no
	// scheduled rotation" for this frame.
	RotationTimer int

	// TriggerID is the pattern-trigger id reported alongside this
	// result, or trigger.Sentinel if none.
	TriggerID uint32
}

// Version identifies the colorizer protocol generation.
type Version int

const (
	V1 Version = iota
	V2
)

// RotationResult is what a Colorizer reports from a Rotate call.
type RotationResult struct {
	Version Version

	V1Palette [frame.PaletteSize]byte

	Render32   bool
	Width32    int
	Width32RGB []uint16
	Render64   bool
	Width64    int
	Width64RGB []uint16

	RotationTimer int
}

// Colorizer is the external colorization library seam: the algorithm
// itself is an external collaborator, never reimplemented here. A
// session is created per ROM name and disposed on ROM change or
// shutdown.
type Colorizer interface {
	// Colorize submits one mono frame and returns the colorized result.
	Colorize(pixels []byte, width, height, depth int, tintR, tintG, tintB byte) (Result, error)

	// Rotate asks the colorizer to advance its palette rotation without
	// a new input frame, producing another output from the last input.
	Rotate() (RotationResult, error)

	// Close disposes the session's resources.
	Close() error
}

// Loader creates a Colorizer session for a given ROM name, loading it
// from altColorPath and requesting both 32- and 64-row outputs.
type Loader interface {
	Load(altColorPath, romName string, framesTimeout int, framesToSkip int) (Colorizer, error)
}

// LoaderFunc adapts a plain function to a Loader.
type LoaderFunc func(altColorPath, romName string, framesTimeout, framesToSkip int) (Colorizer, error)

// Load implements Loader.
func (f LoaderFunc) Load(altColorPath, romName string, framesTimeout, framesToSkip int) (Colorizer, error) {
	return f(altColorPath, romName, framesTimeout, framesToSkip)
}
