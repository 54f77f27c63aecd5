package engine

import (
	"github.com/pinlab/dmdengine/internal/alphanumeric"
	"github.com/pinlab/dmdengine/internal/colorize"
	"github.com/pinlab/dmdengine/internal/palette"
	"github.com/pinlab/dmdengine/internal/sinks/hardware"
	"github.com/pinlab/dmdengine/internal/sinks/pattern"
	"github.com/pinlab/dmdengine/internal/sinks/secondary"
)

// Dependencies collects every external collaborator the engine wires in,
// per the driver-interface seams defined by each sink/worker package.
// Only the fields required by the enabled config.Config options need be
// set; New validates that requirement.
type Dependencies struct {
	HardwareDriver  hardware.Driver
	SecondaryDriver secondary.Driver
	PatternMatcher  pattern.Matcher
	ColorizerLoader colorize.Loader
	AlphaRenderer   alphanumeric.Renderer
	Brightness      palette.Brightness
}
