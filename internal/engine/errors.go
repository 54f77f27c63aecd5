package engine

import "errors"

// Configuration errors, returned by New before any goroutine starts.
var (
	ErrMissingWifiAddr = errors.New("engine: hardware wifi enabled but no address configured")
	ErrMissingDevice   = errors.New("engine: display or network sink enabled but no device/address configured")
	ErrHardwareDriver  = errors.New("engine: hardware display enabled but no driver supplied")
	ErrSecondaryDriver = errors.New("engine: secondary display enabled but no driver supplied")
	ErrColorizerLoader = errors.New("engine: colorization enabled but no loader supplied")
	ErrPatternMatcher  = errors.New("engine: pattern capture enabled but no matcher supplied")
)

// Producer-path errors, returned from Update*.
var (
	ErrOversizeGeometry        = errors.New("engine: frame geometry exceeds slot capacity")
	ErrUnsupportedModeGeometry = errors.New("engine: unsupported mode/geometry combination")
)
