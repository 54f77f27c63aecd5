package engine

import (
	"github.com/pinlab/dmdengine/internal/config"
	"github.com/pinlab/dmdengine/internal/frame"
)

// publish is the single choke point for every frame entering the ring,
// whether from the producer API or from colorized republication: write
// the slot, wake every consumer, and -- for producer-facing (uncolorized)
// frames only -- mirror it over the network sink.
func (e *Engine) publish(f frame.Frame, buffered bool) {
	e.r.Publish(f, buffered)

	if e.networkSink == nil || f.Mode.IsColorized() {
		return
	}
	err := e.networkSink.Send(&f, e.ctx.ROMName(), e.ctx.AltColorPath(), e.ctx.PatternVideoPath(), buffered)
	if err != nil {
		e.logf(config.SeverityError, "network: send: %v", err)
	}
}

// UpdateData publishes a monochrome or RGB24 frame. depth is 2 or 4 for
// Data mode, 24 for RGB24 (use UpdateRGB24 for that case instead of
// calling this directly with mode=RGB24).
func (e *Engine) UpdateData(pixels []byte, depth, w, h int, r, g, b byte, mode frame.Mode, buffered bool) error {
	if w > frame.MaxWidth || h > frame.MaxHeight {
		return ErrOversizeGeometry
	}
	n := w * h
	plen := n
	if mode == frame.RGB24 {
		plen = n * 3
	}
	if plen > frame.MaxPixels {
		return ErrOversizeGeometry
	}
	if len(pixels) < plen {
		return ErrUnsupportedModeGeometry
	}

	var f frame.Frame
	f.Mode = mode
	f.Depth = depth
	f.Width = w
	f.Height = h
	f.Tint = [3]byte{r, g, b}
	f.HasPixels = true
	copy(f.Pixels[:], pixels[:plen])

	e.publish(f, buffered)
	return nil
}

// UpdateRGB24 publishes a 24-bit-per-pixel frame; equivalent to
// UpdateData with mode=RGB24, depth=24.
func (e *Engine) UpdateRGB24(pixels []byte, w, h int, buffered bool) error {
	return e.UpdateData(pixels, 24, w, h, 0, 0, 0, frame.RGB24, buffered)
}

// UpdateRGB16 publishes an RGB-565 frame, carried in SegA.
func (e *Engine) UpdateRGB16(words []uint16, w, h int, buffered bool) error {
	n := w * h
	if n > frame.SegWords {
		return ErrOversizeGeometry
	}
	if len(words) < n {
		return ErrUnsupportedModeGeometry
	}

	var f frame.Frame
	f.Mode = frame.RGB16
	f.Depth = 16
	f.Width = w
	f.Height = h
	f.HasSegA = true
	copy(f.SegA[:], words[:n])

	e.publish(f, buffered)
	return nil
}

// UpdateAlphaNumeric publishes a segment-display frame; seg2 may be nil
// for single-row layouts. buffered is implicitly false: alphanumeric
// frames are never replayed.
func (e *Engine) UpdateAlphaNumeric(layout frame.Layout, seg1, seg2 []uint16, r, g, b byte) error {
	var f frame.Frame
	f.Mode = frame.AlphaNumeric
	f.Layout = layout
	f.Width, f.Height = alphaNumericWidth, alphaNumericHeight
	f.Tint = [3]byte{r, g, b}

	f.HasSegA = true
	n1 := len(seg1)
	if n1 > frame.AlphaSegWords {
		n1 = frame.AlphaSegWords
	}
	copy(f.SegA[:], seg1[:n1])

	if seg2 != nil {
		f.HasSegB = true
		n2 := len(seg2)
		if n2 > frame.AlphaSegWords {
			n2 = frame.AlphaSegWords
		}
		copy(f.SegB[:], seg2[:n2])
	}

	e.publish(f, false)
	return nil
}

// QueueLastBuffered re-enqueues the most recently buffered frame, if any,
// as a fresh non-buffered update. A no-op when nothing has been buffered.
func (e *Engine) QueueLastBuffered() error {
	f, ok := e.r.LastBuffered()
	if !ok {
		return nil
	}
	e.publish(f, false)
	return nil
}

// SetROMName sets the current ROM name context, truncating to capacity.
// On an actual change, the network sink's disconnect-others latch arms
// for its next send.
func (e *Engine) SetROMName(name string) {
	if e.ctx.setROMName(name, romNameMaxLen) && e.networkSink != nil {
		e.networkSink.NotifyROMChange()
	}
}

// SetAltColorPath sets the colorization asset directory, truncating to
// capacity.
func (e *Engine) SetAltColorPath(path string) {
	e.ctx.setAltColorPath(path, pathMaxLen)
}

// SetPatternVideoPath sets the pattern-capture asset directory,
// truncating to capacity.
func (e *Engine) SetPatternVideoPath(path string) {
	e.ctx.setPatternVideoPath(path, pathMaxLen)
}
