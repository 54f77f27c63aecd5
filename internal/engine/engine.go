// Package engine wires the ring buffer, the colorization and
// pattern-trigger workers, and every sink into one running instance: the
// single entry point a caller constructs, feeds frames into, and shuts
// down.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pinlab/dmdengine/internal/colorize"
	"github.com/pinlab/dmdengine/internal/config"
	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/network"
	"github.com/pinlab/dmdengine/internal/ring"
	"github.com/pinlab/dmdengine/internal/sinks/console"
	"github.com/pinlab/dmdengine/internal/sinks/dump"
	"github.com/pinlab/dmdengine/internal/sinks/hardware"
	"github.com/pinlab/dmdengine/internal/sinks/level"
	"github.com/pinlab/dmdengine/internal/sinks/pattern"
	"github.com/pinlab/dmdengine/internal/sinks/rgb24"
	"github.com/pinlab/dmdengine/internal/sinks/secondary"
)

const (
	romNameMaxLen = 255
	pathMaxLen    = 511

	// alphaNumericWidth/Height is the fixed segment-to-pixel render
	// geometry used by internal/alphanumeric and internal/sinks/secondary.
	alphaNumericWidth  = 128
	alphaNumericHeight = 32
)

// Engine is the running instance: one producer-facing API, one ring
// buffer, and the set of sink/worker goroutines the configuration enables.
type Engine struct {
	cfg config.Config
	log func(severity config.Severity, format string, args ...interface{})

	r   *ring.Ring
	ctx ctxState

	finding atomic.Bool

	levelSink   *level.Sink
	rgb24Sink   *rgb24.Sink
	consoleSink *console.Sink

	hardwareWorker  *hardware.Worker
	secondaryWorker *secondary.Worker
	colorizeWorker  *colorize.Worker

	networkSink *network.Sink

	wg sync.WaitGroup
}

// New constructs an Engine from cfg and its external collaborators.
// Every goroutine the configuration enables is started before New
// returns; the caller must eventually call Shutdown.
func New(cfg config.Config, deps Dependencies) (*Engine, error) {
	if cfg.HardwareDisplayEnabled && deps.HardwareDriver == nil {
		return nil, ErrHardwareDriver
	}
	if cfg.HardwareWifiEnabled && cfg.HardwareWifiAddr == "" {
		return nil, ErrMissingWifiAddr
	}
	if cfg.SecondaryDisplayEnabled && deps.SecondaryDriver == nil {
		return nil, ErrSecondaryDriver
	}
	if cfg.AltColor && deps.ColorizerLoader == nil {
		return nil, ErrColorizerLoader
	}
	if cfg.PatternCapture && deps.PatternMatcher == nil {
		return nil, ErrPatternMatcher
	}
	if cfg.NetworkEnabled && cfg.NetworkAddr == "" {
		return nil, ErrMissingDevice
	}

	e := &Engine{
		cfg: cfg,
		log: cfg.LogCallback,
		r:   ring.New(ring.DefaultOptions()),
	}
	if e.log == nil {
		e.log = defaultLogCallback
	}

	e.levelSink = level.New(4)
	e.rgb24Sink = rgb24.New(4, deps.Brightness, deps.AlphaRenderer)
	e.consoleSink = console.New()
	e.startSink(e.levelSink.Run, false)
	e.startSink(e.rgb24Sink.Run, false)
	e.startSink(e.consoleSink.Run, false)

	if cfg.HardwareDisplayEnabled {
		e.hardwareWorker = hardware.NewWorker(deps.HardwareDriver, deps.Brightness, deps.AlphaRenderer, cfg.AltColor)
		e.startSink(e.hardwareWorker.Run, false)
	}

	if cfg.SecondaryDisplayEnabled {
		e.secondaryWorker = secondary.NewWorker(deps.SecondaryDriver, deps.Brightness, deps.AlphaRenderer)
		e.startSink(e.secondaryWorker.Run, false)
	}

	if cfg.PatternCapture {
		patternWorker := pattern.NewWorker(deps.PatternMatcher, e.onTrigger)
		e.startSink(patternWorker.Run, false)
	}

	if cfg.TextDumpPath != "" {
		textDump := dump.NewTextWriter(cfg.TextDumpPath, e.ctx.ROMName)
		e.startSink(textDump.Run, true)
	}

	if cfg.RawDumpPath != "" {
		rawDump := dump.NewRawWriter(cfg.RawDumpPath, e.ctx.ROMName)
		e.startSink(rawDump.Run, true)
	}

	if cfg.AltColor {
		consumer := e.r.NewConsumer(true) // colorizer sees every Data frame
		e.colorizeWorker = colorize.NewWorker(consumer, e, e, deps.ColorizerLoader, e.onTrigger)
		e.colorizeWorker.Start()
	}

	if cfg.NetworkEnabled {
		e.networkSink = network.New(fmt.Sprintf("%s:%d", cfg.NetworkAddr, cfg.NetworkPort))
	}

	return e, nil
}

// startSink runs fn in its own goroutine against a freshly registered
// ring consumer, joined by Shutdown.
func (e *Engine) startSink(fn func(*ring.Consumer), noSnap bool) {
	consumer := e.r.NewConsumer(noSnap)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn(consumer)
	}()
}

// onTrigger forwards a de-duplicated trigger id to the configured user
// callback, if any.
func (e *Engine) onTrigger(id uint32) {
	if e.cfg.PatternTriggerCallback != nil {
		e.cfg.PatternTriggerCallback(id, e.cfg.PatternTriggerCallbackUserData)
	}
}

func (e *Engine) logf(severity config.Severity, format string, args ...interface{}) {
	e.log(severity, format, args...)
}

// defaultLogCallback is used when the caller supplies no LogCallback.
func defaultLogCallback(severity config.Severity, format string, args ...interface{}) {
	stdLogf(severity, format, args...)
}

// LevelSink returns the in-process Data-mode buffer sink, for subscribing
// consumers that want raw pixel buffers without opening a pixel display.
func (e *Engine) LevelSink() *level.Sink { return e.levelSink }

// RGB24Sink returns the in-process 24-bit-per-pixel buffer sink.
func (e *Engine) RGB24Sink() *rgb24.Sink { return e.rgb24Sink }

// ConsoleSink returns the ASCII-art console sink; callers register an
// io.Writer and width against it directly.
func (e *Engine) ConsoleSink() *console.Sink { return e.consoleSink }

// HasDisplay reports whether a pixel-display sink (hardware or secondary)
// is active.
func (e *Engine) HasDisplay() bool {
	return e.hardwareWorker != nil || e.secondaryWorker != nil
}

// IsFinding reports whether a display-discovery scan is currently in
// progress.
func (e *Engine) IsFinding() bool {
	return e.finding.Load()
}

// FindDisplays runs fn (the out-of-scope device-discovery routine) at
// most once at a time; concurrent calls while a scan is in progress are
// no-ops, matching the single "finding" flag's idempotence contract.
func (e *Engine) FindDisplays(fn func()) {
	if !e.finding.CompareAndSwap(false, true) {
		return
	}
	defer e.finding.Store(false)
	if fn != nil {
		fn()
	}
}

// Shutdown stops the ring (waking every consumer) and joins every sink
// and worker goroutine in the order described by the concurrency model:
// sink workers first, then colorization, then the network sink's
// background connection. If ctx is cancelled before the sink workers
// finish draining, Shutdown returns ctx.Err() without waiting for the
// colorization worker or network sink.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.r.Stop()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if e.colorizeWorker != nil {
		e.colorizeWorker.Shutdown()
	}
	if e.networkSink != nil {
		e.networkSink.Close()
	}
	return nil
}

// colorize.Context implementation -- read by the colorization worker once
// per wakeup.

func (e *Engine) ROMName() string      { return e.ctx.ROMName() }
func (e *Engine) AltColorPath() string { return e.ctx.AltColorPath() }
func (e *Engine) FramesTimeout() int   { return e.cfg.FramesTimeout }
func (e *Engine) FramesToSkip() int    { return e.cfg.FramesToSkip }

// Republish implements colorize.Republisher: colorized output frames
// re-enter the ring exactly like a producer update, never buffered and
// never mirrored over the network (the wire protocol only carries
// producer-facing, uncolorized frames -- see publish).
func (e *Engine) Republish(f frame.Frame) {
	e.publish(f, false)
}
