package colorize

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/ring"
	"github.com/pinlab/dmdengine/internal/trigger"
)

// Republisher is the seam the worker uses to feed its output back into the
// ring as new updates, without importing the engine package (which in turn
// owns a Worker).
type Republisher interface {
	Republish(f frame.Frame)
}

// Context supplies the worker with the engine's current ROM and asset-path
// state. The engine updates these under its own lock; the worker reads them
// once per wakeup, tolerating a torn read of unrelated fields since each
// field is independently consistent (plain string copies).
type Context interface {
	ROMName() string
	AltColorPath() string
	FramesTimeout() int
	FramesToSkip() int
}

// Worker is the colorization state machine: one loop goroutine per engine
// instance that drains Data frames to an external colorizer, republishes
// colorized output, and services palette-rotation deadlines.
//
// Design mirrors internal/disruptor's EventProcessor/EventBatcher pair: a
// single owned goroutine, a shutdown channel/done channel handoff, and a
// ticker-like deadline (here a one-shot timer instead of a fixed-interval
// ticker, since rotation deadlines are set per colorized frame).
type Worker struct {
	consumer *ring.Consumer
	out      Republisher
	ctx      Context
	loader   Loader
	dispatch *trigger.Dispatcher

	running atomic.Bool

	shutdownCh   chan struct{}
	shutdownDone chan struct{}
}

// NewWorker creates a colorization Worker. The consumer must have been
// constructed with NoSnap=true (see ring.NewConsumer) so every Data frame
// reaches the colorizer.
func NewWorker(consumer *ring.Consumer, out Republisher, ctx Context, loader Loader, onTrigger trigger.Callback) *Worker {
	return &Worker{
		consumer:     consumer,
		out:          out,
		ctx:          ctx,
		loader:       loader,
		dispatch:     trigger.New(onTrigger),
		shutdownCh:   make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}
}

// Start begins the worker's loop goroutine.
func (w *Worker) Start() {
	w.running.Store(true)
	go w.loop()
}

// Shutdown stops the worker and waits for its loop to exit, disposing the
// active colorizer session if one is open.
func (w *Worker) Shutdown() {
	w.running.Store(false)
	close(w.shutdownCh)
	<-w.shutdownDone
}

// loop is the main colorization goroutine. sync.Cond has no native
// multi-wait, so the blocking ring read runs on a helper goroutine that
// posts to framesCh; the main loop selects on that alongside the rotation
// timer and the shutdown signal.
func (w *Worker) loop() {
	defer close(w.shutdownDone)

	var (
		session              Colorizer
		romName              string
		lastColorizedInput   *frame.Frame
		lastTriggerID        uint32
		hasLastTriggerID     bool
		rotationTimer        *time.Timer
		rotationTimerC       <-chan time.Time
	)
	defer func() {
		if rotationTimer != nil {
			rotationTimer.Stop()
		}
		if session != nil {
			if err := session.Close(); err != nil {
				log.Printf("colorize: close session: %v", err)
			}
		}
	}()

	framesCh := make(chan *frame.Frame)
	frameDone := make(chan struct{})
	go func() {
		for {
			f, ok := w.consumer.Next()
			if !ok {
				return
			}
			select {
			case framesCh <- &f:
			case <-frameDone:
				return
			}
		}
	}()
	defer close(frameDone)

	for {
		select {
		case <-w.shutdownCh:
			return

		case fp, ok := <-framesCh:
			if !ok {
				return
			}
			f := *fp

			if want := w.ctx.ROMName(); want != romName {
				romName = want
				if session != nil {
					if err := session.Close(); err != nil {
						log.Printf("colorize: close session on ROM change: %v", err)
					}
					session = nil
				}
				lastColorizedInput = nil
				hasLastTriggerID = false
				w.dispatch.Reset()
				if rotationTimer != nil {
					rotationTimer.Stop()
					rotationTimer = nil
					rotationTimerC = nil
				}
				if romName != "" {
					s, err := w.loader.Load(w.ctx.AltColorPath(), romName, w.ctx.FramesTimeout(), w.ctx.FramesToSkip())
					if err != nil {
						log.Printf("colorize: load session for %q: %v", romName, err)
					} else {
						session = s
					}
				}
			}

			if session == nil || f.Mode != frame.Data {
				continue
			}

			res, err := session.Colorize(f.Pixels[:f.PixelLen()], f.Width, f.Height, f.Depth, f.Tint[0], f.Tint[1], f.Tint[2])
			if err != nil {
				log.Printf("colorize: colorize frame: %v", err)
				continue
			}
			if !res.Colorized {
				continue
			}

			fc := f
			lastColorizedInput = &fc
			w.publishResult(res)

			if res.RotationTimer >= 1 && res.RotationTimer < 2048 {
				if rotationTimer != nil {
					rotationTimer.Stop()
				}
				rotationTimer = time.NewTimer(time.Duration(res.RotationTimer) * time.Millisecond)
				rotationTimerC = rotationTimer.C
			} else if rotationTimer != nil {
				rotationTimer.Stop()
				rotationTimer = nil
				rotationTimerC = nil
			}

			if res.TriggerID != trigger.Sentinel && (!hasLastTriggerID || res.TriggerID != lastTriggerID) {
				lastTriggerID = res.TriggerID
				hasLastTriggerID = true
				w.dispatch.Handle(res.TriggerID)
			}

		case <-rotationTimerC:
			rotationTimerC = nil
			if session == nil || lastColorizedInput == nil {
				continue
			}
			rot, err := session.Rotate()
			if err != nil {
				log.Printf("colorize: rotate: %v", err)
				continue
			}
			w.publishRotation(rot)
			if rot.RotationTimer >= 1 && rot.RotationTimer < 2048 {
				rotationTimer = time.NewTimer(time.Duration(rot.RotationTimer) * time.Millisecond)
				rotationTimerC = rotationTimer.C
			}
		}
	}
}

// publishResult republishes one Colorize result's output frames.
func (w *Worker) publishResult(res Result) {
	switch res.Version {
	case V1:
		w.out.Republish(buildV1Frame(res.V1Pixels, res.V1Palette, res.Width, res.Height))
	case V2:
		switch {
		case res.Width32 > 0 && res.Width64 > 0:
			w.out.Republish(buildV2Frame(frame.ColorizedV2_32_64, res.Width32, 32, res.Height32RGB))
			w.out.Republish(buildV2Frame(frame.ColorizedV2_64_32, res.Width64, 64, res.Height64RGB))
		case res.Width32 > 0:
			w.out.Republish(buildV2Frame(frame.ColorizedV2_32, res.Width32, 32, res.Height32RGB))
		case res.Width64 > 0:
			w.out.Republish(buildV2Frame(frame.ColorizedV2_64, res.Width64, 64, res.Height64RGB))
		}
	}
}

// publishRotation republishes a Rotate result, gated by its Render32/
// Render64 flags.
func (w *Worker) publishRotation(rot RotationResult) {
	switch rot.Version {
	case V1:
		w.out.Republish(buildV1PaletteOnlyFrame(rot.V1Palette))
	case V2:
		switch {
		case rot.Render32 && rot.Render64:
			w.out.Republish(buildV2Frame(frame.ColorizedV2_32_64, rot.Width32, 32, rot.Width32RGB))
			w.out.Republish(buildV2Frame(frame.ColorizedV2_64_32, rot.Width64, 64, rot.Width64RGB))
		case rot.Render32:
			w.out.Republish(buildV2Frame(frame.ColorizedV2_32, rot.Width32, 32, rot.Width32RGB))
		case rot.Render64:
			w.out.Republish(buildV2Frame(frame.ColorizedV2_64, rot.Width64, 64, rot.Width64RGB))
		}
	}
}

func buildV1Frame(pixels []byte, palette [frame.PaletteSize]byte, w, h int) frame.Frame {
	var f frame.Frame
	f.Mode = frame.ColorizedV1
	f.Depth = 6
	f.Width = w
	f.Height = h
	f.HasPixels = true
	copy(f.Pixels[:], pixels)
	f.HasSegA = true
	for i := 0; i < len(palette); i += 2 {
		f.SegA[i/2] = uint16(palette[i]) | uint16(palette[i+1])<<8
	}
	return f
}

func buildV1PaletteOnlyFrame(palette [frame.PaletteSize]byte) frame.Frame {
	var f frame.Frame
	f.Mode = frame.ColorizedV1
	f.Depth = 6
	f.HasSegA = true
	for i := 0; i < len(palette); i += 2 {
		f.SegA[i/2] = uint16(palette[i]) | uint16(palette[i+1])<<8
	}
	return f
}

func buildV2Frame(mode frame.Mode, width, height int, rgb565 []uint16) frame.Frame {
	var f frame.Frame
	f.Mode = mode
	f.Depth = 16
	f.Width = width
	f.Height = height
	f.HasSegA = true
	copy(f.SegA[:], rgb565)
	return f
}
