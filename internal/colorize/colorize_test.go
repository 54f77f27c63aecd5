package colorize

import (
	"sync"
	"testing"
	"time"

	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/ring"
	"github.com/pinlab/dmdengine/internal/trigger"
)

type fakeCtx struct {
	mu      sync.Mutex
	romName string
}

func (c *fakeCtx) setROM(name string) {
	c.mu.Lock()
	c.romName = name
	c.mu.Unlock()
}
func (c *fakeCtx) ROMName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.romName
}
func (c *fakeCtx) AltColorPath() string { return "/alt" }
func (c *fakeCtx) FramesTimeout() int   { return 0 }
func (c *fakeCtx) FramesToSkip() int    { return 0 }

type fakeRepublisher struct {
	mu  sync.Mutex
	out []frame.Frame
}

func (r *fakeRepublisher) Republish(f frame.Frame) {
	r.mu.Lock()
	r.out = append(r.out, f)
	r.mu.Unlock()
}

func (r *fakeRepublisher) take(t *testing.T, n int) []frame.Frame {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		have := len(r.out)
		r.mu.Unlock()
		if have >= n {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]frame.Frame, len(r.out))
	copy(out, r.out)
	return out
}

type fakeColorizer struct {
	mu       sync.Mutex
	result   Result
	rotation RotationResult
	closed   bool
}

func (c *fakeColorizer) Colorize(pixels []byte, width, height, depth int, r, g, b byte) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, nil
}
func (c *fakeColorizer) Rotate() (RotationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotation, nil
}
func (c *fakeColorizer) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}
func (c *fakeColorizer) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func dataFrame(w, h int) frame.Frame {
	var f frame.Frame
	f.Mode = frame.Data
	f.Depth = 4
	f.Width, f.Height = w, h
	f.HasPixels = true
	return f
}

func TestWorker_PublishResultBothWidthsEmitsOnlyDualTags(t *testing.T) {
	out := &fakeRepublisher{}
	w := &Worker{out: out}

	w.publishResult(Result{
		Version:     V2,
		Width32:     128,
		Height32RGB: make([]uint16, 128*32),
		Width64:     256,
		Height64RGB: make([]uint16, 256*64),
	})

	got := out.take(t, 2)
	if len(got) != 2 {
		t.Fatalf("got %d republished frames, want 2", len(got))
	}
	if got[0].Mode != frame.ColorizedV2_32_64 {
		t.Errorf("frame[0].Mode = %s, want ColorizedV2_32_64", got[0].Mode)
	}
	if got[1].Mode != frame.ColorizedV2_64_32 {
		t.Errorf("frame[1].Mode = %s, want ColorizedV2_64_32", got[1].Mode)
	}
}

func TestWorker_PublishRotationBothWidthsEmitsOnlyDualTags(t *testing.T) {
	out := &fakeRepublisher{}
	w := &Worker{out: out}

	w.publishRotation(RotationResult{
		Version:    V2,
		Render32:   true,
		Width32:    128,
		Width32RGB: make([]uint16, 128*32),
		Render64:   true,
		Width64:    256,
		Width64RGB: make([]uint16, 256*64),
	})

	got := out.take(t, 2)
	if len(got) != 2 {
		t.Fatalf("got %d republished frames, want 2", len(got))
	}
	if got[0].Mode != frame.ColorizedV2_32_64 {
		t.Errorf("frame[0].Mode = %s, want ColorizedV2_32_64", got[0].Mode)
	}
	if got[1].Mode != frame.ColorizedV2_64_32 {
		t.Errorf("frame[1].Mode = %s, want ColorizedV2_64_32", got[1].Mode)
	}
}

func TestWorker_ColorizesAndRepublishesV1(t *testing.T) {
	r := ring.New(ring.DefaultOptions())
	consumer := r.NewConsumer(true)

	session := &fakeColorizer{result: Result{Colorized: true, Version: V1, Width: 4, Height: 4}}
	loader := LoaderFunc(func(altColorPath, romName string, framesTimeout, framesToSkip int) (Colorizer, error) {
		return session, nil
	})
	ctx := &fakeCtx{romName: "mm"}
	out := &fakeRepublisher{}

	w := NewWorker(consumer, out, ctx, loader, trigger.Callback(nil))
	w.Start()
	defer w.Shutdown()

	r.Publish(dataFrame(4, 4), false)

	got := out.take(t, 1)
	if len(got) != 1 {
		t.Fatalf("got %d republished frames, want 1", len(got))
	}
	if got[0].Mode != frame.ColorizedV1 {
		t.Fatalf("republished mode = %s, want ColorizedV1", got[0].Mode)
	}
}

func TestWorker_SkipsWhenNotColorized(t *testing.T) {
	r := ring.New(ring.DefaultOptions())
	consumer := r.NewConsumer(true)

	session := &fakeColorizer{result: Result{Colorized: false}}
	loader := LoaderFunc(func(altColorPath, romName string, framesTimeout, framesToSkip int) (Colorizer, error) {
		return session, nil
	})
	ctx := &fakeCtx{romName: "mm"}
	out := &fakeRepublisher{}

	w := NewWorker(consumer, out, ctx, loader, nil)
	w.Start()
	defer w.Shutdown()

	r.Publish(dataFrame(4, 4), false)
	time.Sleep(100 * time.Millisecond)

	if got := out.take(t, 0); len(got) != 0 {
		t.Fatalf("got %d republished frames, want 0", len(got))
	}
}

func TestWorker_ROMChangeClosesPreviousSession(t *testing.T) {
	r := ring.New(ring.DefaultOptions())
	consumer := r.NewConsumer(true)

	first := &fakeColorizer{result: Result{Colorized: false}}
	second := &fakeColorizer{result: Result{Colorized: false}}
	calls := 0
	var mu sync.Mutex
	loader := LoaderFunc(func(altColorPath, romName string, framesTimeout, framesToSkip int) (Colorizer, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return first, nil
		}
		return second, nil
	})
	ctx := &fakeCtx{romName: "mm"}
	out := &fakeRepublisher{}

	w := NewWorker(consumer, out, ctx, loader, nil)
	w.Start()
	defer w.Shutdown()

	r.Publish(dataFrame(4, 4), false)
	time.Sleep(100 * time.Millisecond)

	ctx.setROM("tz")
	r.Publish(dataFrame(4, 4), false)
	time.Sleep(100 * time.Millisecond)

	if !first.isClosed() {
		t.Fatal("previous session was not closed on ROM change")
	}
}

func TestWorker_DispatchesTriggerID(t *testing.T) {
	r := ring.New(ring.DefaultOptions())
	consumer := r.NewConsumer(true)

	session := &fakeColorizer{result: Result{Colorized: true, Version: V1, TriggerID: 9}}
	loader := LoaderFunc(func(altColorPath, romName string, framesTimeout, framesToSkip int) (Colorizer, error) {
		return session, nil
	})
	ctx := &fakeCtx{romName: "mm"}
	out := &fakeRepublisher{}

	var gotID uint32
	done := make(chan struct{})
	onTrigger := func(id uint32) {
		gotID = id
		close(done)
	}

	w := NewWorker(consumer, out, ctx, loader, onTrigger)
	w.Start()
	defer w.Shutdown()

	r.Publish(dataFrame(4, 4), false)

	select {
	case <-done:
		if gotID != 9 {
			t.Fatalf("trigger id = %d, want 9", gotID)
		}
	case <-time.After(time.Second):
		t.Fatal("trigger callback was not invoked")
	}
}
