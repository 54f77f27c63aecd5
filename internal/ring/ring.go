// Package ring implements the fixed-size circular frame buffer shared by
// the producer and every consumer worker.
//
// Design:
//   - Pre-allocated slot array: no per-frame allocation on the hot path.
//   - A single monotonically increasing write sequence, shared by all
//     consumers; the slot index is the sequence modulo the ring size.
//   - A sync.RWMutex + sync.Cond pair: writers (the producer
//     and the colorization republisher) take the lock exclusively just
//     long enough to copy a Frame in and advance the sequence; readers
//     take it for the shared portion of their wait, then copy data out
//     without the lock held.
//   - Each consumer owns a private read sequence and a "snap-forward"
//     policy: a consumer that falls more than MaxLag slots behind is
//     advanced to MinLag behind the writer, trading completeness for
//     bounded lag. Consumers opting out of this (the dump sinks) see
//     every frame instead.
package ring

import (
	"sync"

	"github.com/pinlab/dmdengine/internal/frame"
)

// Default tuning values.
const (
	DefaultSize   = 32
	DefaultMaxLag = 8
	DefaultMinLag = 2
)

// Options configures a Ring.
type Options struct {
	// Size is the number of slots in the ring. Reference value 16 or 32,
	// chosen so worst-case consumer lag cannot wrap past the producer
	// within one scheduler tick.
	Size uint64
	// MaxLag is how far behind the writer a consumer may fall before
	// being snapped forward.
	MaxLag uint64
	// MinLag is how close to the writer a snapped-forward consumer lands.
	MinLag uint64
}

// DefaultOptions returns the reference tuning.
func DefaultOptions() Options {
	return Options{Size: DefaultSize, MaxLag: DefaultMaxLag, MinLag: DefaultMinLag}
}

// Ring is the fixed-size frame ring buffer.
type Ring struct {
	mu   sync.RWMutex
	cond *sync.Cond

	slots []frame.Frame
	size  uint64

	// writeSeq is the sequence number of the most recently published
	// frame. Slot index for sequence s is s % size. Sequence 0 means
	// "nothing published yet".
	writeSeq uint64

	stopped bool

	maxLag uint64
	minLag uint64

	hasLastBuffered bool
	lastBuffered    frame.Frame
}

// New creates a Ring with the given options, filling in defaults for any
// zero fields.
func New(opts Options) *Ring {
	if opts.Size == 0 {
		opts.Size = DefaultSize
	}
	if opts.MaxLag == 0 {
		opts.MaxLag = DefaultMaxLag
	}
	if opts.MinLag == 0 {
		opts.MinLag = DefaultMinLag
	}
	r := &Ring{
		slots:  make([]frame.Frame, opts.Size),
		size:   opts.Size,
		maxLag: opts.MaxLag,
		minLag: opts.MinLag,
	}
	r.cond = sync.NewCond(r.mu.RLocker())
	return r
}

// Publish writes f into the next slot and wakes every waiting consumer.
// If buffered is true, a copy is also retained for QueueLastBuffered.
func (r *Ring) Publish(f frame.Frame, buffered bool) {
	r.mu.Lock()
	r.writeSeq++
	r.slots[r.writeSeq%r.size] = f
	if buffered {
		r.lastBuffered = f
		r.hasLastBuffered = true
	}
	r.mu.Unlock()
	r.cond.Broadcast()
}

// LastBuffered returns the most recently buffered frame, if any.
func (r *Ring) LastBuffered() (frame.Frame, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastBuffered, r.hasLastBuffered
}

// WriteSeq returns the current write sequence (for tests and stats).
func (r *Ring) WriteSeq() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.writeSeq
}

// Size returns the number of slots in the ring.
func (r *Ring) Size() uint64 { return r.size }

// Stop marks the ring stopped and wakes every waiting consumer; they will
// observe Next returning ok=false once they have drained any remaining
// published frames.
func (r *Ring) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.cond.Broadcast()
}

// Consumer is a single reader's view of the ring: a private read
// sequence and a snap-forward policy.
type Consumer struct {
	r    *Ring
	seq  uint64
	noSnap bool
}

// NewConsumer registers a new consumer starting from the current write
// position. When noSnap is true (the dump sinks), the consumer never
// skips frames regardless of lag.
func (r *Ring) NewConsumer(noSnap bool) *Consumer {
	r.mu.RLock()
	seq := r.writeSeq
	r.mu.RUnlock()
	return &Consumer{r: r, seq: seq, noSnap: noSnap}
}

// Next blocks until a new frame is available or the ring is stopped,
// applying the snap-forward policy. ok is false only when the ring is
// stopped and this consumer has no more frames to drain.
func (c *Consumer) Next() (f frame.Frame, ok bool) {
	r := c.r
	r.mu.RLock()
	for c.seq >= r.writeSeq && !r.stopped {
		r.cond.Wait()
	}
	if c.seq >= r.writeSeq && r.stopped {
		r.mu.RUnlock()
		return frame.Frame{}, false
	}

	c.seq++
	if !c.noSnap {
		// Unsigned forward distance from c.seq to writeSeq.
		if r.writeSeq-c.seq > r.maxLag {
			c.seq = r.writeSeq - r.minLag
		}
	}
	idx := c.seq % r.size
	r.mu.RUnlock()

	// Bounded lag guarantees the producer cannot wrap onto this slot
	// before the copy below completes, so the copy itself runs unlocked.
	f = r.slots[idx]
	return f, true
}

// Lag returns how many frames behind the writer this consumer currently
// is (writeSeq - readSeq), used by tests to assert the snap-forward
// bound invariant.
func (c *Consumer) Lag() uint64 {
	r := c.r
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.writeSeq - c.seq
}
