// Package level implements the in-process "level" buffer sink: Data-mode
// frames only, fanned out to registered in-process consumers keyed by the
// consumer's expected pixel-buffer length (one geometry per registration).
package level

import (
	"sync"

	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/ring"
)

// Sink distributes Data-mode pixel buffers to in-process subscribers.
//
// Grounded on marketdata.Publisher's subscriber-map-plus-non-blocking-send
// shape, generalized from a symbol key to a pixel-buffer-length key: each
// registered consumer only receives updates whose buffer length matches
// its own width*height.
type Sink struct {
	mu         sync.RWMutex
	subs       map[int][]chan []byte
	bufferSize int

	lastLen int
	last    []byte
}

// New creates a level Sink. bufferSize sizes each subscriber channel.
func New(bufferSize int) *Sink {
	if bufferSize <= 0 {
		bufferSize = 4
	}
	return &Sink{subs: make(map[int][]chan []byte), bufferSize: bufferSize}
}

// Subscribe registers a consumer expecting pixel buffers of exactly
// length bytes (width*height for its geometry).
func (s *Sink) Subscribe(length int) <-chan []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan []byte, s.bufferSize)
	s.subs[length] = append(s.subs[length], ch)
	return ch
}

// Unsubscribe removes a previously registered channel.
func (s *Sink) Unsubscribe(length int, ch <-chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.subs[length]
	for i, c := range list {
		if c == ch {
			s.subs[length] = append(list[:i], list[i+1:]...)
			close(c)
			return
		}
	}
}

// Close closes every subscriber channel.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.subs {
		for _, ch := range list {
			close(ch)
		}
	}
}

// Run is the sink worker loop: consumes c until the ring stops, publishing
// deduplicated Data frames to matching subscribers.
func (s *Sink) Run(c *ring.Consumer) {
	for {
		f, ok := c.Next()
		if !ok {
			return
		}
		if f.Mode != frame.Data || !f.HasPixels {
			continue
		}
		n := f.PixelLen()
		pixels := f.Pixels[:n]
		if s.lastLen == n && bytesEqual(s.last, pixels) {
			continue
		}
		buf := make([]byte, n)
		copy(buf, pixels)
		if cap(s.last) < n {
			s.last = make([]byte, n)
		}
		s.last = s.last[:n]
		copy(s.last, pixels)
		s.lastLen = n

		s.publish(n, buf)
	}
}

func (s *Sink) publish(n int, buf []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs[n] {
		select {
		case ch <- buf:
		default:
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
