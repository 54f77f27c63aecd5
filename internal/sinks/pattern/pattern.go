// Package pattern defines the pattern-trigger matcher seam (the "pup"
// video-matching library is out of scope) and the sink worker that feeds
// it frames and forwards matches to the trigger dispatcher.
package pattern

import (
	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/ring"
	"github.com/pinlab/dmdengine/internal/trigger"
)

// Matcher is the external collaborator that recognizes a frame against a
// captured pattern library and reports a trigger id on match.
type Matcher interface {
	Match(f *frame.Frame) (id uint32, ok bool)
}

// MatcherFunc adapts a plain function to a Matcher.
type MatcherFunc func(f *frame.Frame) (uint32, bool)

// Match implements Matcher.
func (m MatcherFunc) Match(f *frame.Frame) (uint32, bool) { return m(f) }

// Worker is the pattern-trigger matcher sink. Same cursor policy as the
// pixel-display sinks (snap-forward applies): a missed frame only costs a
// missed pattern match, never a correctness violation.
type Worker struct {
	matcher  Matcher
	dispatch *trigger.Dispatcher
}

// NewWorker creates a pattern-matcher sink worker.
func NewWorker(matcher Matcher, onTrigger trigger.Callback) *Worker {
	return &Worker{matcher: matcher, dispatch: trigger.New(onTrigger)}
}

// Run is the sink worker loop.
func (w *Worker) Run(c *ring.Consumer) {
	for {
		f, ok := c.Next()
		if !ok {
			return
		}
		if f.Mode != frame.Data && f.Mode != frame.RGB24 {
			continue
		}
		if id, matched := w.matcher.Match(&f); matched {
			w.dispatch.Handle(id)
		}
	}
}
