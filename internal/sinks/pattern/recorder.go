package pattern

import "github.com/pinlab/dmdengine/internal/frame"

// NoneMatcher is a dependency-free reference Matcher that never matches,
// used by tests and the demo CLI in place of the out-of-scope "pup"
// library.
type NoneMatcher struct{}

// Match implements Matcher.
func (NoneMatcher) Match(*frame.Frame) (uint32, bool) { return 0, false }
