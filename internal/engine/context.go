package engine

import "sync"

// ctxState holds the producer-writable context strings read by several
// workers (colorization, network sink, dump rotation): current ROM name,
// colorization asset path, and pattern-capture video path. Guarded by its
// own RWMutex rather than the ring's, since none of these three fields
// need to be read in the same critical section as a ring slot copy.
type ctxState struct {
	mu               sync.RWMutex
	romName          string
	altColorPath     string
	patternVideoPath string
}

func (c *ctxState) ROMName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.romName
}

func (c *ctxState) AltColorPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.altColorPath
}

func (c *ctxState) PatternVideoPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.patternVideoPath
}

// setROMName truncates to maxLen bytes and reports whether the value
// changed. Callers pass the wire field's capacity minus one, reserving
// room for the wire protocol's null terminator.
func (c *ctxState) setROMName(name string, maxLen int) bool {
	name = truncate(name, maxLen)
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := name != c.romName
	c.romName = name
	return changed
}

func (c *ctxState) setAltColorPath(path string, maxLen int) {
	path = truncate(path, maxLen)
	c.mu.Lock()
	c.altColorPath = path
	c.mu.Unlock()
}

func (c *ctxState) setPatternVideoPath(path string, maxLen int) {
	path = truncate(path, maxLen)
	c.mu.Lock()
	c.patternVideoPath = path
	c.mu.Unlock()
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
