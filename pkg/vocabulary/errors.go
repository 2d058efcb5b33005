package vocabulary

import "fmt"

// LoadError reports a malformed or inconsistent vocabulary source. Loading is
// all-or-nothing: the process must not come up with a partial vocabulary.
type LoadError struct {
	Line   int // 0 when not tied to a specific row
	Reason string
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("vocabulary load failed at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("vocabulary load failed: %s", e.Reason)
}

func loadErrorf(line int, format string, args ...any) *LoadError {
	return &LoadError{Line: line, Reason: fmt.Sprintf(format, args...)}
}
