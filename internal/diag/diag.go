// Package diag implements the compose pipeline's append-only, positioned
// diagnostic list.
package diag

import (
	"fmt"
	"io"
	"sync"
)

// Severity tags a diagnostic's importance.
type Severity int

const (
	Error Severity = iota
	Warning
	Hint
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Hint:
		return "hint"
	default:
		return "unknown"
	}
}

// Diagnostic is a single positioned, severity-tagged advisory.
type Diagnostic struct {
	Severity Severity
	Message  string
	// Line and Column are zero-indexed and nil when the diagnostic has no
	// associated source position (e.g. a structural error about the whole
	// document).
	Line   *int
	Column *int
}

// List is an ordered, append-only sequence of diagnostics.
//
// Budget models the "allocation failure" half of the original contract: a
// nil Budget means unlimited (the common case); a non-nil Budget caps how
// many diagnostics may be retained, and any Add beyond that cap increments
// DroppedCount instead of storing the message — mirroring "message
// formatting succeeded but list growth failed" without inventing a fake
// allocator in a garbage-collected runtime.
type List struct {
	items    []Diagnostic
	dropped  int
	Budget   *int
	released sync.Once
}

// Add appends a diagnostic at the given severity and optional position. pos
// may be nil for position-less diagnostics.
func (l *List) Add(sev Severity, pos *Position, format string, args ...any) {
	if l.Budget != nil && len(l.items) >= *l.Budget {
		l.dropped++
		return
	}
	d := Diagnostic{Severity: sev, Message: fmt.Sprintf(format, args...)}
	if pos != nil {
		line := pos.Line
		col := pos.Column
		d.Line = &line
		d.Column = &col
	}
	l.items = append(l.items, d)
}

// AddError appends an error-severity diagnostic.
func (l *List) AddError(pos *Position, format string, args ...any) {
	l.Add(Error, pos, format, args...)
}

// AddWarning appends a warning-severity diagnostic.
func (l *List) AddWarning(pos *Position, format string, args ...any) {
	l.Add(Warning, pos, format, args...)
}

// AddHint appends a hint-severity diagnostic.
func (l *List) AddHint(pos *Position, format string, args ...any) {
	l.Add(Hint, pos, format, args...)
}

// HasErrors reports whether any diagnostic has Error severity.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Count returns the number of retained diagnostics.
func (l *List) Count() int {
	return len(l.items)
}

// DroppedCount returns the number of diagnostics that could not be retained.
func (l *List) DroppedCount() int {
	return l.dropped
}

// Items returns the retained diagnostics in insertion order. The returned
// slice must not be mutated.
func (l *List) Items() []Diagnostic {
	return l.items
}

// WriteAll writes one line per diagnostic, in insertion order, in the form
// "filename[:line[:column]]: severity: message\n", with line/column
// displayed one-indexed. I/O errors are propagated.
func (l *List) WriteAll(filename string, w io.Writer) error {
	for _, d := range l.items {
		var err error
		switch {
		case d.Line != nil && d.Column != nil:
			_, err = fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", filename, *d.Line+1, *d.Column+1, d.Severity, d.Message)
		case d.Line != nil:
			_, err = fmt.Fprintf(w, "%s:%d: %s: %s\n", filename, *d.Line+1, d.Severity, d.Message)
		default:
			_, err = fmt.Fprintf(w, "%s: %s: %s\n", filename, d.Severity, d.Message)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Release exists for call-site parity with callers that add diagnostics and
// then explicitly release the list. Go's garbage collector reclaims the
// backing slice once the List is no longer referenced, so Release is an
// idempotent, sync.Once-guarded no-op rather than a manual deallocator.
func (l *List) Release() {
	l.released.Do(func() {})
}

// Position is a zero-indexed source position, displayed one-indexed by
// WriteAll.
type Position struct {
	Line      int
	Column    int
	ByteIndex int
}
