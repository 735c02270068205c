package todo

import "time"

// Engine folds intents into collections. The zero value works in list mode
// with the wall clock and UUIDv7 ids.
type Engine struct {
	Mode Mode
	Now  func() time.Time
	IDs  IDSource
}

// NewEngine returns an engine for mode using the wall clock and UUIDv7 ids.
func NewEngine(mode Mode) Engine {
	return Engine{Mode: mode, Now: time.Now, IDs: UUIDSource{}}
}

// Apply returns the collection that results from in, and whether it differs
// from c. c itself is never modified. In priority mode the result is always
// resorted, so the stored order and the displayed order are the same.
func (e Engine) Apply(c Collection, in Intent) (Collection, bool) {
	if in == nil {
		return c, false
	}
	next := in.apply(e, c.Clone())
	if e.Mode == ModePriority {
		next = SortByPriority(next)
	}
	if next.Equal(c) {
		return c, false
	}
	return next, true
}

func (e Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e Engine) ids() IDSource {
	if e.IDs == nil {
		return UUIDSource{}
	}
	return e.IDs
}
