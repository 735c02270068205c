// Package todo holds the task list model and the pure functions that fold
// user intents into it.
//
// A Collection is an ordered slice of Task values. Nothing in this package
// mutates a Collection it was handed: Engine.Apply returns a new one, and the
// view helpers return copies. Persistence and rendering live elsewhere.
package todo

import (
	"strings"
	"time"
)

// Status names the section that owns a task.
type Status string

const (
	// StatusAll is the section for outstanding tasks.
	StatusAll Status = "all"

	// StatusDone is the section for completed tasks.
	StatusDone Status = "done"
)

// IsValid reports whether s is a known section.
func (s Status) IsValid() bool {
	return s == StatusAll || s == StatusDone
}

// Title is the heading used when rendering the section.
func (s Status) Title() string {
	switch s {
	case StatusDone:
		return "Done"
	default:
		return "All"
	}
}

// Other returns the opposite section.
func (s Status) Other() Status {
	if s == StatusDone {
		return StatusAll
	}
	return StatusDone
}

func statusFor(completed bool) Status {
	if completed {
		return StatusDone
	}
	return StatusAll
}

// Priority is the importance tag of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"

	// DefaultPriority is applied to new and migrated tasks.
	DefaultPriority = PriorityLow
)

// ValidPriorities lists priorities from most to least important.
func ValidPriorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	return p.Rank() != 0
}

// Rank returns the sort rank: high=1, medium=2, low=3, unknown=0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 0
	}
}

// Raise returns the next more important priority, stopping at high.
func (p Priority) Raise() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium, PriorityHigh:
		return PriorityHigh
	default:
		return DefaultPriority
	}
}

// Lower returns the next less important priority, stopping at low.
func (p Priority) Lower() Priority {
	switch p {
	case PriorityHigh:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ParsePriority accepts a priority name or its first letter.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "h", "1":
		return PriorityHigh, true
	case "medium", "med", "m", "2":
		return PriorityMedium, true
	case "low", "l", "3":
		return PriorityLow, true
	default:
		return "", false
	}
}

// Task is one to-do record.
//
// When Status is set, Completed is true exactly when Status is StatusDone.
// Use setCompleted or setStatus to change either field.
type Task struct {
	ID        string    `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	Completed bool      `json:"completed" yaml:"completed"`
	Status    Status    `json:"status,omitempty" yaml:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero" yaml:"createdAt,omitempty"`
	Priority  Priority  `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Equal compares tasks field by field. Timestamps compare as instants.
func (t Task) Equal(o Task) bool {
	return t.ID == o.ID &&
		t.Text == o.Text &&
		t.Completed == o.Completed &&
		t.Status == o.Status &&
		t.Priority == o.Priority &&
		t.CreatedAt.Equal(o.CreatedAt)
}

// Consistent reports whether the status/completed coupling holds.
func (t Task) Consistent() bool {
	if t.Status == "" {
		return true
	}
	return t.Completed == (t.Status == StatusDone)
}

func (t *Task) setCompleted(done bool) {
	t.Completed = done
	if t.Status != "" {
		t.Status = statusFor(done)
	}
}

func (t *Task) setStatus(s Status) {
	t.Status = s
	t.Completed = s == StatusDone
}

// Collection is the ordered task list, the persisted unit of state.
type Collection []Task

// Clone returns a copy that shares no backing array with c.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// Index returns the position of the task with id, or -1.
func (c Collection) Index(id string) int {
	if id == "" {
		return -1
	}
	for i, t := range c {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the task with id.
func (c Collection) Find(id string) (Task, bool) {
	if i := c.Index(id); i >= 0 {
		return c[i], true
	}
	return Task{}, false
}

// Equal compares collections by content and order.
func (c Collection) Equal(o Collection) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if !c[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// IncompleteCount returns the number of tasks not yet completed.
func (c Collection) IncompleteCount() int {
	n := 0
	for _, t := range c {
		if !t.Completed {
			n++
		}
	}
	return n
}

// CompletedCount returns the number of completed tasks.
func (c Collection) CompletedCount() int {
	return len(c) - c.IncompleteCount()
}

// Mode selects how the collection is arranged for display.
type Mode string

const (
	// ModeSectioned splits tasks into All and Done, each in manual order.
	ModeSectioned Mode = "sectioned"

	// ModePriority keeps one list resorted by completion, priority and age
	// after every mutation.
	ModePriority Mode = "priority"

	// ModeList keeps one list in manual order.
	ModeList Mode = "list"
)

// ValidModes returns all modes.
func ValidModes() []Mode {
	return []Mode{ModeSectioned, ModePriority, ModeList}
}

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	for _, v := range ValidModes() {
		if m == v {
			return true
		}
	}
	return false
}

// HasSections reports whether tasks are partitioned by status.
func (m Mode) HasSections() bool {
	return m == ModeSectioned
}
