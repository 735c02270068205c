package todo

import "strings"

// Intent is one user action folded into a Collection by Engine.Apply.
// Implementations work on a private copy and may modify it in place.
type Intent interface {
	apply(e Engine, c Collection) Collection
}

// Add creates a task from Text. Blank text is ignored.
type Add struct {
	Text string
}

func (in Add) apply(e Engine, c Collection) Collection {
	if strings.TrimSpace(in.Text) == "" {
		return c
	}
	text, priority, ok := ExtractPriority(in.Text)
	if text == "" {
		return c
	}
	if !ok {
		priority = DefaultPriority
	}
	t := Task{
		ID:        uniqueID(e.ids(), c),
		Text:      text,
		Completed: false,
		Status:    StatusAll,
		CreatedAt: e.now(),
		Priority:  priority,
	}
	return append(c, t)
}

// Toggle flips the completion of the task with ID.
type Toggle struct {
	ID string
}

func (in Toggle) apply(_ Engine, c Collection) Collection {
	i := c.Index(in.ID)
	if i < 0 {
		return c
	}
	c[i].setCompleted(!c[i].Completed)
	return c
}

// Delete removes the task with ID.
type Delete struct {
	ID string
}

func (in Delete) apply(_ Engine, c Collection) Collection {
	i := c.Index(in.ID)
	if i < 0 {
		return c
	}
	return append(c[:i], c[i+1:]...)
}

// Edit replaces the text of the task with ID. Blank text is ignored.
type Edit struct {
	ID   string
	Text string
}

func (in Edit) apply(_ Engine, c Collection) Collection {
	text := strings.TrimSpace(in.Text)
	i := c.Index(in.ID)
	if i < 0 || text == "" {
		return c
	}
	c[i].Text = text
	return c
}

// ChangePriority sets the priority of the task with ID.
type ChangePriority struct {
	ID       string
	Priority Priority
}

func (in ChangePriority) apply(_ Engine, c Collection) Collection {
	i := c.Index(in.ID)
	if i < 0 || !in.Priority.IsValid() {
		return c
	}
	c[i].Priority = in.Priority
	return c
}

// MoveToSection moves the task with ID into Status. Only sectioned mode has
// sections; elsewhere it does nothing.
type MoveToSection struct {
	ID     string
	Status Status
}

func (in MoveToSection) apply(e Engine, c Collection) Collection {
	if !e.Mode.HasSections() || !in.Status.IsValid() {
		return c
	}
	i := c.Index(in.ID)
	if i < 0 || c[i].Status == in.Status {
		return c
	}
	c[i].setStatus(in.Status)
	return c
}

// Reorder is a drop of task ID onto another task (TargetID) or onto a bare
// section (TargetStatus, used when TargetID is empty).
//
// Dropping onto a task of the same section moves ID to the target's position
// within that section. Dropping onto a task of another section, or onto a
// section, moves ID into that section.
type Reorder struct {
	ID           string
	TargetID     string
	TargetStatus Status
}

func (in Reorder) apply(e Engine, c Collection) Collection {
	i := c.Index(in.ID)
	if i < 0 || e.Mode == ModePriority {
		return c
	}
	if in.TargetID == "" {
		return MoveToSection{ID: in.ID, Status: in.TargetStatus}.apply(e, c)
	}
	j := c.Index(in.TargetID)
	if j < 0 || i == j {
		return c
	}
	if e.Mode.HasSections() && c[i].Status != c[j].Status {
		return MoveToSection{ID: in.ID, Status: c[j].Status}.apply(e, c)
	}
	return moveWithinSection(e.Mode, c, i, j)
}

// moveWithinSection list-moves c[from] to the position of c[to] inside the
// sub-sequence of tasks sharing their section. Slots held by other sections
// keep their tasks.
func moveWithinSection(mode Mode, c Collection, from, to int) Collection {
	slots := make([]int, 0, len(c))
	oldPos, newPos := -1, -1
	for k, t := range c {
		if mode.HasSections() && t.Status != c[from].Status {
			continue
		}
		if k == from {
			oldPos = len(slots)
		}
		if k == to {
			newPos = len(slots)
		}
		slots = append(slots, k)
	}
	if oldPos < 0 || newPos < 0 || oldPos == newPos {
		return c
	}
	section := make([]Task, len(slots))
	for n, k := range slots {
		section[n] = c[k]
	}
	section = arrayMove(section, oldPos, newPos)
	for n, k := range slots {
		c[k] = section[n]
	}
	return c
}

func arrayMove(s []Task, from, to int) []Task {
	moved := s[from]
	s = append(s[:from], s[from+1:]...)
	s = append(s[:to], append([]Task{moved}, s[to:]...)...)
	return s
}

// ClearAll removes every task.
type ClearAll struct{}

func (ClearAll) apply(_ Engine, c Collection) Collection {
	return c[:0]
}
