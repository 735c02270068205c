package todo

import (
	"fmt"
	"time"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// stepClock advances one second on every read.
type stepClock struct {
	t time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: epoch}
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func seqIDs() IDSource {
	n := 0
	return IDFunc(func() string {
		n++
		return fmt.Sprintf("t%d", n)
	})
}

func testEngine(mode Mode) Engine {
	return Engine{Mode: mode, Now: newStepClock().Now, IDs: seqIDs()}
}

func task(id string, status Status) Task {
	return Task{
		ID:        id,
		Text:      "task " + id,
		Completed: status == StatusDone,
		Status:    status,
		CreatedAt: epoch,
		Priority:  PriorityLow,
	}
}

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
