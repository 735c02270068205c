package todo

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolve finds a task by 1-based position in display, exact id, or unique
// id prefix, in that order.
func Resolve(display []Task, ref string) (Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Task{}, ErrNotFound
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(display) {
		return display[n-1], nil
	}
	var matches []Task
	for _, t := range display {
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return Task{}, fmt.Errorf("%w: %s matches %d tasks", ErrAmbiguous, ref, len(matches))
	}
}
