package todo

import "errors"

var (
	// ErrNotFound is returned when a reference matches no task.
	ErrNotFound = errors.New("task not found")

	// ErrAmbiguous is returned when an id prefix matches several tasks.
	ErrAmbiguous = errors.New("ambiguous task reference")

	// ErrUnsupportedVersion is returned for documents written by a newer schema.
	ErrUnsupportedVersion = errors.New("unsupported todo schema version")
)
