package todo

import (
	"fmt"

	"github.com/google/uuid"
)

// IDSource hands out task identifiers.
type IDSource interface {
	NewID() string
}

// IDFunc adapts a function to IDSource.
type IDFunc func() string

// NewID calls f.
func (f IDFunc) NewID() string { return f() }

// UUIDSource generates time-ordered UUIDv7 identifiers. Two calls within the
// same millisecond still differ because v7 carries a sequence and random bits.
type UUIDSource struct{}

// NewID returns a fresh UUIDv7 string, falling back to a random v4.
func (UUIDSource) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

const maxIDDraws = 16

// uniqueID draws from src until it gets an id not present in c. A source
// that keeps colliding gets a numeric suffix.
func uniqueID(src IDSource, c Collection) string {
	taken := make(map[string]struct{}, len(c))
	for _, t := range c {
		taken[t.ID] = struct{}{}
	}
	return uniqueIDFrom(src, taken)
}

func uniqueIDFrom(src IDSource, taken map[string]struct{}) string {
	var id string
	for range maxIDDraws {
		id = src.NewID()
		if _, ok := taken[id]; !ok && id != "" {
			return id
		}
	}
	base := id
	if base == "" {
		base = "task"
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
