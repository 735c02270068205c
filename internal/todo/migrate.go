package todo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// CurrentVersion is the schema version written by Encode.
//
//	0  bare JSON array of {id, text, completed}
//	1  adds status
//	2  adds createdAt and priority, wrapped in a versioned document
const CurrentVersion = 2

// Document is the persisted form of a collection.
type Document struct {
	Version int        `json:"version" yaml:"version"`
	Todos   Collection `json:"todos" yaml:"todos"`
}

// Decode parses a persisted value. Empty input is an empty collection at the
// current version; a bare array is version 0.
func Decode(raw []byte) (Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Document{Version: CurrentVersion}, nil
	}
	if raw[0] == '[' {
		var todos Collection
		if err := json.Unmarshal(raw, &todos); err != nil {
			return Document{}, fmt.Errorf("decode legacy todos: %w", err)
		}
		return Document{Version: 0, Todos: todos}, nil
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decode todos: %w", err)
	}
	if doc.Version > CurrentVersion {
		return Document{}, fmt.Errorf("%w: %d (newest known is %d)", ErrUnsupportedVersion, doc.Version, CurrentVersion)
	}
	return doc, nil
}

// Encode serializes c as a current-version document.
func Encode(c Collection) ([]byte, error) {
	if c == nil {
		c = Collection{}
	}
	return json.Marshal(Document{Version: CurrentVersion, Todos: c})
}

// Migrator brings decoded documents up to CurrentVersion.
type Migrator struct {
	Now func() time.Time
	IDs IDSource
}

type migrationStep struct {
	from  int
	name  string
	apply func(c Collection, now time.Time) bool
}

// Steps only fill fields that are absent, so running one against data that
// already has the field is harmless.
var migrationSteps = []migrationStep{
	{from: 0, name: "sections", apply: addSections},
	{from: 1, name: "priority", apply: addPriority},
}

// Migrate returns the collection in doc at the current schema, and whether
// anything had to change. All records filled in one run share a single
// createdAt timestamp.
func (m Migrator) Migrate(doc Document) (Collection, bool, error) {
	if doc.Version > CurrentVersion {
		return nil, false, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}
	c := doc.Todos.Clone()
	if c == nil {
		c = Collection{}
	}
	changed := doc.Version != CurrentVersion
	for _, step := range migrationSteps {
		if step.from < doc.Version {
			continue
		}
		if step.apply(c, now) {
			changed = true
		}
	}
	if m.normalize(c, now) {
		changed = true
	}
	return c, changed, nil
}

func addSections(c Collection, _ time.Time) bool {
	changed := false
	for i := range c {
		if c[i].Status == "" {
			c[i].Status = statusFor(c[i].Completed)
			changed = true
		}
	}
	return changed
}

func addPriority(c Collection, now time.Time) bool {
	changed := false
	for i := range c {
		if c[i].CreatedAt.IsZero() {
			c[i].CreatedAt = now
			changed = true
		}
		if c[i].Priority == "" {
			c[i].Priority = DefaultPriority
			changed = true
		}
	}
	return changed
}

// normalize repairs records that claim the current version but break its
// rules: unknown enum values, a status that disagrees with completed, a
// missing createdAt, and missing or duplicate ids. completed wins over status
// since it is the older field.
func (m Migrator) normalize(c Collection, now time.Time) bool {
	ids := m.IDs
	if ids == nil {
		ids = UUIDSource{}
	}
	changed := false
	taken := make(map[string]struct{}, len(c))
	for _, t := range c {
		taken[t.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(c))
	for i := range c {
		t := &c[i]
		if !t.Status.IsValid() || !t.Consistent() {
			t.Status = statusFor(t.Completed)
			changed = true
		}
		if !t.Priority.IsValid() {
			t.Priority = DefaultPriority
			changed = true
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
			changed = true
		}
		if _, dup := seen[t.ID]; dup || t.ID == "" {
			t.ID = uniqueIDFrom(ids, taken)
			taken[t.ID] = struct{}{}
			changed = true
		}
		seen[t.ID] = struct{}{}
	}
	return changed
}
