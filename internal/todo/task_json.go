package todo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// UnmarshalJSON accepts createdAt either as an RFC 3339 string or as Unix
// milliseconds, which is how browser-side copies of the list stored it.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var raw struct {
		plain
		CreatedAt json.RawMessage `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Task(raw.plain)
	created, err := parseTimestamp(raw.CreatedAt)
	if err != nil {
		return fmt.Errorf("task %q: createdAt: %w", t.ID, err)
	}
	t.CreatedAt = created
	return nil
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		if s == "" {
			return time.Time{}, nil
		}
		return time.Parse(time.RFC3339Nano, s)
	}
	var ms json.Number
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, err
	}
	n, err := ms.Float64()
	if err != nil {
		return time.Time{}, err
	}
	if n == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(int64(n)), nil
}
