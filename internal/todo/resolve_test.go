package todo

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	display := []Task{
		{ID: "0190a1b2-aaaa"},
		{ID: "0190a1b2-bbbb"},
		{ID: "0190c3d4-cccc"},
	}
	tests := []struct {
		ref     string
		want    string
		wantErr error
	}{
		{"1", "0190a1b2-aaaa", nil},
		{"3", "0190c3d4-cccc", nil},
		{"0190a1b2-bbbb", "0190a1b2-bbbb", nil},
		{"0190c3", "0190c3d4-cccc", nil},
		{"0190a1", "", ErrAmbiguous},
		{"4", "", ErrNotFound},
		{"nope", "", ErrNotFound},
		{"  ", "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := Resolve(display, tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve(%q) error = %v, want %v", tt.ref, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.ref, err)
			}
			if got.ID != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got.ID, tt.want)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
		ok   bool
	}{
		{"high", PriorityHigh, true},
		{"H", PriorityHigh, true},
		{" medium ", PriorityMedium, true},
		{"med", PriorityMedium, true},
		{"low", PriorityLow, true},
		{"urgent", "", false},
	}
	for _, tt := range tests {
		got, ok := ParsePriority(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePriority(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPriority_RaiseLower(t *testing.T) {
	if got := PriorityLow.Raise(); got != PriorityMedium {
		t.Errorf("low.Raise() = %q", got)
	}
	if got := PriorityHigh.Raise(); got != PriorityHigh {
		t.Errorf("high.Raise() = %q", got)
	}
	if got := PriorityHigh.Lower(); got != PriorityMedium {
		t.Errorf("high.Lower() = %q", got)
	}
	if got := PriorityLow.Lower(); got != PriorityLow {
		t.Errorf("low.Lower() = %q", got)
	}
}
