package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todopop/internal/todo"
)

func names(cmds []Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Name
	}
	return out
}

func TestLookupByNameAndAlias(t *testing.T) {
	cmds := Registry()

	c, ok := Lookup(cmds, "clear")
	require.True(t, ok)
	assert.Equal(t, ActionClear, c.Kind)

	c, ok = Lookup(cmds, " Export ")
	require.True(t, ok)
	assert.Equal(t, "markdown", c.Name)

	_, ok = Lookup(cmds, "nope")
	assert.False(t, ok)
}

func TestFilter(t *testing.T) {
	cmds := Registry()

	assert.Equal(t, []string{"clear", "markdown"}, names(Filter(cmds, "")))
	assert.Equal(t, []string{"clear"}, names(Filter(cmds, "cl")))
	assert.Equal(t, []string{"markdown"}, names(Filter(cmds, "mkd")))
	assert.Equal(t, []string{"markdown"}, names(Filter(cmds, "exp")))
	assert.Empty(t, Filter(cmds, "zzz"))
}

func TestTriggerTogglesCommandMode(t *testing.T) {
	in := New("")
	assert.Equal(t, DefaultTrigger, in.Trigger())
	assert.Equal(t, StateNormal, in.State())

	assert.Equal(t, "", in.Input("/"))
	assert.True(t, in.InCommandMode())

	assert.Equal(t, "", in.Input("/"))
	assert.False(t, in.InCommandMode())

	// The trigger only counts in an empty input.
	assert.Equal(t, "a/b", in.Input("a/b"))
	assert.False(t, in.InCommandMode())
}

func TestCustomTrigger(t *testing.T) {
	in := New(":")
	in.Input("/")
	assert.False(t, in.InCommandMode())
	in.Input(":")
	assert.True(t, in.InCommandMode())
}

func TestSubmitNormalMode(t *testing.T) {
	in := New("/")

	act, err := in.Submit("buy milk")
	require.NoError(t, err)
	assert.Equal(t, Action{Kind: ActionAdd, Text: "buy milk"}, act)

	act, err = in.Submit("   ")
	require.NoError(t, err)
	assert.Equal(t, ActionNone, act.Kind)
}

func TestSubmitCommands(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
		name  string
	}{
		{"clear", ActionClear, "clear"},
		{"markdown", ActionExport, "markdown"},
		{"export", ActionExport, "markdown"},
		{"mark", ActionExport, "markdown"},
		{"cle", ActionClear, "clear"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			in := New("/")
			in.Enter()
			in.Input(tt.input)

			act, err := in.Submit(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, act.Kind)
			assert.Equal(t, tt.name, act.Command)
			assert.Equal(t, StateNormal, in.State())
		})
	}
}

func TestSubmitUnknownStaysInCommandMode(t *testing.T) {
	in := New("/")
	in.Enter()
	in.Input("zzz")

	_, err := in.Submit("zzz")
	require.ErrorIs(t, err, ErrUnknownCommand)
	assert.True(t, in.InCommandMode())
}

func TestSelectionWrapsAround(t *testing.T) {
	in := New("/")
	in.Enter()
	require.Equal(t, 0, in.SelectedIndex())

	in.Prev()
	assert.Equal(t, 1, in.SelectedIndex())
	in.Next()
	assert.Equal(t, 0, in.SelectedIndex())
	in.Next()
	c, ok := in.Selected()
	require.True(t, ok)
	assert.Equal(t, "markdown", c.Name)

	act, err := in.Submit("")
	require.NoError(t, err)
	assert.Equal(t, ActionExport, act.Kind)
}

func TestSelectionClampsWhenQueryNarrows(t *testing.T) {
	in := New("/")
	in.Enter()
	in.Next()
	in.Input("cl")
	assert.Equal(t, 0, in.SelectedIndex())
	c, ok := in.Selected()
	require.True(t, ok)
	assert.Equal(t, "clear", c.Name)
}

func TestMarkdown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tasks := []todo.Task{
		{ID: "1", Text: "milk", Status: todo.StatusAll, CreatedAt: now},
		{ID: "2", Text: "eggs", Completed: true, Status: todo.StatusDone, CreatedAt: now},
	}
	assert.Equal(t, "- milk\n- eggs", Markdown(tasks))
	assert.Equal(t, "", Markdown(nil))
}
