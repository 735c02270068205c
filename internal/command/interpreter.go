package command

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultTrigger enters command mode when typed into an empty input.
const DefaultTrigger = "/"

// ErrUnknownCommand is returned by Submit when no command matches.
var ErrUnknownCommand = errors.New("unknown command")

// State is the input state of an Interpreter.
type State int

const (
	StateNormal State = iota
	StateCommand
)

func (s State) String() string {
	if s == StateCommand {
		return "command"
	}
	return "normal"
}

// Action is the outcome of submitting the input.
type Action struct {
	Kind    Kind
	Text    string // task text for ActionAdd
	Command string // command name for ActionClear and ActionExport
}

// Interpreter tracks whether input text is task text or a command name, and
// which command is selected. It is not safe for concurrent use; the UI loop
// owns it.
type Interpreter struct {
	trigger  string
	commands []Command
	state    State
	query    string
	selected int
}

// New returns an interpreter in Normal state. An empty trigger uses
// DefaultTrigger.
func New(trigger string) *Interpreter {
	if trigger == "" {
		trigger = DefaultTrigger
	}
	return &Interpreter{trigger: trigger, commands: Registry()}
}

// Trigger returns the character that toggles command mode.
func (in *Interpreter) Trigger() string { return in.trigger }

// State returns the current state.
func (in *Interpreter) State() State { return in.state }

// InCommandMode reports whether input is being read as a command.
func (in *Interpreter) InCommandMode() bool { return in.state == StateCommand }

// Enter switches to command mode with an empty query and the first command
// selected.
func (in *Interpreter) Enter() {
	in.state = StateCommand
	in.query = ""
	in.selected = 0
}

// Cancel returns to normal mode.
func (in *Interpreter) Cancel() {
	in.state = StateNormal
	in.query = ""
	in.selected = 0
}

// Input observes a change of the input text and returns the text the input
// should hold afterwards. The trigger typed into an empty input toggles the
// state and clears the input.
func (in *Interpreter) Input(value string) string {
	if value == in.trigger {
		if in.state == StateCommand {
			in.Cancel()
		} else {
			in.Enter()
		}
		return ""
	}
	if in.state == StateCommand {
		in.query = value
		in.selected = clamp(in.selected, len(in.Matches()))
	}
	return value
}

// Query returns the command text typed so far.
func (in *Interpreter) Query() string { return in.query }

// Matches returns the commands that fit the current query.
func (in *Interpreter) Matches() []Command {
	return Filter(in.commands, in.query)
}

// Selected returns the highlighted command among Matches.
func (in *Interpreter) Selected() (Command, bool) {
	matches := in.Matches()
	if len(matches) == 0 {
		return Command{}, false
	}
	return matches[clamp(in.selected, len(matches))], true
}

// SelectedIndex returns the highlighted position within Matches.
func (in *Interpreter) SelectedIndex() int {
	return clamp(in.selected, len(in.Matches()))
}

// Next highlights the following command, wrapping around.
func (in *Interpreter) Next() { in.cycle(1) }

// Prev highlights the preceding command, wrapping around.
func (in *Interpreter) Prev() { in.cycle(-1) }

func (in *Interpreter) cycle(delta int) {
	n := len(in.Matches())
	if n == 0 {
		in.selected = 0
		return
	}
	in.selected = ((in.selected+delta)%n + n) % n
}

// Submit resolves the input. In normal mode non-blank text becomes an add.
// In command mode an exact name or alias wins, otherwise the highlighted
// match is used; a successful command returns the interpreter to normal
// mode. Unknown commands leave command mode active.
func (in *Interpreter) Submit(text string) (Action, error) {
	if in.state == StateNormal {
		if strings.TrimSpace(text) == "" {
			return Action{Kind: ActionNone}, nil
		}
		return Action{Kind: ActionAdd, Text: text}, nil
	}

	in.query = text
	cmd, ok := Lookup(in.commands, text)
	if !ok {
		cmd, ok = in.Selected()
	}
	if !ok {
		return Action{Kind: ActionNone}, fmt.Errorf("%w: %q", ErrUnknownCommand, strings.TrimSpace(text))
	}
	in.Cancel()
	return Action{Kind: cmd.Kind, Command: cmd.Name}, nil
}

func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
