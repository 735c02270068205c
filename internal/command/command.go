// Package command interprets the reserved input syntax of the task input.
//
// Typing the trigger character into an empty input switches the interpreter
// from Normal to Command state. In Command state the input text names one of
// a small fixed set of commands instead of a new task.
package command

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Kind identifies what submitting a command does.
type Kind int

const (
	// ActionNone means nothing should happen.
	ActionNone Kind = iota
	// ActionAdd creates a task from Action.Text.
	ActionAdd
	// ActionClear deletes every task without asking.
	ActionClear
	// ActionExport shows the list as markdown.
	ActionExport
)

func (k Kind) String() string {
	switch k {
	case ActionAdd:
		return "add"
	case ActionClear:
		return "clear"
	case ActionExport:
		return "export"
	default:
		return "none"
	}
}

// Command is one registry entry.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Kind        Kind
}

// Matches reports whether name is the command's name or an alias.
func (c Command) Matches(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == c.Name {
		return true
	}
	for _, a := range c.Aliases {
		if name == a {
			return true
		}
	}
	return false
}

// Registry returns the built-in commands in display order.
func Registry() []Command {
	return []Command{
		{
			Name:        "clear",
			Description: "Delete every task (cannot be undone)",
			Kind:        ActionClear,
		},
		{
			Name:        "markdown",
			Aliases:     []string{"export"},
			Description: "Show the list as markdown to copy",
			Kind:        ActionExport,
		},
	}
}

// Lookup finds a command by exact name or alias.
func Lookup(commands []Command, name string) (Command, bool) {
	for _, c := range commands {
		if c.Matches(name) {
			return c, true
		}
	}
	return Command{}, false
}

// Filter returns the commands matching query: exact name or alias matches
// first, then fuzzy matches on the name in score order. An empty query
// returns every command.
func Filter(commands []Command, query string) []Command {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return commands
	}
	if c, ok := Lookup(commands, query); ok {
		return []Command{c}
	}
	names := make([]string, 0, len(commands))
	owners := make([]int, 0, len(commands))
	for i, c := range commands {
		names = append(names, c.Name)
		owners = append(owners, i)
		for _, a := range c.Aliases {
			names = append(names, a)
			owners = append(owners, i)
		}
	}
	seen := make(map[int]bool)
	var out []Command
	for _, m := range fuzzy.Find(query, names) {
		idx := owners[m.Index]
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, commands[idx])
	}
	return out
}
