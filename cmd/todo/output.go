package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"todopop/internal/todo"
)

var (
	sectionStyle = color.New(color.FgCyan, color.Bold)
	doneStyle    = color.New(color.Faint)
	mutedStyle   = color.New(color.FgHiBlack)
	priorityText = map[todo.Priority]*color.Color{
		todo.PriorityHigh:   color.New(color.FgRed, color.Bold),
		todo.PriorityMedium: color.New(color.FgYellow),
		todo.PriorityLow:    color.New(color.FgGreen),
	}
)

type listFormat string

const (
	formatText listFormat = "text"
	formatJSON listFormat = "json"
	formatYAML listFormat = "yaml"
)

// terminalWidth returns the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

func writeDocument(w io.Writer, format listFormat, c todo.Collection) error {
	doc := todo.Document{Version: todo.CurrentVersion, Todos: c}
	if doc.Todos == nil {
		doc.Todos = todo.Collection{}
	}
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// printSections writes one numbered line per task. Numbers are display
// positions and can be passed back as task references. Long text is cut to
// width when width is positive.
func printSections(w io.Writer, mode todo.Mode, sections []todo.Section, width int) {
	n := 0
	for _, sec := range sections {
		if mode.HasSections() {
			sectionStyle.Fprintf(w, "%s:\n", sec.Title)
		}
		for _, t := range sec.Tasks {
			n++
			box := " "
			if t.Completed {
				box = "x"
			}
			prefix := fmt.Sprintf("%3d [%s] ", n, box)
			suffix := ""
			if mode == todo.ModePriority || t.Priority != todo.PriorityLow {
				suffix = " (" + string(t.Priority) + ")"
			}
			text := t.Text
			if width > 0 {
				room := width - runewidth.StringWidth(prefix) - runewidth.StringWidth(suffix)
				text = runewidth.Truncate(text, max(room, 10), "…")
			}
			if t.Completed {
				text = doneStyle.Sprint(text)
			}
			if suffix != "" {
				style, ok := priorityText[t.Priority]
				if !ok {
					style = mutedStyle
				}
				suffix = style.Sprint(suffix)
			}
			fmt.Fprintln(w, prefix+text+suffix)
		}
	}
	if n == 0 {
		mutedStyle.Fprintln(w, "No tasks.")
	}
}
