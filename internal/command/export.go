package command

import (
	"strings"

	"todopop/internal/todo"
)

// Markdown renders tasks as a bulleted list, one "- text" line per task in
// the order given.
func Markdown(tasks []todo.Task) string {
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = "- " + t.Text
	}
	return strings.Join(lines, "\n")
}
