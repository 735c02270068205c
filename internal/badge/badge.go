// Package badge derives the outstanding-task indicator and publishes it.
package badge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// DefaultColor is the badge background.
const DefaultColor = "#6366f1"

type Badge struct {
	Text  string
	Color string
}

// For returns the badge for count incomplete tasks. Zero shows nothing.
func For(count int, color string) Badge {
	if color == "" {
		color = DefaultColor
	}
	if count <= 0 {
		return Badge{Color: color}
	}
	return Badge{Text: strconv.Itoa(count), Color: color}
}

func (b Badge) Empty() bool { return b.Text == "" }

// Render paints the badge for a terminal header. An empty badge renders as
// the empty string.
func (b Badge) Render() string {
	if b.Empty() {
		return ""
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffffff")).
		Background(lipgloss.Color(b.Color)).
		Padding(0, 1).
		Render(b.Text)
}

// Notifier publishes a badge somewhere outside the process.
type Notifier interface {
	Notify(ctx context.Context, b Badge) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, b Badge) error

func (f NotifierFunc) Notify(ctx context.Context, b Badge) error { return f(ctx, b) }

// Discard drops every badge.
var Discard Notifier = NotifierFunc(func(context.Context, Badge) error { return nil })

// FileNotifier writes the badge text, followed by a newline when non-empty,
// to Path. Status bars can poll the file. Unchanged text is not rewritten.
type FileNotifier struct {
	Path string

	mu      sync.Mutex
	written bool
	last    string
}

func NewFileNotifier(path string) *FileNotifier {
	return &FileNotifier{Path: path}
}

func (n *FileNotifier) Notify(ctx context.Context, b Badge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.written && n.last == b.Text {
		return nil
	}
	body := b.Text
	if body != "" {
		body += "\n"
	}
	if err := writeFileAtomic(n.Path, []byte(body)); err != nil {
		return fmt.Errorf("write badge: %w", err)
	}
	n.written = true
	n.last = b.Text
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
