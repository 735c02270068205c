package ui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// Clipboard is the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

type storeUpdatedMsg struct{}

type pastedMsg struct {
	text string
}

type copiedMsg struct{}

type clipboardErrMsg struct {
	op  string
	err error
}

func waitForUpdate(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeUpdatedMsg{}
	}
}

// pasteCmd reads the clipboard and, when a linker is set, turns a URL into a
// markdown link.
func pasteCmd(ctx context.Context, clip Clipboard, linker Linker) tea.Cmd {
	return func() tea.Msg {
		text, err := clip.ReadAll()
		if err != nil {
			return clipboardErrMsg{op: "read", err: err}
		}
		text = strings.TrimSpace(text)
		if linker != nil && text != "" && !strings.ContainsAny(text, " \n\t") {
			text = linker.Link(ctx, text)
		}
		return pastedMsg{text: text}
	}
}

func copyCmd(clip Clipboard, text string) tea.Cmd {
	return func() tea.Msg {
		if err := clip.WriteAll(text); err != nil {
			return clipboardErrMsg{op: "write", err: err}
		}
		return copiedMsg{}
	}
}
