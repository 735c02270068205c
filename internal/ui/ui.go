package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todopop/internal/badge"
	"todopop/internal/command"
	"todopop/internal/config"
	"todopop/internal/todo"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeExport
)

// Store is the task state the UI reads and mutates.
type Store interface {
	Apply(ctx context.Context, in todo.Intent) bool
	Sections() []todo.Section
	Mode() todo.Mode
	Badge() badge.Badge
	Updates() <-chan struct{}
}

// Linker turns a pasted URL into task text.
type Linker interface {
	Link(ctx context.Context, url string) string
}

type Options struct {
	Log       *slog.Logger
	Clipboard Clipboard
	Linker    Linker
	Now       func() time.Time
}

type Model struct {
	ctx    context.Context
	store  Store
	cfg    config.Config
	log    *slog.Logger
	clip   Clipboard
	linker Linker
	now    func() time.Time

	sections []todo.Section
	display  []todo.Task
	cursor   int
	mode     mode
	input    textinput.Model
	commands *command.Interpreter
	status   string
	width    int

	confirmDel bool
	pendingDel *todo.Task
	editID     string
	export     string
	showHelp   bool
}

func New(ctx context.Context, store Store, cfg config.Config, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "What needs doing?"
	ti.CharLimit = 512
	ti.Width = 40

	m := Model{
		ctx:      ctx,
		store:    store,
		cfg:      cfg,
		log:      opts.Log,
		clip:     opts.Clipboard,
		linker:   opts.Linker,
		now:      opts.Now,
		input:    ti,
		commands: command.New(cfg.CommandTrigger),
		status:   fmt.Sprintf("Press '%s' to add, '%s' for commands, '%s' for help.", cfg.Keys.Add, cfg.CommandTrigger, cfg.Keys.Help),
		width:    80,
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if m.clip == nil {
		m.clip = systemClipboard{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.refresh()
	return m
}

// Run shows the UI until the user quits.
func Run(ctx context.Context, store Store, cfg config.Config, opts Options) error {
	program := tea.NewProgram(New(ctx, store, cfg, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.store.Updates())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-10, 10)
	case storeUpdatedMsg:
		var id string
		if t, ok := m.current(); ok {
			id = t.ID
		}
		m.refresh()
		m.follow(id)
		m.status = "Updated from another window"
		return m, waitForUpdate(m.store.Updates())
	case pastedMsg:
		m = m.startAdd()
		m.input.SetValue(msg.text)
		m.input.CursorEnd()
		m.status = "Pasted link; Enter to add"
	case clipboardErrMsg:
		m.log.Warn("clipboard", "op", msg.op, "err", msg.err)
		if msg.op == "read" {
			m.status = "Clipboard unavailable"
		}
	case copiedMsg:
		m.status = "Copied to clipboard"
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.mode {
	case modeAdd:
		return m.updateAddMode(key, msg)
	case modeEdit:
		return m.updateEditMode(key, msg)
	case modeExport:
		return m.updateExportMode(key)
	default:
		return m.updateListMode(key)
	}
}

func (m Model) startAdd() Model {
	m.mode = modeAdd
	m.commands.Cancel()
	m.input.SetValue("")
	m.input.Placeholder = "What needs doing?"
	m.input.Focus()
	return m
}

func (m Model) backToList(status string) Model {
	m.mode = modeList
	m.commands.Cancel()
	m.input.SetValue("")
	m.input.Blur()
	m.editID = ""
	m.status = status
	return m
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case m.cfg.Keys.Cancel, "esc":
		if m.commands.InCommandMode() {
			m.commands.Cancel()
			m.input.SetValue("")
			m.status = "Command cancelled"
			return m, nil
		}
		return m.backToList("Cancelled"), nil
	case m.cfg.Keys.Confirm, "enter":
		return m.submit()
	}
	if m.commands.InCommandMode() {
		switch key {
		case "up", "shift+tab":
			m.commands.Prev()
			return m, nil
		case "down", "tab":
			m.commands.Next()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.commands.Input(m.input.Value()); v != m.input.Value() {
		m.input.SetValue(v)
	}
	if m.commands.InCommandMode() {
		m.input.Placeholder = "command"
	} else {
		m.input.Placeholder = "What needs doing?"
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	act, err := m.commands.Submit(m.input.Value())
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	switch act.Kind {
	case command.ActionAdd:
		before := m.shownIDs()
		if !m.store.Apply(m.ctx, todo.Add{Text: act.Text}) {
			m.status = "Nothing to add"
			return m, nil
		}
		m = m.backToList("Added task")
		m.refresh()
		m.followNew(before)
	case command.ActionClear:
		m.store.Apply(m.ctx, todo.ClearAll{})
		m = m.backToList("Cleared all tasks")
		m.refresh()
	case command.ActionExport:
		m = m.backToList("")
		m.mode = modeExport
		m.export = command.Markdown(m.display)
		m.status = fmt.Sprintf("'%s' to copy, %s to close", m.cfg.Keys.Copy, m.cfg.Keys.Cancel)
	}
	return m, nil
}

func (m Model) updateEditMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case m.cfg.Keys.Cancel, "esc":
		return m.backToList("Edit cancelled"), nil
	case m.cfg.Keys.Confirm, "enter":
		if strings.TrimSpace(m.input.Value()) == "" {
			return m, nil
		}
		id := m.editID
		changed := m.store.Apply(m.ctx, todo.Edit{ID: id, Text: m.input.Value()})
		status := "Unchanged"
		if changed {
			status = "Saved"
		}
		m = m.backToList(status)
		m.refresh()
		m.follow(id)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateExportMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case m.cfg.Keys.Copy:
		return m, copyCmd(m.clip, m.export)
	case m.cfg.Keys.Cancel, "esc", m.cfg.Keys.Quit:
		m.export = ""
		return m.backToList(""), nil
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.display))
	case m.cfg.Keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.display))
	case m.cfg.Keys.Add:
		m = m.startAdd()
		m.status = "Type a task and press Enter"
	case m.cfg.CommandTrigger:
		m = m.startAdd()
		m.commands.Enter()
		m.input.Placeholder = "command"
		m.status = "Command mode"
	case m.cfg.Keys.Help:
		m.showHelp = !m.showHelp
	case m.cfg.Keys.Paste:
		return m, pasteCmd(m.ctx, m.clip, m.linker)
	}

	t, ok := m.current()
	if !ok {
		return m, nil
	}
	switch key {
	case m.cfg.Keys.Toggle:
		m.store.Apply(m.ctx, todo.Toggle{ID: t.ID})
		m.refresh()
		m.status = "Toggled task"
	case m.cfg.Keys.Delete:
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Text)
	case m.cfg.Keys.Edit:
		m.mode = modeEdit
		m.editID = t.ID
		m.input.SetValue(t.Text)
		m.input.CursorEnd()
		m.input.Placeholder = "Task text"
		m.input.Focus()
		m.status = "Editing; Enter to save, Esc to cancel"
	case m.cfg.Keys.PriorityUp:
		m = m.setPriority(t, t.Priority.Raise())
	case m.cfg.Keys.PriorityDown:
		m = m.setPriority(t, t.Priority.Lower())
	case m.cfg.Keys.MoveUp:
		m = m.moveBy(t, -1)
	case m.cfg.Keys.MoveDown:
		m = m.moveBy(t, 1)
	case m.cfg.Keys.MoveSection:
		if !m.store.Mode().HasSections() {
			m.status = "No sections in this mode"
			return m, nil
		}
		target := t.Status.Other()
		m.store.Apply(m.ctx, todo.Reorder{ID: t.ID, TargetStatus: target})
		m.refresh()
		m.follow(t.ID)
		m.status = "Moved to " + target.Title()
	}
	return m, nil
}

func (m Model) setPriority(t todo.Task, p todo.Priority) Model {
	if !m.store.Apply(m.ctx, todo.ChangePriority{ID: t.ID, Priority: p}) {
		m.status = "Priority already " + string(p)
		return m
	}
	m.refresh()
	m.follow(t.ID)
	m.status = "Priority " + string(p)
	return m
}

// moveBy drops t onto its neighbour within the same section.
func (m Model) moveBy(t todo.Task, delta int) Model {
	for _, sec := range m.sections {
		for i, st := range sec.Tasks {
			if st.ID != t.ID {
				continue
			}
			j := i + delta
			if j < 0 || j >= len(sec.Tasks) {
				return m
			}
			if !m.store.Apply(m.ctx, todo.Reorder{ID: t.ID, TargetID: sec.Tasks[j].ID}) {
				m.status = "Order is fixed in this mode"
				return m
			}
			m.refresh()
			m.follow(t.ID)
			m.status = "Moved task"
			return m
		}
	}
	return m
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		m.store.Apply(m.ctx, todo.Delete{ID: m.pendingDel.ID})
		m.refresh()
		m.status = "Deleted task"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) refresh() {
	m.sections = m.store.Sections()
	m.display = todo.Flatten(m.sections)
	m.cursor = clampCursor(m.cursor, len(m.display))
}

// follow moves the cursor onto the task with id, if it is still shown.
func (m *Model) follow(id string) {
	for i, t := range m.display {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m Model) shownIDs() map[string]bool {
	ids := make(map[string]bool, len(m.display))
	for _, t := range m.display {
		ids[t.ID] = true
	}
	return ids
}

// followNew moves the cursor onto the first task not in before.
func (m *Model) followNew(before map[string]bool) {
	for i, t := range m.display {
		if !before[t.ID] {
			m.cursor = i
			return
		}
	}
}

func (m Model) current() (todo.Task, bool) {
	if len(m.display) == 0 {
		return todo.Task{}, false
	}
	return m.display[clampCursor(m.cursor, len(m.display))], true
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

