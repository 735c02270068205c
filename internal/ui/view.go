package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"

	"todopop/internal/config"
	"todopop/internal/todo"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6366f1"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	selectedStyle = lipgloss.NewStyle().Bold(true)
	priorityStyle = map[todo.Priority]lipgloss.Style{
		todo.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
		todo.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b")),
		todo.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e")),
	}
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Todo"))
	if badge := m.store.Badge().Render(); badge != "" {
		b.WriteString(" ")
		b.WriteString(badge)
	}
	b.WriteString("\n\n")

	if m.mode == modeExport {
		b.WriteString(renderMarkdown(m.export, m.width))
	} else if len(m.display) == 0 {
		b.WriteString(fmt.Sprintf("No tasks yet. Press '%s' to add one.", m.cfg.Keys.Add))
	} else {
		b.WriteString(m.renderTaskList())
	}

	switch m.mode {
	case modeAdd, modeEdit:
		b.WriteString("\n")
		prompt := "+ "
		if m.commands.InCommandMode() {
			prompt = m.commands.Trigger() + " "
		}
		m.input.Prompt = prompt
		b.WriteString(m.input.View())
		if m.commands.InCommandMode() {
			b.WriteString("\n")
			b.WriteString(m.renderCommands())
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(dimStyle.Render(renderHelp(m.cfg)))
	} else {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s help • %s quit", m.cfg.Keys.Help, m.cfg.Keys.Quit)))
	}
	return b.String()
}

func renderHelp(cfg config.Config) string {
	k := cfg.Keys
	return fmt.Sprintf("%s/%s move • %s add • %s toggle • %s edit • %s delete • %s/%s priority • %s/%s reorder • %s section • %s paste • %s commands • %s quit",
		k.Up, k.Down, k.Add, keyName(k.Toggle), k.Edit, k.Delete, k.PriorityUp, k.PriorityDown, k.MoveUp, k.MoveDown, k.MoveSection, k.Paste, cfg.CommandTrigger, k.Quit)
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	showTitles := m.store.Mode().HasSections()
	showPriority := m.store.Mode() == todo.ModePriority
	idx := 0
	for _, sec := range m.sections {
		if showTitles {
			b.WriteString(sectionStyle.Render(fmt.Sprintf("%s (%d)", sec.Title, len(sec.Tasks))))
			b.WriteString("\n")
			if len(sec.Tasks) == 0 {
				b.WriteString(dimStyle.Render("  (empty)"))
				b.WriteString("\n")
			}
		}
		for _, t := range sec.Tasks {
			b.WriteString(m.renderTask(t, idx == m.cursor && m.mode == modeList, showPriority))
			b.WriteString("\n")
			idx++
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderTask(t todo.Task, selected, showPriority bool) string {
	cursor := " "
	if selected {
		cursor = ">"
	}
	checkbox := "[ ]"
	if t.Completed {
		checkbox = "[x]"
	}
	prefix := fmt.Sprintf("%s %s ", cursor, checkbox)
	if showPriority || t.Priority != todo.PriorityLow {
		style, ok := priorityStyle[t.Priority]
		if !ok {
			style = dimStyle
		}
		prefix += style.Render(priorityMark(t.Priority)) + " "
	}

	age := ""
	if !t.CreatedAt.IsZero() {
		age = humanize.RelTime(t.CreatedAt, m.now(), "ago", "from now")
	}
	room := m.width - lipgloss.Width(prefix) - len(age) - 2
	text := truncate.StringWithTail(t.Text, uint(max(room, 10)), "…")
	switch {
	case t.Completed:
		text = doneStyle.Render(text)
	case selected:
		text = selectedStyle.Render(text)
	}
	line := prefix + text
	if age != "" {
		line += "  " + dimStyle.Render(age)
	}
	return line
}

func priorityMark(p todo.Priority) string {
	switch p {
	case todo.PriorityHigh:
		return "!!!"
	case todo.PriorityMedium:
		return "!! "
	default:
		return "!  "
	}
}

func (m Model) renderCommands() string {
	matches := m.commands.Matches()
	if len(matches) == 0 {
		return dimStyle.Render("  no matching command")
	}
	sel := m.commands.SelectedIndex()
	var b strings.Builder
	for i, c := range matches {
		marker := "  "
		name := c.Name
		if i == sel {
			marker = "> "
			name = selectedStyle.Render(name)
		}
		b.WriteString(marker + name + "  " + dimStyle.Render(c.Description) + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

var (
	rendererMu sync.Mutex
	renderers  = map[int]*glamour.TermRenderer{}
)

// renderMarkdown formats the export for the terminal, falling back to the
// raw text when glamour cannot render it.
func renderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return dimStyle.Render("(nothing to export)")
	}
	r := markdownRenderer(max(width-4, 20))
	if r == nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownRenderer(width int) *glamour.TermRenderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	if cached, ok := renderers[width]; ok {
		return cached
	}
	style := styles.ASCIIStyleConfig
	style.Item.BlockPrefix = "- "
	created, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[width] = created
	return created
}
