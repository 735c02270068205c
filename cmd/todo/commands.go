package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"todopop/internal/badge"
	"todopop/internal/command"
	"todopop/internal/probe"
	"todopop/internal/todo"
)

var addLink string

var addCmd = &cobra.Command{
	Use:   "add <text...>",
	Short: "Add a task; /high, /medium or /low in the text sets its priority",
	RunE:  runAdd,
}

var listFmt = formatFlag{format: formatText}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "Print the tasks in display order",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <ref>",
	Short: "Mark a task done, or not done again",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

var editCmd = &cobra.Command{
	Use:   "edit <ref> <text...>",
	Short: "Replace a task's text",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runEdit,
}

var priorityCmd = &cobra.Command{
	Use:   "priority <ref> <high|medium|low>",
	Short: "Set a task's priority",
	Args:  cobra.ExactArgs(2),
	RunE:  runPriority,
}

var moveCmd = &cobra.Command{
	Use:   "move <ref> <target>",
	Short: "Move a task onto another task's position, or into the all/done section",
	Args:  cobra.ExactArgs(2),
	RunE:  runMove,
}

var rmCmd = &cobra.Command{
	Use:     "rm <ref>",
	Short:   "Delete a task",
	Aliases: []string{"delete"},
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every task (cannot be undone)",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var exportCopy bool

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Print the tasks as a markdown list",
	Aliases: []string{"markdown"},
	Args:    cobra.NoArgs,
	RunE:    runExport,
}

var badgeWatch bool

var badgeCmd = &cobra.Command{
	Use:   "badge",
	Short: "Print the number of unfinished tasks (empty when none)",
	Args:  cobra.NoArgs,
	RunE:  runBadge,
}

func init() {
	addCmd.Flags().StringVar(&addLink, "link", "", "URL to add as a link; pull request URLs are titled from the page")
	listCmd.Flags().Var(&listFmt, "format", "output format: text, json or yaml")
	exportCmd.Flags().BoolVar(&exportCopy, "copy", false, "also copy the markdown to the clipboard")
	addFlagAliases(exportCmd, exportFlagAliases)
	badgeCmd.Flags().BoolVar(&badgeWatch, "watch", false, "keep running and print the badge whenever it changes")
	rootCmd.AddCommand(addCmd, listCmd, toggleCmd, editCmd, priorityCmd, moveCmd, rmCmd, clearCmd, exportCmd, badgeCmd)
}

// withApp opens the app for a one-shot command and closes it afterwards, so
// the write is committed before the process exits.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx, openOptions{})
	if err != nil {
		return err
	}
	err = fn(a)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

func runAdd(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	return withApp(cmd.Context(), func(a *app) error {
		if addLink != "" {
			link := probe.New(nil, a.log).Link(cmd.Context(), addLink)
			text = strings.TrimSpace(text + " " + link)
		}
		if !a.sess.Apply(cmd.Context(), todo.Add{Text: text}) {
			return fmt.Errorf("nothing to add")
		}
		todos := a.sess.Todos()
		added := newest(todos)
		fmt.Fprintf(cmd.OutOrStdout(), "Added: %s\n", added.Text)
		return nil
	})
}

// newest returns the most recently created task; ties go to the later one.
func newest(c todo.Collection) todo.Task {
	var out todo.Task
	for _, t := range c {
		if out.ID == "" || !t.CreatedAt.Before(out.CreatedAt) {
			out = t
		}
	}
	return out
}

func runList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		out := cmd.OutOrStdout()
		if listFmt.format != formatText {
			return writeDocument(out, listFmt.format, a.sess.Todos())
		}
		printSections(out, a.sess.Mode(), a.sess.Sections(), terminalWidth())
		return nil
	})
}

func runToggle(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		t, err := a.sess.Resolve(args[0])
		if err != nil {
			return err
		}
		a.sess.Apply(cmd.Context(), todo.Toggle{ID: t.ID})
		verb := "Done"
		if t.Completed {
			verb = "Reopened"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", verb, t.Text)
		return nil
	})
}

func runEdit(cmd *cobra.Command, args []string) error {
	text := strings.Join(args[1:], " ")
	return withApp(cmd.Context(), func(a *app) error {
		t, err := a.sess.Resolve(args[0])
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("text is empty")
		}
		a.sess.Apply(cmd.Context(), todo.Edit{ID: t.ID, Text: text})
		fmt.Fprintf(cmd.OutOrStdout(), "Edited: %s\n", strings.TrimSpace(text))
		return nil
	})
}

func runPriority(cmd *cobra.Command, args []string) error {
	p, ok := todo.ParsePriority(args[1])
	if !ok {
		return fmt.Errorf("unknown priority %q: want high, medium or low", args[1])
	}
	return withApp(cmd.Context(), func(a *app) error {
		t, err := a.sess.Resolve(args[0])
		if err != nil {
			return err
		}
		a.sess.Apply(cmd.Context(), todo.ChangePriority{ID: t.ID, Priority: p})
		fmt.Fprintf(cmd.OutOrStdout(), "Priority %s: %s\n", p, t.Text)
		return nil
	})
}

func runMove(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		t, err := a.sess.Resolve(args[0])
		if err != nil {
			return err
		}
		in := todo.Reorder{ID: t.ID}
		if s := todo.Status(strings.ToLower(args[1])); s.IsValid() {
			in.TargetStatus = s
		} else {
			target, err := a.sess.Resolve(args[1])
			if err != nil {
				return fmt.Errorf("target: %w", err)
			}
			in.TargetID = target.ID
		}
		if !a.sess.Apply(cmd.Context(), in) {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing moved.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved: %s\n", t.Text)
		return nil
	})
}

func runRemove(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		t, err := a.sess.Resolve(args[0])
		if err != nil {
			return err
		}
		a.sess.Apply(cmd.Context(), todo.Delete{ID: t.ID})
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", t.Text)
		return nil
	})
}

func runClear(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		n := len(a.sess.Todos())
		a.sess.Apply(cmd.Context(), todo.ClearAll{})
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d tasks.\n", n)
		return nil
	})
}

func runExport(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		md := command.Markdown(a.sess.Display())
		if md != "" {
			fmt.Fprintln(cmd.OutOrStdout(), md)
		}
		if exportCopy {
			if err := clipboard.WriteAll(md); err != nil {
				a.log.Warn("copy export", "err", err)
			}
		}
		return nil
	})
}

func runBadge(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if !badgeWatch {
		return withApp(ctx, func(a *app) error {
			fmt.Fprintln(out, a.sess.Badge().Text)
			return nil
		})
	}

	var last *string
	printer := badge.NotifierFunc(func(_ context.Context, b badge.Badge) error {
		if last != nil && *last == b.Text {
			return nil
		}
		text := b.Text
		last = &text
		_, err := fmt.Fprintln(out, text)
		return err
	})
	a, err := openApp(ctx, openOptions{watch: true, notifier: printer})
	if err != nil {
		return err
	}
	defer a.Close()
	<-ctx.Done()
	return nil
}
