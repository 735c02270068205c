// Command todo is a personal task list with status sections, priorities, and
// an outstanding-task badge. Without arguments it opens the interactive list.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"todopop/internal/badge"
	"todopop/internal/config"
	"todopop/internal/logging"
	"todopop/internal/probe"
	"todopop/internal/session"
	"todopop/internal/storage"
	"todopop/internal/ui"
)

var (
	configPath   string
	modeOverride modeFlag
)

var rootCmd = &cobra.Command{
	Use:           "todo",
	Short:         "A small task list with sections, priorities, and a badge",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $TODO_CONFIG or the user config dir)")
	rootCmd.PersistentFlags().Var(&modeOverride, "mode", "override the configured mode: sectioned, priority or list")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "todo: %v\n", err)
		os.Exit(1)
	}
}

// app is everything a command needs, opened from the config.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	store    *storage.Store
	sess     *session.Session
	closeLog func() error
}

type openOptions struct {
	watch    bool
	notifier badge.Notifier
}

func openApp(ctx context.Context, opts openOptions) (*app, error) {
	path := configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if modeOverride.mode != "" {
		cfg.Mode = string(modeOverride.mode)
	}
	level, _ := cfg.Level()
	log, closeLog, err := logging.OpenFile(cfg.LogPath, level)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	store, err := storage.Open(cfg.DBPath, storage.WithLogger(log), storage.WithWatch(opts.watch))
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open database: %w", err)
	}

	notifier := opts.notifier
	if notifier == nil {
		notifier = badge.Discard
	}
	if cfg.BadgeFile != "" {
		notifier = multiNotifier{notifier, badge.NewFileNotifier(cfg.BadgeFile)}
	}
	sess, err := session.Open(ctx, store, session.Options{
		Mode:       cfg.TodoMode(),
		Notifier:   notifier,
		BadgeColor: cfg.BadgeColor,
		Log:        log,
	})
	if err != nil {
		store.Close()
		closeLog()
		return nil, err
	}
	return &app{cfg: cfg, log: log, store: store, sess: sess, closeLog: closeLog}, nil
}

func (a *app) Close() error {
	err := errors.Join(a.sess.Close(), a.store.Close())
	return errors.Join(err, a.closeLog())
}

type multiNotifier []badge.Notifier

func (m multiNotifier) Notify(ctx context.Context, b badge.Badge) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.Notify(ctx, b))
	}
	return errors.Join(errs...)
}

func runRoot(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return runList(cmd, nil)
	}
	ctx := cmd.Context()
	a, err := openApp(ctx, openOptions{watch: true})
	if err != nil {
		return err
	}
	defer a.Close()
	return ui.Run(ctx, a.sess, a.cfg, ui.Options{
		Log:    a.log,
		Linker: probe.New(nil, a.log),
	})
}
