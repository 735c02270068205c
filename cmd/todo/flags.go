package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"todopop/internal/todo"
)

// modeFlag overrides the configured mode for one invocation.
type modeFlag struct {
	mode todo.Mode
}

func (f *modeFlag) String() string { return string(f.mode) }

func (f *modeFlag) Set(s string) error {
	m := todo.Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return fmt.Errorf("want one of sectioned, priority, list")
	}
	f.mode = m
	return nil
}

func (f *modeFlag) Type() string { return "mode" }

// formatFlag selects the list output format.
type formatFlag struct {
	format listFormat
}

func (f *formatFlag) String() string { return string(f.format) }

func (f *formatFlag) Set(s string) error {
	switch v := listFormat(strings.ToLower(s)); v {
	case formatText, formatJSON, formatYAML:
		f.format = v
		return nil
	default:
		return fmt.Errorf("want text, json or yaml")
	}
}

func (f *formatFlag) Type() string { return "format" }

var exportFlagAliases = map[string]string{
	"clip": "copy",
}

func addFlagAliases(cmd *cobra.Command, aliases map[string]string) {
	setFlagAliases(cmd.Flags(), aliases)
}

func setFlagAliases(flags *pflag.FlagSet, aliases map[string]string) {
	if len(aliases) == 0 {
		return
	}
	normalize := flags.GetNormalizeFunc()
	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		return normalize(f, name)
	})
}
