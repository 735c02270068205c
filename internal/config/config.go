package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	toml "github.com/pelletier/go-toml/v2"

	"todopop/internal/badge"
	"todopop/internal/todo"
)

const (
	AppName               = "todopop"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "todo.db"
	DefaultLogName        = "todopop.log"
	EnvConfigPath         = "TODO_CONFIG"
)

type Keymap struct {
	Quit         string `toml:"quit"`
	Add          string `toml:"add"`
	Up           string `toml:"up"`
	Down         string `toml:"down"`
	Toggle       string `toml:"toggle"`
	Delete       string `toml:"delete"`
	Confirm      string `toml:"confirm"`
	Cancel       string `toml:"cancel"`
	Edit         string `toml:"edit"`
	PriorityUp   string `toml:"priority_up"`
	PriorityDown string `toml:"priority_down"`
	MoveUp       string `toml:"move_up"`
	MoveDown     string `toml:"move_down"`
	MoveSection  string `toml:"move_section"`
	Paste        string `toml:"paste"`
	Copy         string `toml:"copy"`
	Help         string `toml:"help"`
}

type Config struct {
	DBPath         string `toml:"db_path"`
	Mode           string `toml:"mode"`
	CommandTrigger string `toml:"command_trigger"`
	BadgeColor     string `toml:"badge_color"`
	BadgeFile      string `toml:"badge_file"`
	LogPath        string `toml:"log_path"`
	LogLevel       string `toml:"log_level"`
	Keys           Keymap `toml:"keys"`
}

// ResolveConfigPath returns $TODO_CONFIG when set, otherwise config.toml in
// the user's config directory.
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, AppName, DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults there first if
// the file does not exist. Keys missing from the file keep their defaults.
// Relative paths in the result are resolved against the config directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.Mode == "" {
		cfg.Mode = string(todo.ModeSectioned)
	}
	if cfg.CommandTrigger == "" {
		cfg.CommandTrigger = "/"
	}
	if cfg.BadgeColor == "" {
		cfg.BadgeColor = badge.DefaultColor
	}
	cfg = cfg.resolve(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if !todo.Mode(c.Mode).IsValid() {
		return fmt.Errorf("mode %q: want one of sectioned, priority, list", c.Mode)
	}
	if utf8.RuneCountInString(c.CommandTrigger) != 1 || c.CommandTrigger == " " {
		return fmt.Errorf("command_trigger %q: want a single non-space character", c.CommandTrigger)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. Empty means info.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

func (c Config) TodoMode() todo.Mode { return todo.Mode(c.Mode) }

func (c Config) resolve(dir string) Config {
	c.DBPath = resolvePath(dir, c.DBPath)
	c.BadgeFile = resolvePath(dir, c.BadgeFile)
	c.LogPath = resolvePath(dir, c.LogPath)
	return c
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DBPath:         DefaultDBName,
		Mode:           string(todo.ModeSectioned),
		CommandTrigger: "/",
		BadgeColor:     badge.DefaultColor,
		LogPath:        DefaultLogName,
		LogLevel:       "info",
		Keys: Keymap{
			Quit:         "q",
			Add:          "a",
			Up:           "k",
			Down:         "j",
			Toggle:       " ",
			Delete:       "d",
			Confirm:      "enter",
			Cancel:       "esc",
			Edit:         "e",
			PriorityUp:   "+",
			PriorityDown: "-",
			MoveUp:       "K",
			MoveDown:     "J",
			MoveSection:  "m",
			Paste:        "p",
			Copy:         "y",
			Help:         "?",
		},
	}
}
