// Package config provides configuration types, defaults, loading and
// persistence for the notes application.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/centraunit/vmkit/internal/log"
)

// Edit modes of the note list.
const (
	EditModeSamePage     = "samepage"
	EditModeSeparatePage = "separatepage"
)

// Sort keys of the note list.
const (
	SortByModified = "modified"
	SortByContent  = "content"
)

// LocalPath is the project-local config file checked before the user config.
const LocalPath = ".vmkit/config.yaml"

// Config is the application configuration.
type Config struct {
	Log   log.Config  `mapstructure:"log" yaml:"log"`
	Notes NotesConfig `mapstructure:"notes" yaml:"notes"`
	UI    UIConfig    `mapstructure:"ui" yaml:"ui"`
}

// NotesConfig configures the note store and list.
type NotesConfig struct {
	SeedFile string `mapstructure:"seed_file" yaml:"seed_file"` // YAML file loaded into the store at startup
	EditMode string `mapstructure:"edit_mode" yaml:"edit_mode"` // "samepage" (default) or "separatepage"
	SortBy   string `mapstructure:"sort_by" yaml:"sort_by"`     // "modified" (default) or "content"
	SortDesc bool   `mapstructure:"sort_desc" yaml:"sort_desc"`
}

// UIConfig configures the terminal shell.
type UIConfig struct {
	Prompt         string `mapstructure:"prompt" yaml:"prompt"`
	ConfirmDeletes bool   `mapstructure:"confirm_deletes" yaml:"confirm_deletes"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Log: log.Config{
			Enabled: false,
			Level:   "info",
		},
		Notes: NotesConfig{
			EditMode: EditModeSamePage,
			SortBy:   SortByModified,
			SortDesc: true,
		},
		UI: UIConfig{
			Prompt:         "notes> ",
			ConfirmDeletes: true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("log.enabled", d.Log.Enabled)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("notes.seed_file", d.Notes.SeedFile)
	v.SetDefault("notes.edit_mode", d.Notes.EditMode)
	v.SetDefault("notes.sort_by", d.Notes.SortBy)
	v.SetDefault("notes.sort_desc", d.Notes.SortDesc)
	v.SetDefault("ui.prompt", d.UI.Prompt)
	v.SetDefault("ui.confirm_deletes", d.UI.ConfirmDeletes)
}

// Load reads configuration. An explicit path must exist. Without one the
// lookup order is:
//  1. .vmkit/config.yaml (current directory)
//  2. ~/.config/vmkit/config.yaml (user config)
//
// and a missing file means defaults. VMKIT_* environment variables override
// file values, e.g. VMKIT_NOTES_EDIT_MODE.
// Returns the config and the file it came from, empty when none was read.
func Load(path string) (Config, string, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("VMKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else if _, err := os.Stat(LocalPath); err == nil {
		v.SetConfigFile(LocalPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "vmkit"))
		}
	}

	used := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			log.ErrorErr(log.CatConfig, "Failed to read config", err, "path", path)
			return Config{}, "", fmt.Errorf("reading config: %w", err)
		}
		log.Debug(log.CatConfig, "No config file found, using defaults")
	} else {
		used = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, "", err
	}

	log.Debug(log.CatConfig, "Loaded config", "path", used)
	return cfg, used, nil
}

// Validate checks enumerated settings.
func Validate(cfg Config) error {
	switch cfg.Notes.EditMode {
	case EditModeSamePage, EditModeSeparatePage:
	default:
		return fmt.Errorf("notes.edit_mode: must be %q or %q, got %q", EditModeSamePage, EditModeSeparatePage, cfg.Notes.EditMode)
	}
	switch cfg.Notes.SortBy {
	case SortByModified, SortByContent:
	default:
		return fmt.Errorf("notes.sort_by: must be %q or %q, got %q", SortByModified, SortByContent, cfg.Notes.SortBy)
	}
	return nil
}

// WriteDefault writes the built-in configuration to path, creating parent
// directories as needed.
func WriteDefault(path string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", path)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", path)
	return nil
}
