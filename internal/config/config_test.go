package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults_AreValid(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
}

func TestValidate_EditMode(t *testing.T) {
	cfg := Defaults()
	cfg.Notes.EditMode = "popup"
	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "notes.edit_mode")
}

func TestValidate_SortBy(t *testing.T) {
	cfg := Defaults()
	cfg.Notes.SortBy = "title"
	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "notes.sort_by")
}

func TestLoad_ExplicitFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
notes:
  edit_mode: separatepage
  sort_by: content
  sort_desc: false
ui:
  prompt: "> "
`)

	cfg, used, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, used)
	require.Equal(t, EditModeSeparatePage, cfg.Notes.EditMode)
	require.Equal(t, SortByContent, cfg.Notes.SortBy)
	require.False(t, cfg.Notes.SortDesc)
	require.Equal(t, "> ", cfg.UI.Prompt)
	require.True(t, cfg.UI.ConfirmDeletes, "unset keys keep their defaults")
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidValue(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "notes:\n  edit_mode: popup\n")
	_, _, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "edit_mode")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "notes:\n  edit_mode: samepage\n")
	t.Setenv("VMKIT_NOTES_EDIT_MODE", EditModeSeparatePage)
	t.Setenv("VMKIT_LOG_ENABLED", "true")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, EditModeSeparatePage, cfg.Notes.EditMode)
	require.True(t, cfg.Log.Enabled)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, used, err := Load("")
	require.NoError(t, err)
	require.Empty(t, used)
	require.Equal(t, Defaults(), cfg)
}

func TestLoad_PrefersLocalFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())
	writeFile(t, dir, LocalPath, "ui:\n  prompt: \"local> \"\n")

	cfg, used, err := Load("")
	require.NoError(t, err)
	require.Equal(t, LocalPath, used)
	require.Equal(t, "local> ", cfg.UI.Prompt)
}

func TestLoad_UserConfig(t *testing.T) {
	chdir(t, t.TempDir())
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, home, filepath.Join(".config", "vmkit", "config.yaml"), "notes:\n  sort_by: content\n")

	cfg, used, err := Load("")
	require.NoError(t, err)
	require.NotEmpty(t, used)
	require.Equal(t, SortByContent, cfg.Notes.SortBy)
}

func TestWriteDefault_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, used, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, used)
	require.Equal(t, Defaults(), cfg)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
