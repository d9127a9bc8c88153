package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const seedYAML = `notes:
  - id: 1
    content: Buy milk
    modified: 2024-01-02T15:04:05Z
  - id: 2
    content: Call the plumber
    modified: 2024-01-03T09:00:00Z
`

// writeConfig creates a config file seeding two notes and returns its path.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()

	seed := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(seedYAML), 0o600))

	cfgPath := filepath.Join(dir, "config.yaml")
	body := "notes:\n  seed_file: " + seed + "\n" + extra
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))
	return cfgPath
}

func execute(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	cfgPath := writeConfig(t, "")

	out, err := execute(t, "", "list", "--config", cfgPath, "--sort", "content", "--desc=false")
	require.NoError(t, err)

	milk := strings.Index(out, "Buy milk")
	plumber := strings.Index(out, "Call the plumber")
	require.GreaterOrEqual(t, milk, 0, out)
	require.Greater(t, plumber, milk, out)
	require.Contains(t, out, "by content, ascending")
}

func TestListCommand_RejectsUnknownSort(t *testing.T) {
	cfgPath := writeConfig(t, "")

	_, err := execute(t, "", "list", "--config", cfgPath, "--sort", "size")
	require.Error(t, err)
}

func TestShowCommand(t *testing.T) {
	cfgPath := writeConfig(t, "")

	out, err := execute(t, "", "show", "2", "--config", cfgPath)
	require.NoError(t, err)
	require.Equal(t, "Call the plumber\n", out)

	_, err = execute(t, "", "show", "99", "--config", cfgPath)
	require.Error(t, err)
}

func TestShellSession_EditAndSaveOnLeave(t *testing.T) {
	cfgPath := writeConfig(t, "")
	input := strings.Join([]string{
		"open 1",
		"set Buy oat milk",
		"back",
		"y",
		"list",
	}, "\n") + "\n"

	out, err := execute(t, input, "shell", "--config", cfgPath)
	require.NoError(t, err)
	require.Contains(t, out, "Save changes")

	last := out[strings.LastIndex(out, "== Notes"):]
	require.Contains(t, last, "Buy oat milk")
	require.NotContains(t, last, "Buy milk")
}

func TestShellSession_DecliningKeepsPage(t *testing.T) {
	cfgPath := writeConfig(t, "")
	input := strings.Join([]string{
		"new",
		"set draft",
		"home",
		"n",
		"quit",
		"n",
	}, "\n") + "\n"

	out, err := execute(t, input, "--config", cfgPath)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(out, "Staying on this page."), out)
}

func TestShellSession_DeleteFromList(t *testing.T) {
	cfgPath := writeConfig(t, "")
	input := strings.Join([]string{
		"list",
		"delete 1",
		"y",
		"quit",
	}, "\n") + "\n"

	out, err := execute(t, input, "shell", "--config", cfgPath)
	require.NoError(t, err)
	require.Contains(t, out, "Delete?")

	last := out[strings.LastIndex(out, "== Notes"):]
	require.NotContains(t, last, "Buy milk")
	require.Contains(t, last, "Call the plumber")
}

func TestShellSession_DeleteWithoutConfirmation(t *testing.T) {
	cfgPath := writeConfig(t, "ui:\n  confirm_deletes: false\n")
	input := "list\ndelete 2\nquit\n"

	out, err := execute(t, input, "shell", "--config", cfgPath)
	require.NoError(t, err)
	require.NotContains(t, out, "Delete?")

	last := out[strings.LastIndex(out, "== Notes"):]
	require.NotContains(t, last, "Call the plumber")
}

func TestShellSession_UnknownCommand(t *testing.T) {
	cfgPath := writeConfig(t, "")

	out, err := execute(t, "frobnicate\nsort\n", "shell", "--config", cfgPath)
	require.NoError(t, err)
	require.Contains(t, out, `unknown command "frobnicate"`)
	require.Contains(t, out, `"sort" is not available on this page`)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, "", "init-config", path)
	require.NoError(t, err)
	require.Contains(t, out, "Wrote "+path)
	require.FileExists(t, path)

	_, err = execute(t, "", "init-config", path)
	require.Error(t, err)

	_, err = execute(t, "", "init-config", path, "--force")
	require.NoError(t, err)
}
