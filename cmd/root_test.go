package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeTestConfig writes a config file keeping all artifacts in temp dirs.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logger:
  level: error
store:
  dir: ` + dir + `
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	t.Run("analyze runs end to end", func(t *testing.T) {
		cfgPath := writeTestConfig(t)

		root := NewRootCommand()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs([]string{"--config", cfgPath, "analyze", "ERR_123", "--no-notify"})

		require.NoError(t, root.ExecuteContext(context.Background()))
		assert.Contains(t, out.String(), "Analysis Summary:")

		dir := filepath.Dir(cfgPath)
		_, err := os.Stat(filepath.Join(dir, "issue_ERR_123.json"))
		require.NoError(t, err)
	})

	t.Run("analyze requires exactly one argument", func(t *testing.T) {
		root := NewRootCommand()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"--config", writeTestConfig(t), "analyze"})

		require.Error(t, root.ExecuteContext(context.Background()))
	})

	t.Run("fix without an id or report file fails", func(t *testing.T) {
		root := NewRootCommand()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"--config", writeTestConfig(t), "fix"})

		err := root.ExecuteContext(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error id or --report")
	})

	t.Run("version is printed", func(t *testing.T) {
		root := NewRootCommand()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs([]string{"--version"})

		require.NoError(t, root.ExecuteContext(context.Background()))
		assert.Contains(t, out.String(), Version)
	})

	t.Run("unreadable config file fails", func(t *testing.T) {
		root := NewRootCommand()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "analyze", "ERR_123"})

		require.Error(t, root.ExecuteContext(context.Background()))
	})
}

func TestGetConfigFromContext(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	require.Error(t, err)
}
