package enrich

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource_Window(t *testing.T) {
	root := t.TempDir()
	content := "one\ntwo\nthree\nfour\nfive\n"
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "main.py"), []byte(content), 0o644))

	src := &FileSource{Root: root, Radius: 1}

	t.Run("returns the window around the line", func(t *testing.T) {
		window, err := src.Window("app/main.py", 3)
		require.NoError(t, err)
		assert.Equal(t, map[int]string{2: "two", 3: "three", 4: "four"}, window)
	})

	t.Run("window is clamped at the start of the file", func(t *testing.T) {
		window, err := src.Window("app/main.py", 1)
		require.NoError(t, err)
		assert.Equal(t, map[int]string{1: "one", 2: "two"}, window)
	})

	t.Run("line beyond end of file is an error", func(t *testing.T) {
		_, err := src.Window("app/main.py", 42)
		require.Error(t, err)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := src.Window("app/missing.py", 1)
		require.Error(t, err)
	})

	t.Run("paths cannot escape the root", func(t *testing.T) {
		_, err := src.Window("../outside.py", 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "escapes repository root")
	})
}

func TestNoBlame(t *testing.T) {
	_, ok := NoBlame{}.Blame("app/main.py", 1)
	assert.False(t, ok)
}
