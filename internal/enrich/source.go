package enrich

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oncallzero/triage-cli/api/schemas"
)

// ContextSource resolves the source-line window around one implicated line.
// Implementations return the window keyed by line number, or an error when
// the file cannot be resolved at all.
type ContextSource interface {
	Window(filePath string, line int) (map[int]string, error)
}

// BlameSource resolves best-effort attribution for one line. The boolean is
// false when no attribution is known, which is not an error.
type BlameSource interface {
	Blame(filePath string, line int) (schemas.BlameEntry, bool)
}

// FileSource reads context windows from real files under a repository root.
type FileSource struct {
	Root   string
	Radius int
}

// Window implements ContextSource. Paths are resolved relative to the root
// and must stay inside it.
func (f *FileSource) Window(filePath string, line int) (map[int]string, error) {
	full := filepath.Join(f.Root, filepath.FromSlash(filePath))
	rel, err := filepath.Rel(f.Root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("path %s escapes repository root", filePath)
	}

	file, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer file.Close()

	lo := line - f.Radius
	if lo < 1 {
		lo = 1
	}
	hi := line + f.Radius

	window := make(map[int]string)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		if n > hi {
			break
		}
		if n >= lo {
			window[n] = scanner.Text()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	if _, ok := window[line]; !ok {
		return nil, fmt.Errorf("line %d is beyond the end of %s", line, filePath)
	}
	return window, nil
}

// NoBlame is the blame source used with real repositories: attribution is
// always unknown.
type NoBlame struct{}

// Blame implements BlameSource.
func (NoBlame) Blame(string, int) (schemas.BlameEntry, bool) {
	return schemas.BlameEntry{}, false
}
