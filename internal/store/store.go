// Package store persists analysis reports as flat files, one JSON artifact
// per error id. Writes are atomic: a report is staged to a temp file in the
// same directory and renamed into place, so a reader never observes a
// half-written artifact. Re-analysis replaces the artifact wholesale; the
// last writer wins.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/oncallzero/triage-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileStore is the flat-file implementation of schemas.ReportStore.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// New creates a file store rooted at dir, creating the directory if needed.
func New(dir string, logger *zap.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}

	return &FileStore{
		dir:    dir,
		logger: logger.Named("store"),
	}, nil
}

// Path returns the artifact path for an error id.
func (s *FileStore) Path(errorID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("issue_%s.json", errorID))
}

// Save implements schemas.ReportStore. It returns the artifact path.
func (s *FileStore) Save(ctx context.Context, report *schemas.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if report == nil || report.ErrorID == "" {
		return "", fmt.Errorf("report with an error id is required")
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}

	target := s.Path(report.ErrorID)

	// Stage in the same directory so the rename is atomic on POSIX.
	tmp, err := os.CreateTemp(s.dir, fmt.Sprintf(".issue_%s-*.tmp", report.ErrorID))
	if err != nil {
		return "", fmt.Errorf("failed to create temp report file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to sync report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close report file: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("failed to replace report %s: %w", target, err)
	}

	s.logger.Info("Report written",
		zap.String("error_id", report.ErrorID),
		zap.String("path", target))
	return target, nil
}

// Load implements schemas.ReportStore.
func (s *FileStore) Load(ctx context.Context, errorID string) (*schemas.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(errorID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &schemas.NotFoundError{ErrorID: errorID}
		}
		return nil, fmt.Errorf("failed to read report for %s: %w", errorID, err)
	}

	return Decode(errorID, data)
}

// Decode parses a report artifact, normalizing line-number keys back to
// integers and validating required fields. Failures surface as
// *schemas.MalformedReport.
func Decode(errorID string, data []byte) (*schemas.Report, error) {
	var report schemas.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, &schemas.MalformedReport{
			ErrorID: errorID,
			Reason:  "undecodable JSON (check line-number keys)",
			Err:     err,
		}
	}

	if report.ErrorDetails.ErrorID == "" {
		return nil, &schemas.MalformedReport{ErrorID: errorID, Reason: "missing error_details.error_id"}
	}
	if report.ErrorDetails.Type == "" {
		return nil, &schemas.MalformedReport{ErrorID: errorID, Reason: "missing error_details.type"}
	}
	for _, cc := range report.CodeAnalysis {
		if cc.FilePath == "" {
			return nil, &schemas.MalformedReport{ErrorID: errorID, Reason: "code_analysis entry missing file_path"}
		}
		for _, line := range cc.ErrorLines {
			if _, ok := cc.ContextLines[line]; !ok {
				return nil, &schemas.MalformedReport{
					ErrorID: errorID,
					Reason:  fmt.Sprintf("error line %d of %s has no context line", line, cc.FilePath),
				}
			}
		}
	}

	return &report, nil
}

// Exists implements schemas.ReportStore.
func (s *FileStore) Exists(errorID string) bool {
	_, err := os.Stat(s.Path(errorID))
	return err == nil
}

// List returns the error ids with stored artifacts, sorted.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list store directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "issue_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, "issue_"), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
