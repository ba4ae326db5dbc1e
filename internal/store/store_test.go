package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oncallzero/triage-cli/api/schemas"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func sampleReport(errorID string) *schemas.Report {
	return &schemas.Report{
		ErrorID:     errorID,
		GeneratedAt: time.Date(2024, 2, 20, 10, 30, 0, 0, time.UTC),
		ErrorDetails: schemas.ErrorRecord{
			ErrorID:   errorID,
			Type:      "DatabaseError",
			Timestamp: "2024-02-20T10:00:00Z",
			Message:   "Connection timeout",
			StackTrace: []string{
				"app/database.py:45: connect()",
			},
		},
		CodeAnalysis: []schemas.CodeContext{{
			FilePath:   "app/database.py",
			ErrorLines: []int{45},
			ContextLines: map[int]string{
				44: "    try:",
				45: "        db = Database(timeout=5)  # Error line",
				46: "        return db.connect()",
			},
			BlameInfo: map[int]schemas.BlameEntry{
				45: {Author: "John Doe", Commit: "abc123", Date: "2024-02-19"},
			},
		}},
		LLMAnalysis: schemas.RootCauseAnalysis{
			RootCause:            "Insufficient timeout value for database connection",
			CodeLevelExplanation: "The timeout is too low.",
			SuggestedFixes:       []string{"Increase database connection timeout to 30 seconds"},
			PreventionMeasures:   []string{"Add monitoring for database connection metrics"},
		},
		GitCommits: []schemas.CommitInfo{{
			Hash: "abc123", Author: "John Doe", Date: "2024-02-19",
			Message: "Update app/database.py", FilesChanged: []string{"app/database.py"},
		}},
	}
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips a report including integer line keys", func(t *testing.T) {
		s := newTestStore(t)
		report := sampleReport("ERR_123")

		path, err := s.Save(ctx, report)
		require.NoError(t, err)
		assert.Equal(t, s.Path("ERR_123"), path)
		assert.True(t, s.Exists("ERR_123"))

		loaded, err := s.Load(ctx, "ERR_123")
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(report, loaded))
	})

	t.Run("re-saving replaces the artifact wholesale", func(t *testing.T) {
		s := newTestStore(t)
		first := sampleReport("ERR_123")
		_, err := s.Save(ctx, first)
		require.NoError(t, err)

		second := sampleReport("ERR_123")
		second.LLMAnalysis.RootCause = "revised root cause"
		_, err = s.Save(ctx, second)
		require.NoError(t, err)

		loaded, err := s.Load(ctx, "ERR_123")
		require.NoError(t, err)
		assert.Equal(t, "revised root cause", loaded.LLMAnalysis.RootCause)
	})

	t.Run("loading an unknown id yields NotFoundError", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Load(ctx, "ERR_999")
		var notFound *schemas.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "ERR_999", notFound.ErrorID)
		assert.False(t, s.Exists("ERR_999"))
	})

	t.Run("save requires a report with an error id", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Save(ctx, nil)
		require.Error(t, err)
		_, err = s.Save(ctx, &schemas.Report{})
		require.Error(t, err)
	})

	t.Run("save honors a canceled context", func(t *testing.T) {
		s := newTestStore(t)
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Save(canceled, sampleReport("ERR_123"))
		require.ErrorIs(t, err, context.Canceled)
		assert.False(t, s.Exists("ERR_123"))
	})
}

func TestDecode(t *testing.T) {
	t.Run("rejects undecodable JSON", func(t *testing.T) {
		_, err := Decode("ERR_123", []byte("{not json"))
		var malformed *schemas.MalformedReport
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "ERR_123", malformed.ErrorID)
	})

	t.Run("rejects non-integer line keys", func(t *testing.T) {
		data := []byte(`{
			"error_id": "ERR_123",
			"error_details": {"error_id": "ERR_123", "type": "DatabaseError"},
			"code_analysis": [{
				"file_path": "app/database.py",
				"error_lines": [45],
				"context_lines": {"forty-five": "db = Database(timeout=5)"},
				"blame_info": {}
			}]
		}`)
		_, err := Decode("ERR_123", data)
		var malformed *schemas.MalformedReport
		require.ErrorAs(t, err, &malformed)
	})

	t.Run("rejects a report missing its type tag", func(t *testing.T) {
		data := []byte(`{"error_id": "ERR_123", "error_details": {"error_id": "ERR_123"}}`)
		_, err := Decode("ERR_123", data)
		var malformed *schemas.MalformedReport
		require.ErrorAs(t, err, &malformed)
		assert.Contains(t, malformed.Reason, "type")
	})

	t.Run("rejects an error line without a context line", func(t *testing.T) {
		data := []byte(`{
			"error_id": "ERR_123",
			"error_details": {"error_id": "ERR_123", "type": "DatabaseError"},
			"code_analysis": [{
				"file_path": "app/database.py",
				"error_lines": [45],
				"context_lines": {"44": "try:"},
				"blame_info": {}
			}]
		}`)
		_, err := Decode("ERR_123", data)
		var malformed *schemas.MalformedReport
		require.ErrorAs(t, err, &malformed)
		assert.Contains(t, malformed.Reason, "45")
	})

	t.Run("malformed reports do not masquerade as missing ones", func(t *testing.T) {
		_, err := Decode("ERR_123", []byte("{not json"))
		var notFound *schemas.NotFoundError
		assert.False(t, errors.As(err, &notFound))
	})
}

func TestFileStore_List(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, id := range []string{"ERR_456", "ERR_123"} {
		report := sampleReport(id)
		_, err := s.Save(ctx, report)
		require.NoError(t, err)
	}

	ids, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"ERR_123", "ERR_456"}, ids)
}
