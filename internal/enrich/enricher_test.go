package enrich

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oncallzero/triage-cli/api/schemas"
)

type stubReasoner struct {
	analysis schemas.RootCauseAnalysis
	err      error
	calls    int
}

func (s *stubReasoner) Analyze(_ context.Context, _ *schemas.ErrorRecord, _ []schemas.CodeContext) (*schemas.RootCauseAnalysis, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := s.analysis
	return &out, nil
}

type failingSource struct{}

func (failingSource) Window(filePath string, line int) (map[int]string, error) {
	return nil, fmt.Errorf("no context for %s:%d", filePath, line)
}

func sampleDatabaseRecord() *schemas.ErrorRecord {
	return &schemas.ErrorRecord{
		ErrorID:   "ERR_123",
		Type:      "DatabaseError",
		Timestamp: "2024-02-20T10:00:00Z",
		Message:   "Connection timeout",
		StackTrace: []string{
			"app/database.py:45: connect()",
			"app/models.py:23: get_user()",
			"app/views.py:12: user_view()",
		},
	}
}

func TestEnricher_Enrich(t *testing.T) {
	logger := zap.NewNop()

	t.Run("builds contexts, analysis, and commits for the sample record", func(t *testing.T) {
		reasoner := &stubReasoner{analysis: schemas.RootCauseAnalysis{RootCause: "timeout"}}
		src := NewMockSource()
		e := New(src, src, reasoner, logger)

		result, err := e.Enrich(context.Background(), sampleDatabaseRecord())
		require.NoError(t, err)
		require.Len(t, result.CodeAnalysis, 3)

		dbCtx := result.CodeAnalysis[0]
		assert.Equal(t, "app/database.py", dbCtx.FilePath)
		assert.Equal(t, []int{45}, dbCtx.ErrorLines)
		assert.Contains(t, dbCtx.ContextLines[45], "timeout=5")
		assert.Equal(t, "John Doe", dbCtx.BlameInfo[45].Author)

		modelsCtx := result.CodeAnalysis[1]
		assert.Equal(t, "app/models.py", modelsCtx.FilePath)
		assert.Equal(t, []int{23}, modelsCtx.ErrorLines)
		assert.Equal(t, "Jane Smith", modelsCtx.BlameInfo[23].Author)

		// No sample context: the frame degrades to an empty context.
		viewsCtx := result.CodeAnalysis[2]
		assert.Equal(t, "app/views.py", viewsCtx.FilePath)
		assert.True(t, viewsCtx.Empty())

		assert.Equal(t, "timeout", result.LLMAnalysis.RootCause)

		require.Len(t, result.GitCommits, 2)
		assert.Equal(t, "abc123", result.GitCommits[0].Hash)
		assert.Equal(t, "John Doe", result.GitCommits[0].Author)
		assert.Equal(t, []string{"app/database.py"}, result.GitCommits[0].FilesChanged)
		assert.Equal(t, "def456", result.GitCommits[1].Hash)
		assert.Equal(t, "Jane Smith", result.GitCommits[1].Author)
	})

	t.Run("context source failure never aborts enrichment", func(t *testing.T) {
		reasoner := &stubReasoner{}
		e := New(failingSource{}, NoBlame{}, reasoner, logger)

		result, err := e.Enrich(context.Background(), sampleDatabaseRecord())
		require.NoError(t, err)
		require.Len(t, result.CodeAnalysis, 3)
		for _, cc := range result.CodeAnalysis {
			assert.True(t, cc.Empty(), "context for %s should be empty", cc.FilePath)
		}
		assert.Empty(t, result.GitCommits)
		assert.Equal(t, 1, reasoner.calls)
	})

	t.Run("reasoner failure surfaces as AnalysisUnavailable", func(t *testing.T) {
		cause := errors.New("reasoner offline")
		src := NewMockSource()
		e := New(src, src, &stubReasoner{err: cause}, logger)

		_, err := e.Enrich(context.Background(), sampleDatabaseRecord())
		var unavailable *schemas.AnalysisUnavailable
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, "ERR_123", unavailable.ErrorID)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("duplicate frames in one file merge into a single context", func(t *testing.T) {
		record := sampleDatabaseRecord()
		record.StackTrace = []string{
			"app/database.py:45: connect()",
			"app/database.py:45: reconnect()",
		}
		src := NewMockSource()
		e := New(src, src, &stubReasoner{}, logger)

		result, err := e.Enrich(context.Background(), record)
		require.NoError(t, err)
		require.Len(t, result.CodeAnalysis, 1)
		require.Len(t, result.GitCommits, 1)
		assert.Equal(t, "abc123", result.GitCommits[0].Hash)
	})

	t.Run("nil record is rejected", func(t *testing.T) {
		src := NewMockSource()
		e := New(src, src, &stubReasoner{}, logger)
		_, err := e.Enrich(context.Background(), nil)
		require.Error(t, err)
	})
}
