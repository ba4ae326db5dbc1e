// Package tracker implements the error-tracking collaborator: the source of
// canonical ErrorRecords, either a built-in sample set or a remote service.
package tracker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/oncallzero/triage-cli/api/schemas"
)

// Mock serves a fixed set of sample incidents. It stands in for a real
// tracking backend and satisfies the same contract: a record for a known
// id, *schemas.NotFoundError for anything else.
type Mock struct {
	mu      sync.RWMutex
	records map[string]schemas.ErrorRecord
	logger  *zap.Logger
}

// NewMock creates a mock tracker pre-loaded with the sample incident set.
func NewMock(logger *zap.Logger) *Mock {
	m := &Mock{
		records: make(map[string]schemas.ErrorRecord),
		logger:  logger.Named("tracker.mock"),
	}
	for _, rec := range sampleRecords {
		m.records[rec.ErrorID] = rec
	}
	return m
}

// Register adds or replaces a record in the sample set.
func (m *Mock) Register(rec schemas.ErrorRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ErrorID] = rec
}

// FetchError implements schemas.Tracker.
func (m *Mock) FetchError(ctx context.Context, errorID string) (*schemas.ErrorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	rec, ok := m.records[errorID]
	m.mu.RUnlock()

	if !ok {
		m.logger.Debug("Unknown error id requested", zap.String("error_id", errorID))
		return nil, &schemas.NotFoundError{ErrorID: errorID}
	}

	// Return a copy so callers cannot mutate the fixture.
	out := rec
	out.StackTrace = append([]string(nil), rec.StackTrace...)
	return &out, nil
}

// sampleRecords is the built-in incident set.
var sampleRecords = []schemas.ErrorRecord{
	{
		ErrorID:   "ERR_123",
		Type:      "DatabaseError",
		Timestamp: "2024-02-20T10:30:00Z",
		Message:   "Database connection timeout",
		RequestID: "req_123",
		UserID:    "user_456",
		Endpoint:  "/api/v1/users",
		StackTrace: []string{
			"app/database.py:45: connect()",
			"app/models.py:23: get_user()",
			"app/views.py:12: user_view()",
		},
	},
	{
		ErrorID:   "ERR_456",
		Type:      "AuthenticationError",
		Timestamp: "2024-02-20T11:15:00Z",
		Message:   "Invalid authentication token",
		RequestID: "req_789",
		UserID:    "user_123",
		Endpoint:  "/api/v1/auth",
		StackTrace: []string{
			"app/auth.py:67: validate_token()",
			"app/middleware.py:34: auth_middleware()",
			"app/views.py:45: protected_view()",
		},
	},
}
