package enrich

import (
	"fmt"

	"github.com/oncallzero/triage-cli/api/schemas"
)

// MockSource serves the canned context windows and blame entries for the
// sample incident set. It implements both ContextSource and BlameSource.
type MockSource struct{}

// NewMockSource creates the fixture-backed source.
func NewMockSource() *MockSource {
	return &MockSource{}
}

type mockEntry struct {
	window map[int]string
	blame  schemas.BlameEntry
	known  bool
}

// fixtures is keyed by "file:line".
var fixtures = map[string]mockEntry{
	"app/database.py:45": {
		window: map[int]string{
			43: "def connect():",
			44: "    try:",
			45: "        db = Database(timeout=5)  # Error line",
			46: "        return db.connect()",
			47: "    except Exception as e:",
		},
		blame: schemas.BlameEntry{Author: "John Doe", Commit: "abc123", Date: "2024-02-19"},
		known: true,
	},
	"app/models.py:23": {
		window: map[int]string{
			21: "def get_user(user_id):",
			22: "    try:",
			23: "        return db.query(f'SELECT * FROM users WHERE id = {user_id}')",
			24: "    except Exception as e:",
			25: "        raise DatabaseError(str(e))",
		},
		blame: schemas.BlameEntry{Author: "Jane Smith", Commit: "def456", Date: "2024-02-18"},
		known: true,
	},
	"app/auth.py:67": {
		window: map[int]string{
			65: "def validate_token(token):",
			66: "    try:",
			67: "        if not token or len(token) < 32:  # Error line",
			68: "            raise AuthenticationError('Invalid token')",
			69: "        return decode_token(token)",
		},
		blame: schemas.BlameEntry{Author: "Bob Wilson", Commit: "ghi789", Date: "2024-02-17"},
		known: true,
	},
	"app/middleware.py:34": {
		window: map[int]string{
			32: "def auth_middleware(request):",
			33: "    try:",
			34: "        token = request.headers.get('Authorization')",
			35: "        if not token:",
			36: "            raise AuthenticationError('No token provided')",
		},
		blame: schemas.BlameEntry{Author: "Alice Brown", Commit: "jkl012", Date: "2024-02-16"},
		known: true,
	},
}

// Window implements ContextSource.
func (m *MockSource) Window(filePath string, line int) (map[int]string, error) {
	entry, ok := fixtures[fmt.Sprintf("%s:%d", filePath, line)]
	if !ok {
		return nil, fmt.Errorf("no sample context for %s:%d", filePath, line)
	}
	window := make(map[int]string, len(entry.window))
	for n, text := range entry.window {
		window[n] = text
	}
	return window, nil
}

// Blame implements BlameSource.
func (m *MockSource) Blame(filePath string, line int) (schemas.BlameEntry, bool) {
	entry, ok := fixtures[fmt.Sprintf("%s:%d", filePath, line)]
	if !ok || !entry.known {
		return schemas.BlameEntry{}, false
	}
	return entry.blame, true
}
