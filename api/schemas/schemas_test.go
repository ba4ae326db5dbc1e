package schemas

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomy(t *testing.T) {
	t.Run("wrapped errors stay matchable", func(t *testing.T) {
		cause := errors.New("connection refused")
		wrapped := fmt.Errorf("fetching record: %w", &TransientFetchError{ErrorID: "ERR_123", Err: cause})

		var transient *TransientFetchError
		require.ErrorAs(t, wrapped, &transient)
		assert.Equal(t, "ERR_123", transient.ErrorID)
		assert.ErrorIs(t, wrapped, cause)
	})

	t.Run("taxonomy members are distinct", func(t *testing.T) {
		err := fmt.Errorf("load: %w", &NotFoundError{ErrorID: "ERR_999"})

		var notFound *NotFoundError
		assert.True(t, errors.As(err, &notFound))

		var malformed *MalformedReport
		assert.False(t, errors.As(err, &malformed))
	})

	t.Run("messages carry the error id", func(t *testing.T) {
		assert.Contains(t, (&NotFoundError{ErrorID: "ERR_999"}).Error(), "ERR_999")
		assert.Contains(t, (&AnalysisUnavailable{ErrorID: "ERR_123", Err: errors.New("x")}).Error(), "ERR_123")
		assert.Contains(t, (&MalformedReport{ErrorID: "ERR_123", Reason: "missing type"}).Error(), "missing type")
	})
}

func TestCodeContext_Empty(t *testing.T) {
	assert.True(t, CodeContext{FilePath: "app/views.py"}.Empty())
	assert.False(t, CodeContext{
		FilePath:     "app/database.py",
		ErrorLines:   []int{45},
		ContextLines: map[int]string{45: "db = Database(timeout=5)"},
	}.Empty())
}
