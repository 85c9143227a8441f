package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappedErrorMatchesSentinel(t *testing.T) {
	err := Wrap(fmt.Errorf("dial tcp: refused"), ErrStoreUnavailable.Code, ErrStoreUnavailable.Status, "failed to write ledger")

	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.False(t, errors.Is(err, ErrMissingSemester))
	assert.Contains(t, err.Error(), "dial tcp")
}

func TestCloneKeepsCode(t *testing.T) {
	err := Clone(ErrValidation, "bad row")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "bad row", err.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	wrapped := fmt.Errorf("outer: %w", ErrMissingSemester)
	assert.Equal(t, ErrMissingSemester.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}
