package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFromStore(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"not found", gorm.ErrRecordNotFound, CodeNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("find job: %w", gorm.ErrRecordNotFound), CodeNotFound, http.StatusNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, CodeConflict, http.StatusBadRequest},
		{"foreign key", gorm.ErrForeignKeyViolated, CodeValidation, http.StatusBadRequest},
		{"anything else", errors.New("connection reset"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr, ok := As(FromStore(tt.err, "job", "42"))
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.HTTPStatus)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}

func TestFromStorePassesAppErrorsThrough(t *testing.T) {
	orig := Validation("job_id is required")
	assert.Same(t, orig, FromStore(orig, "job", ""))
	assert.Nil(t, FromStore(nil, "job", ""))
}

func TestNotFoundDetails(t *testing.T) {
	err := NotFound("client bill", "abc")
	assert.Equal(t, "client bill not found", err.Message)
	assert.Equal(t, "abc", err.Details["id"])
	assert.Empty(t, NotFound("client bill", "").Details)
}

func TestInternalHidesCause(t *testing.T) {
	err := Internal(errors.New("pq: relation does not exist"))
	assert.Equal(t, "an internal error occurred", err.Message)
	assert.Contains(t, err.Error(), "relation does not exist")
}
