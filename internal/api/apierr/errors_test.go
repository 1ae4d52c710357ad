package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/paradox/internal/model"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.FieldError("email", "is required"), http.StatusBadRequest},
		{model.ErrIdentityNotFound, http.StatusNotFound},
		{fmt.Errorf("get: %w", model.ErrIdentityNotFound), http.StatusNotFound},
		{model.ErrReferralCodeNotFound, http.StatusBadRequest},
		{model.ErrEmailTaken, http.StatusConflict},
		{model.ErrIdentityExists, http.StatusConflict},
		{model.ErrInsufficientFunds, http.StatusBadRequest},
		{model.ErrHintAlreadyUnlocked, http.StatusBadRequest},
		{model.ErrLevelMismatch, http.StatusBadRequest},
		{model.ErrIncorrectAnswer, http.StatusBadRequest},
		{model.ErrSelfReferral, http.StatusBadRequest},
		{model.ErrReferralAlreadyRedeemed, http.StatusBadRequest},
		{model.ErrTxConflict, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
		{ForRequestBody(model.ErrIdentityNotFound), http.StatusBadRequest},
		{ForRequestBody(model.ErrInsufficientFunds), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestWriteErrorValidationFields(t *testing.T) {
	v := model.NewValidationError()
	v.Add("email", "is required")
	v.Add("display_name", "must be at least 3 characters")

	rec := httptest.NewRecorder()
	WriteError(rec, v)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeValidationFailed, body.Error.Code)
	assert.Equal(t, []string{"is required"}, body.Error.Fields["email"])
	assert.Len(t, body.Error.Fields, 2)
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: connection refused to 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
	assert.Contains(t, rec.Body.String(), CodeInternalError)
}
