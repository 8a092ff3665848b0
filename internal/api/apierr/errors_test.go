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

	"github.com/mcoot/triviastake/internal/model"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{model.ErrInvalidInput, http.StatusBadRequest, CodeInvalidRequest},
		{model.ErrInvalidStage, http.StatusBadRequest, CodeInvalidStage},
		{model.ErrSessionNotFound, http.StatusBadRequest, CodeGameNotFound},
		{model.ErrSessionEnded, http.StatusBadRequest, CodeGameEnded},
		{model.ErrSessionNotEnded, http.StatusBadRequest, CodeGameNotEnded},
		{model.ErrMintAmountOverCap, http.StatusBadRequest, CodeMintAmountOverCap},
		{model.ErrWalletNotLinked, http.StatusBadRequest, CodeWalletNotLinked},
		{model.ErrOAuthStateInvalid, http.StatusBadRequest, CodeOAuthStateInvalid},
		{model.ErrAuthenticationRequired, http.StatusUnauthorized, CodeUnauthorized},
		{model.ErrNotAParticipant, http.StatusUnauthorized, CodeNotAParticipant},
		{model.ErrNotEligible, http.StatusUnauthorized, CodeNotEligible},
		{model.ErrCapacityExceeded, http.StatusForbidden, CodeGameFull},
		{model.ErrAlreadyJoined, http.StatusForbidden, CodeAlreadyJoined},
		{model.ErrAlreadySubmitted, http.StatusConflict, CodeAlreadySubmitted},
		{model.ErrRewardAlreadyClaimed, http.StatusConflict, CodeRewardClaimed},
		{model.ErrMintingPaused, http.StatusConflict, CodeMintingPaused},
		{model.ErrMintFailed, http.StatusBadGateway, CodeMintFailed},
		{model.ErrExternalAuthFailure, http.StatusInternalServerError, CodeExternalAuthFailure},
		{model.ErrSourceUnavailable, http.StatusInternalServerError, CodeSourceUnavailable},
		{model.ErrGenerationFailed, http.StatusInternalServerError, CodeGenerationFailed},
		{model.ErrStorageFailure, http.StatusInternalServerError, CodeInternalError},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			he := toHTTPError(fmt.Errorf("context: %w", tt.err))
			assert.Equal(t, tt.status, he.status)
			assert.Equal(t, tt.code, he.apiError.Code)
		})
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, model.ErrCapacityExceeded)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, CodeGameFull, body.Error.Code)
	assert.NotEmpty(t, body.Error.Message)
}

func TestStorageDetailsAreNotLeaked(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, fmt.Errorf("%w: dial tcp 10.0.0.5:5432", model.ErrStorageFailure))

	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
}

func TestNewInvalidRequestError(t *testing.T) {
	err := NewInvalidRequestError("handle is required")
	assert.Equal(t, http.StatusBadRequest, Status(err))
	assert.Equal(t, "handle is required", err.Error())
}
