package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/triviastake/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidStage        = "INVALID_STAGE"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeOAuthStateInvalid   = "OAUTH_STATE_INVALID"
	CodeWalletNotLinked     = "WALLET_NOT_LINKED"
	CodeGameNotFound        = "GAME_NOT_FOUND"
	CodeGameEnded           = "GAME_ENDED"
	CodeGameNotEnded        = "GAME_NOT_ENDED"
	CodeGameFull            = "GAME_FULL"
	CodeAlreadyJoined       = "ALREADY_JOINED"
	CodeNotAParticipant     = "NOT_A_PARTICIPANT"
	CodeAlreadySubmitted    = "ALREADY_SUBMITTED"
	CodeNotEligible         = "NOT_ELIGIBLE"
	CodeRewardClaimed       = "REWARD_ALREADY_CLAIMED"
	CodeMintAmountOverCap   = "MINT_AMOUNT_OVER_CAP"
	CodeMintingPaused       = "MINTING_PAUSED"
	CodeMintFailed          = "MINT_FAILED"
	CodeExternalAuthFailure = "EXTERNAL_AUTH_FAILURE"
	CodeSourceUnavailable   = "SOURCE_UNAVAILABLE"
	CodeGenerationFailed    = "GENERATION_FAILED"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError. Validation failures carry
// the underlying message; collaborator and storage failures do not.
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Request errors
	case errors.Is(err, model.ErrInvalidInput):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}
	case errors.Is(err, model.ErrInvalidStage):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidStage, err.Error()}}
	case errors.Is(err, model.ErrOAuthStateInvalid):
		return &httpError{http.StatusBadRequest, APIError{CodeOAuthStateInvalid, "Login request is invalid or expired"}}
	case errors.Is(err, model.ErrWalletNotLinked):
		return &httpError{http.StatusBadRequest, APIError{CodeWalletNotLinked, "No wallet linked to this handle"}}

	// Session errors
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusBadRequest, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrSessionEnded):
		return &httpError{http.StatusBadRequest, APIError{CodeGameEnded, "Game has ended"}}
	case errors.Is(err, model.ErrSessionNotEnded):
		return &httpError{http.StatusBadRequest, APIError{CodeGameNotEnded, "Game has not ended"}}
	case errors.Is(err, model.ErrMintAmountOverCap):
		return &httpError{http.StatusBadRequest, APIError{CodeMintAmountOverCap, "Mint amount is over the cap"}}

	// Identity errors
	case errors.Is(err, model.ErrAuthenticationRequired):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
	case errors.Is(err, model.ErrNotAParticipant):
		return &httpError{http.StatusUnauthorized, APIError{CodeNotAParticipant, "Not a participant in this game"}}
	case errors.Is(err, model.ErrNotEligible):
		return &httpError{http.StatusUnauthorized, APIError{CodeNotEligible, "Not eligible for a reward"}}

	// Admission errors
	case errors.Is(err, model.ErrCapacityExceeded):
		return &httpError{http.StatusForbidden, APIError{CodeGameFull, "Game is full"}}
	case errors.Is(err, model.ErrAlreadyJoined):
		return &httpError{http.StatusForbidden, APIError{CodeAlreadyJoined, "Already joined this game"}}

	// Conflicts
	case errors.Is(err, model.ErrAlreadySubmitted):
		return &httpError{http.StatusConflict, APIError{CodeAlreadySubmitted, "Stage already submitted"}}
	case errors.Is(err, model.ErrRewardAlreadyClaimed):
		return &httpError{http.StatusConflict, APIError{CodeRewardClaimed, "Reward already claimed"}}
	case errors.Is(err, model.ErrMintingPaused):
		return &httpError{http.StatusConflict, APIError{CodeMintingPaused, "Minting is paused"}}

	// Collaborator failures
	case errors.Is(err, model.ErrMintFailed):
		return &httpError{http.StatusBadGateway, APIError{CodeMintFailed, "Mint failed"}}
	case errors.Is(err, model.ErrExternalAuthFailure):
		return &httpError{http.StatusInternalServerError, APIError{CodeExternalAuthFailure, "Authentication provider failed"}}
	case errors.Is(err, model.ErrSourceUnavailable):
		return &httpError{http.StatusInternalServerError, APIError{CodeSourceUnavailable, "Source text unavailable"}}
	case errors.Is(err, model.ErrGenerationFailed):
		return &httpError{http.StatusInternalServerError, APIError{CodeGenerationFailed, "Question generation failed"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
