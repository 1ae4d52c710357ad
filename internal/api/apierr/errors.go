package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/paradox/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeIdentityNotFound        = "IDENTITY_NOT_FOUND"
	CodeUnknownIdentity         = "UNKNOWN_IDENTITY"
	CodeQuestionNotFound        = "QUESTION_NOT_FOUND"
	CodeHintSetNotFound         = "HINT_SET_NOT_FOUND"
	CodeReferralCodeNotFound    = "REFERRAL_CODE_NOT_FOUND"
	CodeIdentityExists          = "IDENTITY_EXISTS"
	CodeEmailTaken              = "EMAIL_TAKEN"
	CodeReferralCodeTaken       = "REFERRAL_CODE_TAKEN"
	CodeLevelMismatch           = "LEVEL_MISMATCH"
	CodeHintAlreadyUnlocked     = "HINT_ALREADY_UNLOCKED"
	CodeIncorrectAnswer         = "INCORRECT_ANSWER"
	CodeSelfReferral            = "SELF_REFERRAL"
	CodeReferralAlreadyRedeemed = "REFERRAL_ALREADY_REDEEMED"
	CodeInsufficientFunds       = "INSUFFICIENT_FUNDS"
	CodeInternalError           = "INTERNAL_ERROR"
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

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return &httpError{http.StatusBadRequest, APIError{
			Code:    CodeValidationFailed,
			Message: "Request validation failed",
			Fields:  verr.Fields,
		}}
	}

	switch {
	// Lookups
	case errors.Is(err, model.ErrIdentityNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeIdentityNotFound, Message: "Identity not found"}}
	case errors.Is(err, model.ErrHintSetNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeHintSetNotFound, Message: "No hints for this level"}}
	case errors.Is(err, model.ErrQuestionNotFound):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeQuestionNotFound, Message: "No question for this level"}}
	case errors.Is(err, model.ErrReferralCodeNotFound):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeReferralCodeNotFound, Message: "Unknown referral code"}}

	// Registration
	case errors.Is(err, model.ErrIdentityExists):
		return &httpError{http.StatusConflict, APIError{Code: CodeIdentityExists, Message: "Identity already registered"}}
	case errors.Is(err, model.ErrEmailTaken):
		return &httpError{http.StatusConflict, APIError{Code: CodeEmailTaken, Message: "Email already registered"}}
	case errors.Is(err, model.ErrReferralCodeTaken):
		return &httpError{http.StatusConflict, APIError{Code: CodeReferralCodeTaken, Message: "Referral code already issued"}}

	// Progression
	case errors.Is(err, model.ErrLevelMismatch):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeLevelMismatch, Message: "Level does not match the player's current level"}}
	case errors.Is(err, model.ErrHintAlreadyUnlocked):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeHintAlreadyUnlocked, Message: "Hint already unlocked"}}
	case errors.Is(err, model.ErrIncorrectAnswer):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeIncorrectAnswer, Message: "Incorrect answer"}}
	case errors.Is(err, model.ErrInsufficientFunds):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeInsufficientFunds, Message: "Insufficient coins"}}

	// Referrals
	case errors.Is(err, model.ErrSelfReferral):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeSelfReferral, Message: "Cannot redeem your own referral code"}}
	case errors.Is(err, model.ErrReferralAlreadyRedeemed):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeReferralAlreadyRedeemed, Message: "Referral already redeemed"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// ForRequestBody adjusts err for an identity named in a request body rather
// than the URL: an unknown identity is a bad request, not a missing resource.
func ForRequestBody(err error) error {
	if errors.Is(err, model.ErrIdentityNotFound) {
		return &httpError{http.StatusBadRequest, APIError{Code: CodeUnknownIdentity, Message: "Unknown identity"}}
	}
	return err
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewNotFoundError creates a not found error with a custom body
func NewNotFoundError(code, message string) error {
	return &httpError{http.StatusNotFound, APIError{Code: code, Message: message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
