package model

import (
	"errors"
	"sort"
	"strings"
)

// Common errors used across the application
var (
	// Not found
	ErrIdentityNotFound     = errors.New("identity not found")
	ErrReferralCodeNotFound = errors.New("referral code not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrHintSetNotFound      = errors.New("hint set not found")

	// Registration conflicts
	ErrIdentityExists    = errors.New("identity already registered")
	ErrEmailTaken        = errors.New("email already registered")
	ErrReferralCodeTaken = errors.New("referral code already issued")

	// Progression conflicts
	ErrLevelMismatch       = errors.New("level does not match the player's current level")
	ErrHintAlreadyUnlocked = errors.New("hint tier already unlocked")
	ErrIncorrectAnswer     = errors.New("incorrect answer")

	// Referral conflicts
	ErrSelfReferral            = errors.New("cannot redeem own referral code")
	ErrReferralAlreadyRedeemed = errors.New("referral already redeemed")

	// Economy
	ErrInsufficientFunds = errors.New("insufficient coins")

	// Internal
	ErrInvariantViolation = errors.New("aggregate invariant violated")
	ErrNotReserved        = errors.New("identity was not reserved for this transaction")
	ErrTxConflict         = errors.New("transaction aborted after repeated conflicts")
)

// ValidationError reports input problems attributed to request fields.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a problem with field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Err returns e if any field problem was recorded, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldError is shorthand for a ValidationError carrying a single field problem.
func FieldError(field, message string) error {
	v := NewValidationError()
	v.Add(field, message)
	return v
}

// ErrorKind classifies errors for callers that only care about the broad
// category of a failure.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindInsufficientFunds
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInsufficientFunds:
		return "insufficient_funds"
	default:
		return "internal"
	}
}

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrIdentityNotFound, KindNotFound},
	{ErrReferralCodeNotFound, KindNotFound},
	{ErrQuestionNotFound, KindNotFound},
	{ErrHintSetNotFound, KindNotFound},
	{ErrIdentityExists, KindConflict},
	{ErrEmailTaken, KindConflict},
	{ErrReferralCodeTaken, KindConflict},
	{ErrLevelMismatch, KindConflict},
	{ErrHintAlreadyUnlocked, KindConflict},
	{ErrIncorrectAnswer, KindConflict},
	{ErrSelfReferral, KindConflict},
	{ErrReferralAlreadyRedeemed, KindConflict},
	{ErrInsufficientFunds, KindInsufficientFunds},
}

// Kind classifies err. Anything unrecognised, including nil, is KindInternal.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsDomainError reports whether err is an expected rejection rather than an
// internal failure.
func IsDomainError(err error) bool {
	return err != nil && Kind(err) != KindInternal
}
