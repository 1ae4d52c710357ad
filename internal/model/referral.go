package model

import "fmt"

// Referral is the issuer side of the referral programme for one identity.
type Referral struct {
	IdentityID   IdentityID
	Code         string
	SuccessCount int
	Version      int64
}

// Clone returns an independent copy.
func (r *Referral) Clone() *Referral {
	c := *r
	return &c
}

// RecordSuccess counts one successful redemption of this code.
func (r *Referral) RecordSuccess() {
	r.SuccessCount++
}

// CheckTransition verifies r is a legal successor of prev.
func (r *Referral) CheckTransition(prev *Referral) error {
	if r.Code != prev.Code {
		return fmt.Errorf("%w: referral code changed", ErrInvariantViolation)
	}
	if r.SuccessCount < prev.SuccessCount {
		return fmt.Errorf("%w: referral success count decreased", ErrInvariantViolation)
	}
	return nil
}
