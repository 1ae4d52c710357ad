package model

import "time"

// IdentityID identifies a participant across every ledger
type IdentityID string

// Identity is the registered participant record
type Identity struct {
	ID           IdentityID
	DisplayName  string
	Email        string
	ReferralCode string // immutable once issued
	CreatedAt    time.Time
}

// Registration bundles the records created together when a participant signs up.
// Storage backends persist all of them or none.
type Registration struct {
	Identity *Identity
	Player   *Player
	Referral *Referral
}

// NewRegistration builds the full set of default records for a new identity.
func NewRegistration(identity *Identity, avatarURL string) *Registration {
	return &Registration{
		Identity: identity,
		Player:   NewPlayer(identity, avatarURL),
		Referral: &Referral{
			IdentityID: identity.ID,
			Code:       identity.ReferralCode,
		},
	}
}
