package model

import "time"

// EventType identifies the type of economy event
type EventType string

const (
	EventPlayerRegistered EventType = "player_registered"
	EventHintPurchased    EventType = "hint_purchased"
	EventLevelCleared     EventType = "level_cleared"
	EventReferralRedeemed EventType = "referral_redeemed"
	EventCoinsGranted     EventType = "coins_granted"
	EventPlayerDeleted    EventType = "player_deleted"
)

// Event describes a committed state change. Events are only published after
// the transaction that produced them has committed.
type Event struct {
	Type       EventType  `json:"type"`
	Timestamp  time.Time  `json:"timestamp"`
	IdentityID IdentityID `json:"identity_id"`
	Payload    any        `json:"payload,omitempty"`
}

// HintPurchasedPayload contains data for hint purchase events
type HintPurchasedPayload struct {
	Level int `json:"level"`
	Tier  int `json:"tier"`
	Cost  int `json:"cost"`
	Coins int `json:"coins"`
}

// LevelClearedPayload contains data for level cleared events
type LevelClearedPayload struct {
	ClearedLevel int `json:"cleared_level"`
	Level        int `json:"level"`
	Score        int `json:"score"`
}

// ReferralRedeemedPayload contains data for referral events
type ReferralRedeemedPayload struct {
	IssuerID IdentityID `json:"issuer_id"`
	Reward   int        `json:"reward"`
}

// CoinsGrantedPayload contains data for coin grant events
type CoinsGrantedPayload struct {
	Amount int `json:"amount"`
	Coins  int `json:"coins"`
}
