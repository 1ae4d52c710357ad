package model

import (
	"fmt"
	"time"
)

// HintProgress tracks the highest hint tier a player has paid for at their
// current level. Level always equals the owning Player's Level.
type HintProgress struct {
	Level        int
	TierUnlocked int
}

// Player is the progression aggregate: level, score and wallet plus the hint
// progress at the current level. Every mutation goes through its methods so
// the invariants hold at each commit.
type Player struct {
	IdentityID       IdentityID
	DisplayName      string
	AvatarURL        string
	RegisteredAt     time.Time
	Level            int
	Attempts         int
	Score            int
	Coins            int
	BonusCoins       int
	ReferralRedeemed bool
	Hints            HintProgress
	Version          int64
}

// NewPlayer returns a player at the starting level with the starting wallet.
func NewPlayer(identity *Identity, avatarURL string) *Player {
	return &Player{
		IdentityID:   identity.ID,
		DisplayName:  identity.DisplayName,
		AvatarURL:    avatarURL,
		RegisteredAt: identity.CreatedAt,
		Level:        StartingLevel,
		Coins:        StartingCoins,
		BonusCoins:   StartingBonusCoins,
		Hints:        HintProgress{Level: StartingLevel},
	}
}

// Clone returns an independent copy.
func (p *Player) Clone() *Player {
	c := *p
	return &c
}

// PurchaseHint unlocks the requested tier at level and debits its cost.
func (p *Player) PurchaseHint(level, tier int) (int, error) {
	cost, ok := HintCost(tier)
	if !ok {
		return 0, FieldError("requested_tier", fmt.Sprintf("must be between 1 and %d", MaxHintTier))
	}
	if level != p.Level {
		return 0, ErrLevelMismatch
	}
	if tier <= p.Hints.TierUnlocked {
		return 0, ErrHintAlreadyUnlocked
	}
	if p.Coins < cost {
		return 0, ErrInsufficientFunds
	}
	p.Coins -= cost
	p.Hints.TierUnlocked = tier
	return cost, nil
}

// AdvanceLevel rewards a correct answer at level and moves to the next one.
func (p *Player) AdvanceLevel(level int) error {
	if level != p.Level {
		return ErrLevelMismatch
	}
	p.Coins += CorrectAnswerReward
	p.Score += CorrectAnswerScore
	p.Level++
	p.Hints = HintProgress{Level: p.Level}
	return nil
}

// Credit adds amount coins to the wallet.
func (p *Player) Credit(amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative credit %d", ErrInvariantViolation, amount)
	}
	p.Coins += amount
	return nil
}

// RedeemReferral marks the one-shot referral bonus as used and pays it out.
func (p *Player) RedeemReferral() error {
	if p.ReferralRedeemed {
		return ErrReferralAlreadyRedeemed
	}
	p.ReferralRedeemed = true
	p.Coins += ReferralReward
	return nil
}

// CheckInvariants verifies the aggregate is internally consistent.
func (p *Player) CheckInvariants() error {
	switch {
	case p.Level < StartingLevel:
		return fmt.Errorf("%w: level %d", ErrInvariantViolation, p.Level)
	case p.Coins < 0, p.BonusCoins < 0:
		return fmt.Errorf("%w: negative balance", ErrInvariantViolation)
	case p.Score < 0, p.Attempts < 0:
		return fmt.Errorf("%w: negative counter", ErrInvariantViolation)
	case p.Hints.Level != p.Level:
		return fmt.Errorf("%w: hint level %d for player level %d", ErrInvariantViolation, p.Hints.Level, p.Level)
	case p.Hints.TierUnlocked < 0, p.Hints.TierUnlocked > MaxHintTier:
		return fmt.Errorf("%w: hint tier %d", ErrInvariantViolation, p.Hints.TierUnlocked)
	}
	return nil
}

// CheckTransition verifies p is a legal successor of prev.
func (p *Player) CheckTransition(prev *Player) error {
	if err := p.CheckInvariants(); err != nil {
		return err
	}
	if p.Level < prev.Level {
		return fmt.Errorf("%w: level decreased from %d to %d", ErrInvariantViolation, prev.Level, p.Level)
	}
	if prev.ReferralRedeemed && !p.ReferralRedeemed {
		return fmt.Errorf("%w: referral redemption reverted", ErrInvariantViolation)
	}
	return nil
}
