package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
)

// HintPurchase is the outcome of a successful hint purchase
type HintPurchase struct {
	Player *model.Player
	Cost   int
	// Hints holds the texts of every tier now unlocked at the level
	Hints []string
}

// PurchaseHint unlocks tier at level for id and debits the tier's cost.
func (e *Engine) PurchaseHint(ctx context.Context, id model.IdentityID, level, tier int) (_ *HintPurchase, err error) {
	ctx, span := e.startSpan(ctx, "progression.PurchaseHint", id)
	defer func() { e.finish(span, "hint purchase", id, err) }()

	if _, ok := model.HintCost(tier); !ok {
		return nil, model.FieldError("requested_tier", fmt.Sprintf("must be between 1 and %d", model.MaxHintTier))
	}

	var (
		player *model.Player
		cost   int
	)
	err = e.storage.Atomically(ctx, []model.IdentityID{id}, func(ctx context.Context, tx storage.Tx) error {
		p, err := tx.Player(ctx, id)
		if err != nil {
			return err
		}
		cost, err = p.PurchaseHint(level, tier)
		if err != nil {
			return err
		}
		player = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("hint purchased",
		slog.String("identity_id", string(id)),
		slog.Int("level", level),
		slog.Int("tier", tier),
		slog.Int("cost", cost),
		slog.Int("coins", player.Coins))
	e.publish(model.EventHintPurchased, id, model.HintPurchasedPayload{
		Level: level,
		Tier:  tier,
		Cost:  cost,
		Coins: player.Coins,
	})

	return &HintPurchase{
		Player: player,
		Cost:   cost,
		Hints:  e.hintTexts(ctx, level, tier),
	}, nil
}

// UnlockedHints describes the hints a player has paid for at their current level
type UnlockedHints struct {
	Level int
	Tier  int
	Hints []string
}

// UnlockedHints returns the hint texts id has unlocked at their current level
func (e *Engine) UnlockedHints(ctx context.Context, id model.IdentityID) (*UnlockedHints, error) {
	p, err := e.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UnlockedHints{
		Level: p.Hints.Level,
		Tier:  p.Hints.TierUnlocked,
		Hints: e.hintTexts(ctx, p.Hints.Level, p.Hints.TierUnlocked),
	}, nil
}

// hintTexts looks up catalog text for tiers 1..tier. A missing hint set is
// not fatal: the purchase itself has already been recorded.
func (e *Engine) hintTexts(ctx context.Context, level, tier int) []string {
	hs, err := e.storage.GetHintSet(ctx, level)
	if err != nil {
		if !errors.Is(err, model.ErrHintSetNotFound) {
			e.logger.Error("failed to load hint set",
				slog.Int("level", level),
				slog.String("error", err.Error()))
		} else {
			e.logger.Warn("no hint set for level", slog.Int("level", level))
		}
		return []string{}
	}
	return hs.Unlocked(tier)
}
