package progression

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
)

// GrantCoins adds an externally earned reward of amount coins to id.
func (e *Engine) GrantCoins(ctx context.Context, id model.IdentityID, amount int) (_ *model.Player, err error) {
	ctx, span := e.startSpan(ctx, "progression.GrantCoins", id)
	defer func() { e.finish(span, "coin grant", id, err) }()

	if amount < 0 || amount > model.MaxCoinGrant {
		return nil, model.FieldError("amount", fmt.Sprintf("must be between 0 and %d", model.MaxCoinGrant))
	}

	var player *model.Player
	err = e.storage.Atomically(ctx, []model.IdentityID{id}, func(ctx context.Context, tx storage.Tx) error {
		p, err := tx.Player(ctx, id)
		if err != nil {
			return err
		}
		if err := p.Credit(amount); err != nil {
			return err
		}
		player = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("coins granted",
		slog.String("identity_id", string(id)),
		slog.Int("amount", amount),
		slog.Int("coins", player.Coins))
	e.publish(model.EventCoinsGranted, id, model.CoinsGrantedPayload{
		Amount: amount,
		Coins:  player.Coins,
	})
	return player, nil
}
