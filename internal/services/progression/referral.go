package progression

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
)

// ReferralRedemption is the outcome of a successful referral redemption
type ReferralRedemption struct {
	Redeemer *model.Player
	IssuerID model.IdentityID
}

// RedeemReferral credits redeemer and the issuer of code. Both aggregates
// change in one unit of work, locked in ascending identity order.
func (e *Engine) RedeemReferral(ctx context.Context, redeemer model.IdentityID, code string) (_ *ReferralRedemption, err error) {
	ctx, span := e.startSpan(ctx, "progression.RedeemReferral", redeemer)
	defer func() { e.finish(span, "referral", redeemer, err) }()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, model.FieldError("ref_code", "is required")
	}

	ref, err := e.storage.GetReferralByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	issuer := ref.IdentityID
	if issuer == redeemer {
		return nil, model.ErrSelfReferral
	}

	var player *model.Player
	err = e.storage.Atomically(ctx, []model.IdentityID{redeemer, issuer}, func(ctx context.Context, tx storage.Tx) error {
		p, err := tx.Player(ctx, redeemer)
		if err != nil {
			return err
		}
		if err := p.RedeemReferral(); err != nil {
			return err
		}

		issuerRef, err := tx.Referral(ctx, issuer)
		if errors.Is(err, model.ErrIdentityNotFound) {
			// issuer deleted since the code lookup
			return model.ErrReferralCodeNotFound
		}
		if err != nil {
			return err
		}
		issuerRef.RecordSuccess()

		issuerPlayer, err := tx.Player(ctx, issuer)
		if err != nil {
			return err
		}
		if err := issuerPlayer.Credit(model.ReferralReward); err != nil {
			return err
		}

		player = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("referral redeemed",
		slog.String("identity_id", string(redeemer)),
		slog.String("issuer_id", string(issuer)))
	e.publish(model.EventReferralRedeemed, redeemer, model.ReferralRedeemedPayload{
		IssuerID: issuer,
		Reward:   model.ReferralReward,
	})

	return &ReferralRedemption{Redeemer: player, IssuerID: issuer}, nil
}
