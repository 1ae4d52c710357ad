package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/paradox/internal/model"
)

// ErrReferralCodeExhausted is returned when every generated referral code
// collided with an existing one.
var ErrReferralCodeExhausted = errors.New("could not issue a unique referral code")

// RegisterInput holds the fields accepted at registration
type RegisterInput struct {
	IdentityID  model.IdentityID
	DisplayName string
	Email       string
	AvatarURL   string
}

// Profile is the combined view of an identity and its ledgers
type Profile struct {
	Identity *model.Identity
	Player   *model.Player
	Referral *model.Referral
}

// Register creates the identity, player state, hint ledger entry and referral
// ledger entry for a new participant in a single step.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (_ *Profile, err error) {
	ctx, span := e.startSpan(ctx, "progression.Register", in.IdentityID)
	defer func() { e.finish(span, "register", in.IdentityID, err) }()

	id := model.IdentityID(strings.TrimSpace(string(in.IdentityID)))
	name := strings.TrimSpace(in.DisplayName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	avatar := strings.TrimSpace(in.AvatarURL)

	v := model.NewValidationError()
	v.CheckRequired("identity_id", string(id))
	v.CheckDisplayName("display_name", name)
	v.CheckEmail("email", email)
	v.CheckOptionalURL("avatar_url", avatar)
	if err := v.Err(); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= e.cfg.ReferralCodeAttempts; attempt++ {
		identity := &model.Identity{
			ID:           id,
			DisplayName:  name,
			Email:        email,
			ReferralCode: e.newReferralCode(name),
			CreatedAt:    e.clock.Now(),
		}
		reg := model.NewRegistration(identity, avatar)

		err := e.storage.CreatePlayer(ctx, reg)
		if errors.Is(err, model.ErrReferralCodeTaken) {
			e.logger.Warn("referral code collision",
				slog.String("identity_id", string(id)),
				slog.String("code", identity.ReferralCode),
				slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}

		e.logger.Info("player registered",
			slog.String("identity_id", string(id)),
			slog.String("referral_code", identity.ReferralCode))
		e.publish(model.EventPlayerRegistered, id, nil)

		return &Profile{Identity: reg.Identity, Player: reg.Player.Clone(), Referral: reg.Referral.Clone()}, nil
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrReferralCodeExhausted, e.cfg.ReferralCodeAttempts)
}

// newReferralCode joins the first runes of the display name with a slice of
// a fresh random UUID.
func (e *Engine) newReferralCode(name string) string {
	prefix := []rune(name)
	if len(prefix) > model.ReferralCodePrefixLength {
		prefix = prefix[:model.ReferralCodePrefixLength]
	}
	suffix := strings.ReplaceAll(e.random.UUID(), "-", "")
	if len(suffix) > model.ReferralCodeSuffixLength {
		suffix = suffix[:model.ReferralCodeSuffixLength]
	}
	return string(prefix) + suffix
}

// Profile returns the identity together with its player state and referral entry
func (e *Engine) Profile(ctx context.Context, id model.IdentityID) (*Profile, error) {
	identity, err := e.storage.GetIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	player, err := e.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	referral, err := e.storage.GetReferral(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Profile{Identity: identity, Player: player, Referral: referral}, nil
}

// IsRegistered reports whether an identity exists
func (e *Engine) IsRegistered(ctx context.Context, id model.IdentityID) (bool, error) {
	_, err := e.storage.GetIdentity(ctx, id)
	if errors.Is(err, model.ErrIdentityNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteIdentity removes an identity and everything it owns
func (e *Engine) DeleteIdentity(ctx context.Context, id model.IdentityID) (err error) {
	ctx, span := e.startSpan(ctx, "progression.DeleteIdentity", id)
	defer func() { e.finish(span, "delete identity", id, err) }()

	if err := e.storage.DeleteIdentity(ctx, id); err != nil {
		return err
	}
	e.logger.Info("identity deleted", slog.String("identity_id", string(id)))
	e.publish(model.EventPlayerDeleted, id, nil)
	return nil
}
