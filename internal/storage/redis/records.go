package redis

import (
	"time"

	"github.com/mcoot/paradox/internal/model"
)

type identityRecord struct {
	ID           model.IdentityID `json:"id"`
	DisplayName  string           `json:"display_name"`
	Email        string           `json:"email"`
	ReferralCode string           `json:"referral_code"`
	CreatedAt    time.Time        `json:"created_at"`
}

func identityToRecord(i *model.Identity) identityRecord {
	return identityRecord{
		ID:           i.ID,
		DisplayName:  i.DisplayName,
		Email:        i.Email,
		ReferralCode: i.ReferralCode,
		CreatedAt:    i.CreatedAt,
	}
}

func (r identityRecord) toModel() *model.Identity {
	return &model.Identity{
		ID:           r.ID,
		DisplayName:  r.DisplayName,
		Email:        r.Email,
		ReferralCode: r.ReferralCode,
		CreatedAt:    r.CreatedAt,
	}
}

type playerRecord struct {
	IdentityID       model.IdentityID `json:"identity_id"`
	DisplayName      string           `json:"display_name"`
	AvatarURL        string           `json:"avatar_url,omitempty"`
	RegisteredAt     time.Time        `json:"registered_at"`
	Level            int              `json:"level"`
	Attempts         int              `json:"attempts"`
	Score            int              `json:"score"`
	Coins            int              `json:"coins"`
	BonusCoins       int              `json:"bonus_coins"`
	ReferralRedeemed bool             `json:"referral_redeemed"`
	Version          int64            `json:"version"`
}

type hintsRecord struct {
	Level        int `json:"level"`
	TierUnlocked int `json:"tier_unlocked"`
}

func playerToRecords(p *model.Player) (playerRecord, hintsRecord) {
	return playerRecord{
			IdentityID:       p.IdentityID,
			DisplayName:      p.DisplayName,
			AvatarURL:        p.AvatarURL,
			RegisteredAt:     p.RegisteredAt,
			Level:            p.Level,
			Attempts:         p.Attempts,
			Score:            p.Score,
			Coins:            p.Coins,
			BonusCoins:       p.BonusCoins,
			ReferralRedeemed: p.ReferralRedeemed,
			Version:          p.Version,
		}, hintsRecord{
			Level:        p.Hints.Level,
			TierUnlocked: p.Hints.TierUnlocked,
		}
}

func playerFromRecords(p playerRecord, h hintsRecord) *model.Player {
	return &model.Player{
		IdentityID:       p.IdentityID,
		DisplayName:      p.DisplayName,
		AvatarURL:        p.AvatarURL,
		RegisteredAt:     p.RegisteredAt,
		Level:            p.Level,
		Attempts:         p.Attempts,
		Score:            p.Score,
		Coins:            p.Coins,
		BonusCoins:       p.BonusCoins,
		ReferralRedeemed: p.ReferralRedeemed,
		Hints:            model.HintProgress{Level: h.Level, TierUnlocked: h.TierUnlocked},
		Version:          p.Version,
	}
}

type referralRecord struct {
	IdentityID   model.IdentityID `json:"identity_id"`
	Code         string           `json:"code"`
	SuccessCount int              `json:"success_count"`
	Version      int64            `json:"version"`
}

func referralToRecord(r *model.Referral) referralRecord {
	return referralRecord{
		IdentityID:   r.IdentityID,
		Code:         r.Code,
		SuccessCount: r.SuccessCount,
		Version:      r.Version,
	}
}

func (r referralRecord) toModel() *model.Referral {
	return &model.Referral{
		IdentityID:   r.IdentityID,
		Code:         r.Code,
		SuccessCount: r.SuccessCount,
		Version:      r.Version,
	}
}

type questionRecord struct {
	Level          int    `json:"level"`
	MediaReference string `json:"media_reference"`
	Answer         string `json:"answer"`
}

type hintSetRecord struct {
	Level int      `json:"level"`
	Tiers []string `json:"tiers"`
}

type memberRecord struct {
	ID          model.MemberID `json:"id"`
	Name        string         `json:"name"`
	Position    string         `json:"position"`
	Category    string         `json:"category"`
	ImageURL    string         `json:"image_url,omitempty"`
	GithubURL   string         `json:"github_url,omitempty"`
	LinkedInURL string         `json:"linkedin_url,omitempty"`
}
