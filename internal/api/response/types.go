package response

import (
	"time"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/services/leaderboard"
	"github.com/mcoot/paradox/internal/services/progression"
)

// PlayerState represents a player's progression in API responses
type PlayerState struct {
	Level            int  `json:"level"`
	Attempts         int  `json:"attempts"`
	Score            int  `json:"score"`
	Coins            int  `json:"coins"`
	BonusCoins       int  `json:"bonus_coins"`
	ReferralRedeemed bool `json:"referral_redeemed"`
	HintTier         int  `json:"hint_tier"`
}

// PlayerStateFromModel converts a model.Player
func PlayerStateFromModel(p *model.Player) PlayerState {
	return PlayerState{
		Level:            p.Level,
		Attempts:         p.Attempts,
		Score:            p.Score,
		Coins:            p.Coins,
		BonusCoins:       p.BonusCoins,
		ReferralRedeemed: p.ReferralRedeemed,
		HintTier:         p.Hints.TierUnlocked,
	}
}

// User is a registered participant together with their progression
type User struct {
	IdentityID        string      `json:"identity_id"`
	DisplayName       string      `json:"display_name"`
	Email             string      `json:"email"`
	AvatarURL         string      `json:"avatar_url,omitempty"`
	ReferralCode      string      `json:"referral_code"`
	ReferralSuccesses int         `json:"referral_successes"`
	CreatedAt         time.Time   `json:"created_at"`
	Profile           PlayerState `json:"profile"`
}

// UserFromProfile converts a progression.Profile
func UserFromProfile(p *progression.Profile) User {
	u := User{
		IdentityID:   string(p.Identity.ID),
		DisplayName:  p.Identity.DisplayName,
		Email:        p.Identity.Email,
		ReferralCode: p.Identity.ReferralCode,
		CreatedAt:    p.Identity.CreatedAt,
		Profile:      PlayerStateFromModel(p.Player),
	}
	if p.Player != nil {
		u.AvatarURL = p.Player.AvatarURL
	}
	if p.Referral != nil {
		u.ReferralSuccesses = p.Referral.SuccessCount
	}
	return u
}

// Presence is the response for the presence probe
type Presence struct {
	UserPresent bool `json:"user_present"`
}

// Hints lists the hint texts unlocked at a level
type Hints struct {
	Level int      `json:"level"`
	Tier  int      `json:"tier"`
	Hints []string `json:"hints"`
}

// HintsFromUnlocked converts progression.UnlockedHints
func HintsFromUnlocked(u *progression.UnlockedHints) Hints {
	return Hints{Level: u.Level, Tier: u.Tier, Hints: u.Hints}
}

// HintPurchase is the response for a successful hint purchase
type HintPurchase struct {
	Message string      `json:"message"`
	Cost    int         `json:"cost"`
	Hints   []string    `json:"hints"`
	Profile PlayerState `json:"profile"`
}

// HintPurchaseFromModel converts progression.HintPurchase
func HintPurchaseFromModel(h *progression.HintPurchase) HintPurchase {
	return HintPurchase{
		Message: "hint unlocked",
		Cost:    h.Cost,
		Hints:   h.Hints,
		Profile: PlayerStateFromModel(h.Player),
	}
}

// Outcome is a message plus the caller's resulting state
type Outcome struct {
	Message string      `json:"message"`
	Profile PlayerState `json:"profile"`
}

// Referral is the response for a successful redemption
type Referral struct {
	Message  string      `json:"message"`
	IssuerID string      `json:"issuer_id"`
	Profile  PlayerState `json:"profile"`
}

// ReferralFromRedemption converts progression.ReferralRedemption
func ReferralFromRedemption(r *progression.ReferralRedemption) Referral {
	return Referral{
		Message:  "referral redeemed",
		IssuerID: string(r.IssuerID),
		Profile:  PlayerStateFromModel(r.Redeemer),
	}
}

// LeaderboardEntry represents one ranked player
type LeaderboardEntry struct {
	Rank         int       `json:"rank"`
	IdentityID   string    `json:"identity_id"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Level        int       `json:"level"`
	Score        int       `json:"score"`
	Coins            int       `json:"coins"`
	ReferralRedeemed bool      `json:"referral_redeemed"`
	RegisteredAt     time.Time `json:"registered_at"`
}

// LeaderboardFromEntries converts leaderboard entries
func LeaderboardFromEntries(entries []leaderboard.Entry) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, LeaderboardEntry{
			Rank:             e.Rank,
			IdentityID:       string(e.IdentityID),
			DisplayName:      e.DisplayName,
			AvatarURL:        e.AvatarURL,
			Level:            e.Level,
			Score:            e.Score,
			Coins:            e.Coins,
			ReferralRedeemed: e.ReferralRedeemed,
			RegisteredAt:     e.RegisteredAt,
		})
	}
	return out
}

// Question is the public view of a question. The answer is never included.
type Question struct {
	Level          int    `json:"level"`
	MediaReference string `json:"media_reference"`
}

// QuestionsFromModel converts questions, dropping answers
func QuestionsFromModel(qs []*model.Question) []Question {
	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, Question{Level: q.Level, MediaReference: q.MediaReference})
	}
	return out
}

// HintSet represents every hint tier for a level
type HintSet struct {
	Level int      `json:"level"`
	Tiers []string `json:"tiers"`
}

// HintSetsFromModel converts hint sets
func HintSetsFromModel(hs []*model.HintSet) []HintSet {
	out := make([]HintSet, 0, len(hs))
	for _, h := range hs {
		out = append(out, HintSet{Level: h.Level, Tiers: h.Tiers})
	}
	return out
}

// Member represents a team directory entry
type Member struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Position    string `json:"position"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	GithubURL   string `json:"github_url,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// MemberFromModel converts a model.Member
func MemberFromModel(m *model.Member) Member {
	return Member{
		ID:          string(m.ID),
		Name:        m.Name,
		Position:    m.Position,
		Category:    m.Category,
		ImageURL:    m.ImageURL,
		GithubURL:   m.GithubURL,
		LinkedInURL: m.LinkedInURL,
	}
}

// MembersFromModel converts a list of members
func MembersFromModel(ms []*model.Member) []Member {
	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, MemberFromModel(m))
	}
	return out
}
