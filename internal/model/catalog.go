package model

// Question is the riddle a player must answer to clear a level
type Question struct {
	Level          int
	MediaReference string
	Answer         string
}

// HintSet holds the up-to-three hints for a level, cheapest first
type HintSet struct {
	Level int
	Tiers []string
}

// Unlocked returns the hint texts for tiers 1 through tier.
func (h *HintSet) Unlocked(tier int) []string {
	if tier > len(h.Tiers) {
		tier = len(h.Tiers)
	}
	if tier <= 0 {
		return []string{}
	}
	out := make([]string, tier)
	copy(out, h.Tiers[:tier])
	return out
}

// MemberID identifies an entry in the team directory
type MemberID string

// Member is an organising-team directory entry
type Member struct {
	ID          MemberID
	Name        string
	Position    string
	Category    string
	ImageURL    string
	GithubURL   string
	LinkedInURL string
}

// Positions lists the accepted values for Member.Position.
var Positions = []string{
	"Developer",
	"Mentor",
	"Final year",
	"Coordinator",
	"Executive",
	"Volunteer",
}

// IsValidPosition reports whether p is one of Positions.
func IsValidPosition(p string) bool {
	for _, candidate := range Positions {
		if candidate == p {
			return true
		}
	}
	return false
}
