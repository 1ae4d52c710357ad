package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	dimColor  = color.New(color.Faint)
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errW, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errW, "%s %s\n", errColor.Sprint("Error:"), err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case Presence:
		o.printPresence(v)
	case Hints:
		o.printHints(v)
	case HintPurchase:
		o.printHintPurchase(v)
	case Outcome:
		o.printOutcome(v)
	case Referral:
		o.printReferral(v)
	case []LeaderboardEntry:
		o.printLeaderboard(v)
	case []Question:
		o.printQuestions(v)
	case []HintSet:
		o.printHintSets(v)
	case []Member:
		o.printMembers(v)
	case Member:
		o.printMembers([]Member{v})
	case []string:
		for _, s := range v {
			o.printf("%s\n", s)
		}
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

// PlayerState response type (matches API)
type PlayerState struct {
	Level            int  `json:"level"`
	Attempts         int  `json:"attempts"`
	Score            int  `json:"score"`
	Coins            int  `json:"coins"`
	BonusCoins       int  `json:"bonus_coins"`
	ReferralRedeemed bool `json:"referral_redeemed"`
	HintTier         int  `json:"hint_tier"`
}

// User response type
type User struct {
	IdentityID        string      `json:"identity_id"`
	DisplayName       string      `json:"display_name"`
	Email             string      `json:"email"`
	AvatarURL         string      `json:"avatar_url,omitempty"`
	ReferralCode      string      `json:"referral_code"`
	ReferralSuccesses int         `json:"referral_successes"`
	CreatedAt         string      `json:"created_at"`
	Profile           PlayerState `json:"profile"`
}

// Presence response type
type Presence struct {
	UserPresent bool `json:"user_present"`
}

// Hints response type
type Hints struct {
	Level int      `json:"level"`
	Tier  int      `json:"tier"`
	Hints []string `json:"hints"`
}

// HintPurchase response type
type HintPurchase struct {
	Message string      `json:"message"`
	Cost    int         `json:"cost"`
	Hints   []string    `json:"hints"`
	Profile PlayerState `json:"profile"`
}

// Outcome response type
type Outcome struct {
	Message string      `json:"message"`
	Profile PlayerState `json:"profile"`
}

// Referral response type
type Referral struct {
	Message  string      `json:"message"`
	IssuerID string      `json:"issuer_id"`
	Profile  PlayerState `json:"profile"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	IdentityID       string `json:"identity_id"`
	DisplayName      string `json:"display_name"`
	Level            int    `json:"level"`
	Score            int    `json:"score"`
	Coins            int    `json:"coins"`
	ReferralRedeemed bool   `json:"referral_redeemed"`
}

// Question response type
type Question struct {
	Level          int    `json:"level"`
	MediaReference string `json:"media_reference"`
}

// HintSet response type
type HintSet struct {
	Level int      `json:"level"`
	Tiers []string `json:"tiers"`
}

// Member response type
type Member struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Position    string `json:"position"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	GithubURL   string `json:"github_url,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayerState(p PlayerState) {
	o.printf("  Level:    %d\n", p.Level)
	o.printf("  Score:    %d\n", p.Score)
	o.printf("  Coins:    %s", warnColor.Sprint(p.Coins))
	if p.BonusCoins > 0 {
		o.printf(" %s", dimColor.Sprintf("(%d from referrals)", p.BonusCoins))
	}
	o.printf("\n")
	if p.HintTier > 0 {
		o.printf("  Hints:    tier %d\n", p.HintTier)
	}
	if p.ReferralRedeemed {
		o.printf("  Referral: redeemed\n")
	}
}

func (o *Output) printUser(u User) {
	o.printf("%s (%s)\n", u.DisplayName, u.IdentityID)
	o.printf("  Email:    %s\n", u.Email)
	o.printf("  Referral: %s", okColor.Sprint(u.ReferralCode))
	if u.ReferralSuccesses > 0 {
		o.printf(" %s", dimColor.Sprintf("(used %d times)", u.ReferralSuccesses))
	}
	o.printf("\n")
	o.printPlayerState(u.Profile)
}

func (o *Output) printPresence(p Presence) {
	if p.UserPresent {
		o.printf("%s\n", okColor.Sprint("present"))
	} else {
		o.printf("%s\n", warnColor.Sprint("not registered"))
	}
}

func (o *Output) printHints(h Hints) {
	if len(h.Hints) == 0 {
		o.printf("No hints unlocked for level %d\n", h.Level)
		return
	}
	o.printf("Level %d hints (tier %d):\n", h.Level, h.Tier)
	for i, hint := range h.Hints {
		o.printf("  %d. %s\n", i+1, hint)
	}
}

func (o *Output) printHintPurchase(h HintPurchase) {
	o.printf("%s for %s coins\n", okColor.Sprint(h.Message), warnColor.Sprint(h.Cost))
	for i, hint := range h.Hints {
		o.printf("  %d. %s\n", i+1, hint)
	}
	o.printPlayerState(h.Profile)
}

func (o *Output) printOutcome(r Outcome) {
	o.printf("%s\n", okColor.Sprint(r.Message))
	o.printPlayerState(r.Profile)
}

func (o *Output) printReferral(r Referral) {
	o.printf("%s (issued by %s)\n", okColor.Sprint(r.Message), r.IssuerID)
	o.printPlayerState(r.Profile)
}

func (o *Output) printLeaderboard(entries []LeaderboardEntry) {
	if len(entries) == 0 {
		o.printf("No players yet\n")
		return
	}
	o.printf("%-5s %-24s %6s %6s %6s\n", "RANK", "NAME", "LEVEL", "SCORE", "COINS")
	for _, e := range entries {
		o.printf("%-5d %-24s %6d %6d %6d\n", e.Rank, truncate(e.DisplayName, 24), e.Level, e.Score, e.Coins)
	}
}

func (o *Output) printQuestions(qs []Question) {
	for _, q := range qs {
		o.printf("Level %d: %s\n", q.Level, q.MediaReference)
	}
}

func (o *Output) printHintSets(hs []HintSet) {
	for _, h := range hs {
		o.printf("Level %d:\n", h.Level)
		for i, tier := range h.Tiers {
			o.printf("  %d. %s\n", i+1, tier)
		}
	}
}

func (o *Output) printMembers(ms []Member) {
	for _, m := range ms {
		o.printf("%s %s\n", m.Name, dimColor.Sprintf("[%s]", m.ID))
		o.printf("  Position: %s\n", m.Position)
		if m.Category != "" {
			o.printf("  Category: %s\n", m.Category)
		}
		links := make([]string, 0, 2)
		if m.GithubURL != "" {
			links = append(links, m.GithubURL)
		}
		if m.LinkedInURL != "" {
			links = append(links, m.LinkedInURL)
		}
		if len(links) > 0 {
			o.printf("  Links:    %s\n", strings.Join(links, " "))
		}
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	status := errColor.Sprint(h.Status)
	if h.Status == "ok" {
		status = okColor.Sprint(h.Status)
	}
	o.printf("Server status: %s\n", status)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
