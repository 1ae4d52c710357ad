package leaderboard

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Entry is one row of the standings
type Entry struct {
	Rank         int
	IdentityID   model.IdentityID
	DisplayName  string
	AvatarURL    string
	Level        int
	Score        int
	Coins            int
	ReferralRedeemed bool
	RegisteredAt     time.Time
}

// Page selects a 1-based window of the standings. The zero value selects
// every entry.
type Page struct {
	Page     int
	PageSize int
}

// Projector builds ranked standings from a snapshot of all players. It never
// takes per-identity locks.
type Projector struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new Projector
func New(storage storage.Storage, logger *slog.Logger) *Projector {
	return &Projector{
		storage: storage,
		logger:  logger.With(slog.String("component", "leaderboard")),
	}
}

// Standings returns players ordered by score descending, ties broken by
// earlier registration and then identity id.
func (p *Projector) Standings(ctx context.Context, page Page) ([]Entry, error) {
	offset, limit, err := page.window()
	if err != nil {
		return nil, err
	}

	players, err := p.storage.ListPlayers(ctx)
	if err != nil {
		p.logger.Error("failed to list players", slog.String("error", err.Error()))
		return nil, err
	}

	Rank(players)

	entries := []Entry{}
	for i := offset; i < len(players) && (limit == 0 || i < offset+limit); i++ {
		pl := players[i]
		entries = append(entries, Entry{
			Rank:         i + 1,
			IdentityID:   pl.IdentityID,
			DisplayName:  pl.DisplayName,
			AvatarURL:    pl.AvatarURL,
			Level:        pl.Level,
			Score:        pl.Score,
			Coins:            pl.Coins,
			ReferralRedeemed: pl.ReferralRedeemed,
			RegisteredAt:     pl.RegisteredAt,
		})
	}
	return entries, nil
}

// Rank sorts players into leaderboard order in place
func Rank(players []*model.Player) {
	slices.SortStableFunc(players, func(a, b *model.Player) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := a.RegisteredAt.Compare(b.RegisteredAt); c != 0 {
			return c
		}
		return cmp.Compare(a.IdentityID, b.IdentityID)
	})
}

func (pg Page) window() (offset, limit int, err error) {
	v := model.NewValidationError()
	if pg.Page < 0 {
		v.Add("page", "must be positive")
	}
	if pg.PageSize < 0 || pg.PageSize > MaxPageSize {
		v.Add("page_size", fmt.Sprintf("must be between 1 and %d", MaxPageSize))
	}
	if err := v.Err(); err != nil {
		return 0, 0, err
	}

	if pg.Page == 0 && pg.PageSize == 0 {
		return 0, 0, nil
	}
	page, size := pg.Page, pg.PageSize
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = DefaultPageSize
	}
	return (page - 1) * size, size, nil
}
