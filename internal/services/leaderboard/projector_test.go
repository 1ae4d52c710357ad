package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
	"github.com/mcoot/paradox/internal/storage/memory"
	"github.com/mcoot/paradox/internal/testutil"
)

type ProjectorSuite struct {
	suite.Suite
	storage   *memory.Storage
	projector *Projector
	ctx       context.Context
	base      time.Time
}

func TestProjectorSuite(t *testing.T) {
	suite.Run(t, new(ProjectorSuite))
}

func (s *ProjectorSuite) SetupTest() {
	s.storage = memory.New()
	s.projector = New(s.storage, testutil.NopLogger())
	s.ctx = context.Background()
	s.base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// addPlayer registers id at base+offset minutes and advances it through levels
func (s *ProjectorSuite) addPlayer(id string, offset int, levels int) {
	reg := model.NewRegistration(&model.Identity{
		ID:           model.IdentityID(id),
		DisplayName:  "Player " + id,
		Email:        id + "@example.com",
		ReferralCode: "code-" + id,
		CreatedAt:    s.base.Add(time.Duration(offset) * time.Minute),
	}, "")
	s.Require().NoError(s.storage.CreatePlayer(s.ctx, reg))

	err := s.storage.Atomically(s.ctx, []model.IdentityID{model.IdentityID(id)}, func(ctx context.Context, tx storage.Tx) error {
		p, err := tx.Player(ctx, model.IdentityID(id))
		if err != nil {
			return err
		}
		for l := 1; l <= levels; l++ {
			if err := p.AdvanceLevel(l); err != nil {
				return err
			}
		}
		return nil
	})
	s.Require().NoError(err)
}

func (s *ProjectorSuite) ids(entries []Entry) []model.IdentityID {
	out := make([]model.IdentityID, len(entries))
	for i, e := range entries {
		out[i] = e.IdentityID
	}
	return out
}

func (s *ProjectorSuite) TestEmpty() {
	entries, err := s.projector.Standings(s.ctx, Page{})
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ProjectorSuite) TestOrdersByScoreThenRegistration() {
	s.addPlayer("late-high", 10, 3)
	s.addPlayer("early-mid", 0, 2)
	s.addPlayer("late-mid", 5, 2)
	s.addPlayer("zero", 1, 0)

	entries, err := s.projector.Standings(s.ctx, Page{})
	s.Require().NoError(err)

	s.Equal([]model.IdentityID{"late-high", "early-mid", "late-mid", "zero"}, s.ids(entries))
	s.Equal([]int{1, 2, 3, 4}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank, entries[3].Rank})
	s.Equal(30, entries[0].Score)
	s.Equal(4, entries[0].Level)
}

func (s *ProjectorSuite) TestReportsReferralRedemption() {
	s.addPlayer("a", 0, 1)
	s.addPlayer("b", 1, 0)

	err := s.storage.Atomically(s.ctx, []model.IdentityID{"b"}, func(ctx context.Context, tx storage.Tx) error {
		p, err := tx.Player(ctx, "b")
		if err != nil {
			return err
		}
		return p.RedeemReferral()
	})
	s.Require().NoError(err)

	entries, err := s.projector.Standings(s.ctx, Page{})
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.False(entries[0].ReferralRedeemed)
	s.True(entries[1].ReferralRedeemed)
	s.Equal(model.StartingCoins+model.ReferralReward, entries[1].Coins)
}

func (s *ProjectorSuite) TestTieOnRegistrationFallsBackToIdentity() {
	s.addPlayer("b", 0, 1)
	s.addPlayer("a", 0, 1)

	entries, err := s.projector.Standings(s.ctx, Page{})
	s.Require().NoError(err)
	s.Equal([]model.IdentityID{"a", "b"}, s.ids(entries))
}

func (s *ProjectorSuite) TestPagination() {
	for i := 0; i < 5; i++ {
		s.addPlayer(fmt.Sprintf("p%d", i), i, 5-i)
	}

	entries, err := s.projector.Standings(s.ctx, Page{Page: 2, PageSize: 2})
	s.Require().NoError(err)
	s.Equal([]model.IdentityID{"p2", "p3"}, s.ids(entries))
	s.Equal(3, entries[0].Rank)

	entries, err = s.projector.Standings(s.ctx, Page{Page: 9, PageSize: 2})
	s.Require().NoError(err)
	s.Empty(entries)

	entries, err = s.projector.Standings(s.ctx, Page{Page: 1})
	s.Require().NoError(err)
	s.Len(entries, 5)
}

func (s *ProjectorSuite) TestRejectsBadPaging() {
	_, err := s.projector.Standings(s.ctx, Page{Page: -1, PageSize: MaxPageSize + 1})

	var verr *model.ValidationError
	s.Require().True(errors.As(err, &verr))
	s.Contains(verr.Fields, "page")
	s.Contains(verr.Fields, "page_size")
}
