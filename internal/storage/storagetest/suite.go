// Package storagetest holds the behavioural suite every storage backend must pass.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
)

// Suite is embedded by backend test suites. NewStorage must return an empty store.
type Suite struct {
	suite.Suite
	NewStorage func(t *testing.T) storage.Storage

	Store storage.Storage
	Ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.Store = s.NewStorage(s.T())
	s.Ctx = context.Background()
}

// Registration returns default records for id.
func Registration(id string) *model.Registration {
	return model.NewRegistration(&model.Identity{
		ID:           model.IdentityID(id),
		DisplayName:  "Player " + id,
		Email:        id + "@example.com",
		ReferralCode: "ref-" + id,
		CreatedAt:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}, "")
}

func (s *Suite) register(id string) *model.Registration {
	reg := Registration(id)
	s.Require().NoError(s.Store.CreatePlayer(s.Ctx, reg))
	return reg
}

// Registration

func (s *Suite) TestCreatePlayerPersistsAllRecords() {
	reg := Registration("alice")
	reg.Player.AvatarURL = "https://example.com/a.png"
	s.Require().NoError(s.Store.CreatePlayer(s.Ctx, reg))

	identity, err := s.Store.GetIdentity(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(*reg.Identity, *identity)

	player, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(*reg.Player, *player)

	referral, err := s.Store.GetReferral(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal("ref-alice", referral.Code)
	s.Equal(0, referral.SuccessCount)

	byCode, err := s.Store.GetReferralByCode(s.Ctx, "ref-alice")
	s.Require().NoError(err)
	s.Equal(model.IdentityID("alice"), byCode.IdentityID)
}

func (s *Suite) TestCreatePlayerRejectsDuplicateIdentity() {
	s.register("alice")

	reg := Registration("alice")
	reg.Identity.Email = "other@example.com"
	reg.Identity.ReferralCode = "other"
	reg.Referral.Code = "other"

	s.ErrorIs(s.Store.CreatePlayer(s.Ctx, reg), model.ErrIdentityExists)
}

func (s *Suite) TestCreatePlayerRejectsDuplicateEmail() {
	s.register("alice")

	reg := Registration("bob")
	reg.Identity.Email = "alice@example.com"

	s.ErrorIs(s.Store.CreatePlayer(s.Ctx, reg), model.ErrEmailTaken)

	_, err := s.Store.GetIdentity(s.Ctx, "bob")
	s.ErrorIs(err, model.ErrIdentityNotFound)
	_, err = s.Store.GetReferralByCode(s.Ctx, "ref-bob")
	s.ErrorIs(err, model.ErrReferralCodeNotFound)
}

func (s *Suite) TestCreatePlayerRejectsDuplicateReferralCode() {
	s.register("alice")

	reg := Registration("bob")
	reg.Identity.ReferralCode = "ref-alice"
	reg.Referral.Code = "ref-alice"

	s.ErrorIs(s.Store.CreatePlayer(s.Ctx, reg), model.ErrReferralCodeTaken)

	_, err := s.Store.GetPlayer(s.Ctx, "bob")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestGetUnknown() {
	_, err := s.Store.GetIdentity(s.Ctx, "ghost")
	s.ErrorIs(err, model.ErrIdentityNotFound)
	_, err = s.Store.GetPlayer(s.Ctx, "ghost")
	s.ErrorIs(err, model.ErrIdentityNotFound)
	_, err = s.Store.GetReferral(s.Ctx, "ghost")
	s.ErrorIs(err, model.ErrIdentityNotFound)
	_, err = s.Store.GetReferralByCode(s.Ctx, "nope")
	s.ErrorIs(err, model.ErrReferralCodeNotFound)
}

func (s *Suite) TestDeleteIdentityCascades() {
	s.register("alice")
	s.register("bob")

	s.Require().NoError(s.Store.DeleteIdentity(s.Ctx, "alice"))

	_, err := s.Store.GetIdentity(s.Ctx, "alice")
	s.ErrorIs(err, model.ErrIdentityNotFound)
	_, err = s.Store.GetPlayer(s.Ctx, "alice")
	s.ErrorIs(err, model.ErrIdentityNotFound)
	_, err = s.Store.GetReferral(s.Ctx, "alice")
	s.ErrorIs(err, model.ErrIdentityNotFound)
	_, err = s.Store.GetReferralByCode(s.Ctx, "ref-alice")
	s.ErrorIs(err, model.ErrReferralCodeNotFound)

	players, err := s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal(model.IdentityID("bob"), players[0].IdentityID)

	// email and code are free again
	s.register("alice")

	s.ErrorIs(s.Store.DeleteIdentity(s.Ctx, "ghost"), model.ErrIdentityNotFound)
}

func (s *Suite) TestListPlayersReturnsCopies() {
	s.register("alice")

	players, err := s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	players[0].Coins = 9999

	p, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.StartingCoins, p.Coins)
}

// Units of work

func (s *Suite) TestAtomicallyCommitsChanges() {
	s.register("alice")
	s.register("bob")

	err := s.Store.Atomically(s.Ctx, []model.IdentityID{"bob", "alice"}, func(ctx context.Context, tx storage.Tx) error {
		alice, err := tx.Player(ctx, "alice")
		if err != nil {
			return err
		}
		if err := alice.RedeemReferral(); err != nil {
			return err
		}
		bob, err := tx.Referral(ctx, "bob")
		if err != nil {
			return err
		}
		bob.RecordSuccess()
		bobPlayer, err := tx.Player(ctx, "bob")
		if err != nil {
			return err
		}
		return bobPlayer.Credit(model.ReferralReward)
	})
	s.Require().NoError(err)

	alice, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.True(alice.ReferralRedeemed)
	s.Equal(200, alice.Coins)
	s.Equal(int64(1), alice.Version)

	bob, err := s.Store.GetPlayer(s.Ctx, "bob")
	s.Require().NoError(err)
	s.Equal(200, bob.Coins)

	ref, err := s.Store.GetReferral(s.Ctx, "bob")
	s.Require().NoError(err)
	s.Equal(1, ref.SuccessCount)
	s.Equal(int64(1), ref.Version)

	byCode, err := s.Store.GetReferralByCode(s.Ctx, "ref-bob")
	s.Require().NoError(err)
	s.Equal(1, byCode.SuccessCount)
}

func (s *Suite) TestAtomicallyPersistsHintProgress() {
	s.register("alice")

	err := s.Store.Atomically(s.Ctx, []model.IdentityID{"alice"}, func(ctx context.Context, tx storage.Tx) error {
		p, err := tx.Player(ctx, "alice")
		if err != nil {
			return err
		}
		_, err = p.PurchaseHint(1, 2)
		return err
	})
	s.Require().NoError(err)

	p, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.HintProgress{Level: 1, TierUnlocked: 2}, p.Hints)
	s.Equal(70, p.Coins)
}

func (s *Suite) TestAtomicallyDiscardsOnError() {
	s.register("alice")
	boom := errors.New("boom")

	err := s.Store.Atomically(s.Ctx, []model.IdentityID{"alice"}, func(ctx context.Context, tx storage.Tx) error {
		p, err := tx.Player(ctx, "alice")
		if err != nil {
			return err
		}
		if err := p.Credit(50); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	p, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.StartingCoins, p.Coins)
	s.Equal(int64(0), p.Version)
}

func (s *Suite) TestAtomicallyDiscardsInvariantViolation() {
	s.register("alice")

	err := s.Store.Atomically(s.Ctx, []model.IdentityID{"alice"}, func(ctx context.Context, tx storage.Tx) error {
		p, err := tx.Player(ctx, "alice")
		if err != nil {
			return err
		}
		p.Coins = -1
		return nil
	})
	s.ErrorIs(err, model.ErrInvariantViolation)

	p, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.StartingCoins, p.Coins)
}

func (s *Suite) TestAtomicallyUnknownIdentity() {
	err := s.Store.Atomically(s.Ctx, []model.IdentityID{"ghost"}, func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.Player(ctx, "ghost")
		return err
	})
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestAtomicallyRejectsUnreserved() {
	s.register("alice")
	s.register("bob")

	err := s.Store.Atomically(s.Ctx, []model.IdentityID{"alice"}, func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.Player(ctx, "bob")
		return err
	})
	s.ErrorIs(err, model.ErrNotReserved)
}

func (s *Suite) TestConcurrentCreditsAreNotLost() {
	s.register("alice")

	const workers = 20
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Store.Atomically(s.Ctx, []model.IdentityID{"alice"}, func(ctx context.Context, tx storage.Tx) error {
				p, err := tx.Player(ctx, "alice")
				if err != nil {
					return err
				}
				return p.Credit(1)
			})
			if err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(0), failures.Load())
	p, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.StartingCoins+workers, p.Coins)
	s.Equal(int64(workers), p.Version)
}

func (s *Suite) TestOpposingLockOrdersDoNotDeadlock() {
	s.register("alice")
	s.register("bob")

	const rounds = 10
	var wg sync.WaitGroup
	var failures atomic.Int32
	transfer := func(ids []model.IdentityID) {
		defer wg.Done()
		err := s.Store.Atomically(s.Ctx, ids, func(ctx context.Context, tx storage.Tx) error {
			for _, id := range ids {
				p, err := tx.Player(ctx, id)
				if err != nil {
					return err
				}
				if err := p.Credit(1); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			failures.Add(1)
		}
	}
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go transfer([]model.IdentityID{"alice", "bob"})
		go transfer([]model.IdentityID{"bob", "alice"})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		s.FailNow("units of work deadlocked")
	}

	s.Equal(int32(0), failures.Load())
	for _, id := range []model.IdentityID{"alice", "bob"} {
		p, err := s.Store.GetPlayer(s.Ctx, id)
		s.Require().NoError(err)
		s.Equal(model.StartingCoins+2*rounds, p.Coins, string(id))
	}
}

// Catalog

func (s *Suite) TestQuestionsRoundTrip() {
	for _, level := range []int{3, 1, 2} {
		s.Require().NoError(s.Store.SaveQuestion(s.Ctx, &model.Question{
			Level:          level,
			MediaReference: fmt.Sprintf("https://example.com/%d.jpg", level),
			Answer:         fmt.Sprintf("answer-%d", level),
		}))
	}
	s.Require().NoError(s.Store.SaveQuestion(s.Ctx, &model.Question{Level: 2, MediaReference: "m", Answer: "updated"}))

	q, err := s.Store.GetQuestion(s.Ctx, 2)
	s.Require().NoError(err)
	s.Equal("updated", q.Answer)

	list, err := s.Store.ListQuestions(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]int{1, 2, 3}, []int{list[0].Level, list[1].Level, list[2].Level})

	_, err = s.Store.GetQuestion(s.Ctx, 99)
	s.ErrorIs(err, model.ErrQuestionNotFound)
}

func (s *Suite) TestHintSetsRoundTrip() {
	s.Require().NoError(s.Store.SaveHintSet(s.Ctx, &model.HintSet{Level: 2, Tiers: []string{"c", "d", "e"}}))
	s.Require().NoError(s.Store.SaveHintSet(s.Ctx, &model.HintSet{Level: 1, Tiers: []string{"a", "b"}}))

	h, err := s.Store.GetHintSet(s.Ctx, 2)
	s.Require().NoError(err)
	s.Equal([]string{"c", "d", "e"}, h.Tiers)

	list, err := s.Store.ListHintSets(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(1, list[0].Level)
	s.Equal([]string{"a", "b"}, list[0].Tiers)

	_, err = s.Store.GetHintSet(s.Ctx, 7)
	s.ErrorIs(err, model.ErrHintSetNotFound)
}

func (s *Suite) TestMembersKeepInsertionOrder() {
	for _, name := range []string{"Zoe", "Adam", "Mia"} {
		s.Require().NoError(s.Store.SaveMember(s.Ctx, &model.Member{
			ID:       model.MemberID("m-" + name),
			Name:     name,
			Position: "Developer",
			Category: "Tech",
		}))
	}
	s.Require().NoError(s.Store.SaveMember(s.Ctx, &model.Member{ID: "m-Adam", Name: "Adam", Position: "Mentor"}))

	list, err := s.Store.ListMembers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("Zoe", list[0].Name)
	s.Equal("Adam", list[1].Name)
	s.Equal("Mentor", list[1].Position)
	s.Equal("Mia", list[2].Name)
}
