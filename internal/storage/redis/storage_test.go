package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
	"github.com/mcoot/paradox/internal/storage/storagetest"
)

type RedisStorageSuite struct {
	storagetest.Suite
	mini   *miniredis.Miniredis
	client *redis.Client
}

func TestRedisStorageSuite(t *testing.T) {
	s := &RedisStorageSuite{}
	s.NewStorage = func(t *testing.T) storage.Storage {
		s.mini = miniredis.RunT(t)
		s.client = redis.NewClient(&redis.Options{
			Addr: s.mini.Addr(),
		})
		t.Cleanup(func() { _ = s.client.Close() })

		cfg := DefaultConfig()
		cfg.TxMaxRetries = 200
		return NewWithClient(s.client, cfg)
	}
	suite.Run(t, s)
}

func (s *RedisStorageSuite) TestHintLedgerStoredSeparately() {
	s.Require().NoError(s.Store.CreatePlayer(s.Ctx, storagetest.Registration("alice")))

	s.True(s.mini.Exists(playerKey("alice")))
	s.True(s.mini.Exists(hintsKey("alice")))
	s.True(s.mini.Exists(referralKey("alice")))
	s.True(s.mini.Exists(emailIndexKey("alice@example.com")))

	raw, err := s.mini.Get(hintsKey("alice"))
	s.Require().NoError(err)
	var rec hintsRecord
	s.Require().NoError(json.Unmarshal([]byte(raw), &rec))
	s.Equal(hintsRecord{Level: 1, TierUnlocked: 0}, rec)

	code, err := s.mini.Get(referralCodeIndexKey("ref-alice"))
	s.Require().NoError(err)
	s.Equal("alice", code)

	members, err := s.mini.Members(playersIndexKey())
	s.Require().NoError(err)
	s.Equal([]string{"alice"}, members)
}

func (s *RedisStorageSuite) TestDeleteIdentityRemovesIndexes() {
	s.Require().NoError(s.Store.CreatePlayer(s.Ctx, storagetest.Registration("alice")))
	s.Require().NoError(s.Store.DeleteIdentity(s.Ctx, "alice"))

	for _, key := range []string{
		identityKey("alice"),
		playerKey("alice"),
		hintsKey("alice"),
		referralKey("alice"),
		emailIndexKey("alice@example.com"),
		referralCodeIndexKey("ref-alice"),
	} {
		s.False(s.mini.Exists(key), key)
	}
}

func (s *RedisStorageSuite) TestAtomicallyGivesUpAfterRepeatedConflicts() {
	s.Require().NoError(s.Store.CreatePlayer(s.Ctx, storagetest.Registration("alice")))
	store := NewWithClient(s.client, Config{TxMaxRetries: 2})
	other := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	defer other.Close()

	attempts := 0
	err := store.Atomically(s.Ctx, []model.IdentityID{"alice"}, func(ctx context.Context, tx storage.Tx) error {
		attempts++
		p, err := tx.Player(ctx, "alice")
		if err != nil {
			return err
		}
		// a competing writer touches a watched key before EXEC
		if err := other.Set(ctx, referralKey("alice"), `{"identity_id":"alice","code":"ref-alice"}`, 0).Err(); err != nil {
			return err
		}
		return p.Credit(5)
	})

	s.ErrorIs(err, model.ErrTxConflict)
	s.Equal(2, attempts)

	p, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.StartingCoins, p.Coins)
}

func (s *RedisStorageSuite) TestAtomicallyRetriesAndSucceeds() {
	s.Require().NoError(s.Store.CreatePlayer(s.Ctx, storagetest.Registration("alice")))
	other := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	defer other.Close()

	attempts := 0
	err := s.Store.Atomically(s.Ctx, []model.IdentityID{"alice"}, func(ctx context.Context, tx storage.Tx) error {
		attempts++
		p, err := tx.Player(ctx, "alice")
		if err != nil {
			return err
		}
		if attempts == 1 {
			if err := other.Set(ctx, referralKey("alice"), `{"identity_id":"alice","code":"ref-alice"}`, 0).Err(); err != nil {
				return err
			}
		}
		return p.Credit(5)
	})

	s.Require().NoError(err)
	s.Equal(2, attempts)

	p, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.StartingCoins+5, p.Coins)
}
