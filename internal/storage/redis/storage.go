package redis

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Units of work use WATCH/MULTI/EXEC and are re-run when a watched key changes.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.TxMaxRetries <= 0 {
		cfg.TxMaxRetries = DefaultConfig().TxMaxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// watchRetry runs fn under WATCH on keys, retrying while the optimistic
// transaction is invalidated by a concurrent writer.
func (s *Storage) watchRetry(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < s.cfg.TxMaxRetries; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			continue
		}
		return err
	}
	return model.ErrTxConflict
}

// Registration

func (s *Storage) CreatePlayer(ctx context.Context, reg *model.Registration) error {
	id := reg.Identity.ID
	identityData, err := json.Marshal(identityToRecord(reg.Identity))
	if err != nil {
		return err
	}
	pr, hr := playerToRecords(reg.Player)
	playerData, err := json.Marshal(pr)
	if err != nil {
		return err
	}
	hintsData, err := json.Marshal(hr)
	if err != nil {
		return err
	}
	referralData, err := json.Marshal(referralToRecord(reg.Referral))
	if err != nil {
		return err
	}

	emailKey := emailIndexKey(reg.Identity.Email)
	codeKey := referralCodeIndexKey(reg.Identity.ReferralCode)

	return s.watchRetry(ctx, func(tx *redis.Tx) error {
		checks := []struct {
			key string
			err error
		}{
			{identityKey(id), model.ErrIdentityExists},
			{emailKey, model.ErrEmailTaken},
			{codeKey, model.ErrReferralCodeTaken},
		}
		for _, c := range checks {
			n, err := tx.Exists(ctx, c.key).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return c.err
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, identityKey(id), identityData, 0)
			pipe.Set(ctx, playerKey(id), playerData, 0)
			pipe.Set(ctx, hintsKey(id), hintsData, 0)
			pipe.Set(ctx, referralKey(id), referralData, 0)
			pipe.Set(ctx, emailKey, string(id), 0)
			pipe.Set(ctx, codeKey, string(id), 0)
			pipe.SAdd(ctx, playersIndexKey(), string(id))
			return nil
		})
		return err
	}, identityKey(id), emailKey, codeKey)
}

func (s *Storage) DeleteIdentity(ctx context.Context, id model.IdentityID) error {
	keys := append([]string{identityKey(id)}, aggregateKeys([]model.IdentityID{id})...)
	return s.watchRetry(ctx, func(tx *redis.Tx) error {
		identity, err := getIdentity(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keys...)
			pipe.Del(ctx, emailIndexKey(identity.Email), referralCodeIndexKey(identity.ReferralCode))
			pipe.SRem(ctx, playersIndexKey(), string(id))
			return nil
		})
		return err
	}, keys...)
}

// Snapshot reads

// reader is the read surface shared by *redis.Client and a watched *redis.Tx
type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

func getIdentity(ctx context.Context, c reader, id model.IdentityID) (*model.Identity, error) {
	data, err := c.Get(ctx, identityKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}
	var rec identityRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	return getIdentity(ctx, s.client, id)
}

func getPlayer(ctx context.Context, c reader, id model.IdentityID) (*model.Player, error) {
	vals, err := c.MGet(ctx, playerKey(id), hintsKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if vals[0] == nil {
		return nil, model.ErrIdentityNotFound
	}
	if vals[1] == nil {
		return nil, fmt.Errorf("%w: hint ledger missing for %s", model.ErrInvariantViolation, id)
	}
	return decodePlayer(vals[0], vals[1])
}

func decodePlayer(playerVal, hintsVal any) (*model.Player, error) {
	ps, ok := playerVal.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected player value type %T", playerVal)
	}
	hs, ok := hintsVal.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected hints value type %T", hintsVal)
	}
	var pr playerRecord
	if err := json.Unmarshal([]byte(ps), &pr); err != nil {
		return nil, err
	}
	var hr hintsRecord
	if err := json.Unmarshal([]byte(hs), &hr); err != nil {
		return nil, err
	}
	return playerFromRecords(pr, hr), nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.IdentityID) (*model.Player, error) {
	return getPlayer(ctx, s.client, id)
}

func getReferral(ctx context.Context, c reader, id model.IdentityID) (*model.Referral, error) {
	data, err := c.Get(ctx, referralKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}
	var rec referralRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (s *Storage) GetReferral(ctx context.Context, id model.IdentityID) (*model.Referral, error) {
	return getReferral(ctx, s.client, id)
}

func (s *Storage) GetReferralByCode(ctx context.Context, code string) (*model.Referral, error) {
	id, err := s.client.Get(ctx, referralCodeIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrReferralCodeNotFound
		}
		return nil, err
	}
	ref, err := getReferral(ctx, s.client, model.IdentityID(id))
	if errors.Is(err, model.ErrIdentityNotFound) {
		return nil, model.ErrReferralCodeNotFound
	}
	return ref, err
}

// ListPlayers reads every player and hint entry with a single MGET, which
// Redis executes atomically.
func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	ids, err := s.client.SMembers(ctx, playersIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Player{}, nil
	}

	keys := make([]string, 0, 2*len(ids))
	for _, id := range ids {
		keys = append(keys, playerKey(model.IdentityID(id)))
	}
	for _, id := range ids {
		keys = append(keys, hintsKey(model.IdentityID(id)))
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(ids))
	for i := range ids {
		// Deleted between SMEMBERS and MGET
		if vals[i] == nil || vals[len(ids)+i] == nil {
			continue
		}
		p, err := decodePlayer(vals[i], vals[len(ids)+i])
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}

// Units of work

type txLoader struct {
	tx *redis.Tx
}

func (l txLoader) LoadPlayer(ctx context.Context, id model.IdentityID) (*model.Player, error) {
	return getPlayer(ctx, l.tx, id)
}

func (l txLoader) LoadReferral(ctx context.Context, id model.IdentityID) (*model.Referral, error) {
	return getReferral(ctx, l.tx, id)
}

func (s *Storage) Atomically(ctx context.Context, ids []model.IdentityID, fn storage.TxFunc) error {
	ordered := storage.LockOrder(ids)

	return s.watchRetry(ctx, func(tx *redis.Tx) error {
		ws := storage.NewWorkingSet(ordered, txLoader{tx: tx})
		if err := fn(ctx, ws); err != nil {
			return err
		}
		changes, err := ws.Changes()
		if err != nil {
			return err
		}
		if changes.Empty() {
			return nil
		}

		writes := make(map[string][]byte, 2*len(changes.Players)+len(changes.Referrals))
		for _, p := range changes.Players {
			pr, hr := playerToRecords(p)
			if writes[playerKey(p.IdentityID)], err = json.Marshal(pr); err != nil {
				return err
			}
			if writes[hintsKey(p.IdentityID)], err = json.Marshal(hr); err != nil {
				return err
			}
		}
		for _, r := range changes.Referrals {
			if writes[referralKey(r.IdentityID)], err = json.Marshal(referralToRecord(r)); err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for key, data := range writes {
				pipe.Set(ctx, key, data, 0)
			}
			return nil
		})
		return err
	}, aggregateKeys(ordered)...)
}

// Catalog

func (s *Storage) SaveQuestion(ctx context.Context, q *model.Question) error {
	data, err := json.Marshal(questionRecord{Level: q.Level, MediaReference: q.MediaReference, Answer: q.Answer})
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, questionKey(q.Level), data, 0)
	pipe.SAdd(ctx, questionsIndexKey(), q.Level)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetQuestion(ctx context.Context, level int) (*model.Question, error) {
	data, err := s.client.Get(ctx, questionKey(level)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrQuestionNotFound
		}
		return nil, err
	}
	var rec questionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &model.Question{Level: rec.Level, MediaReference: rec.MediaReference, Answer: rec.Answer}, nil
}

func (s *Storage) ListQuestions(ctx context.Context) ([]*model.Question, error) {
	var out []*model.Question
	err := s.listByLevel(ctx, questionsIndexKey(), questionKey, func(data string) error {
		var rec questionRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return err
		}
		out = append(out, &model.Question{Level: rec.Level, MediaReference: rec.MediaReference, Answer: rec.Answer})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *model.Question) int { return cmp.Compare(a.Level, b.Level) })
	return out, nil
}

func (s *Storage) SaveHintSet(ctx context.Context, h *model.HintSet) error {
	data, err := json.Marshal(hintSetRecord{Level: h.Level, Tiers: h.Tiers})
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, hintSetKey(h.Level), data, 0)
	pipe.SAdd(ctx, hintSetsIndexKey(), h.Level)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetHintSet(ctx context.Context, level int) (*model.HintSet, error) {
	data, err := s.client.Get(ctx, hintSetKey(level)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrHintSetNotFound
		}
		return nil, err
	}
	var rec hintSetRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &model.HintSet{Level: rec.Level, Tiers: rec.Tiers}, nil
}

func (s *Storage) ListHintSets(ctx context.Context) ([]*model.HintSet, error) {
	var out []*model.HintSet
	err := s.listByLevel(ctx, hintSetsIndexKey(), hintSetKey, func(data string) error {
		var rec hintSetRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return err
		}
		out = append(out, &model.HintSet{Level: rec.Level, Tiers: rec.Tiers})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *model.HintSet) int { return cmp.Compare(a.Level, b.Level) })
	return out, nil
}

// listByLevel resolves a SET of levels to their stored values and hands each
// present value to decode.
func (s *Storage) listByLevel(ctx context.Context, indexKey string, keyFn func(int) string, decode func(string) error) error {
	members, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	keys := make([]string, 0, len(members))
	for _, m := range members {
		level, err := strconv.Atoi(m)
		if err != nil {
			return fmt.Errorf("corrupt level index entry %q: %w", m, err)
		}
		keys = append(keys, keyFn(level))
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}
	for _, v := range vals {
		data, ok := v.(string)
		if !ok {
			continue
		}
		if err := decode(data); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) SaveMember(ctx context.Context, m *model.Member) error {
	data, err := json.Marshal(memberRecord{
		ID:          m.ID,
		Name:        m.Name,
		Position:    m.Position,
		Category:    m.Category,
		ImageURL:    m.ImageURL,
		GithubURL:   m.GithubURL,
		LinkedInURL: m.LinkedInURL,
	})
	if err != nil {
		return err
	}
	key := memberKey(m.ID)
	return s.watchRetry(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if exists == 0 {
				pipe.RPush(ctx, membersIndexKey(), string(m.ID))
			}
			return nil
		})
		return err
	}, key)
}

func (s *Storage) ListMembers(ctx context.Context) ([]*model.Member, error) {
	ids, err := s.client.LRange(ctx, membersIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*model.Member, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = memberKey(model.MemberID(id))
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		data, ok := v.(string)
		if !ok {
			continue
		}
		var rec memberRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, err
		}
		out = append(out, &model.Member{
			ID:          rec.ID,
			Name:        rec.Name,
			Position:    rec.Position,
			Category:    rec.Category,
			ImageURL:    rec.ImageURL,
			GithubURL:   rec.GithubURL,
			LinkedInURL: rec.LinkedInURL,
		})
	}
	return out, nil
}
