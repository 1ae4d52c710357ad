package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
)

// Storage is a database/sql implementation of the storage interface.
type Storage struct {
	db      *sql.DB
	dialect Dialect
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// OpenPostgres connects to a Postgres database and applies the schema.
func OpenPostgres(ctx context.Context, url string) (*Storage, error) {
	db, err := sql.Open(Postgres.Driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return open(ctx, db, Postgres)
}

// OpenSQLite opens (or creates) a SQLite database at path and applies the
// schema. Use ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*Storage, error) {
	dsn := path
	if path == ":memory:" {
		dsn = "file::memory:"
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"

	db, err := sql.Open(SQLite.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	return open(ctx, db, SQLite)
}

func open(ctx context.Context, db *sql.DB, dialect Dialect) (*Storage, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dialect.Name, err)
	}
	if _, err := db.ExecContext(ctx, dialect.Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Storage{db: db, dialect: dialect}, nil
}

// Close closes the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func toMicros(t time.Time) int64 {
	return t.UnixMicro()
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

// inTx runs fn inside a transaction, committing on success.
func (s *Storage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Registration

func (s *Storage) CreatePlayer(ctx context.Context, reg *model.Registration) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		id := string(reg.Identity.ID)
		_, err := tx.ExecContext(ctx, s.dialect.rebind(
			`INSERT INTO identities (id, display_name, email, referral_code, created_at) VALUES (?, ?, ?, ?, ?)`),
			id, reg.Identity.DisplayName, reg.Identity.Email, reg.Identity.ReferralCode, toMicros(reg.Identity.CreatedAt))
		if err != nil {
			return s.dialect.registrationConflict(err)
		}

		p := reg.Player
		_, err = tx.ExecContext(ctx, s.dialect.rebind(
			`INSERT INTO player_states (identity_id, display_name, avatar_url, registered_at, level, attempts, score, coins, bonus_coins, referral_redeemed, version)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			id, p.DisplayName, p.AvatarURL, toMicros(p.RegisteredAt), p.Level, p.Attempts, p.Score, p.Coins, p.BonusCoins, p.ReferralRedeemed, p.Version)
		if err != nil {
			return fmt.Errorf("failed to insert player state: %w", err)
		}

		_, err = tx.ExecContext(ctx, s.dialect.rebind(
			`INSERT INTO hint_ledger (identity_id, level, tier_unlocked) VALUES (?, ?, ?)`),
			id, p.Hints.Level, p.Hints.TierUnlocked)
		if err != nil {
			return fmt.Errorf("failed to insert hint ledger entry: %w", err)
		}

		_, err = tx.ExecContext(ctx, s.dialect.rebind(
			`INSERT INTO referral_ledger (identity_id, code, success_count, version) VALUES (?, ?, ?, ?)`),
			id, reg.Referral.Code, reg.Referral.SuccessCount, reg.Referral.Version)
		if err != nil {
			return s.dialect.registrationConflict(err)
		}
		return nil
	})
}

func (s *Storage) DeleteIdentity(ctx context.Context, id model.IdentityID) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockIdentity(ctx, tx, id); err != nil {
			return err
		}
		// player_states, hint_ledger and referral_ledger cascade
		res, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM identities WHERE id = ?`), string(id))
		if err != nil {
			return fmt.Errorf("failed to delete identity: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to delete identity: %w", err)
		}
		if n == 0 {
			return model.ErrIdentityNotFound
		}
		return nil
	})
}

// Snapshot reads

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	var (
		identity  model.Identity
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT id, display_name, email, referral_code, created_at FROM identities WHERE id = ?`), string(id)).
		Scan(&identity.ID, &identity.DisplayName, &identity.Email, &identity.ReferralCode, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	identity.CreatedAt = fromMicros(createdAt)
	return &identity, nil
}

const playerColumns = `p.identity_id, p.display_name, p.avatar_url, p.registered_at, p.level, p.attempts, p.score,
	p.coins, p.bonus_coins, p.referral_redeemed, p.version, h.level, h.tier_unlocked`

const playerFrom = `FROM player_states p JOIN hint_ledger h ON h.identity_id = p.identity_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*model.Player, error) {
	var (
		p            model.Player
		registeredAt int64
	)
	err := row.Scan(&p.IdentityID, &p.DisplayName, &p.AvatarURL, &registeredAt, &p.Level, &p.Attempts, &p.Score,
		&p.Coins, &p.BonusCoins, &p.ReferralRedeemed, &p.Version, &p.Hints.Level, &p.Hints.TierUnlocked)
	if err != nil {
		return nil, err
	}
	p.RegisteredAt = fromMicros(registeredAt)
	return &p, nil
}

func (s *Storage) getPlayer(ctx context.Context, q queryer, id model.IdentityID) (*model.Player, error) {
	row := q.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+playerColumns+` `+playerFrom+` WHERE p.identity_id = ?`), string(id))
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.IdentityID) (*model.Player, error) {
	return s.getPlayer(ctx, s.db, id)
}

func (s *Storage) getReferral(ctx context.Context, q queryer, where string, arg string) (*model.Referral, error) {
	var r model.Referral
	err := q.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT identity_id, code, success_count, version FROM referral_ledger WHERE `+where+` = ?`), arg).
		Scan(&r.IdentityID, &r.Code, &r.SuccessCount, &r.Version)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Storage) GetReferral(ctx context.Context, id model.IdentityID) (*model.Referral, error) {
	r, err := s.getReferral(ctx, s.db, "identity_id", string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referral: %w", err)
	}
	return r, nil
}

func (s *Storage) GetReferralByCode(ctx context.Context, code string) (*model.Referral, error) {
	r, err := s.getReferral(ctx, s.db, "code", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrReferralCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referral by code: %w", err)
	}
	return r, nil
}

// ListPlayers reads all players in one statement, so the result reflects a
// single committed snapshot.
func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+playerColumns+` `+playerFrom)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := []*model.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

// Units of work

// lockIdentity takes the aggregate root lock for id. Missing identities are
// not an error here; the subsequent load reports them.
func (s *Storage) lockIdentity(ctx context.Context, tx *sql.Tx, id model.IdentityID) error {
	var got string
	err := tx.QueryRowContext(ctx, s.dialect.rebind(`SELECT id FROM identities WHERE id = ?`+s.dialect.LockSuffix), string(id)).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to lock identity %s: %w", id, err)
	}
	return nil
}

type txLoader struct {
	s  *Storage
	tx *sql.Tx
}

func (l txLoader) LoadPlayer(ctx context.Context, id model.IdentityID) (*model.Player, error) {
	return l.s.getPlayer(ctx, l.tx, id)
}

func (l txLoader) LoadReferral(ctx context.Context, id model.IdentityID) (*model.Referral, error) {
	r, err := l.s.getReferral(ctx, l.tx, "identity_id", string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load referral: %w", err)
	}
	return r, nil
}

func (s *Storage) Atomically(ctx context.Context, ids []model.IdentityID, fn storage.TxFunc) error {
	ordered := storage.LockOrder(ids)

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ordered {
			if err := s.lockIdentity(ctx, tx, id); err != nil {
				return err
			}
		}

		ws := storage.NewWorkingSet(ordered, txLoader{s: s, tx: tx})
		if err := fn(ctx, ws); err != nil {
			return err
		}
		changes, err := ws.Changes()
		if err != nil {
			return err
		}

		for _, p := range changes.Players {
			if err := s.updatePlayer(ctx, tx, p); err != nil {
				return err
			}
		}
		for _, r := range changes.Referrals {
			if err := s.updateReferral(ctx, tx, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for %s: %w", what, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: %s updated %d rows", model.ErrTxConflict, what, n)
	}
	return nil
}

func (s *Storage) updatePlayer(ctx context.Context, tx *sql.Tx, p *model.Player) error {
	res, err := tx.ExecContext(ctx, s.dialect.rebind(
		`UPDATE player_states SET display_name = ?, avatar_url = ?, level = ?, attempts = ?, score = ?, coins = ?,
		 bonus_coins = ?, referral_redeemed = ?, version = ? WHERE identity_id = ? AND version = ?`),
		p.DisplayName, p.AvatarURL, p.Level, p.Attempts, p.Score, p.Coins,
		p.BonusCoins, p.ReferralRedeemed, p.Version, string(p.IdentityID), p.Version-1)
	if err != nil {
		return fmt.Errorf("failed to update player state: %w", err)
	}
	if err := expectOneRow(res, "player state"); err != nil {
		return err
	}

	res, err = tx.ExecContext(ctx, s.dialect.rebind(
		`UPDATE hint_ledger SET level = ?, tier_unlocked = ? WHERE identity_id = ?`),
		p.Hints.Level, p.Hints.TierUnlocked, string(p.IdentityID))
	if err != nil {
		return fmt.Errorf("failed to update hint ledger: %w", err)
	}
	return expectOneRow(res, "hint ledger")
}

func (s *Storage) updateReferral(ctx context.Context, tx *sql.Tx, r *model.Referral) error {
	res, err := tx.ExecContext(ctx, s.dialect.rebind(
		`UPDATE referral_ledger SET success_count = ?, version = ? WHERE identity_id = ? AND version = ?`),
		r.SuccessCount, r.Version, string(r.IdentityID), r.Version-1)
	if err != nil {
		return fmt.Errorf("failed to update referral ledger: %w", err)
	}
	return expectOneRow(res, "referral ledger")
}

// Catalog

func (s *Storage) SaveQuestion(ctx context.Context, q *model.Question) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(
		`INSERT INTO questions (level, media_reference, answer) VALUES (?, ?, ?)
		 ON CONFLICT (level) DO UPDATE SET media_reference = excluded.media_reference, answer = excluded.answer`),
		q.Level, q.MediaReference, q.Answer)
	if err != nil {
		return fmt.Errorf("failed to save question: %w", err)
	}
	return nil
}

func (s *Storage) GetQuestion(ctx context.Context, level int) (*model.Question, error) {
	var q model.Question
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT level, media_reference, answer FROM questions WHERE level = ?`), level).
		Scan(&q.Level, &q.MediaReference, &q.Answer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &q, nil
}

func (s *Storage) ListQuestions(ctx context.Context) ([]*model.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT level, media_reference, answer FROM questions ORDER BY level`)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	out := []*model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.Level, &q.MediaReference, &q.Answer); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}

func (s *Storage) SaveHintSet(ctx context.Context, h *model.HintSet) error {
	tiers, err := json.Marshal(h.Tiers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.dialect.rebind(
		`INSERT INTO hint_sets (level, tiers) VALUES (?, ?)
		 ON CONFLICT (level) DO UPDATE SET tiers = excluded.tiers`),
		h.Level, string(tiers))
	if err != nil {
		return fmt.Errorf("failed to save hint set: %w", err)
	}
	return nil
}

func scanHintSet(row rowScanner) (*model.HintSet, error) {
	var (
		h     model.HintSet
		tiers string
	)
	if err := row.Scan(&h.Level, &tiers); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tiers), &h.Tiers); err != nil {
		return nil, fmt.Errorf("failed to decode hint tiers for level %d: %w", h.Level, err)
	}
	return &h, nil
}

func (s *Storage) GetHintSet(ctx context.Context, level int) (*model.HintSet, error) {
	h, err := scanHintSet(s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT level, tiers FROM hint_sets WHERE level = ?`), level))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrHintSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hint set: %w", err)
	}
	return h, nil
}

func (s *Storage) ListHintSets(ctx context.Context) ([]*model.HintSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT level, tiers FROM hint_sets ORDER BY level`)
	if err != nil {
		return nil, fmt.Errorf("failed to list hint sets: %w", err)
	}
	defer rows.Close()

	out := []*model.HintSet{}
	for rows.Next() {
		h, err := scanHintSet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Storage) SaveMember(ctx context.Context, m *model.Member) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(
		`INSERT INTO members (id, name, position, category, image_url, github_url, linkedin_url) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, position = excluded.position, category = excluded.category,
		 image_url = excluded.image_url, github_url = excluded.github_url, linkedin_url = excluded.linkedin_url`),
		string(m.ID), m.Name, m.Position, m.Category, m.ImageURL, m.GithubURL, m.LinkedInURL)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

func (s *Storage) ListMembers(ctx context.Context) ([]*model.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, position, category, image_url, github_url, linkedin_url FROM members ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	out := []*model.Member{}
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Position, &m.Category, &m.ImageURL, &m.GithubURL, &m.LinkedInURL); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
