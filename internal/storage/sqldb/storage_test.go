package sqldb

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
	"github.com/mcoot/paradox/internal/storage/storagetest"
)

type SQLiteStorageSuite struct {
	storagetest.Suite
}

func TestSQLiteStorageSuite(t *testing.T) {
	suite.Run(t, &SQLiteStorageSuite{
		Suite: storagetest.Suite{
			NewStorage: func(t *testing.T) storage.Storage {
				store, err := OpenSQLite(context.Background(), ":memory:")
				require.NoError(t, err)
				t.Cleanup(func() { _ = store.Close() })
				return store
			},
		},
	})
}

func (s *SQLiteStorageSuite) TestCascadeRemovesLedgerRows() {
	store := s.Store.(*Storage)
	s.Require().NoError(store.CreatePlayer(s.Ctx, storagetest.Registration("alice")))
	s.Require().NoError(store.DeleteIdentity(s.Ctx, "alice"))

	for _, table := range []string{"player_states", "hint_ledger", "referral_ledger"} {
		var n int
		s.Require().NoError(store.db.QueryRowContext(s.Ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
		s.Zero(n, table)
	}
}

func (s *SQLiteStorageSuite) TestDeleteUnknownIdentity() {
	store := s.Store.(*Storage)
	s.ErrorIs(store.DeleteIdentity(s.Ctx, "ghost"), model.ErrIdentityNotFound)

	s.Require().NoError(store.CreatePlayer(s.Ctx, storagetest.Registration("alice")))
	s.Require().NoError(store.DeleteIdentity(s.Ctx, "alice"))
	s.ErrorIs(store.DeleteIdentity(s.Ctx, "alice"), model.ErrIdentityNotFound)
}

func (s *SQLiteStorageSuite) TestSchemaIsIdempotent() {
	store := s.Store.(*Storage)
	_, err := store.db.ExecContext(s.Ctx, SQLite.Schema)
	s.NoError(err)
}

// PostgresStorageSuite runs only when PARADOX_TEST_POSTGRES_URL points at a
// disposable database.
type PostgresStorageSuite struct {
	storagetest.Suite
}

func TestPostgresStorageSuite(t *testing.T) {
	url := os.Getenv("PARADOX_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("PARADOX_TEST_POSTGRES_URL not set")
	}
	suite.Run(t, &PostgresStorageSuite{
		Suite: storagetest.Suite{
			NewStorage: func(t *testing.T) storage.Storage {
				store, err := OpenPostgres(context.Background(), url)
				require.NoError(t, err)
				_, err = store.db.Exec(`TRUNCATE identities, questions, hint_sets, members CASCADE`)
				require.NoError(t, err)
				t.Cleanup(func() { _ = store.Close() })
				return store
			},
		},
	})
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y = ?"
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", Postgres.rebind(q))
	assert.Equal(t, q, SQLite.rebind(q))
}
