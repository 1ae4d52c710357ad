package sqldb

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mcoot/paradox/internal/model"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	Name   string
	Driver string
	Schema string

	// LockSuffix is appended to the aggregate root lock query. SQLite has no
	// row locks; its writers are serialized by BEGIN IMMEDIATE instead.
	LockSuffix string

	numberedParams bool
	isUnique       func(err error) bool
}

// Postgres is the lib/pq dialect.
var Postgres = Dialect{
	Name:           "postgres",
	Driver:         "postgres",
	Schema:         postgresSchema,
	LockSuffix:     " FOR UPDATE",
	numberedParams: true,
	isUnique: func(err error) bool {
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == "23505"
	},
}

// SQLite is the modernc.org/sqlite dialect.
var SQLite = Dialect{
	Name:   "sqlite",
	Driver: "sqlite",
	Schema: sqliteSchema,
	isUnique: func(err error) bool {
		var sqliteErr *msqlite.Error
		if !errors.As(err, &sqliteErr) {
			return false
		}
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
		return false
	},
}

// rebind rewrites ? placeholders into the dialect's native form.
func (d Dialect) rebind(query string) string {
	if !d.numberedParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// registrationConflict maps a uniqueness failure raised while inserting a
// registration to the matching domain error. Other errors are returned as is.
func (d Dialect) registrationConflict(err error) error {
	if err == nil || !d.isUnique(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return model.ErrEmailTaken
	case strings.Contains(msg, "code"):
		return model.ErrReferralCodeTaken
	default:
		return model.ErrIdentityExists
	}
}
