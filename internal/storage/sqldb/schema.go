package sqldb

// Timestamps are stored as unix microseconds so both engines round-trip them
// identically.

const postgresSchema = `
CREATE TABLE IF NOT EXISTS identities (
	id            TEXT PRIMARY KEY,
	display_name  TEXT NOT NULL,
	email         TEXT NOT NULL,
	referral_code TEXT NOT NULL,
	created_at    BIGINT NOT NULL,
	CONSTRAINT identities_email_key UNIQUE (email),
	CONSTRAINT identities_referral_code_key UNIQUE (referral_code)
);

CREATE TABLE IF NOT EXISTS player_states (
	identity_id       TEXT PRIMARY KEY REFERENCES identities(id) ON DELETE CASCADE,
	display_name      TEXT NOT NULL,
	avatar_url        TEXT NOT NULL DEFAULT '',
	registered_at     BIGINT NOT NULL,
	level             INTEGER NOT NULL CHECK (level >= 1),
	attempts          INTEGER NOT NULL DEFAULT 0 CHECK (attempts >= 0),
	score             INTEGER NOT NULL DEFAULT 0 CHECK (score >= 0),
	coins             INTEGER NOT NULL CHECK (coins >= 0),
	bonus_coins       INTEGER NOT NULL CHECK (bonus_coins >= 0),
	referral_redeemed BOOLEAN NOT NULL DEFAULT FALSE,
	version           BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS hint_ledger (
	identity_id   TEXT PRIMARY KEY REFERENCES identities(id) ON DELETE CASCADE,
	level         INTEGER NOT NULL,
	tier_unlocked INTEGER NOT NULL CHECK (tier_unlocked BETWEEN 0 AND 3)
);

CREATE TABLE IF NOT EXISTS referral_ledger (
	identity_id   TEXT PRIMARY KEY REFERENCES identities(id) ON DELETE CASCADE,
	code          TEXT NOT NULL,
	success_count INTEGER NOT NULL DEFAULT 0 CHECK (success_count >= 0),
	version       BIGINT NOT NULL DEFAULT 0,
	CONSTRAINT referral_ledger_code_key UNIQUE (code)
);

CREATE INDEX IF NOT EXISTS idx_player_states_score ON player_states(score DESC, registered_at, identity_id);

CREATE TABLE IF NOT EXISTS questions (
	level           INTEGER PRIMARY KEY CHECK (level > 0),
	media_reference TEXT NOT NULL,
	answer          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS hint_sets (
	level INTEGER PRIMARY KEY CHECK (level > 0),
	tiers TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS members (
	seq          BIGSERIAL PRIMARY KEY,
	id           TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	position     TEXT NOT NULL,
	category     TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	github_url   TEXT NOT NULL DEFAULT '',
	linkedin_url TEXT NOT NULL DEFAULT ''
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS identities (
	id            TEXT PRIMARY KEY,
	display_name  TEXT NOT NULL,
	email         TEXT NOT NULL,
	referral_code TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	CONSTRAINT identities_email_key UNIQUE (email),
	CONSTRAINT identities_referral_code_key UNIQUE (referral_code)
);

CREATE TABLE IF NOT EXISTS player_states (
	identity_id       TEXT PRIMARY KEY REFERENCES identities(id) ON DELETE CASCADE,
	display_name      TEXT NOT NULL,
	avatar_url        TEXT NOT NULL DEFAULT '',
	registered_at     INTEGER NOT NULL,
	level             INTEGER NOT NULL CHECK (level >= 1),
	attempts          INTEGER NOT NULL DEFAULT 0 CHECK (attempts >= 0),
	score             INTEGER NOT NULL DEFAULT 0 CHECK (score >= 0),
	coins             INTEGER NOT NULL CHECK (coins >= 0),
	bonus_coins       INTEGER NOT NULL CHECK (bonus_coins >= 0),
	referral_redeemed BOOLEAN NOT NULL DEFAULT 0,
	version           INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS hint_ledger (
	identity_id   TEXT PRIMARY KEY REFERENCES identities(id) ON DELETE CASCADE,
	level         INTEGER NOT NULL,
	tier_unlocked INTEGER NOT NULL CHECK (tier_unlocked BETWEEN 0 AND 3)
);

CREATE TABLE IF NOT EXISTS referral_ledger (
	identity_id   TEXT PRIMARY KEY REFERENCES identities(id) ON DELETE CASCADE,
	code          TEXT NOT NULL,
	success_count INTEGER NOT NULL DEFAULT 0 CHECK (success_count >= 0),
	version       INTEGER NOT NULL DEFAULT 0,
	CONSTRAINT referral_ledger_code_key UNIQUE (code)
);

CREATE INDEX IF NOT EXISTS idx_player_states_score ON player_states(score DESC, registered_at, identity_id);

CREATE TABLE IF NOT EXISTS questions (
	level           INTEGER PRIMARY KEY CHECK (level > 0),
	media_reference TEXT NOT NULL,
	answer          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS hint_sets (
	level INTEGER PRIMARY KEY CHECK (level > 0),
	tiers TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS members (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	position     TEXT NOT NULL,
	category     TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	github_url   TEXT NOT NULL DEFAULT '',
	linkedin_url TEXT NOT NULL DEFAULT ''
);
`
