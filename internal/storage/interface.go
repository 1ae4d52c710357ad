package storage

import (
	"context"

	"github.com/mcoot/paradox/internal/model"
)

// TxFunc mutates the aggregates reserved for a unit of work. It may be invoked
// more than once when a backend retries after an optimistic conflict, so it
// must not have side effects outside tx.
type TxFunc func(ctx context.Context, tx Tx) error

// Tx exposes working copies of reserved aggregates. Mutations made to the
// returned values are persisted when the unit of work commits.
type Tx interface {
	Player(ctx context.Context, id model.IdentityID) (*model.Player, error)
	Referral(ctx context.Context, id model.IdentityID) (*model.Referral, error)
}

// Storage defines the persistence interface for all entities
type Storage interface {
	// Registration
	CreatePlayer(ctx context.Context, reg *model.Registration) error
	DeleteIdentity(ctx context.Context, id model.IdentityID) error

	// Snapshot reads
	GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error)
	GetPlayer(ctx context.Context, id model.IdentityID) (*model.Player, error)
	GetReferral(ctx context.Context, id model.IdentityID) (*model.Referral, error)
	GetReferralByCode(ctx context.Context, code string) (*model.Referral, error)
	ListPlayers(ctx context.Context) ([]*model.Player, error)

	// Atomically runs fn with exclusive access to the aggregates of ids.
	// Identities are locked in ascending order; either every change made
	// through tx is committed or none is.
	Atomically(ctx context.Context, ids []model.IdentityID, fn TxFunc) error

	// Catalog
	SaveQuestion(ctx context.Context, q *model.Question) error
	GetQuestion(ctx context.Context, level int) (*model.Question, error)
	ListQuestions(ctx context.Context) ([]*model.Question, error)
	SaveHintSet(ctx context.Context, h *model.HintSet) error
	GetHintSet(ctx context.Context, level int) (*model.HintSet, error)
	ListHintSets(ctx context.Context) ([]*model.HintSet, error)
	SaveMember(ctx context.Context, m *model.Member) error
	ListMembers(ctx context.Context) ([]*model.Member, error)
}
