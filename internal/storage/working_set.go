package storage

import (
	"context"
	"fmt"
	"slices"

	"github.com/mcoot/paradox/internal/model"
)

// Loader reads the committed state of an aggregate inside a backend transaction.
type Loader interface {
	LoadPlayer(ctx context.Context, id model.IdentityID) (*model.Player, error)
	LoadReferral(ctx context.Context, id model.IdentityID) (*model.Referral, error)
}

type loadedPlayer struct {
	orig, work *model.Player
}

type loadedReferral struct {
	orig, work *model.Referral
}

// WorkingSet is the Tx handed to a TxFunc. Backends construct one per attempt,
// run the TxFunc against it and then persist whatever Changes reports.
type WorkingSet struct {
	loader    Loader
	reserved  map[model.IdentityID]struct{}
	players   map[model.IdentityID]*loadedPlayer
	referrals map[model.IdentityID]*loadedReferral
}

var _ Tx = (*WorkingSet)(nil)

// NewWorkingSet creates a working set restricted to ids.
func NewWorkingSet(ids []model.IdentityID, loader Loader) *WorkingSet {
	reserved := make(map[model.IdentityID]struct{}, len(ids))
	for _, id := range ids {
		reserved[id] = struct{}{}
	}
	return &WorkingSet{
		loader:    loader,
		reserved:  reserved,
		players:   make(map[model.IdentityID]*loadedPlayer),
		referrals: make(map[model.IdentityID]*loadedReferral),
	}
}

func (w *WorkingSet) Player(ctx context.Context, id model.IdentityID) (*model.Player, error) {
	if _, ok := w.reserved[id]; !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotReserved, id)
	}
	if l, ok := w.players[id]; ok {
		return l.work, nil
	}
	p, err := w.loader.LoadPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	w.players[id] = &loadedPlayer{orig: p, work: p.Clone()}
	return w.players[id].work, nil
}

func (w *WorkingSet) Referral(ctx context.Context, id model.IdentityID) (*model.Referral, error) {
	if _, ok := w.reserved[id]; !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotReserved, id)
	}
	if l, ok := w.referrals[id]; ok {
		return l.work, nil
	}
	r, err := w.loader.LoadReferral(ctx, id)
	if err != nil {
		return nil, err
	}
	w.referrals[id] = &loadedReferral{orig: r, work: r.Clone()}
	return w.referrals[id].work, nil
}

// Changes is the validated output of a unit of work, ordered by identity.
type Changes struct {
	Players   []*model.Player
	Referrals []*model.Referral
}

// Empty reports whether nothing needs to be written.
func (c *Changes) Empty() bool {
	return len(c.Players) == 0 && len(c.Referrals) == 0
}

// Changes checks every modified aggregate against its pre-image, bumps the
// version of each working copy and returns snapshots to persist. Working
// copies handed out by Player and Referral reflect the committed version once
// the backend has written the snapshots.
func (w *WorkingSet) Changes() (*Changes, error) {
	changes := &Changes{}

	for _, id := range sortedKeys(w.players) {
		l := w.players[id]
		if *l.work == *l.orig {
			continue
		}
		if l.work.IdentityID != l.orig.IdentityID {
			return nil, fmt.Errorf("%w: player identity changed", model.ErrInvariantViolation)
		}
		if err := l.work.CheckTransition(l.orig); err != nil {
			return nil, err
		}
		l.work.Version = l.orig.Version + 1
		changes.Players = append(changes.Players, l.work.Clone())
	}

	for _, id := range sortedKeys(w.referrals) {
		l := w.referrals[id]
		if *l.work == *l.orig {
			continue
		}
		if err := l.work.CheckTransition(l.orig); err != nil {
			return nil, err
		}
		l.work.Version = l.orig.Version + 1
		changes.Referrals = append(changes.Referrals, l.work.Clone())
	}

	return changes, nil
}

// LockOrder returns ids de-duplicated and sorted ascending, the order in
// which backends acquire per-identity locks.
func LockOrder(ids []model.IdentityID) []model.IdentityID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func sortedKeys[V any](m map[model.IdentityID]V) []model.IdentityID {
	keys := make([]model.IdentityID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
