package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Units of work serialize on per-identity mutexes; the map lock is only held
// for short copy-in/copy-out sections.
type Storage struct {
	mu sync.RWMutex

	identities map[model.IdentityID]*model.Identity
	players    map[model.IdentityID]*model.Player
	referrals  map[model.IdentityID]*model.Referral
	emailIndex map[string]model.IdentityID
	codeIndex  map[string]model.IdentityID

	questions map[int]*model.Question
	hintSets  map[int]*model.HintSet
	members   map[model.MemberID]*model.Member
	memberSeq []model.MemberID

	locksMu sync.Mutex
	locks   map[model.IdentityID]*identityLock
}

// identityLock is dropped from the table once no caller holds or awaits it
type identityLock struct {
	sync.Mutex
	refs int
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		identities: make(map[model.IdentityID]*model.Identity),
		players:    make(map[model.IdentityID]*model.Player),
		referrals:  make(map[model.IdentityID]*model.Referral),
		emailIndex: make(map[string]model.IdentityID),
		codeIndex:  make(map[string]model.IdentityID),
		questions:  make(map[int]*model.Question),
		hintSets:   make(map[int]*model.HintSet),
		members:    make(map[model.MemberID]*model.Member),
		locks:      make(map[model.IdentityID]*identityLock),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) acquire(id model.IdentityID) *identityLock {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &identityLock{}
		s.locks[id] = l
	}
	l.refs++
	return l
}

func (s *Storage) release(id model.IdentityID, l *identityLock) {
	l.Unlock()
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
}

// lockIdentities acquires the locks for ids in ascending order and returns
// a function releasing them in reverse.
func (s *Storage) lockIdentities(ids []model.IdentityID) func() {
	ordered := storage.LockOrder(ids)
	held := make([]*identityLock, 0, len(ordered))
	for _, id := range ordered {
		l := s.acquire(id)
		l.Lock()
		held = append(held, l)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			s.release(ordered[i], held[i])
		}
	}
}

// Registration

func (s *Storage) CreatePlayer(ctx context.Context, reg *model.Registration) error {
	unlock := s.lockIdentities([]model.IdentityID{reg.Identity.ID})
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.identities[reg.Identity.ID]; ok {
		return model.ErrIdentityExists
	}
	if _, ok := s.emailIndex[reg.Identity.Email]; ok {
		return model.ErrEmailTaken
	}
	if _, ok := s.codeIndex[reg.Identity.ReferralCode]; ok {
		return model.ErrReferralCodeTaken
	}

	identity := *reg.Identity
	s.identities[identity.ID] = &identity
	s.players[identity.ID] = reg.Player.Clone()
	s.referrals[identity.ID] = reg.Referral.Clone()
	s.emailIndex[identity.Email] = identity.ID
	s.codeIndex[identity.ReferralCode] = identity.ID
	return nil
}

func (s *Storage) DeleteIdentity(ctx context.Context, id model.IdentityID) error {
	unlock := s.lockIdentities([]model.IdentityID{id})
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[id]
	if !ok {
		return model.ErrIdentityNotFound
	}
	delete(s.emailIndex, identity.Email)
	delete(s.codeIndex, identity.ReferralCode)
	delete(s.players, id)
	delete(s.referrals, id)
	delete(s.identities, id)
	return nil
}

// Snapshot reads

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	out := *identity
	return &out, nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.IdentityID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	return p.Clone(), nil
}

func (s *Storage) GetReferral(ctx context.Context, id model.IdentityID) (*model.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.referrals[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	return r.Clone(), nil
}

func (s *Storage) GetReferralByCode(ctx context.Context, code string) (*model.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codeIndex[code]
	if !ok {
		return nil, model.ErrReferralCodeNotFound
	}
	return s.referrals[id].Clone(), nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p.Clone())
	}
	return out, nil
}

// Units of work

type loader struct {
	s *Storage
}

func (l loader) LoadPlayer(ctx context.Context, id model.IdentityID) (*model.Player, error) {
	return l.s.GetPlayer(ctx, id)
}

func (l loader) LoadReferral(ctx context.Context, id model.IdentityID) (*model.Referral, error) {
	return l.s.GetReferral(ctx, id)
}

func (s *Storage) Atomically(ctx context.Context, ids []model.IdentityID, fn storage.TxFunc) error {
	unlock := s.lockIdentities(ids)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	ws := storage.NewWorkingSet(ids, loader{s: s})
	if err := fn(ctx, ws); err != nil {
		return err
	}
	changes, err := ws.Changes()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range changes.Players {
		s.players[p.IdentityID] = p
	}
	for _, r := range changes.Referrals {
		s.referrals[r.IdentityID] = r
	}
	return nil
}

// Catalog

func (s *Storage) SaveQuestion(ctx context.Context, q *model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := *q
	s.questions[q.Level] = &out
	return nil
}

func (s *Storage) GetQuestion(ctx context.Context, level int) (*model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[level]
	if !ok {
		return nil, model.ErrQuestionNotFound
	}
	out := *q
	return &out, nil
}

func (s *Storage) ListQuestions(ctx context.Context) ([]*model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Question, 0, len(s.questions))
	for _, q := range s.questions {
		c := *q
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *model.Question) int { return cmp.Compare(a.Level, b.Level) })
	return out, nil
}

func (s *Storage) SaveHintSet(ctx context.Context, h *model.HintSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hintSets[h.Level] = &model.HintSet{Level: h.Level, Tiers: slices.Clone(h.Tiers)}
	return nil
}

func (s *Storage) GetHintSet(ctx context.Context, level int) (*model.HintSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hintSets[level]
	if !ok {
		return nil, model.ErrHintSetNotFound
	}
	return &model.HintSet{Level: h.Level, Tiers: slices.Clone(h.Tiers)}, nil
}

func (s *Storage) ListHintSets(ctx context.Context) ([]*model.HintSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.HintSet, 0, len(s.hintSets))
	for _, h := range s.hintSets {
		out = append(out, &model.HintSet{Level: h.Level, Tiers: slices.Clone(h.Tiers)})
	}
	slices.SortFunc(out, func(a, b *model.HintSet) int { return cmp.Compare(a.Level, b.Level) })
	return out, nil
}

func (s *Storage) SaveMember(ctx context.Context, m *model.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.members[m.ID]; !exists {
		s.memberSeq = append(s.memberSeq, m.ID)
	}
	out := *m
	s.members[m.ID] = &out
	return nil
}

func (s *Storage) ListMembers(ctx context.Context) ([]*model.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Member, 0, len(s.memberSeq))
	for _, id := range s.memberSeq {
		m := *s.members[id]
		out = append(out, &m)
	}
	return out, nil
}
