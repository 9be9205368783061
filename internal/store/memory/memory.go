package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"linkreg/internal/core"
)

// Store implements core.Store with in-process maps behind a single mutex.
// The code index and the owner index are always updated in the same critical section.
type Store struct {
	mu      sync.Mutex
	users   map[uuid.UUID]struct{}
	byCode  map[string]*core.Link
	byOwner map[uuid.UUID][]*core.Link
	nowFunc func() time.Time
}

// New returns an empty store using the wall clock.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock returns an empty store that reads the current time from now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		users:   make(map[uuid.UUID]struct{}),
		byCode:  make(map[string]*core.Link),
		byOwner: make(map[uuid.UUID][]*core.Link),
		nowFunc: now,
	}
}

// RegisterUser allocates a random v4 id. Collisions are not checked.
func (s *Store) RegisterUser(_ context.Context) (uuid.UUID, error) {
	id := uuid.New()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = struct{}{}
	s.byOwner[id] = nil
	return id, nil
}

func (s *Store) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok, nil
}

// CreateLink sweeps, then inserts in one critical section, so a code held by
// a dead link is free again while a live one is never overwritten.
func (s *Store) CreateLink(_ context.Context, in core.NewLink) (core.Link, error) {
	if in.MaxUses <= 0 {
		return core.Link{}, core.ErrInvalidMaxUses
	}
	if in.Code == "" {
		return core.Link{}, core.ErrInvalidCode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	s.sweepLocked(now)

	if _, ok := s.users[in.Owner]; !ok {
		return core.Link{}, core.ErrUnknownOwner
	}
	if _, taken := s.byCode[in.Code]; taken {
		return core.Link{}, core.ErrConflict
	}

	rec := &core.Link{
		Owner:     in.Owner,
		Original:  in.Original,
		Code:      in.Code,
		MaxUses:   in.MaxUses,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: now,
	}
	s.byCode[rec.Code] = rec
	s.byOwner[rec.Owner] = append(s.byOwner[rec.Owner], rec)
	return *rec, nil
}

func (s *Store) DeleteLink(_ context.Context, owner uuid.UUID, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byCode[code]
	if !ok || rec.Owner != owner {
		return false, nil
	}
	s.removeLocked(rec)
	return true, nil
}

// UserLinks returns copies, so callers cannot reach the stored records.
func (s *Store) UserLinks(_ context.Context, owner uuid.UUID) ([]core.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(s.nowFunc())

	recs := s.byOwner[owner]
	out := make([]core.Link, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *rec)
	}
	return out, nil
}

// TryUse checks usability and increments under the lock, so at most MaxUses calls succeed.
func (s *Store) TryUse(_ context.Context, code string) (core.Optional[string], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	s.sweepLocked(now)

	rec, ok := s.byCode[code]
	if !ok || !rec.Usable(now) {
		return core.None[string](), nil
	}
	rec.UsedCount++
	return core.Some(rec.Original), nil
}

func (s *Store) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.nowFunc()), nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// sweepLocked removes every link that is no longer usable at now.
func (s *Store) sweepLocked(now time.Time) int {
	n := 0
	for _, rec := range s.byCode {
		if !rec.Usable(now) {
			s.removeLocked(rec)
			n++
		}
	}
	return n
}

func (s *Store) removeLocked(rec *core.Link) {
	delete(s.byCode, rec.Code)
	s.byOwner[rec.Owner] = slices.DeleteFunc(s.byOwner[rec.Owner], func(l *core.Link) bool {
		return l == rec
	})
}

var _ core.Store = (*Store)(nil)
