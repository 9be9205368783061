package core

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"linkreg/internal/metrics"
)

const (
	DefaultCodeLength = 8
	generateRetries   = 16
)

// Service applies input validation and code assignment on top of a Store.
type Service struct {
	store   Store
	gen     CodeGenerator
	metrics *metrics.Metrics
	codeLen int
	nowFunc func() time.Time
}

// NewService builds a Service. A codeLen <= 0 falls back to DefaultCodeLength; m may be nil.
func NewService(store Store, gen CodeGenerator, codeLen int, m *metrics.Metrics) *Service {
	if codeLen <= 0 {
		codeLen = DefaultCodeLength
	}
	return &Service{
		store:   store,
		gen:     gen,
		metrics: m,
		codeLen: codeLen,
		nowFunc: time.Now,
	}
}

// RegisterUser allocates a new user id.
func (s *Service) RegisterUser(ctx context.Context) (uuid.UUID, error) {
	id, err := s.store.RegisterUser(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	s.metrics.UserRegistered()
	return id, nil
}

// UserExists reports whether id is registered.
func (s *Service) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.store.UserExists(ctx, id)
}

// Shorten validates the request and stores it under a freshly generated code,
// regenerating on collision.
func (s *Service) Shorten(ctx context.Context, in CreateRequest) (Link, error) {
	raw := strings.TrimSpace(in.URL)
	if !ValidURL(raw) {
		return Link{}, ErrInvalidURL
	}
	if in.MaxUses <= 0 {
		return Link{}, ErrInvalidMaxUses
	}
	if exp, ok := in.ExpiresAt.Get(); ok && !exp.After(s.nowFunc()) {
		return Link{}, ErrInvalidExpiry
	}

	for i := 0; i < generateRetries; i++ {
		link, err := s.store.CreateLink(ctx, NewLink{
			Owner:     in.Owner,
			Original:  raw,
			Code:      s.gen.NextCode(s.codeLen),
			MaxUses:   in.MaxUses,
			ExpiresAt: in.ExpiresAt,
		})
		if err == nil {
			s.metrics.LinkCreated()
			return link, nil
		}
		if !IsConflict(err) {
			return Link{}, err
		}
		s.metrics.CodeCollision()
	}
	return Link{}, ErrConflict
}

// Delete removes owner's link. Missing and foreign codes both yield false.
func (s *Service) Delete(ctx context.Context, owner uuid.UUID, code string) (bool, error) {
	ok, err := s.store.DeleteLink(ctx, owner, code)
	if err != nil {
		return false, err
	}
	if ok {
		s.metrics.LinkDeleted()
	}
	return ok, nil
}

// Links returns the owner's live links.
func (s *Service) Links(ctx context.Context, owner uuid.UUID) ([]Link, error) {
	return s.store.UserLinks(ctx, owner)
}

// Redeem consumes one use of code and returns the original URL if it was still usable.
func (s *Service) Redeem(ctx context.Context, code string) (Optional[string], error) {
	res, err := s.store.TryUse(ctx, code)
	if err != nil {
		return None[string](), err
	}
	s.metrics.Redeemed(res.IsPresent())
	return res, nil
}

// CleanupExpired sweeps expired and exhausted links and returns the number removed.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	n, err := s.store.CleanupExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.LinksEvicted(n)
	return n, nil
}

// CodeLength is the length of generated codes.
func (s *Service) CodeLength() int { return s.codeLen }

// ExpiryChoices lists the lifetimes offered by interactive front-ends, in menu order.
// A zero duration means unlimited.
var ExpiryChoices = []struct {
	Label string
	TTL   time.Duration
}{
	{"5 minutes", 5 * time.Minute},
	{"30 minutes", 30 * time.Minute},
	{"60 minutes", 60 * time.Minute},
	{"1 week", 7 * 24 * time.Hour},
	{"1 month", 30 * 24 * time.Hour},
	{"unlimited", 0},
}

// ExpiryFromChoice maps a 1-based menu choice to an absolute expiry.
// Unknown choices mean unlimited.
func ExpiryFromChoice(choice string, now time.Time) Optional[time.Time] {
	choice = strings.TrimSpace(choice)
	for i, c := range ExpiryChoices {
		if choice == strconv.Itoa(i+1) && c.TTL > 0 {
			return Some(now.Add(c.TTL))
		}
	}
	return None[time.Time]()
}
