package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExpiryLayout is the display format for link expiry times.
const ExpiryLayout = "2006-01-02 15:04:05"

// LinkState is the lifecycle position of a link at a given instant.
type LinkState string

const (
	StateActive    LinkState = "active"
	StateExhausted LinkState = "exhausted"
	StateExpired   LinkState = "expired"
)

// Link is a snapshot of a shortened link record.
type Link struct {
	Owner     uuid.UUID           `json:"owner"`
	Original  string              `json:"url"`
	Code      string              `json:"code"`
	UsedCount int                 `json:"used"`
	MaxUses   int                 `json:"max_uses"`
	ExpiresAt Optional[time.Time] `json:"expires_at"`
	CreatedAt time.Time           `json:"created_at"`
}

// Expired reports whether the link has an expiry at or before now.
func (l Link) Expired(now time.Time) bool {
	exp, ok := l.ExpiresAt.Get()
	return ok && !now.Before(exp)
}

// Exhausted reports whether every allowed use has been consumed.
func (l Link) Exhausted() bool { return l.UsedCount >= l.MaxUses }

// Usable reports whether the link can still be redeemed at now.
func (l Link) Usable(now time.Time) bool { return !l.Expired(now) && !l.Exhausted() }

// State classifies the link at now. Exhaustion wins over expiry.
func (l Link) State(now time.Time) LinkState {
	switch {
	case l.Exhausted():
		return StateExhausted
	case l.Expired(now):
		return StateExpired
	default:
		return StateActive
	}
}

// Format renders the display block, with prefix placed before the code.
func (l Link) Format(prefix string) string {
	exp := "unlimited"
	if t, ok := l.ExpiresAt.Get(); ok {
		exp = t.Local().Format(ExpiryLayout)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "short: %s%s\n", prefix, l.Code)
	fmt.Fprintf(&b, "  original: %s\n", l.Original)
	fmt.Fprintf(&b, "  uses: %d/%d\n", l.UsedCount, l.MaxUses)
	fmt.Fprintf(&b, "  expires: %s", exp)
	return b.String()
}

func (l Link) String() string { return l.Format("") }

// NewLink is the input to Store.CreateLink.
type NewLink struct {
	Owner     uuid.UUID
	Original  string
	Code      string
	MaxUses   int
	ExpiresAt Optional[time.Time]
}

// CreateRequest is the input to Service.Shorten.
type CreateRequest struct {
	Owner     uuid.UUID
	URL       string
	MaxUses   int
	ExpiresAt Optional[time.Time]
}

// Store is the authoritative holder of users and links.
// Every read path sweeps expired and exhausted links before answering.
type Store interface {
	// RegisterUser allocates a fresh random user id.
	RegisterUser(ctx context.Context) (uuid.UUID, error)
	// UserExists reports whether id was registered.
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
	// CreateLink inserts a link. Fails with ErrConflict if the code is held by a live link.
	CreateLink(ctx context.Context, in NewLink) (Link, error)
	// DeleteLink removes the link only when owner matches; false otherwise.
	DeleteLink(ctx context.Context, owner uuid.UUID, code string) (bool, error)
	// UserLinks returns the owner's live links in insertion order.
	UserLinks(ctx context.Context, owner uuid.UUID) ([]Link, error)
	// TryUse consumes one use of code and returns its original URL.
	TryUse(ctx context.Context, code string) (Optional[string], error)
	// CleanupExpired removes expired and exhausted links and returns how many went.
	CleanupExpired(ctx context.Context) (int, error)
	// Close releases resources held by the backend.
	Close() error
}

// CodeGenerator produces random short codes. Uniqueness is the caller's job.
type CodeGenerator interface {
	NextCode(length int) string
}
