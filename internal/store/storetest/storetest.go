// Package storetest holds the behaviour every core.Store backend must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkreg/internal/core"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Factory builds an empty store reading time from now.
type Factory func(t *testing.T, now func() time.Time) core.Store

// Run exercises the full store contract against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	setup := func(t *testing.T) (core.Store, *Clock, uuid.UUID) {
		t.Helper()
		clk := NewClock()
		s := newStore(t, clk.Now)
		t.Cleanup(func() { _ = s.Close() })
		owner, err := s.RegisterUser(context.Background())
		require.NoError(t, err)
		return s, clk, owner
	}
	create := func(t *testing.T, s core.Store, owner uuid.UUID, code string, maxUses int, exp core.Optional[time.Time]) core.Link {
		t.Helper()
		l, err := s.CreateLink(context.Background(), core.NewLink{
			Owner: owner, Original: "example.com/" + code, Code: code, MaxUses: maxUses, ExpiresAt: exp,
		})
		require.NoError(t, err)
		return l
	}

	t.Run("RegisterUser", func(t *testing.T) {
		s, _, owner := setup(t)
		ctx := context.Background()

		ok, err := s.UserExists(ctx, owner)
		require.NoError(t, err)
		assert.True(t, ok)

		parsed, err := uuid.Parse(owner.String())
		require.NoError(t, err)
		assert.Equal(t, owner, parsed)

		ok, err = s.UserExists(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, ok)

		links, err := s.UserLinks(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("RedeemUntilExhausted", func(t *testing.T) {
		s, _, owner := setup(t)
		ctx := context.Background()
		_, err := s.CreateLink(ctx, core.NewLink{Owner: owner, Original: "example.com", Code: "Ab3_-xYz", MaxUses: 2})
		require.NoError(t, err)

		for i := 1; i <= 2; i++ {
			res, err := s.TryUse(ctx, "Ab3_-xYz")
			require.NoError(t, err)
			got, ok := res.Get()
			require.True(t, ok, "use %d", i)
			assert.Equal(t, "example.com", got)

			if i == 1 {
				links, err := s.UserLinks(ctx, owner)
				require.NoError(t, err)
				require.Len(t, links, 1)
				assert.Equal(t, 1, links[0].UsedCount)
			}
		}

		res, err := s.TryUse(ctx, "Ab3_-xYz")
		require.NoError(t, err)
		assert.False(t, res.IsPresent())

		links, err := s.UserLinks(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("ExpiredOnArrival", func(t *testing.T) {
		s, clk, owner := setup(t)
		ctx := context.Background()
		create(t, s, owner, "past0001", 5, core.Some(clk.Now().Add(-time.Second)))

		res, err := s.TryUse(ctx, "past0001")
		require.NoError(t, err)
		assert.False(t, res.IsPresent())

		links, err := s.UserLinks(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("ExpiresAtBoundary", func(t *testing.T) {
		s, clk, owner := setup(t)
		ctx := context.Background()
		create(t, s, owner, "edge0001", 5, core.Some(clk.Now().Add(time.Minute)))

		clk.Advance(time.Minute - time.Nanosecond)
		res, err := s.TryUse(ctx, "edge0001")
		require.NoError(t, err)
		assert.True(t, res.IsPresent())

		clk.Advance(time.Nanosecond)
		res, err = s.TryUse(ctx, "edge0001")
		require.NoError(t, err)
		assert.False(t, res.IsPresent())
	})

	t.Run("UnknownCode", func(t *testing.T) {
		s, _, _ := setup(t)
		res, err := s.TryUse(context.Background(), "missing!")
		require.NoError(t, err)
		assert.False(t, res.IsPresent())
	})

	t.Run("CreatePreconditions", func(t *testing.T) {
		s, _, owner := setup(t)
		ctx := context.Background()

		tests := []struct {
			name    string
			in      core.NewLink
			wantErr error
		}{
			{"zero max uses", core.NewLink{Owner: owner, Original: "a.io", Code: "c0", MaxUses: 0}, core.ErrInvalidMaxUses},
			{"negative max uses", core.NewLink{Owner: owner, Original: "a.io", Code: "c1", MaxUses: -3}, core.ErrInvalidMaxUses},
			{"empty code", core.NewLink{Owner: owner, Original: "a.io", Code: "", MaxUses: 1}, core.ErrInvalidCode},
			{"unknown owner", core.NewLink{Owner: uuid.New(), Original: "a.io", Code: "c2", MaxUses: 1}, core.ErrUnknownOwner},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := s.CreateLink(ctx, tt.in)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})

	t.Run("DuplicateLiveCodeRejected", func(t *testing.T) {
		s, _, owner := setup(t)
		ctx := context.Background()
		create(t, s, owner, "dup00001", 1, core.None[time.Time]())

		_, err := s.CreateLink(ctx, core.NewLink{Owner: owner, Original: "other.com", Code: "dup00001", MaxUses: 1})
		assert.ErrorIs(t, err, core.ErrConflict)

		res, err := s.TryUse(ctx, "dup00001")
		require.NoError(t, err)
		got, _ := res.Get()
		assert.Equal(t, "example.com/dup00001", got)
	})

	t.Run("DeadCodeReassigned", func(t *testing.T) {
		s, clk, owner := setup(t)
		ctx := context.Background()
		create(t, s, owner, "reuse001", 1, core.Some(clk.Now().Add(time.Second)))
		clk.Advance(2 * time.Second)

		l, err := s.CreateLink(ctx, core.NewLink{Owner: owner, Original: "fresh.com", Code: "reuse001", MaxUses: 1})
		require.NoError(t, err)
		assert.Equal(t, 0, l.UsedCount)

		res, err := s.TryUse(ctx, "reuse001")
		require.NoError(t, err)
		got, _ := res.Get()
		assert.Equal(t, "fresh.com", got)
	})

	t.Run("DeleteByOwner", func(t *testing.T) {
		s, _, owner := setup(t)
		ctx := context.Background()
		create(t, s, owner, "del00001", 3, core.None[time.Time]())

		ok, err := s.DeleteLink(ctx, owner, "del00001")
		require.NoError(t, err)
		assert.True(t, ok)

		res, err := s.TryUse(ctx, "del00001")
		require.NoError(t, err)
		assert.False(t, res.IsPresent())

		ok, err = s.DeleteLink(ctx, owner, "del00001")
		require.NoError(t, err)
		assert.False(t, ok)

		create(t, s, owner, "del00001", 1, core.None[time.Time]())
	})

	t.Run("DeleteByStranger", func(t *testing.T) {
		s, _, owner := setup(t)
		ctx := context.Background()
		create(t, s, owner, "mine0001", 3, core.None[time.Time]())
		stranger, err := s.RegisterUser(ctx)
		require.NoError(t, err)

		ok, err := s.DeleteLink(ctx, stranger, "mine0001")
		require.NoError(t, err)
		assert.False(t, ok)

		links, err := s.UserLinks(ctx, owner)
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "mine0001", links[0].Code)
		assert.Equal(t, 0, links[0].UsedCount)
	})

	t.Run("UserLinksInsertionOrderAndIsolation", func(t *testing.T) {
		s, _, owner := setup(t)
		ctx := context.Background()
		other, err := s.RegisterUser(ctx)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			create(t, s, owner, fmt.Sprintf("ord%05d", i), 1, core.None[time.Time]())
		}
		create(t, s, other, "other001", 1, core.None[time.Time]())

		links, err := s.UserLinks(ctx, owner)
		require.NoError(t, err)
		require.Len(t, links, 5)
		for i, l := range links {
			assert.Equal(t, fmt.Sprintf("ord%05d", i), l.Code)
			assert.Equal(t, owner, l.Owner)
		}

		links, err = s.UserLinks(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("SnapshotsAreDetached", func(t *testing.T) {
		s, _, owner := setup(t)
		ctx := context.Background()
		create(t, s, owner, "snap0001", 2, core.None[time.Time]())

		links, err := s.UserLinks(ctx, owner)
		require.NoError(t, err)
		links[0].UsedCount = 2

		res, err := s.TryUse(ctx, "snap0001")
		require.NoError(t, err)
		assert.True(t, res.IsPresent())
	})

	t.Run("CleanupExpired", func(t *testing.T) {
		s, clk, owner := setup(t)
		ctx := context.Background()

		n, err := s.CleanupExpired(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		create(t, s, owner, "keep0001", 5, core.None[time.Time]())
		create(t, s, owner, "soon0001", 5, core.Some(clk.Now().Add(time.Minute)))
		create(t, s, owner, "once0001", 1, core.None[time.Time]())
		_, err = s.TryUse(ctx, "once0001")
		require.NoError(t, err)
		clk.Advance(time.Hour)

		n, err = s.CleanupExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = s.CleanupExpired(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		links, err := s.UserLinks(ctx, owner)
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "keep0001", links[0].Code)
	})

	t.Run("ConcurrentRedeem", func(t *testing.T) {
		s, _, owner := setup(t)
		ctx := context.Background()
		const maxUses, callers = 7, 64
		create(t, s, owner, "race0001", maxUses, core.None[time.Time]())

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := s.TryUse(ctx, "race0001")
				if err == nil && res.IsPresent() {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(maxUses), wins.Load())
	})

	t.Run("ConcurrentCreateSameCode", func(t *testing.T) {
		s, _, owner := setup(t)
		ctx := context.Background()
		const callers = 32

		var wins, conflicts atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.CreateLink(ctx, core.NewLink{
					Owner: owner, Original: fmt.Sprintf("site%d.com", i), Code: "same0001", MaxUses: 1,
				})
				switch {
				case err == nil:
					wins.Add(1)
				case core.IsConflict(err):
					conflicts.Add(1)
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(callers-1), conflicts.Load())
	})

	t.Run("ConcurrentDeleteAndCleanup", func(t *testing.T) {
		s, clk, owner := setup(t)
		ctx := context.Background()
		const n = 50
		for i := 0; i < n; i++ {
			create(t, s, owner, fmt.Sprintf("gone%04d", i), 1, core.Some(clk.Now().Add(time.Second)))
		}
		clk.Advance(time.Minute)

		var deleted, swept atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				if ok, err := s.DeleteLink(ctx, owner, fmt.Sprintf("gone%04d", i)); err == nil && ok {
					deleted.Add(1)
				}
			}(i)
			go func() {
				defer wg.Done()
				if k, err := s.CleanupExpired(ctx); err == nil {
					swept.Add(int32(k))
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(n), deleted.Load()+swept.Load())
		links, err := s.UserLinks(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, links)
	})
}
