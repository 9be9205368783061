package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkState(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		link Link
		want LinkState
	}{
		{"fresh unlimited", Link{MaxUses: 1}, StateActive},
		{"future expiry", Link{MaxUses: 2, UsedCount: 1, ExpiresAt: Some(now.Add(time.Second))}, StateActive},
		{"exhausted", Link{MaxUses: 2, UsedCount: 2}, StateExhausted},
		{"expired at instant", Link{MaxUses: 2, ExpiresAt: Some(now)}, StateExpired},
		{"expired before", Link{MaxUses: 2, ExpiresAt: Some(now.Add(-time.Hour))}, StateExpired},
		{"exhausted and expired", Link{MaxUses: 1, UsedCount: 1, ExpiresAt: Some(now.Add(-time.Hour))}, StateExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.link.State(now))
			assert.Equal(t, tt.want == StateActive, tt.link.Usable(now))
		})
	}
}

func TestLinkFormat(t *testing.T) {
	l := Link{Code: "Ab3_-xYz", Original: "example.com", UsedCount: 1, MaxUses: 2}
	assert.Equal(t,
		"short: go.to/Ab3_-xYz\n  original: example.com\n  uses: 1/2\n  expires: unlimited",
		l.Format("go.to/"))

	exp := time.Date(2025, 12, 31, 23, 59, 58, 0, time.Local)
	l.ExpiresAt = Some(exp)
	assert.True(t, strings.HasSuffix(l.String(), "expires: 2025-12-31 23:59:58"), l.String())
	assert.True(t, strings.HasPrefix(l.String(), "short: Ab3_-xYz\n"))
}

func TestOptional(t *testing.T) {
	none := None[int]()
	_, ok := none.Get()
	assert.False(t, ok)
	assert.Equal(t, 7, none.OrElse(7))

	var zero Optional[string]
	assert.False(t, zero.IsPresent())

	some := Some(3)
	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3, some.OrElse(7))
}

func TestOptionalJSON(t *testing.T) {
	type payload struct {
		At Optional[time.Time] `json:"at"`
	}
	at := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

	b, err := json.Marshal(payload{At: Some(at)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2025-06-01T08:30:00Z"}`, string(b))

	b, err = json.Marshal(payload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":null}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"at":"2025-06-01T08:30:00Z"}`), &p))
	got, ok := p.At.Get()
	require.True(t, ok)
	assert.True(t, got.Equal(at))

	p = payload{At: Some(at)}
	require.NoError(t, json.Unmarshal([]byte(`{"at":null}`), &p))
	assert.False(t, p.At.IsPresent())

	assert.Error(t, json.Unmarshal([]byte(`{"at":"yesterday"}`), &p))
}

func TestValidURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://go.dev/doc", true},
		{"http://localhost:8080/x", true},
		{"example.com", true},
		{"example.com/path?q=1", true},
		{"LOCALHOST", true},
		{"10.0.0.255", true},
		{"ftp://files.example.org", true},
		{"", false},
		{"has space.com", false},
		{"intranet", false},
		{"example.c", false},
		{"300.1.1.1", false},
		{"/path/only", false},
		{"https://", false},
		{"http://%zz", false},
		{"https://" + strings.Repeat("a", 2050) + ".com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidURL(tt.in), "ValidURL(%q)", tt.in)
	}
}

func TestRedirectTarget(t *testing.T) {
	assert.Equal(t, "https://example.com", RedirectTarget("example.com"))
	assert.Equal(t, "http://example.com", RedirectTarget("http://example.com"))
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsConflict(ErrConflict))
	assert.True(t, IsUnknownOwner(ErrUnknownOwner))
	assert.True(t, IsInvalidInput(ErrInvalidURL))
	assert.True(t, IsInvalidInput(ErrInvalidExpiry))
	assert.False(t, IsInvalidInput(ErrConflict))
}
