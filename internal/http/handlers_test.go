package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkreg/internal/app"
	"linkreg/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		BaseURL:    "http://example", // response builds short_url from this
		CodeLength: 8,
		Store:      "memory",
	}
	a, err := app.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	srv := httptest.NewServer(a.Router)
	t.Cleanup(func() {
		srv.Close()
		_ = a.Close()
	})
	return srv
}

// noFollow returns a client that surfaces redirects instead of following them.
func noFollow() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func do(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewBuffer(b)
	}
	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := noFollow().Do(req)
	require.NoError(t, err)
	data, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	return res, data
}

type linkOut struct {
	Code      string     `json:"code"`
	ShortURL  string     `json:"short_url"`
	URL       string     `json:"url"`
	Used      int        `json:"used"`
	MaxUses   int        `json:"max_uses"`
	ExpiresAt *time.Time `json:"expires_at"`
	State     string     `json:"state"`
}

func register(t *testing.T, base string) string {
	t.Helper()
	res, body := do(t, http.MethodPost, base+"/api/users", nil)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var out struct{ ID string }
	require.NoError(t, json.Unmarshal(body, &out))
	_, err := uuid.Parse(out.ID)
	require.NoError(t, err)
	return out.ID
}

func listLinks(t *testing.T, base, uid string) []linkOut {
	t.Helper()
	res, body := do(t, http.MethodGet, base+"/api/users/"+uid+"/links", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var out struct{ Links []linkOut }
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Links
}

func TestLinkLifecycle(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL

	res, _ := do(t, http.MethodGet, base+"/health", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	uid := register(t, base)

	res, _ = do(t, http.MethodGet, base+"/api/users/"+uid, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, body := do(t, http.MethodPost, base+"/api/users/"+uid+"/links", map[string]any{
		"url":      "example.com",
		"max_uses": 2,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var link linkOut
	require.NoError(t, json.Unmarshal(body, &link))
	require.Len(t, link.Code, 8)
	assert.Equal(t, "http://example/"+link.Code, link.ShortURL)
	assert.Equal(t, "active", link.State)
	assert.Nil(t, link.ExpiresAt)

	for i := 0; i < 2; i++ {
		res, _ := do(t, http.MethodGet, base+"/"+link.Code, nil)
		require.Equal(t, http.StatusFound, res.StatusCode)
		assert.Equal(t, "https://example.com", res.Header.Get("Location"))
		if i == 0 {
			links := listLinks(t, base, uid)
			require.Len(t, links, 1)
			assert.Equal(t, 1, links[0].Used)
		}
	}

	res, _ = do(t, http.MethodGet, base+"/"+link.Code, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Empty(t, listLinks(t, base, uid))
}

func TestCreateLinkWithExpiry(t *testing.T) {
	ts := newTestServer(t)
	uid := register(t, ts.URL)

	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	res, body := do(t, http.MethodPost, ts.URL+"/api/users/"+uid+"/links", map[string]any{
		"url":        "https://go.dev/",
		"max_uses":   1,
		"expires_at": exp.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var link linkOut
	require.NoError(t, json.Unmarshal(body, &link))
	require.NotNil(t, link.ExpiresAt)
	assert.True(t, exp.Equal(*link.ExpiresAt))

	res, body = do(t, http.MethodPost, ts.URL+"/api/users/"+uid+"/links", map[string]any{
		"url":      "https://go.dev/",
		"max_uses": 1,
		"ttl":      "30m",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &link))
	require.NotNil(t, link.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *link.ExpiresAt, 5*time.Second)

	res, _ = do(t, http.MethodGet, ts.URL+"/"+link.Code, nil)
	require.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "https://go.dev/", res.Header.Get("Location"))
}

func TestCreateLinkRejections(t *testing.T) {
	ts := newTestServer(t)
	uid := register(t, ts.URL)

	tests := []struct {
		name   string
		user   string
		body   any
		status int
	}{
		{"bad url", uid, map[string]any{"url": "notaurl", "max_uses": 1}, http.StatusBadRequest},
		{"zero uses", uid, map[string]any{"url": "go.dev", "max_uses": 0}, http.StatusBadRequest},
		{"past expiry", uid, map[string]any{"url": "go.dev", "max_uses": 1, "expires_at": "2001-01-01T00:00:00Z"}, http.StatusBadRequest},
		{"bad ttl", uid, map[string]any{"url": "go.dev", "max_uses": 1, "ttl": "soon"}, http.StatusBadRequest},
		{"ttl and expiry", uid, map[string]any{"url": "go.dev", "max_uses": 1, "ttl": "5m", "expires_at": "2999-01-01T00:00:00Z"}, http.StatusBadRequest},
		{"bad body", uid, "just a string", http.StatusBadRequest},
		{"malformed user", "not-a-uuid", map[string]any{"url": "go.dev", "max_uses": 1}, http.StatusBadRequest},
		{"unknown user", uuid.NewString(), map[string]any{"url": "go.dev", "max_uses": 1}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, body := do(t, http.MethodPost, ts.URL+"/api/users/"+tt.user+"/links", tt.body)
			assert.Equal(t, tt.status, res.StatusCode, string(body))
		})
	}
}

func TestDeleteLink(t *testing.T) {
	ts := newTestServer(t)
	owner := register(t, ts.URL)
	stranger := register(t, ts.URL)

	res, body := do(t, http.MethodPost, ts.URL+"/api/users/"+owner+"/links", map[string]any{"url": "go.dev", "max_uses": 5})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var link linkOut
	require.NoError(t, json.Unmarshal(body, &link))

	res, _ = do(t, http.MethodDelete, ts.URL+"/api/users/"+stranger+"/links/"+link.Code, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Len(t, listLinks(t, ts.URL, owner), 1)

	res, _ = do(t, http.MethodDelete, ts.URL+"/api/users/"+owner+"/links/"+link.Code, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res, _ = do(t, http.MethodDelete, ts.URL+"/api/users/"+owner+"/links/"+link.Code, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = do(t, http.MethodGet, ts.URL+"/"+link.Code, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUnknownUserAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	res, _ := do(t, http.MethodGet, ts.URL+"/api/users/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Empty(t, listLinks(t, ts.URL, uuid.NewString()))

	res, _ = do(t, http.MethodGet, ts.URL+"/nope1234", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body := do(t, http.MethodGet, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, strings.Contains(string(body), `linkreg_redemptions_total{result="miss"} 1`), string(body))

	res, body = do(t, http.MethodGet, ts.URL+"/", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "<title>linkreg</title>")
}
