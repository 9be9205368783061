package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkreg/internal/config"
	"linkreg/internal/store/sqlite"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type countingCleaner struct {
	calls atomic.Int32
	err   error
}

func (c *countingCleaner) CleanupExpired(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestSweeperTicksUntilCancelled(t *testing.T) {
	c := &countingCleaner{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSweeper(c, 5*time.Millisecond, discard).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return c.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeperKeepsGoingAfterErrors(t *testing.T) {
	var buf bytes.Buffer
	c := &countingCleaner{err: errors.New("boom")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewSweeper(c, 5*time.Millisecond, slog.New(slog.NewTextHandler(&syncWriter{w: &buf}, nil))).Run(ctx)

	require.Eventually(t, func() bool { return c.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestSweeperDisabled(t *testing.T) {
	c := &countingCleaner{}
	NewSweeper(c, 0, discard).Run(context.Background())
	assert.Zero(t, c.calls.Load())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "warn", "json")
	log.Info("hidden")
	log.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	NewLogger(&buf, "bogus", "text").Info("plain")
	assert.True(t, strings.Contains(buf.String(), "msg=plain"))
}

func TestNewPicksBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), config.Config{Store: "sqlite", DBPath: ":memory:", CodeLength: 8}, discard)
	require.NoError(t, err)
	defer a.Close()
	assert.IsType(t, &sqlite.Store{}, a.Store)

	_, err = New(context.Background(), config.Config{Store: "etcd"}, discard)
	assert.Error(t, err)
}

func TestStartServesUntilCancelled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	port := freePort(t)
	a, err := New(context.Background(), config.Config{Port: port, Store: "memory", CodeLength: 8, CleanupInterval: time.Millisecond}, discard)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- a.Start(ctx) }()

	require.Eventually(t, func() bool {
		res, err := http.Get("http://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(port)) + "/health")
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
