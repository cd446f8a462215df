package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCache struct {
	cleared atomic.Int32
}

func (c *countingCache) Clear() { c.cleared.Add(1) }

func TestClearOnSignal(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	cache := &countingCache{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	done := make(chan error, 1)
	go func() { done <- clearOnSignal(ctx, sig, cache, log) }()

	sig <- syscall.SIGHUP
	require.Eventually(t, func() bool { return cache.cleared.Load() == 1 }, time.Second, 5*time.Millisecond)
	sig <- syscall.SIGHUP
	require.Eventually(t, func() bool { return cache.cleared.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("clearOnSignal did not return after cancel")
	}
}
