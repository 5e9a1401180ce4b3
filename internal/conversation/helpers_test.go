// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SyDuc7421/chatbot-gui/internal/storage"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// askFunc adapts a function to Asker.
type askFunc func(ctx context.Context, question string) (string, error)

func (f askFunc) Ask(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

func answering(answer string) Asker {
	return askFunc(func(context.Context, string) (string, error) { return answer, nil })
}

func failing(err error) Asker {
	return askFunc(func(context.Context, string) (string, error) { return "", err })
}

// gatedAsker blocks each request until released or cancelled.
type gatedAsker struct {
	started chan string
	release chan string
}

func newGatedAsker() *gatedAsker {
	return &gatedAsker{
		started: make(chan string, 16),
		release: make(chan string, 16),
	}
}

func (g *gatedAsker) Ask(ctx context.Context, question string) (string, error) {
	g.started <- question
	select {
	case answer := <-g.release:
		return answer, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gatedAsker) waitStarted(t *testing.T) string {
	t.Helper()
	select {
	case q := <-g.started:
		return q
	case <-time.After(5 * time.Second):
		t.Fatal("request never started")
		return ""
	}
}

// stepClock advances one second on every reading.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// Rewind moves the clock back, simulating a wall clock step.
func (c *stepClock) Rewind(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(-d)
	c.mu.Unlock()
}

var errBackendDown = errors.New("backend down")

// =============================================================================
// FIXTURES
// =============================================================================

type fixture struct {
	store   *Store
	backend *storage.MemoryBackend
	clock   *stepClock
}

func newFixture(t *testing.T, asker Asker) *fixture {
	t.Helper()
	backend := storage.NewMemoryBackend()
	return newFixtureOn(t, backend, asker)
}

func newFixtureOn(t *testing.T, backend *storage.MemoryBackend, asker Asker) *fixture {
	t.Helper()
	clock := newStepClock()
	opts := DefaultOptions()
	opts.Now = clock.Now
	store := NewStore(storage.NewAdapter(backend), asker, opts)
	t.Cleanup(func() { _ = store.Close() })
	return &fixture{store: store, backend: backend, clock: clock}
}

// persisted reads back what the store wrote.
func (f *fixture) persisted() storage.Snapshot {
	return storage.NewAdapter(f.backend).LoadAll()
}

func waitReply(t *testing.T, r *Reply) {
	t.Helper()
	require.NotNil(t, r)
	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("reply did not finish")
	}
}

// testContext stands in for testing.T.Context (Go 1.24+): a context that is
// cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
