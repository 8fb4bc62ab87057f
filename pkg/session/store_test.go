// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-s3console.
//
// go-s3console is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-s3console/pkg/common"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestStore(ttl time.Duration) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewMemoryStore(WithTTL(ttl), WithClock(clock.Now)), clock
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store, _ := newTestStore(time.Hour)

	sess := store.Create()
	require.NotEmpty(t, sess.ID)
	assert.False(t, sess.Configured())

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Nil(t, got.Connection)

	other := store.Create()
	assert.NotEqual(t, sess.ID, other.ID)
}

func TestMemoryStore_UnknownSession(t *testing.T) {
	store, _ := newTestStore(time.Hour)

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.SetConnection("missing", common.Connection{}), ErrSessionNotFound)
	assert.ErrorIs(t, store.AddFlash("missing", Flash{}), ErrSessionNotFound)
}

func TestMemoryStore_Connection(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	sess := store.Create()

	conn := common.Connection{Endpoint: "https://s3.example.com", AccessKey: "AKIA", SecretKey: "secret"}
	require.NoError(t, store.SetConnection(sess.ID, conn))

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	require.True(t, got.Configured())
	assert.Equal(t, conn, *got.Connection)

	// Snapshots are copies.
	got.Connection.SecretKey = "changed"
	again, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", again.Connection.SecretKey)

	require.NoError(t, store.ClearConnection(sess.ID))
	cleared, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.False(t, cleared.Configured())
}

func TestMemoryStore_FlashesAreConsumedOnce(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	sess := store.Create()

	require.NoError(t, store.AddFlash(sess.ID, Flash{Kind: FlashSuccess, Message: "uploaded"}))
	require.NoError(t, store.AddFlash(sess.ID, Flash{Kind: FlashError, Message: "failed"}))

	flashes, err := store.PopFlashes(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []Flash{{FlashSuccess, "uploaded"}, {FlashError, "failed"}}, flashes)

	flashes, err = store.PopFlashes(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, flashes)
}

func TestMemoryStore_SlidingExpiry(t *testing.T) {
	store, clock := newTestStore(time.Hour)
	sess := store.Create()

	clock.Advance(50 * time.Minute)
	_, err := store.Get(sess.ID)
	require.NoError(t, err, "activity within the TTL keeps the session")

	clock.Advance(50 * time.Minute)
	_, err = store.Get(sess.ID)
	require.NoError(t, err, "the TTL restarts on every access")

	clock.Advance(61 * time.Minute)
	_, err = store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, store.Len())
}

func TestMemoryStore_Sweep(t *testing.T) {
	store, clock := newTestStore(time.Hour)
	stale := store.Create()
	clock.Advance(45 * time.Minute)
	fresh := store.Create()
	clock.Advance(30 * time.Minute)

	assert.Equal(t, 1, store.Sweep())
	_, err := store.Get(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestMemoryStore_MaxSessionsDropsExpiredFirst(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(WithTTL(time.Hour), WithMaxSessions(2), WithClock(clock.Now))

	stale := store.Create()
	clock.Advance(90 * time.Minute)
	live := store.Create()
	newest := store.Create()

	assert.Equal(t, 2, store.Len())
	_, err := store.Get(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(live.ID)
	assert.NoError(t, err)
	_, err = store.Get(newest.ID)
	assert.NoError(t, err)
}

func TestMemoryStore_MaxSessionsEvictsLeastRecentlySeen(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(WithMaxSessions(3), WithClock(clock.Now))
	assert.Equal(t, 3, store.MaxSessions())

	first := store.Create()
	clock.Advance(time.Second)
	second := store.Create()
	clock.Advance(time.Second)
	third := store.Create()
	clock.Advance(time.Second)
	_, err := store.Get(first.ID)
	require.NoError(t, err)
	clock.Advance(time.Second)

	for i := 0; i < 10; i++ {
		store.Create()
		clock.Advance(time.Second)
	}
	assert.Equal(t, 3, store.Len())

	_, err = store.Get(second.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(third.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_MaxSessionsDefault(t *testing.T) {
	assert.Equal(t, DefaultMaxSessions, NewMemoryStore().MaxSessions())
	assert.Equal(t, DefaultMaxSessions, NewMemoryStore(WithMaxSessions(0)).MaxSessions())
}

func TestMemoryStore_RunStopsOnCancel(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		store.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	sess := store.Create()

	store.Delete(sess.ID)
	_, err := store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	sess := store.Create()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.AddFlash(sess.ID, Flash{Kind: FlashInfo, Message: "x"})
			_, _ = store.Get(sess.ID)
		}()
	}
	wg.Wait()

	flashes, err := store.PopFlashes(sess.ID)
	require.NoError(t, err)
	assert.Len(t, flashes, 20)
}
