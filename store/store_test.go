package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGet(t *testing.T) {
	s := New(time.Minute)

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Set("k", "v1")
	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v1", got)

	s.Set("k", "v2")
	got, _ = s.Get("k")
	assert.Equal(t, "v2", got)
}

func TestStore_Invalidate(t *testing.T) {
	s := New(time.Minute)
	s.Set("k", 1)
	s.Invalidate("k")

	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.True(t, s.IsStale("k"))
}

func TestStore_Staleness(t *testing.T) {
	s := New(time.Minute)

	now := time.Now()
	s.nowFunc = func() time.Time { return now }

	s.Set("k", "v")
	assert.False(t, s.IsStale("k"))

	now = now.Add(2 * time.Minute)
	assert.True(t, s.IsStale("k"))

	// MarkFresh resets the clock without touching the value
	s.MarkFresh("k")
	assert.False(t, s.IsStale("k"))
	got, _ := s.Get("k")
	assert.Equal(t, "v", got)
}

func TestStore_Subscribe(t *testing.T) {
	s := New(time.Minute)

	ch, cancel := s.Subscribe("k")
	defer cancel()

	s.Set("k", "v")
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a notification on Set")
	}

	s.Invalidate("k")
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a notification on Invalidate")
	}

	// after cancel, signals stop arriving
	cancel()
	s.Set("k", "v2")
	select {
	case <-ch:
		t.Fatal("unexpected notification after cancel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStore_SubscribeCoalesces(t *testing.T) {
	s := New(time.Minute)
	ch, cancel := s.Subscribe("k")
	defer cancel()

	// burst of writes while nobody reads: the channel holds one signal
	s.Set("k", 1)
	s.Set("k", 2)
	s.Set("k", 3)

	<-ch
	select {
	case <-ch:
		t.Fatal("expected coalesced signals")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStore_GetOrFetch_UsesFreshValue(t *testing.T) {
	s := New(time.Minute)
	s.Set("k", "cached")

	var calls int32
	got, err := s.GetOrFetch(context.Background(), "k", func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "fetched", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "cached", got)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestStore_GetOrFetch_FetchesWhenStale(t *testing.T) {
	s := New(time.Minute)

	got, err := s.GetOrFetch(context.Background(), "k", func(ctx context.Context) (interface{}, error) {
		return "fetched", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fetched", got)

	// fetched value is cached and fresh now
	cached, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "fetched", cached)
	assert.False(t, s.IsStale("k"))
}

func TestStore_GetOrFetch_Error(t *testing.T) {
	s := New(time.Minute)

	boom := errors.New("boom")
	_, err := s.GetOrFetch(context.Background(), "k", func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	_, ok := s.Get("k")
	assert.False(t, ok, "failed fetch must not populate the cache")
}

func TestStore_GetOrFetch_Deduplicates(t *testing.T) {
	s := New(time.Minute)

	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]interface{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.GetOrFetch(context.Background(), "k", fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// give the goroutines a moment to pile onto the same flight
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "concurrent callers must share one fetch")
	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestStore_GetOrFetch_CancelledCaller(t *testing.T) {
	s := New(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := s.GetOrFetch(ctx, "k", func(ctx context.Context) (interface{}, error) {
			<-release
			return "late", nil
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)

	// the shared fetch still completes and fills the cache for others
	close(release)
	assert.Eventually(t, func() bool {
		v, ok := s.Get("k")
		return ok && v == "late"
	}, time.Second, 10*time.Millisecond)
}

func TestFetch_Typed(t *testing.T) {
	s := New(time.Minute)

	got, err := Fetch(context.Background(), s, "k", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	v, ok := Value[int](s, "k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	// wrong type reads miss instead of panicking
	_, ok = Value[string](s, "k")
	assert.False(t, ok)
}
