package gateway_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/scaleup-planner/gateway"
	"github.com/warp/scaleup-planner/plan"
)

// fakeClock hands out strictly increasing timestamps.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newMemory() *gateway.Memory {
	m := gateway.NewMemory()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m.Now = clock.Now
	return m
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

func TestLoadConfiguration_ByName(t *testing.T) {
	ctx := context.Background()
	gw := gateway.New(newMemory(), nil)

	_, err := gw.SaveConfiguration(ctx, "acme", gateway.SaveRequest{Name: "Plan A", Payload: []byte(`{"a":1}`), ScenarioKey: plan.Scenario50k, VariantName: "CNC"})
	require.NoError(t, err)
	_, err = gw.SaveConfiguration(ctx, "acme", gateway.SaveRequest{Name: "Plan B", Payload: []byte(`{"b":1}`)})
	require.NoError(t, err)

	loaded, err := gw.LoadConfiguration(ctx, "acme", "Plan A")
	require.NoError(t, err)

	assert.False(t, loaded.Fallback)
	assert.Equal(t, "Plan A", loaded.Configuration.Name)
	assert.Equal(t, `{"a":1}`, string(loaded.Configuration.Payload))
	assert.Equal(t, plan.Scenario50k, loaded.Configuration.ScenarioKey)
	assert.Equal(t, "CNC", loaded.Configuration.VariantName)
}

func TestLoadConfiguration_FallsBackToLatestOfAnyName(t *testing.T) {
	ctx := context.Background()
	gw := gateway.New(newMemory(), nil)

	_, err := gw.SaveConfiguration(ctx, "acme", gateway.SaveRequest{Name: "Old"})
	require.NoError(t, err)
	_, err = gw.SaveConfiguration(ctx, "acme", gateway.SaveRequest{Name: "Newest"})
	require.NoError(t, err)
	_, err = gw.SaveConfiguration(ctx, "other-org", gateway.SaveRequest{Name: "Foreign"})
	require.NoError(t, err)

	loaded, err := gw.LoadConfiguration(ctx, "acme", "Missing")
	require.NoError(t, err)

	assert.True(t, loaded.Fallback)
	assert.Equal(t, "Newest", loaded.Configuration.Name)
}

func TestLoadConfiguration_NotFound(t *testing.T) {
	gw := gateway.New(newMemory(), nil)

	_, err := gw.LoadConfiguration(context.Background(), "acme", "Anything")

	assert.ErrorIs(t, err, plan.ErrNotFound)
}

func TestSaveConfiguration_UpsertsByOrgAndName(t *testing.T) {
	ctx := context.Background()
	gw := gateway.New(newMemory(), nil)

	first, err := gw.SaveConfiguration(ctx, "acme", gateway.SaveRequest{Name: "Plan", Payload: []byte("1"), ModifiedBy: "ana"})
	require.NoError(t, err)
	second, err := gw.SaveConfiguration(ctx, "acme", gateway.SaveRequest{Name: "Plan", Payload: []byte("2"), ModifiedBy: "ben"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, "ben", second.LastModifiedBy)

	loaded, err := gw.LoadConfiguration(ctx, "acme", "Plan")
	require.NoError(t, err)
	assert.Equal(t, "2", string(loaded.Configuration.Payload))
}

func TestSaveConfiguration_RequiresName(t *testing.T) {
	gw := gateway.New(newMemory(), nil)

	_, err := gw.SaveConfiguration(context.Background(), "acme", gateway.SaveRequest{Name: "  "})

	assert.ErrorIs(t, err, gateway.ErrNameRequired)
}

func TestLogModifications_Appends(t *testing.T) {
	mem := newMemory()
	gw := gateway.New(mem, nil)

	require.NoError(t, gw.LogModifications(context.Background(), nil))
	require.NoError(t, gw.LogModifications(context.Background(), []plan.ModificationLogEntry{
		{TableName: "kpis", RecordID: "k1", FieldName: "current_value", OldValue: "1", NewValue: "2", ModifiedBy: "ana"},
	}))

	log := mem.Modifications()
	require.Len(t, log, 1)
	assert.Equal(t, "current_value", log[0].FieldName)
	assert.False(t, log[0].ModifiedAt.IsZero())
}

// =============================================================================
// AUTOSAVE
// =============================================================================

// recordingStore wraps Memory, counting upserts and optionally failing or
// slowing them down.
type recordingStore struct {
	*gateway.Memory
	calls     atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	failures  atomic.Int32 // remaining upserts to fail
	delay     time.Duration
}

func (s *recordingStore) UpsertConfiguration(ctx context.Context, cfg plan.Configuration) (*plan.Configuration, error) {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxFlight.Load()
		if n <= m || s.maxFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.failures.Load() > 0 {
		s.failures.Add(-1)
		return nil, errors.New("connection refused")
	}
	return s.Memory.UpsertConfiguration(ctx, cfg)
}

func payloadOf(t *testing.T, mem *gateway.Memory) string {
	t.Helper()
	cfg, err := mem.LatestConfiguration(context.Background(), "acme", "Plan")
	require.NoError(t, err)
	if cfg == nil {
		return ""
	}
	return string(cfg.Payload)
}

func TestAutosaver_CoalescesBurstIntoOneSave(t *testing.T) {
	// GIVEN: An autosaver with a short debounce
	store := &recordingStore{Memory: newMemory()}
	gw := gateway.New(store, nil)
	a := gw.NewAutosaver("acme", gateway.AutosaveOptions{Delay: 20 * time.Millisecond, Retry: gateway.NoRetry()})
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	// WHEN: Five edits land inside the window
	for _, p := range []string{"1", "2", "3", "4", "5"} {
		a.Schedule(gateway.SaveRequest{Name: "Plan", Payload: []byte(p)})
	}

	// THEN: Only the latest payload is saved, once
	require.Eventually(t, func() bool {
		return a.Status().State == gateway.StateSynced
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), store.calls.Load())
	assert.Equal(t, "5", payloadOf(t, store.Memory))
	assert.Equal(t, uint64(5), a.Status().SavedVersion)
}

func TestAutosaver_SavesAreSerialized(t *testing.T) {
	store := &recordingStore{Memory: newMemory(), delay: 40 * time.Millisecond}
	gw := gateway.New(store, nil)
	a := gw.NewAutosaver("acme", gateway.AutosaveOptions{Delay: 5 * time.Millisecond, Retry: gateway.NoRetry()})
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	a.Schedule(gateway.SaveRequest{Name: "Plan", Payload: []byte("old")})
	require.Eventually(t, func() bool {
		return a.Status().State == gateway.StateSaving
	}, time.Second, time.Millisecond)

	// A newer edit arrives while the first save is in flight.
	a.Schedule(gateway.SaveRequest{Name: "Plan", Payload: []byte("new")})

	require.Eventually(t, func() bool {
		return a.Status().SavedVersion == 2 && a.Status().State == gateway.StateSynced
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "new", payloadOf(t, store.Memory))
	assert.Equal(t, int32(1), store.maxFlight.Load())
	assert.Equal(t, int32(2), store.calls.Load())
}

func TestAutosaver_FailureGoesOfflineAndFlushRetries(t *testing.T) {
	store := &recordingStore{Memory: newMemory()}
	store.failures.Store(1)
	gw := gateway.New(store, nil)
	a := gw.NewAutosaver("acme", gateway.AutosaveOptions{Delay: 10 * time.Millisecond, Retry: gateway.NoRetry()})
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	// WHEN: The save fails
	a.Schedule(gateway.SaveRequest{Name: "Plan", Payload: []byte("edit")})
	require.Eventually(t, func() bool {
		return a.Status().State == gateway.StateOffline
	}, time.Second, 5*time.Millisecond)

	// THEN: Local changes are kept and reported
	status := a.Status()
	assert.Contains(t, status.LastError, "connection refused")
	assert.Zero(t, status.SavedVersion)
	assert.Equal(t, "", payloadOf(t, store.Memory))

	// WHEN: The user retries manually
	require.NoError(t, a.Flush(context.Background()))

	// THEN: The kept payload is saved
	assert.Equal(t, gateway.StateSynced, a.Status().State)
	assert.Empty(t, a.Status().LastError)
	assert.Equal(t, "edit", payloadOf(t, store.Memory))
}

func TestAutosaver_RetriesWithinCycle(t *testing.T) {
	store := &recordingStore{Memory: newMemory()}
	store.failures.Store(2)
	gw := gateway.New(store, nil)
	a := gw.NewAutosaver("acme", gateway.AutosaveOptions{
		Delay: time.Hour,
		Retry: &gateway.RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2},
	})
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	a.Schedule(gateway.SaveRequest{Name: "Plan", Payload: []byte("x")})
	require.NoError(t, a.Flush(context.Background()))

	assert.Equal(t, int32(3), store.calls.Load())
	assert.Equal(t, "x", payloadOf(t, store.Memory))
}

func TestAutosaver_FlushWithNothingPending(t *testing.T) {
	gw := gateway.New(newMemory(), nil)
	a := gw.NewAutosaver("acme", gateway.AutosaveOptions{})

	assert.NoError(t, a.Flush(context.Background()))
	assert.Equal(t, gateway.StateSynced, a.Status().State)
}

func TestAutosaver_CloseFlushesPending(t *testing.T) {
	mem := newMemory()
	gw := gateway.New(mem, nil)
	var savedVersion atomic.Uint64
	a := gw.NewAutosaver("acme", gateway.AutosaveOptions{
		Delay:   time.Hour,
		OnSaved: func(v uint64, _ *plan.Configuration) { savedVersion.Store(v) },
	})

	a.Schedule(gateway.SaveRequest{Name: "Plan", Payload: []byte("final")})
	require.NoError(t, a.Close(context.Background()))

	assert.Equal(t, "final", payloadOf(t, mem))
	assert.Equal(t, uint64(1), savedVersion.Load())
	assert.ErrorIs(t, a.Flush(context.Background()), gateway.ErrAutosaverClosed)
}
