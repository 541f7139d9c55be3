/*
autosave.go - Debounced, serialized configuration saves

PURPOSE:
  Live editing produces a burst of changes; each should not be its own
  save. The Autosaver coalesces them and guarantees an older payload can
  never overwrite a newer one.

DESIGN:
  - Schedule(req) replaces the single pending slot and restarts the
    debounce timer. Only the latest payload is ever saved.
  - Every Schedule bumps a monotonic version. A save carries the version
    it was taken at; a completed save older than the last accepted one is
    discarded.
  - Saves run one at a time (saveMu). A save in flight is never cancelled;
    edits arriving meanwhile wait in the pending slot for the next cycle.
  - Within a cycle, a failed save is retried with backoff (retry.go). When
    the cycle still fails, the payload goes back into the pending slot
    unless a newer one arrived, and the state becomes offline. The next
    Schedule or a manual Flush retries it.

STATES:
  synced -> pending (Schedule) -> saving -> synced | pending | offline

USAGE:
  a := gw.NewAutosaver(org, gateway.AutosaveOptions{Delay: time.Second})
  a.Schedule(req)
  // ... later
  a.Close(ctx)

SEE ALSO:
  - gateway.go:   SaveConfiguration, the call each cycle makes
  - session/:     Schedules a save after every edit
*/
package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/scaleup-planner/plan"
)

// SyncState is the sync indicator shown next to the plan.
type SyncState string

const (
	StateSynced  SyncState = "synced"
	StatePending SyncState = "pending"
	StateSaving  SyncState = "saving"
	StateOffline SyncState = "offline"
)

// DefaultAutosaveDelay is the debounce window.
const DefaultAutosaveDelay = time.Second

// ErrAutosaverClosed is returned by Flush after Close.
var ErrAutosaverClosed = errors.New("autosaver closed")

// AutosaveOptions configures an Autosaver.
type AutosaveOptions struct {
	Delay   time.Duration
	Timeout time.Duration // per cycle, default 30s
	Retry   *RetryConfig
	// OnSaved is called after an accepted save, outside the lock.
	OnSaved func(version uint64, cfg *plan.Configuration)
}

// SyncStatus is a snapshot of the autosaver state.
type SyncStatus struct {
	State        SyncState `json:"state"`
	Version      uint64    `json:"version"`
	SavedVersion uint64    `json:"saved_version"`
	LastError    string    `json:"last_error,omitempty"`
	LastSavedAt  time.Time `json:"last_saved_at,omitempty"`
}

type saveFunc func(ctx context.Context, req SaveRequest) (*plan.Configuration, error)

// Autosaver debounces and serializes saves of the latest plan payload.
type Autosaver struct {
	save    saveFunc
	logger  *zap.Logger
	delay   time.Duration
	timeout time.Duration
	retry   *RetryConfig
	onSaved func(uint64, *plan.Configuration)

	saveMu sync.Mutex

	mu             sync.Mutex
	timer          *time.Timer
	pending        *SaveRequest
	pendingVersion uint64
	version        uint64
	savedVersion   uint64
	state          SyncState
	lastErr        error
	lastSavedAt    time.Time
	closed         bool
	wg             sync.WaitGroup
}

func newAutosaver(save saveFunc, logger *zap.Logger, opts AutosaveOptions) *Autosaver {
	if opts.Delay <= 0 {
		opts.Delay = DefaultAutosaveDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Autosaver{
		save:    save,
		logger:  logger.Named("autosave"),
		delay:   opts.Delay,
		timeout: opts.Timeout,
		retry:   opts.Retry,
		onSaved: opts.OnSaved,
		state:   StateSynced,
	}
}

// Schedule replaces the pending payload and restarts the debounce timer.
// It returns the version assigned to req.
func (a *Autosaver) Schedule(req SaveRequest) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.version++
	if a.closed {
		return a.version
	}
	r := req
	a.pending = &r
	a.pendingVersion = a.version
	if a.state != StateSaving {
		a.state = StatePending
	}

	a.stopTimerLocked()
	a.wg.Add(1)
	a.timer = time.AfterFunc(a.delay, func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		_ = a.cycle(ctx)
	})
	return a.version
}

// Flush saves the pending payload now and waits for the result. It is the
// manual retry after going offline. Nothing pending is a no-op.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrAutosaverClosed
	}
	a.stopTimerLocked()
	a.mu.Unlock()
	return a.cycle(ctx)
}

// Close flushes anything pending, waits for timer-driven saves, and stops
// accepting work.
func (a *Autosaver) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.stopTimerLocked()
	a.mu.Unlock()

	err := a.cycle(ctx)

	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
	return err
}

// Status returns the current sync state.
func (a *Autosaver) Status() SyncStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := SyncStatus{
		State:        a.state,
		Version:      a.version,
		SavedVersion: a.savedVersion,
		LastSavedAt:  a.lastSavedAt,
	}
	if a.lastErr != nil {
		s.LastError = a.lastErr.Error()
	}
	return s
}

// stopTimerLocked cancels a scheduled cycle. A timer that already fired
// keeps its wg slot until its cycle returns.
func (a *Autosaver) stopTimerLocked() {
	if a.timer != nil && a.timer.Stop() {
		a.wg.Done()
	}
	a.timer = nil
}

// cycle takes the pending payload and saves it. Only one cycle runs at a
// time.
func (a *Autosaver) cycle(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	if a.pending == nil {
		a.mu.Unlock()
		return nil
	}
	req := *a.pending
	version := a.pendingVersion
	a.pending = nil
	a.state = StateSaving
	a.mu.Unlock()

	var saved *plan.Configuration
	err := retryDo(ctx, a.retry, func() error {
		var err error
		saved, err = a.save(ctx, req)
		return err
	})

	a.mu.Lock()
	if err != nil {
		if a.pending == nil {
			a.pending = &req
			a.pendingVersion = version
		}
		a.state = StateOffline
		a.lastErr = err
		a.mu.Unlock()

		a.logger.Warn("Autosave failed, keeping local changes",
			zap.String("name", req.Name),
			zap.Uint64("version", version),
			zap.Error(err))
		return err
	}

	if version < a.savedVersion {
		a.mu.Unlock()
		a.logger.Debug("Discarding stale save result", zap.Uint64("version", version))
		return nil
	}

	a.savedVersion = version
	a.lastErr = nil
	a.lastSavedAt = time.Now().UTC()
	if saved != nil && !saved.UpdatedAt.IsZero() {
		a.lastSavedAt = saved.UpdatedAt
	}
	a.state = StateSynced
	if a.pending != nil {
		a.state = StatePending
	}
	onSaved := a.onSaved
	a.mu.Unlock()

	a.logger.Debug("Autosaved",
		zap.String("name", req.Name),
		zap.Uint64("version", version))
	if onSaved != nil {
		onSaved(version, saved)
	}
	return nil
}
