/*
Package session owns the live, editable plan for one configuration.

PURPOSE:
  A Session is the explicit state container for one (organization,
  configuration name): the in-memory plan, the pending-changes counter,
  and the autosaver that persists it. Nothing else holds the plan;
  handlers reach it through a Session and derivations receive it by
  pointer inside View.

EDITING:
  OnCellChange / OnAddRow / OnDeleteRow mutate the active tables, bump
  the pending-changes counter and schedule a debounced save. Bad indices
  come back as plan.ErrRowOutOfRange / plan.ErrColumnOutOfRange.

LOCKING:
  All plan access happens under Session.mu. Flush and Close on the
  autosaver are never called with mu held, since the save callback
  takes mu to clear the pending counter.

SEE ALSO:
  - manager.go:         Opens sessions, seed fallback on load failure
  - gateway/autosave.go: Debounced, serialized saves
*/
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/warp/scaleup-planner/gateway"
	"github.com/warp/scaleup-planner/plan"
	"github.com/warp/scaleup-planner/table"
)

// Session is one live plan.
type Session struct {
	orgKey string
	name   string
	logger *zap.Logger

	mu          sync.Mutex
	description string
	plan        *plan.Plan
	editor      string
	pending     int
	lastEdit    uint64
	loadMessage string
	seeded      bool

	autosaver *gateway.Autosaver
}

func newSession(orgKey, name, description string, p *plan.Plan, logger *zap.Logger) *Session {
	return &Session{
		orgKey:      orgKey,
		name:        name,
		description: description,
		plan:        p,
		logger:      logger.With(zap.String("org", orgKey), zap.String("configuration", name)),
	}
}

// OrgKey returns the owning organization.
func (s *Session) OrgKey() string { return s.orgKey }

// Name returns the configuration name saves are written to.
func (s *Session) Name() string { return s.name }

// LoadMessage is the user-visible message recorded when the stored
// configuration could not be loaded. Empty when loading succeeded.
func (s *Session) LoadMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadMessage
}

// Seeded reports whether the plan came from seed data.
func (s *Session) Seeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeded
}

// SetEditor records who made the next edits, for LastModifiedBy.
func (s *Session) SetEditor(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user != "" {
		s.editor = user
	}
}

// View runs fn with exclusive access to the plan. fn must not retain p.
func (s *Session) View(fn func(p *plan.Plan)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.plan)
}

// PendingChanges is the number of edits not yet confirmed saved.
func (s *Session) PendingChanges() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// SyncStatus returns the autosaver state.
func (s *Session) SyncStatus() gateway.SyncStatus {
	return s.autosaver.Status()
}

// ===== TABLE EDITING =====

// OnCellChange sets one cell of the active table and returns the row as
// it reads after the edit.
func (s *Session) OnCellChange(kind plan.TableKind, row, col int, value any) (table.Row, error) {
	var updated table.Row
	err := s.edit(func(p *plan.Plan) error {
		t := p.Active()
		if err := t.SetCell(kind, row, col, value); err != nil {
			return err
		}
		updated = t.Rows(kind)[row]
		return nil
	})
	return updated, err
}

// OnAddRow appends a blank row to the active table and returns its index.
func (s *Session) OnAddRow(kind plan.TableKind) (int, error) {
	var index int
	err := s.edit(func(p *plan.Plan) error {
		var err error
		index, err = p.Active().AddRow(kind)
		return err
	})
	return index, err
}

// OnDeleteRow removes one row of the active table.
func (s *Session) OnDeleteRow(kind plan.TableKind, index int) error {
	return s.edit(func(p *plan.Plan) error {
		return p.Active().DeleteRow(kind, index)
	})
}

// ===== SELECTION =====

// SelectScenario switches the active scenario key and variant.
func (s *Session) SelectScenario(key plan.ScenarioKey, variant string) error {
	return s.edit(func(p *plan.Plan) error {
		return p.Select(key, variant)
	})
}

// SetParameters replaces the parameters for one scenario key.
func (s *Session) SetParameters(key plan.ScenarioKey, params plan.ScenarioParameters) error {
	if !key.Valid() {
		return fmt.Errorf("%q: %w", key, plan.ErrUnknownScenario)
	}
	return s.edit(func(p *plan.Plan) error {
		p.Parameters[key] = params
		return nil
	})
}

// Replace swaps in a whole new plan, as when loading demo data.
func (s *Session) Replace(p *plan.Plan, seeded bool) {
	_ = s.edit(func(*plan.Plan) error {
		s.plan = p
		s.seeded = seeded
		s.loadMessage = ""
		return nil
	})
}

// ===== PERSISTENCE =====

// Save schedules the current plan and flushes it immediately. This is the
// manual save and the retry after going offline.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	err := s.scheduleLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.autosaver.Flush(ctx)
}

// Close flushes pending edits and stops the autosaver.
func (s *Session) Close(ctx context.Context) error {
	return s.autosaver.Close(ctx)
}

// edit applies fn under the lock; on success it counts a pending change
// and schedules a save.
func (s *Session) edit(fn func(p *plan.Plan) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.plan); err != nil {
		return err
	}
	s.pending++
	return s.scheduleLocked()
}

func (s *Session) scheduleLocked() error {
	payload, err := plan.Encode(s.plan)
	if err != nil {
		s.logger.Error("Failed to encode plan", zap.Error(err))
		return err
	}
	s.lastEdit = s.autosaver.Schedule(gateway.SaveRequest{
		Name:        s.name,
		Description: s.description,
		Payload:     payload,
		ScenarioKey: s.plan.ScenarioKey,
		VariantName: s.plan.Variant,
		ModifiedBy:  s.editor,
	})
	return nil
}

// onSaved clears the counter once the latest edit is on disk.
func (s *Session) onSaved(version uint64, _ *plan.Configuration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version >= s.lastEdit {
		s.pending = 0
	}
}
