package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/scaleup-planner/plan"
)

// =============================================================================
// MEMORY STORE - In-memory ConfigurationStore (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	configs map[configKey]plan.Configuration
	log     []plan.ModificationLogEntry

	// Now stamps CreatedAt/UpdatedAt. Defaults to time.Now.
	Now func() time.Time
}

type configKey struct {
	OrgKey string
	Name   string
}

func NewMemory() *Memory {
	return &Memory{
		configs: make(map[configKey]plan.Configuration),
		Now:     time.Now,
	}
}

func (m *Memory) LatestConfiguration(_ context.Context, orgKey, name string) (*plan.Configuration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.configs[configKey{OrgKey: orgKey, Name: name}]
	if !ok {
		return nil, nil
	}
	return cloneConfig(cfg), nil
}

func (m *Memory) LatestAnyConfiguration(_ context.Context, orgKey string) (*plan.Configuration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *plan.Configuration
	for k, cfg := range m.configs {
		if k.OrgKey != orgKey {
			continue
		}
		if latest == nil || cfg.UpdatedAt.After(latest.UpdatedAt) ||
			(cfg.UpdatedAt.Equal(latest.UpdatedAt) && cfg.Name < latest.Name) {
			c := cfg
			latest = &c
		}
	}
	if latest == nil {
		return nil, nil
	}
	return cloneConfig(*latest), nil
}

// UpsertConfiguration overwrites by (OrgKey, Name), keeping ID and
// CreatedAt of an existing record.
func (m *Memory) UpsertConfiguration(_ context.Context, cfg plan.Configuration) (*plan.Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now().UTC()
	k := configKey{OrgKey: cfg.OrgKey, Name: cfg.Name}
	if existing, ok := m.configs[k]; ok {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
	} else {
		if cfg.ID == "" {
			cfg.ID = uuid.NewString()
		}
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	m.configs[k] = *cloneConfig(cfg)
	return cloneConfig(cfg), nil
}

// AppendModifications adds entries to the log. Append-only.
func (m *Memory) AppendModifications(_ context.Context, entries []plan.ModificationLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now().UTC()
	for _, e := range entries {
		if e.ModifiedAt.IsZero() {
			e.ModifiedAt = now
		}
		m.log = append(m.log, e)
	}
	return nil
}

// Modifications returns a copy of the modification log.
func (m *Memory) Modifications() []plan.ModificationLogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]plan.ModificationLogEntry, len(m.log))
	copy(result, m.log)
	return result
}

func cloneConfig(cfg plan.Configuration) *plan.Configuration {
	c := cfg
	if cfg.Payload != nil {
		c.Payload = append([]byte(nil), cfg.Payload...)
	}
	return &c
}
