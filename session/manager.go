package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/scaleup-planner/gateway"
	"github.com/warp/scaleup-planner/plan"
	"github.com/warp/scaleup-planner/table"
)

// DefaultConfigurationName is used when a caller names no configuration.
const DefaultConfigurationName = "Default"

// Options configures a Manager.
type Options struct {
	AutosaveDelay time.Duration
	Retry         *gateway.RetryConfig
	// Seed builds the fallback plan. Defaults to plan.Seed.
	Seed func() *plan.Plan
}

type sessionKey struct {
	orgKey string
	name   string
}

// Manager opens and caches one Session per (org, configuration name).
type Manager struct {
	gw         *gateway.Gateway
	logger     *zap.Logger
	normalizer *table.Normalizer
	opts       Options

	mu       sync.Mutex
	sessions map[sessionKey]*Session
}

// NewManager returns a Manager that persists through gw.
func NewManager(gw *gateway.Gateway, logger *zap.Logger, opts Options) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Seed == nil {
		opts.Seed = plan.Seed
	}
	return &Manager{
		gw:         gw,
		logger:     logger.Named("session"),
		normalizer: table.NewNormalizer(logger),
		opts:       opts,
		sessions:   make(map[sessionKey]*Session),
	}
}

// Open returns the session for (org, name), loading it on first use. It
// never fails: when the configuration is missing or unreadable the
// session starts from seed data and LoadMessage says why.
func (m *Manager) Open(ctx context.Context, orgKey, name string) *Session {
	if name == "" {
		name = DefaultConfigurationName
	}
	k := sessionKey{orgKey: orgKey, name: name}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[k]; ok {
		return s
	}

	s := m.load(ctx, orgKey, name)
	s.autosaver = m.gw.NewAutosaver(orgKey, gateway.AutosaveOptions{
		Delay:   m.opts.AutosaveDelay,
		Retry:   m.opts.Retry,
		OnSaved: s.onSaved,
	})
	m.sessions[k] = s
	return s
}

// Reset replaces the plan of (org, name) with seed data.
func (m *Manager) Reset(ctx context.Context, orgKey, name string) *Session {
	s := m.Open(ctx, orgKey, name)
	s.Replace(m.opts.Seed(), true)
	return s
}

// Close flushes and closes every open session.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[sessionKey]*Session)
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s/%s: %w", s.orgKey, s.name, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) load(ctx context.Context, orgKey, name string) *Session {
	loaded, err := m.gw.LoadConfiguration(ctx, orgKey, name)
	switch {
	case errors.Is(err, plan.ErrNotFound):
		m.logger.Info("No stored configuration, starting from seed",
			zap.String("org", orgKey), zap.String("name", name))
		s := newSession(orgKey, name, "", m.opts.Seed(), m.logger)
		s.seeded = true
		return s

	case err != nil:
		m.logger.Warn("Failed to load configuration, starting from seed",
			zap.String("org", orgKey), zap.String("name", name), zap.Error(err))
		s := newSession(orgKey, name, "", m.opts.Seed(), m.logger)
		s.seeded = true
		s.loadMessage = "Could not load the saved plan; showing default data. Changes will be saved when the connection recovers."
		return s
	}

	cfg := loaded.Configuration
	p, err := plan.Decode(cfg.Payload, m.normalizer)
	if err != nil {
		m.logger.Warn("Stored configuration is not valid JSON, starting from seed",
			zap.String("org", orgKey), zap.String("name", cfg.Name), zap.Error(err))
		s := newSession(orgKey, name, cfg.Description, m.opts.Seed(), m.logger)
		s.seeded = true
		s.loadMessage = "The saved plan could not be read; showing default data."
		return s
	}

	if cfg.ScenarioKey.Valid() {
		p.ScenarioKey = cfg.ScenarioKey
	}
	if _, ok := p.Variants[cfg.VariantName]; ok {
		p.Variant = cfg.VariantName
	}
	return newSession(orgKey, name, cfg.Description, p, m.logger)
}
