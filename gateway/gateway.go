/*
Package gateway is the persistence boundary for plan configurations.

PURPOSE:
  The live plan is stored as one opaque configuration blob per
  (organization, name). The gateway loads the latest blob, saves new ones
  with last-write-wins semantics, and records field-level changes in the
  modification log.

LOAD FALLBACK:
  LoadConfiguration(name) returns the most recently updated configuration
  with that name. When none exists it falls back to the most recently
  updated configuration of any name, and only then reports ErrNotFound.

BACKENDS:
  ConfigurationStore is implemented by:
  - Memory (this package):     tests and :memory: development runs
  - store/sqlite.Store:        default embedded database
  - store/postgres.Store:      shared Postgres deployment

SEE ALSO:
  - autosave.go:  Debounced, serialized saves for live editing
  - session/:     Owns a plan and drives the autosaver
*/
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/scaleup-planner/plan"
)

// ErrNameRequired is returned when saving a configuration without a name.
var ErrNameRequired = errors.New("configuration name is required")

// ConfigurationStore is the storage contract behind the gateway. Lookups
// return (nil, nil) when nothing matches.
type ConfigurationStore interface {
	LatestConfiguration(ctx context.Context, orgKey, name string) (*plan.Configuration, error)
	LatestAnyConfiguration(ctx context.Context, orgKey string) (*plan.Configuration, error)
	UpsertConfiguration(ctx context.Context, cfg plan.Configuration) (*plan.Configuration, error)
	AppendModifications(ctx context.Context, entries []plan.ModificationLogEntry) error
}

// Loaded is the result of LoadConfiguration.
type Loaded struct {
	Configuration plan.Configuration
	// Fallback is set when no configuration matched the requested name
	// and the latest configuration of any name was returned instead.
	Fallback bool
}

// SaveRequest is the input to SaveConfiguration.
type SaveRequest struct {
	Name        string
	Description string
	Payload     []byte
	ScenarioKey plan.ScenarioKey
	VariantName string
	ModifiedBy  string
}

// Gateway wraps a ConfigurationStore with the load fallback and save
// validation.
type Gateway struct {
	store  ConfigurationStore
	logger *zap.Logger
	retry  *RetryConfig
}

// New returns a Gateway over store. A nil logger disables logging.
func New(store ConfigurationStore, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		store:  store,
		logger: logger.Named("gateway"),
		retry:  DefaultRetryConfig(),
	}
}

// WithRetry sets the retry policy used by autosavers created from g.
func (g *Gateway) WithRetry(cfg *RetryConfig) *Gateway {
	g.retry = cfg
	return g
}

// LoadConfiguration fetches the latest configuration named name for the
// organization, falling back to the latest of any name.
func (g *Gateway) LoadConfiguration(ctx context.Context, orgKey, name string) (*Loaded, error) {
	if name != "" {
		cfg, err := g.store.LatestConfiguration(ctx, orgKey, name)
		if err != nil {
			return nil, fmt.Errorf("load configuration %q: %w", name, err)
		}
		if cfg != nil {
			return &Loaded{Configuration: *cfg}, nil
		}
	}

	cfg, err := g.store.LatestAnyConfiguration(ctx, orgKey)
	if err != nil {
		return nil, fmt.Errorf("load latest configuration: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration %q: %w", name, plan.ErrNotFound)
	}

	g.logger.Info("Configuration not found by name, using latest",
		zap.String("org", orgKey),
		zap.String("requested", name),
		zap.String("loaded", cfg.Name))
	return &Loaded{Configuration: *cfg, Fallback: true}, nil
}

// SaveConfiguration upserts the configuration keyed by (org, name) and
// returns the stored record.
func (g *Gateway) SaveConfiguration(ctx context.Context, orgKey string, req SaveRequest) (*plan.Configuration, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	saved, err := g.store.UpsertConfiguration(ctx, plan.Configuration{
		OrgKey:         orgKey,
		Name:           name,
		Description:    req.Description,
		Payload:        req.Payload,
		ScenarioKey:    req.ScenarioKey,
		VariantName:    req.VariantName,
		LastModifiedBy: req.ModifiedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("save configuration %q: %w", name, err)
	}

	g.logger.Debug("Configuration saved",
		zap.String("org", orgKey),
		zap.String("name", name),
		zap.Int("bytes", len(req.Payload)))
	return saved, nil
}

// LogModifications appends entries to the modification log. An empty batch
// is a no-op.
func (g *Gateway) LogModifications(ctx context.Context, entries []plan.ModificationLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := g.store.AppendModifications(ctx, entries); err != nil {
		return fmt.Errorf("append modification log: %w", err)
	}
	return nil
}

// NewAutosaver returns an Autosaver that saves through g for orgKey.
func (g *Gateway) NewAutosaver(orgKey string, opts AutosaveOptions) *Autosaver {
	if opts.Retry == nil {
		opts.Retry = g.retry
	}
	save := func(ctx context.Context, req SaveRequest) (*plan.Configuration, error) {
		return g.SaveConfiguration(ctx, orgKey, req)
	}
	return newAutosaver(save, g.logger, opts)
}
