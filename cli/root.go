// Package cli implements the planctl command tree: offline metrics,
// reports and exports for a stored or file-based plan.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/scaleup-planner/gateway"
	"github.com/warp/scaleup-planner/metrics"
	"github.com/warp/scaleup-planner/plan"
	"github.com/warp/scaleup-planner/report"
	"github.com/warp/scaleup-planner/session"
	"github.com/warp/scaleup-planner/store/sqlite"
	"github.com/warp/scaleup-planner/table"
)

// App holds what every command needs.
type App struct {
	Logger *zap.Logger
	Layout report.Layout
}

// inputOptions select the plan and the stored scenario feeding KPIs and
// cost data.
type inputOptions struct {
	db          string
	org         string
	name        string
	file        string
	scenarioID  string
	scenarioKey string
	variant     string
}

// NewRootCmd creates the top-level "planctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	if app.Logger == nil {
		app.Logger = zap.NewNop()
	}
	if app.Layout.Width == 0 {
		app.Layout = report.DefaultLayout()
	}

	in := &inputOptions{}
	root := &cobra.Command{
		Use:           "planctl",
		Short:         "Scale-up plan metrics and board reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&in.db, "db", "", "SQLite database path")
	flags.StringVar(&in.org, "org", "default", "Organization key of the stored configuration")
	flags.StringVar(&in.name, "name", session.DefaultConfigurationName, "Configuration name")
	flags.StringVar(&in.file, "file", "", "Plan payload JSON file (instead of --db)")
	flags.StringVar(&in.scenarioID, "scenario-id", "", "Stored scenario whose KPIs and cost data to use (needs --db)")
	flags.StringVar(&in.scenarioKey, "scenario-key", "", "Override the selected scenario key (50k or 200k)")
	flags.StringVar(&in.variant, "variant", "", "Override the selected variant")

	root.AddCommand(
		newMetricsCmd(app, in),
		newReportCmd(app, in),
		newDigestCmd(app, in),
		newExportCmd(app, in),
	)

	return root
}

// loadBundle resolves the inputs and derives the metric bundle.
func loadBundle(ctx context.Context, app *App, in *inputOptions) (metrics.Bundle, error) {
	if in.file != "" && in.db != "" {
		return metrics.Bundle{}, errors.New("use either --file or --db, not both")
	}
	if in.scenarioID != "" && in.db == "" {
		return metrics.Bundle{}, errors.New("--scenario-id needs --db")
	}

	var store *sqlite.Store
	if in.db != "" {
		var err error
		if store, err = sqlite.Open(in.db, app.Logger); err != nil {
			return metrics.Bundle{}, fmt.Errorf("open %s: %w", in.db, err)
		}
		defer store.Close()
	}

	p, err := loadPlan(ctx, app, in, store)
	if err != nil {
		return metrics.Bundle{}, err
	}
	if in.scenarioKey != "" || in.variant != "" {
		key := plan.ScenarioKey(in.scenarioKey)
		if key == "" {
			key = p.ScenarioKey
		}
		if err := p.Select(key, in.variant); err != nil {
			return metrics.Bundle{}, fmt.Errorf("select %s/%s: %w", key, in.variant, err)
		}
	}

	var kpis []plan.KPI
	var cost *plan.CostData
	if in.scenarioID != "" {
		sc, err := store.GetScenario(ctx, in.scenarioID)
		if err != nil {
			return metrics.Bundle{}, err
		}
		if sc == nil {
			return metrics.Bundle{}, fmt.Errorf("scenario %s: %w", in.scenarioID, plan.ErrNotFound)
		}
		if kpis, err = store.ListKPIs(ctx, sc.ID); err != nil {
			return metrics.Bundle{}, err
		}
		rows, err := store.ListCostData(ctx, sc.ID)
		if err != nil {
			return metrics.Bundle{}, err
		}
		cost = plan.FindCostData(rows, sc.ID)
	}

	return metrics.Compute(metrics.InputFromPlan(p, kpis, cost)), nil
}

// loadPlan reads the payload file, the stored configuration, or falls
// back to the seed plan when neither is given.
func loadPlan(ctx context.Context, app *App, in *inputOptions, store *sqlite.Store) (*plan.Plan, error) {
	normalizer := table.NewNormalizer(app.Logger)

	switch {
	case in.file != "":
		raw, err := os.ReadFile(in.file)
		if err != nil {
			return nil, fmt.Errorf("read plan file: %w", err)
		}
		return plan.Decode(raw, normalizer)

	case store != nil:
		loaded, err := gateway.New(store, app.Logger).LoadConfiguration(ctx, in.org, in.name)
		if err != nil {
			return nil, err
		}
		if loaded.Fallback {
			app.Logger.Warn("Configuration not found by name, using latest",
				zap.String("requested", in.name), zap.String("loaded", loaded.Configuration.Name))
		}
		return plan.Decode(loaded.Configuration.Payload, normalizer)

	default:
		return plan.Seed(), nil
	}
}

func synthesize(b metrics.Bundle) report.Report {
	return report.Synthesize(b, b.Variant, b.ScenarioKey)
}

// pageFileName is the name of page n in an export directory.
func pageFileName(n int) string {
	return fmt.Sprintf("page-%03d.png", n)
}

func parseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "markdown", "md":
		return "markdown", nil
	case "png":
		return "png", nil
	default:
		return "", fmt.Errorf("unknown format %q (want markdown or png)", s)
	}
}
