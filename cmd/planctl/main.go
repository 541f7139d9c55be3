package main

import (
	"context"
	"fmt"
	"os"

	"github.com/warp/scaleup-planner/cli"
	"github.com/warp/scaleup-planner/config"
	"github.com/warp/scaleup-planner/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("PLANNER_CONFIG"))
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout stays machine-readable.
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	layout, err := cfg.Report.Layout()
	if err != nil {
		return err
	}

	root := cli.NewRootCmd(&cli.App{Logger: logger, Layout: layout})
	return root.ExecuteContext(context.Background())
}
