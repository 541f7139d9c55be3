package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/warp/scaleup-planner/report"
)

func newMetricsCmd(app *App, in *inputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print the derived metric bundle as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBundle(cmd.Context(), app, in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(b)
		},
	}
}

func newReportCmd(app *App, in *inputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the board report as markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBundle(cmd.Context(), app, in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), report.Markdown(synthesize(b)))
			return err
		},
	}
}

func newDigestCmd(app *App, in *inputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Print the one-line plan summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBundle(cmd.Context(), app, in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), report.Digest(b, b.Variant, b.ScenarioKey))
			return err
		},
	}
}

func newExportCmd(app *App, in *inputOptions) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the report to a directory as markdown or PNG pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			b, err := loadBundle(cmd.Context(), app, in)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}

			rep := synthesize(b)
			var written []string
			switch f {
			case "markdown":
				path := filepath.Join(out, "scale-up-report.md")
				if err := os.WriteFile(path, []byte(report.Markdown(rep)), 0o644); err != nil {
					return err
				}
				written = append(written, path)
			case "png":
				for _, page := range report.Paginate(rep.Narrative, app.Layout) {
					png, err := report.RenderPage(page, app.Layout)
					if err != nil {
						return fmt.Errorf("render page %d: %w", page.Number, err)
					}
					path := filepath.Join(out, pageFileName(page.Number))
					if err := os.WriteFile(path, png, 0o644); err != nil {
						return err
					}
					written = append(written, path)
				}
			}

			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown or png")
	cmd.Flags().StringVar(&out, "out", ".", "Output directory")
	return cmd
}
