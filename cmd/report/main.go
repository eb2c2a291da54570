// Command report renders the dashboard offline, from the SQLite database or
// a JSON counts file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"streamlit-analytics/config"
	"streamlit-analytics/models"
	"streamlit-analytics/report"
	"streamlit-analytics/store"
	"streamlit-analytics/version"
)

type options struct {
	dbPath   string
	jsonPath string
	out      string
	format   string
	width    int
	height   int
}

func loadCounts(ctx context.Context, opts options) (models.CountsSnapshot, error) {
	if opts.jsonPath != "" {
		return store.LoadJSON(opts.jsonPath)
	}
	db, err := config.InitDB(opts.dbPath)
	if err != nil {
		return models.CountsSnapshot{}, err
	}
	return store.NewRepository(db).Load(ctx)
}

func write(w io.Writer, counts models.CountsSnapshot, opts options) error {
	// Offline reports are never gated.
	doc := report.Render(counts, nil, "")
	switch opts.format {
	case "html":
		return report.NewHTMLRenderer(opts.width, opts.height).Render(w, doc)
	case "json":
		return report.WriteJSON(w, doc)
	case "svg":
		return report.ChartRenderer{}.RenderSVG(w, report.BuildChart(counts.PerDay), opts.width, opts.height)
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
}

func newCommand() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Render the analytics dashboard to a file",
		Version: version.Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			counts, err := loadCounts(cmd.Context(), opts)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if opts.out != "" && opts.out != "-" {
				f, err := os.Create(opts.out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return write(w, counts, opts)
		},
	}
	cmd.SetVersionTemplate(version.String() + "\n")

	f := cmd.Flags()
	f.StringVar(&opts.dbPath, "db", "analytics.db", "SQLite database to read")
	f.StringVar(&opts.jsonPath, "json", "", "read a JSON counts file instead of the database")
	f.StringVarP(&opts.out, "out", "o", "-", "output file, - for stdout")
	f.StringVarP(&opts.format, "format", "f", "html", "html, json or svg")
	f.IntVar(&opts.width, "width", report.DefaultChartWidth, "chart width in pixels")
	f.IntVar(&opts.height, "height", report.DefaultChartHeight, "chart height in pixels")
	return cmd
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
