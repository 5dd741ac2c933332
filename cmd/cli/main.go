package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"hsedash/adapters/api"
	"hsedash/adapters/excel"
	"hsedash/app"
	"hsedash/internal"
	"hsedash/internal/aggregate"
	"hsedash/internal/config"
	"hsedash/internal/normalize"
	"hsedash/internal/report"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := runContext()
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type sourceFlags struct {
	file      string
	locations string
	rules     string
	verbose   bool
}

type filterFlags struct {
	from, to, unit               string
	categories, statuses, places []string
}

func (f filterFlags) query() url.Values {
	q := url.Values{}
	if f.from != "" {
		q.Set("from", f.from)
	}
	if f.to != "" {
		q.Set("to", f.to)
	}
	if f.unit != "" {
		q.Set("unit", f.unit)
	}
	q["category"] = f.categories
	q["status"] = f.statuses
	q["location"] = f.places
	return q
}

func newRootCmd() *cobra.Command {
	src := &sourceFlags{}
	rootCmd := &cobra.Command{
		Use:           "hse-cli",
		Short:         "Summarize HSE findings exports offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&src.file, "file", "", "findings export (.xlsx or .csv)")
	rootCmd.PersistentFlags().StringVar(&src.locations, "locations", "", "location coordinate table (.xlsx or .csv)")
	rootCmd.PersistentFlags().StringVar(&src.rules, "rules", "", "YAML rules file")
	rootCmd.PersistentFlags().BoolVarP(&src.verbose, "verbose", "v", false, "log pipeline progress to stderr")
	_ = rootCmd.MarkPersistentFlagRequired("file")

	rootCmd.AddCommand(
		newSummaryCmd(src),
		newOptionsCmd(src),
		newFindingsCmd(src),
	)
	return rootCmd
}

func addFilterFlags(cmd *cobra.Command, f *filterFlags) {
	cmd.Flags().StringVar(&f.from, "from", "", "first report date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "last report date, YYYY-MM-DD")
	cmd.Flags().StringArrayVar(&f.categories, "category", nil, "category to keep (repeatable)")
	cmd.Flags().StringArrayVar(&f.statuses, "status", nil, "status to keep (repeatable)")
	cmd.Flags().StringArrayVar(&f.places, "location", nil, "location to keep (repeatable)")
	cmd.Flags().StringVar(&f.unit, "unit", "", "organizational unit")
}

func buildService(src *sourceFlags, bucket aggregate.BucketSize) (*app.DashboardService, error) {
	rules, err := config.LoadRules(src.rules)
	if err != nil {
		return nil, err
	}
	logger := internal.NewNopLogger()
	if src.verbose {
		logger = internal.NewLogger(internal.LogLevelDebug)
	}

	reader := excel.NewDataReader(src.file).WithLocations(src.locations).WithLogger(logger)
	settings := app.SettingsFromRules(*rules)
	settings.Bucket = bucket

	normalizer := normalize.NewNormalizer(app.NormalizeOptions(*rules), logger)
	// One-shot runs gain nothing from caching.
	cache := normalize.NewCache(normalizer, 0)
	if src.locations == "" {
		return app.NewDashboardService(reader, nil, cache, settings, logger), nil
	}
	return app.NewDashboardService(reader, reader, cache, settings, logger), nil
}

func newSummaryCmd(src *sourceFlags) *cobra.Command {
	var filters filterFlags
	var format, bucket string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard for a selection",
		Long: `Print every dashboard figure for the selected findings.

Example: hse-cli summary --file findings.xlsx --from 2024-01-01 --to 2024-03-31 --location Jetty --format markdown`,
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := aggregate.ParseBucketSize(bucket)
			if err != nil {
				return err
			}
			sel, err := api.ParseSelection(filters.query())
			if err != nil {
				return err
			}
			svc, err := buildService(src, size)
			if err != nil {
				return err
			}
			d, err := svc.Dashboard(cmd.Context(), sel)
			if err != nil {
				return err
			}
			if d.SourceEmpty {
				return api.EmptySourceError(d)
			}
			return writeDashboard(cmd.OutOrStdout(), d, format)
		},
	}
	addFilterFlags(cmd, &filters)
	cmd.Flags().StringVar(&format, "format", "markdown", "output format: markdown, html or json")
	cmd.Flags().StringVar(&bucket, "bucket", "week", "trend period: day, week or month")
	return cmd
}

func writeDashboard(w io.Writer, d *app.Dashboard, format string) error {
	switch format {
	case "markdown", "md":
		_, err := io.WriteString(w, report.Markdown(d))
		return err
	case "html":
		_, err := w.Write(report.HTML(d))
		return err
	case "json":
		return writeJSON(w, d)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func newOptionsCmd(src *sourceFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the values each filter accepts",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildService(src, aggregate.Week)
			if err != nil {
				return err
			}
			choices, err := svc.Options(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), choices)
		},
	}
}

func newFindingsCmd(src *sourceFlags) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "findings",
		Short: "Export the selected findings as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := api.ParseSelection(filters.query())
			if err != nil {
				return err
			}
			svc, err := buildService(src, aggregate.Week)
			if err != nil {
				return err
			}
			rows, err := svc.Findings(cmd.Context(), sel)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}
	addFilterFlags(cmd, &filters)
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// runContext bounds a CLI run.
func runContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Minute)
}
