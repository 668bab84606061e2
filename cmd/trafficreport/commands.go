package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
	"github.com/couchcryptid/traffic-report-service/internal/pipeline"
	"github.com/couchcryptid/traffic-report-service/internal/report"
)

func addSelectorFlags(cmd *cobra.Command, sel *domain.Selector) {
	cmd.Flags().StringVar(&sel.Range, "range", domain.RangeDaily, "range to load: daily, weekly, monthly or all")
	cmd.Flags().StringVar(&sel.Date, "date", "", "single day to load (YYYY-MM-DD); overrides --range")
}

func aggregateCmd() *cobra.Command {
	var sel domain.Selector

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate a range of day files and print the dataset as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			loaded, err := a.session.Load(cmd.Context(), sel)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(loaded.Dataset)
		},
	}
	addSelectorFlags(cmd, &sel)
	return cmd
}

func reportCmd() *cobra.Command {
	var (
		req    pipeline.ReportRequest
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a PDF or Excel report for a range",
		Long: `Render a report for the selected range and write it to --out under its
generated filename (traffic-report-{type}-{period}.pdf). Chart pages are
captured from CHART_BASE_URL when --charts is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			var buf bytes.Buffer
			name, err := a.reporter.Generate(cmd.Context(), req, &buf)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			path := filepath.Join(outDir, name)
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // reports are meant to be shared
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, humanize.Bytes(uint64(buf.Len())))
			return nil
		},
	}
	addSelectorFlags(cmd, &req.Selector)
	cmd.Flags().StringVar(&req.ReportType, "type", report.TypeWeekly, "report type: daily, weekly or monthly")
	cmd.Flags().StringVar(&req.Intersection, "intersection", "", "intersection name shown on the cover")
	cmd.Flags().StringVar(&req.Format, "format", report.FormatPDF, "output format: pdf or xlsx")
	cmd.Flags().BoolVar(&req.Charts, "charts", false, "capture chart pages (requires CHART_BASE_URL)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	return cmd
}

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the days in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tLABEL\tFILE")
			for _, d := range a.catalog.Days() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Date, d.Label, d.FileID)
			}
			return tw.Flush()
		},
	}
}

// dayCheck is the validation result for one catalog day.
type dayCheck struct {
	day     domain.DayDescriptor
	rows    int
	parsed  int
	fetchOK bool
	err     error
}

func validateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that every catalog day file can be fetched and parsed",
		Long: `Fetch every day file in the catalog and parse it. A day fails when its file
cannot be fetched; with --strict it also fails when any row is dropped as malformed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			var checks []dayCheck
			for i, day := range a.catalog.Days() {
				text, err := a.source.Fetch(cmd.Context(), day)
				if err != nil {
					checks = append(checks, dayCheck{day: day, err: err})
					continue
				}
				checks = append(checks, dayCheck{
					day:     day,
					rows:    dataRows(text),
					parsed:  len(domain.ParseRows(text, i)),
					fetchOK: true,
				})
			}

			failed, totalRows, totalParsed := 0, 0, 0
			for _, c := range checks {
				totalRows += c.rows
				totalParsed += c.parsed
				dropped := c.rows - c.parsed
				switch {
				case !c.fetchOK:
					failed++
					fmt.Fprintf(out, "  %-12s FAIL  %v\n", c.day.Date, c.err)
				case strict && dropped > 0:
					failed++
					fmt.Fprintf(out, "  %-12s FAIL  %d of %d rows malformed\n", c.day.Date, dropped, c.rows)
				case dropped > 0:
					fmt.Fprintf(out, "  %-12s WARN  %d of %d rows malformed\n", c.day.Date, dropped, c.rows)
				}
			}

			fmt.Fprintf(out, "\n%d days, %s rows, %s parsed, %d failed\n",
				len(checks), humanize.Comma(int64(totalRows)), humanize.Comma(int64(totalParsed)), failed)
			if failed > 0 {
				return fmt.Errorf("validation failed for %d of %d days", failed, len(checks))
			}
			fmt.Fprintln(out, "All day files valid.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail days that contain malformed rows")
	return cmd
}

// dataRows counts the non-blank lines after the header.
func dataRows(text string) int {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	n := 0
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
