package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"banjocap/internal/domain"
	"banjocap/internal/reporting"
)

func newScanCmd(root *rootOptions) *cobra.Command {
	var (
		limit    int
		top      int
		format   string
		output   string
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Discover high-cap tokens and rank them by market cap discrepancy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := root.service()

			// Interrupting a scan still reports what was resolved so far.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				unsubscribe  func()
				progressDone = make(chan struct{})
			)
			if progress {
				var updates <-chan *domain.ScanState
				updates, unsubscribe = svc.Subscribe()
				go func() {
					defer close(progressDone)
					reportProgress(cmd.ErrOrStderr(), updates)
				}()
			}

			final, err := svc.RunScan(ctx, limit)
			if unsubscribe != nil {
				unsubscribe()
				<-progressDone
			}
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}

			report := reporting.NewGenerator().WithTopN(top).ScanReport(final)
			switch format {
			case "md", "markdown":
				_, err = fmt.Fprint(out, reporting.RenderScanMarkdown(report))
			case "csv":
				_, err = fmt.Fprint(out, reporting.RenderCSV(report.Rows))
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				err = enc.Encode(final)
			default:
				err = fmt.Errorf("unsupported format %q (want md, csv or json)", format)
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum candidates to scan (default from config)")
	cmd.Flags().IntVar(&top, "top", reporting.DefaultTopN, "results to include in md/csv output (0 for all)")
	cmd.Flags().StringVarP(&format, "format", "f", "md", "output format: md, csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&progress, "progress", true, "print progress to stderr")
	return cmd
}

func reportProgress(w io.Writer, updates <-chan *domain.ScanState) {
	for st := range updates {
		if st.TotalCandidates == 0 {
			continue
		}
		fmt.Fprintf(w, "\rProgress: %5.1f%% (%d/%d, %d errors, ~%d API calls)",
			st.Progress(), st.CompletedCount, st.TotalCandidates, len(st.Errors), st.EstimatedCalls())
		if !st.IsRunning {
			fmt.Fprintln(w)
		}
	}
}
