package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"banjocap/internal/domain"
	"banjocap/internal/reporting"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "analyze <address>",
		Short: "Compare DEX market cap with explorer supply for one token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := root.service()
			out := cmd.OutOrStdout()

			record, err := svc.Analyze(cmd.Context(), args[0])
			if err != nil {
				var ae *domain.AnalysisError
				if errors.As(err, &ae) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Analysis failed (%s): %s\n", ae.Kind, ae.Message)
					for _, s := range ae.Suggestions {
						fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", s)
					}
				}
				return err
			}

			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(record)
			case "md", "markdown":
				_, err := fmt.Fprint(out, reporting.RenderAnalysisMarkdown(reporting.NewGenerator().AnalysisReport(record)))
				return err
			default:
				return fmt.Errorf("unsupported format %q (want md or json)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "output format: md or json")
	return cmd
}
