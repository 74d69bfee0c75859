package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"banjocap/internal/domain"
	"banjocap/internal/reporting"
)

func newSamplesCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "samples",
		Short: "List the built-in sample tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SYMBOL\tNAME\tADDRESS\tDEX MCAP\tACTUAL MCAP\tDISCREPANCY")
			for _, s := range domain.FilterSamples(search) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t$%s\t$%s\t%s\n",
					s.Symbol, s.Name, s.Address,
					reporting.FormatNumber(s.DexReportedMcap),
					reporting.FormatNumber(s.ActualMcap),
					reporting.FormatPercent(s.DiscrepancyPct))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by symbol or name")
	return cmd
}
