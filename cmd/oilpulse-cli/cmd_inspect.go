package main

import (
	"fmt"

	"OilPulse/internal/services/correlate"
	"OilPulse/internal/services/query"
	"OilPulse/internal/services/stats"
	"OilPulse/pkg/util"

	"github.com/spf13/cobra"
)

var (
	eventTypes []string
	eventLimit int
	eventOrder string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the artifacts, then print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, a, err := loadArtifacts(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "source: %s\n", cfg.Data.Source)
		return renderSummary(cmd.OutOrStdout(), a)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print before/after regime statistics around the changepoint",
	Example: `  oilpulse-cli stats
  oilpulse-cli stats --start 2019-01-01 --end 2021-12-31`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := dateRange()
		if err != nil {
			return err
		}
		_, a, err := loadArtifacts(cmd.Context())
		if err != nil {
			return err
		}
		cmp := stats.CompareRegimes(a.Prices, r, a.Changepoint.ChangePointDate)
		return renderRegimes(cmd.OutOrStdout(), cmp)
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List events with their distance to the changepoint",
	Example: `  oilpulse-cli events --limit 5
  oilpulse-cli events --type OPEC_Decision,Geopolitical --order chronological`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := dateRange()
		if err != nil {
			return err
		}
		_, a, err := loadArtifacts(cmd.Context())
		if err != nil {
			return err
		}

		events := query.FilterEvents(a.Events, r, util.SplitList(eventTypes...))
		cp := a.Changepoint.ChangePointDate
		switch eventOrder {
		case "chronological":
			rows := correlate.Chronological(events, cp)
			if eventLimit > 0 && len(rows) > eventLimit {
				rows = rows[:eventLimit]
			}
			return renderEvents(cmd.OutOrStdout(), rows)
		case "nearest":
			n := eventLimit
			if n <= 0 {
				n = len(events)
			}
			return renderEvents(cmd.OutOrStdout(), correlate.Closest(events, cp, n))
		default:
			return fmt.Errorf("--order must be nearest or chronological, got %q", eventOrder)
		}
	},
}

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Count events per type",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := dateRange()
		if err != nil {
			return err
		}
		_, a, err := loadArtifacts(cmd.Context())
		if err != nil {
			return err
		}
		return renderBreakdown(cmd.OutOrStdout(), correlate.GroupByType(query.FilterEvents(a.Events, r, nil)))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd, statsCmd, eventsCmd, breakdownCmd)

	eventsCmd.Flags().StringSliceVar(&eventTypes, "type", nil, "event types to include (repeatable or comma-separated)")
	eventsCmd.Flags().IntVar(&eventLimit, "limit", correlate.DefaultClosest, "max rows; 0 prints all")
	eventsCmd.Flags().StringVar(&eventOrder, "order", "nearest", "row order: nearest or chronological")
}
