package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"OilPulse/internal/di"
	"OilPulse/internal/domain/models"
	"OilPulse/internal/domain/repository"
	"OilPulse/internal/services/query"
	"OilPulse/pkg/config"
	applogger "OilPulse/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	startDate  string
	endDate    string
)

var rootCmd = &cobra.Command{
	Use:   "oilpulse-cli",
	Short: "Inspect the Brent changepoint artifacts from the terminal",
	Long: `oilpulse-cli reads the same artifacts as the API server, using the data
source configured in the config file, and prints tables built by the same
query, statistics and correlation code.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD, inclusive)")
	rootCmd.PersistentFlags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD, inclusive)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// loadArtifacts reads and validates the artifacts from the configured source.
func loadArtifacts(ctx context.Context) (*config.Config, *repository.Artifacts, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, nil, err
	}
	l, err := applogger.New(&applogger.Config{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		return nil, nil, err
	}

	src, cleanup, err := di.ProvideArtifactSource(cfg, l)
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	a, err := src.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := a.Normalize(); err != nil {
		return nil, nil, err
	}
	return cfg, a, nil
}

// dateRange parses the --start and --end flags.
func dateRange() (query.DateRange, error) {
	var r query.DateRange
	if startDate != "" {
		d, err := models.ParseDate(startDate)
		if err != nil {
			return r, fmt.Errorf("--start: %w", err)
		}
		r.From = &d
	}
	if endDate != "" {
		d, err := models.ParseDate(endDate)
		if err != nil {
			return r, fmt.Errorf("--end: %w", err)
		}
		r.To = &d
	}
	return r, nil
}
