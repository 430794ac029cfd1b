package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"OilPulse/internal/di"
	"OilPulse/internal/domain/models"
	internalrepo "OilPulse/internal/repository"
	"OilPulse/pkg/config"
	pkgkafka "OilPulse/pkg/kafka"

	"github.com/spf13/cobra"
)

var (
	parquetOut   string
	schemaApply  bool
	reloadReason string
)

var exportParquetCmd = &cobra.Command{
	Use:   "export-parquet",
	Short: "Write the price series to a Parquet file",
	Long: `Write the validated price series to a Parquet file. Point data.prices_path
at the result to serve prices from Parquet instead of CSV.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, a, err := loadArtifacts(cmd.Context())
		if err != nil {
			return err
		}
		if err := internalrepo.WritePricesParquet(a.Prices, parquetOut); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(a.Prices), parquetOut)
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print, or apply with --apply, the ClickHouse artifact tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithEnv(configPath)
		if err != nil {
			return err
		}
		stmts := internalrepo.ClickHouseSchema(cfg.ClickHouse.Database)
		if !schemaApply {
			for _, s := range stmts {
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(s)+";")
			}
			return nil
		}
		// ProvideClickHouseClient applies the schema on connect
		client, err := di.ProvideClickHouseClient(cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "schema ready in database %s\n", cfg.ClickHouse.Database)
		return nil
	},
}

var notifyReloadCmd = &cobra.Command{
	Use:   "notify-reload",
	Short: "Publish a reload notice for running API servers",
	Long: `Publish a reload notice on the configured Kafka topic. Every API server
consuming the topic reloads its artifacts; run this after the upstream pipeline
has written new results.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithEnv(configPath)
		if err != nil {
			return err
		}
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithTimeouts(10*time.Second, 10*time.Second),
		)
		if err != nil {
			return err
		}
		defer producer.Close()

		host, _ := os.Hostname()
		req := models.ReloadRequest{Reason: reloadReason, RequestedBy: host, RequestedAt: time.Now().UTC()}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		if err := producer.Publish(ctx, cfg.Kafka.Topic, []byte("reload"), req); err != nil {
			return fmt.Errorf("publish reload notice: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reload notice published to %s\n", cfg.Kafka.Topic)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportParquetCmd, schemaCmd, notifyReloadCmd)

	exportParquetCmd.Flags().StringVarP(&parquetOut, "out", "o", "data/processed/brent_prices.parquet", "output file")
	schemaCmd.Flags().BoolVar(&schemaApply, "apply", false, "create the tables instead of printing them")
	notifyReloadCmd.Flags().StringVar(&reloadReason, "reason", "manual", "reason recorded with the notice")
}
