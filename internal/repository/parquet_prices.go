package repository

import (
	"errors"
	"fmt"
	"io"
	"os"

	"OilPulse/internal/domain/models"

	"github.com/parquet-go/parquet-go"
)

// PriceRow is the Parquet layout of the price series.
type PriceRow struct {
	Date      string   `parquet:"date,snappy"`
	Price     float64  `parquet:"price,snappy"`
	LogReturn *float64 `parquet:"log_return,optional,snappy"`
}

// ReadPricesParquet loads a price series written by WritePricesParquet or by the
// analysis pipeline with the same column names.
func ReadPricesParquet(path string) ([]models.PriceObservation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[PriceRow](file)
	defer func() { _ = reader.Close() }()

	rows := make([]PriceRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parquet: %v", models.ErrDataUnavailable, err)
	}

	out := make([]models.PriceObservation, 0, n)
	for i, row := range rows[:n] {
		d, err := parseArtifactDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, models.PriceObservation{Date: d, Price: row.Price, LogReturn: row.LogReturn})
	}
	return out, nil
}

// WritePricesParquet writes a price series as Parquet.
func WritePricesParquet(prices []models.PriceObservation, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	rows := make([]PriceRow, len(prices))
	for i, p := range prices {
		rows[i] = PriceRow{Date: p.Date.String(), Price: p.Price, LogReturn: p.LogReturn}
	}

	writer := parquet.NewGenericWriter[PriceRow](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to flush parquet file: %w", err)
	}
	return nil
}
