package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/hypers-monitor/internal/display"
	"github.com/dmagro/hypers-monitor/internal/price"
	"github.com/dmagro/hypers-monitor/internal/provider"
	"github.com/dmagro/hypers-monitor/internal/report"
)

func priceCmd() *cobra.Command {
	var jsonOut bool
	var reportDir string

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Query every ETH/USD price source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			httpClient := &http.Client{Timeout: cfg.Defaults.Timeout}
			sources := []price.Source{
				price.NewCoinGecko(cfg.Price.CoinGeckoURL, httpClient, 0),
				price.NewCryptoCompare(cfg.Price.CryptoCompareURL, httpClient, 0),
			}
			return runPrice(cmd.Context(), os.Stdout, sources, jsonOut, reportDir)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Also write a JSON report")
	cmd.Flags().StringVar(&reportDir, "reports", report.DefaultDir, "Directory for JSON reports")
	return cmd
}

// runPrice prints one row per source. It fails with price.ErrNoPrice when no
// source answered.
func runPrice(ctx context.Context, w io.Writer, sources []price.Source, jsonOut bool, reportDir string) error {
	results := provider.ExecuteAll(ctx, sources, func(ctx context.Context, s price.Source) (float64, error) {
		return s.Fetch(ctx)
	})

	answered := 0
	rows := make([]display.PriceRow, len(results))
	entries := make([]report.PriceEntry, len(results))
	for i, r := range results {
		rows[i] = display.PriceRow{Source: r.ProviderName, Price: r.Value, Err: r.Err}
		entries[i] = report.PriceEntry{Source: r.ProviderName}
		if r.Err != nil {
			msg := r.Err.Error()
			entries[i].Error = &msg
		} else {
			p := r.Value
			entries[i].Price = &p
			answered++
		}
	}

	f := &display.PriceFormatter{Rows: rows}
	if err := f.Format(w); err != nil {
		return err
	}

	if jsonOut {
		path, err := report.WriteJSON(reportDir, &report.Report{Timestamp: time.Now(), Prices: entries}, "price")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nReport written to %s\n", path)
	}
	if answered == 0 {
		return price.ErrNoPrice
	}
	return nil
}
