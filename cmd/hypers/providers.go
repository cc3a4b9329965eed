package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/hypers-monitor/internal/display"
	"github.com/dmagro/hypers-monitor/internal/provider"
	"github.com/dmagro/hypers-monitor/internal/report"
)

func providersCmd() *cobra.Command {
	var samples int
	var interval time.Duration
	var jsonOut bool
	var reportDir string

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Probe and rank the configured RPC providers",
		Long: `Probe every configured RPC provider with repeated eth_blockNumber calls and
rank them by success rate, tail latency and block freshness.

Examples:
  hypers providers
  hypers providers --samples 10 --interval 200ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if samples <= 0 {
				samples = cfg.Defaults.ProbeSamples
			}

			ranked, err := provider.Probe(cmd.Context(), provider.NewClients(cfg), provider.ProbeOptions{
				Samples:  samples,
				Interval: interval,
			})
			if err != nil {
				return err
			}

			f := &display.ProvidersFormatter{Ranked: ranked}
			if err := f.Format(os.Stdout); err != nil {
				return err
			}
			if !jsonOut {
				return nil
			}

			r := &report.Report{Timestamp: time.Now(), Providers: report.ProviderEntries(ranked)}
			path, err := report.WriteJSON(reportDir, r, "providers")
			if err != nil {
				return err
			}
			fmt.Printf("\nReport written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().IntVar(&samples, "samples", 0, "Samples per provider (defaults to defaults.probe_samples)")
	cmd.Flags().DurationVar(&interval, "interval", 100*time.Millisecond, "Pause between samples")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Also write a JSON report")
	cmd.Flags().StringVar(&reportDir, "reports", report.DefaultDir, "Directory for JSON reports")
	return cmd
}
