package main

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/hypers-monitor/internal/dashboard"
	"github.com/dmagro/hypers-monitor/internal/display"
	"github.com/dmagro/hypers-monitor/internal/report"
)

func watchCmd() *cobra.Command {
	var interval time.Duration
	var rows int
	var jsonOut bool
	var reportDir string
	var minersBlock uint64

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the live dashboard",
		Long: `Run the live dashboard: metrics refresh every poll interval, the ETH price
every price interval, and older blocks are paged in until the block table is full.

Examples:
  hypers watch
  hypers watch --interval 2s --rows 20
  hypers watch --json
  hypers watch --miners 84090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if interval > 0 {
				a.cfg.Dashboard.PollInterval = interval
			}
			return runWatch(cmd, a, rows, jsonOut, reportDir, minersBlock)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval (defaults to dashboard.poll_interval)")
	cmd.Flags().IntVar(&rows, "rows", display.DefaultBlockRows, "Number of block rows to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write a JSON report of the last cycle on exit")
	cmd.Flags().StringVar(&reportDir, "reports", report.DefaultDir, "Directory for JSON reports")
	cmd.Flags().Uint64Var(&minersBlock, "miners", 0, "Show the miner panel for this block")
	return cmd
}

func runWatch(cmd *cobra.Command, a *app, rows int, jsonOut bool, reportDir string, minersBlock uint64) error {
	ctx := cmd.Context()

	sink := display.NewTerminalSink()
	sink.BlockRows = rows
	ctrl := a.controller(sink)

	if err := ctrl.Start(ctx); err != nil {
		if errors.Is(err, dashboard.ErrInitialPrice) {
			return fmt.Errorf("could not fetch ETH price: %w", err)
		}
		return err
	}
	defer ctrl.Stop()

	if minersBlock > 0 {
		if _, _, err := expandMiners(ctx, ctrl, a.token, a.client, minersBlock); err != nil {
			a.log.WithField("block", minersBlock).Warn(err)
		}
	}

	interval := a.cfg.Dashboard.PollInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var paging sync.WaitGroup
	defer paging.Wait()

	render := func() {
		display.Clear(os.Stdout)
		fmt.Printf("Watching %s via %s (interval: %s, Ctrl+C to exit)...\n\n", a.cfg.Contracts.Token, a.client.Name(), interval)
		if err := sink.Format(os.Stdout); err != nil {
			a.log.WithError(err).Error("render failed")
		}

		// treat the block table as a viewport over the loaded window
		loaded := float64(ctrl.Window().Len())
		paging.Add(1)
		go func() {
			defer paging.Done()
			ctrl.OnScroll(ctx, 0, loaded, float64(rows))
		}()
	}

	render()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nExiting...")
			if jsonOut {
				return writeWatchReport(a, ctrl, reportDir)
			}
			return nil
		case <-ticker.C:
			render()
		}
	}
}

func writeWatchReport(a *app, ctrl *dashboard.Controller, dir string) error {
	last := ctrl.Last()
	if last == nil {
		return errors.New("no successful cycle to report")
	}
	r := report.FromCycle(last)
	r.Provider = a.client.Name()
	r.Blocks = report.BlockEntries(ctrl.Window().Records())

	path, err := report.WriteJSON(dir, r, "watch")
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Report written to %s\n", path)
	return nil
}
