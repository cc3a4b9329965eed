package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmagro/hypers-monitor/internal/dashboard"
	"github.com/dmagro/hypers-monitor/internal/display"
	"github.com/dmagro/hypers-monitor/internal/report"
)

func snapshotCmd() *cobra.Command {
	var jsonOut bool
	var reportDir string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Run one metrics cycle and print the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return runSnapshot(cmd, a, jsonOut, reportDir)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Also write a JSON report")
	cmd.Flags().StringVar(&reportDir, "reports", report.DefaultDir, "Directory for JSON reports")
	return cmd
}

func runSnapshot(cmd *cobra.Command, a *app, jsonOut bool, reportDir string) error {
	ctx := cmd.Context()

	sink := display.NewTerminalSink()
	ctrl := a.controller(sink)

	if _, ok := ctrl.RefreshPrice(ctx); !ok {
		return dashboard.ErrInitialPrice
	}
	if err := ctrl.RunCycle(ctx); err != nil {
		return fmt.Errorf("metrics cycle failed: %w", err)
	}

	if err := sink.Format(os.Stdout); err != nil {
		return err
	}
	if !jsonOut {
		return nil
	}

	r := report.FromCycle(ctrl.Last())
	r.Provider = a.client.Name()
	r.Blocks = report.BlockEntries(ctrl.Window().Records())
	path, err := report.WriteJSON(reportDir, r, "snapshot")
	if err != nil {
		return err
	}
	fmt.Printf("\nReport written to %s\n", path)
	return nil
}
