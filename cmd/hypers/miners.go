package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/hypers-monitor/internal/blocks"
	"github.com/dmagro/hypers-monitor/internal/contract"
	"github.com/dmagro/hypers-monitor/internal/dashboard"
	"github.com/dmagro/hypers-monitor/internal/display"
	"github.com/dmagro/hypers-monitor/internal/report"
)

func minersCmd() *cobra.Command {
	var jsonOut bool
	var reportDir string

	cmd := &cobra.Command{
		Use:   "miners <block>",
		Short: "Show how many slots each miner registered for a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid block number %q", args[0])
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return runMiners(cmd, a, number, jsonOut, reportDir)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Also write a JSON report")
	cmd.Flags().StringVar(&reportDir, "reports", report.DefaultDir, "Directory for JSON reports")
	return cmd
}

// expandMiners reads the slot count of a block and hands its tally to the
// controller's sink. A failed tally shows as an empty panel; only a failed
// count read is an error.
func expandMiners(ctx context.Context, ctrl *dashboard.Controller, token *contract.Binding, caller contract.Caller, number uint64) (uint64, []blocks.MinerCount, error) {
	count, err := token.CallUint(ctx, caller, "minersPerBlockCount", new(big.Int).SetUint64(number))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read miner count of block %d: %w", number, err)
	}
	total := count.Uint64()
	return total, ctrl.ShowMiners(ctx, number, total), nil
}

func runMiners(cmd *cobra.Command, a *app, number uint64, jsonOut bool, reportDir string) error {
	ctx := cmd.Context()

	sink := display.NewTerminalSink()
	ctrl := a.controller(sink)

	total, tally, err := expandMiners(ctx, ctrl, a.token, a.client, number)
	if err != nil {
		return err
	}
	if err := sink.FormatMiners(os.Stdout); err != nil {
		return err
	}
	if !jsonOut {
		return nil
	}

	r := &report.Report{
		Timestamp: time.Now(),
		Provider:  a.client.Name(),
		Miners:    report.MinersEntry(number, total, tally),
	}
	path, err := report.WriteJSON(reportDir, r, "miners")
	if err != nil {
		return err
	}
	fmt.Printf("\nReport written to %s\n", path)
	return nil
}
