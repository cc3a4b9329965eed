package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/hypers-monitor/internal/blocks"
	"github.com/dmagro/hypers-monitor/internal/display"
	"github.com/dmagro/hypers-monitor/internal/report"
)

func blocksCmd() *cobra.Command {
	var pages int
	var jsonOut bool
	var reportDir string

	cmd := &cobra.Command{
		Use:   "blocks [count]",
		Short: "List recent mined blocks",
		Long: `List recent mined blocks: count blocks below the current contract height,
followed by optional older pages.

Examples:
  hypers blocks
  hypers blocks 25
  hypers blocks --pages 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid block count %q", args[0])
				}
				a.cfg.Dashboard.ForwardWindow = n
			}
			return runBlocks(cmd, a, pages, jsonOut, reportDir)
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 0, "Number of older pages to load after the first window")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Also write a JSON report")
	cmd.Flags().StringVar(&reportDir, "reports", report.DefaultDir, "Directory for JSON reports")
	return cmd
}

func runBlocks(cmd *cobra.Command, a *app, pages int, jsonOut bool, reportDir string) error {
	ctx := cmd.Context()

	head, err := a.token.CallUint(ctx, a.client, "blockNumber")
	if err != nil {
		return fmt.Errorf("failed to read blockNumber: %w", err)
	}

	d := a.cfg.Dashboard
	w := blocks.NewWindow(blocks.Options{
		Token:          a.token,
		Caller:         a.client,
		Executor:       a.exec,
		Resolver:       blocks.PlaceholderResolver{Cursor: head.Uint64},
		Logger:         a.log,
		ForwardWindow:  d.ForwardWindow,
		PageSize:       d.PageSize,
		MinerBatchSize: d.MinerBatchSize,
	})

	w.LoadForward(ctx, head.Uint64())
	for i := 0; i < pages; i++ {
		if w.LoadBackward(ctx) == 0 {
			break
		}
	}

	records := w.Records()
	f := &display.BlocksFormatter{Records: records}
	if err := f.Format(os.Stdout); err != nil {
		return err
	}
	if !jsonOut {
		return nil
	}

	r := &report.Report{
		Timestamp: time.Now(),
		Provider:  a.client.Name(),
		Blocks:    report.BlockEntries(records),
	}
	path, err := report.WriteJSON(reportDir, r, "blocks")
	if err != nil {
		return err
	}
	fmt.Printf("\nReport written to %s\n", path)
	return nil
}
