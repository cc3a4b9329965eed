// Command hypers is a read-only terminal dashboard for the HYPERS mining
// contract on Blast.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hypers",
		Short: "HYPERS mining dashboard for Blast",
		Long: `hypers reads the HYPERS token and Blast gas contracts through Multicall3,
derives supply, value and halving metrics, and tracks recent mined blocks.

Examples:
  hypers watch
  hypers snapshot --json
  hypers blocks 20
  hypers miners 84090
  hypers price
  hypers providers`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "config/hypers.yaml", "Path to config file (empty for built-in defaults)")
	rootCmd.PersistentFlags().String("env", ".env", "Path to .env file")
	rootCmd.PersistentFlags().String("provider", "", "Use this provider instead of auto-selecting")

	rootCmd.AddCommand(
		watchCmd(),
		snapshotCmd(),
		blocksCmd(),
		minersCmd(),
		priceCmd(),
		providersCmd(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
