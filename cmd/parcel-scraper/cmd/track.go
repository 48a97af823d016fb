package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"parcel-scraper/internal/carriers"
	"parcel-scraper/internal/scraper"
)

var trackTimeout time.Duration

var trackCmd = &cobra.Command{
	Use:   "track <carrier> <tracking-code>",
	Short: "Look up a tracking code on the carrier's tracking page",
	Args:  cobra.ExactArgs(2),
	RunE:  runTrack,
}

func init() {
	trackCmd.Flags().DurationVar(&trackTimeout, "timeout", 3*time.Minute, "Overall lookup timeout")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	carrierID, trackingCode := args[0], args[1]

	carrier, ok := carriers.Get(carrierID)
	if !ok {
		return fmt.Errorf("unknown carrier %q (supported: %s)",
			carrierID, strings.Join(carriers.IDs(), ", "))
	}
	cfg.ApplyOverrides(carrier)

	pool := scraper.NewPool(cfg.PoolSettings(), cfg.BrowserOptions())
	defer pool.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), trackTimeout)
	defer cancel()

	runner := scraper.NewRunner(pool, slog.Default())
	p, perr := runner.Track(ctx, carrier, trackingCode)
	if perr != nil {
		if err := printError(perr); err != nil {
			return err
		}
		return perr
	}
	return printParcel(p)
}
