package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocksim/stream"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a live websocket tick stream to CSV",
	Long: `Record connects to a websocket tick supplier and writes canonical
tick CSV rows (time,instrument,price) until the stream closes, the tick
limit is reached, or the process is interrupted.

Example:
  stocksim record --url ws://localhost:8080/ticks --out ticks.csv --max 10000`,
	RunE: runRecord,
}

var (
	recURL      string
	recOutPath  string
	recMaxTicks int
)

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().StringVarP(&recURL, "url", "u", "", "websocket tick supplier URL (required)")
	recordCmd.Flags().StringVarP(&recOutPath, "out", "o", "ticks.csv", "output CSV path")
	recordCmd.Flags().IntVarP(&recMaxTicks, "max", "m", 0, "stop after this many ticks (0 = unlimited)")

	recordCmd.MarkFlagRequired("url")
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	feed, err := stream.Dial(ctx, recURL)
	if err != nil {
		return err
	}
	defer feed.Close()

	out, err := os.Create(recOutPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	n, err := feed.RecordToCSV(ctx, out, recMaxTicks)
	fmt.Printf("Recorded %d ticks to %s\n", n, recOutPath)
	return err
}
