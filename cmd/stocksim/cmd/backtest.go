package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocksim/algo"
	"github.com/rustyeddy/stocksim/backtest"
	"github.com/rustyeddy/stocksim/config"
	"github.com/rustyeddy/stocksim/internal/logger"
	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/portfolio"
	"github.com/rustyeddy/stocksim/sim"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the simulation over a historical tick CSV",
	Long: `Backtest replays a tick CSV (time,instrument,price) through the
trend-following decision engine and the execution simulator, applying
fills to an in-memory portfolio and printing a run summary.

Example:
  stocksim backtest --ticks data/ticks.csv --balance 10000 --seed 1`,
	RunE: runBacktest,
}

var (
	btTicksPath  string
	btConfigPath string
	btBalance    float64
	btAlgorithm  string
	btSeed       int64
	btBuffer     int
	btVerbose    bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btTicksPath, "ticks", "t", "", "path to tick CSV (time,instrument,price) (required)")
	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "path to YAML/JSON config file")
	backtestCmd.Flags().Float64VarP(&btBalance, "balance", "b", 0, "starting cash balance (overrides config)")
	backtestCmd.Flags().StringVarP(&btAlgorithm, "algorithm", "a", "trend", "decision engine (trend, noop)")
	backtestCmd.Flags().Int64Var(&btSeed, "seed", 0, "random seed for slippage/failure draws (0 = time-seeded)")
	backtestCmd.Flags().IntVar(&btBuffer, "buffer", 64, "tick channel buffer size")
	backtestCmd.Flags().BoolVarP(&btVerbose, "verbose", "v", false, "log every applied trade")

	backtestCmd.MarkFlagRequired("ticks")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if btConfigPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(btConfigPath); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("balance") {
		cfg.Account.Balance = btBalance
	}

	log, err := logger.New(btVerbose)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	p, err := portfolio.New(cfg.Account.Balance)
	if err != nil {
		return err
	}

	engine, err := algo.ByName(btAlgorithm, cfg.Algorithm)
	if err != nil {
		return err
	}

	var rng *rand.Rand
	if btSeed != 0 {
		rng = rand.New(rand.NewSource(btSeed))
	}
	api := sim.New(cfg.Simulator, rng)

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer j.Close()

	feed, err := backtest.NewCSVTicksFeed(btTicksPath, cfg.From(), cfg.To())
	if err != nil {
		return fmt.Errorf("open ticks: %w", err)
	}
	defer feed.Close()

	c := backtest.NewController(p, engine, api, j, log)

	result, err := backtest.Run(context.Background(), feed, c, btBuffer)
	backtest.PrintResult(os.Stdout, result)
	return err
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "", "none":
		return journal.Nop{}, nil
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	case "csv":
		return journal.NewCSV(cfg.FillsFile, cfg.EquityFile)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
	}
}
