package cmd

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/papertrade/internal/cli"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/strategy"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy [ma_crossover|rsi|bollinger|grid]",
	Short: "Run a trading strategy on the configured pairs",
	Long: `Evaluate a strategy and place the resulting orders.

Without --once the strategy runs every --interval until interrupted.
The name defaults to strategy.name from the config.

Examples:
  papertrade strategy rsi --once
  papertrade strategy grid --pairs BTC/USDT --interval 15m
  papertrade strategy ma_crossover --dashboard`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStrategy,
}

var (
	strategyPairs     []string
	strategyInterval  time.Duration
	strategyOnce      bool
	strategyAmount    string
	strategyDashboard bool
)

func init() {
	rootCmd.AddCommand(strategyCmd)
	strategyCmd.Flags().StringSliceVarP(&strategyPairs, "pairs", "p", nil, "pairs to trade (default: config pairs)")
	strategyCmd.Flags().DurationVarP(&strategyInterval, "interval", "i", 0, "time between runs (default: strategy.interval)")
	strategyCmd.Flags().BoolVar(&strategyOnce, "once", false, "run once and exit")
	strategyCmd.Flags().StringVarP(&strategyAmount, "amount", "a", "", "order amount in base currency (default: sized from balance)")
	strategyCmd.Flags().BoolVar(&strategyDashboard, "dashboard", false, "serve the web dashboard while running")
}

func parsePairs(raw []string, fallback []domain.Pair, quote string) ([]domain.Pair, error) {
	if len(raw) == 0 {
		return fallback, nil
	}
	out := make([]domain.Pair, 0, len(raw))
	for _, s := range raw {
		p, err := cli.ParsePair(s, quote)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func runStrategy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	name := cfg.Strategy.Name
	if len(args) == 1 {
		name = args[0]
	}
	if name, err = strategy.NormalizeName(name); err != nil {
		return err
	}
	pairs, err := parsePairs(strategyPairs, cfg.Pairs, cfg.Paper.QuoteCurrency)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	bot, err := newBot(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer bot.Close()

	out := cmd.OutOrStdout()
	if strategyOnce {
		var amount *decimal.Decimal
		if strategyAmount != "" {
			d, err := decimal.NewFromString(strategyAmount)
			if err != nil {
				return errors.Wrapf(err, "incorrect amount %q", strategyAmount)
			}
			amount = &d
		}
		for _, p := range pairs {
			report, err := bot.ExecuteStrategy(ctx, name, p, amount)
			if err != nil {
				fmt.Fprintf(out, "%s %s: %v\n", name, p, err)
				continue
			}
			fmt.Fprintln(out, cli.Report(report))
		}
		fmt.Fprintln(out, cli.Portfolio(bot.PortfolioValue(ctx)))
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.RunStrategy(ctx, name, pairs, strategyInterval, func(r strategy.ExecutionReport) {
			fmt.Fprintln(out, cli.Report(r))
		})
	})
	if strategyDashboard {
		g.Go(func() error { return bot.Dashboard(ctx) })
	}
	err = ignoreCanceled(g.Wait())

	fmt.Fprintln(out, cli.Portfolio(bot.PortfolioValue(cmd.Context())))
	fmt.Fprintln(out, cli.Performance(bot.Performance()))
	return err
}
