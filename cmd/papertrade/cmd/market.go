package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/vadiminshakov/papertrade/config"
	"github.com/vadiminshakov/papertrade/internal"
	"github.com/vadiminshakov/papertrade/internal/cli"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/arbitrage"
)

var arbitrageCmd = &cobra.Command{
	Use:   "arbitrage",
	Short: "Scan price differences between exchanges",
	Long: `Quote every arbitrage.platforms exchange and report pairs whose spread between
the lowest ask and the highest bid exceeds arbitrage.min_spread_percent.

Examples:
  papertrade arbitrage
  papertrade arbitrage --watch --pairs BTC,ETH`,
	Args: cobra.NoArgs,
	RunE: runArbitrage,
}

var collectCmd = &cobra.Command{
	Use:   "collect [pairs...]",
	Short: "Fetch candles and compute technical indicators",
	Long: `Fetch historical candles (cached under data.cache_dir for data.cache_ttl),
annotate them with MA, RSI, MACD and Bollinger Bands and optionally export CSV.

Examples:
  papertrade collect BTC/USDT --export
  papertrade collect BTC ETH BNB --correlation`,
	RunE: runCollect,
}

var (
	arbitragePairs []string
	arbitrageWatch bool

	collectLimit       int
	collectExport      bool
	collectCorrelation bool
	collectRefresh     bool
)

func init() {
	rootCmd.AddCommand(arbitrageCmd)
	rootCmd.AddCommand(collectCmd)

	arbitrageCmd.Flags().StringSliceVarP(&arbitragePairs, "pairs", "p", nil, "pairs to scan (default: config pairs)")
	arbitrageCmd.Flags().BoolVarP(&arbitrageWatch, "watch", "w", false, "rescan every arbitrage.interval until interrupted")

	collectCmd.Flags().IntVarP(&collectLimit, "limit", "l", 100, "candles per pair")
	collectCmd.Flags().BoolVar(&collectExport, "export", false, "write a CSV per pair under data.cache_dir")
	collectCmd.Flags().BoolVar(&collectCorrelation, "correlation", false, "print the close-price correlation matrix")
	collectCmd.Flags().BoolVar(&collectRefresh, "refresh", false, "bypass the candle cache")
}

func runArbitrage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pairs, err := parsePairs(arbitragePairs, cfg.Pairs, cfg.Paper.QuoteCurrency)
	if err != nil {
		return err
	}
	scanner, err := internal.NewArbitrageScanner(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()
	out := cmd.OutOrStdout()

	if !arbitrageWatch {
		found, err := scanner.ScanAll(ctx, pairs)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, cli.Opportunities(found))
		return nil
	}

	fmt.Fprintf(out, "Watching %d pairs on %v every %s, Ctrl+C to stop\n", len(pairs), scanner.Exchanges(), cfg.Arbitrage.Interval)
	return scanner.Watch(ctx, pairs, cfg.Arbitrage.Interval, func(found map[domain.Pair][]arbitrage.Opportunity) {
		fmt.Fprintf(out, "[%s]\n%s\n", time.Now().Format("15:04:05"), cli.Opportunities(found))
	})
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pairs, err := parsePairs(args, cfg.Pairs, cfg.Paper.QuoteCurrency)
	if err != nil {
		return err
	}
	// market data only: no orders, no journal session
	cfg.Mode = config.ModePaper
	cfg.Storage = config.Storage{}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	bot, err := newBot(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer bot.Close()
	out := cmd.OutOrStdout()

	for _, p := range pairs {
		rows, err := bot.Indicators(ctx, p, collectLimit, collectRefresh)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", p, err)
			continue
		}
		fmt.Fprintln(out, cli.IndicatorTail(p, rows, 5))
		if collectExport {
			path, err := bot.ExportIndicators(ctx, p, collectLimit)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved to %s\n", path)
		}
	}

	if collectCorrelation {
		matrix, err := bot.Correlation(ctx, pairs, collectLimit)
		if err != nil {
			return err
		}
		printCorrelation(cmd, matrix)
	}
	return nil
}

func printCorrelation(cmd *cobra.Command, matrix map[domain.Pair]map[domain.Pair]float64) {
	pairs := make([]domain.Pair, 0, len(matrix))
	for p := range matrix {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-10s", "")
	for _, p := range pairs {
		fmt.Fprintf(out, " %10s", p.String())
	}
	fmt.Fprintln(out)
	for _, a := range pairs {
		fmt.Fprintf(out, "%-10s", a.String())
		for _, b := range pairs {
			fmt.Fprintf(out, " %10.3f", matrix[a][b])
		}
		fmt.Fprintln(out)
	}
}
