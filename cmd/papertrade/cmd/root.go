package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vadiminshakov/papertrade/config"
	"github.com/vadiminshakov/papertrade/internal"
	"github.com/vadiminshakov/papertrade/internal/cli"
)

const defaultConfigPath = "config.yaml"

var (
	cfgPath     string
	envFile     string
	logLevel    string
	confirmLive bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "Crypto paper-trading simulator with alerts, strategies and arbitrage scanning",
	Long: `Papertrade simulates spot trading against live exchange prices.

It provides tools for:
  - Paper trading with fees and slippage, or live trading behind a confirmation
  - Price alerts delivered to the console, Telegram, e-mail or Discord
  - MA crossover, RSI, Bollinger Bands and grid strategies
  - Cross-exchange arbitrage scanning
  - Historical data collection with technical indicators
  - A SQLite trade journal and a web dashboard

Without a subcommand it starts the interactive menu.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(logLevel)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runInteractive,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath, "path to YAML config; defaults are used when it does not exist")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with credentials")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&confirmLive, "confirm-live", false, "allow live mode in non-interactive commands")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "incorrect log level %q", level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// loadConfig reads the dotenv file and the YAML config. A missing default
// config file means built-in defaults.
func loadConfig() (config.Config, error) {
	if err := config.LoadEnv(envFile); err != nil {
		return config.Config{}, err
	}
	path := cfgPath
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == defaultConfigPath {
		logger.Info("config file not found, using defaults", zap.String("path", path))
		path = ""
	}
	return config.Load(path)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// ignoreCanceled treats shutdown by signal as success.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newBot builds the bot, downgrading live mode to paper unless the user
// confirmed it: interactively with a typed YES, otherwise with --confirm-live.
func newBot(ctx context.Context, cfg config.Config, interactive bool) (*internal.Bot, error) {
	if cfg.Mode == config.ModeLive {
		confirmed := confirmLive
		if interactive && !confirmed {
			ok, err := cli.ConfirmLive(cfg.Platform)
			if err != nil {
				return nil, err
			}
			confirmed = ok
		}
		if !confirmed {
			fmt.Println("Live trading not confirmed, falling back to paper trading.")
			cfg.Mode = config.ModePaper
		}
	}
	return internal.NewBot(ctx, cfg, logger)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	bot, err := newBot(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer bot.Close()

	return cli.NewMenu(bot, cmd.OutOrStdout(), logger).Run(ctx)
}
