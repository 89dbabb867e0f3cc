package internal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/papertrade/config"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/events"
	"github.com/vadiminshakov/papertrade/internal/services/alert"
	"github.com/vadiminshakov/papertrade/internal/services/arbitrage"
	"github.com/vadiminshakov/papertrade/internal/services/exchange"
	"github.com/vadiminshakov/papertrade/internal/services/market/collector"
	"github.com/vadiminshakov/papertrade/internal/services/market/indicators"
	"github.com/vadiminshakov/papertrade/internal/services/notifier"
	"github.com/vadiminshakov/papertrade/internal/services/portfolio"
	"github.com/vadiminshakov/papertrade/internal/services/pricer"
	"github.com/vadiminshakov/papertrade/internal/services/strategy"
	"github.com/vadiminshakov/papertrade/internal/services/trader"
	"github.com/vadiminshakov/papertrade/internal/services/venue"
	"github.com/vadiminshakov/papertrade/internal/storage/journal"
	"github.com/vadiminshakov/papertrade/internal/storage/snapshots"
	"github.com/vadiminshakov/papertrade/internal/web"
	"github.com/vadiminshakov/papertrade/pkg/id"
)

const eventBuffer = 64

// Dependencies market data and execution backends. Nil fields are built
// from the configured platform.
type Dependencies struct {
	Source   venue.TickerSource
	Klines   collector.KlineProvider
	Trader   trader.Trader
	Notifier alert.Notifier
}

// Bot wires one trading venue with the tracker, alert monitor, strategy
// evaluator and data collector.
type Bot struct {
	cfg    config.Config
	logger *zap.Logger

	venue         venue.TradingVenue
	source        venue.TickerSource
	collector     *collector.Collector
	tracker       *portfolio.Tracker
	monitor       *alert.Monitor
	evaluator     *strategy.Evaluator
	notifications *notifier.Manager

	alertEvents *events.Broadcaster[events.AlertFired]
	tradeEvents *events.Broadcaster[events.TradeExecuted]

	session string
	wal     *snapshots.WALStore
	journal *journal.SQLite
}

// NewBot creates a bot for cfg, connecting to cfg.Platform.
func NewBot(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Bot, error) {
	return NewBotWithDependencies(ctx, cfg, Dependencies{}, logger)
}

// NewBotWithDependencies creates a bot, building whatever deps leaves nil.
func NewBotWithDependencies(ctx context.Context, cfg config.Config, deps Dependencies, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := fillDependencies(cfg, &deps, logger); err != nil {
		return nil, err
	}

	b := &Bot{
		cfg:         cfg,
		logger:      logger,
		source:      deps.Source,
		alertEvents: events.NewBroadcaster[events.AlertFired](eventBuffer),
		tradeEvents: events.NewBroadcaster[events.TradeExecuted](eventBuffer),
	}

	base, err := b.newVenue(deps)
	if err != nil {
		return nil, err
	}

	if err := b.openStorage(ctx, base.Kind()); err != nil {
		b.Close()
		return nil, err
	}

	observers := []venue.TradeObserver{b.publishTrade}
	var savers snapshotSavers
	if b.journal != nil {
		observers = append(observers, b.journal.Observer(b.session))
		savers = append(savers, b.journal.Snapshots(b.session))
	}
	if b.wal != nil {
		savers = append(savers, b.wal)
	}
	b.venue = venue.WithObservers(base, observers...)

	var trackerOpts []portfolio.Option
	if len(savers) > 0 {
		trackerOpts = append(trackerOpts, portfolio.WithStore(savers))
	}
	b.tracker = portfolio.NewTracker(b.venue, logger.Named("portfolio"), trackerOpts...)

	b.collector = collector.NewCollector(deps.Klines, collector.Config{
		Platform: cfg.Platform,
		CacheDir: cfg.Data.CacheDir,
		TTL:      cfg.Data.CacheTTL,
	}, logger.Named("collector"))
	b.evaluator = strategy.NewEvaluator(b.venue, b.collector, logger.Named("strategy"))

	b.notifications = notifier.NewManager(cfg.Alerts.NotifyMethod, deps.Notifier, logger.Named("notifier"))
	b.monitor = alert.NewMonitor(deps.Source, b.notifications, logger.Named("alerts"), alert.WithEvents(b.alertEvents))

	b.tracker.Snapshot(ctx)
	logger.Info("bot initialized",
		zap.String("platform", cfg.Platform),
		zap.String("venue", base.Kind().String()),
		zap.String("session", b.session))
	return b, nil
}

func fillDependencies(cfg config.Config, deps *Dependencies, logger *zap.Logger) error {
	needsTrader := cfg.Mode == config.ModeLive && deps.Trader == nil
	if deps.Source == nil || deps.Klines == nil || needsTrader {
		provider, err := providerFor(cfg.Platform, cfg.Credentials)
		if err != nil {
			return errors.Wrap(err, "failed to create service provider")
		}
		if deps.Source == nil {
			deps.Source = pricer.NewRetryingSource(provider.Pricer(), nil, logger.Named("pricer"))
		}
		if deps.Klines == nil {
			deps.Klines = provider.KlineProvider()
		}
		if needsTrader {
			t, err := provider.Trader()
			if err != nil {
				return errors.Wrap(err, "failed to create trader")
			}
			deps.Trader = t
		}
	}
	if deps.Notifier == nil {
		n, err := notifier.New(cfg.Alerts.NotifyMethod, notifierSettings(cfg.Credentials))
		if err != nil {
			return err
		}
		deps.Notifier = n
	}
	return nil
}

func notifierSettings(c config.Credentials) notifier.Settings {
	return notifier.Settings{
		TelegramToken:     c.TelegramToken,
		TelegramChatID:    c.TelegramChatID,
		EmailSender:       c.EmailSender,
		EmailPassword:     c.EmailPassword,
		EmailRecipient:    c.EmailRecipient,
		DiscordWebhookURL: c.DiscordWebhookURL,
	}
}

func (b *Bot) newVenue(deps Dependencies) (venue.TradingVenue, error) {
	if b.cfg.Mode == config.ModeLive {
		return venue.NewLive(venue.LiveConfig{
			Platform:      b.cfg.Platform,
			QuoteCurrency: b.cfg.Paper.QuoteCurrency,
			MaxTradeQuote: b.cfg.Risk.MaxTradeSizeQuote,
		}, deps.Source, deps.Trader, b.logger.Named("live"))
	}

	assets := make([]string, 0, len(b.cfg.Pairs))
	for _, p := range b.cfg.Pairs {
		assets = append(assets, p.From)
	}
	return exchange.NewPaperExchange(exchange.Config{
		InitialBalance: b.cfg.Paper.InitialBalance,
		QuoteCurrency:  b.cfg.Paper.QuoteCurrency,
		FeeRate:        b.cfg.Paper.FeeRate(),
		SlippageRate:   b.cfg.Paper.SlippageRate(),
		Assets:         assets,
	}, deps.Source, b.logger.Named("paper"))
}

func (b *Bot) openStorage(ctx context.Context, kind venue.Kind) error {
	b.session = id.New()
	if path := b.cfg.Storage.JournalPath; path != "" {
		j, err := journal.NewSQLite(path, b.logger.Named("journal"))
		if err != nil {
			return err
		}
		b.journal = j
		session, err := j.StartSession(ctx, kind, b.cfg.Platform, b.cfg.Paper.QuoteCurrency, time.Now())
		if err != nil {
			return err
		}
		b.session = session
	}
	if dir := b.cfg.Storage.SnapshotDir; dir != "" {
		wal, err := snapshots.NewWALStore(dir, b.session)
		if err != nil {
			return err
		}
		b.wal = wal
	}
	return nil
}

func (b *Bot) publishTrade(_ context.Context, kind venue.Kind, t domain.TradeRecord) {
	b.tradeEvents.Publish(events.NewTradeExecuted(kind.String(), t))
}

// snapshotSavers writes each snapshot to every store and reports the first failure.
type snapshotSavers []portfolio.SnapshotSaver

func (s snapshotSavers) Save(snapshot domain.PortfolioSnapshot) error {
	var first error
	for _, saver := range s {
		if err := saver.Save(snapshot); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Kind reports whether orders are simulated or sent to the exchange.
func (b *Bot) Kind() venue.Kind { return b.venue.Kind() }

// Config returns the settings the bot was built with.
func (b *Bot) Config() config.Config { return b.cfg }

// Session journal session id of this run.
func (b *Bot) Session() string { return b.session }

func (b *Bot) Ticker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	return b.venue.GetTicker(ctx, pair)
}

func (b *Bot) Balance(ctx context.Context) (domain.Balances, error) {
	return b.venue.GetBalance(ctx)
}

// CreateOrder places req on the venue and snapshots the portfolio after a fill.
func (b *Bot) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.TradeRecord, error) {
	trade, err := b.venue.CreateOrder(ctx, req)
	if err != nil {
		return domain.TradeRecord{}, err
	}
	b.tracker.Snapshot(ctx)
	return trade, nil
}

// PortfolioValue values every held asset at current prices.
func (b *Bot) PortfolioValue(ctx context.Context) domain.PortfolioValue {
	return b.venue.GetPortfolioValue(ctx)
}

// Snapshot records the current portfolio value in the history.
func (b *Bot) Snapshot(ctx context.Context) domain.PortfolioSnapshot {
	return b.tracker.Snapshot(ctx)
}

// Performance metrics over the snapshot history; false with fewer than two snapshots.
func (b *Bot) Performance() (domain.PerformanceMetrics, bool) {
	return b.tracker.PerformanceMetrics()
}

// History snapshots taken during this run, oldest first.
func (b *Bot) History() []domain.PortfolioSnapshot {
	return b.tracker.History()
}

// ExportHistory writes the snapshot history to a CSV file.
func (b *Bot) ExportHistory(path string) error {
	return b.tracker.ExportCSVFile(path)
}

// TradeHistory the last limit trades, oldest first. A non-positive limit returns all.
func (b *Bot) TradeHistory(limit int) []domain.TradeRecord {
	trades := b.venue.Trades()
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}
	return trades
}

func (b *Bot) AddAlert(pair domain.Pair, cond domain.AlertCondition, threshold decimal.Decimal, message string) (int, error) {
	return b.monitor.Add(pair, cond, threshold, message)
}

func (b *Bot) RemoveAlert(id int) bool {
	return b.monitor.Remove(id)
}

func (b *Bot) ListAlerts() []domain.AlertRule {
	return b.monitor.List()
}

// LoadConfiguredAlerts registers the rules from the config file.
func (b *Bot) LoadConfiguredAlerts() (int, error) {
	for i, r := range b.cfg.Alerts.Rules {
		if _, err := b.monitor.Add(r.Pair, r.Condition, r.Threshold, r.Message); err != nil {
			return i, errors.Wrapf(err, "alert rule %d", i+1)
		}
	}
	return len(b.cfg.Alerts.Rules), nil
}

// StartMonitoring starts polling alerts. A non-positive interval uses the configured one.
func (b *Bot) StartMonitoring(interval time.Duration) error {
	if interval <= 0 {
		interval = b.cfg.Alerts.Interval
	}
	return b.monitor.Start(interval)
}

// StopMonitoring blocks until the polling loop has exited.
func (b *Bot) StopMonitoring() {
	b.monitor.Stop()
}

func (b *Bot) Monitoring() bool {
	return b.monitor.Running()
}

// CheckAlerts runs one alert check and returns the rules that fired.
func (b *Bot) CheckAlerts(ctx context.Context) []domain.AlertRule {
	return b.monitor.CheckAlerts(ctx)
}

// Notifications recent deliveries, newest last.
func (b *Bot) Notifications(limit int) []notifier.Record {
	return b.notifications.History(limit)
}

// StrategyParams evaluator parameters from the config.
func (b *Bot) StrategyParams() strategy.Params {
	s := b.cfg.Strategy
	return strategy.Params{
		Timeframe:   b.cfg.Data.Timeframe,
		ShortWindow: s.ShortWindow,
		LongWindow:  s.LongWindow,
		RSIPeriod:   s.RSIPeriod,
		Oversold:    s.Oversold,
		Overbought:  s.Overbought,
		BBPeriod:    s.BBPeriod,
		BBStdDev:    s.BBStdDev,
		GridLevels:  s.GridLevels,
		GridSpacing: s.GridSpacing,
	}
}

// ExecuteStrategy runs strategy name once on pair. A nil amount lets the
// evaluator size orders from the balance.
func (b *Bot) ExecuteStrategy(ctx context.Context, name string, pair domain.Pair, amount *decimal.Decimal) (strategy.ExecutionReport, error) {
	report, err := b.evaluator.Execute(ctx, name, pair, amount, b.StrategyParams())
	if err != nil {
		return report, err
	}
	if report.Acted() {
		b.tracker.Snapshot(ctx)
	}
	return report, nil
}

// RunStrategy executes strategy name on every pair each interval until ctx
// is done. Failed runs are logged and retried on the next tick.
func (b *Bot) RunStrategy(ctx context.Context, name string, pairs []domain.Pair, interval time.Duration, report func(strategy.ExecutionReport)) error {
	if _, err := strategy.NormalizeName(name); err != nil {
		return err
	}
	if interval <= 0 {
		interval = b.cfg.Strategy.Interval
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, pair := range pairs {
		g.Go(func() error {
			logger := b.logger.With(zap.String("pair", pair.String()), zap.String("strategy", name))
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			logger.Info("Starting strategy loop", zap.Duration("interval", interval))
			for {
				r, err := b.ExecuteStrategy(ctx, name, pair, nil)
				if err != nil {
					logger.Error("Strategy run failed", zap.Error(err))
				} else if report != nil {
					report(r)
				}

				select {
				case <-ctx.Done():
					logger.Info("Context done, stopping strategy loop.")
					return ctx.Err()
				case <-ticker.C:
				}
			}
		})
	}
	return g.Wait()
}

// Indicators candles for pair annotated with indicators. force bypasses the cache.
func (b *Bot) Indicators(ctx context.Context, pair domain.Pair, limit int, force bool) ([]indicators.Row, error) {
	candles, err := b.collector.Fetch(ctx, pair, b.cfg.Data.Timeframe, limit, force)
	if err != nil {
		return nil, err
	}
	return indicators.Report(candles), nil
}

// CollectData annotated candles for every pair. Pairs that fail are skipped.
func (b *Bot) CollectData(ctx context.Context, pairs []domain.Pair, limit int) (map[domain.Pair][]indicators.Row, error) {
	return b.collector.CollectMultiple(ctx, pairs, b.cfg.Data.Timeframe, limit)
}

// ExportIndicators writes fresh candles with indicators for pair under the
// data cache dir and returns the file path.
func (b *Bot) ExportIndicators(ctx context.Context, pair domain.Pair, limit int) (string, error) {
	return b.collector.ExportCSV(ctx, b.cfg.Data.CacheDir, pair, b.cfg.Data.Timeframe, limit)
}

func (b *Bot) Correlation(ctx context.Context, pairs []domain.Pair, limit int) (map[domain.Pair]map[domain.Pair]float64, error) {
	return b.collector.Correlation(ctx, pairs, b.cfg.Data.Timeframe, limit)
}

// Dashboard serves the web UI until ctx is done. With domains configured it
// serves HTTPS through Let's Encrypt.
func (b *Bot) Dashboard(ctx context.Context) error {
	opts := []web.Option{
		web.WithAlerts(b.alertEvents),
		web.WithTrades(b.tradeEvents),
		web.WithAccount(b.venue),
	}
	if b.wal != nil {
		opts = append(opts, web.WithSnapshots(b.wal))
	}
	srv := web.NewServer(b.cfg.Web.Addr, b.logger.Named("web"), opts...)

	if len(b.cfg.Web.Domains) > 0 {
		return srv.StartWithAutoTLS(ctx, b.cfg.Web.Domains, b.cfg.Web.CertCacheDir)
	}
	return srv.Start(ctx)
}

// SnapshotEvery snapshots the portfolio each interval until ctx is done.
func (b *Bot) SnapshotEvery(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.tracker.Snapshot(ctx)
		}
	}
}

// Close stops monitoring and releases storage. The bot must not be used afterwards.
func (b *Bot) Close() {
	if b.monitor != nil {
		b.monitor.Stop()
	}
	if b.wal != nil {
		if err := b.wal.Close(); err != nil {
			b.logger.Warn("failed to close snapshot WAL", zap.Error(err))
		}
	}
	if b.journal != nil {
		if err := b.journal.Close(); err != nil {
			b.logger.Warn("failed to close journal", zap.Error(err))
		}
	}
}

// NewArbitrageScanner builds a scanner over the public tickers of every
// configured arbitrage platform.
func NewArbitrageScanner(cfg config.Config, logger *zap.Logger) (*arbitrage.Scanner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sources := make(map[string]venue.TickerSource, len(cfg.Arbitrage.Platforms))
	for _, platform := range cfg.Arbitrage.Platforms {
		provider, err := providerFor(platform, config.Credentials{})
		if err != nil {
			return nil, errors.Wrapf(err, "arbitrage platform %s", platform)
		}
		sources[platform] = pricer.NewRetryingSource(provider.Pricer(), nil, logger.Named(platform))
	}
	return arbitrage.NewScanner(arbitrage.Config{
		MinSpreadPercent: cfg.Arbitrage.MinSpreadPercent,
		RequestInterval:  cfg.Arbitrage.RequestInterval,
	}, sources, logger.Named("arbitrage"))
}
