// Package config loads the simulator settings from YAML and the environment.
package config

import (
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// Platforms supported exchange backends.
var Platforms = []string{"binance", "bybit", "hyperliquid"}

// Config parsed settings.
type Config struct {
	Platform    string
	Mode        string
	Pairs       []domain.Pair
	Paper       Paper
	Alerts      Alerts
	Strategy    Strategy
	Arbitrage   Arbitrage
	Data        Data
	Storage     Storage
	Risk        Risk
	Web         Web
	Credentials Credentials
}

// Paper simulated account. Percent fields are in percent: 0.1 means 0.1%.
type Paper struct {
	InitialBalance  decimal.Decimal
	QuoteCurrency   string
	FeePercent      decimal.Decimal
	SlippagePercent decimal.Decimal
}

// FeeRate fee as a fraction.
func (p Paper) FeeRate() decimal.Decimal { return p.FeePercent.Div(decimal.NewFromInt(100)) }

// SlippageRate slippage as a fraction.
func (p Paper) SlippageRate() decimal.Decimal {
	return p.SlippagePercent.Div(decimal.NewFromInt(100))
}

// AlertRule rule registered when monitoring starts.
type AlertRule struct {
	Pair      domain.Pair
	Condition domain.AlertCondition
	Threshold decimal.Decimal
	Message   string
}

type Alerts struct {
	Interval     time.Duration
	NotifyMethod string
	Rules        []AlertRule
}

// Strategy default parameters for the strategy evaluator.
type Strategy struct {
	Name        string
	ShortWindow int
	LongWindow  int
	RSIPeriod   int
	Oversold    float64
	Overbought  float64
	BBPeriod    int
	BBStdDev    decimal.Decimal
	GridLevels  int
	GridSpacing decimal.Decimal
	// Interval between runs in continuous mode.
	Interval time.Duration
}

type Arbitrage struct {
	Platforms        []string
	MinSpreadPercent decimal.Decimal
	RequestInterval  time.Duration
	Interval         time.Duration
}

type Data struct {
	CacheDir  string
	CacheTTL  time.Duration
	Timeframe string
}

type Storage struct {
	SnapshotDir string
	JournalPath string
}

type Risk struct {
	// MaxTradeSizeQuote caps one live order's notional; zero disables the cap.
	MaxTradeSizeQuote decimal.Decimal
}

type Web struct {
	Addr         string
	Domains      []string
	CertCacheDir string
}

// Credentials secrets read from the environment, never from the YAML file.
type Credentials struct {
	BinanceAPIKey         string
	BinanceAPISecret      string
	BybitAPIKey           string
	BybitAPISecret        string
	HyperliquidPrivateKey string
	TelegramToken         string
	TelegramChatID        string
	EmailSender           string
	EmailPassword         string
	EmailRecipient        string
	DiscordWebhookURL     string
}

// HasExchangeKeys reports whether trading credentials for platform are set.
func (c Credentials) HasExchangeKeys(platform string) bool {
	switch platform {
	case "binance":
		return c.BinanceAPIKey != "" && c.BinanceAPISecret != ""
	case "bybit":
		return c.BybitAPIKey != "" && c.BybitAPISecret != ""
	case "hyperliquid":
		return c.HyperliquidPrivateKey != ""
	default:
		return false
	}
}

// ConfigTmp raw YAML document.
type ConfigTmp struct {
	Platform  string       `yaml:"platform"`
	Mode      string       `yaml:"mode"`
	Pairs     []string     `yaml:"pairs"`
	Paper     PaperTmp     `yaml:"paper"`
	Alerts    AlertsTmp    `yaml:"alerts"`
	Strategy  StrategyTmp  `yaml:"strategy"`
	Arbitrage ArbitrageTmp `yaml:"arbitrage"`
	Data      DataTmp      `yaml:"data"`
	Storage   StorageTmp   `yaml:"storage"`
	Risk      RiskTmp      `yaml:"risk"`
	Web       WebTmp       `yaml:"web"`
}

type PaperTmp struct {
	InitialBalance  string `yaml:"initial_balance,omitempty"`
	QuoteCurrency   string `yaml:"quote_currency,omitempty"`
	FeePercent      string `yaml:"fee_percent,omitempty"`
	SlippagePercent string `yaml:"slippage_percent,omitempty"`
}

type AlertRuleTmp struct {
	Pair      string `yaml:"pair"`
	Condition string `yaml:"condition"`
	Threshold string `yaml:"threshold"`
	Message   string `yaml:"message,omitempty"`
}

type AlertsTmp struct {
	Interval     string         `yaml:"interval,omitempty"`
	NotifyMethod string         `yaml:"notify_method,omitempty"`
	Rules        []AlertRuleTmp `yaml:"rules,omitempty"`
}

type StrategyTmp struct {
	Name        string `yaml:"name,omitempty"`
	ShortWindow string `yaml:"short_window,omitempty"`
	LongWindow  string `yaml:"long_window,omitempty"`
	RSIPeriod   string `yaml:"rsi_period,omitempty"`
	Oversold    string `yaml:"oversold,omitempty"`
	Overbought  string `yaml:"overbought,omitempty"`
	BBPeriod    string `yaml:"bb_period,omitempty"`
	BBStdDev    string `yaml:"bb_std_dev,omitempty"`
	GridLevels  string `yaml:"grid_levels,omitempty"`
	GridSpacing string `yaml:"grid_spacing,omitempty"`
	Interval    string `yaml:"interval,omitempty"`
}

type ArbitrageTmp struct {
	Platforms        []string `yaml:"platforms,omitempty"`
	MinSpreadPercent string   `yaml:"min_spread_percent,omitempty"`
	RequestInterval  string   `yaml:"request_interval,omitempty"`
	Interval         string   `yaml:"interval,omitempty"`
}

type DataTmp struct {
	CacheDir  string `yaml:"cache_dir,omitempty"`
	CacheTTL  string `yaml:"cache_ttl,omitempty"`
	Timeframe string `yaml:"timeframe,omitempty"`
}

type StorageTmp struct {
	SnapshotDir string `yaml:"snapshot_dir,omitempty"`
	JournalPath string `yaml:"journal_path,omitempty"`
}

type RiskTmp struct {
	MaxTradeSizeQuote string `yaml:"max_trade_size_quote,omitempty"`
}

type WebTmp struct {
	Addr         string   `yaml:"addr,omitempty"`
	Domains      []string `yaml:"domains,omitempty"`
	CertCacheDir string   `yaml:"cert_cache_dir,omitempty"`
}

// Default settings used for every field the YAML file leaves empty.
func Default() Config {
	return Config{
		Platform: "binance",
		Mode:     ModePaper,
		Pairs: []domain.Pair{
			{From: "BTC", To: "USDT"},
			{From: "ETH", To: "USDT"},
			{From: "BNB", To: "USDT"},
		},
		Paper: Paper{
			InitialBalance:  decimal.NewFromInt(10000),
			QuoteCurrency:   "USDT",
			FeePercent:      decimal.RequireFromString("0.1"),
			SlippagePercent: decimal.RequireFromString("0.05"),
		},
		Alerts: Alerts{
			Interval:     time.Minute,
			NotifyMethod: "console",
			Rules: []AlertRule{
				{Pair: domain.Pair{From: "BTC", To: "USDT"}, Condition: domain.AlertAbove, Threshold: decimal.NewFromInt(70000)},
				{Pair: domain.Pair{From: "BTC", To: "USDT"}, Condition: domain.AlertBelow, Threshold: decimal.NewFromInt(60000)},
				{Pair: domain.Pair{From: "ETH", To: "USDT"}, Condition: domain.AlertAbove, Threshold: decimal.NewFromInt(4000)},
				{Pair: domain.Pair{From: "ETH", To: "USDT"}, Condition: domain.AlertBelow, Threshold: decimal.NewFromInt(3000)},
			},
		},
		Strategy: Strategy{
			Name:        "ma_crossover",
			ShortWindow: 10,
			LongWindow:  30,
			RSIPeriod:   14,
			Oversold:    30,
			Overbought:  70,
			BBPeriod:    20,
			BBStdDev:    decimal.NewFromInt(2),
			GridLevels:  5,
			GridSpacing: decimal.RequireFromString("0.02"),
			Interval:    time.Hour,
		},
		Arbitrage: Arbitrage{
			Platforms:        slices.Clone(Platforms),
			MinSpreadPercent: decimal.RequireFromString("0.5"),
			RequestInterval:  500 * time.Millisecond,
			Interval:         30 * time.Second,
		},
		Data: Data{
			CacheDir:  "collected_data",
			CacheTTL:  time.Hour,
			Timeframe: "1h",
		},
		Storage: Storage{
			SnapshotDir: "./wal/portfolio",
			JournalPath: "papertrade.db",
		},
		Risk: Risk{MaxTradeSizeQuote: decimal.NewFromInt(100)},
		Web:  Web{Addr: ":8080", CertCacheDir: "certs"},
	}
}

// LoadEnv loads .env style files into the process environment. Missing
// files are ignored; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "load env file %s", f)
		}
	}
	return nil
}

// CredentialsFromEnv reads exchange and notifier secrets.
func CredentialsFromEnv() Credentials {
	return Credentials{
		BinanceAPIKey:         os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret:      os.Getenv("BINANCE_API_SECRET"),
		BybitAPIKey:           os.Getenv("BYBIT_API_KEY"),
		BybitAPISecret:        os.Getenv("BYBIT_API_SECRET"),
		HyperliquidPrivateKey: os.Getenv("HYPERLIQUID_PRIVATE_KEY"),
		TelegramToken:         os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:        os.Getenv("TELEGRAM_CHAT_ID"),
		EmailSender:           os.Getenv("EMAIL_SENDER"),
		EmailPassword:         os.Getenv("EMAIL_PASSWORD"),
		EmailRecipient:        os.Getenv("EMAIL_RECIPIENT"),
		DiscordWebhookURL:     os.Getenv("DISCORD_WEBHOOK_URL"),
	}
}

// Load reads path, fills defaults, attaches environment credentials and
// validates the result. An empty path yields the defaults.
func Load(path string) (Config, error) {
	var tmp ConfigTmp
	if path != "" {
		f, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(f, &tmp); err != nil {
			return Config{}, errors.Wrapf(err, "parse config %s", path)
		}
	}

	cfg, err := tmp.Parse()
	if err != nil {
		return Config{}, err
	}
	cfg.Credentials = CredentialsFromEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse converts the raw document, defaulting empty fields.
func (c ConfigTmp) Parse() (Config, error) {
	cfg := Default()
	var err error

	if c.Platform != "" {
		cfg.Platform = strings.ToLower(c.Platform)
	}
	if c.Mode != "" {
		cfg.Mode = strings.ToLower(c.Mode)
	}
	if len(c.Pairs) > 0 {
		cfg.Pairs = cfg.Pairs[:0:0]
		for _, s := range c.Pairs {
			p, err := domain.ParsePair(s)
			if err != nil {
				return Config{}, errors.Wrapf(err, "incorrect 'pairs' param in yaml config: %s", s)
			}
			cfg.Pairs = append(cfg.Pairs, p)
		}
	}

	// paper
	if err = setDecimal(&cfg.Paper.InitialBalance, c.Paper.InitialBalance, "paper.initial_balance"); err != nil {
		return Config{}, err
	}
	if c.Paper.QuoteCurrency != "" {
		cfg.Paper.QuoteCurrency = strings.ToUpper(c.Paper.QuoteCurrency)
	}
	if err = setDecimal(&cfg.Paper.FeePercent, c.Paper.FeePercent, "paper.fee_percent"); err != nil {
		return Config{}, err
	}
	if err = setDecimal(&cfg.Paper.SlippagePercent, c.Paper.SlippagePercent, "paper.slippage_percent"); err != nil {
		return Config{}, err
	}

	// alerts
	if err = setDuration(&cfg.Alerts.Interval, c.Alerts.Interval, "alerts.interval"); err != nil {
		return Config{}, err
	}
	if c.Alerts.NotifyMethod != "" {
		cfg.Alerts.NotifyMethod = strings.ToLower(c.Alerts.NotifyMethod)
	}
	if len(c.Alerts.Rules) > 0 {
		cfg.Alerts.Rules = nil
	}
	for i, r := range c.Alerts.Rules {
		rule, err := r.parse()
		if err != nil {
			return Config{}, errors.Wrapf(err, "incorrect 'alerts.rules[%d]' param in yaml config", i)
		}
		cfg.Alerts.Rules = append(cfg.Alerts.Rules, rule)
	}

	// strategy
	s := &cfg.Strategy
	if c.Strategy.Name != "" {
		s.Name = strings.ToLower(c.Strategy.Name)
	}
	for _, f := range []struct {
		dst  *int
		raw  string
		name string
	}{
		{&s.ShortWindow, c.Strategy.ShortWindow, "strategy.short_window"},
		{&s.LongWindow, c.Strategy.LongWindow, "strategy.long_window"},
		{&s.RSIPeriod, c.Strategy.RSIPeriod, "strategy.rsi_period"},
		{&s.BBPeriod, c.Strategy.BBPeriod, "strategy.bb_period"},
		{&s.GridLevels, c.Strategy.GridLevels, "strategy.grid_levels"},
	} {
		if err = setInt(f.dst, f.raw, f.name); err != nil {
			return Config{}, err
		}
	}
	if err = setFloat(&s.Oversold, c.Strategy.Oversold, "strategy.oversold"); err != nil {
		return Config{}, err
	}
	if err = setFloat(&s.Overbought, c.Strategy.Overbought, "strategy.overbought"); err != nil {
		return Config{}, err
	}
	if err = setDecimal(&s.BBStdDev, c.Strategy.BBStdDev, "strategy.bb_std_dev"); err != nil {
		return Config{}, err
	}
	if err = setDecimal(&s.GridSpacing, c.Strategy.GridSpacing, "strategy.grid_spacing"); err != nil {
		return Config{}, err
	}
	if err = setDuration(&s.Interval, c.Strategy.Interval, "strategy.interval"); err != nil {
		return Config{}, err
	}

	// arbitrage
	if len(c.Arbitrage.Platforms) > 0 {
		cfg.Arbitrage.Platforms = make([]string, 0, len(c.Arbitrage.Platforms))
		for _, p := range c.Arbitrage.Platforms {
			cfg.Arbitrage.Platforms = append(cfg.Arbitrage.Platforms, strings.ToLower(p))
		}
	}
	if err = setDecimal(&cfg.Arbitrage.MinSpreadPercent, c.Arbitrage.MinSpreadPercent, "arbitrage.min_spread_percent"); err != nil {
		return Config{}, err
	}
	if err = setDuration(&cfg.Arbitrage.RequestInterval, c.Arbitrage.RequestInterval, "arbitrage.request_interval"); err != nil {
		return Config{}, err
	}
	if err = setDuration(&cfg.Arbitrage.Interval, c.Arbitrage.Interval, "arbitrage.interval"); err != nil {
		return Config{}, err
	}

	// data, storage, risk, web
	setString(&cfg.Data.CacheDir, c.Data.CacheDir)
	if err = setDuration(&cfg.Data.CacheTTL, c.Data.CacheTTL, "data.cache_ttl"); err != nil {
		return Config{}, err
	}
	setString(&cfg.Data.Timeframe, c.Data.Timeframe)
	setString(&cfg.Storage.SnapshotDir, c.Storage.SnapshotDir)
	setString(&cfg.Storage.JournalPath, c.Storage.JournalPath)
	if err = setDecimal(&cfg.Risk.MaxTradeSizeQuote, c.Risk.MaxTradeSizeQuote, "risk.max_trade_size_quote"); err != nil {
		return Config{}, err
	}
	setString(&cfg.Web.Addr, c.Web.Addr)
	if len(c.Web.Domains) > 0 {
		cfg.Web.Domains = slices.Clone(c.Web.Domains)
	}
	setString(&cfg.Web.CertCacheDir, c.Web.CertCacheDir)

	return cfg, nil
}

func (r AlertRuleTmp) parse() (AlertRule, error) {
	pair, err := domain.ParsePair(r.Pair)
	if err != nil {
		return AlertRule{}, err
	}
	cond, err := domain.ParseAlertCondition(r.Condition)
	if err != nil {
		return AlertRule{}, err
	}
	threshold, err := decimal.NewFromString(r.Threshold)
	if err != nil {
		return AlertRule{}, errors.Wrapf(err, "threshold %q", r.Threshold)
	}
	return AlertRule{Pair: pair, Condition: cond, Threshold: threshold, Message: r.Message}, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if !slices.Contains(Platforms, c.Platform) {
		return errors.Errorf("unknown platform %q, expected one of %s", c.Platform, strings.Join(Platforms, ", "))
	}
	if c.Mode != ModePaper && c.Mode != ModeLive {
		return errors.Errorf("mode must be %q or %q, got %q", ModePaper, ModeLive, c.Mode)
	}
	if len(c.Pairs) == 0 {
		return errors.New("at least one pair is required")
	}
	for _, p := range c.Pairs {
		if p.To != c.Paper.QuoteCurrency {
			return errors.Errorf("pair %s is not quoted in %s", p, c.Paper.QuoteCurrency)
		}
	}
	if c.Paper.InitialBalance.IsNegative() {
		return errors.New("paper.initial_balance must not be negative")
	}
	hundred := decimal.NewFromInt(100)
	if c.Paper.FeePercent.IsNegative() || c.Paper.FeePercent.GreaterThanOrEqual(hundred) {
		return errors.Errorf("paper.fee_percent must be in [0, 100), got %s", c.Paper.FeePercent)
	}
	if c.Paper.SlippagePercent.IsNegative() || c.Paper.SlippagePercent.GreaterThanOrEqual(hundred) {
		return errors.Errorf("paper.slippage_percent must be in [0, 100), got %s", c.Paper.SlippagePercent)
	}
	if c.Alerts.Interval <= 0 {
		return errors.New("alerts.interval must be positive")
	}
	for i, r := range c.Alerts.Rules {
		if !r.Threshold.IsPositive() {
			return errors.Errorf("alerts.rules[%d]: threshold must be positive", i)
		}
	}
	s := c.Strategy
	if s.ShortWindow < 1 || s.LongWindow <= s.ShortWindow {
		return errors.Errorf("strategy windows must satisfy 0 < short < long, got %d/%d", s.ShortWindow, s.LongWindow)
	}
	if s.RSIPeriod < 1 || s.BBPeriod < 2 || s.GridLevels < 1 {
		return errors.New("strategy periods and grid levels must be positive")
	}
	if s.Oversold >= s.Overbought {
		return errors.Errorf("strategy.oversold (%v) must be below strategy.overbought (%v)", s.Oversold, s.Overbought)
	}
	if !s.BBStdDev.IsPositive() || !s.GridSpacing.IsPositive() {
		return errors.New("strategy.bb_std_dev and strategy.grid_spacing must be positive")
	}
	for _, p := range c.Arbitrage.Platforms {
		if !slices.Contains(Platforms, p) {
			return errors.Errorf("unknown arbitrage platform %q", p)
		}
	}
	if c.Arbitrage.MinSpreadPercent.IsNegative() {
		return errors.New("arbitrage.min_spread_percent must not be negative")
	}
	if c.Risk.MaxTradeSizeQuote.IsNegative() {
		return errors.New("risk.max_trade_size_quote must not be negative")
	}
	if c.Mode == ModeLive && !c.Credentials.HasExchangeKeys(c.Platform) {
		return errors.Errorf("live mode on %s needs API credentials in the environment", c.Platform)
	}
	return nil
}

// Tmp converts c back to its YAML form.
func (c Config) Tmp() ConfigTmp {
	pairs := make([]string, len(c.Pairs))
	for i, p := range c.Pairs {
		pairs[i] = p.String()
	}
	rules := make([]AlertRuleTmp, len(c.Alerts.Rules))
	for i, r := range c.Alerts.Rules {
		rules[i] = AlertRuleTmp{
			Pair:      r.Pair.String(),
			Condition: string(r.Condition),
			Threshold: r.Threshold.String(),
			Message:   r.Message,
		}
	}
	s := c.Strategy
	return ConfigTmp{
		Platform: c.Platform,
		Mode:     c.Mode,
		Pairs:    pairs,
		Paper: PaperTmp{
			InitialBalance:  c.Paper.InitialBalance.String(),
			QuoteCurrency:   c.Paper.QuoteCurrency,
			FeePercent:      c.Paper.FeePercent.String(),
			SlippagePercent: c.Paper.SlippagePercent.String(),
		},
		Alerts: AlertsTmp{
			Interval:     c.Alerts.Interval.String(),
			NotifyMethod: c.Alerts.NotifyMethod,
			Rules:        rules,
		},
		Strategy: StrategyTmp{
			Name:        s.Name,
			ShortWindow: strconv.Itoa(s.ShortWindow),
			LongWindow:  strconv.Itoa(s.LongWindow),
			RSIPeriod:   strconv.Itoa(s.RSIPeriod),
			Oversold:    strconv.FormatFloat(s.Oversold, 'f', -1, 64),
			Overbought:  strconv.FormatFloat(s.Overbought, 'f', -1, 64),
			BBPeriod:    strconv.Itoa(s.BBPeriod),
			BBStdDev:    s.BBStdDev.String(),
			GridLevels:  strconv.Itoa(s.GridLevels),
			GridSpacing: s.GridSpacing.String(),
			Interval:    s.Interval.String(),
		},
		Arbitrage: ArbitrageTmp{
			Platforms:        slices.Clone(c.Arbitrage.Platforms),
			MinSpreadPercent: c.Arbitrage.MinSpreadPercent.String(),
			RequestInterval:  c.Arbitrage.RequestInterval.String(),
			Interval:         c.Arbitrage.Interval.String(),
		},
		Data: DataTmp{
			CacheDir:  c.Data.CacheDir,
			CacheTTL:  c.Data.CacheTTL.String(),
			Timeframe: c.Data.Timeframe,
		},
		Storage: StorageTmp{SnapshotDir: c.Storage.SnapshotDir, JournalPath: c.Storage.JournalPath},
		Risk:    RiskTmp{MaxTradeSizeQuote: c.Risk.MaxTradeSizeQuote.String()},
		Web: WebTmp{
			Addr:         c.Web.Addr,
			Domains:      slices.Clone(c.Web.Domains),
			CertCacheDir: c.Web.CertCacheDir,
		},
	}
}

// Save writes c as YAML to path. Credentials are never written.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c.Tmp())
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write config %s", path)
	}
	return nil
}

func setString(dst *string, raw string) {
	if raw != "" {
		*dst = raw
	}
}

func setDecimal(dst *decimal.Decimal, raw, name string) error {
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return errors.Wrapf(err, "incorrect '%s' param in yaml config (must be a decimal)", name)
	}
	*dst = d
	return nil
}

func setInt(dst *int, raw, name string) error {
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return errors.Wrapf(err, "incorrect '%s' param in yaml config (must be an integer)", name)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, raw, name string) error {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return errors.Wrapf(err, "incorrect '%s' param in yaml config (must be a number)", name)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, raw, name string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "incorrect '%s' param in yaml config (e.g. 30s, 5m)", name)
	}
	*dst = d
	return nil
}
