// Package setup runs the interactive configuration wizard.
package setup

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/papertrade/config"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/notifier"
	"github.com/vadiminshakov/papertrade/internal/services/strategy"
)

const wizardTitle = "PAPERTRADE CONFIG WIZARD"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#D7A100", Dark: "#FFCC33"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// Answers raw wizard input.
type Answers struct {
	Platform         string
	Mode             string
	Pairs            string
	InitialBalance   string
	QuoteCurrency    string
	FeePercent       string
	SlippagePercent  string
	NotifyMethod     string
	Strategy         string
	StrategyInterval string
}

// DefaultAnswers prefills the wizard from the built-in defaults.
func DefaultAnswers() Answers {
	d := config.Default()
	pairs := make([]string, len(d.Pairs))
	for i, p := range d.Pairs {
		pairs[i] = p.String()
	}
	return Answers{
		Platform:         d.Platform,
		Mode:             d.Mode,
		Pairs:            strings.Join(pairs, ","),
		InitialBalance:   d.Paper.InitialBalance.String(),
		QuoteCurrency:    d.Paper.QuoteCurrency,
		FeePercent:       d.Paper.FeePercent.String(),
		SlippagePercent:  d.Paper.SlippagePercent.String(),
		NotifyMethod:     d.Alerts.NotifyMethod,
		Strategy:         d.Strategy.Name,
		StrategyInterval: d.Strategy.Interval.String(),
	}
}

// Build turns answers into a config. Credentials are not checked here; live
// mode reads them from the environment at startup.
func (a Answers) Build() (config.Config, error) {
	cfg := config.Default()
	cfg.Platform = a.Platform
	cfg.Mode = a.Mode
	cfg.Paper.QuoteCurrency = strings.ToUpper(strings.TrimSpace(a.QuoteCurrency))

	cfg.Pairs = nil
	for _, s := range strings.Split(a.Pairs, ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		p, err := parsePair(s, cfg.Paper.QuoteCurrency)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Pairs = append(cfg.Pairs, p)
	}

	var err error
	if cfg.Paper.InitialBalance, err = decimal.NewFromString(a.InitialBalance); err != nil {
		return config.Config{}, errors.Wrap(err, "initial balance")
	}
	if cfg.Paper.FeePercent, err = decimal.NewFromString(a.FeePercent); err != nil {
		return config.Config{}, errors.Wrap(err, "fee percent")
	}
	if cfg.Paper.SlippagePercent, err = decimal.NewFromString(a.SlippagePercent); err != nil {
		return config.Config{}, errors.Wrap(err, "slippage percent")
	}

	cfg.Alerts.NotifyMethod = a.NotifyMethod
	if cfg.Strategy.Name, err = strategy.NormalizeName(a.Strategy); err != nil {
		return config.Config{}, err
	}
	if cfg.Strategy.Interval, err = time.ParseDuration(a.StrategyInterval); err != nil {
		return config.Config{}, errors.Wrap(err, "strategy interval")
	}

	// default alert rules only make sense for the default quote currency
	rules := cfg.Alerts.Rules[:0:0]
	for _, r := range cfg.Alerts.Rules {
		if r.Pair.To == cfg.Paper.QuoteCurrency {
			rules = append(rules, r)
		}
	}
	cfg.Alerts.Rules = rules

	check := cfg
	check.Mode = config.ModePaper
	if err := check.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// parsePair accepts "BTC" as shorthand for BTC quoted in quote.
func parsePair(s, quote string) (domain.Pair, error) {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "/_") {
		s += "/" + quote
	}
	return domain.ParsePair(s)
}

func clearScreen(step string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render(wizardTitle))
	fmt.Println(stepStyle.Render(step))
}

// RunTUI launches the terminal configuration wizard and writes the result to path.
func RunTUI(path string) (config.Config, error) {
	a := DefaultAnswers()
	var confirm bool

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render(wizardTitle))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up a paper account in a few steps.\n"))

	// platform and mode
	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Description("Market data comes from here; live orders go here too").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Hyperliquid", "hyperliquid"),
				).
				Value(&a.Platform),
			huh.NewSelect[string]().
				Title("Trading Mode").
				Options(
					huh.NewOption("Paper (simulated orders)", config.ModePaper),
					huh.NewOption("Live (real orders, needs API keys)", config.ModeLive),
				).
				Value(&a.Mode),
		),
	).Run()
	if err != nil {
		return config.Config{}, err
	}

	// pairs
	clearScreen("STEP 2: ASSETS")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Quote Currency").
				Value(&a.QuoteCurrency).
				Validate(notEmpty),
			huh.NewInput().
				Title("Trading Pairs").
				Description("Comma separated, e.g. BTC/USDT,ETH/USDT or BTC,ETH").
				Value(&a.Pairs).
				Validate(notEmpty),
		),
	).Run()
	if err != nil {
		return config.Config{}, err
	}

	// paper account
	clearScreen("STEP 3: PAPER ACCOUNT")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Initial Balance").
				Description("Starting quote balance").
				Value(&a.InitialBalance).
				Validate(validateNonNegative),
			huh.NewInput().
				Title("Fee %").
				Description("Charged on every fill (e.g. 0.1)").
				Value(&a.FeePercent).
				Validate(validatePercent),
			huh.NewInput().
				Title("Slippage %").
				Description("Applied against you on market orders (e.g. 0.05)").
				Value(&a.SlippagePercent).
				Validate(validatePercent),
		),
	).Run()
	if err != nil {
		return config.Config{}, err
	}

	// notifications and strategy
	clearScreen("STEP 4: ALERTS AND STRATEGY")
	notifyOptions := make([]huh.Option[string], 0, len(notifier.Methods()))
	for _, m := range notifier.Methods() {
		notifyOptions = append(notifyOptions, huh.NewOption(m, m))
	}
	strategyOptions := make([]huh.Option[string], 0, len(strategy.Names()))
	for _, s := range strategy.Names() {
		strategyOptions = append(strategyOptions, huh.NewOption(s, s))
	}
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Alert Delivery").
				Description("Credentials are read from the environment").
				Options(notifyOptions...).
				Value(&a.NotifyMethod),
			huh.NewSelect[string]().
				Title("Default Strategy").
				Options(strategyOptions...).
				Value(&a.Strategy),
			huh.NewInput().
				Title("Strategy Interval").
				Description("Duration string (e.g. 15m, 1h)").
				Value(&a.StrategyInterval).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
		),
	).Run()
	if err != nil {
		return config.Config{}, err
	}

	cfg, err := a.Build()
	if err != nil {
		return config.Config{}, err
	}

	clearScreen("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Platform: %s\nMode: %s\nPairs: %s\nBalance: %s %s\nFee: %s%%  Slippage: %s%%\nAlerts: %s\nStrategy: %s every %s\n",
		cfg.Platform, cfg.Mode, a.Pairs, cfg.Paper.InitialBalance, cfg.Paper.QuoteCurrency,
		cfg.Paper.FeePercent, cfg.Paper.SlippagePercent, cfg.Alerts.NotifyMethod, cfg.Strategy.Name, cfg.Strategy.Interval,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))
	if cfg.Mode == config.ModeLive && !config.CredentialsFromEnv().HasExchangeKeys(cfg.Platform) {
		fmt.Println(lipgloss.NewStyle().Foreground(warning).Render(
			fmt.Sprintf("No %s API keys in the environment; live mode will refuse to start without them.", cfg.Platform)))
	}

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return config.Config{}, err
	}
	if !confirm {
		return config.Config{}, errors.New("setup cancelled by user")
	}

	if err := cfg.Save(path); err != nil {
		return config.Config{}, err
	}
	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	return cfg, nil
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value cannot be empty")
	}
	return nil
}

func validateNonNegative(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return errors.New("must be a valid number")
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

func validatePercent(s string) error {
	if err := validateNonNegative(s); err != nil {
		return err
	}
	if decimal.RequireFromString(s).GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return errors.New("must be below 100")
	}
	return nil
}
