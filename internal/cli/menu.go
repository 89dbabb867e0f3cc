package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/papertrade/internal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/arbitrage"
	"github.com/vadiminshakov/papertrade/internal/services/strategy"
)

const (
	historyLimit   = 20
	collectLimit   = 100
	indicatorRows  = 5
	menuPortfolio  = "portfolio"
	menuTrade      = "trade"
	menuAlerts     = "alerts"
	menuArbitrage  = "arbitrage"
	menuCollect    = "collect"
	menuStrategy   = "strategy"
	menuHistory    = "history"
	menuExit       = "exit"
	confirmLiveAns = "YES"
)

// LiveConfirmed reports whether answer is the exact live-trading confirmation.
func LiveConfirmed(answer string) bool {
	return strings.TrimSpace(answer) == confirmLiveAns
}

// ConfirmLive asks the user to type YES before real orders are enabled.
func ConfirmLive(platform string) (bool, error) {
	var answer string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("LIVE TRADING on %s: orders will use real funds", platform)).
				Description(`Type "YES" to continue, anything else falls back to paper trading`).
				Value(&answer),
		),
	).Run()
	if err != nil {
		return false, err
	}
	return LiveConfirmed(answer), nil
}

// Menu interactive loop over one bot.
type Menu struct {
	bot    *internal.Bot
	out    io.Writer
	logger *zap.Logger
}

// NewMenu creates a menu writing to out, stdout when nil.
func NewMenu(bot *internal.Bot, out io.Writer, logger *zap.Logger) *Menu {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Menu{bot: bot, out: out, logger: logger}
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}

func (m *Menu) fail(err error) {
	m.println(lossStyle.Render("Error: " + err.Error()))
}

// Run shows the main menu until the user exits or ctx is done.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		var choice string
		err := huh.NewSelect[string]().
			Title(fmt.Sprintf("MAIN MENU (%s, %s)", m.bot.Config().Platform, m.bot.Kind())).
			Options(
				huh.NewOption("Show portfolio", menuPortfolio),
				huh.NewOption("Trade", menuTrade),
				huh.NewOption("Manage alerts", menuAlerts),
				huh.NewOption("Scan arbitrage", menuArbitrage),
				huh.NewOption("Collect data", menuCollect),
				huh.NewOption("Run strategy", menuStrategy),
				huh.NewOption("Trade history", menuHistory),
				huh.NewOption("Exit", menuExit),
			).
			Value(&choice).
			Run()
		if errors.Is(err, huh.ErrUserAborted) || choice == menuExit {
			m.println(gainStyle.Render("Goodbye!"))
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case menuPortfolio:
			m.showPortfolio(ctx)
		case menuTrade:
			m.trade(ctx)
		case menuAlerts:
			m.alerts(ctx)
		case menuArbitrage:
			m.arbitrage(ctx)
		case menuCollect:
			m.collect(ctx)
		case menuStrategy:
			m.strategy(ctx)
		case menuHistory:
			m.println(Trades(m.bot.TradeHistory(historyLimit)))
		}
	}
}

func (m *Menu) showPortfolio(ctx context.Context) {
	m.println(Portfolio(m.bot.PortfolioValue(ctx)))
	m.println(Performance(m.bot.Performance()))

	var export bool
	if err := huh.NewConfirm().Title("Export snapshot history to CSV?").Value(&export).Run(); err != nil || !export {
		return
	}
	path := fmt.Sprintf("portfolio_history_%s.csv", time.Now().Format("20060102_150405"))
	if err := m.bot.ExportHistory(path); err != nil {
		m.fail(err)
		return
	}
	m.println(gainStyle.Render("History exported to " + path))
}

// askPair prompts for a pair; a bare base currency gets the account quote.
func (m *Menu) askPair(title string) (domain.Pair, error) {
	var raw string
	quote := m.bot.Config().Paper.QuoteCurrency
	err := huh.NewInput().
		Title(title).
		Description("e.g. BTC/" + quote + " or BTC").
		Value(&raw).
		Validate(func(s string) error {
			_, err := ParsePair(s, quote)
			return err
		}).
		Run()
	if err != nil {
		return domain.Pair{}, err
	}
	return ParsePair(raw, quote)
}

// ParsePair accepts "BTC" as shorthand for BTC quoted in quote.
func ParsePair(s, quote string) (domain.Pair, error) {
	s = strings.TrimSpace(s)
	if s != "" && !strings.ContainsAny(s, "/_") {
		s += "/" + quote
	}
	return domain.ParsePair(s)
}

func positiveDecimal(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a number")
	}
	if !d.IsPositive() {
		return errors.New("must be positive")
	}
	return nil
}

func (m *Menu) trade(ctx context.Context) {
	pair, err := m.askPair("Pair")
	if err != nil {
		return
	}
	if t, err := m.bot.Ticker(ctx, pair); err == nil {
		m.println(mutedStyle.Render(fmt.Sprintf("%s last %s bid %s ask %s", pair, t.Last, t.Bid, t.Ask)))
	}

	var (
		side      string
		orderType = string(domain.OrderTypeMarket)
		amountRaw string
		priceRaw  string
	)
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Side").
				Options(huh.NewOption("Buy", string(domain.SideBuy)), huh.NewOption("Sell", string(domain.SideSell))).
				Value(&side),
			huh.NewSelect[string]().
				Title("Order type").
				Options(huh.NewOption("Market", string(domain.OrderTypeMarket)), huh.NewOption("Limit", string(domain.OrderTypeLimit))).
				Value(&orderType),
			huh.NewInput().
				Title("Amount").
				Description("In " + pair.From).
				Value(&amountRaw).
				Validate(positiveDecimal),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Limit price").
				Value(&priceRaw).
				Validate(positiveDecimal),
		).WithHideFunc(func() bool { return orderType != string(domain.OrderTypeLimit) }),
	).Run()
	if err != nil {
		return
	}

	amount := decimal.RequireFromString(strings.TrimSpace(amountRaw))
	req := domain.MarketOrder(pair, domain.Side(side), amount)
	if orderType == string(domain.OrderTypeLimit) {
		req = domain.LimitOrder(pair, domain.Side(side), amount, decimal.RequireFromString(strings.TrimSpace(priceRaw)))
	}

	trade, err := m.bot.CreateOrder(ctx, req)
	if err != nil {
		m.fail(err)
		return
	}
	m.println(gainStyle.Render(fmt.Sprintf("Order #%d filled: %s %s %s @ %s, fee %s",
		trade.ID, trade.Side, trade.Amount, trade.Pair, trade.Price.StringFixed(2), trade.Fee.StringFixed(4))))
}

func (m *Menu) alerts(ctx context.Context) {
	for {
		var choice string
		status := "stopped"
		if m.bot.Monitoring() {
			status = "running"
		}
		err := huh.NewSelect[string]().
			Title("ALERTS (monitoring " + status + ")").
			Options(
				huh.NewOption("Add alert", "add"),
				huh.NewOption("List alerts", "list"),
				huh.NewOption("Remove alert", "remove"),
				huh.NewOption("Start monitoring", "start"),
				huh.NewOption("Stop monitoring", "stop"),
				huh.NewOption("Notification history", "notifications"),
				huh.NewOption("Back", "back"),
			).
			Value(&choice).
			Run()
		if err != nil || choice == "back" {
			return
		}

		switch choice {
		case "add":
			m.addAlert()
		case "list":
			m.println(Alerts(m.bot.ListAlerts()))
		case "remove":
			m.removeAlert()
		case "start":
			if err := m.bot.StartMonitoring(0); err != nil {
				m.fail(err)
				continue
			}
			m.println(gainStyle.Render(fmt.Sprintf("Monitoring every %s", m.bot.Config().Alerts.Interval)))
		case "stop":
			m.bot.StopMonitoring()
			m.println("Monitoring stopped")
		case "notifications":
			m.println(Notifications(m.bot.Notifications(historyLimit)))
		}
	}
}

func (m *Menu) addAlert() {
	pair, err := m.askPair("Pair")
	if err != nil {
		return
	}
	var (
		cond         string
		thresholdRaw string
		message      string
	)
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Condition").
				Options(
					huh.NewOption("Price above", string(domain.AlertAbove)),
					huh.NewOption("Price below", string(domain.AlertBelow)),
				).
				Value(&cond),
			huh.NewInput().
				Title("Threshold").
				Value(&thresholdRaw).
				Validate(positiveDecimal),
			huh.NewInput().
				Title("Message").
				Description("Leave empty for an automatic one").
				Value(&message),
		),
	).Run()
	if err != nil {
		return
	}

	threshold := decimal.RequireFromString(strings.TrimSpace(thresholdRaw))
	if message == "" {
		message = fmt.Sprintf("%s %s %s", pair, cond, threshold)
	}
	id, err := m.bot.AddAlert(pair, domain.AlertCondition(cond), threshold, message)
	if err != nil {
		m.fail(err)
		return
	}
	m.println(gainStyle.Render(fmt.Sprintf("Alert #%d added", id)))
}

func (m *Menu) removeAlert() {
	var raw string
	err := huh.NewInput().
		Title("Alert ID").
		Value(&raw).
		Validate(func(s string) error {
			_, err := strconv.Atoi(strings.TrimSpace(s))
			return err
		}).
		Run()
	if err != nil {
		return
	}
	id, _ := strconv.Atoi(strings.TrimSpace(raw))
	if !m.bot.RemoveAlert(id) {
		m.fail(errors.Errorf("alert #%d not found", id))
		return
	}
	m.println(fmt.Sprintf("Alert #%d removed", id))
}

// untilInterrupt returns a context cancelled by ctx or Ctrl+C.
func untilInterrupt(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

func (m *Menu) arbitrage(ctx context.Context) {
	var mode string
	err := huh.NewSelect[string]().
		Title("ARBITRAGE").
		Options(
			huh.NewOption("Quick scan", "once"),
			huh.NewOption("Continuous watch (Ctrl+C to stop)", "watch"),
			huh.NewOption("Back", "back"),
		).
		Value(&mode).
		Run()
	if err != nil || mode == "back" {
		return
	}

	scanner, err := internal.NewArbitrageScanner(m.bot.Config(), m.logger)
	if err != nil {
		m.fail(err)
		return
	}
	pairs := m.bot.Config().Pairs

	if mode == "once" {
		found, err := scanner.ScanAll(ctx, pairs)
		if err != nil {
			m.fail(err)
			return
		}
		m.println(Opportunities(found))
		return
	}

	watchCtx, stop := untilInterrupt(ctx)
	defer stop()
	err = scanner.Watch(watchCtx, pairs, m.bot.Config().Arbitrage.Interval, func(found map[domain.Pair][]arbitrage.Opportunity) {
		m.println(mutedStyle.Render(time.Now().Format("15:04:05")))
		m.println(Opportunities(found))
	})
	if err != nil {
		m.fail(err)
	}
}

func (m *Menu) collect(ctx context.Context) {
	pair, err := m.askPair("Pair")
	if err != nil {
		return
	}
	rows, err := m.bot.Indicators(ctx, pair, collectLimit, true)
	if err != nil {
		m.fail(err)
		return
	}
	m.println(IndicatorTail(pair, rows, indicatorRows))

	var save bool
	if err := huh.NewConfirm().Title("Save to CSV?").Value(&save).Run(); err != nil || !save {
		return
	}
	path, err := m.bot.ExportIndicators(ctx, pair, collectLimit)
	if err != nil {
		m.fail(err)
		return
	}
	m.println(gainStyle.Render("Saved to " + path))
}

func (m *Menu) strategy(ctx context.Context) {
	var name string
	options := make([]huh.Option[string], 0, len(strategy.Names())+1)
	for _, n := range strategy.Names() {
		options = append(options, huh.NewOption(n, n))
	}
	options = append(options, huh.NewOption("Back", "back"))
	err := huh.NewSelect[string]().
		Title("STRATEGY").
		Options(options...).
		Value(&name).
		Run()
	if err != nil || name == "back" {
		return
	}

	pair, err := m.askPair("Pair")
	if err != nil {
		return
	}
	var amountRaw string
	err = huh.NewInput().
		Title("Amount").
		Description("Leave empty to size from the balance").
		Value(&amountRaw).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return nil
			}
			return positiveDecimal(s)
		}).
		Run()
	if err != nil {
		return
	}

	var amount *decimal.Decimal
	if s := strings.TrimSpace(amountRaw); s != "" {
		d := decimal.RequireFromString(s)
		amount = &d
	}
	report, err := m.bot.ExecuteStrategy(ctx, name, pair, amount)
	if err != nil {
		m.fail(err)
		return
	}
	m.println(Report(report))
}
