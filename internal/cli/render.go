// Package cli renders bot state for the terminal and drives the interactive menu.
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/arbitrage"
	"github.com/vadiminshakov/papertrade/internal/services/market/indicators"
	"github.com/vadiminshakov/papertrade/internal/services/notifier"
	"github.com/vadiminshakov/papertrade/internal/services/strategy"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	gainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	lossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func signed(d decimal.Decimal, places int32, suffix string) string {
	s := d.StringFixed(places) + suffix
	switch {
	case d.IsPositive():
		return gainStyle.Render("+" + s)
	case d.IsNegative():
		return lossStyle.Render(s)
	default:
		return s
	}
}

// Portfolio renders balances, per-asset valuations and P&L.
func Portfolio(v domain.PortfolioValue) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("PORTFOLIO") + "\n")
	fmt.Fprintf(&b, "%-8s %16s\n", v.QuoteCurrency, v.QuoteFree.StringFixed(2))
	for _, a := range v.Assets {
		if !a.Priced {
			fmt.Fprintf(&b, "%-8s %16s  %s\n", a.Currency, a.Amount.String(), mutedStyle.Render("price unavailable"))
			continue
		}
		fmt.Fprintf(&b, "%-8s %16s  @ %s = %s %s\n",
			a.Currency, a.Amount.String(), a.Price.StringFixed(2), a.Value.StringFixed(2), v.QuoteCurrency)
	}
	fmt.Fprintf(&b, "\nTotal:   %s %s\n", v.TotalValue.StringFixed(2), v.QuoteCurrency)
	fmt.Fprintf(&b, "Initial: %s %s\n", v.InitialBalance.StringFixed(2), v.QuoteCurrency)
	fmt.Fprintf(&b, "P&L:     %s (%s)\n", signed(v.ProfitLoss, 2, " "+v.QuoteCurrency), signed(v.ProfitLossPercent, 2, "%"))
	fmt.Fprintf(&b, "Trades:  %d", v.TradesCount)
	if !v.Complete() {
		b.WriteString("\n" + mutedStyle.Render("some assets could not be priced; total is understated"))
	}
	return boxStyle.Render(b.String())
}

// Performance renders metrics, or a hint when there is too little history.
func Performance(m domain.PerformanceMetrics, ok bool) string {
	if !ok {
		return mutedStyle.Render("Not enough snapshots for performance metrics yet.")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("PERFORMANCE") + "\n")
	fmt.Fprintf(&b, "Total return:  %s\n", signed(decimal.NewFromFloat(m.TotalReturnPct), 2, "%"))
	fmt.Fprintf(&b, "Hourly return: %.4f%%\n", m.HourlyReturnPct)
	fmt.Fprintf(&b, "Drawdown:      %.2f%%\n", m.DrawdownPct)
	fmt.Fprintf(&b, "Volatility:    %.2f%%\n", m.VolatilityPct)
	fmt.Fprintf(&b, "Sharpe:        %.2f\n", m.SharpeRatio)
	fmt.Fprintf(&b, "Peak value:    %.2f\n", m.PeakValue)
	fmt.Fprintf(&b, "Hours traded:  %.1f", m.TradingHours)
	return boxStyle.Render(b.String())
}

// Trades renders a trade table, oldest first.
func Trades(trades []domain.TradeRecord) string {
	if len(trades) == 0 {
		return mutedStyle.Render("No trades yet.")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("TRADE HISTORY") + "\n")
	fmt.Fprintf(&b, "%4s  %-19s  %-10s  %-6s  %-4s  %14s  %14s  %10s\n",
		"ID", "TIME", "PAIR", "TYPE", "SIDE", "AMOUNT", "PRICE", "FEE")
	for _, t := range trades {
		fmt.Fprintf(&b, "%4d  %-19s  %-10s  %-6s  %-4s  %14s  %14s  %10s\n",
			t.ID, t.Timestamp.Local().Format("2006-01-02 15:04:05"), t.Pair, t.Type, t.Side,
			t.Amount.String(), t.Price.StringFixed(2), t.Fee.StringFixed(4))
	}
	return b.String()
}

// Alerts renders the rule list.
func Alerts(rules []domain.AlertRule) string {
	if len(rules) == 0 {
		return mutedStyle.Render("No alerts.")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("ALERTS") + "\n")
	for _, r := range rules {
		state := gainStyle.Render("active")
		if !r.Active {
			state = mutedStyle.Render("fired")
		}
		last := "-"
		if r.LastValue != nil {
			last = r.LastValue.StringFixed(2)
		}
		fmt.Fprintf(&b, "#%-3d %-28s last %-12s %s", r.ID, r.Describe(), last, state)
		if r.Message != "" {
			b.WriteString("  " + mutedStyle.Render(r.Message))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Report renders a strategy run.
func Report(r strategy.ExecutionReport) string {
	var b strings.Builder
	b.WriteString(r.String())
	for _, t := range r.Trades {
		fmt.Fprintf(&b, "\n  %s %s %s @ %s", gainStyle.Render("filled"), t.Side, t.Amount.String(), t.Price.StringFixed(2))
	}
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "\n  %s %s: %v", lossStyle.Render("rejected"), f.Reason, f.Err)
	}
	return b.String()
}

// Opportunities renders scan results grouped by pair.
func Opportunities(found map[domain.Pair][]arbitrage.Opportunity) string {
	pairs := make([]domain.Pair, 0, len(found))
	total := 0
	for p, opps := range found {
		pairs = append(pairs, p)
		total += len(opps)
	}
	if total == 0 {
		return mutedStyle.Render("No arbitrage opportunities above the threshold.")
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })

	var b strings.Builder
	b.WriteString(titleStyle.Render("ARBITRAGE") + "\n")
	for _, p := range pairs {
		for _, o := range found[p] {
			b.WriteString(o.String() + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func nullable(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(places)
}

// IndicatorTail renders the last n rows of an indicator report.
func IndicatorTail(pair domain.Pair, rows []indicators.Row, n int) string {
	if len(rows) == 0 {
		return mutedStyle.Render("No candles for " + pair.String())
	}
	if len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("LATEST DATA "+pair.String()) + "\n")
	fmt.Fprintf(&b, "%-16s  %12s  %12s  %12s  %6s  %10s  %12s  %12s\n",
		"TIME", "CLOSE", "MA7", "MA25", "RSI", "MACD", "BB UPPER", "BB LOWER")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-16s  %12s  %12s  %12s  %6s  %10s  %12s  %12s\n",
			r.Candle.OpenTime.Local().Format("2006-01-02 15:04"), r.Candle.Close.StringFixed(2),
			nullable(r.MA7, 2), nullable(r.MA25, 2), nullable(r.RSI14, 1), nullable(r.MACD, 2),
			nullable(r.BBUpper, 2), nullable(r.BBLower, 2))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Notifications renders recent deliveries.
func Notifications(records []notifier.Record) string {
	if len(records) == 0 {
		return mutedStyle.Render("No notifications sent.")
	}
	var b strings.Builder
	for _, r := range records {
		status := gainStyle.Render("sent")
		if r.Err != "" {
			status = lossStyle.Render("failed: " + r.Err)
		}
		fmt.Fprintf(&b, "%s  %-8s %s  %s\n", r.Timestamp.Local().Format("15:04:05"), r.Method, r.Message, status)
	}
	return strings.TrimRight(b.String(), "\n")
}
