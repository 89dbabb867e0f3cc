package setup

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/papertrade/config"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

func TestDefaultAnswersBuildDefaults(t *testing.T) {
	cfg, err := DefaultAnswers().Build()
	require.NoError(t, err)

	def := config.Default()
	assert.Equal(t, def.Pairs, cfg.Pairs)
	assert.True(t, def.Paper.InitialBalance.Equal(cfg.Paper.InitialBalance))
	assert.Equal(t, def.Strategy.Name, cfg.Strategy.Name)
	assert.Len(t, cfg.Alerts.Rules, len(def.Alerts.Rules))
}

func TestAnswersBuild(t *testing.T) {
	a := DefaultAnswers()
	a.Platform = "bybit"
	a.Mode = config.ModeLive
	a.QuoteCurrency = "usdc"
	a.Pairs = "btc, ETH/USDC,"
	a.InitialBalance = "2500"
	a.FeePercent = "0.075"
	a.Strategy = "bb"
	a.StrategyInterval = "15m"

	cfg, err := a.Build()
	require.NoError(t, err)

	assert.Equal(t, "bybit", cfg.Platform)
	assert.Equal(t, config.ModeLive, cfg.Mode, "credentials are checked at startup, not here")
	assert.Equal(t, []domain.Pair{{From: "BTC", To: "USDC"}, {From: "ETH", To: "USDC"}}, cfg.Pairs)
	assert.True(t, cfg.Paper.FeeRate().Equal(decimal.RequireFromString("0.00075")))
	assert.Equal(t, "bollinger", cfg.Strategy.Name)
	assert.Equal(t, 15*time.Minute, cfg.Strategy.Interval)
	assert.Empty(t, cfg.Alerts.Rules, "USDT rules dropped for a USDC account")
}

func TestAnswersBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Answers)
	}{
		{"bad balance", func(a *Answers) { a.InitialBalance = "lots" }},
		{"bad strategy", func(a *Answers) { a.Strategy = "martingale" }},
		{"bad interval", func(a *Answers) { a.StrategyInterval = "soon" }},
		{"foreign quote", func(a *Answers) { a.Pairs = "BTC/EUR" }},
		{"no pairs", func(a *Answers) { a.Pairs = " , " }},
		{"fee too high", func(a *Answers) { a.FeePercent = "100" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := DefaultAnswers()
			tt.modify(&a)
			_, err := a.Build()
			assert.Error(t, err)
		})
	}
}

func TestBuiltConfigLoads(t *testing.T) {
	a := DefaultAnswers()
	a.Pairs = "SOL"
	cfg, err := a.Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Pair{{From: "SOL", To: "USDT"}}, loaded.Pairs)
}

func TestValidators(t *testing.T) {
	assert.Error(t, notEmpty("  "))
	assert.NoError(t, validateNonNegative("0"))
	assert.Error(t, validateNonNegative("-1"))
	assert.Error(t, validatePercent("150"))
	assert.NoError(t, validatePercent("0.1"))
}
