package internal

import (
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"

	"github.com/vadiminshakov/papertrade/config"
	"github.com/vadiminshakov/papertrade/internal/clients"
	"github.com/vadiminshakov/papertrade/internal/services/market/collector"
	"github.com/vadiminshakov/papertrade/internal/services/pricer"
	"github.com/vadiminshakov/papertrade/internal/services/trader"
	"github.com/vadiminshakov/papertrade/internal/services/venue"
)

// serviceProvider defines a factory interface for creating platform-specific services.
type serviceProvider interface {
	Pricer() venue.TickerSource
	KlineProvider() collector.KlineProvider
	Trader() (trader.Trader, error)
}

// newClient builds the SDK client for platform. Without keys the client can
// only read public market data.
func newClient(platform string, creds config.Credentials, authenticated bool) (any, error) {
	switch platform {
	case "binance":
		if authenticated {
			return clients.NewBinanceClient(creds.BinanceAPIKey, creds.BinanceAPISecret), nil
		}
		return clients.NewPublicBinanceClient(), nil
	case "bybit":
		if authenticated {
			return clients.NewBybitClient(creds.BybitAPIKey, creds.BybitAPISecret), nil
		}
		return clients.NewPublicBybitClient(), nil
	case "hyperliquid":
		if authenticated {
			return clients.NewHyperliquidClient(creds.HyperliquidPrivateKey, "")
		}
		return clients.NewPublicHyperliquidClient("")
	default:
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
}

// newServiceProvider creates a new service provider based on the client type.
// This is the single point of truth for dispatching to platform-specific implementations.
func newServiceProvider(client any) (serviceProvider, error) {
	switch c := client.(type) {
	case *binance.Client:
		return &binanceProvider{client: c}, nil
	case *bybit.Client:
		return &bybitProvider{client: c}, nil
	case *clients.HyperliquidClient:
		return &hyperliquidProvider{client: c}, nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

// providerFor builds the provider for platform, authenticated when keys are present.
func providerFor(platform string, creds config.Credentials) (serviceProvider, error) {
	client, err := newClient(platform, creds, creds.HasExchangeKeys(platform))
	if err != nil {
		return nil, err
	}
	return newServiceProvider(client)
}

type binanceProvider struct {
	client *binance.Client
}

func (p *binanceProvider) Pricer() venue.TickerSource {
	return pricer.NewBinancePricer(p.client)
}
func (p *binanceProvider) KlineProvider() collector.KlineProvider {
	return collector.NewBinanceKlineProvider(p.client)
}
func (p *binanceProvider) Trader() (trader.Trader, error) {
	return trader.NewBinanceTrader(p.client)
}

type bybitProvider struct {
	client *bybit.Client
}

func (p *bybitProvider) Pricer() venue.TickerSource {
	return pricer.NewBybitPricer(p.client)
}
func (p *bybitProvider) KlineProvider() collector.KlineProvider {
	return collector.NewBybitKlineProvider(p.client)
}
func (p *bybitProvider) Trader() (trader.Trader, error) {
	return trader.NewBybitTrader(p.client)
}

type hyperliquidProvider struct {
	client *clients.HyperliquidClient
}

func (p *hyperliquidProvider) Pricer() venue.TickerSource {
	return pricer.NewHyperliquidPricer(p.client.Exchange().Info())
}
func (p *hyperliquidProvider) KlineProvider() collector.KlineProvider {
	return collector.NewHyperliquidKlineProvider(p.client.Exchange().Info())
}
func (p *hyperliquidProvider) Trader() (trader.Trader, error) {
	return trader.NewHyperliquidTrader(p.client.Exchange(), p.client.AccountAddress())
}
