// Package clients builds exchange SDK clients from credentials.
package clients

import (
	"github.com/adshao/go-binance/v2"
)

// NewBinanceClient creates an authenticated Binance spot client.
func NewBinanceClient(apiKey, apiSecret string) *binance.Client {
	client := binance.NewClient(apiKey, apiSecret)
	return client
}

// NewPublicBinanceClient creates a client without API keys for public market data only.
func NewPublicBinanceClient() *binance.Client {
	return binance.NewClient("", "")
}
