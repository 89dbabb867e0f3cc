// Command papertrade runs the crypto paper-trading simulator.
//
// Usage:
//
//	papertrade                      interactive menu
//	papertrade strategy rsi         run a strategy on the configured pairs
//	papertrade monitor              poll the configured price alerts
//	papertrade dashboard            serve the web dashboard
//
// Exchange and notification credentials are read from the environment
// (or a .env file): BINANCE_API_KEY, BINANCE_API_SECRET, BYBIT_API_KEY,
// BYBIT_API_SECRET, HYPERLIQUID_PRIVATE_KEY, TELEGRAM_BOT_TOKEN,
// TELEGRAM_CHAT_ID, EMAIL_SENDER, EMAIL_PASSWORD, EMAIL_RECIPIENT,
// DISCORD_WEBHOOK_URL.
package main

import (
	"os"

	"github.com/vadiminshakov/papertrade/cmd/papertrade/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
