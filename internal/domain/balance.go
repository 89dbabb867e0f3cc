package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AssetBalance holdings of one currency. Total is always Free + Used.
type AssetBalance struct {
	Free  decimal.Decimal `json:"free"`
	Used  decimal.Decimal `json:"used"`
	Total decimal.Decimal `json:"total"`
}

// NewAssetBalance returns a balance with nothing reserved.
func NewAssetBalance(free decimal.Decimal) AssetBalance {
	return AssetBalance{Free: free, Used: decimal.Zero, Total: free}
}

// Balances ledger keyed by currency code.
type Balances map[string]AssetBalance

// Free returns the free amount of currency, zero when absent.
func (b Balances) Free(currency string) decimal.Decimal {
	return b[currency].Free
}

// Currencies returns the ledger keys in sorted order.
func (b Balances) Currencies() []string {
	out := make([]string, 0, len(b))
	for c := range b {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Clone returns a copy safe to hand out.
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
