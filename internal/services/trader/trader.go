// Package trader places spot orders on real exchange accounts.
package trader

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// Trader submits spot orders and reads the account balance.
type Trader interface {
	PlaceOrder(ctx context.Context, req domain.OrderRequest, clientOrderID string) (Fill, error)
	GetBalance(ctx context.Context) (domain.Balances, error)
}

// Fill what the exchange reported for a placed order. Price and Fee are zero
// when the exchange does not report them synchronously.
type Fill struct {
	ExternalID string
	Price      decimal.Decimal
	Amount     decimal.Decimal
	Fee        decimal.Decimal
}

// NewClientOrderID returns a unique id for idempotent order submission.
func NewClientOrderID() string {
	return "pt-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:28]
}

func parseBalance(free, locked string) (domain.AssetBalance, error) {
	f, err := parseOptionalDecimal(free)
	if err != nil {
		return domain.AssetBalance{}, errors.Wrap(err, "free")
	}
	l, err := parseOptionalDecimal(locked)
	if err != nil {
		return domain.AssetBalance{}, errors.Wrap(err, "locked")
	}
	return domain.AssetBalance{Free: f, Used: l, Total: f.Add(l)}, nil
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
