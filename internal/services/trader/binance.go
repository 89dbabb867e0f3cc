package trader

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// BinanceTrader places spot orders on Binance.
type BinanceTrader struct {
	client *binance.Client
}

func NewBinanceTrader(client *binance.Client) (*BinanceTrader, error) {
	if client == nil {
		return nil, errors.New("binance client is nil")
	}
	return &BinanceTrader{client: client}, nil
}

func (t *BinanceTrader) PlaceOrder(ctx context.Context, req domain.OrderRequest, clientOrderID string) (Fill, error) {
	amount := req.Amount.RoundFloor(6)

	svc := t.client.NewCreateOrderService().
		Symbol(req.Pair.Symbol()).
		Side(binanceSide(req.Side)).
		Quantity(amount.String()).
		NewClientOrderID(clientOrderID)

	if req.Type == domain.OrderTypeLimit {
		svc = svc.Type(binance.OrderTypeLimit).
			TimeInForce(binance.TimeInForceTypeGTC).
			Price(req.Price.String())
	} else {
		svc = svc.Type(binance.OrderTypeMarket)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return Fill{}, errors.Wrapf(err, "failed to create binance %s %s order", req.Type, req.Side)
	}

	fill := Fill{ExternalID: clientOrderID, Amount: amount}
	if res == nil {
		return fill, nil
	}

	notional := decimal.Zero
	filled := decimal.Zero
	for _, f := range res.Fills {
		price, err := decimal.NewFromString(f.Price)
		if err != nil {
			return fill, errors.Wrap(err, "failed to parse fill price")
		}
		qty, err := decimal.NewFromString(f.Quantity)
		if err != nil {
			return fill, errors.Wrap(err, "failed to parse fill quantity")
		}
		commission, err := parseOptionalDecimal(f.Commission)
		if err != nil {
			return fill, errors.Wrap(err, "failed to parse commission")
		}
		notional = notional.Add(price.Mul(qty))
		filled = filled.Add(qty)
		fill.Fee = fill.Fee.Add(commission)
	}
	if filled.IsPositive() {
		fill.Amount = filled
		fill.Price = notional.Div(filled)
	}
	return fill, nil
}

func (t *BinanceTrader) GetBalance(ctx context.Context) (domain.Balances, error) {
	account, err := t.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get binance account balance")
	}

	out := make(domain.Balances)
	for _, b := range account.Balances {
		bal, err := parseBalance(b.Free, b.Locked)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s balance", b.Asset)
		}
		if bal.Total.IsZero() {
			continue
		}
		out[b.Asset] = bal
	}
	return out, nil
}

func binanceSide(s domain.Side) binance.SideType {
	if s == domain.SideSell {
		return binance.SideTypeSell
	}
	return binance.SideTypeBuy
}
