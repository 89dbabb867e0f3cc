package trader

import (
	"context"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// BybitTrader places spot orders on a Bybit unified account.
type BybitTrader struct {
	client *bybit.Client
}

func NewBybitTrader(client *bybit.Client) (*BybitTrader, error) {
	if client == nil {
		return nil, errors.New("bybit client is nil")
	}
	return &BybitTrader{client: client}, nil
}

func (t *BybitTrader) PlaceOrder(ctx context.Context, req domain.OrderRequest, clientOrderID string) (Fill, error) {
	if err := ctx.Err(); err != nil {
		return Fill{}, err
	}

	amount := req.Amount.RoundFloor(6)
	param := bybit.V5CreateOrderParam{
		Category:    bybit.CategoryV5Spot,
		Symbol:      bybit.SymbolV5(req.Pair.Symbol()),
		Side:        bybitSide(req.Side),
		OrderType:   bybit.OrderTypeMarket,
		Qty:         amount.String(),
		OrderLinkID: &clientOrderID,
	}
	if req.Type == domain.OrderTypeLimit {
		price := req.Price.String()
		param.OrderType = bybit.OrderTypeLimit
		param.Price = &price
	}

	res, err := t.client.V5().Order().CreateOrder(param)
	if err != nil {
		return Fill{}, errors.Wrapf(err, "failed to create bybit %s %s order", req.Type, req.Side)
	}

	fill := Fill{ExternalID: clientOrderID, Amount: amount}
	if res != nil && res.Result.OrderID != "" {
		fill.ExternalID = res.Result.OrderID
	}
	return fill, nil
}

func (t *BybitTrader) GetBalance(context.Context) (domain.Balances, error) {
	res, err := t.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5("UNIFIED"), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bybit wallet balance")
	}

	out := make(domain.Balances)
	if res == nil || len(res.Result.List) == 0 {
		return out, nil
	}
	for _, coin := range res.Result.List[0].Coin {
		bal, err := parseBalance(coin.WalletBalance, "")
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s balance", coin.Coin)
		}
		if bal.Total.IsZero() {
			continue
		}
		out[string(coin.Coin)] = bal
	}
	return out, nil
}

func bybitSide(s domain.Side) bybit.Side {
	if s == domain.SideSell {
		return bybit.SideSell
	}
	return bybit.SideBuy
}
