package trader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// marketSlippage bounds the IOC limit used to emulate a market order.
const marketSlippage = 0.005

// HyperliquidTrader places orders on Hyperliquid. Market orders are sent as
// IOC limits at a slippage-adjusted price.
type HyperliquidTrader struct {
	ex          *hyperliquid.Exchange
	info        *hyperliquid.Info
	accountAddr string
}

func NewHyperliquidTrader(ex *hyperliquid.Exchange, accountAddr string) (*HyperliquidTrader, error) {
	if ex == nil {
		return nil, errors.New("hyperliquid exchange is nil")
	}
	return &HyperliquidTrader{ex: ex, info: ex.Info(), accountAddr: accountAddr}, nil
}

// cloidFromID converts a free-form client ID into a Hyperliquid cloid (0x + 32 hex chars).
func cloidFromID(id string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(id)))
	return "0x" + hex.EncodeToString(sum[:16])
}

func (t *HyperliquidTrader) PlaceOrder(ctx context.Context, req domain.OrderRequest, clientOrderID string) (Fill, error) {
	isBuy := req.Side == domain.SideBuy
	size := req.Amount.Round(8).InexactFloat64()

	var (
		px  float64
		tif = hyperliquid.TifIoc
		err error
	)
	if req.Type == domain.OrderTypeLimit {
		px = req.Price.InexactFloat64()
		tif = hyperliquid.TifGtc
	} else {
		px, err = t.ex.SlippagePrice(ctx, req.Pair.From, isBuy, marketSlippage, nil)
		if err != nil {
			return Fill{}, errors.Wrap(err, "slippage price")
		}
	}

	cloid := cloidFromID(clientOrderID)
	order := hyperliquid.CreateOrderRequest{
		Coin:          req.Pair.From,
		IsBuy:         isBuy,
		Price:         px,
		Size:          size,
		ClientOrderID: &cloid,
		OrderType: hyperliquid.OrderType{
			Limit: &hyperliquid.LimitOrderType{Tif: tif},
		},
	}
	if _, err := t.ex.Order(ctx, order, nil); err != nil {
		return Fill{}, errors.Wrapf(err, "failed to place hyperliquid %s %s order", req.Type, req.Side)
	}

	return Fill{ExternalID: cloid, Amount: req.Amount, Price: decimal.NewFromFloat(px)}, nil
}

func (t *HyperliquidTrader) GetBalance(ctx context.Context) (domain.Balances, error) {
	st, err := t.info.SpotUserState(ctx, t.accountAddr)
	if err != nil {
		return nil, errors.Wrap(err, "get spot user state")
	}

	out := make(domain.Balances)
	for _, b := range st.Balances {
		bal, err := parseBalance(b.Total, "")
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s balance", b.Coin)
		}
		if bal.Total.IsZero() {
			continue
		}
		out[strings.ToUpper(b.Coin)] = bal
	}
	return out, nil
}
