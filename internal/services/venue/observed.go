package venue

import (
	"context"

	"github.com/vadiminshakov/papertrade/internal/domain"
)

// TradeObserver is told about every filled order.
type TradeObserver func(ctx context.Context, kind Kind, trade domain.TradeRecord)

type observed struct {
	TradingVenue
	observers []TradeObserver
}

// WithObservers wraps v so each successful CreateOrder is passed to observers.
func WithObservers(v TradingVenue, observers ...TradeObserver) TradingVenue {
	if len(observers) == 0 {
		return v
	}
	return &observed{TradingVenue: v, observers: observers}
}

func (o *observed) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.TradeRecord, error) {
	trade, err := o.TradingVenue.CreateOrder(ctx, req)
	if err != nil {
		return trade, err
	}
	for _, fn := range o.observers {
		fn(ctx, o.Kind(), trade)
	}
	return trade, nil
}
