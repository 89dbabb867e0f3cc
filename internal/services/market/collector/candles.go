package collector

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// ohlcv holds the string-encoded prices every exchange SDK returns.
type ohlcv struct {
	open, high, low, close, volume string
}

func (r ohlcv) candle(openTime, closeTime time.Time) (domain.MarketCandle, error) {
	fields := [...]struct {
		name string
		raw  string
	}{
		{"open", r.open}, {"high", r.high}, {"low", r.low}, {"close", r.close}, {"volume", r.volume},
	}
	var parsed [len(fields)]decimal.Decimal
	for i, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return domain.MarketCandle{}, errors.Wrapf(err, "parse %s %q", f.name, f.raw)
		}
		parsed[i] = d
	}

	return domain.MarketCandle{
		OpenTime:  openTime,
		Open:      parsed[0],
		High:      parsed[1],
		Low:       parsed[2],
		Close:     parsed[3],
		Volume:    parsed[4],
		CloseTime: closeTime,
	}, nil
}

// splitInterval parses "15m", "4h", "1d" or "1w" into its count and unit.
func splitInterval(interval string) (int, byte, error) {
	if len(interval) < 2 {
		return 0, 0, errors.Errorf("invalid interval %q", interval)
	}
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, 0, errors.Errorf("invalid interval count in %q", interval)
	}
	unit := interval[len(interval)-1]
	switch unit {
	case 'm', 'h', 'd', 'w':
		return n, unit, nil
	default:
		return 0, 0, errors.Errorf("unsupported interval unit %q in %q", unit, interval)
	}
}

func intervalDuration(interval string) (time.Duration, error) {
	n, unit, err := splitInterval(interval)
	if err != nil {
		return 0, err
	}
	d := time.Duration(n)
	switch unit {
	case 'm':
		return d * time.Minute, nil
	case 'h':
		return d * time.Hour, nil
	case 'd':
		return d * 24 * time.Hour, nil
	default:
		return d * 7 * 24 * time.Hour, nil
	}
}

// bybitInterval maps "15m" to "15", "4h" to "240", "1d" to "D" and "1w" to "W".
func bybitInterval(interval string) (string, error) {
	n, unit, err := splitInterval(interval)
	if err != nil {
		return "", err
	}
	switch unit {
	case 'm':
		return strconv.Itoa(n), nil
	case 'h':
		return strconv.Itoa(n * 60), nil
	case 'd':
		if n != 1 {
			return "", errors.Errorf("bybit supports only 1d, got %q", interval)
		}
		return "D", nil
	default:
		if n != 1 {
			return "", errors.Errorf("bybit supports only 1w, got %q", interval)
		}
		return "W", nil
	}
}

func parseMillis(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse timestamp %q", ts)
	}
	return time.UnixMilli(ms), nil
}
