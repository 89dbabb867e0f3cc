package indicators

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// Row one candle with the indicators that are defined at that point.
type Row struct {
	Candle     domain.MarketCandle
	MA7        decimal.NullDecimal
	MA25       decimal.NullDecimal
	MA99       decimal.NullDecimal
	RSI14      decimal.NullDecimal
	MACD       decimal.NullDecimal
	MACDSignal decimal.NullDecimal
	MACDHist   decimal.NullDecimal
	BBUpper    decimal.NullDecimal
	BBMiddle   decimal.NullDecimal
	BBLower    decimal.NullDecimal
	VolumeMA20 decimal.NullDecimal
}

// Report annotates candles with MA7/25/99, RSI14, MACD(12,26,9),
// Bollinger(20,2) and a 20-period volume average. Indicators without enough
// history are left null rather than failing the report.
func Report(candles []domain.MarketCandle) []Row {
	rows := make([]Row, len(candles))
	for i, c := range candles {
		rows[i].Candle = c
	}
	if len(candles) == 0 {
		return rows
	}

	closes := domain.Closes(candles)
	volumes := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		volumes[i] = c.Volume
	}

	fill := func(series []decimal.Decimal, set func(*Row, decimal.NullDecimal)) {
		offset := len(rows) - len(series)
		for i, v := range series {
			set(&rows[offset+i], decimal.NewNullDecimal(v))
		}
	}

	if s, err := CalculateSMA(closes, 7); err == nil {
		fill(s, func(r *Row, v decimal.NullDecimal) { r.MA7 = v })
	}
	if s, err := CalculateSMA(closes, 25); err == nil {
		fill(s, func(r *Row, v decimal.NullDecimal) { r.MA25 = v })
	}
	if s, err := CalculateSMA(closes, 99); err == nil {
		fill(s, func(r *Row, v decimal.NullDecimal) { r.MA99 = v })
	}
	if s, err := CalculateSMA(volumes, 20); err == nil {
		fill(s, func(r *Row, v decimal.NullDecimal) { r.VolumeMA20 = v })
	}
	if rsi, err := CalculateRSI(closes, 14); err == nil {
		fill(float64ToDecimals(rsi), func(r *Row, v decimal.NullDecimal) { r.RSI14 = v })
	}
	if m, err := CalculateMACD(closes); err == nil {
		fill(m.MACD, func(r *Row, v decimal.NullDecimal) { r.MACD = v })
		fill(m.Signal, func(r *Row, v decimal.NullDecimal) { r.MACDSignal = v })
		fill(m.Histogram, func(r *Row, v decimal.NullDecimal) { r.MACDHist = v })
	}
	if b, err := CalculateBollinger(closes, 20, decimal.NewFromInt(2)); err == nil {
		fill(b.Upper, func(r *Row, v decimal.NullDecimal) { r.BBUpper = v })
		fill(b.Middle, func(r *Row, v decimal.NullDecimal) { r.BBMiddle = v })
		fill(b.Lower, func(r *Row, v decimal.NullDecimal) { r.BBLower = v })
	}

	return rows
}

// WriteCSV renders report rows as CSV; undefined indicators are empty cells.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	header := []string{
		"open_time", "open", "high", "low", "close", "volume",
		"ma7", "ma25", "ma99", "rsi14", "macd", "macd_signal", "macd_hist",
		"bb_upper", "bb_middle", "bb_lower", "volume_ma20",
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	cell := func(v decimal.NullDecimal) string {
		if !v.Valid {
			return ""
		}
		return v.Decimal.StringFixed(4)
	}

	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.Candle.OpenTime.UTC().Unix(), 10),
			r.Candle.Open.String(),
			r.Candle.High.String(),
			r.Candle.Low.String(),
			r.Candle.Close.String(),
			r.Candle.Volume.String(),
			cell(r.MA7), cell(r.MA25), cell(r.MA99), cell(r.RSI14),
			cell(r.MACD), cell(r.MACDSignal), cell(r.MACDHist),
			cell(r.BBUpper), cell(r.BBMiddle), cell(r.BBLower), cell(r.VolumeMA20),
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}

	cw.Flush()
	return cw.Error()
}

// Latest returns the last row, ok false when there are no rows.
func Latest(rows []Row) (Row, bool) {
	if len(rows) == 0 {
		return Row{}, false
	}
	return rows[len(rows)-1], true
}
