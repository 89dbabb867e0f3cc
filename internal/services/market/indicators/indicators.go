// Package indicators provides technical analysis indicators for trading strategies.
// Moving averages and MACD come from the cinar/indicator library; RSI and
// Bollinger Bands use simple rolling means and sample deviation so strategy
// thresholds match the classic textbook definitions.
//
// Every series is tail-aligned with its input: the last element of the
// output corresponds to the last input value. Warm-up values are dropped.
package indicators

import (
	"fmt"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
)

// CalculateSMA calculates the Simple Moving Average for the given period.
func CalculateSMA(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if period < 1 {
		return nil, fmt.Errorf("invalid SMA period %d", period)
	}
	if len(closes) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(closes))
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	out := helper.ChanToSlice(sma.Compute(helper.SliceToChan(decimalsToFloat64(closes))))

	return float64ToDecimals(out), nil
}

// CalculateEMA calculates the Exponential Moving Average for the given period.
func CalculateEMA(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if period < 1 {
		return nil, fmt.Errorf("invalid EMA period %d", period)
	}
	if len(closes) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(closes))
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	out := helper.ChanToSlice(ema.Compute(helper.SliceToChan(decimalsToFloat64(closes))))

	return float64ToDecimals(out), nil
}

// MACDSeries MACD line, signal line and histogram, tail-aligned to each other.
type MACDSeries struct {
	MACD      []decimal.Decimal
	Signal    []decimal.Decimal
	Histogram []decimal.Decimal
}

// CalculateMACD calculates MACD(12, 26, 9).
func CalculateMACD(closes []decimal.Decimal) (MACDSeries, error) {
	if len(closes) < 26 {
		return MACDSeries{}, fmt.Errorf("not enough data points for MACD: need at least 26, got %d", len(closes))
	}

	macd := trend.NewMacd[float64]()
	macdChan, signalChan := macd.Compute(helper.SliceToChan(decimalsToFloat64(closes)))

	// both channels must be consumed concurrently
	signalDone := make(chan []float64, 1)
	go func() {
		signalDone <- helper.ChanToSlice(signalChan)
	}()
	macdLine := helper.ChanToSlice(macdChan)
	signalLine := <-signalDone

	n := min(len(macdLine), len(signalLine))
	macdLine = macdLine[len(macdLine)-n:]
	signalLine = signalLine[len(signalLine)-n:]

	out := MACDSeries{
		MACD:      float64ToDecimals(macdLine),
		Signal:    float64ToDecimals(signalLine),
		Histogram: make([]decimal.Decimal, n),
	}
	for i := range n {
		out.Histogram[i] = out.MACD[i].Sub(out.Signal[i])
	}
	return out, nil
}

// CalculateRSI calculates the Relative Strength Index using simple rolling
// means of gains and losses over period price changes. When the average loss
// is zero the RSI is 100.
func CalculateRSI(closes []decimal.Decimal, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("invalid RSI period %d", period)
	}
	if len(closes) < period+1 {
		return nil, fmt.Errorf("not enough data points for RSI: need %d, got %d", period+1, len(closes))
	}

	values := decimalsToFloat64(closes)
	gains := make([]float64, len(values)-1)
	losses := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	out := make([]float64, 0, len(gains)-period+1)
	for end := period; end <= len(gains); end++ {
		avgGain := mean(gains[end-period : end])
		avgLoss := mean(losses[end-period : end])
		if avgLoss == 0 {
			out = append(out, 100)
			continue
		}
		rs := avgGain / avgLoss
		out = append(out, 100-100/(1+rs))
	}
	return out, nil
}

// Bands Bollinger Bands, tail-aligned.
type Bands struct {
	Upper  []decimal.Decimal
	Middle []decimal.Decimal
	Lower  []decimal.Decimal
}

// CalculateBollinger calculates SMA(period) ± k * sample standard deviation.
func CalculateBollinger(closes []decimal.Decimal, period int, k decimal.Decimal) (Bands, error) {
	if period < 2 {
		return Bands{}, fmt.Errorf("invalid Bollinger period %d", period)
	}
	if len(closes) < period {
		return Bands{}, fmt.Errorf("not enough data points for Bollinger Bands: need %d, got %d", period, len(closes))
	}

	n := len(closes) - period + 1
	out := Bands{
		Upper:  make([]decimal.Decimal, n),
		Middle: make([]decimal.Decimal, n),
		Lower:  make([]decimal.Decimal, n),
	}
	p := decimal.NewFromInt(int64(period))
	for i := range n {
		window := closes[i : i+period]
		sum := decimal.Zero
		for _, c := range window {
			sum = sum.Add(c)
		}
		middle := sum.Div(p)
		width := decimal.NewFromFloat(sampleStdDev(decimalsToFloat64(window))).Mul(k)

		out.Middle[i] = middle
		out.Upper[i] = middle.Add(width)
		out.Lower[i] = middle.Sub(width)
	}
	return out, nil
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sampleStdDev(xs []float64) float64 {
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// decimalsToFloat64 converts a slice of decimal.Decimal to []float64
func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}

// float64ToDecimals converts a slice of float64 to []decimal.Decimal
func float64ToDecimals(floats []float64) []decimal.Decimal {
	result := make([]decimal.Decimal, len(floats))
	for i, f := range floats {
		result[i] = decimal.NewFromFloat(f)
	}
	return result
}
