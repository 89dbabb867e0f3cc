package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/market/indicators"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultCacheTTL   = time.Hour
	defaultCacheDir   = "collected_data"
	fetchTimeout      = 30 * time.Second
	pairFetchInterval = time.Second
)

// KlineProvider defines the interface for fetching kline (candlestick) data
type KlineProvider interface {
	// GetKlines fetches historical kline data for a trading pair, oldest first.
	// interval is e.g. "1m", "5m", "1h", "4h", "1d".
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.MarketCandle, error)
}

// Config disk cache settings.
type Config struct {
	// Platform prefixes cache file names.
	Platform string
	CacheDir string
	// TTL cached candles older than this are refetched.
	TTL time.Duration
}

type cacheFile struct {
	FetchedAt time.Time             `json:"fetched_at"`
	Candles   []domain.MarketCandle `json:"candles"`
}

// Collector wraps a provider with a JSON file cache.
type Collector struct {
	provider KlineProvider
	cfg      Config
	logger   *zap.Logger
	limiter  *rate.Limiter
	now      func() time.Time
}

// NewCollector creates a caching collector. Empty config fields get defaults.
func NewCollector(provider KlineProvider, cfg Config, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}
	return &Collector{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Every(pairFetchInterval), 1),
		now:      time.Now,
	}
}

// GetKlines serves candles from cache when fresh, so the collector can stand
// in for its provider.
func (c *Collector) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.MarketCandle, error) {
	return c.Fetch(ctx, pair, interval, limit, false)
}

// Fetch returns candles, bypassing the cache when force is set.
func (c *Collector) Fetch(ctx context.Context, pair domain.Pair, interval string, limit int, force bool) ([]domain.MarketCandle, error) {
	path := c.cachePath(pair, interval, limit)
	l := c.logger.With(zap.String("pair", pair.String()), zap.String("interval", interval))

	if !force {
		if candles, age, ok := c.readCache(path); ok {
			l.Debug("klines loaded from cache", zap.Duration("age", age))
			return candles, nil
		}
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	candles, err := c.provider.GetKlines(ctxWithTimeout, pair, interval, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines for timeframe %s", interval)
	}
	if len(candles) == 0 {
		return nil, errors.Errorf("no kline data returned for timeframe %s", interval)
	}

	if err := c.writeCache(path, candles); err != nil {
		l.Warn("failed to cache klines", zap.Error(err))
	}
	return candles, nil
}

func (c *Collector) cachePath(pair domain.Pair, interval string, limit int) string {
	name := fmt.Sprintf("%s_%s_%s_%d.json", c.cfg.Platform, pair.Key(), interval, limit)
	return filepath.Join(c.cfg.CacheDir, name)
}

func (c *Collector) readCache(path string) ([]domain.MarketCandle, time.Duration, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, false
	}
	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.Warn("ignoring corrupt kline cache", zap.String("path", path), zap.Error(err))
		return nil, 0, false
	}
	age := c.now().Sub(f.FetchedAt)
	if age < 0 || age >= c.cfg.TTL || len(f.Candles) == 0 {
		return nil, 0, false
	}
	return f.Candles, age, true
}

func (c *Collector) writeCache(path string, candles []domain.MarketCandle) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create cache dir")
	}
	data, err := json.Marshal(cacheFile{FetchedAt: c.now(), Candles: candles})
	if err != nil {
		return errors.Wrap(err, "marshal klines")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write kline cache")
	}
	return errors.Wrap(os.Rename(tmp, path), "replace kline cache")
}

// CollectMultiple fetches and annotates several pairs, pausing between
// pairs. Pairs that fail are logged and skipped.
func (c *Collector) CollectMultiple(ctx context.Context, pairs []domain.Pair, interval string, limit int) (map[domain.Pair][]indicators.Row, error) {
	out := make(map[domain.Pair][]indicators.Row, len(pairs))
	for _, p := range pairs {
		if err := c.limiter.Wait(ctx); err != nil {
			return out, err
		}
		candles, err := c.Fetch(ctx, p, interval, limit, false)
		if err != nil {
			c.logger.Warn("skipping pair", zap.String("pair", p.String()), zap.Error(err))
			continue
		}
		out[p] = indicators.Report(candles)
	}
	return out, nil
}

// ExportCSV writes candles with indicators to dir and returns the file path.
func (c *Collector) ExportCSV(ctx context.Context, dir string, pair domain.Pair, interval string, limit int) (string, error) {
	candles, err := c.Fetch(ctx, pair, interval, limit, true)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create export dir")
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_indicators_%s.csv", pair.Key(), c.now().Format("20060102_1504")))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create export file")
	}
	defer f.Close()

	if err := indicators.WriteCSV(f, indicators.Report(candles)); err != nil {
		return "", err
	}
	return path, nil
}

// Correlation Pearson correlation of close prices between every two pairs,
// aligned on the most recent candles.
func (c *Collector) Correlation(ctx context.Context, pairs []domain.Pair, interval string, limit int) (map[domain.Pair]map[domain.Pair]float64, error) {
	closes := make(map[domain.Pair][]float64, len(pairs))
	for _, p := range pairs {
		candles, err := c.Fetch(ctx, p, interval, limit, false)
		if err != nil {
			c.logger.Warn("skipping pair", zap.String("pair", p.String()), zap.Error(err))
			continue
		}
		series := make([]float64, len(candles))
		for i, k := range candles {
			series[i] = k.Close.InexactFloat64()
		}
		closes[p] = series
	}
	if len(closes) < 2 {
		return nil, errors.New("correlation needs data for at least two pairs")
	}

	out := make(map[domain.Pair]map[domain.Pair]float64, len(closes))
	for a, xs := range closes {
		out[a] = make(map[domain.Pair]float64, len(closes))
		for b, ys := range closes {
			out[a][b] = pearson(xs, ys)
		}
	}
	return out, nil
}

func pearson(xs, ys []float64) float64 {
	n := min(len(xs), len(ys))
	if n < 2 {
		return math.NaN()
	}
	xs, ys = xs[len(xs)-n:], ys[len(ys)-n:]

	var mx, my float64
	for i := range n {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var cov, vx, vy float64
	for i := range n {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(vx*vy)
}
