// Package web serves the dashboard: an HTML page plus SSE streams of
// portfolio snapshots, fired alerts and executed trades.
package web

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/events"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
)

const (
	snapshotPollInterval = 2 * time.Second
	heartbeatInterval    = 20 * time.Second
)

type snapshotReader interface {
	SnapshotsAfter(index uint64) ([]domain.PortfolioSnapshotRecord, error)
}

// Account read side of the trading venue.
type Account interface {
	GetPortfolioValue(ctx context.Context) domain.PortfolioValue
	Trades() []domain.TradeRecord
}

// Option configures a Server.
type Option func(*Server)

// WithSnapshots streams persisted snapshots from store.
func WithSnapshots(store snapshotReader) Option {
	return func(s *Server) { s.snapshots = store }
}

// WithAlerts streams fired alerts.
func WithAlerts(b *events.Broadcaster[events.AlertFired]) Option {
	return func(s *Server) { s.alerts = b }
}

// WithTrades streams executed trades.
func WithTrades(b *events.Broadcaster[events.TradeExecuted]) Option {
	return func(s *Server) { s.trades = b }
}

// WithAccount exposes current portfolio value and trade history as JSON.
func WithAccount(a Account) Option {
	return func(s *Server) { s.account = a }
}

// Server exposes HTTP endpoints serving the HTML UI and SSE streams.
type Server struct {
	Addr      string
	snapshots snapshotReader
	alerts    *events.Broadcaster[events.AlertFired]
	trades    *events.Broadcaster[events.TradeExecuted]
	account   Account
	logger    *zap.Logger
	pollEvery time.Duration
}

// NewServer creates a new web server instance.
func NewServer(addr string, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{Addr: addr, logger: logger, pollEvery: snapshotPollInterval}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /portfolio", s.handlePortfolio)
	mux.HandleFunc("GET /trades", s.handleTrades)
	mux.HandleFunc("GET /portfolio/stream", s.handleSnapshotStream)
	mux.HandleFunc("GET /alerts/stream", s.handleAlertStream)
	mux.HandleFunc("GET /trades/stream", s.handleTradeStream)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go s.shutdownOnDone(ctx, server)

	s.logger.Info("dashboard listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with ACME certificates for domains.
// A plain HTTP server on :80 answers HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if len(domains) == 0 {
		return errors.New("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12
	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go s.shutdownOnDone(ctx, httpSrv)
	go s.shutdownOnDone(ctx, httpsSrv)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("acme http server error", zap.Error(err))
		}
	}()

	s.logger.Info("dashboard listening with TLS", zap.String("addr", s.Addr), zap.Strings("domains", domains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) shutdownOnDone(ctx context.Context, srv *http.Server) {
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Warn("server shutdown error", zap.String("addr", srv.Addr), zap.Error(err))
	}
}
