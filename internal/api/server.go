package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/songzhibin97/masquerade/internal/data"
	"github.com/songzhibin97/masquerade/internal/defi"
	"github.com/songzhibin97/masquerade/internal/marketplace"
	"github.com/songzhibin97/masquerade/internal/models"
	"github.com/songzhibin97/masquerade/internal/pools"
	"github.com/songzhibin97/masquerade/internal/privacy"
)

const requestIDHeader = "X-Request-ID"

// Options wires the server's dependencies. Catalog may be nil when no agent
// store is configured; the agent routes then answer 503. A nil Fees prices
// gas at privacy.DefaultFees.
type Options struct {
	Collector       data.DataCollector
	Catalog         *marketplace.Catalog
	Simulator       *pools.Simulator
	Desk            *defi.Desk
	DefaultLevel    privacy.PrivacyLevel
	DefaultETHPrice float64
	Fees            *privacy.Fees
	Logger          *slog.Logger
}

// Server HTTP 服务
type Server struct {
	opts   Options
	fees   privacy.Fees
	logger *slog.Logger
	engine *gin.Engine

	mu    sync.RWMutex
	price *models.PriceTick
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DefaultLevel == "" {
		opts.DefaultLevel = privacy.LevelStandard
	}
	if opts.DefaultETHPrice <= 0 {
		opts.DefaultETHPrice = privacy.DefaultETHPriceUSD
	}
	if opts.Desk == nil {
		opts.Desk = defi.NewDesk()
	}

	s := &Server{
		opts:   opts,
		fees:   privacy.DefaultFees,
		logger: opts.Logger,
	}
	if opts.Fees != nil {
		s.fees = *opts.Fees
	}
	s.engine = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	v1 := r.Group("/v1")
	{
		v1.GET("/health", s.handleHealth)

		v1.GET("/privacy/score", s.handleScore)
		v1.GET("/privacy/gas", s.handleGas)

		v1.GET("/pools/stats", s.handlePoolStats)
		v1.POST("/pools/deposit", s.handleDeposit)
		v1.POST("/pools/withdraw", s.handleWithdraw)
		v1.POST("/pools/stealth-address", s.handleStealthAddress)

		v1.GET("/transactions", s.handleListTransactions)
		v1.GET("/transactions/:id", s.handleGetTransaction)
		v1.DELETE("/transactions", s.handleClearTransactions)

		v1.GET("/agent-types", s.handleAgentTypes)
		v1.GET("/agents", s.handleListAgents)
		v1.GET("/agents/:id", s.handleGetAgent)

		v1.GET("/defi/markets", s.handleMarkets)
		v1.POST("/defi/:action", s.handleDefiAction)
	}
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

// WatchPrice keeps the latest ETH price from the collector until ctx ends.
func (s *Server) WatchPrice(ctx context.Context, interval time.Duration) error {
	ticks, err := s.opts.Collector.SubscribeToETHPrice(ctx, interval)
	if err != nil {
		return err
	}

	go func() {
		for tick := range ticks {
			s.setPrice(tick)
		}
	}()
	return nil
}

func (s *Server) setPrice(tick models.PriceTick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.price = &tick
}

// ethPrice 价格优先级: 缓存 > 实时采集 > 默认值
func (s *Server) ethPrice(ctx context.Context) (float64, string) {
	s.mu.RLock()
	cached := s.price
	s.mu.RUnlock()
	if cached != nil && cached.Price > 0 {
		return cached.Price, cached.Source
	}

	if s.opts.Collector != nil {
		tick, err := s.opts.Collector.CollectETHPrice(ctx)
		if err == nil && tick.Price > 0 {
			s.setPrice(*tick)
			return tick.Price, tick.Source
		}
	}

	return s.opts.DefaultETHPrice, "default"
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)

		c.Next()

		s.logger.Info("request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}
