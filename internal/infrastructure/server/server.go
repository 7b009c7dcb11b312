// Package server assembles the Flowscape backend: rendering engine,
// blocklist, lifecycle controller, event stream, and REST surface.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/flowscape/flowscape/backend/internal/api/http"
	"github.com/flowscape/flowscape/backend/internal/api/middleware"
	"github.com/flowscape/flowscape/backend/internal/domain/blocker"
	"github.com/flowscape/flowscape/backend/internal/domain/blocklist"
	"github.com/flowscape/flowscape/backend/internal/domain/content"
	"github.com/flowscape/flowscape/backend/internal/domain/lifecycle"
	"github.com/flowscape/flowscape/backend/internal/domain/state"
	"github.com/flowscape/flowscape/backend/internal/engine/cdp"
	"github.com/flowscape/flowscape/backend/internal/engine/script"
	"github.com/flowscape/flowscape/backend/internal/infrastructure/config"
	"github.com/flowscape/flowscape/backend/internal/infrastructure/logging"
	"github.com/flowscape/flowscape/backend/internal/infrastructure/monitoring"
	"github.com/flowscape/flowscape/backend/internal/infrastructure/tracing"
	"github.com/flowscape/flowscape/backend/internal/shared/types"
	"github.com/flowscape/flowscape/backend/internal/ws"
)

// Version is stamped by the build; "dev" otherwise.
var Version = "dev"

const gaugeInterval = 15 * time.Second

// Server wraps the HTTP server and dependencies.
type Server struct {
	httpSrv    *http.Server
	controller *lifecycle.Controller
	rules      *blocklist.RuleSet
	blk        *blocker.Engine
	metrics    *monitoring.Metrics
	logger     *logging.Logger
	config     *config.Config

	cancel context.CancelFunc
}

// NewServer creates a server instance: it verifies the in-page scripts,
// seeds the blocklist, launches the rendering engine, and wires every
// layer onto one router.
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	logger.Info("Initializing Flowscape backend",
		zap.String("port", cfg.Server.Port),
		zap.String("version", Version),
	)

	// A broken snippet must fail startup, not the first capture.
	if err := script.Verify(); err != nil {
		return nil, fmt.Errorf("page scripts failed verification: %w", err)
	}

	metrics := monitoring.NewMetrics()

	policy, err := config.LoadPolicy(cfg.Policy.Path)
	if err != nil {
		return nil, err
	}

	// Blocklist: fallback seed first so the earliest requests are already
	// covered, then the persisted cache, then remote refreshes.
	rules := blocklist.NewRuleSet()
	rules.Bootstrap()
	if n, err := blocklist.LoadCache(cfg.Blocklist.CachePath, rules); err != nil {
		logger.Warn("Blocklist cache unreadable, continuing on fallback rules", zap.Error(err))
	} else if n > 0 {
		logger.Info("Blocklist cache loaded", zap.Int("domains", n))
	}
	metrics.SetBlocklistRules(rules.Len())

	blk := blocker.New(rules, logger.Component("blocker"))

	eng, err := cdp.Launch(cdp.Config{
		Headless: cfg.Engine.Headless,
		BinPath:  cfg.Engine.BinPath,
	}, logger.Component("engine"))
	if err != nil {
		return nil, fmt.Errorf("launch rendering engine: %w", err)
	}

	hub := ws.NewHub(logger.Component("ws"), metrics)
	controller := lifecycle.New(
		eng,
		blk,
		state.NewCapturer(logger.Component("capture")),
		state.NewRestorer(logger.Component("restore")),
		monitoring.NewObserver(hub, metrics),
		lifecycle.Config{
			AuthDomains:       policy.AuthDomains,
			OAuthPopupDomains: policy.OAuthPopupDomains,
			WindowBounds: types.Bounds{
				Width:  cfg.Window.Width,
				Height: cfg.Window.Height,
			},
		},
		logger.Component("lifecycle"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	if cfg.Blocklist.RemoteRefresh {
		startRefreshers(ctx, cfg, policy, rules, metrics, logger)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracing.New("backend", logger.Component("tracing"))))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(controller, metrics, Version)
	wsHandler := ws.NewHandler(controller, content.NewSanitizer(), hub, logger.Component("ws"))

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/views", handlers.ListViews)
	router.GET("/blocker", handlers.BlockerStatus)
	router.POST("/blocker/toggle", handlers.ToggleBlocker)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/metrics/json", handlers.MetricsJSON)
	router.GET("/stream", wsHandler.HandleConnection)

	s := &Server{
		httpSrv: &http.Server{
			Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
			Handler: router,
		},
		controller: controller,
		rules:      rules,
		blk:        blk,
		metrics:    metrics,
		logger:     logger,
		config:     cfg,
		cancel:     cancel,
	}
	go s.updateGauges(ctx)

	logger.Info("Server initialized successfully")
	return s, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close gracefully shuts down the server: HTTP first so no new commands
// arrive, then the controller, which tears down every surface and the engine.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}

	if err := s.controller.Close(); err != nil {
		s.logger.Error("Failed to close controller", zap.Error(err))
		return err
	}

	s.logger.Sync()
	return nil
}

// startRefreshers runs one refresh loop per configured source. Only the
// primary source persists into the cache file so refreshes never race on it.
func startRefreshers(ctx context.Context, cfg *config.Config, policy *config.Policy, rules *blocklist.RuleSet, metrics *monitoring.Metrics, logger *logging.Logger) {
	sources := []string{cfg.Blocklist.SourceURL}
	sources = append(sources, policy.BlocklistSources...)

	for i, src := range sources {
		rcfg := blocklist.RefresherConfig{
			SourceURL: src,
			Timeout:   cfg.Blocklist.FetchTimeout,
			Interval:  cfg.Blocklist.RefreshInterval,
		}
		if i == 0 {
			rcfg.CachePath = cfg.Blocklist.CachePath
		}
		r := blocklist.NewRefresher(rcfg, rules, logger.Component("blocklist"))
		r.OnResult(func(err error) {
			if err != nil {
				metrics.RecordBlocklistRefresh("failure")
				return
			}
			metrics.RecordBlocklistRefresh("success")
			metrics.SetBlocklistRules(rules.Len())
		})
		r.Start(ctx)
	}
}

// updateGauges keeps the coarse domain gauges current without threading the
// metrics handle through every layer.
func (s *Server) updateGauges(ctx context.Context) {
	ticker := time.NewTicker(gaugeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metrics.SetViewsActive(len(s.controller.Views()))
			s.metrics.SetBlocklistRules(s.rules.Len())
			s.metrics.SetRequestsBlocked(s.blk.Status().BlockedCount)
		}
	}
}
