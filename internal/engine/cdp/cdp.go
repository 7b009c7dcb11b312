// Package cdp implements the engine abstraction over a Chromium instance
// driven through the DevTools protocol with go-rod.
package cdp

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/engine"
)

// Config tunes the Chromium launch.
type Config struct {
	Headless bool
	// BinPath overrides the autodetected Chromium binary.
	BinPath string
}

// Engine drives one Chromium instance; every surface is one page in it.
type Engine struct {
	browser *rod.Browser
	logger  *zap.Logger

	mu       sync.Mutex
	surfaces map[string]*Surface
	closed   bool
}

// Launch starts Chromium and connects to it.
func Launch(cfg Config, logger *zap.Logger) (*Engine, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Leakless(true)
	if cfg.BinPath != "" {
		l = l.Bin(cfg.BinPath)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect devtools: %w", err)
	}

	logger.Info("rendering engine started", zap.Bool("headless", cfg.Headless))
	return &Engine{
		browser:  browser,
		logger:   logger,
		surfaces: make(map[string]*Surface),
	}, nil
}

// CreateSurface opens a new page, wires request interception and the popup
// policy, and starts streaming lifecycle events.
func (e *Engine) CreateSurface(ctx context.Context, opts engine.SurfaceOptions) (engine.Surface, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, fmt.Errorf("engine closed")
	}
	e.mu.Unlock()

	page, err := e.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	s := newSurface(page, e, opts, e.logger)
	if err := s.init(ctx, opts); err != nil {
		_ = page.Close()
		return nil, err
	}

	e.mu.Lock()
	e.surfaces[s.ID().String()] = s
	e.mu.Unlock()

	if opts.URL != "" {
		if err := s.Navigate(ctx, opts.URL); err != nil {
			e.logger.Warn("initial navigation failed",
				zap.String("url", opts.URL),
				zap.Error(err),
			)
		}
	}
	return s, nil
}

// OpenNative opens a URL in the user's system-default browser, outside the
// embedded engine entirely.
func (e *Engine) OpenNative(_ context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open system browser: %w", err)
	}
	// The browser outlives us; reap the launcher process in the background.
	go func() { _ = cmd.Wait() }()

	e.logger.Info("opened in system browser", zap.String("url", url))
	return nil
}

func (e *Engine) forget(s *Surface) {
	e.mu.Lock()
	delete(e.surfaces, s.ID().String())
	e.mu.Unlock()
}

// Close tears down every surface and the Chromium instance.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	surfaces := make([]*Surface, 0, len(e.surfaces))
	for _, s := range e.surfaces {
		surfaces = append(surfaces, s)
	}
	e.mu.Unlock()

	for _, s := range surfaces {
		_ = s.Close()
	}
	return e.browser.Close()
}
