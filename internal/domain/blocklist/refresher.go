package blocklist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/infrastructure/resilience"
)

// DefaultSourceURL is the hosts-format list fetched on refresh.
const DefaultSourceURL = "https://raw.githubusercontent.com/StevenBlack/hosts/master/hosts"

// RefresherConfig configures the remote refresh loop.
type RefresherConfig struct {
	SourceURL string
	CachePath string
	Timeout   time.Duration
	Interval  time.Duration
}

// Refresher periodically fetches the remote blocklist, merges it into the
// rule set, and overwrites the cache. Every failure path is non-fatal: the
// existing rules keep protecting the user.
type Refresher struct {
	cfg      RefresherConfig
	set      *RuleSet
	client   *resty.Client
	breaker  *resilience.Breaker
	logger   *zap.Logger
	onResult func(error)
}

// OnResult registers a callback invoked after every refresh attempt with
// its outcome. Set it before Start; it runs on the refresh goroutine.
func (r *Refresher) OnResult(fn func(error)) {
	r.onResult = fn
}

// NewRefresher creates a refresher with a bounded request timeout. The
// remote fetch runs fire-and-forget, but a hung request must not leak a
// goroutine for the whole session.
func NewRefresher(cfg RefresherConfig, set *RuleSet, logger *zap.Logger) *Refresher {
	if cfg.SourceURL == "" {
		cfg.SourceURL = DefaultSourceURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Interval == 0 {
		cfg.Interval = 24 * time.Hour
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second).
		SetHeader("Accept", "text/plain")

	return &Refresher{
		cfg:     cfg,
		set:     set,
		client:  client,
		breaker: resilience.New("blocklist-refresh", resilience.Settings{}),
		logger:  logger,
	}
}

// Start kicks off an immediate refresh and then a periodic loop. It returns
// without waiting; cancel ctx to stop the loop.
func (r *Refresher) Start(ctx context.Context) {
	go func() {
		r.refreshOnce(ctx)
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.refreshOnce(ctx)
			}
		}
	}()
}

func (r *Refresher) refreshOnce(ctx context.Context) {
	err := r.Refresh(ctx)
	if err != nil {
		r.logger.Warn("blocklist refresh failed", zap.Error(err))
	}
	if r.onResult != nil {
		r.onResult(err)
	}
}

// Refresh fetches the remote list once, merges it, and rewrites the cache.
func (r *Refresher) Refresh(ctx context.Context) error {
	var body []byte
	err := r.breaker.Do(func() error {
		resp, err := r.client.R().SetContext(ctx).Get(r.cfg.SourceURL)
		if err != nil {
			return fmt.Errorf("fetch blocklist: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("fetch blocklist: HTTP %d", resp.StatusCode())
		}
		body = resp.Body()
		return nil
	})
	if err != nil {
		return err
	}

	content, err := maybeGunzip(body)
	if err != nil {
		return fmt.Errorf("decode blocklist: %w", err)
	}
	if !looksLikeHosts(content) {
		return fmt.Errorf("remote blocklist has no parsable rules, keeping existing set")
	}

	domains, err := ParseHosts(strings.NewReader(string(content)))
	if err != nil {
		return fmt.Errorf("parse blocklist: %w", err)
	}
	before := r.set.Len()
	r.set.AddAll(domains)

	if r.cfg.CachePath != "" {
		if err := WriteCache(r.cfg.CachePath, content); err != nil {
			// Merge succeeded; a stale cache only affects the next start.
			r.logger.Warn("failed to persist blocklist cache", zap.Error(err))
		}
	}

	r.logger.Info("blocklist refreshed",
		zap.Int("fetched", len(domains)),
		zap.Int("added", r.set.Len()-before),
		zap.Int("total", r.set.Len()),
	)
	return nil
}

// maybeGunzip transparently decodes gzip-compressed list files, which some
// mirrors serve without a Content-Encoding header.
func maybeGunzip(body []byte) ([]byte, error) {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
