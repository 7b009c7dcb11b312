// Package blocker decides, per request or popup target, whether a URL
// points at a known ad or tracking domain.
package blocker

import (
	"net/url"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/domain/blocklist"
	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

// Engine matches request URLs against the rule set by walking domain
// suffixes. It is attached to every surface's request pipeline, so both
// decision paths are lock-free on the hot path.
type Engine struct {
	rules        *blocklist.RuleSet
	enabled      atomic.Bool
	blockedCount atomic.Uint64
	logger       *zap.Logger
}

// New creates an engine over the given rule set, enabled by default.
func New(rules *blocklist.RuleSet, logger *zap.Logger) *Engine {
	e := &Engine{rules: rules, logger: logger}
	e.enabled.Store(true)
	return e
}

// ShouldBlockRequest reports whether a network request to rawURL should be
// cancelled. Malformed URLs are allowed through: a URL the engine cannot
// parse is not assumed malicious.
func (e *Engine) ShouldBlockRequest(rawURL string) bool {
	if !e.enabled.Load() {
		return false
	}
	host := hostnameOf(rawURL)
	if host == "" {
		return false
	}
	if e.matchSuffix(host) {
		e.blockedCount.Add(1)
		return true
	}
	return false
}

// ShouldBlockPopup applies the same matching as ShouldBlockRequest, but an
// empty or about:blank target is always blocked first. Popups with no real
// destination are an evasion technique, never legitimate.
func (e *Engine) ShouldBlockPopup(rawURL string) bool {
	if rawURL == "" || rawURL == "about:blank" {
		return true
	}
	return e.ShouldBlockRequest(rawURL)
}

// matchSuffix walks the hostname's label suffixes from longest to shortest,
// stopping before a bare TLD. A rule for ads.example.com therefore matches
// ads.example.com and any subdomain depth, but never myads.example.com.
func (e *Engine) matchSuffix(host string) bool {
	labels := strings.Split(host, ".")
	for len(labels) >= 2 {
		if e.rules.Has(strings.Join(labels, ".")) {
			return true
		}
		labels = labels[1:]
	}
	return false
}

// Toggle flips the enabled flag and returns the new value.
func (e *Engine) Toggle() bool {
	next := !e.enabled.Load()
	e.enabled.Store(next)
	e.logger.Info("blocker toggled", zap.Bool("enabled", next))
	return next
}

// Enable turns blocking on. Already-enabled is a silent no-op.
func (e *Engine) Enable() {
	if e.enabled.CompareAndSwap(false, true) {
		e.logger.Info("blocker enabled")
	}
}

// Disable turns blocking off. Already-disabled is a silent no-op.
func (e *Engine) Disable() {
	if e.enabled.CompareAndSwap(true, false) {
		e.logger.Info("blocker disabled")
	}
}

// Enabled reports the current state.
func (e *Engine) Enabled() bool {
	return e.enabled.Load()
}

// Status returns a snapshot for UI display.
func (e *Engine) Status() types.BlockerStatus {
	return types.BlockerStatus{
		Enabled:      e.enabled.Load(),
		BlockedCount: e.blockedCount.Load(),
		RuleCount:    e.rules.Len(),
	}
}

// hostnameOf extracts a usable hostname from rawURL, or "" when the URL
// does not parse or carries no host.
func hostnameOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
