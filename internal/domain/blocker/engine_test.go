package blocker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/domain/blocklist"
)

func newTestEngine(rules ...string) *Engine {
	set := blocklist.NewRuleSet()
	set.AddAll(rules)
	return New(set, zap.NewNop())
}

func TestSuffixMatching(t *testing.T) {
	e := newTestEngine("ads.example.com")

	tests := []struct {
		name    string
		url     string
		blocked bool
	}{
		{"exact domain", "https://ads.example.com/banner.js", true},
		{"one subdomain level", "https://x.ads.example.com/", true},
		{"deep subdomain", "https://a.b.ads.example.com/pixel.gif", true},
		{"prefix substring is not a match", "https://myads.example.com/", false},
		{"parent domain is not a match", "https://example.com/", false},
		{"unrelated host", "https://news.example.org/", false},
		{"with port", "https://ads.example.com:8443/x", true},
		{"case folded", "https://ADS.Example.COM/x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.blocked, e.ShouldBlockRequest(tt.url))
		})
	}
}

func TestFailOpenOnMalformedURL(t *testing.T) {
	e := newTestEngine("ads.example.com")

	assert.False(t, e.ShouldBlockRequest("not a url"))
	assert.False(t, e.ShouldBlockRequest("::::"))
	assert.False(t, e.ShouldBlockRequest(""))
	assert.False(t, e.ShouldBlockRequest("/relative/path"))
}

func TestDisabledAllowsEverything(t *testing.T) {
	e := newTestEngine("ads.example.com")
	e.Disable()

	assert.False(t, e.ShouldBlockRequest("https://ads.example.com/"))
	assert.Equal(t, uint64(0), e.Status().BlockedCount)
}

func TestPopupEvasionAlwaysBlocked(t *testing.T) {
	e := newTestEngine()

	assert.True(t, e.ShouldBlockPopup(""))
	assert.True(t, e.ShouldBlockPopup("about:blank"))

	// Blank targets stay blocked even while the engine is disabled.
	e.Disable()
	assert.True(t, e.ShouldBlockPopup(""))
	assert.True(t, e.ShouldBlockPopup("about:blank"))
	assert.False(t, e.ShouldBlockPopup("https://example.com/"))
}

func TestPopupUsesSameMatching(t *testing.T) {
	e := newTestEngine("popups.example.net")

	assert.True(t, e.ShouldBlockPopup("https://win.popups.example.net/offer"))
	assert.False(t, e.ShouldBlockPopup("https://example.net/"))
}

func TestBlockedCountIncrements(t *testing.T) {
	e := newTestEngine("ads.example.com")

	e.ShouldBlockRequest("https://ads.example.com/1")
	e.ShouldBlockRequest("https://sub.ads.example.com/2")
	e.ShouldBlockRequest("https://example.com/allowed")

	status := e.Status()
	assert.Equal(t, uint64(2), status.BlockedCount)
	assert.True(t, status.Enabled)
	assert.Equal(t, 1, status.RuleCount)
}

func TestToggleEnableDisable(t *testing.T) {
	e := newTestEngine()

	assert.True(t, e.Enabled())
	assert.False(t, e.Toggle())
	assert.False(t, e.Enabled())
	assert.True(t, e.Toggle())

	e.Enable() // no-op while enabled
	assert.True(t, e.Enabled())
	e.Disable()
	e.Disable() // no-op while disabled
	assert.False(t, e.Enabled())
}

func TestNeverTestsBareTLD(t *testing.T) {
	// A rule that is a bare TLD must never match, since the walk stops
	// at two labels.
	e := newTestEngine("com")
	assert.False(t, e.ShouldBlockRequest("https://example.com/"))
}
