// Package state captures a page's reading position and replays it after the
// page's next load, using a cascade of restoration strategies.
package state

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/engine"
	"github.com/flowscape/flowscape/backend/internal/engine/script"
	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

const (
	anchorMaxText  = 120
	anchorMinText  = 20
	fallbackBlocks = "p, h1, h2, h3, h4, h5, h6, li, article, section"
)

// Capturer extracts a CapturedPageState from a live surface. Capture is
// best-effort and never fails loudly: a page that cannot be read simply
// yields nil, and navigation proceeds without a saved position.
type Capturer struct {
	logger *zap.Logger
}

// NewCapturer creates a capturer.
func NewCapturer(logger *zap.Logger) *Capturer {
	return &Capturer{logger: logger}
}

// Capture snapshots the surface's scroll position, anchor, form values, and
// zoom. Returns nil when nothing could be read at all.
func (c *Capturer) Capture(ctx context.Context, surface engine.Surface) *types.CapturedPageState {
	url, err := surface.URL(ctx)
	if err != nil {
		c.logger.Debug("capture skipped, surface gone", zap.Error(err))
		return nil
	}

	var res script.CaptureResult
	if err := surface.Eval(ctx, script.Capture, nil, &res); err != nil {
		c.logger.Debug("in-page capture failed, falling back to static parse",
			zap.String("url", url),
			zap.Error(err),
		)
		return c.captureStatic(ctx, surface, url)
	}

	state := &types.CapturedPageState{
		URL:        url,
		ScrollX:    res.ScrollX,
		ScrollY:    res.ScrollY,
		ZoomFactor: surface.Zoom(),
	}
	if res.DocHeight > 0 {
		state.ScrollRatio = res.ScrollY / res.DocHeight
	}
	if res.HasAnchor {
		state.Anchor = &types.Anchor{
			Text:   res.AnchorText,
			Tag:    res.AnchorTag,
			Offset: res.AnchorOffset,
		}
	}
	if len(res.FormData) > 0 {
		state.FormData = res.FormData
	}
	return state
}

// captureStatic parses the page's HTML for a text anchor when script
// injection is unavailable. Scroll geometry cannot be read from static
// markup, so the state carries position zero; the anchor still lets the
// restorer find the content again.
func (c *Capturer) captureStatic(ctx context.Context, surface engine.Surface, url string) *types.CapturedPageState {
	html, err := surface.HTML(ctx)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	state := &types.CapturedPageState{
		URL:        url,
		ZoomFactor: surface.Zoom(),
	}
	doc.Find(fallbackBlocks).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) <= anchorMinText {
			return true
		}
		text = clipText(text, anchorMaxText)
		state.Anchor = &types.Anchor{
			Text: text,
			Tag:  strings.ToUpper(goquery.NodeName(sel)),
		}
		return false
	})
	return state
}

// clipText shortens s to at most max bytes without splitting a rune. Anchor
// text crosses the eval boundary as JSON, where a split rune turns into
// U+FFFD and the in-page text search stops matching.
func clipText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
