package state

import (
	"context"
	"math"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/engine"
	"github.com/flowscape/flowscape/backend/internal/engine/script"
	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

const (
	anchorFragmentLen = 70
	ratioTolerance    = 100.0
	pixelTolerance    = 50.0
	pixelRetries      = 5
	pixelRetryDelay   = 400 * time.Millisecond
)

// Restorer replays a captured page state against a freshly loaded surface.
//
// Strategies run in fixed priority order, each independently fallible:
// anchor text search first, then scroll ratio, then raw pixel position with
// bounded retries, then an explicit give-up outcome. The first success wins.
type Restorer struct {
	logger *zap.Logger

	// retryDelay is the pause between pixel attempts. Tests shorten it.
	retryDelay time.Duration
}

// NewRestorer creates a restorer with the production retry delay.
func NewRestorer(logger *zap.Logger) *Restorer {
	return &Restorer{logger: logger, retryDelay: pixelRetryDelay}
}

// Restore runs the cascade. It never returns an error: every failure mode
// collapses into the outcome, which the caller forwards to the UI.
func (r *Restorer) Restore(ctx context.Context, surface engine.Surface, state *types.CapturedPageState) types.RestoreOutcome {
	if state == nil {
		return types.RestoreOutcome{Method: types.RestoreNone, Success: false}
	}

	// A load that ended on a different host is a redirect; replaying a
	// scroll position there is meaningless. No scroll call may happen.
	current, err := surface.URL(ctx)
	if err != nil || redirected(state.URL, current) {
		r.logger.Debug("restore abandoned, page redirected",
			zap.String("captured", state.URL),
			zap.String("current", current),
		)
		return types.RestoreOutcome{Method: types.RestoreNone, Success: false, Message: "Page redirected"}
	}

	// Let layout stabilize: the settle snippet resolves after two
	// consecutive animation frames.
	_ = surface.Eval(ctx, script.Settle, nil, nil)

	outcome := r.cascade(ctx, surface, state)

	// Zoom and form data apply regardless of how the scroll cascade went.
	if state.ZoomFactor > 0 {
		if err := surface.SetZoom(ctx, state.ZoomFactor); err != nil {
			r.logger.Debug("zoom restore failed", zap.Error(err))
		}
	}
	if len(state.FormData) > 0 {
		if err := surface.Eval(ctx, script.FillForm, []any{state.FormData}, nil); err != nil {
			r.logger.Debug("form restore failed", zap.Error(err))
		}
	}

	r.logger.Info("restore finished",
		zap.String("url", state.URL),
		zap.String("method", string(outcome.Method)),
		zap.Bool("success", outcome.Success),
	)
	return outcome
}

func (r *Restorer) cascade(ctx context.Context, surface engine.Surface, state *types.CapturedPageState) types.RestoreOutcome {
	if ok := r.tryAnchor(ctx, surface, state.Anchor); ok {
		return types.RestoreOutcome{Method: types.RestoreAnchor, Success: true}
	}
	if ok := r.tryRatio(ctx, surface, state.ScrollRatio, state.ScrollX); ok {
		return types.RestoreOutcome{Method: types.RestoreRatio, Success: true}
	}
	if ok := r.tryPixel(ctx, surface, state.ScrollX, state.ScrollY); ok {
		return types.RestoreOutcome{Method: types.RestorePixel, Success: true}
	}
	if state.ScrollY == 0 && state.ScrollX == 0 {
		return types.RestoreOutcome{Method: types.RestorePixel, Success: true}
	}
	// The page stays wherever it loaded. Visible give-up, not a silent one.
	return types.RestoreOutcome{Method: types.RestoreTop, Success: false}
}

// tryAnchor searches the reloaded document for the captured anchor text and
// scrolls to it. The search uses a fragment of the text: long enough to be
// unique, short enough to survive trailing edits.
func (r *Restorer) tryAnchor(ctx context.Context, surface engine.Surface, anchor *types.Anchor) bool {
	if anchor == nil || anchor.Text == "" {
		return false
	}
	fragment := clipText(anchor.Text, anchorFragmentLen)
	var res script.ScrollResult
	if err := surface.Eval(ctx, script.AnchorScroll, []any{anchor.Tag, fragment, anchor.Offset}, &res); err != nil {
		return false
	}
	return res.Found
}

// tryRatio scrolls to the captured fraction of the current document height.
// Success requires landing within 100px of the target, which filters out
// pages that have not finished rendering their full height yet.
func (r *Restorer) tryRatio(ctx context.Context, surface engine.Surface, ratio, scrollX float64) bool {
	if ratio <= 0 {
		return false
	}
	var metrics script.MetricsResult
	if err := surface.Eval(ctx, script.Metrics, nil, &metrics); err != nil {
		return false
	}
	target := math.Round(ratio * metrics.DocHeight)
	var res script.ScrollResult
	if err := surface.Eval(ctx, script.ScrollTo, []any{scrollX, target}, &res); err != nil {
		return false
	}
	return math.Abs(res.ScrollY-target) <= ratioTolerance
}

// tryPixel scrolls to the literal captured position, retrying while
// async-loaded content may still be expanding the page. One initial attempt
// plus pixelRetries retries, with a delay between attempts.
func (r *Restorer) tryPixel(ctx context.Context, surface engine.Surface, x, y float64) bool {
	for attempt := 0; attempt <= pixelRetries; attempt++ {
		if attempt > 0 && !r.sleep(ctx) {
			return false
		}
		var res script.ScrollResult
		if err := surface.Eval(ctx, script.ScrollTo, []any{x, y}, &res); err != nil {
			continue
		}
		if pixelSettled(res, x, y) {
			return true
		}
		var metrics script.MetricsResult
		if err := surface.Eval(ctx, script.Metrics, nil, &metrics); err != nil {
			continue
		}
		// The page is shorter than when captured and we are already at
		// its bottom; closer is not possible.
		if y > metrics.MaxScroll && res.ScrollY >= metrics.MaxScroll && metrics.MaxScroll > 0 {
			return true
		}
	}
	return false
}

func pixelSettled(res script.ScrollResult, x, y float64) bool {
	if y == 0 && res.ScrollY == 0 {
		return true
	}
	if math.Abs(res.ScrollY-y) <= pixelTolerance {
		return true
	}
	// Horizontal proximity only counts when there was horizontal scroll
	// to restore.
	return x != 0 && math.Abs(res.ScrollX-x) <= pixelTolerance
}

// sleep waits out the retry delay, returning false if ctx ended first.
func (r *Restorer) sleep(ctx context.Context) bool {
	timer := time.NewTimer(r.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// redirected reports whether the two URLs point at different hosts. Path
// and query changes on the same host do not count.
func redirected(captured, current string) bool {
	a, err := url.Parse(captured)
	if err != nil {
		return false
	}
	b, err := url.Parse(current)
	if err != nil {
		return false
	}
	return a.Hostname() != b.Hostname()
}
