package view

import (
	"sync"
	"time"

	"github.com/flowscape/flowscape/backend/internal/engine"
	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

// Handle is one registered view: a rendering surface plus the bookkeeping
// around it. The registry owns the handle's membership and active flag;
// the handle itself guards its mutable page metadata, which event pumps
// update concurrently with registry calls.
type Handle struct {
	Key     types.ViewKey
	Surface engine.Surface

	mu             sync.Mutex
	url            string
	title          string
	bounds         types.Bounds
	pending        *types.CapturedPageState
	interstitial   bool
	docked         bool
	backgroundedAt *time.Time
}

// URL returns the last URL reported for this view.
func (h *Handle) URL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.url
}

// SetURL records a navigation reported by the surface.
func (h *Handle) SetURL(url string) {
	h.mu.Lock()
	h.url = url
	h.mu.Unlock()
}

// Title returns the display title.
func (h *Handle) Title() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.title
}

// SetTitle records a title change reported by the surface.
func (h *Handle) SetTitle(title string) {
	h.mu.Lock()
	h.title = title
	h.mu.Unlock()
}

// TrackedBounds returns the bounds last applied outside fullscreen. These
// are what fullscreen exit restores, not a recomputed layout.
func (h *Handle) TrackedBounds() types.Bounds {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bounds
}

func (h *Handle) setTrackedBounds(b types.Bounds) {
	h.mu.Lock()
	h.bounds = b
	h.mu.Unlock()
}

// SetPending attaches a captured state to replay after the next load.
func (h *Handle) SetPending(state *types.CapturedPageState) {
	h.mu.Lock()
	h.pending = state
	h.mu.Unlock()
}

// TakePending claims the pending state, leaving none behind. The first
// restoration attempt consumes the state whether or not it succeeds.
func (h *Handle) TakePending() *types.CapturedPageState {
	h.mu.Lock()
	defer h.mu.Unlock()
	state := h.pending
	h.pending = nil
	return state
}

// HasPending reports whether a captured state awaits the next load.
func (h *Handle) HasPending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending != nil
}

// Interstitial reports whether the view is showing a blocking interstitial.
func (h *Handle) Interstitial() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interstitial
}

// SetInterstitial marks the view as interstitial. While set, re-show calls
// must not re-attach the surface.
func (h *Handle) SetInterstitial(v bool) {
	h.mu.Lock()
	h.interstitial = v
	h.mu.Unlock()
}

// Docked reports whether the view is pinned beside the active one.
func (h *Handle) Docked() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.docked
}

// SetDocked marks the view as docked.
func (h *Handle) SetDocked(v bool) {
	h.mu.Lock()
	h.docked = v
	h.mu.Unlock()
}

// BackgroundedAt returns when the view last lost visibility, or nil while
// it is visible.
func (h *Handle) BackgroundedAt() *time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.backgroundedAt
}

func (h *Handle) markBackgrounded(at time.Time) {
	h.mu.Lock()
	h.backgroundedAt = &at
	h.mu.Unlock()
}

func (h *Handle) markForegrounded() {
	h.mu.Lock()
	h.backgroundedAt = nil
	h.mu.Unlock()
}

// info snapshots the handle for the UI. The caller supplies the active
// flag, which only the registry knows.
func (h *Handle) info(active bool) types.ViewInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return types.ViewInfo{
		WorkspaceID:     h.Key.WorkspaceID,
		PageID:          h.Key.PageID,
		URL:             h.url,
		Title:           h.title,
		Bounds:          h.bounds,
		Active:          active,
		Docked:          h.docked,
		Interstitial:    h.interstitial,
		HasPendingState: h.pending != nil,
		BackgroundedAt:  h.backgroundedAt,
	}
}
