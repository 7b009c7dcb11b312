// Package view owns the map of workspace pages to rendering surfaces and
// enforces the single-active-view invariant.
package view

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/engine"
	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

// ErrViewNotFound is returned when a select names a view that does not
// exist and supplies no URL to lazily create it from.
var ErrViewNotFound = errors.New("view not found")

// SurfaceFactory allocates a surface for a new view. The controller
// supplies it with the block hook and popup handler already bound to key.
type SurfaceFactory func(ctx context.Context, key types.ViewKey, url string) (engine.Surface, error)

// Registry is the owning map of (workspace, page) to view handles. At most
// one handle is active at any instant; activating a new one always
// deactivates the previous one first, so two surfaces are never visible
// at once.
type Registry struct {
	mu      sync.Mutex
	views   map[types.ViewKey]*Handle
	active  *Handle
	factory SurfaceFactory
	logger  *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(factory SurfaceFactory, logger *zap.Logger) *Registry {
	return &Registry{
		views:   make(map[types.ViewKey]*Handle),
		factory: factory,
		logger:  logger,
	}
}

// Create ensures a handle exists for key. If one already exists the call is
// idempotent: no new surface, no re-navigation; a non-nil pending state
// still overwrites the existing handle's pending state. The second return
// reports whether a surface was actually created.
func (r *Registry) Create(ctx context.Context, key types.ViewKey, url string, pending *types.CapturedPageState) (*Handle, bool, error) {
	r.mu.Lock()
	if h, ok := r.views[key]; ok {
		r.mu.Unlock()
		if pending != nil {
			h.SetPending(pending)
		}
		return h, false, nil
	}
	r.mu.Unlock()

	surface, err := r.factory(ctx, key, url)
	if err != nil {
		return nil, false, err
	}

	h := &Handle{Key: key, Surface: surface}
	h.url = url
	h.pending = pending

	r.mu.Lock()
	if existing, ok := r.views[key]; ok {
		// Lost a race with a concurrent create for the same key.
		r.mu.Unlock()
		_ = surface.Close()
		if pending != nil {
			existing.SetPending(pending)
		}
		return existing, false, nil
	}
	r.views[key] = h
	r.mu.Unlock()

	r.logger.Info("view created",
		zap.String("workspace_id", key.WorkspaceID),
		zap.String("page_id", key.PageID),
		zap.String("url", url),
	)
	return h, true, nil
}

// Select makes the view for (workspaceID, pageID) the single active one,
// deactivating whatever was active before. An empty pageID deactivates only,
// leaving no view active (workspace overview). If the view does not exist
// and url is non-empty it is lazily created first; state, when non-nil,
// becomes the view's pending restoration payload.
func (r *Registry) Select(ctx context.Context, workspaceID, pageID, url string, state *types.CapturedPageState) (*Handle, error) {
	if pageID == "" {
		r.Deactivate()
		return nil, nil
	}

	key := types.ViewKey{WorkspaceID: workspaceID, PageID: pageID}
	r.mu.Lock()
	h, ok := r.views[key]
	r.mu.Unlock()

	created := false
	if !ok {
		if url == "" {
			return nil, ErrViewNotFound
		}
		var err error
		h, created, err = r.Create(ctx, key, url, state)
		if err != nil {
			return nil, err
		}
	}
	if state != nil && !created {
		h.SetPending(state)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// The lock was released around Create, so the handle may have been
	// removed (or removed and re-created) in the meantime. Activating a
	// destroyed surface would leave the window pointing at nothing.
	cur, ok := r.views[key]
	if !ok {
		return nil, ErrViewNotFound
	}
	h = cur
	if r.active == h {
		return h, nil
	}
	r.deactivateLocked()
	r.activateLocked(h)
	return h, nil
}

// Deactivate hides the active view, if any, leaving none active.
func (r *Registry) Deactivate() {
	r.mu.Lock()
	r.deactivateLocked()
	r.mu.Unlock()
}

// deactivateLocked detaches the active handle from the window. Deactivation
// always happens before a new activation: two undocked surfaces must never
// be visible at the same time. A docked handle gives up activation but
// stays on screen as the secondary pane.
func (r *Registry) deactivateLocked() {
	if r.active == nil {
		return
	}
	prev := r.active
	r.active = nil
	if prev.Docked() {
		return
	}
	if err := prev.Surface.Hide(); err != nil {
		r.logger.Warn("failed to hide view",
			zap.String("page_id", prev.Key.PageID),
			zap.Error(err),
		)
	}
	prev.markBackgrounded(time.Now())
}

func (r *Registry) activateLocked(h *Handle) {
	r.active = h
	h.markForegrounded()
	if h.Interstitial() {
		// The interstitial stays up until the user decides; showing the
		// surface now would leak the insecure page behind it.
		return
	}
	if err := h.Surface.Show(); err != nil {
		r.logger.Warn("failed to show view",
			zap.String("page_id", h.Key.PageID),
			zap.Error(err),
		)
	}
}

// Active returns the currently active handle, or nil.
func (r *Registry) Active() *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Get returns the handle for key, if registered.
func (r *Registry) Get(key types.ViewKey) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.views[key]
	return h, ok
}

// Resize applies bounds to the handle for key, or to the active handle when
// key is nil. The bounds are tracked so fullscreen exit can restore them.
func (r *Registry) Resize(bounds types.Bounds, key *types.ViewKey) error {
	r.mu.Lock()
	h := r.active
	if key != nil {
		h = r.views[*key]
	}
	r.mu.Unlock()

	if h == nil {
		return ErrViewNotFound
	}
	h.setTrackedBounds(bounds)
	return h.Surface.SetBounds(bounds)
}

// SetDocked pins or unpins a view beside the active one. A docked view is
// shown immediately; undocking a view that is not active hides it again.
func (r *Registry) SetDocked(key types.ViewKey, docked bool) error {
	r.mu.Lock()
	h, ok := r.views[key]
	isActive := r.active == h
	r.mu.Unlock()

	if !ok {
		return ErrViewNotFound
	}
	h.SetDocked(docked)
	if isActive {
		return nil
	}
	if docked {
		if h.Interstitial() {
			return nil
		}
		h.markForegrounded()
		return h.Surface.Show()
	}
	h.markBackgrounded(time.Now())
	return h.Surface.Hide()
}

// Remove destroys the view for key. An active view is deactivated first so
// the window never holds a destroyed surface.
func (r *Registry) Remove(key types.ViewKey) error {
	r.mu.Lock()
	h, ok := r.views[key]
	if !ok {
		r.mu.Unlock()
		return ErrViewNotFound
	}
	if r.active == h {
		r.deactivateLocked()
	}
	delete(r.views, key)
	r.mu.Unlock()

	if err := h.Surface.Close(); err != nil {
		r.logger.Warn("failed to close surface",
			zap.String("page_id", key.PageID),
			zap.Error(err),
		)
	}
	r.logger.Info("view removed",
		zap.String("workspace_id", key.WorkspaceID),
		zap.String("page_id", key.PageID),
	)
	return nil
}

// RemoveAll destroys every view under workspaceID. Used on workspace
// deletion; the active pointer never dangles afterwards.
func (r *Registry) RemoveAll(workspaceID string) int {
	r.mu.Lock()
	var doomed []*Handle
	for key, h := range r.views {
		if key.WorkspaceID != workspaceID {
			continue
		}
		if r.active == h {
			r.deactivateLocked()
		}
		delete(r.views, key)
		doomed = append(doomed, h)
	}
	r.mu.Unlock()

	for _, h := range doomed {
		if err := h.Surface.Close(); err != nil {
			r.logger.Warn("failed to close surface",
				zap.String("page_id", h.Key.PageID),
				zap.Error(err),
			)
		}
	}
	if len(doomed) > 0 {
		r.logger.Info("workspace views removed",
			zap.String("workspace_id", workspaceID),
			zap.Int("count", len(doomed)),
		)
	}
	return len(doomed)
}

// List snapshots every registered view, sorted by workspace then page.
func (r *Registry) List() []types.ViewInfo {
	r.mu.Lock()
	out := make([]types.ViewInfo, 0, len(r.views))
	for _, h := range r.views {
		out = append(out, h.info(h == r.active))
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].WorkspaceID != out[j].WorkspaceID {
			return out[i].WorkspaceID < out[j].WorkspaceID
		}
		return out[i].PageID < out[j].PageID
	})
	return out
}

// Count returns the number of registered views.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
