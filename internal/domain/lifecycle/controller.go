// Package lifecycle orchestrates view creation, load-failure triage, popup
// interception, fullscreen transitions, and teardown.
package lifecycle

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/flowscape/flowscape/backend/internal/domain/blocker"
	"github.com/flowscape/flowscape/backend/internal/domain/state"
	"github.com/flowscape/flowscape/backend/internal/domain/view"
	"github.com/flowscape/flowscape/backend/internal/engine"
	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

// Emitter pushes typed events to the UI collaborator. The websocket hub
// implements it; tests use a recording stub.
type Emitter interface {
	Emit(ev types.UIEvent)
}

// Config tunes the controller's policy tables and initial geometry.
type Config struct {
	// AuthDomains are hosts whose blocked embedded logins hand off to the
	// system browser.
	AuthDomains []string
	// OAuthPopupDomains are identity providers whose popups open as real
	// native windows. Entries that are registrable domains cover every
	// subdomain.
	OAuthPopupDomains []string
	// WindowBounds is the full application window, used for fullscreen.
	WindowBounds types.Bounds
	// DefaultViewBounds is applied to new surfaces before the first resize.
	DefaultViewBounds types.Bounds
}

func (c *Config) applyDefaults() {
	if len(c.AuthDomains) == 0 {
		c.AuthDomains = defaultAuthDomains
	}
	if len(c.OAuthPopupDomains) == 0 {
		c.OAuthPopupDomains = defaultOAuthPopupDomains
	}
}

// Controller wires the engine, registry, blocker, and capture/restore
// pipeline together. All registry mutations funnel through it.
type Controller struct {
	eng      engine.Engine
	registry *view.Registry
	blocker  *blocker.Engine
	capturer *state.Capturer
	restorer *state.Restorer
	emitter  Emitter
	logger   *zap.Logger

	authDomains  map[string]struct{}
	oauthExact   map[string]struct{}
	oauthDomains map[string]struct{}

	mu     sync.Mutex
	window types.Bounds
	bounds types.Bounds

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a controller and its owned view registry.
func New(eng engine.Engine, blk *blocker.Engine, capturer *state.Capturer, restorer *state.Restorer, emitter Emitter, cfg Config, logger *zap.Logger) *Controller {
	cfg.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		eng:          eng,
		blocker:      blk,
		capturer:     capturer,
		restorer:     restorer,
		emitter:      emitter,
		logger:       logger,
		authDomains:  make(map[string]struct{}, len(cfg.AuthDomains)),
		oauthExact:   make(map[string]struct{}, len(cfg.OAuthPopupDomains)),
		oauthDomains: make(map[string]struct{}),
		window:       cfg.WindowBounds,
		bounds:       cfg.DefaultViewBounds,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, d := range cfg.AuthDomains {
		c.authDomains[strings.ToLower(d)] = struct{}{}
	}
	for _, d := range cfg.OAuthPopupDomains {
		d = strings.ToLower(d)
		c.oauthExact[d] = struct{}{}
		if etld, err := publicsuffix.EffectiveTLDPlusOne(d); err == nil && etld == d {
			c.oauthDomains[d] = struct{}{}
		}
	}
	c.registry = view.NewRegistry(c.createSurface, logger)
	return c
}

// Registry exposes the view registry for read-only queries.
func (c *Controller) Registry() *view.Registry {
	return c.registry
}

// createSurface is the registry's surface factory: it binds the block hook
// and popup policy to the new view and starts its event pump.
func (c *Controller) createSurface(ctx context.Context, key types.ViewKey, rawURL string) (engine.Surface, error) {
	c.mu.Lock()
	bounds := c.bounds
	c.mu.Unlock()

	surface, err := c.eng.CreateSurface(ctx, engine.SurfaceOptions{
		URL:          rawURL,
		Bounds:       bounds,
		RequestHook:  c.blocker.ShouldBlockRequest,
		PopupHandler: c.popupVerdict,
	})
	if err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.pump(key, surface)
	}()
	return surface, nil
}

// popupVerdict decides what happens to a new-window request. Everything that
// survives the blocker and is not a native-window identity flow gets
// flattened into the requesting surface: there is no user-facing tab.
func (c *Controller) popupVerdict(targetURL string) engine.PopupAction {
	if c.blocker.ShouldBlockPopup(targetURL) {
		c.logger.Debug("popup blocked", zap.String("url", targetURL))
		return engine.PopupDeny
	}
	if c.isOAuthPopup(targetURL) {
		c.logger.Info("popup allowed as native window", zap.String("url", targetURL))
		return engine.PopupAllowNative
	}
	return engine.PopupFlatten
}

func (c *Controller) isOAuthPopup(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}
	if _, ok := c.oauthExact[host]; ok {
		return true
	}
	etld, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	_, ok := c.oauthDomains[etld]
	return ok
}

// pump consumes one surface's event feed until the surface closes.
func (c *Controller) pump(key types.ViewKey, surface engine.Surface) {
	for ev := range surface.Events() {
		h, ok := c.registry.Get(key)
		if !ok {
			// Teardown raced the event; the surface is on its way out.
			continue
		}
		switch e := ev.(type) {
		case engine.URLChanged:
			h.SetURL(e.URL)
			c.emit(types.ViewURLUpdated{WorkspaceID: key.WorkspaceID, PageID: key.PageID, URL: e.URL})
		case engine.TitleChanged:
			h.SetTitle(e.Title)
			c.emit(types.ViewTitleUpdated{WorkspaceID: key.WorkspaceID, PageID: key.PageID, Title: e.Title})
		case engine.LoadFinished:
			c.onLoadFinished(h)
		case engine.LoadFailed:
			c.onLoadFailed(h, e)
		case engine.FullscreenChanged:
			c.onFullscreen(h, e.Entered)
		}
	}
}

// onLoadFinished runs the restore cascade when a pending captured state is
// attached. The state is consumed on the first attempt, win or lose.
func (c *Controller) onLoadFinished(h *view.Handle) {
	pending := h.TakePending()
	if pending == nil {
		return
	}
	outcome := c.restorer.Restore(c.ctx, h.Surface, pending)
	c.emit(types.RestoreResult{
		PageID:  h.Key.PageID,
		Method:  outcome.Method,
		Success: outcome.Success,
		Message: outcome.Message,
	})
}

// onLoadFailed triages main-frame failures. Subframe failures are dropped:
// a blocked ad iframe must never trigger user-facing handling.
func (c *Controller) onLoadFailed(h *view.Handle, e engine.LoadFailed) {
	if !e.MainFrame {
		return
	}
	host := hostnameOf(e.URL)

	if _, auth := c.authDomains[host]; auth && isAuthBlocked(e.Code) {
		c.logger.Info("auth blocked in embedded context, opening system browser",
			zap.String("url", e.URL),
			zap.Int("code", e.Code),
		)
		if err := c.eng.OpenNative(c.ctx, e.URL); err != nil {
			c.logger.Warn("system browser handoff failed", zap.Error(err))
		}
		return
	}

	if isSSLFailure(e.Code) {
		// The surface hides behind the interstitial until the user
		// decides; the flag keeps stray re-shows from leaking the page.
		h.SetInterstitial(true)
		if err := h.Surface.Hide(); err != nil {
			c.logger.Warn("failed to hide view for interstitial", zap.Error(err))
		}
		c.emit(types.LoadInterstitial{
			WorkspaceID: h.Key.WorkspaceID,
			PageID:      h.Key.PageID,
			URL:         e.URL,
			Error:       e.Code,
			OriginalURL: downgradeToHTTP(e.URL),
		})
		return
	}

	c.logger.Debug("unhandled load failure",
		zap.String("url", e.URL),
		zap.Int("code", e.Code),
	)
}

// onFullscreen expands to the full window on enter and restores the exact
// tracked bounds on exit, never a recomputed layout.
func (c *Controller) onFullscreen(h *view.Handle, entered bool) {
	if entered {
		c.mu.Lock()
		window := c.window
		c.mu.Unlock()
		if err := h.Surface.SetBounds(window); err != nil {
			c.logger.Warn("fullscreen expand failed", zap.Error(err))
		}
	} else {
		if err := h.Surface.SetBounds(h.TrackedBounds()); err != nil {
			c.logger.Warn("fullscreen restore failed", zap.Error(err))
		}
	}
	c.emit(types.FullscreenChanged{PageID: h.Key.PageID, IsFullscreen: entered})
}

// CreateView ensures a view exists for the page and makes it active.
// Creating an existing view degenerates into a plain select.
func (c *Controller) CreateView(ctx context.Context, workspaceID, pageID, rawURL string, pending *types.CapturedPageState) error {
	key := types.ViewKey{WorkspaceID: workspaceID, PageID: pageID}
	if _, _, err := c.registry.Create(ctx, key, rawURL, pending); err != nil {
		return err
	}
	return c.SelectView(ctx, workspaceID, pageID, rawURL, nil)
}

// SelectView activates the view for the page, capturing the outgoing view's
// state first so its reading position survives the switch. An empty pageID
// deactivates only.
func (c *Controller) SelectView(ctx context.Context, workspaceID, pageID, rawURL string, pending *types.CapturedPageState) error {
	c.captureOutgoing(ctx, types.ViewKey{WorkspaceID: workspaceID, PageID: pageID})
	_, err := c.registry.Select(ctx, workspaceID, pageID, rawURL, pending)
	return err
}

// captureOutgoing snapshots the active view before it loses visibility,
// unless it is the one being selected.
func (c *Controller) captureOutgoing(ctx context.Context, next types.ViewKey) {
	prev := c.registry.Active()
	if prev == nil || prev.Key == next {
		return
	}
	captured := c.capturer.Capture(ctx, prev.Surface)
	if captured == nil {
		return
	}
	prev.SetPending(captured)
	c.emit(types.StateCaptured{
		WorkspaceID: prev.Key.WorkspaceID,
		PageID:      prev.Key.PageID,
		State:       *captured,
	})
}

// CaptureState snapshots a view on demand, e.g. before quit.
func (c *Controller) CaptureState(ctx context.Context, workspaceID, pageID string) (*types.CapturedPageState, error) {
	h, ok := c.registry.Get(types.ViewKey{WorkspaceID: workspaceID, PageID: pageID})
	if !ok {
		return nil, view.ErrViewNotFound
	}
	return c.capturer.Capture(ctx, h.Surface), nil
}

// RestoreState runs the cascade immediately against a loaded view, using
// the supplied state or the view's pending one.
func (c *Controller) RestoreState(ctx context.Context, workspaceID, pageID string, st *types.CapturedPageState) (types.RestoreOutcome, error) {
	h, ok := c.registry.Get(types.ViewKey{WorkspaceID: workspaceID, PageID: pageID})
	if !ok {
		return types.RestoreOutcome{}, view.ErrViewNotFound
	}
	if st == nil {
		st = h.TakePending()
	}
	outcome := c.restorer.Restore(ctx, h.Surface, st)
	c.emit(types.RestoreResult{
		PageID:  pageID,
		Method:  outcome.Method,
		Success: outcome.Success,
		Message: outcome.Message,
	})
	return outcome, nil
}

// ResizeView applies bounds to a specific view, or the active one when both
// ids are empty. The controller remembers the bounds as the default for
// future surfaces.
func (c *Controller) ResizeView(bounds types.Bounds, workspaceID, pageID string) error {
	c.mu.Lock()
	c.bounds = bounds
	c.mu.Unlock()

	if workspaceID == "" && pageID == "" {
		return c.registry.Resize(bounds, nil)
	}
	key := types.ViewKey{WorkspaceID: workspaceID, PageID: pageID}
	return c.registry.Resize(bounds, &key)
}

// SetWindowBounds records the full application window geometry, the target
// of fullscreen expansion.
func (c *Controller) SetWindowBounds(b types.Bounds) {
	c.mu.Lock()
	c.window = b
	c.mu.Unlock()
}

// DockView pins or unpins a view as the secondary split pane.
func (c *Controller) DockView(workspaceID, pageID string, docked bool) error {
	return c.registry.SetDocked(types.ViewKey{WorkspaceID: workspaceID, PageID: pageID}, docked)
}

// RemoveView destroys one view.
func (c *Controller) RemoveView(workspaceID, pageID string) error {
	return c.registry.Remove(types.ViewKey{WorkspaceID: workspaceID, PageID: pageID})
}

// RemoveWorkspaceViews destroys every view under a workspace.
func (c *Controller) RemoveWorkspaceViews(workspaceID string) int {
	return c.registry.RemoveAll(workspaceID)
}

// ToggleBlocker flips the blocker and broadcasts the new status.
func (c *Controller) ToggleBlocker() bool {
	enabled := c.blocker.Toggle()
	c.emit(types.BlockerStatusChanged{Status: c.blocker.Status()})
	return enabled
}

// BlockerStatus returns the blocker snapshot.
func (c *Controller) BlockerStatus() types.BlockerStatus {
	return c.blocker.Status()
}

// Views lists every registered view.
func (c *Controller) Views() []types.ViewInfo {
	return c.registry.List()
}

// Back navigates the view's history backwards.
func (c *Controller) Back(ctx context.Context, workspaceID, pageID string) error {
	h, err := c.handle(workspaceID, pageID)
	if err != nil {
		return err
	}
	return h.Surface.Back(ctx)
}

// Forward navigates the view's history forwards.
func (c *Controller) Forward(ctx context.Context, workspaceID, pageID string) error {
	h, err := c.handle(workspaceID, pageID)
	if err != nil {
		return err
	}
	return h.Surface.Forward(ctx)
}

// Reload reloads the view. A reload clears the interstitial flag: the user
// chose to retry.
func (c *Controller) Reload(ctx context.Context, workspaceID, pageID string) error {
	h, err := c.handle(workspaceID, pageID)
	if err != nil {
		return err
	}
	h.SetInterstitial(false)
	return h.Surface.Reload(ctx)
}

// Screenshot captures the view's pixels.
func (c *Controller) Screenshot(ctx context.Context, workspaceID, pageID string) ([]byte, error) {
	h, err := c.handle(workspaceID, pageID)
	if err != nil {
		return nil, err
	}
	return h.Surface.Screenshot(ctx)
}

// HTML returns the view's raw document markup.
func (c *Controller) HTML(ctx context.Context, workspaceID, pageID string) (string, error) {
	h, err := c.handle(workspaceID, pageID)
	if err != nil {
		return "", err
	}
	return h.Surface.HTML(ctx)
}

// ToggleDevTools opens or closes the view's devtools panel.
func (c *Controller) ToggleDevTools(ctx context.Context, workspaceID, pageID string) error {
	h, err := c.handle(workspaceID, pageID)
	if err != nil {
		return err
	}
	return h.Surface.ToggleDevTools(ctx)
}

// handle resolves (workspaceID, pageID), defaulting to the active view when
// both are empty.
func (c *Controller) handle(workspaceID, pageID string) (*view.Handle, error) {
	if workspaceID == "" && pageID == "" {
		if h := c.registry.Active(); h != nil {
			return h, nil
		}
		return nil, view.ErrViewNotFound
	}
	h, ok := c.registry.Get(types.ViewKey{WorkspaceID: workspaceID, PageID: pageID})
	if !ok {
		return nil, view.ErrViewNotFound
	}
	return h, nil
}

// Close deactivates everything and shuts the engine down. Pumps drain as
// their surfaces close.
func (c *Controller) Close() error {
	c.registry.Deactivate()
	err := c.eng.Close()
	c.cancel()
	c.wg.Wait()
	return err
}

func (c *Controller) emit(ev types.UIEvent) {
	if c.emitter != nil {
		c.emitter.Emit(ev)
	}
}

func hostnameOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// downgradeToHTTP rewrites an https URL to its pre-upgrade http form for
// the interstitial's "allow insecure and retry" action.
func downgradeToHTTP(rawURL string) string {
	if strings.HasPrefix(rawURL, "https://") {
		return "http://" + strings.TrimPrefix(rawURL, "https://")
	}
	return rawURL
}
