package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/engine"
	"github.com/flowscape/flowscape/backend/internal/shared/id"
	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

// fullscreenBinding is the name the in-page listener calls on transitions.
const fullscreenBinding = "__flowscapeFullscreen"

const fullscreenListener = `
window.addEventListener('fullscreenchange', function() {
	if (window.` + fullscreenBinding + `) {
		window.` + fullscreenBinding + `(!!document.fullscreenElement);
	}
});`

// Surface is one Chromium page.
type Surface struct {
	sid    id.SurfaceID
	page   *rod.Page
	eng    *Engine
	logger *zap.Logger

	hook  engine.RequestHook
	popup engine.PopupHandler

	mu      sync.Mutex
	bounds  types.Bounds
	zoom    float64
	closed  bool
	events  chan engine.Event
	router  *rod.HijackRouter
	reqURLs map[proto.NetworkRequestID]string
}

func newSurface(page *rod.Page, eng *Engine, opts engine.SurfaceOptions, logger *zap.Logger) *Surface {
	return &Surface{
		sid:     id.NewSurfaceID(),
		page:    page,
		eng:     eng,
		logger:  logger,
		hook:    opts.RequestHook,
		popup:   opts.PopupHandler,
		bounds:  opts.Bounds,
		zoom:    1.0,
		events:  make(chan engine.Event, 64),
		reqURLs: make(map[proto.NetworkRequestID]string),
	}
}

func (s *Surface) init(ctx context.Context, opts engine.SurfaceOptions) error {
	if err := (proto.NetworkEnable{}).Call(s.page); err != nil {
		return fmt.Errorf("enable network events: %w", err)
	}
	if err := s.applyBounds(opts.Bounds); err != nil {
		return err
	}
	if opts.ZoomFactor > 0 {
		if err := s.SetZoom(ctx, opts.ZoomFactor); err != nil {
			return err
		}
	}

	if s.hook != nil {
		s.router = s.page.HijackRequests()
		err := s.router.Add("*", "", func(h *rod.Hijack) {
			if s.hook(h.Request.URL().String()) {
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
			h.ContinueRequest(&proto.FetchContinueRequest{})
		})
		if err != nil {
			return fmt.Errorf("install request hook: %w", err)
		}
		go s.router.Run()
	}

	if _, err := s.page.Expose(fullscreenBinding, s.onFullscreenBinding); err != nil {
		return fmt.Errorf("expose fullscreen binding: %w", err)
	}
	if _, err := s.page.EvalOnNewDocument(fullscreenListener); err != nil {
		return fmt.Errorf("install fullscreen listener: %w", err)
	}

	go s.stream()
	return nil
}

func (s *Surface) onFullscreenBinding(v gson.JSON) (interface{}, error) {
	s.deliver(engine.FullscreenChanged{Entered: v.Bool()})
	return nil, nil
}

// stream translates DevTools events into engine events until the page goes
// away.
func (s *Surface) stream() {
	wait := s.page.EachEvent(
		func(e *proto.PageLoadEventFired) {
			if info, err := s.page.Info(); err == nil {
				s.deliver(engine.LoadFinished{URL: info.URL})
				if info.Title != "" {
					s.deliver(engine.TitleChanged{Title: info.Title})
				}
			}
		},
		func(e *proto.PageFrameNavigated) {
			if e.Frame.ParentID == "" {
				s.deliver(engine.URLChanged{URL: e.Frame.URL})
			}
		},
		func(e *proto.NetworkRequestWillBeSent) {
			s.mu.Lock()
			s.reqURLs[e.RequestID] = e.Request.URL
			s.mu.Unlock()
		},
		func(e *proto.NetworkLoadingFailed) {
			s.mu.Lock()
			url := s.reqURLs[e.RequestID]
			delete(s.reqURLs, e.RequestID)
			s.mu.Unlock()
			if e.Canceled {
				return
			}
			s.deliver(engine.LoadFailed{
				URL:       url,
				Code:      netErrorCode(e.ErrorText),
				MainFrame: e.Type == proto.NetworkResourceTypeDocument,
			})
		},
		func(e *proto.TargetTargetCreated) {
			s.onPopup(e)
		},
	)
	wait()
}

// onPopup applies the popup policy to windows opened by this page.
func (s *Surface) onPopup(e *proto.TargetTargetCreated) {
	if s.popup == nil || e.TargetInfo.OpenerID == "" {
		return
	}
	if e.TargetInfo.OpenerID != s.page.TargetID {
		return
	}
	target := e.TargetInfo.URL

	switch s.popup(target) {
	case engine.PopupDeny:
		s.closeTarget(e.TargetInfo.TargetID)
	case engine.PopupAllowNative:
		// The window stays; Chromium already owns it.
	case engine.PopupFlatten:
		s.closeTarget(e.TargetInfo.TargetID)
		if err := s.Navigate(context.Background(), target); err != nil {
			s.logger.Warn("popup flatten navigation failed",
				zap.String("url", target),
				zap.Error(err),
			)
		}
	}
}

func (s *Surface) closeTarget(targetID proto.TargetTargetID) {
	_, err := proto.TargetCloseTarget{TargetID: targetID}.Call(s.page)
	if err != nil {
		s.logger.Debug("failed to close popup target", zap.Error(err))
	}
}

func (s *Surface) deliver(ev engine.Event) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("event channel full, dropping event")
	}
}

func (s *Surface) ID() id.SurfaceID { return s.sid }

func (s *Surface) Navigate(ctx context.Context, url string) error {
	return s.page.Context(ctx).Navigate(url)
}

func (s *Surface) Back(ctx context.Context) error {
	return s.page.Context(ctx).NavigateBack()
}

func (s *Surface) Forward(ctx context.Context) error {
	return s.page.Context(ctx).NavigateForward()
}

func (s *Surface) Reload(ctx context.Context) error {
	return s.page.Context(ctx).Reload()
}

func (s *Surface) URL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Show attaches the page to the foreground and resumes its lifecycle.
func (s *Surface) Show() error {
	if err := (proto.PageSetWebLifecycleState{State: proto.PageSetWebLifecycleStateStateActive}).Call(s.page); err != nil {
		return err
	}
	_, err := s.page.Activate()
	return err
}

// Hide freezes the page. Frozen pages stop timers and rendering work but
// keep their full state for reactivation.
func (s *Surface) Hide() error {
	return proto.PageSetWebLifecycleState{State: proto.PageSetWebLifecycleStateStateFrozen}.Call(s.page)
}

func (s *Surface) SetBounds(b types.Bounds) error {
	if err := s.applyBounds(b); err != nil {
		return err
	}
	s.mu.Lock()
	s.bounds = b
	s.mu.Unlock()
	return nil
}

func (s *Surface) applyBounds(b types.Bounds) error {
	if b.Width == 0 && b.Height == 0 {
		return nil
	}
	return proto.EmulationSetDeviceMetricsOverride{
		Width:  b.Width,
		Height: b.Height,
		Mobile: false,
	}.Call(s.page)
}

func (s *Surface) Bounds() types.Bounds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

// Eval runs a registered snippet inside the page and decodes its JSON reply.
func (s *Surface) Eval(ctx context.Context, script string, args []any, out any) error {
	opts := rod.Eval(script, args...).ByPromise()
	res, err := s.page.Context(ctx).Evaluate(opts)
	if err != nil {
		return fmt.Errorf("eval snippet: %w", err)
	}
	if out == nil {
		return nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal eval result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode eval result: %w", err)
	}
	return nil
}

func (s *Surface) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

func (s *Surface) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Context(ctx).Screenshot(false, nil)
}

func (s *Surface) SetZoom(ctx context.Context, factor float64) error {
	err := proto.EmulationSetPageScaleFactor{PageScaleFactor: factor}.Call(s.page.Context(ctx))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.zoom = factor
	s.mu.Unlock()
	return nil
}

func (s *Surface) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// ToggleDevTools is a best-effort hint: the DevTools frontend is owned by
// the desktop shell, which watches for this log line in dev builds.
func (s *Surface) ToggleDevTools(context.Context) error {
	s.logger.Info("devtools toggle requested", zap.String("surface_id", s.sid.String()))
	return nil
}

func (s *Surface) Events() <-chan engine.Event { return s.events }

func (s *Surface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	router := s.router
	s.mu.Unlock()

	if router != nil {
		_ = router.Stop()
	}
	err := s.page.Close()
	close(s.events)
	s.eng.forget(s)
	return err
}
