package engine

import (
	"context"

	"github.com/flowscape/flowscape/backend/internal/shared/id"
	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

// RequestHook decides whether a network request from a surface is blocked.
// It must be cheap and non-blocking: the engine calls it on its own
// interception path before any bytes are fetched.
type RequestHook func(url string) bool

// PopupAction is the controller's verdict on a new-window request.
type PopupAction int

const (
	// PopupDeny cancels the new window entirely.
	PopupDeny PopupAction = iota
	// PopupAllowNative lets the engine open a real native window.
	PopupAllowNative
	// PopupFlatten cancels the new window and navigates the requesting
	// surface to the target instead.
	PopupFlatten
)

// PopupHandler is consulted synchronously for every new-window request.
type PopupHandler func(targetURL string) PopupAction

// SurfaceOptions configures a new rendering surface.
type SurfaceOptions struct {
	URL          string
	Bounds       types.Bounds
	ZoomFactor   float64
	RequestHook  RequestHook
	PopupHandler PopupHandler
}

// EvalResult is the decoded return value of an in-page script call.
// Implementations unmarshal the page's JSON reply into the caller's out
// parameter; a nil out discards the reply.
//
// Surface is one embedded rendering surface. All methods that talk to the
// live page are asynchronous round-trips into the page's own execution
// context: they take a context and can fail if the surface navigated away
// or was destroyed mid-call. Callers must treat such errors as "that
// attempt failed", never as fatal.
type Surface interface {
	ID() id.SurfaceID

	// Navigation.
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Reload(ctx context.Context) error
	URL(ctx context.Context) (string, error)

	// Visibility and geometry. Show/Hide attach and detach the surface
	// from the visible window without destroying it.
	Show() error
	Hide() error
	SetBounds(b types.Bounds) error
	Bounds() types.Bounds

	// Page access. Eval runs a registered script snippet inside the
	// document context, passing args and decoding the JSON reply into out.
	Eval(ctx context.Context, script string, args []any, out any) error
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	SetZoom(ctx context.Context, factor float64) error
	// Zoom returns the last zoom factor applied to the surface, 1.0 if
	// never changed.
	Zoom() float64
	ToggleDevTools(ctx context.Context) error

	// Events delivers lifecycle events until Close. The channel is closed
	// when the surface is destroyed.
	Events() <-chan Event

	Close() error
}

// Engine creates and owns rendering surfaces.
type Engine interface {
	CreateSurface(ctx context.Context, opts SurfaceOptions) (Surface, error)
	// OpenNative opens a URL in a real native window of the engine,
	// outside any workspace. Used for allow-listed auth popups.
	OpenNative(ctx context.Context, url string) error
	Close() error
}
