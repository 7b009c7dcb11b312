// Package ws serves the UI command stream.
//
// The desktop shell drives the backend over one WebSocket connection:
// typed view commands flow in, typed domain events flow out. Every server
// message shares the Envelope shape, so the shell can dispatch on a single
// type field.
//
// Commands (Client → Server):
//   - createView, selectView, resizeView, dockView, removeView, removeWorkspaceViews
//   - captureState, restoreState
//   - getBlockerStatus, toggleBlocker
//   - navBack, navForward, reload, screenshot, getHTML, toggleDevTools
//   - ping: keep-alive
//
// Events (Server → Client):
//   - viewUrlUpdated, viewTitleUpdated
//   - restoreResult, loadInterstitial, fullscreenChanged
//   - stateCaptured, blockerStatus
//   - result / error: command replies, correlated by request id
//
// Example Usage:
//
//	hub := ws.NewHub(logger, metrics)
//	handler := ws.NewHandler(controller, sanitizer, hub, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
