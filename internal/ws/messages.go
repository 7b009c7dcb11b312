package ws

import (
	"encoding/json"

	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

// Request is one command from the UI. Payload decodes per command type;
// a payload that does not match its command is rejected with a typed error
// event, never a dropped connection.
type Request struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Command types accepted over the stream.
const (
	CmdCreateView      = "createView"
	CmdSelectView      = "selectView"
	CmdResizeView      = "resizeView"
	CmdDockView        = "dockView"
	CmdRemoveView      = "removeView"
	CmdRemoveWorkspace = "removeWorkspaceViews"
	CmdCaptureState    = "captureState"
	CmdRestoreState    = "restoreState"
	CmdBlockerStatus   = "getBlockerStatus"
	CmdToggleBlocker   = "toggleBlocker"
	CmdNavBack         = "navBack"
	CmdNavForward      = "navForward"
	CmdReload          = "reload"
	CmdScreenshot      = "screenshot"
	CmdGetHTML         = "getHTML"
	CmdToggleDevTools  = "toggleDevTools"
	CmdPing            = "ping"
)

// ViewPayload addresses one view. An empty pair targets the active view on
// commands that allow it.
type ViewPayload struct {
	WorkspaceID string `json:"workspace_id"`
	PageID      string `json:"page_id"`
}

// CreateViewPayload creates or selects a view.
type CreateViewPayload struct {
	WorkspaceID string                   `json:"workspace_id"`
	PageID      string                   `json:"page_id"`
	URL         string                   `json:"url"`
	State       *types.CapturedPageState `json:"state,omitempty"`
}

// SelectViewPayload activates a view; an empty page id deactivates only.
type SelectViewPayload struct {
	WorkspaceID string                   `json:"workspace_id"`
	PageID      string                   `json:"page_id"`
	URL         string                   `json:"url,omitempty"`
	State       *types.CapturedPageState `json:"state,omitempty"`
}

// ResizeViewPayload applies bounds to a view or the active one.
type ResizeViewPayload struct {
	WorkspaceID string       `json:"workspace_id,omitempty"`
	PageID      string       `json:"page_id,omitempty"`
	Bounds      types.Bounds `json:"bounds"`
}

// DockViewPayload pins or unpins a view as the split-view secondary pane.
type DockViewPayload struct {
	WorkspaceID string `json:"workspace_id"`
	PageID      string `json:"page_id"`
	Docked      bool   `json:"docked"`
}

// WorkspacePayload addresses a whole workspace.
type WorkspacePayload struct {
	WorkspaceID string `json:"workspace_id"`
}

// RestoreStatePayload replays a state against a loaded view. A nil state
// uses the view's pending one.
type RestoreStatePayload struct {
	WorkspaceID string                   `json:"workspace_id"`
	PageID      string                   `json:"page_id"`
	State       *types.CapturedPageState `json:"state,omitempty"`
}

// Envelope is every message the server writes: command results, pushed
// events, and errors share one wire shape.
type Envelope struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}
