package types

import "time"

// Bounds is a view's rectangle within the application window.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ViewKey uniquely identifies a view: one page within one workspace.
type ViewKey struct {
	WorkspaceID string `json:"workspace_id"`
	PageID      string `json:"page_id"`
}

// ViewInfo is the UI-facing snapshot of a view handle.
type ViewInfo struct {
	WorkspaceID     string     `json:"workspace_id"`
	PageID          string     `json:"page_id"`
	URL             string     `json:"url"`
	Title           string     `json:"title"`
	Bounds          Bounds     `json:"bounds"`
	Active          bool       `json:"active"`
	Docked          bool       `json:"docked"`
	Interstitial    bool       `json:"interstitial"`
	HasPendingState bool       `json:"has_pending_state"`
	BackgroundedAt  *time.Time `json:"backgrounded_at,omitempty"`
}
