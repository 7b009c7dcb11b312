package types

// UIEvent is a typed notification pushed to the UI collaborator over the
// event stream. Each event carries its own wire tag.
type UIEvent interface {
	EventType() string
}

// ViewURLUpdated reports a navigation or redirect in a live view.
type ViewURLUpdated struct {
	WorkspaceID string `json:"workspace_id"`
	PageID      string `json:"page_id"`
	URL         string `json:"url"`
}

// ViewTitleUpdated reports a document title change.
type ViewTitleUpdated struct {
	WorkspaceID string `json:"workspace_id"`
	PageID      string `json:"page_id"`
	Title       string `json:"title"`
}

// RestoreResult reports the outcome of a state restoration for toast feedback.
type RestoreResult struct {
	PageID  string        `json:"page_id"`
	Method  RestoreMethod `json:"method"`
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
}

// LoadInterstitial asks the UI to render a security interstitial for a page
// whose automatic HTTPS upgrade failed.
type LoadInterstitial struct {
	WorkspaceID string `json:"workspace_id"`
	PageID      string `json:"page_id"`
	URL         string `json:"url"`
	Error       int    `json:"error"`
	OriginalURL string `json:"original_url"`
}

// FullscreenChanged reports a view entering or leaving fullscreen.
type FullscreenChanged struct {
	PageID       string `json:"page_id"`
	IsFullscreen bool   `json:"is_fullscreen"`
}

// StateCaptured hands a freshly captured page state to the persistence layer.
type StateCaptured struct {
	WorkspaceID string            `json:"workspace_id"`
	PageID      string            `json:"page_id"`
	State       CapturedPageState `json:"state"`
}

// BlockerStatusChanged reports blocker toggles and counter updates.
type BlockerStatusChanged struct {
	Status BlockerStatus `json:"status"`
}

func (ViewURLUpdated) EventType() string       { return "viewUrlUpdated" }
func (ViewTitleUpdated) EventType() string     { return "viewTitleUpdated" }
func (RestoreResult) EventType() string        { return "restoreResult" }
func (LoadInterstitial) EventType() string     { return "loadInterstitial" }
func (FullscreenChanged) EventType() string    { return "fullscreenChanged" }
func (StateCaptured) EventType() string        { return "stateCaptured" }
func (BlockerStatusChanged) EventType() string { return "blockerStatus" }
