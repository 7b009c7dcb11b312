package types

// Anchor is a text fingerprint of the content the user was reading.
// It survives layout changes that invalidate raw pixel offsets.
type Anchor struct {
	Text   string  `json:"text"`   // first ~120 chars of the anchored element's text
	Tag    string  `json:"tag"`    // element tag name, e.g. "P" or "H2"
	Offset float64 `json:"offset"` // scrollY - element.offsetTop at capture time
}

// CapturedPageState is a snapshot of a page's reading position, taken just
// before the page loses visibility and replayed after its next load.
type CapturedPageState struct {
	URL         string            `json:"url"`
	ScrollX     float64           `json:"scrollX"`
	ScrollY     float64           `json:"scrollY"`
	ScrollRatio float64           `json:"scrollRatio,omitempty"`
	ZoomFactor  float64           `json:"zoomFactor,omitempty"`
	FormData    map[string]string `json:"formData,omitempty"`
	Anchor      *Anchor           `json:"anchor,omitempty"`
}

// RestoreMethod names the strategy that decided a restoration attempt.
type RestoreMethod string

const (
	RestoreAnchor RestoreMethod = "anchor"
	RestoreRatio  RestoreMethod = "ratio"
	RestorePixel  RestoreMethod = "pixel"
	RestoreTop    RestoreMethod = "top"
	RestoreNone   RestoreMethod = "none"
)

// RestoreOutcome reports how a restoration attempt ended. Used only for UI
// feedback, never persisted.
type RestoreOutcome struct {
	Method  RestoreMethod `json:"method"`
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
}
