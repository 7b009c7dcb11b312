package engine

// Event is a lifecycle notification from a live surface. Concrete types are
// distinguished by type switch; adding an event type must not break existing
// consumers, so unknown events are always safe to ignore.
type Event interface {
	isEvent()
}

// LoadFinished fires when a main-frame load completes.
type LoadFinished struct {
	URL string
}

// LoadFailed fires when a frame fails to load. MainFrame distinguishes the
// page itself from subresource frames (ads, trackers), which never warrant
// user-facing handling.
type LoadFailed struct {
	URL       string
	Code      int
	MainFrame bool
}

// URLChanged fires on navigation and redirects.
type URLChanged struct {
	URL string
}

// TitleChanged fires when the document title changes.
type TitleChanged struct {
	Title string
}

// FullscreenChanged fires when page content enters or leaves fullscreen.
type FullscreenChanged struct {
	Entered bool
}

func (LoadFinished) isEvent()      {}
func (LoadFailed) isEvent()        {}
func (URLChanged) isEvent()        {}
func (TitleChanged) isEvent()      {}
func (FullscreenChanged) isEvent() {}
