// Package enginetest provides an in-memory engine implementation for tests.
//
// The fake surface simulates just enough of a document (scroll geometry,
// block elements, form fields) to exercise the capture and restoration
// pipelines deterministically, including pages that refuse to settle.
package enginetest

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/flowscape/flowscape/backend/internal/engine"
	"github.com/flowscape/flowscape/backend/internal/engine/script"
	"github.com/flowscape/flowscape/backend/internal/shared/id"
	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

// ErrClosed is returned by any call against a closed surface.
var ErrClosed = errors.New("surface closed")

// Element is a simulated block-level element.
type Element struct {
	Tag       string
	Text      string
	OffsetTop float64
	ViewTop   float64 // bounding rect top relative to viewport
}

// Document is the simulated page a fake surface renders.
type Document struct {
	Title          string
	ScrollX        float64
	ScrollY        float64
	DocHeight      float64
	ViewportHeight float64
	Elements       []Element
	FormValues     map[string]string // current field values by id-or-name
	FormFields     []string          // fields that exist on the page

	// ScrollClamp, when set, overrides where a requested scroll actually
	// lands. Use it to simulate pages that have not finished rendering.
	ScrollClamp func(requested float64) float64
}

// MaxScroll returns the page's maximum scroll position.
func (d *Document) MaxScroll() float64 {
	m := d.DocHeight - d.ViewportHeight
	if m < 0 {
		return 0
	}
	return m
}

// Surface is a scriptable fake rendering surface.
type Surface struct {
	mu      sync.Mutex
	sid     id.SurfaceID
	url     string
	visible bool
	bounds  types.Bounds
	zoom    float64
	closed  bool
	events  chan engine.Event

	Doc *Document

	// Failure injection.
	EvalErr     error // returned by every Eval when set
	NavigateErr error

	// Call recording.
	Navigations   []string
	ScrollToCalls int
	SettleCalls   int
	ZoomSet       float64
	ShownCount    int
	HiddenCount   int
	DevToolsOpen  bool

	Hook  engine.RequestHook
	Popup engine.PopupHandler
}

// NewSurface builds a fake surface rendering the given document.
func NewSurface(url string, doc *Document) *Surface {
	if doc == nil {
		doc = &Document{ViewportHeight: 800, DocHeight: 800}
	}
	if doc.FormValues == nil {
		doc.FormValues = map[string]string{}
	}
	return &Surface{
		sid:    id.NewSurfaceID(),
		url:    url,
		Doc:    doc,
		events: make(chan engine.Event, 32),
		zoom:   1.0,
	}
}

func (s *Surface) ID() id.SurfaceID { return s.sid }

func (s *Surface) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	s.url = url
	s.Navigations = append(s.Navigations, url)
	return nil
}

func (s *Surface) Back(context.Context) error    { return nil }
func (s *Surface) Forward(context.Context) error { return nil }
func (s *Surface) Reload(ctx context.Context) error {
	return s.Navigate(ctx, s.CurrentURL())
}

func (s *Surface) URL(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	return s.url, nil
}

// CurrentURL returns the URL without a context, for test assertions.
func (s *Surface) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// SetURL moves the surface to a new URL without recording a navigation,
// simulating a server-side redirect.
func (s *Surface) SetURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
}

func (s *Surface) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.visible = true
	s.ShownCount++
	return nil
}

func (s *Surface) Hide() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.visible = false
	s.HiddenCount++
	return nil
}

// Visible reports whether the surface is attached to the window.
func (s *Surface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *Surface) SetBounds(b types.Bounds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.bounds = b
	return nil
}

func (s *Surface) Bounds() types.Bounds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

func (s *Surface) SetZoom(_ context.Context, factor float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.zoom = factor
	s.ZoomSet = factor
	return nil
}

func (s *Surface) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

func (s *Surface) ToggleDevTools(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DevToolsOpen = !s.DevToolsOpen
	return nil
}

func (s *Surface) HTML(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	var b strings.Builder
	b.WriteString("<html><head><title>")
	b.WriteString(s.Doc.Title)
	b.WriteString("</title></head><body>")
	for _, el := range s.Doc.Elements {
		b.WriteString("<" + strings.ToLower(el.Tag) + ">")
		b.WriteString(el.Text)
		b.WriteString("</" + strings.ToLower(el.Tag) + ">")
	}
	b.WriteString("</body></html>")
	return b.String(), nil
}

func (s *Surface) Screenshot(context.Context) ([]byte, error) {
	if s.EvalErr != nil {
		return nil, s.EvalErr
	}
	return []byte("png"), nil
}

// Eval dispatches on the registered snippet source and simulates its effect
// against the fake document. Args and reply take the same JSON round-trip as
// the real protocol, so struct tags are exercised and invalid UTF-8 degrades
// to U+FFFD here exactly as it would on the wire.
func (s *Surface) Eval(_ context.Context, src string, args []any, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.EvalErr != nil {
		return s.EvalErr
	}
	if len(args) > 0 {
		raw, err := json.Marshal(args)
		if err != nil {
			return err
		}
		var decoded []any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return err
		}
		args = decoded
	}

	var result any
	switch src {
	case script.Capture:
		result = s.captureLocked()
	case script.Metrics:
		d := s.Doc
		result = script.MetricsResult{
			ScrollX: d.ScrollX, ScrollY: d.ScrollY,
			DocHeight: d.DocHeight, ViewportHeight: d.ViewportHeight,
			MaxScroll: d.MaxScroll(),
		}
	case script.ScrollTo:
		x := argFloat(args, 0)
		y := argFloat(args, 1)
		s.scrollLocked(x, y)
		s.ScrollToCalls++
		result = script.ScrollResult{Found: true, ScrollX: s.Doc.ScrollX, ScrollY: s.Doc.ScrollY}
	case script.AnchorScroll:
		result = s.anchorLocked(argString(args, 0), argString(args, 1), argFloat(args, 2))
	case script.FillForm:
		result = s.fillLocked(args)
	case script.Settle:
		s.SettleCalls++
		result = true
	case script.GetTitle:
		result = s.Doc.Title
	default:
		return errors.New("unknown snippet")
	}

	if out == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *Surface) captureLocked() script.CaptureResult {
	d := s.Doc
	res := script.CaptureResult{
		ScrollX: d.ScrollX, ScrollY: d.ScrollY,
		DocHeight: d.DocHeight, ViewportHeight: d.ViewportHeight,
		FormData: map[string]string{},
	}
	for _, el := range d.Elements {
		if el.ViewTop >= 0 && el.ViewTop < d.ViewportHeight*0.3 && len(strings.TrimSpace(el.Text)) > 20 {
			text := el.Text
			if len(text) > 120 {
				// The in-page script slices characters, never bytes.
				cut := 120
				for cut > 0 && !utf8.RuneStart(text[cut]) {
					cut--
				}
				text = text[:cut]
			}
			res.AnchorText = text
			res.AnchorTag = strings.ToUpper(el.Tag)
			res.AnchorOffset = d.ScrollY - el.OffsetTop
			res.HasAnchor = true
			break
		}
	}
	for k, v := range d.FormValues {
		if v != "" {
			res.FormData[k] = v
		}
	}
	return res
}

func (s *Surface) anchorLocked(tag, fragment string, offset float64) script.ScrollResult {
	if fragment == "" {
		return script.ScrollResult{}
	}
	for _, el := range s.Doc.Elements {
		if strings.Contains(el.Text, fragment) {
			s.scrollLocked(0, el.OffsetTop+offset)
			return script.ScrollResult{Found: true, ScrollY: s.Doc.ScrollY}
		}
	}
	_ = tag
	return script.ScrollResult{}
}

func (s *Surface) fillLocked(args []any) int {
	if len(args) == 0 {
		return 0
	}
	data, ok := args[0].(map[string]any)
	if !ok {
		return 0
	}
	filled := 0
	for _, field := range s.Doc.FormFields {
		if v, ok := data[field].(string); ok {
			s.Doc.FormValues[field] = v
			filled++
		}
	}
	return filled
}

func (s *Surface) scrollLocked(x, y float64) {
	d := s.Doc
	if y < 0 {
		y = 0
	}
	if max := d.MaxScroll(); y > max {
		y = max
	}
	if d.ScrollClamp != nil {
		y = d.ScrollClamp(y)
	}
	d.ScrollX = x
	d.ScrollY = y
}

func (s *Surface) Events() <-chan engine.Event { return s.events }

// Emit pushes a lifecycle event to the surface's consumers.
func (s *Surface) Emit(ev engine.Event) {
	s.events <- ev
}

func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.events)
	return nil
}

// Closed reports whether Close was called.
func (s *Surface) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func argFloat(args []any, i int) float64 {
	if i >= len(args) {
		return 0
	}
	switch v := args[i].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func argString(args []any, i int) string {
	if i >= len(args) {
		return ""
	}
	s, _ := args[i].(string)
	return s
}

// Engine is a fake engine handing out fake surfaces.
type Engine struct {
	mu       sync.Mutex
	Surfaces []*Surface
	// NextDoc, when set, seeds the document of the next created surface.
	NextDoc    *Document
	NativeURLs []string
	CreateErr  error
}

// NewEngine builds a fake engine.
func NewEngine() *Engine { return &Engine{} }

func (e *Engine) CreateSurface(_ context.Context, opts engine.SurfaceOptions) (engine.Surface, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.CreateErr != nil {
		return nil, e.CreateErr
	}
	s := NewSurface(opts.URL, e.NextDoc)
	e.NextDoc = nil
	s.Hook = opts.RequestHook
	s.Popup = opts.PopupHandler
	s.bounds = opts.Bounds
	if opts.ZoomFactor > 0 {
		s.zoom = opts.ZoomFactor
	}
	s.Navigations = append(s.Navigations, opts.URL)
	e.Surfaces = append(e.Surfaces, s)
	return s, nil
}

func (e *Engine) OpenNative(_ context.Context, url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.NativeURLs = append(e.NativeURLs, url)
	return nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.Surfaces {
		_ = s.Close()
	}
	return nil
}

// Natives returns a copy of the URLs opened in native windows.
func (e *Engine) Natives() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.NativeURLs))
	copy(out, e.NativeURLs)
	return out
}

// Last returns the most recently created surface.
func (e *Engine) Last() *Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Surfaces) == 0 {
		return nil
	}
	return e.Surfaces[len(e.Surfaces)-1]
}
