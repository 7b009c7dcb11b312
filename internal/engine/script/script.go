// Package script holds the JavaScript snippets injected into live pages.
//
// Some work can only happen inside the rendered document's context (layout
// reads, anchor search, form fill). Each snippet is a single arrow function
// taking JSON-serializable args and returning a JSON-serializable value, so
// every injection is a narrow typed RPC rather than ad hoc string
// interpolation. Verify syntax-checks every snippet with goja at startup so
// a broken snippet fails the process fast instead of silently failing
// in-page forever.
package script

import (
	"fmt"

	"github.com/dop251/goja"
)

// Names of registered snippets, used as Surface.Eval keys by implementations
// that dispatch on the snippet rather than its source (enginetest).
const (
	NameCapture  = "capture"
	NameMetrics  = "metrics"
	NameScrollTo = "scrollTo"
	NameAnchor   = "anchorScroll"
	NameFillForm = "fillForm"
	NameSettle   = "settle"
	NameGetTitle = "getTitle"
)

// CaptureResult is the reply shape of the Capture snippet.
type CaptureResult struct {
	ScrollX        float64           `json:"scrollX"`
	ScrollY        float64           `json:"scrollY"`
	DocHeight      float64           `json:"docHeight"`
	ViewportHeight float64           `json:"viewportHeight"`
	AnchorText     string            `json:"anchorText"`
	AnchorTag      string            `json:"anchorTag"`
	AnchorOffset   float64           `json:"anchorOffset"`
	HasAnchor      bool              `json:"hasAnchor"`
	FormData       map[string]string `json:"formData"`
}

// MetricsResult is the reply shape of the Metrics snippet.
type MetricsResult struct {
	ScrollX        float64 `json:"scrollX"`
	ScrollY        float64 `json:"scrollY"`
	DocHeight      float64 `json:"docHeight"`
	ViewportHeight float64 `json:"viewportHeight"`
	MaxScroll      float64 `json:"maxScroll"`
}

// ScrollResult is the reply shape of the ScrollTo and Anchor snippets.
type ScrollResult struct {
	Found   bool    `json:"found"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
}

// Capture reads scroll position, document metrics, the text anchor, and
// non-empty form values in one round-trip. The anchor is the first
// block-level element whose top sits in the upper 30% of the viewport with
// more than 20 chars of visible text.
const Capture = `(function() {
	var doc = document.scrollingElement || document.documentElement;
	var scrollX = doc ? doc.scrollLeft : window.scrollX;
	var scrollY = doc ? doc.scrollTop : window.scrollY;
	var docHeight = doc ? doc.scrollHeight : 0;
	var vh = window.innerHeight || 0;

	var anchorText = '', anchorTag = '', anchorOffset = 0, hasAnchor = false;
	var candidates = document.querySelectorAll('p, h1, h2, h3, h4, h5, h6, li, article, section');
	for (var i = 0; i < candidates.length; i++) {
		var el = candidates[i];
		var rect = el.getBoundingClientRect();
		var text = (el.innerText || '').trim();
		if (rect.top >= 0 && rect.top < vh * 0.3 && text.length > 20) {
			anchorText = text.slice(0, 120);
			anchorTag = el.tagName;
			anchorOffset = scrollY - el.offsetTop;
			hasAnchor = true;
			break;
		}
	}

	var formData = {};
	var fields = document.querySelectorAll('input, textarea, select');
	for (var j = 0; j < fields.length; j++) {
		var f = fields[j];
		var key = f.id || f.name;
		if (key && f.value) formData[key] = f.value;
	}

	return {
		scrollX: scrollX, scrollY: scrollY,
		docHeight: docHeight, viewportHeight: vh,
		anchorText: anchorText, anchorTag: anchorTag,
		anchorOffset: anchorOffset, hasAnchor: hasAnchor,
		formData: formData
	};
})`

// Metrics reads current scroll position and document geometry.
const Metrics = `(function() {
	var doc = document.scrollingElement || document.documentElement;
	var vh = window.innerHeight || 0;
	var docHeight = doc ? doc.scrollHeight : 0;
	return {
		scrollX: doc ? doc.scrollLeft : window.scrollX,
		scrollY: doc ? doc.scrollTop : window.scrollY,
		docHeight: docHeight,
		viewportHeight: vh,
		maxScroll: Math.max(0, docHeight - vh)
	};
})`

// ScrollTo scrolls to an absolute position and reports where the page
// actually settled.
const ScrollTo = `(function(x, y) {
	window.scrollTo(x, y);
	var doc = document.scrollingElement || document.documentElement;
	return {
		found: true,
		scrollX: doc ? doc.scrollLeft : window.scrollX,
		scrollY: doc ? doc.scrollTop : window.scrollY
	};
})`

// AnchorScroll searches for an element matching the captured tag whose text
// contains the given fragment, falling back to common block tags, and
// scrolls to its offsetTop plus the captured offset.
const AnchorScroll = `(function(tag, fragment, offset) {
	var selectors = [tag, 'p', 'h1', 'h2', 'h3', 'h4', 'li', 'article', 'section'];
	var seen = {};
	for (var s = 0; s < selectors.length; s++) {
		var sel = selectors[s].toLowerCase();
		if (seen[sel]) continue;
		seen[sel] = true;
		var els = document.getElementsByTagName(sel);
		for (var i = 0; i < els.length; i++) {
			var text = (els[i].innerText || '');
			if (fragment && text.indexOf(fragment) !== -1) {
				var target = els[i].offsetTop + offset;
				window.scrollTo(0, Math.max(0, target));
				var doc = document.scrollingElement || document.documentElement;
				return { found: true, scrollX: 0, scrollY: doc ? doc.scrollTop : window.scrollY };
			}
		}
	}
	return { found: false, scrollX: 0, scrollY: 0 };
})`

// FillForm assigns values to fields looked up by id-or-name. Missing fields
// are skipped silently; returns the number of fields filled.
const FillForm = `(function(formData) {
	var filled = 0;
	for (var key in formData) {
		var el = document.getElementById(key) ||
			document.querySelector('[name="' + key.replace(/"/g, '\\"') + '"]');
		if (el) {
			el.value = formData[key];
			el.dispatchEvent(new Event('input', { bubbles: true }));
			filled++;
		}
	}
	return filled;
})`

// Settle resolves after two consecutive animation frames, signalling that
// layout has stabilized after a load.
const Settle = `(function() {
	return new Promise(function(resolve) {
		requestAnimationFrame(function() {
			requestAnimationFrame(function() { resolve(true); });
		});
	});
})`

// GetTitle reads the document title.
const GetTitle = `(function() { return document.title || ''; })`

// All maps snippet names to their sources.
func All() map[string]string {
	return map[string]string{
		NameCapture:  Capture,
		NameMetrics:  Metrics,
		NameScrollTo: ScrollTo,
		NameAnchor:   AnchorScroll,
		NameFillForm: FillForm,
		NameSettle:   Settle,
		NameGetTitle: GetTitle,
	}
}

// Verify compiles every snippet and returns the first syntax error.
func Verify() error {
	for name, src := range All() {
		if _, err := goja.Compile(name, src, true); err != nil {
			return fmt.Errorf("snippet %s does not compile: %w", name, err)
		}
	}
	return nil
}
