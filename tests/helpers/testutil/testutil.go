// Package testutil provides testing utilities and helpers for backend tests.
package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

// EventRecorder is an Emitter that records every pushed UI event.
type EventRecorder struct {
	mu     sync.Mutex
	events []types.UIEvent
}

// Emit records the event.
func (r *EventRecorder) Emit(ev types.UIEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// All returns a copy of every recorded event.
func (r *EventRecorder) All() []types.UIEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.UIEvent(nil), r.events...)
}

// OfType returns the recorded events with the given event type.
func (r *EventRecorder) OfType(eventType string) []types.UIEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.UIEvent
	for _, ev := range r.events {
		if ev.EventType() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// WaitFor blocks until at least one event of the given type arrives.
func (r *EventRecorder) WaitFor(t *testing.T, eventType string) types.UIEvent {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(r.OfType(eventType)) > 0
	}, 2*time.Second, 5*time.Millisecond, "event %s never arrived", eventType)
	return r.OfType(eventType)[0]
}

// PageState builds a captured state with the given vertical position.
func PageState(url string, scrollY float64, ratio float64) *types.CapturedPageState {
	return &types.CapturedPageState{
		URL:         url,
		ScrollY:     scrollY,
		ScrollRatio: ratio,
	}
}

// AnchoredState builds a captured state carrying a text anchor.
func AnchoredState(url, text, tag string, offset float64) *types.CapturedPageState {
	return &types.CapturedPageState{
		URL:     url,
		ScrollY: 1000,
		Anchor: &types.Anchor{
			Text:   text,
			Tag:    tag,
			Offset: offset,
		},
	}
}
