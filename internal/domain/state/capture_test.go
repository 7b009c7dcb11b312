package state

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/engine/enginetest"
)

func TestCaptureReadsLivePage(t *testing.T) {
	doc := &enginetest.Document{
		Title:          "Article",
		ScrollX:        0,
		ScrollY:        1200,
		DocHeight:      6000,
		ViewportHeight: 800,
		Elements: []enginetest.Element{
			{Tag: "h1", Text: "Short", ViewTop: 10, OffsetTop: 1210},
			{Tag: "p", Text: "A paragraph long enough to qualify as a reading anchor.", ViewTop: 50, OffsetTop: 1250},
		},
		FormValues: map[string]string{"email": "user@example.com", "empty": ""},
	}
	s := enginetest.NewSurface("https://example.com/article", doc)
	require.NoError(t, s.SetZoom(context.Background(), 1.25))

	state := NewCapturer(zap.NewNop()).Capture(context.Background(), s)
	require.NotNil(t, state)

	assert.Equal(t, "https://example.com/article", state.URL)
	assert.Equal(t, 1200.0, state.ScrollY)
	assert.InDelta(t, 0.2, state.ScrollRatio, 0.0001)
	assert.Equal(t, 1.25, state.ZoomFactor)

	require.NotNil(t, state.Anchor)
	assert.Equal(t, "P", state.Anchor.Tag, "too-short h1 is skipped")
	assert.Equal(t, -50.0, state.Anchor.Offset)

	assert.Equal(t, map[string]string{"email": "user@example.com"}, state.FormData, "empty fields are omitted")
}

func TestCaptureZeroHeightDocument(t *testing.T) {
	doc := &enginetest.Document{DocHeight: 0, ViewportHeight: 800}
	s := enginetest.NewSurface("https://example.com/", doc)

	state := NewCapturer(zap.NewNop()).Capture(context.Background(), s)
	require.NotNil(t, state)
	assert.Zero(t, state.ScrollRatio, "no divide by zero on empty documents")
}

func TestCaptureNoQualifyingAnchor(t *testing.T) {
	doc := &enginetest.Document{
		DocHeight:      2000,
		ViewportHeight: 800,
		Elements: []enginetest.Element{
			{Tag: "p", Text: "below the fold but long enough to qualify otherwise", ViewTop: 700},
			{Tag: "p", Text: "tiny", ViewTop: 10},
		},
	}
	s := enginetest.NewSurface("https://example.com/", doc)

	state := NewCapturer(zap.NewNop()).Capture(context.Background(), s)
	require.NotNil(t, state)
	assert.Nil(t, state.Anchor)
}

func TestCaptureFallsBackToStaticParse(t *testing.T) {
	doc := &enginetest.Document{
		Title: "Static",
		Elements: []enginetest.Element{
			{Tag: "p", Text: "Static content that still yields a usable text anchor."},
		},
	}
	s := enginetest.NewSurface("https://example.com/static", doc)
	s.EvalErr = errors.New("script injection unavailable")

	state := NewCapturer(zap.NewNop()).Capture(context.Background(), s)
	require.NotNil(t, state)
	assert.Zero(t, state.ScrollY, "static markup carries no scroll geometry")
	require.NotNil(t, state.Anchor)
	assert.Equal(t, "P", state.Anchor.Tag)
	assert.Contains(t, state.Anchor.Text, "Static content")
}

func TestStaticAnchorTruncatesOnRuneBoundary(t *testing.T) {
	text := strings.Repeat("статья ", 20)
	require.False(t, utf8.RuneStart(text[anchorMaxText]), "text is chosen so a byte cut splits a rune")

	doc := &enginetest.Document{
		Elements: []enginetest.Element{{Tag: "p", Text: text}},
	}
	s := enginetest.NewSurface("https://example.com/static", doc)
	s.EvalErr = errors.New("script injection unavailable")

	state := NewCapturer(zap.NewNop()).Capture(context.Background(), s)
	require.NotNil(t, state)
	require.NotNil(t, state.Anchor)
	assert.True(t, utf8.ValidString(state.Anchor.Text), "anchor text survives the JSON boundary intact")
	assert.True(t, strings.HasPrefix(text, state.Anchor.Text))
	assert.LessOrEqual(t, len(state.Anchor.Text), anchorMaxText)
}

func TestCaptureOnClosedSurface(t *testing.T) {
	s := enginetest.NewSurface("https://example.com/", nil)
	require.NoError(t, s.Close())

	state := NewCapturer(zap.NewNop()).Capture(context.Background(), s)
	assert.Nil(t, state, "capture is best-effort, a dead surface yields nil")
}
