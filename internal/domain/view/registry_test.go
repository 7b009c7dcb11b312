package view

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/engine"
	"github.com/flowscape/flowscape/backend/internal/engine/enginetest"
	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

func newTestRegistry() (*Registry, *enginetest.Engine) {
	eng := enginetest.NewEngine()
	factory := func(ctx context.Context, key types.ViewKey, url string) (engine.Surface, error) {
		return eng.CreateSurface(ctx, engine.SurfaceOptions{URL: url})
	}
	return NewRegistry(factory, zap.NewNop()), eng
}

func key(ws, page string) types.ViewKey {
	return types.ViewKey{WorkspaceID: ws, PageID: page}
}

func TestCreateIsIdempotent(t *testing.T) {
	r, eng := newTestRegistry()
	ctx := context.Background()

	h1, created, err := r.Create(ctx, key("w1", "p1"), "https://example.com", nil)
	require.NoError(t, err)
	assert.True(t, created)

	h2, created, err := r.Create(ctx, key("w1", "p1"), "https://example.com", nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, h1, h2)

	assert.Len(t, eng.Surfaces, 1, "no second surface")
	assert.Len(t, eng.Last().Navigations, 1, "no re-navigation")
}

func TestCreateOverwritesPendingOnExisting(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	h, _, err := r.Create(ctx, key("w1", "p1"), "https://example.com", nil)
	require.NoError(t, err)
	assert.False(t, h.HasPending())

	state := &types.CapturedPageState{URL: "https://example.com", ScrollY: 100}
	_, _, err = r.Create(ctx, key("w1", "p1"), "https://example.com", state)
	require.NoError(t, err)
	assert.True(t, h.HasPending())
	assert.Equal(t, state, h.TakePending())
}

func TestAtMostOneActive(t *testing.T) {
	r, eng := newTestRegistry()
	ctx := context.Background()

	keys := []types.ViewKey{key("w1", "p1"), key("w1", "p2"), key("w2", "p1")}
	for _, k := range keys {
		_, _, err := r.Create(ctx, k, "https://"+k.PageID+".example.com", nil)
		require.NoError(t, err)
	}

	for i := 0; i < 10; i++ {
		k := keys[i%len(keys)]
		_, err := r.Select(ctx, k.WorkspaceID, k.PageID, "", nil)
		require.NoError(t, err)

		visible := 0
		for _, s := range eng.Surfaces {
			if s.Visible() {
				visible++
			}
		}
		assert.Equal(t, 1, visible, "exactly one surface visible after select %d", i)
	}
}

func TestSelectDeactivatesBeforeActivating(t *testing.T) {
	r, eng := newTestRegistry()
	ctx := context.Background()

	_, err := r.Select(ctx, "w1", "p1", "https://a.example.com", nil)
	require.NoError(t, err)
	_, err = r.Select(ctx, "w1", "p2", "https://b.example.com", nil)
	require.NoError(t, err)

	first := eng.Surfaces[0]
	second := eng.Surfaces[1]
	assert.False(t, first.Visible())
	assert.True(t, second.Visible())
	assert.Equal(t, 1, first.HiddenCount)
}

func TestSelectEmptyPageDeactivatesOnly(t *testing.T) {
	r, eng := newTestRegistry()
	ctx := context.Background()

	_, err := r.Select(ctx, "w1", "p1", "https://a.example.com", nil)
	require.NoError(t, err)
	require.NotNil(t, r.Active())

	h, err := r.Select(ctx, "w1", "", "", nil)
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.Nil(t, r.Active())
	assert.False(t, eng.Surfaces[0].Visible())
}

func TestSelectLazyCreates(t *testing.T) {
	r, eng := newTestRegistry()
	ctx := context.Background()

	state := &types.CapturedPageState{URL: "https://a.example.com", ScrollY: 50}
	h, err := r.Select(ctx, "w1", "p1", "https://a.example.com", state)
	require.NoError(t, err)
	require.NotNil(t, h)

	assert.Len(t, eng.Surfaces, 1)
	assert.True(t, h.HasPending())
	assert.Same(t, h, r.Active())
}

func TestSelectMissingWithoutURL(t *testing.T) {
	r, _ := newTestRegistry()

	_, err := r.Select(context.Background(), "w1", "p1", "", nil)
	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestSelectSameViewIsStable(t *testing.T) {
	r, eng := newTestRegistry()
	ctx := context.Background()

	_, err := r.Select(ctx, "w1", "p1", "https://a.example.com", nil)
	require.NoError(t, err)
	shown := eng.Surfaces[0].ShownCount

	_, err = r.Select(ctx, "w1", "p1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, shown, eng.Surfaces[0].ShownCount, "re-selecting the active view does not flicker it")
	assert.Equal(t, 0, eng.Surfaces[0].HiddenCount)
}

func TestBackgroundedTimestamps(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	h1, err := r.Select(ctx, "w1", "p1", "https://a.example.com", nil)
	require.NoError(t, err)
	assert.Nil(t, h1.BackgroundedAt())

	h2, err := r.Select(ctx, "w1", "p2", "https://b.example.com", nil)
	require.NoError(t, err)
	assert.NotNil(t, h1.BackgroundedAt())
	assert.Nil(t, h2.BackgroundedAt())

	_, err = r.Select(ctx, "w1", "p1", "", nil)
	require.NoError(t, err)
	assert.Nil(t, h1.BackgroundedAt(), "foregrounding clears the timestamp")
}

func TestInterstitialViewNotShownOnSelect(t *testing.T) {
	r, eng := newTestRegistry()
	ctx := context.Background()

	h, _, err := r.Create(ctx, key("w1", "p1"), "https://a.example.com", nil)
	require.NoError(t, err)
	h.SetInterstitial(true)

	_, err = r.Select(ctx, "w1", "p1", "", nil)
	require.NoError(t, err)
	assert.Same(t, h, r.Active())
	assert.False(t, eng.Surfaces[0].Visible(), "interstitial views stay detached")
}

func TestResize(t *testing.T) {
	r, eng := newTestRegistry()
	ctx := context.Background()

	_, err := r.Select(ctx, "w1", "p1", "https://a.example.com", nil)
	require.NoError(t, err)
	k2 := key("w1", "p2")
	_, _, err = r.Create(ctx, k2, "https://b.example.com", nil)
	require.NoError(t, err)

	b1 := types.Bounds{X: 0, Y: 40, Width: 1280, Height: 760}
	require.NoError(t, r.Resize(b1, nil))
	assert.Equal(t, b1, eng.Surfaces[0].Bounds())

	b2 := types.Bounds{X: 640, Y: 40, Width: 640, Height: 760}
	require.NoError(t, r.Resize(b2, &k2))
	assert.Equal(t, b2, eng.Surfaces[1].Bounds())
	assert.Equal(t, b1, eng.Surfaces[0].Bounds(), "keyed resize leaves the active view alone")
}

func TestResizeWithNoActive(t *testing.T) {
	r, _ := newTestRegistry()
	err := r.Resize(types.Bounds{Width: 100, Height: 100}, nil)
	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestRemoveActiveDeactivatesFirst(t *testing.T) {
	r, eng := newTestRegistry()
	ctx := context.Background()

	_, err := r.Select(ctx, "w1", "p1", "https://a.example.com", nil)
	require.NoError(t, err)

	require.NoError(t, r.Remove(key("w1", "p1")))
	assert.Nil(t, r.Active())
	assert.True(t, eng.Surfaces[0].Closed())
	assert.Equal(t, 1, eng.Surfaces[0].HiddenCount, "hidden before destroyed")
	assert.Equal(t, 0, r.Count())
}

func TestRemoveMissing(t *testing.T) {
	r, _ := newTestRegistry()
	assert.ErrorIs(t, r.Remove(key("w1", "nope")), ErrViewNotFound)
}

func TestRemoveAll(t *testing.T) {
	r, eng := newTestRegistry()
	ctx := context.Background()

	_, err := r.Select(ctx, "w1", "p1", "https://a.example.com", nil)
	require.NoError(t, err)
	_, _, err = r.Create(ctx, key("w1", "p2"), "https://b.example.com", nil)
	require.NoError(t, err)
	_, _, err = r.Create(ctx, key("w2", "p1"), "https://c.example.com", nil)
	require.NoError(t, err)

	removed := r.RemoveAll("w1")
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, r.Count())
	assert.Nil(t, r.Active(), "active pointer never dangles after workspace deletion")
	assert.True(t, eng.Surfaces[0].Closed())
	assert.True(t, eng.Surfaces[1].Closed())
	assert.False(t, eng.Surfaces[2].Closed())
}

func TestListSnapshots(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	_, _, err := r.Create(ctx, key("w2", "p1"), "https://c.example.com", nil)
	require.NoError(t, err)
	_, err = r.Select(ctx, "w1", "p1", "https://a.example.com", nil)
	require.NoError(t, err)

	infos := r.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "w1", infos[0].WorkspaceID)
	assert.True(t, infos[0].Active)
	assert.Equal(t, "w2", infos[1].WorkspaceID)
	assert.False(t, infos[1].Active)
}

func TestDockedViewStaysVisibleAcrossSwitch(t *testing.T) {
	r, eng := newTestRegistry()
	ctx := context.Background()

	_, err := r.Select(ctx, "w1", "p1", "https://a.example.com", nil)
	require.NoError(t, err)
	docked := eng.Surfaces[0]

	require.NoError(t, r.SetDocked(key("w1", "p1"), true))

	_, err = r.Select(ctx, "w1", "p2", "https://b.example.com", nil)
	require.NoError(t, err)

	assert.True(t, docked.Visible(), "docked pane survives activation moving away")
	assert.Equal(t, 0, docked.HiddenCount)
	assert.True(t, eng.Surfaces[1].Visible())
	h, ok := r.Get(key("w1", "p1"))
	require.True(t, ok)
	assert.Nil(t, h.BackgroundedAt())

	require.NoError(t, r.SetDocked(key("w1", "p1"), false))
	assert.False(t, docked.Visible(), "undocking a non-active view hides it")
	assert.NotNil(t, h.BackgroundedAt())
}

func TestDockMissingView(t *testing.T) {
	r, _ := newTestRegistry()
	assert.ErrorIs(t, r.SetDocked(key("w1", "nope"), true), ErrViewNotFound)
}

func TestSelectNeverActivatesRemovedView(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = r.Select(ctx, "w1", "p1", "https://example.com", nil)
		}()
		go func() {
			defer wg.Done()
			_ = r.Remove(key("w1", "p1"))
		}()
	}
	wg.Wait()

	if act := r.Active(); act != nil {
		_, ok := r.Get(act.Key)
		assert.True(t, ok, "the active view is always a registered one")
		assert.False(t, act.Surface.(*enginetest.Surface).Closed(), "the active surface is live")
	}
}
