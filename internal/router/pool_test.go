package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// staticCatalog serves a fixed listing, or a fixed error, without touching
// the network.
type staticCatalog struct {
	models []ModelInfo
	err    error
}

func (s *staticCatalog) FetchModels(ctx context.Context) ([]ModelInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.models, nil
}

func catalogOf(ids ...string) []ModelInfo {
	out := make([]ModelInfo, len(ids))
	for i, id := range ids {
		out[i] = ModelInfo{ID: id}
	}
	return out
}

func rotationIDs(p *Pool) []string {
	rotation := p.Rotation()
	ids := make([]string, len(rotation))
	for i, m := range rotation {
		ids[i] = m.ID
	}
	return ids
}

func TestPool_RefreshReplacesCatalog(t *testing.T) {
	src := &staticCatalog{models: catalogOf("a", "b")}
	p := NewPool(src, NewTracker(2, time.Minute))

	require.NoError(t, p.Refresh(context.Background()))
	require.Equal(t, 2, p.Size())
	require.Equal(t, []string{"a", "b"}, rotationIDs(p))
}

func TestPool_RefreshFailureKeepsPreviousCatalog(t *testing.T) {
	src := &staticCatalog{models: catalogOf("a", "b")}
	p := NewPool(src, NewTracker(2, time.Minute))
	require.NoError(t, p.Refresh(context.Background()))

	src.err = context.DeadlineExceeded
	require.Error(t, p.Refresh(context.Background()))
	require.Equal(t, 2, p.Size(), "failed refresh must leave the catalog untouched")
}

func TestPool_RefreshRejectsEmptyListing(t *testing.T) {
	src := &staticCatalog{}
	p := NewPool(src, NewTracker(2, time.Minute))

	require.Error(t, p.Refresh(context.Background()))
	require.Equal(t, 0, p.Size())
}

func TestPool_BootstrapFallsBackToStaticCatalog(t *testing.T) {
	src := &staticCatalog{err: context.DeadlineExceeded}
	p := NewPool(src, NewTracker(2, time.Minute))

	p.Bootstrap(context.Background())

	require.Equal(t, len(FallbackCatalog()), p.Size())
	ids := rotationIDs(p)
	require.Equal(t, "openrouter/free", ids[0], "auto-router must lead the fallback catalog")
}

func TestPool_RotationAdvancesCursor(t *testing.T) {
	src := &staticCatalog{models: catalogOf("a", "b", "c")}
	p := NewPool(src, NewTracker(2, time.Minute))
	require.NoError(t, p.Refresh(context.Background()))

	require.Equal(t, []string{"a", "b", "c"}, rotationIDs(p))
	require.Equal(t, []string{"b", "c", "a"}, rotationIDs(p))
	require.Equal(t, []string{"c", "a", "b"}, rotationIDs(p))
	require.Equal(t, []string{"a", "b", "c"}, rotationIDs(p))
}

func TestPool_PromoteCursorPast(t *testing.T) {
	t.Run("middle_model", func(t *testing.T) {
		src := &staticCatalog{models: catalogOf("a", "b", "c")}
		p := NewPool(src, NewTracker(2, time.Minute))
		require.NoError(t, p.Refresh(context.Background()))

		p.PromoteCursorPast("a")
		require.Equal(t, []string{"b", "c", "a"}, rotationIDs(p))
	})

	t.Run("last_model_wraps_to_front", func(t *testing.T) {
		src := &staticCatalog{models: catalogOf("a", "b", "c")}
		p := NewPool(src, NewTracker(2, time.Minute))
		require.NoError(t, p.Refresh(context.Background()))

		p.PromoteCursorPast("c")
		require.Equal(t, []string{"a", "b", "c"}, rotationIDs(p))
	})

	t.Run("unknown_model_leaves_cursor", func(t *testing.T) {
		src := &staticCatalog{models: catalogOf("a", "b", "c")}
		p := NewPool(src, NewTracker(2, time.Minute))
		require.NoError(t, p.Refresh(context.Background()))

		p.PromoteCursorPast("missing")
		require.Equal(t, []string{"a", "b", "c"}, rotationIDs(p))
	})
}

func TestPool_RefreshDisablesDelistedModels(t *testing.T) {
	src := &staticCatalog{models: catalogOf("a", "b")}
	tr := NewTracker(2, time.Minute)
	p := NewPool(src, tr)
	require.NoError(t, p.Refresh(context.Background()))

	src.models = catalogOf("a")
	require.NoError(t, p.Refresh(context.Background()))

	require.Equal(t, 1, p.Size())
	require.False(t, tr.Eligible("b"), "delisted model must not be dispatched to")
	require.Equal(t, StatusDisabled, tr.Snapshot("b").Status)

	src.models = catalogOf("a", "b")
	require.NoError(t, p.Refresh(context.Background()))
	require.True(t, tr.Eligible("b"), "relisted model must be reinstated")
}

func TestPool_CursorStaysInBoundsAfterShrink(t *testing.T) {
	src := &staticCatalog{models: catalogOf("a", "b", "c")}
	p := NewPool(src, NewTracker(2, time.Minute))
	require.NoError(t, p.Refresh(context.Background()))

	p.Rotation()
	p.Rotation() // cursor now at index 2

	src.models = catalogOf("x")
	require.NoError(t, p.Refresh(context.Background()))

	require.Equal(t, []string{"x"}, rotationIDs(p))
}

func TestPool_RotationOnEmptyPool(t *testing.T) {
	p := NewPool(&staticCatalog{}, NewTracker(2, time.Minute))
	require.Nil(t, p.Rotation())
	require.Equal(t, 0, p.Size())
}
