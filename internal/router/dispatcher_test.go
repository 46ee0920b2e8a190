package router

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"
)

// scriptedCompleter answers from fixed per-model scripts and records the
// attempt order. Models with no script fail with a 503.
type scriptedCompleter struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   []string
}

func (s *scriptedCompleter) Complete(ctx context.Context, modelID string, messages []*schema.Message, opts CompletionOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, modelID)
	if err, ok := s.errs[modelID]; ok {
		return "", err
	}
	if reply, ok := s.replies[modelID]; ok {
		return reply, nil
	}
	return "", &BackendError{Model: modelID, Kind: FailureStatus, Status: 503}
}

func (s *scriptedCompleter) attempted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

func newTestPool(t *testing.T, tracker *Tracker, ids ...string) *Pool {
	t.Helper()
	p := NewPool(&staticCatalog{models: catalogOf(ids...)}, tracker)
	require.NoError(t, p.Refresh(context.Background()))
	return p
}

func userTurn(text string) []*schema.Message {
	return []*schema.Message{schema.UserMessage(text)}
}

func TestDispatcher_FailoverWalk(t *testing.T) {
	tr := NewTracker(3, time.Minute)
	p := newTestPool(t, tr, "a", "b", "c")
	comp := &scriptedCompleter{
		errs: map[string]error{
			"a": &BackendError{Model: "a", Kind: FailureStatus, Status: 429},
			"b": &BackendError{Model: "b", Kind: FailureTimeout, Err: context.DeadlineExceeded},
		},
		replies: map[string]string{"c": "here for you"},
	}
	d := NewDispatcher(p, comp, time.Second)

	res, err := d.Dispatch(context.Background(), userTurn("hello"), CompletionOptions{})
	require.NoError(t, err)
	require.Equal(t, "here for you", res.Reply)
	require.Equal(t, "c", res.Model)
	require.Equal(t, 3, res.Attempts)
	require.Equal(t, []string{"a", "b", "c"}, comp.attempted())

	require.Equal(t, 1, tr.Snapshot("a").ConsecutiveFailures)
	require.Equal(t, 1, tr.Snapshot("b").ConsecutiveFailures)
	require.Equal(t, 0, tr.Snapshot("c").ConsecutiveFailures)

	// Next walk starts right after the model that answered.
	require.Equal(t, []string{"a", "b", "c"}, rotationIDs(p))
}

func TestDispatcher_PoolExhausted(t *testing.T) {
	tr := NewTracker(5, time.Minute)
	p := newTestPool(t, tr, "a", "b", "c")
	comp := &scriptedCompleter{}
	d := NewDispatcher(p, comp, time.Second)

	res, err := d.Dispatch(context.Background(), userTurn("hello"), CompletionOptions{})
	require.ErrorIs(t, err, ErrPoolExhausted)
	require.Equal(t, 3, res.Attempts, "a walk makes at most one attempt per pool model")
	require.Equal(t, []string{"a", "b", "c"}, comp.attempted())
}

func TestDispatcher_SkipsCoolingModels(t *testing.T) {
	tr := NewTracker(1, time.Hour)
	p := newTestPool(t, tr, "a", "b")
	tr.RecordFailure("a")

	comp := &scriptedCompleter{replies: map[string]string{"b": "ok"}}
	d := NewDispatcher(p, comp, time.Second)

	res, err := d.Dispatch(context.Background(), userTurn("hello"), CompletionOptions{})
	require.NoError(t, err)
	require.Equal(t, "b", res.Model)
	require.Equal(t, 1, res.Attempts)
	require.Equal(t, []string{"b"}, comp.attempted(), "cooling model must not be attempted")
}

func TestDispatcher_AllCoolingExhaustsWithoutAttempts(t *testing.T) {
	tr := NewTracker(1, time.Hour)
	p := newTestPool(t, tr, "a", "b")
	tr.RecordFailure("a")
	tr.RecordFailure("b")

	comp := &scriptedCompleter{}
	d := NewDispatcher(p, comp, time.Second)

	res, err := d.Dispatch(context.Background(), userTurn("hello"), CompletionOptions{})
	require.ErrorIs(t, err, ErrPoolExhausted)
	require.Equal(t, 0, res.Attempts)
	require.Empty(t, comp.attempted())
}

func TestDispatcher_AuthRejectionAbortsWalk(t *testing.T) {
	tr := NewTracker(2, time.Minute)
	p := newTestPool(t, tr, "a", "b", "c")
	comp := &scriptedCompleter{
		errs:    map[string]error{"a": &BackendError{Model: "a", Kind: FailureAuth, Status: 401}},
		replies: map[string]string{"b": "unreachable"},
	}
	d := NewDispatcher(p, comp, time.Second)

	_, err := d.Dispatch(context.Background(), userTurn("hello"), CompletionOptions{})
	var be *BackendError
	require.ErrorAs(t, err, &be)
	require.Equal(t, FailureAuth, be.Kind)
	require.Equal(t, []string{"a"}, comp.attempted(), "the shared key fails everywhere; aborting saves the walk")
	require.Equal(t, 0, tr.Snapshot("a").ConsecutiveFailures, "auth rejection is not the model's fault")
}

func TestDispatcher_RotationSpreadsConsecutiveTurns(t *testing.T) {
	tr := NewTracker(2, time.Minute)
	p := newTestPool(t, tr, "a", "b", "c")
	comp := &scriptedCompleter{replies: map[string]string{"a": "ra", "b": "rb", "c": "rc"}}
	d := NewDispatcher(p, comp, time.Second)

	for _, want := range []string{"a", "b", "c", "a"} {
		res, err := d.Dispatch(context.Background(), userTurn("hello"), CompletionOptions{})
		require.NoError(t, err)
		require.Equal(t, want, res.Model, "consecutive turns must rotate through the pool")
	}
}

func TestDispatcher_EmptyCatalog(t *testing.T) {
	p := NewPool(&staticCatalog{}, NewTracker(2, time.Minute))
	d := NewDispatcher(p, &scriptedCompleter{}, time.Second)

	_, err := d.Dispatch(context.Background(), userTurn("hello"), CompletionOptions{})
	require.ErrorIs(t, err, ErrPoolExhausted)
}

func TestDispatcher_CancelledContextStopsWalk(t *testing.T) {
	tr := NewTracker(2, time.Minute)
	p := newTestPool(t, tr, "a", "b")
	comp := &scriptedCompleter{replies: map[string]string{"a": "ok"}}
	d := NewDispatcher(p, comp, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dispatch(ctx, userTurn("hello"), CompletionOptions{})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, comp.attempted())
}

// stallingCompleter never answers for the "slow" model, forcing the
// per-attempt deadline to expire.
type stallingCompleter struct{}

func (stallingCompleter) Complete(ctx context.Context, modelID string, _ []*schema.Message, _ CompletionOptions) (string, error) {
	if modelID == "slow" {
		<-ctx.Done()
		return "", &BackendError{Model: modelID, Kind: FailureTimeout, Err: ctx.Err()}
	}
	return "quick answer", nil
}

func TestDispatcher_TimeoutFailsOverToNextModel(t *testing.T) {
	tr := NewTracker(2, time.Minute)
	p := newTestPool(t, tr, "slow", "fast")
	d := NewDispatcher(p, stallingCompleter{}, 30*time.Millisecond)

	res, err := d.Dispatch(context.Background(), userTurn("hello"), CompletionOptions{})
	require.NoError(t, err)
	require.Equal(t, "fast", res.Model, "timed-out attempt must fail over, not surface")
	require.Equal(t, "quick answer", res.Reply)
	require.Equal(t, 1, tr.Snapshot("slow").ConsecutiveFailures)
}
