package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	logx "github.com/xsharmas/Brainhealer-bot/pkg/logger"
)

// Completer issues one chat completion against one model.
type Completer interface {
	Complete(ctx context.Context, modelID string, messages []*schema.Message, opts CompletionOptions) (string, error)
}

// CompletionOptions bound a single completion attempt.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float32
	User        string
}

// Result is a successful dispatch outcome.
type Result struct {
	Reply    string
	Model    string
	Attempts int
}

// Dispatcher walks the pool rotation until one model answers. Failed
// attempts are recorded against the tracker and never surface to callers;
// the only dispatch-level errors are an exhausted pool and an auth
// rejection.
type Dispatcher struct {
	pool      *Pool
	completer Completer
	timeout   time.Duration
}

// NewDispatcher wires a dispatcher over the shared pool. timeout bounds
// each individual model attempt, not the walk as a whole.
func NewDispatcher(pool *Pool, completer Completer, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Dispatcher{pool: pool, completer: completer, timeout: timeout}
}

// Dispatch tries eligible candidates in rotation order, at most once
// through the pool. The rotation order is deterministic given the cursor
// and the catalog snapshot.
func (d *Dispatcher) Dispatch(ctx context.Context, messages []*schema.Message, opts CompletionOptions) (Result, error) {
	rotation := d.pool.Rotation()
	if len(rotation) == 0 {
		return Result{}, fmt.Errorf("%w: empty catalog", ErrPoolExhausted)
	}

	attempts := 0
	for _, m := range rotation {
		if ctx.Err() != nil {
			return Result{Attempts: attempts}, ctx.Err()
		}
		// Eligibility is checked at attempt time, so a cooldown that lapsed
		// since the snapshot lets the model back in.
		if !d.pool.Tracker().Eligible(m.ID) {
			continue
		}

		attempts++
		reply, err := d.tryModel(ctx, m.ID, messages, opts)
		if err == nil {
			d.pool.Tracker().RecordSuccess(m.ID)
			d.pool.PromoteCursorPast(m.ID)
			logx.Info().Str("model", m.ID).Int("attempts", attempts).Msg("Dispatch succeeded")
			return Result{Reply: reply, Model: m.ID, Attempts: attempts}, nil
		}

		var be *BackendError
		if errors.As(err, &be) && !be.Retryable() {
			logx.Error().Str("model", m.ID).Int("status", be.Status).Msg("Provider rejected credentials; aborting walk")
			return Result{Attempts: attempts}, err
		}

		d.pool.Tracker().RecordFailure(m.ID)
		evt := logx.Warn().Str("model", m.ID)
		if be != nil {
			evt = evt.Str("kind", string(be.Kind)).Int("status", be.Status)
		} else {
			evt = evt.Err(err)
		}
		evt.Msg("Model attempt failed; trying next candidate")
	}

	logx.Warn().Int("attempts", attempts).Msg("All eligible models failed this walk")
	return Result{Attempts: attempts}, fmt.Errorf("%w after %d attempts", ErrPoolExhausted, attempts)
}

func (d *Dispatcher) tryModel(ctx context.Context, id string, messages []*schema.Message, opts CompletionOptions) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.completer.Complete(attemptCtx, id, messages, opts)
}
