package router

import (
	"context"
	"errors"
	"sync"
	"time"

	errx "github.com/xsharmas/Brainhealer-bot/internal/core/error"
	logx "github.com/xsharmas/Brainhealer-bot/pkg/logger"
)

// CatalogSource lists the models the pool may rotate through.
type CatalogSource interface {
	FetchModels(ctx context.Context) ([]ModelInfo, error)
}

// Pool owns the live catalog, its rotation cursor, and the shared health
// tracker. The catalog is replaced wholesale on refresh; dispatches work on
// immutable snapshots, so a refresh never corrupts a walk in progress.
type Pool struct {
	mu      sync.Mutex
	models  []ModelInfo
	cursor  int
	tracker *Tracker
	catalog CatalogSource
}

// NewPool creates an empty pool over the given catalog source and tracker.
func NewPool(catalog CatalogSource, tracker *Tracker) *Pool {
	return &Pool{catalog: catalog, tracker: tracker}
}

// Bootstrap performs the initial catalog load. A failed first fetch falls
// back to the static catalog so the bot can answer while the listing
// endpoint recovers.
func (p *Pool) Bootstrap(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil {
		logx.Warn().Err(err).Msg("Initial catalog fetch failed; starting on fallback catalog")
		p.replace(FallbackCatalog())
	}
}

// Refresh replaces the catalog with a fresh listing. On fetch failure the
// previous catalog stays in place untouched.
func (p *Pool) Refresh(ctx context.Context) error {
	models, err := p.catalog.FetchModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return errx.WrapCatalog(errors.New("listing contained no free models"))
	}
	p.replace(models)
	return nil
}

func (p *Pool) replace(models []ModelInfo) {
	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	p.tracker.SyncCatalog(ids)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.models = models
	p.cursor = p.cursor % len(models)
	logx.Info().Int("models", len(models)).Msg("Model catalog replaced")
}

// Rotation snapshots the candidate order for one dispatch, starting at the
// cursor, and advances the cursor by one so the next call starts elsewhere
// regardless of how this one ends.
func (p *Pool) Rotation() []ModelInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.models)
	if n == 0 {
		return nil
	}
	out := make([]ModelInfo, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, p.models[(p.cursor+i)%n])
	}
	p.cursor = (p.cursor + 1) % n
	return out
}

// PromoteCursorPast points the cursor at the model after id, so the next
// dispatch does not start on the model that just answered.
func (p *Pool) PromoteCursorPast(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, m := range p.models {
		if m.ID == id {
			p.cursor = (i + 1) % len(p.models)
			return
		}
	}
}

// Tracker exposes the shared health tracker.
func (p *Pool) Tracker() *Tracker {
	return p.tracker
}

// Size returns the number of models currently in the catalog.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.models)
}

// StartRefresh re-fetches the catalog on the given interval until ctx is
// cancelled. Failures only log; in-flight dispatches keep their snapshots
// and the previous catalog stays live.
func (p *Pool) StartRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.Refresh(ctx); err != nil {
					logx.Warn().Err(err).Msg("Catalog refresh failed; keeping previous catalog")
				}
			}
		}
	}()
}
