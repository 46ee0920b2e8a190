package router

import (
	"sync"
	"time"
)

// ModelStatus is the health state of one catalog model.
type ModelStatus string

const (
	StatusAvailable ModelStatus = "available"
	StatusCooling   ModelStatus = "cooling"
	StatusDisabled  ModelStatus = "disabled"
)

// HealthRecord tracks the failure history of one model.
type HealthRecord struct {
	Status              ModelStatus
	ConsecutiveFailures int
	CooldownUntil       time.Time
}

// Tracker keeps per-model health records shared by every concurrent
// dispatch. A model that fails threshold times in a row is cooled down for
// the configured window; eligibility checks expire the window lazily, so no
// background timer ever mutates a record. Disabled is reserved for models
// dropped from the live catalog and is lifted only when a later refresh
// lists the model again.
type Tracker struct {
	mu        sync.Mutex
	records   map[string]*HealthRecord
	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

// NewTracker creates a tracker with the given failure threshold and
// cooldown window.
func NewTracker(threshold int, cooldown time.Duration) *Tracker {
	if threshold < 1 {
		threshold = 1
	}
	return &Tracker{
		records:   make(map[string]*HealthRecord),
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// record returns the entry for id, creating a fresh available one when
// absent. Callers must hold mu.
func (t *Tracker) record(id string) *HealthRecord {
	r, ok := t.records[id]
	if !ok {
		r = &HealthRecord{Status: StatusAvailable}
		t.records[id] = r
	}
	return r
}

// Eligible reports whether id may be attempted right now. An expired
// cooldown flips the record back to available with its failure count reset.
func (t *Tracker) Eligible(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.record(id)
	switch r.Status {
	case StatusDisabled:
		return false
	case StatusCooling:
		if t.now().Before(r.CooldownUntil) {
			return false
		}
		r.Status = StatusAvailable
		r.ConsecutiveFailures = 0
		r.CooldownUntil = time.Time{}
		return true
	default:
		return true
	}
}

// RecordSuccess clears the failure streak for id.
func (t *Tracker) RecordSuccess(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.record(id)
	r.Status = StatusAvailable
	r.ConsecutiveFailures = 0
	r.CooldownUntil = time.Time{}
}

// RecordFailure increments the failure streak for id and starts a cooldown
// once the streak reaches the threshold.
func (t *Tracker) RecordFailure(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.record(id)
	if r.Status == StatusDisabled {
		return
	}
	r.ConsecutiveFailures++
	if r.ConsecutiveFailures >= t.threshold {
		r.Status = StatusCooling
		r.CooldownUntil = t.now().Add(t.cooldown)
	}
}

// SyncCatalog reconciles records with a freshly fetched model list: models
// missing from the list are disabled, disabled models that reappear start
// over with a clean record, and unknown ids get fresh records. Cooling
// state survives for ids still listed.
func (t *Tracker) SyncCatalog(ids []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	listed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		listed[id] = struct{}{}
	}

	for id, r := range t.records {
		if _, ok := listed[id]; !ok {
			r.Status = StatusDisabled
			r.CooldownUntil = time.Time{}
		}
	}

	for _, id := range ids {
		r, ok := t.records[id]
		if !ok || r.Status == StatusDisabled {
			t.records[id] = &HealthRecord{Status: StatusAvailable}
		}
	}
}

// Snapshot returns a copy of the stored record for id.
func (t *Tracker) Snapshot(id string) HealthRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.record(id)
}
