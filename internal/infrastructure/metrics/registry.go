// Package metrics provides a process-local counter registry backing the
// operational metrics endpoints. Counters are named with dotted paths
// (e.g. "pos.sync.runs") and can be exported as a JSON snapshot or in
// Prometheus exposition format.
package metrics

import (
	"sync"
	"time"
)

// Counter names recorded by the sync and posting pipeline
const (
	SyncRuns            = "pos.sync.runs"
	SyncFullRuns        = "pos.sync.full_runs"
	SyncIncrementalRuns = "pos.sync.incremental_runs"
	SyncCreated         = "pos.sync.created"
	SyncSkipped         = "pos.sync.skipped"
	SyncErrors          = "pos.sync.errors"
	SyncErrorSpikes     = "pos.sync.error_spike"
	SyncScheduledRuns   = "pos.sync.scheduled_runs"
	SyncScheduledDone   = "pos.sync.scheduled_executed"
	SyncScheduledSkips  = "pos.sync.scheduled_skipped"
	SyncScheduledErrors = "pos.sync.scheduled_errors"
	PostSuccess         = "pos.post.success"
	PostNegativeDay     = "pos.post.negative_day"
	PostNothing         = "pos.post.nothing"
)

// Snapshot is a point-in-time copy of all counters
type Snapshot struct {
	Counters    map[string]int64 `json:"counters"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Registry is a concurrency-safe named counter registry
type Registry struct {
	mu       sync.RWMutex
	counters map[string]int64
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]int64)}
}

// Inc increments a counter by one
func (r *Registry) Inc(name string) {
	r.Add(name, 1)
}

// Add increments a counter by the given delta
func (r *Registry) Add(name string, delta int64) {
	r.mu.Lock()
	r.counters[name] += delta
	r.mu.Unlock()
}

// Set sets a counter to an absolute value
func (r *Registry) Set(name string, value int64) {
	r.mu.Lock()
	r.counters[name] = value
	r.mu.Unlock()
}

// Get returns the current value of a counter, zero if never touched
func (r *Registry) Get(name string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// Reset removes the named counter, or all counters when name is empty
func (r *Registry) Reset(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		r.counters = make(map[string]int64)
		return
	}
	delete(r.counters, name)
}

// Snapshot returns a copy of all counters
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int64, len(r.counters))
	for k, v := range r.counters {
		out[k] = v
	}
	return Snapshot{Counters: out, GeneratedAt: time.Now().UTC()}
}
