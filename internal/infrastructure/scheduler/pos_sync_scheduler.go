package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openbooks/backend/internal/domain/pos"
	"github.com/openbooks/backend/internal/infrastructure/metrics"
)

// ---------------------------------------------------------------------------
// Run Types
// ---------------------------------------------------------------------------

// Skip reasons reported by RunOnce when a run is short-circuited.
const (
	SkipReasonAlreadyRunning      = "already_running"
	SkipReasonIntegrationDisabled = "integration_disabled"
)

// RunResult is the outcome of a single RunOnce invocation.
type RunResult struct {
	Skipped bool
	Reason  string
	Result  *pos.SyncResult
}

// RunRecord is a completed run kept in the in-memory history.
type RunRecord struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Provider    pos.ProviderCode
	Full        bool
	StartedAt   time.Time
	CompletedAt time.Time
	Skipped     bool
	Reason      string
	Error       string
	Created     int
	Duplicates  int
	Errors      int
}

// SyncTarget identifies one tenant/provider pair the ticker loop syncs.
type SyncTarget struct {
	TenantID uuid.UUID
	Provider pos.ProviderCode
}

// ---------------------------------------------------------------------------
// PosSyncExecutor Interface
// ---------------------------------------------------------------------------

// PosSyncExecutor runs one sync pass for a tenant and provider.
type PosSyncExecutor interface {
	Sync(ctx context.Context, tenantID uuid.UUID, provider pos.ProviderCode, full bool) (*pos.SyncResult, error)
}

// SyncFunc adapts a plain function to the PosSyncExecutor interface.
type SyncFunc func(ctx context.Context, tenantID uuid.UUID, provider pos.ProviderCode, full bool) (*pos.SyncResult, error)

// Sync implements PosSyncExecutor
func (f SyncFunc) Sync(ctx context.Context, tenantID uuid.UUID, provider pos.ProviderCode, full bool) (*pos.SyncResult, error) {
	return f(ctx, tenantID, provider, full)
}

// ---------------------------------------------------------------------------
// PosSyncSchedulerConfig
// ---------------------------------------------------------------------------

// PosSyncSchedulerConfig holds configuration for the POS sync scheduler
type PosSyncSchedulerConfig struct {
	// Enabled indicates if the background ticker loop is enabled
	Enabled bool
	// Interval is how often the ticker loop syncs each registered target
	Interval time.Duration
	// RunTimeout is the maximum time a single sync pass can run
	RunTimeout time.Duration
	// MaxHistory is the number of run records kept in memory
	MaxHistory int
}

// DefaultPosSyncSchedulerConfig returns default configuration
func DefaultPosSyncSchedulerConfig() PosSyncSchedulerConfig {
	return PosSyncSchedulerConfig{
		Enabled:    true,
		Interval:   15 * time.Minute,
		RunTimeout: 10 * time.Minute,
		MaxHistory: 100,
	}
}

// Validate validates the configuration
func (c *PosSyncSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.RunTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxHistory <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// PosSyncScheduler
// ---------------------------------------------------------------------------

// PosSyncScheduler runs periodic POS sync passes with single-flight
// protection per tenant/provider. Concurrent requests for a pair that is
// already syncing are skipped rather than queued. When a redislock client
// is configured, the same guarantee extends across process instances via
// a leased key.
type PosSyncScheduler struct {
	config   PosSyncSchedulerConfig
	executor PosSyncExecutor
	registry *metrics.Registry
	logger   *zap.Logger
	locker   *redislock.Client

	// In-flight markers, keyed by tenant/provider
	flightMu sync.Mutex
	inFlight map[string]struct{}

	targetsMu sync.RWMutex
	targets   map[string]SyncTarget

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Run history for monitoring (in-memory, limited size)
	historyMu sync.RWMutex
	history   []*RunRecord
}

// NewPosSyncScheduler creates a new POS sync scheduler. The locker is
// optional; pass nil for single-instance deployments.
func NewPosSyncScheduler(config PosSyncSchedulerConfig, executor PosSyncExecutor, registry *metrics.Registry, locker *redislock.Client, logger *zap.Logger) (*PosSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &PosSyncScheduler{
		config:   config,
		executor: executor,
		registry: registry,
		logger:   logger,
		locker:   locker,
		inFlight: make(map[string]struct{}),
		targets:  make(map[string]SyncTarget),
		history:  make([]*RunRecord, 0, config.MaxHistory),
	}, nil
}

// RegisterTarget adds a tenant/provider pair to the ticker loop.
func (s *PosSyncScheduler) RegisterTarget(tenantID uuid.UUID, provider pos.ProviderCode) {
	s.targetsMu.Lock()
	defer s.targetsMu.Unlock()
	s.targets[runKey(tenantID, provider)] = SyncTarget{TenantID: tenantID, Provider: provider}
}

// UnregisterTarget removes a tenant/provider pair from the ticker loop.
func (s *PosSyncScheduler) UnregisterTarget(tenantID uuid.UUID, provider pos.ProviderCode) {
	s.targetsMu.Lock()
	defer s.targetsMu.Unlock()
	delete(s.targets, runKey(tenantID, provider))
}

// Start starts the background ticker loop
func (s *PosSyncScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("POS sync scheduler disabled, not starting")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("POS sync scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("run_timeout", s.config.RunTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *PosSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("POS sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("POS sync scheduler stop timed out")
		return ctx.Err()
	}
}

// loop syncs every registered target once per interval
func (s *PosSyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, target := range s.snapshotTargets() {
				target := target
				s.wg.Add(1)
				go func() {
					defer s.wg.Done()
					if _, err := s.RunOnce(ctx, target.TenantID, target.Provider, false); err != nil {
						s.logger.Error("Scheduled POS sync failed",
							zap.String("tenant_id", target.TenantID.String()),
							zap.String("provider", string(target.Provider)),
							zap.Error(err),
						)
					}
				}()
			}
		}
	}
}

func (s *PosSyncScheduler) snapshotTargets() []SyncTarget {
	s.targetsMu.RLock()
	defer s.targetsMu.RUnlock()

	result := make([]SyncTarget, 0, len(s.targets))
	for _, t := range s.targets {
		result = append(result, t)
	}
	return result
}

// RunOnce performs a single sync attempt for a tenant/provider pair.
// Every invocation counts one scheduled run, whether it executes or is
// skipped. A pair that is already in flight, or whose integration is not
// enabled, yields a skipped result rather than an error.
func (s *PosSyncScheduler) RunOnce(ctx context.Context, tenantID uuid.UUID, provider pos.ProviderCode, full bool) (*RunResult, error) {
	s.registry.Inc(metrics.SyncScheduledRuns)

	startedAt := time.Now()
	key := runKey(tenantID, provider)

	s.flightMu.Lock()
	if _, running := s.inFlight[key]; running {
		s.flightMu.Unlock()
		return s.skip(tenantID, provider, full, startedAt, SkipReasonAlreadyRunning), nil
	}
	s.inFlight[key] = struct{}{}
	s.flightMu.Unlock()

	// The marker must be cleared on every exit path, including failures,
	// so a failed run never wedges the pair.
	defer func() {
		s.flightMu.Lock()
		delete(s.inFlight, key)
		s.flightMu.Unlock()
	}()

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, "pos:sync:lease:"+key, s.config.RunTimeout, nil)
		if err == redislock.ErrNotObtained {
			return s.skip(tenantID, provider, full, startedAt, SkipReasonAlreadyRunning), nil
		}
		if err != nil {
			// The local marker still guards this instance.
			s.logger.Warn("Could not obtain sync lease, proceeding with local guard only",
				zap.String("tenant_id", tenantID.String()),
				zap.String("provider", string(provider)),
				zap.Error(err),
			)
		} else {
			defer func() {
				_ = lock.Release(context.WithoutCancel(ctx))
			}()
		}
	}

	runCtx, cancelRun := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancelRun()

	result, err := s.executor.Sync(runCtx, tenantID, provider, full)
	if err != nil {
		if errors.Is(err, pos.ErrProviderNotEnabled) || errors.Is(err, pos.ErrProviderNotConfigured) {
			return s.skip(tenantID, provider, full, startedAt, SkipReasonIntegrationDisabled), nil
		}

		s.registry.Inc(metrics.SyncScheduledErrors)
		s.addToHistory(&RunRecord{
			ID:          uuid.New(),
			TenantID:    tenantID,
			Provider:    provider,
			Full:        full,
			StartedAt:   startedAt,
			CompletedAt: time.Now(),
			Error:       err.Error(),
		})
		s.logger.Error("POS sync run failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("provider", string(provider)),
			zap.Error(err),
		)
		return nil, err
	}

	s.registry.Inc(metrics.SyncScheduledDone)
	s.addToHistory(&RunRecord{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Provider:    provider,
		Full:        result.Full,
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		Created:     result.Created,
		Duplicates:  result.Skipped,
		Errors:      result.Errors,
	})
	s.logger.Info("POS sync run completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("provider", string(provider)),
		zap.Bool("full", result.Full),
		zap.Int("created", result.Created),
		zap.Int("duplicates", result.Skipped),
		zap.Int("errors", result.Errors),
	)

	return &RunResult{Result: result}, nil
}

// skip records a skipped run and counts it
func (s *PosSyncScheduler) skip(tenantID uuid.UUID, provider pos.ProviderCode, full bool, startedAt time.Time, reason string) *RunResult {
	s.registry.Inc(metrics.SyncScheduledSkips)
	s.addToHistory(&RunRecord{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Provider:    provider,
		Full:        full,
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		Skipped:     true,
		Reason:      reason,
	})
	s.logger.Debug("POS sync run skipped",
		zap.String("tenant_id", tenantID.String()),
		zap.String("provider", string(provider)),
		zap.String("reason", reason),
	)
	return &RunResult{Skipped: true, Reason: reason}
}

// addToHistory adds a completed run to history
func (s *PosSyncScheduler) addToHistory(record *RunRecord) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	// Add to front
	s.history = append([]*RunRecord{record}, s.history...)

	// Trim if over limit
	if len(s.history) > s.config.MaxHistory {
		s.history = s.history[:s.config.MaxHistory]
	}
}

// GetHistory returns recent run history
func (s *PosSyncScheduler) GetHistory(limit int) []*RunRecord {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*RunRecord, limit)
	copy(result, s.history[:limit])
	return result
}

// GetHistoryByTenant returns run history for a specific tenant
func (s *PosSyncScheduler) GetHistoryByTenant(tenantID uuid.UUID, limit int) []*RunRecord {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	result := make([]*RunRecord, 0, limit)
	for _, record := range s.history {
		if record.TenantID == tenantID {
			result = append(result, record)
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result
}

func runKey(tenantID uuid.UUID, provider pos.ProviderCode) string {
	return tenantID.String() + ":" + string(provider)
}
