package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"mcstatus/internal/logging"
	"mcstatus/internal/models"
	"mcstatus/internal/services"

	"github.com/google/uuid"
)

// Fetcher produces one observation per cycle
type Fetcher interface {
	Fetch(ctx context.Context, address string) *models.Observation
}

// Publisher places the rendered embed in the channel
type Publisher interface {
	Reconcile(ctx context.Context, embed *models.Embed) services.ReconcileResult
}

// CycleSnapshot is the outcome of the most recent finished cycle
type CycleSnapshot struct {
	CycleID      string                   `json:"cycle_id"`
	StartedAt    time.Time                `json:"started_at"`
	FinishedAt   time.Time                `json:"finished_at"`
	DurationMs   int64                    `json:"duration_ms"`
	Observation  *models.Observation      `json:"observation"`
	RecentlySeen []models.PresenceRecord  `json:"recently_seen"`
	Reconcile    services.ReconcileResult `json:"reconcile"`
}

// StatusSyncJob runs one poll cycle: fetch, record presence, render, reconcile.
// At most one cycle runs at a time; a trigger that arrives mid-cycle is dropped.
type StatusSyncJob struct {
	address   string
	retention time.Duration

	fetcher    Fetcher
	tracker    *services.PresenceTracker
	view       *services.RecentlySeenCache
	renderer   *services.EmbedRenderer
	publisher  Publisher
	metrics    *services.Metrics
	now        func() time.Time
	inProgress atomic.Bool

	mu   sync.RWMutex
	last *CycleSnapshot
}

// NewStatusSyncJob creates the poll cycle job for the server at address
func NewStatusSyncJob(
	address string,
	retention time.Duration,
	fetcher Fetcher,
	tracker *services.PresenceTracker,
	view *services.RecentlySeenCache,
	renderer *services.EmbedRenderer,
	publisher Publisher,
	metrics *services.Metrics,
) *StatusSyncJob {
	return &StatusSyncJob{
		address:   address,
		retention: retention,
		fetcher:   fetcher,
		tracker:   tracker,
		view:      view,
		renderer:  renderer,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Name identifies the job in the scheduler
func (j *StatusSyncJob) Name() string {
	return "status-sync"
}

// Running reports whether a cycle is currently executing
func (j *StatusSyncJob) Running() bool {
	return j.inProgress.Load()
}

// LastCycle returns the most recent finished cycle, or nil before the first one
func (j *StatusSyncJob) LastCycle() *CycleSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}

// Run executes one cycle. The only error it returns is services.ErrCycleInProgress;
// every other failure is absorbed and reflected in the snapshot.
func (j *StatusSyncJob) Run(ctx context.Context) error {
	if !j.inProgress.CompareAndSwap(false, true) {
		j.metrics.RecordCycle("skipped", 0)
		return services.ErrCycleInProgress
	}
	defer j.inProgress.Store(false)

	cycleID := uuid.New().String()
	logger := logging.WithCycle(cycleID, j.address)
	startedAt := j.now()

	obs := j.fetcher.Fetch(ctx, j.address)
	j.metrics.RecordObservation(obs.Online, onlineCount(obs), obs.LatencyMs)

	if obs.HasPlayerList() {
		j.tracker.RecordSeen(ctx, obs.OnlinePlayers)
	}

	// The recently-seen section is only rendered next to a player count
	var recent []models.PresenceRecord
	if obs.Online && obs.Players != nil {
		recent = j.view.Get(ctx, obs.OnlinePlayers, j.retention)
	}

	embed := j.renderer.Render(obs, recent, j.now())
	result := j.publisher.Reconcile(ctx, embed)

	finishedAt := j.now()
	duration := finishedAt.Sub(startedAt)

	j.mu.Lock()
	j.last = &CycleSnapshot{
		CycleID:      cycleID,
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
		DurationMs:   duration.Milliseconds(),
		Observation:  obs,
		RecentlySeen: recent,
		Reconcile:    result,
	}
	j.mu.Unlock()

	attrs := []any{
		"online", obs.Online,
		"players", onlineCount(obs),
		"recently_seen", len(recent),
		"step", result.Step,
		"message_id", result.MessageID,
		"duration_ms", duration.Milliseconds(),
	}
	if obs.LatencyMs != nil {
		attrs = append(attrs, "latency_ms", *obs.LatencyMs)
	}

	if result.Synced {
		j.metrics.RecordCycle("synced", duration)
		logger.Info("status cycle complete", attrs...)
	} else {
		j.metrics.RecordCycle("unsynced", duration)
		logger.Warn("status cycle finished without a synced message", append(attrs, "reason", result.Reason)...)
	}
	return nil
}

func onlineCount(obs *models.Observation) int {
	if obs.Players != nil {
		return obs.Players.Online
	}
	return len(obs.OnlinePlayers)
}
