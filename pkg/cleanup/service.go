// Package cleanup enforces the retention policy: resolved tasks past
// their retention window are pruned from the store, and trace rings of
// closed threads are dropped from memory.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/trace"
)

// DefaultInterval applies when the retention settings carry no positive
// cleanup interval.
const DefaultInterval = time.Hour

// Service runs the periodic retention sweep. Both passes are
// idempotent; a missed run only delays pruning.
type Service struct {
	store  *store.Store
	trace  *trace.Bus
	logger *slog.Logger
	now    func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates the cleanup service. The trace bus may be nil when
// only task pruning is wanted.
func NewService(st *store.Store, bus *trace.Bus, logger *slog.Logger) *Service {
	if st == nil {
		panic("cleanup.NewService: nil store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		trace:  bus,
		logger: logger.With("component", "cleanup"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the background loop: one sweep immediately, then one
// per interval. The interval comes from the persisted retention
// settings at start time.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	interval := s.interval(ctx)
	go s.run(ctx, interval)

	s.logger.Info("cleanup service started", "interval", interval)
}

// Stop signals the loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("cleanup service stopped")
}

func (s *Service) interval(ctx context.Context) time.Duration {
	var retention models.RetentionSettings
	err := s.store.WithLock(ctx, func(db *store.Database) error {
		retention = db.LoadSettings().Retention
		return nil
	})
	if err != nil || retention.CleanupIntervalMinutes <= 0 {
		return DefaultInterval
	}
	return time.Duration(retention.CleanupIntervalMinutes) * time.Minute
}

func (s *Service) run(ctx context.Context, interval time.Duration) {
	defer close(s.done)

	s.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single retention sweep.
func (s *Service) RunOnce(ctx context.Context) {
	pruned, dropped, err := s.sweep(ctx)
	if err != nil {
		s.logger.Error("retention sweep failed", "error", err)
		return
	}
	if pruned > 0 || dropped > 0 {
		s.logger.Info("retention sweep done",
			"tasks_pruned", pruned,
			"traces_dropped", dropped)
	}
}

// sweep prunes tasks under the store lock, then drops traces outside
// it: the bus has its own lock and a closed thread cannot reopen.
func (s *Service) sweep(ctx context.Context) (pruned, dropped int, err error) {
	var closed map[string]bool
	err = s.store.WithLock(ctx, func(db *store.Database) error {
		retention := db.LoadSettings().Retention
		pruned = pruneTasks(db, s.now(), retention.TaskRetentionDays)
		closed = closedThreads(db)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	if s.trace != nil && len(closed) > 0 {
		for _, id := range s.trace.Threads() {
			if closed[id] {
				s.trace.Drop(id)
				dropped++
			}
		}
	}
	return pruned, dropped, nil
}

// pruneTasks removes resolved tasks older than the retention window.
// Pending tasks never expire.
func pruneTasks(db *store.Database, now time.Time, retentionDays int) int {
	if retentionDays <= 0 {
		return 0
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	kept := db.Tasks[:0]
	removed := 0
	for _, t := range db.Tasks {
		if t.Status == models.TaskPending || resolvedAt(t).After(cutoff) {
			kept = append(kept, t)
			continue
		}
		removed++
	}
	db.Tasks = kept
	return removed
}

// resolvedAt is the retention clock for a task: the resolution time
// when recorded, the creation time otherwise.
func resolvedAt(t *models.Task) time.Time {
	if t.Resolution != nil && !t.Resolution.ResolvedAt.IsZero() {
		return t.Resolution.ResolvedAt
	}
	return t.CreatedAt
}

// closedThreads collects thread ids whose event reached the closed
// state. Confirmed threads keep their trace: they still take follow-ups
// like site-visit arrangements.
func closedThreads(db *store.Database) map[string]bool {
	out := make(map[string]bool)
	for _, e := range db.Events {
		if e.ThreadState == models.ThreadStateClosed && e.ThreadID != "" {
			out[e.ThreadID] = true
		}
	}
	return out
}
