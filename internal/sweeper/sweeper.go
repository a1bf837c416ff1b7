// Package sweeper expires stale Pending enrollments in the background so
// unconfirmed requests do not hold seats forever.
package sweeper

import (
	"context"
	"log"
	"time"

	"course-enrollment-backend/config"
	"course-enrollment-backend/internal/model"
	"course-enrollment-backend/internal/notification"
	"course-enrollment-backend/internal/store"
)

// Service periodically cancels Pending enrollments older than the
// configured TTL.
type Service struct {
	cfg        config.EnrollmentConfig
	store      store.Store
	workerPool *notification.WorkerPool
	interval   time.Duration
	ttl        time.Duration
}

// NewService creates a sweeper. workerPool may be nil when push is
// disabled.
func NewService(cfg config.EnrollmentConfig, s store.Store, wp *notification.WorkerPool) *Service {
	return &Service{
		cfg:        cfg,
		store:      s,
		workerPool: wp,
		interval:   time.Duration(cfg.SweepIntervalSeconds) * time.Second,
		ttl:        time.Duration(cfg.PendingTTLMinutes) * time.Minute,
	}
}

// Run starts the sweep loop. It returns immediately when no TTL is
// configured.
func (s *Service) Run(ctx context.Context) {
	if s.cfg.PendingTTLMinutes <= 0 {
		log.Println("Pending-enrollment sweeper is disabled. Not starting.")
		return
	}
	log.Println("Starting pending-enrollment sweeper...")

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sweeper shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// SweepOnce cancels every Pending enrollment past the TTL and notifies
// the affected students.
func (s *Service) SweepOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.ttl)
	ids, err := s.store.ExpirePending(ctx, cutoff)
	if err != nil {
		log.Printf("Sweep failed: %v", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	log.Printf("Expired %d pending enrollments older than %s", len(ids), cutoff.Format(time.RFC3339))
	if s.workerPool != nil {
		for _, id := range ids {
			s.workerPool.Dispatch(notification.Event{
				EnrollmentID: id,
				State:        model.StateCancelled,
			})
		}
	}
}
