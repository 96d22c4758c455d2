package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/tasks"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression such as "0 * * * *".
func ValidateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// ReconcileScheduler periodically repairs borrowed flags that drifted from the
// loans table, e.g. after manual edits to the database.
type ReconcileScheduler struct {
	reconciler tasks.LoanReconciler
	cfg        config.Reconcile
	timeout    time.Duration

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	runMu      sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewReconcileScheduler(reconciler tasks.LoanReconciler, cfg config.Reconcile) *ReconcileScheduler {
	return &ReconcileScheduler{
		reconciler: reconciler,
		cfg:        cfg,
		timeout:    time.Minute,
		cron:       cron.New(cron.WithParser(cronParser)),
	}
}

// Start schedules the job if reconciliation is enabled. The scheduler stops
// itself when ctx is cancelled.
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled {
		log.Printf("[RECONCILE] Scheduler disabled")
		return nil
	}

	if err := ValidateSchedule(s.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.cfg.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.runReconcile()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reconcile job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("[RECONCILE] Scheduler started with schedule '%s'. Next run: %v",
		s.cfg.Schedule, s.cron.Entry(entryID).Next)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job to finish.
func (s *ReconcileScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("[RECONCILE] Scheduler stopped")
}

// RunNow triggers an immediate reconciliation in the background.
func (s *ReconcileScheduler) RunNow() {
	go s.runReconcile()
}

func (s *ReconcileScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next reconciliation will occur, or nil when stopped.
func (s *ReconcileScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	t := entry.Next
	return &t
}

// runReconcile never overlaps with itself.
func (s *ReconcileScheduler) runReconcile() {
	if !s.runMu.TryLock() {
		log.Printf("[RECONCILE] skipped (previous run still in progress)")
		return
	}
	defer s.runMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	repaired, err := s.reconciler.ReconcileBorrowedFlags(ctx)
	if err != nil {
		log.Printf("[RECONCILE] failed: %v", err)
		return
	}
	log.Printf("[RECONCILE] repaired %d books in %v", repaired, time.Since(start).Round(time.Millisecond))
}
