package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// LoanReconciler repairs books whose borrowed flag disagrees with their loans.
type LoanReconciler interface {
	ReconcileBorrowedFlags(ctx context.Context) (int64, error)
}

// ReconcileLoansTask realigns books.is_borrowed with the loans table.
type ReconcileLoansTask struct{}

// Config returns the queue configuration for reconcile tasks.
func (t ReconcileLoansTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "reconcile_loans",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ReconcileLoansProcessor creates a processor function for ReconcileLoansTask.
func ReconcileLoansProcessor(reconciler LoanReconciler) backlite.QueueProcessor[ReconcileLoansTask] {
	return func(ctx context.Context, task ReconcileLoansTask) error {
		if reconciler == nil {
			return fmt.Errorf("loan reconciler not configured")
		}

		repaired, err := reconciler.ReconcileBorrowedFlags(ctx)
		if err != nil {
			return fmt.Errorf("reconcile loans: %w", err)
		}

		if repaired > 0 {
			log.Printf("[TASK] Repaired borrowed flag on %d books", repaired)
		}
		return nil
	}
}

// NewReconcileLoansQueue creates a backlite queue for reconcile tasks.
func NewReconcileLoansQueue(reconciler LoanReconciler) backlite.Queue {
	return backlite.NewQueue(ReconcileLoansProcessor(reconciler))
}
