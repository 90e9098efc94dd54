// Package jobs runs the periodic maintenance sweeps: overdue loan defaults
// and matured investment payouts. Each job is a plain ticker loop stopped by
// context cancellation or Stop.
package jobs

import (
	"context"
	"log"
	"time"

	"casino/internal/services/loan"
)

type LoanDefaultJob struct {
	loans     *loan.Service
	stopCh    chan struct{}
	interval  time.Duration
	batchSize int
}

func NewLoanDefaultJob(loans *loan.Service, interval time.Duration, batchSize int) *LoanDefaultJob {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &LoanDefaultJob{
		loans:     loans,
		stopCh:    make(chan struct{}),
		interval:  interval,
		batchSize: batchSize,
	}
}

func (j *LoanDefaultJob) Start(ctx context.Context) {
	log.Println("[LoanDefaultJob] started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[LoanDefaultJob] context cancelled, exiting")
			return
		case <-j.stopCh:
			log.Println("[LoanDefaultJob] stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *LoanDefaultJob) Stop() {
	close(j.stopCh)
}

func (j *LoanDefaultJob) sweep(ctx context.Context) {
	defaulted, err := j.loans.SweepDefaults(ctx, j.batchSize)
	if err != nil {
		log.Printf("[LoanDefaultJob] sweep failed: %v", err)
		return
	}
	if defaulted > 0 {
		log.Printf("[LoanDefaultJob] marked %d loans defaulted", defaulted)
	}
}
