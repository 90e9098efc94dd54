package jobs

import (
	"context"
	"log"
	"time"

	"casino/internal/services/investment"
)

type InvestmentMaturityJob struct {
	investments *investment.Service
	stopCh      chan struct{}
	interval    time.Duration
	batchSize   int
}

func NewInvestmentMaturityJob(investments *investment.Service, interval time.Duration, batchSize int) *InvestmentMaturityJob {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &InvestmentMaturityJob{
		investments: investments,
		stopCh:      make(chan struct{}),
		interval:    interval,
		batchSize:   batchSize,
	}
}

func (j *InvestmentMaturityJob) Start(ctx context.Context) {
	log.Println("[InvestmentMaturityJob] started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[InvestmentMaturityJob] context cancelled, exiting")
			return
		case <-j.stopCh:
			log.Println("[InvestmentMaturityJob] stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *InvestmentMaturityJob) Stop() {
	close(j.stopCh)
}

func (j *InvestmentMaturityJob) sweep(ctx context.Context) {
	paid, err := j.investments.SweepMatured(ctx, j.batchSize)
	if err != nil {
		log.Printf("[InvestmentMaturityJob] sweep failed: %v", err)
		return
	}
	if paid > 0 {
		log.Printf("[InvestmentMaturityJob] paid out %d matured investments", paid)
	}
}
