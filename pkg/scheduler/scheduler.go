package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hokireceh/mozi-wallet-faucet/pkg/config"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/logger"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/metrics"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/runner"
)

// Scheduler drives the configured account pairs through the per-account
// pipeline, strictly one at a time: correlated requests trip the remote
// service's rate limits. In continuous mode the whole batch repeats on a cron
// schedule; in single-pass mode RunBatch is called once and the process exits.
type Scheduler struct {
	runner  *runner.Runner
	pairs   []*config.AccountPair
	metrics *metrics.Metrics

	continuous bool
	schedule   string
	cron       *cron.Cron

	running  bool
	mutex    sync.RWMutex
	batchMu  sync.Mutex
	stopChan chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
}

// Info describes the scheduler for the status endpoint.
type Info struct {
	Running    bool      `json:"running"`
	Continuous bool      `json:"continuous"`
	Schedule   string    `json:"schedule,omitempty"`
	NextRun    time.Time `json:"nextRun,omitempty"`
	Accounts   int       `json:"accounts"`
}

func New(r *runner.Runner, pairs []*config.AccountPair, batch config.Batch, m *metrics.Metrics) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:     r,
		pairs:      pairs,
		metrics:    m,
		continuous: batch.Continuous,
		schedule:   batch.Schedule,
		cron:       cron.New(),
		stopChan:   make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// RunBatch processes every account sequentially; each cycle runs to its
// terminal state before the next account begins. Per-account failures never
// abort the batch.
func (s *Scheduler) RunBatch(ctx context.Context) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	logger.Infof("starting batch for %d accounts", len(s.pairs))
	startTime := time.Now()

	claimed, transferred, aborted := 0, 0, 0
	for _, pair := range s.pairs {
		// Accounts live for one pass; a refreshed token never leaks into the
		// next batch.
		acc := runner.NewAccount(pair.AccessToken, pair.RefreshToken)
		result := s.runner.Run(ctx, acc)
		s.record(result)

		if result.Claimed {
			claimed++
		}
		if result.Transferred {
			transferred++
		}
		if result.Aborted {
			aborted++
		}
	}

	if s.metrics != nil {
		s.metrics.BatchesTotal.Inc()
	}
	logger.Infof("batch completed in %v: %d claimed, %d transferred, %d aborted",
		time.Since(startTime), claimed, transferred, aborted)
}

func (s *Scheduler) record(res *runner.CycleResult) {
	if s.metrics == nil {
		return
	}
	switch {
	case res.Claimed:
		s.metrics.ClaimsTotal.WithLabelValues("success").Inc()
	case res.NotEligible:
		s.metrics.ClaimsTotal.WithLabelValues("not_eligible").Inc()
	default:
		s.metrics.ClaimsTotal.WithLabelValues("failed").Inc()
	}

	switch {
	case res.Transferred:
		s.metrics.TransfersTotal.WithLabelValues("success").Inc()
		s.metrics.AmountSweptTotal.Add(res.AmountSent.InexactFloat64())
	case res.SkipReason != "":
		s.metrics.TransfersTotal.WithLabelValues(string(res.SkipReason)).Inc()
	}

	if res.Refreshed {
		s.metrics.RefreshesTotal.Inc()
	}

	outcome := "completed"
	if res.Aborted {
		outcome = "aborted"
	}
	s.metrics.CyclesTotal.WithLabelValues(outcome).Inc()
	s.metrics.CycleDuration.Observe(res.Duration.Seconds())
}

// Start runs the first batch immediately. In single-pass mode it returns once
// the batch is done; in continuous mode it schedules the next passes and
// returns with the cron running.
func (s *Scheduler) Start() error {
	s.mutex.Lock()
	if s.running {
		s.mutex.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.mutex.Unlock()

	s.RunBatch(s.ctx)

	if !s.continuous {
		s.mutex.Lock()
		s.running = false
		s.mutex.Unlock()
		return nil
	}

	logger.Infof("continuous mode enabled, repeating batch on schedule %q", s.schedule)
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RunBatch(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron and waits for an in-flight batch to reach its end; a
// running account cycle is never cancelled mid-flight.
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.running {
		return
	}

	logger.Infof("stopping scheduler...")
	cronCtx := s.cron.Stop()
	<-cronCtx.Done()

	s.batchMu.Lock()
	s.batchMu.Unlock()

	s.cancel()
	close(s.stopChan)
	s.running = false
	logger.Infof("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}

// GetInfo returns the current scheduler state for the status endpoint.
func (s *Scheduler) GetInfo() Info {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	info := Info{
		Running:    s.running,
		Continuous: s.continuous,
		Accounts:   len(s.pairs),
	}
	if s.continuous {
		info.Schedule = s.schedule
		if entries := s.cron.Entries(); len(entries) > 0 {
			info.NextRun = entries[0].Next
		}
	}
	return info
}
