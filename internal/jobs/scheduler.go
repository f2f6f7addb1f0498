// Package jobs runs the periodic background tasks.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pagelink/internal/config"
	"pagelink/internal/database"
)

// Scheduler is responsible for running background jobs.
type Scheduler struct {
	dbManager *database.Manager
	logger    *slog.Logger
	cfg       *config.Config
	ctx       context.Context
	cancel    context.CancelFunc

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	cleanupJob *CleanupJob

	wg sync.WaitGroup
}

func NewScheduler(dbManager *database.Manager, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.GetConfig()

	return &Scheduler{
		dbManager:  dbManager,
		logger:     logger,
		cfg:        cfg,
		ctx:        ctx,
		cancel:     cancel,
		cleanupJob: NewCleanupJob(dbManager, logger, cfg),
	}
}

// Start launches the job tickers.
func (s *Scheduler) Start() {
	interval := time.Duration(s.cfg.JobIntervalSeconds) * time.Second

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.executeJobSafely("cleanup", s.cleanupJob.Run)
			case <-s.ctx.Done():
				return
			}
		}
	}()

	s.logger.Info("Job scheduler started", slog.Duration("interval", interval))
}

// Stop cancels the scheduler and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// executeJobSafely runs a job only if no other job is currently executing.
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Background job failed",
			slog.String("job", jobName),
			slog.Any("error", err))
	}
}
