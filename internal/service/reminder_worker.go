package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ReminderWorker is a background worker that periodically runs the reminder
// sweep. The sweep itself is idempotent, so the coarse interval only affects
// latency, never correctness.
type ReminderWorker struct {
	reminderService *ReminderService
	logger          zerolog.Logger
	interval        time.Duration
	stopCh          chan struct{}
	doneCh          chan struct{}
	mu              sync.Mutex
	running         bool
}

// ReminderWorkerConfig holds configuration for the reminder worker
type ReminderWorkerConfig struct {
	Interval time.Duration // How often to run the reminder sweep
}

// DefaultReminderWorkerConfig returns sensible defaults
func DefaultReminderWorkerConfig() ReminderWorkerConfig {
	return ReminderWorkerConfig{
		Interval: 1 * time.Hour,
	}
}

// NewReminderWorker creates a new reminder worker
func NewReminderWorker(reminderService *ReminderService, logger zerolog.Logger, config ReminderWorkerConfig) *ReminderWorker {
	if config.Interval <= 0 {
		config.Interval = 1 * time.Hour
	}

	return &ReminderWorker{
		reminderService: reminderService,
		logger:          logger.With().Str("component", "reminder_worker").Logger(),
		interval:        config.Interval,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start begins the background reminder sweeps
func (w *ReminderWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().
		Dur("interval", w.interval).
		Msg("Starting reminder worker")

	go w.run(ctx)
}

// Stop gracefully stops the reminder worker. An in-flight sweep is allowed
// to finish.
func (w *ReminderWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping reminder worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Reminder worker stopped")
}

// run is the main loop for the reminder worker
func (w *ReminderWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	// Run immediately on startup
	w.reminderService.RunSweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-w.stopCh:
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-ticker.C:
			w.reminderService.RunSweep(ctx)
		}
	}
}

// IsRunning returns whether the worker is currently running
func (w *ReminderWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
