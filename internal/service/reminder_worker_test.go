package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func setupReminderWorker(t *testing.T) (*ReminderWorker, *reminderFixture) {
	f := newReminderFixture(t)

	config := ReminderWorkerConfig{
		Interval: 100 * time.Millisecond, // Fast interval for testing
	}
	worker := NewReminderWorker(f.service, zerolog.Nop(), config)
	return worker, f
}

func TestReminderWorker_NewReminderWorker(t *testing.T) {
	worker, _ := setupReminderWorker(t)

	assert.NotNil(t, worker)
	assert.Equal(t, 100*time.Millisecond, worker.interval)
	assert.False(t, worker.IsRunning())
}

func TestReminderWorker_DefaultConfig(t *testing.T) {
	config := DefaultReminderWorkerConfig()

	assert.Equal(t, 1*time.Hour, config.Interval)
}

func TestReminderWorker_StartStop(t *testing.T) {
	worker, _ := setupReminderWorker(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx)
	time.Sleep(50 * time.Millisecond) // Give it time to start

	assert.True(t, worker.IsRunning())

	worker.Stop()

	assert.False(t, worker.IsRunning())
}

func TestReminderWorker_StartTwice(t *testing.T) {
	worker, _ := setupReminderWorker(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the worker twice (should be idempotent)
	worker.Start(ctx)
	worker.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	assert.True(t, worker.IsRunning())

	worker.Stop()
	assert.False(t, worker.IsRunning())
}

func TestReminderWorker_StopWithoutStart(t *testing.T) {
	worker, _ := setupReminderWorker(t)

	// Stop without starting should not panic
	worker.Stop()
	assert.False(t, worker.IsRunning())
}

func TestReminderWorker_SweepsOnStartup(t *testing.T) {
	worker, f := setupReminderWorker(t)
	f.setClock(sevenDaysBefore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	worker.Stop()

	// The startup sweep fired the 7-day advance reminder.
	assert.Equal(t, 1, f.notifier.CountFor("chat-1"))
}

func TestReminderWorker_ContextCancellation(t *testing.T) {
	worker, _ := setupReminderWorker(t)

	ctx, cancel := context.WithCancel(context.Background())

	worker.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	assert.True(t, worker.IsRunning())

	cancel()
	time.Sleep(150 * time.Millisecond)
	assert.False(t, worker.IsRunning())
}
