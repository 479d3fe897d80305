package workers

import (
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/gobarber/gobarber/internal/tasks"
)

// Enqueuer is the part of *asynq.Client the scheduler uses
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// cleanupUniqueTTL keeps a slow sweep from piling up duplicates
const cleanupUniqueTTL = 10 * time.Minute

// NewScheduler returns a cron runner that enqueues the token cleanup task
// on schedule. Call Start to run it and Stop to end it.
func NewScheduler(client Enqueuer, schedule string, logger zerolog.Logger) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		enqueueTokenCleanup(client, logger)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token cleanup schedule '%s': %w", schedule, err)
	}

	logger.Info().Str("schedule", schedule).Msg("Token cleanup scheduled")
	return c, nil
}

func enqueueTokenCleanup(client Enqueuer, logger zerolog.Logger) {
	info, err := client.Enqueue(tasks.NewTokenCleanupTask(), asynq.Unique(cleanupUniqueTTL), asynq.Queue("low"))
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			logger.Debug().Msg("Token cleanup already queued")
			return
		}
		logger.Error().Err(err).Msg("Failed to enqueue token cleanup")
		return
	}

	logger.Debug().Str("task_id", info.ID).Msg("Token cleanup enqueued")
}
