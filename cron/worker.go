package cron

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"autoshop/models"
	"autoshop/services/notification"
	"autoshop/services/tasks"
)

// InitReminderWorker starts the async worker that mails appointment reminders.
// The returned server must be shut down by the caller.
func InitReminderWorker(redisOpts asynq.RedisClientOpt, notifSvc notification.NotificationService, logger *zap.Logger) (*asynq.Server, error) {
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, handleReminderTask(notifSvc, logger))

	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("start reminder worker: %w", err)
	}
	logger.Info("[ReminderWorker] started")
	return srv, nil
}

func handleReminderTask(notifSvc notification.NotificationService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("[ReminderHandler] invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		logger.Info("[ReminderHandler] sending reminder",
			zap.Int("recordId", int(p.RecordID)), zap.String("date", p.Date), zap.String("timeSlot", p.TimeSlot))

		if err := notifSvc.SendReminder(ctx, p); err != nil {
			logger.Warn("[ReminderHandler] failed to send reminder", zap.Error(err))
			return err
		}
		return nil
	}
}
