package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"autoshop/models"
)

const TypeSendReminder = "reminder:send"

// DefaultReminderLead is how long before an appointment the reminder goes out.
const DefaultReminderLead = 24 * time.Hour

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(fmt.Sprintf("reminder:%d:%s:%s", payload.RecordID, payload.Date, payload.TimeSlot)),
	}

	return task, opts, nil
}

// ReminderFireTime returns when to send a reminder for an appointment starting at start.
// ok is false when the appointment has already begun.
func ReminderFireTime(start, now time.Time, lead time.Duration) (time.Time, bool) {
	if !start.After(now) {
		return time.Time{}, false
	}
	fire := start.Add(-lead)
	if fire.Before(now) {
		fire = now
	}
	return fire, true
}

// ReminderScheduler queues appointment reminders for accepted bookings.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, payload models.ReminderPayload, start time.Time) error
}

// AsynqReminderScheduler enqueues reminder tasks into Redis for the reminder worker.
type AsynqReminderScheduler struct {
	client *asynq.Client
	lead   time.Duration
	now    func() time.Time
}

func NewAsynqReminderScheduler(opt asynq.RedisClientOpt, lead time.Duration) *AsynqReminderScheduler {
	if lead <= 0 {
		lead = DefaultReminderLead
	}
	return &AsynqReminderScheduler{client: asynq.NewClient(opt), lead: lead, now: time.Now}
}

func (s *AsynqReminderScheduler) ScheduleReminder(ctx context.Context, payload models.ReminderPayload, start time.Time) error {
	fireAt, ok := ReminderFireTime(start, s.now(), s.lead)
	if !ok {
		return nil
	}
	task, opts, err := NewReminderTask(payload, fireAt)
	if err != nil {
		return err
	}
	if _, err := s.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue reminder: %w", err)
	}
	return nil
}

func (s *AsynqReminderScheduler) Close() error {
	return s.client.Close()
}

// NopReminderScheduler is used when reminders are disabled.
type NopReminderScheduler struct{}

func (NopReminderScheduler) ScheduleReminder(context.Context, models.ReminderPayload, time.Time) error {
	return nil
}
