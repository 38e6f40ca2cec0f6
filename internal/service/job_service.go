package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"servicebooking/internal/db"
)

type JobStore interface {
	GetPastScheduledAppointmentIDs(ctx context.Context) ([]int, error)
	UpdateAppointmentStatuses(ctx context.Context, ids []int, newStatus string) (int64, error)
	GetAppointmentsDueForReminder(ctx context.Context) ([]db.Appointment, error)
	MarkRemindersSent(ctx context.Context, ids []int) error
}

type JobService struct {
	Repo     JobStore
	Notifier Notifier
	Log      *zap.Logger
}

func NewJobService(repo JobStore, notifier Notifier, log *zap.Logger) *JobService {
	return &JobService{Repo: repo, Notifier: notifier, Log: log}
}

// CompletePastAppointments marks scheduled appointments whose preferred date has
// passed as completed.
func (s *JobService) CompletePastAppointments(ctx context.Context) error {
	ids, err := s.Repo.GetPastScheduledAppointmentIDs(ctx)
	if err != nil {
		return fmt.Errorf("cron job: failed to get past scheduled appointments: %w", err)
	}
	if len(ids) == 0 {
		s.Log.Debug("cron job: no past scheduled appointments")
		return nil
	}

	n, err := s.Repo.UpdateAppointmentStatuses(ctx, ids, StatusCompleted)
	if err != nil {
		return fmt.Errorf("cron job: failed to update appointment statuses: %w", err)
	}
	s.Log.Info("cron job: appointments completed", zap.Int64("updated", n), zap.Ints("ids", ids))
	return nil
}

// SendReminders notifies customers whose appointment is tomorrow. Each
// appointment is reminded at most once.
func (s *JobService) SendReminders(ctx context.Context) error {
	due, err := s.Repo.GetAppointmentsDueForReminder(ctx)
	if err != nil {
		return fmt.Errorf("cron job: failed to get reminder candidates: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	ids := make([]int, 0, len(due))
	for _, appt := range due {
		if s.Notifier != nil {
			s.Notifier.NotifyAppointment(ToAppointmentResponse(appt), NoticeReminder)
		}
		ids = append(ids, appt.ID)
	}
	if err := s.Repo.MarkRemindersSent(ctx, ids); err != nil {
		return fmt.Errorf("cron job: failed to mark reminders: %w", err)
	}
	s.Log.Info("cron job: reminders sent", zap.Int("count", len(ids)))
	return nil
}

// RunAll runs every job once.
func (s *JobService) RunAll(ctx context.Context) error {
	if err := s.CompletePastAppointments(ctx); err != nil {
		return err
	}
	return s.SendReminders(ctx)
}

// Schedule registers the jobs on c.
func (s *JobService) Schedule(c *cron.Cron, completeSpec, reminderSpec string) error {
	if _, err := c.AddFunc(completeSpec, func() {
		if err := s.CompletePastAppointments(context.Background()); err != nil {
			s.Log.Error("complete appointments job failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule complete job %q: %w", completeSpec, err)
	}
	if _, err := c.AddFunc(reminderSpec, func() {
		if err := s.SendReminders(context.Background()); err != nil {
			s.Log.Error("reminder job failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule reminder job %q: %w", reminderSpec, err)
	}
	return nil
}
