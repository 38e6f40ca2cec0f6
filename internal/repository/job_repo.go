package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"servicebooking/internal/db"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{DB: db}
}

// GetPastScheduledAppointmentIDs returns scheduled appointments whose preferred date has passed.
func (r *JobRepository) GetPastScheduledAppointmentIDs(ctx context.Context) ([]int, error) {
	query := `SELECT id FROM appointments WHERE status = 'scheduled' AND preferred_date < CURRENT_DATE`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying past scheduled appointments: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning appointment ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// UpdateAppointmentStatuses sets the status of every listed appointment and
// reports how many rows changed.
func (r *JobRepository) UpdateAppointmentStatuses(ctx context.Context, ids []int, newStatus string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = ANY($2)`
	result, err := r.DB.ExecContext(ctx, query, newStatus, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("error updating appointment statuses: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// GetAppointmentsDueForReminder returns scheduled appointments for tomorrow that
// have not been reminded yet.
func (r *JobRepository) GetAppointmentsDueForReminder(ctx context.Context) ([]db.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
		WHERE status = 'scheduled' AND reminder_sent = FALSE AND preferred_date = CURRENT_DATE + 1`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying reminder candidates: %w", err)
	}
	defer rows.Close()

	var out []db.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reminder candidate: %w", err)
		}
		out = append(out, *a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return out, nil
}

func (r *JobRepository) MarkRemindersSent(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.DB.ExecContext(ctx, `UPDATE appointments SET reminder_sent = TRUE, updated_at = NOW() WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error marking reminders sent: %w", err)
	}
	return nil
}
