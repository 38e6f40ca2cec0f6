package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"servicebooking/internal/db"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrDuplicateCode means another appointment already holds the code.
	ErrDuplicateCode = errors.New("appointment code already in use")
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

const appointmentColumns = `id, code, contact_id, contact_name, email, phone,
	vehicle_make, vehicle_model, vehicle_type, vehicle_year, vehicle_plate,
	services, preferred_date, notes, status, reminder_sent, created_at, updated_at`

type AppointmentRepository struct {
	DB *sql.DB
}

func NewAppointmentRepository(db *sql.DB) *AppointmentRepository {
	return &AppointmentRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(s rowScanner) (*db.Appointment, error) {
	var a db.Appointment
	err := s.Scan(
		&a.ID, &a.Code, &a.ContactID, &a.ContactName, &a.Email, &a.Phone,
		&a.VehicleMake, &a.VehicleModel, &a.VehicleType, &a.VehicleYear, &a.VehiclePlate,
		pq.Array(&a.Services), &a.PreferredDate, &a.Notes, &a.Status, &a.ReminderSent,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AppointmentRepository) CreateAppointment(ctx context.Context, a *db.Appointment) error {
	query := `
		INSERT INTO appointments
		(code, contact_id, contact_name, email, phone, vehicle_make, vehicle_model, vehicle_type, vehicle_year, vehicle_plate, services, preferred_date, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		a.Code,
		a.ContactID,
		a.ContactName,
		a.Email,
		a.Phone,
		a.VehicleMake,
		a.VehicleModel,
		a.VehicleType,
		a.VehicleYear,
		a.VehiclePlate,
		pq.Array(a.Services),
		a.PreferredDate,
		a.Notes,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("code %s: %w", a.Code, ErrDuplicateCode)
	}
	return err
}

func (r *AppointmentRepository) GetAppointmentByCode(ctx context.Context, code string) (*db.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE code = $1`
	a, err := scanAppointment(r.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("appointment with code '%s': %w", code, ErrAppointmentNotFound)
		}
		return nil, fmt.Errorf("error querying appointment: %w", err)
	}
	return a, nil
}

// ListAppointments filters by status and preferred date (YYYY-MM-DD) when given.
func (r *AppointmentRepository) ListAppointments(ctx context.Context, status, date string) ([]db.Appointment, error) {
	var (
		conds []string
		args  []any
	)
	if status != "" {
		args = append(args, status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if date != "" {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("invalid date filter %q: %w", date, err)
		}
		args = append(args, d)
		conds = append(conds, fmt.Sprintf("preferred_date = $%d", len(args)))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying appointments: %w", err)
	}
	defer rows.Close()

	appointments := []db.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning appointment: %w", err)
		}
		appointments = append(appointments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating appointments: %w", err)
	}
	return appointments, nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, code, status string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE appointments SET status = $1, updated_at = NOW() WHERE code = $2`, status, code)
	if err != nil {
		return fmt.Errorf("error updating appointment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("appointment with code '%s': %w", code, ErrAppointmentNotFound)
	}
	return nil
}
