package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"servicebooking/internal/db"
	"servicebooking/internal/entities"
	apperrors "servicebooking/internal/errors"
	"servicebooking/internal/repository"
)

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

type AppointmentStore interface {
	CreateAppointment(ctx context.Context, a *db.Appointment) error
	GetAppointmentByCode(ctx context.Context, code string) (*db.Appointment, error)
	ListAppointments(ctx context.Context, status, date string) ([]db.Appointment, error)
	UpdateStatus(ctx context.Context, code, status string) error
}

// AppointmentService stores submitted bookings and manages them afterwards.
type AppointmentService struct {
	Repo     AppointmentStore
	Notifier Notifier
	Log      *zap.Logger
	Now      func() time.Time
	NewCode  func() string
}

// codeAttempts bounds how many fresh codes SubmitBooking tries after collisions.
const codeAttempts = 5

func NewAppointmentService(repo AppointmentStore, notifier Notifier, log *zap.Logger) *AppointmentService {
	return &AppointmentService{Repo: repo, Notifier: notifier, Log: log, Now: time.Now, NewCode: newAppointmentCode}
}

func newAppointmentCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// SubmitBooking turns a finished draft into a scheduled appointment.
func (s *AppointmentService) SubmitBooking(ctx context.Context, state entities.BookingState) (*entities.AppointmentResponse, error) {
	now := s.Now().UTC()
	appt := &db.Appointment{
		ContactName:  strings.TrimSpace(state.ClientInfo.ContactName),
		Email:        strings.TrimSpace(state.ClientInfo.Email),
		Phone:        strings.TrimSpace(state.ClientInfo.Phone),
		VehicleMake:  state.VehicleInfo.Make,
		VehicleModel: state.VehicleInfo.Model,
		VehicleType:  state.VehicleInfo.Type,
		VehicleYear:  state.VehicleInfo.Year,
		VehiclePlate: strings.TrimSpace(state.VehicleInfo.Plate),
		Services:     append([]string{}, state.ServiceInfo.Services...),
		Notes:        strings.TrimSpace(state.ServiceInfo.Notes),
		Status:       StatusScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if id := state.ClientInfo.ContactID; id != "" && !state.EntryMode.ManualContact {
		appt.ContactID = sql.NullString{String: id, Valid: true}
	}
	if state.ServiceInfo.PreferredDate != "" {
		d, err := time.Parse("2006-01-02", state.ServiceInfo.PreferredDate)
		if err != nil {
			return nil, apperrors.ErrBadRequest("invalid preferred date")
		}
		appt.PreferredDate = sql.NullTime{Time: d, Valid: true}
	}

	if err := s.create(ctx, appt); err != nil {
		return nil, fmt.Errorf("could not create appointment: %w", err)
	}
	s.Log.Info("appointment created", zap.String("code", appt.Code), zap.Int("id", appt.ID))

	resp := ToAppointmentResponse(*appt)
	s.notify(resp, NoticeScheduled)
	return &resp, nil
}

// create inserts appt under a fresh code, drawing another one when the code is
// already taken.
func (s *AppointmentService) create(ctx context.Context, appt *db.Appointment) error {
	var err error
	for attempt := 1; attempt <= codeAttempts; attempt++ {
		appt.Code = s.NewCode()
		err = s.Repo.CreateAppointment(ctx, appt)
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return err
		}
		s.Log.Warn("appointment code collision", zap.String("code", appt.Code), zap.Int("attempt", attempt))
	}
	return err
}

func (s *AppointmentService) GetAppointment(ctx context.Context, code string) (*entities.AppointmentResponse, error) {
	appt, err := s.Repo.GetAppointmentByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrAppointmentNotFound) {
			return nil, apperrors.ErrNotFound("appointment not found")
		}
		return nil, err
	}
	resp := ToAppointmentResponse(*appt)
	return &resp, nil
}

func (s *AppointmentService) ListAppointments(ctx context.Context, status, date string) (*entities.AppointmentsList, error) {
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, apperrors.ErrBadRequest("date must be YYYY-MM-DD")
		}
	}
	rows, err := s.Repo.ListAppointments(ctx, status, date)
	if err != nil {
		return nil, err
	}
	list := &entities.AppointmentsList{Appointments: make([]entities.AppointmentResponse, 0, len(rows))}
	for _, row := range rows {
		list.Appointments = append(list.Appointments, ToAppointmentResponse(row))
	}
	list.Total = len(list.Appointments)
	return list, nil
}

// CancelAppointment cancels a scheduled appointment. Completed or already
// canceled appointments are a conflict.
func (s *AppointmentService) CancelAppointment(ctx context.Context, code string) error {
	appt, err := s.Repo.GetAppointmentByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrAppointmentNotFound) {
			return apperrors.ErrNotFound("appointment not found")
		}
		return err
	}
	if appt.Status != StatusScheduled {
		return apperrors.ErrConflict(fmt.Sprintf("appointment is already %s", appt.Status))
	}
	if err := s.Repo.UpdateStatus(ctx, code, StatusCanceled); err != nil {
		return fmt.Errorf("could not cancel appointment: %w", err)
	}
	appt.Status = StatusCanceled
	s.notify(ToAppointmentResponse(*appt), NoticeCanceled)
	return nil
}

func (s *AppointmentService) notify(resp entities.AppointmentResponse, notice string) {
	if s.Notifier == nil {
		return
	}
	go s.Notifier.NotifyAppointment(resp, notice)
}

func ToAppointmentResponse(a db.Appointment) entities.AppointmentResponse {
	resp := entities.AppointmentResponse{
		Code:         a.Code,
		ContactID:    a.ContactID.String,
		ContactName:  a.ContactName,
		Email:        a.Email,
		Phone:        a.Phone,
		VehicleMake:  a.VehicleMake,
		VehicleModel: a.VehicleModel,
		VehicleType:  a.VehicleType,
		VehicleYear:  a.VehicleYear,
		VehiclePlate: a.VehiclePlate,
		Services:     a.Services,
		Notes:        a.Notes,
		Status:       a.Status,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if resp.Services == nil {
		resp.Services = []string{}
	}
	if a.PreferredDate.Valid {
		d := a.PreferredDate.Time
		resp.PreferredDate = &d
	}
	return resp
}
