package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"servicebooking/internal/db"
	"servicebooking/internal/entities"
	apperrors "servicebooking/internal/errors"
	"servicebooking/internal/repository"
)

type memAppointments struct {
	mu     sync.Mutex
	rows   map[string]*db.Appointment
	nextID int
	err    error
}

func newMemAppointments() *memAppointments {
	return &memAppointments{rows: map[string]*db.Appointment{}}
}

func (m *memAppointments) CreateAppointment(_ context.Context, a *db.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rows[a.Code]; ok {
		return repository.ErrDuplicateCode
	}
	m.nextID++
	a.ID = m.nextID
	cp := *a
	m.rows[a.Code] = &cp
	return nil
}

func (m *memAppointments) GetAppointmentByCode(_ context.Context, code string) (*db.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[code]
	if !ok {
		return nil, repository.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAppointments) ListAppointments(_ context.Context, status, _ string) ([]db.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Appointment
	for _, a := range m.rows {
		if status == "" || a.Status == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAppointments) UpdateStatus(_ context.Context, code, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[code]
	if !ok {
		return repository.ErrAppointmentNotFound
	}
	a.Status = status
	return nil
}

type notice struct {
	code   string
	notice string
}

type chanNotifier chan notice

func (c chanNotifier) NotifyAppointment(appt entities.AppointmentResponse, n string) {
	c <- notice{code: appt.Code, notice: n}
}

func readyState() entities.BookingState {
	return entities.BookingState{
		ClientInfo:  entities.ClientInfo{ContactID: "c1", ContactName: " Jane Doe ", Email: "jane@example.com"},
		VehicleInfo: entities.VehicleInfo{Make: "Toyota", Model: "Corolla", Type: "Sedan", Year: "2020", Plate: "AB123CD"},
		ServiceInfo: entities.ServiceInfo{Services: []string{"Oil Change", "Tire Rotation"}, PreferredDate: "2026-10-21"},
		Step:        3,
	}
}

func waitNotice(t *testing.T, c chanNotifier) notice {
	t.Helper()
	select {
	case n := <-c:
		return n
	case <-time.After(time.Second):
		t.Fatal("no notification sent")
		return notice{}
	}
}

func TestSubmitBookingStoresAppointment(t *testing.T) {
	repo := newMemAppointments()
	notes := make(chanNotifier, 1)
	svc := NewAppointmentService(repo, notes, zap.NewNop())
	svc.Now = fixedNow

	resp, err := svc.SubmitBooking(context.Background(), readyState())
	require.NoError(t, err)
	assert.Len(t, resp.Code, 8)
	assert.Equal(t, "Jane Doe", resp.ContactName)
	assert.Equal(t, "c1", resp.ContactID)
	assert.Equal(t, StatusScheduled, resp.Status)
	require.NotNil(t, resp.PreferredDate)
	assert.Equal(t, "2026-10-21", resp.PreferredDate.Format("2006-01-02"))

	stored, err := repo.GetAppointmentByCode(context.Background(), resp.Code)
	require.NoError(t, err)
	assert.Equal(t, []string{"Oil Change", "Tire Rotation"}, stored.Services)

	n := waitNotice(t, notes)
	assert.Equal(t, resp.Code, n.code)
	assert.Equal(t, NoticeScheduled, n.notice)
}

func TestSubmitBookingRetriesCodeCollision(t *testing.T) {
	tests := []struct {
		name     string
		codes    []string
		wantCode string
		wantErr  bool
	}{
		{"second code is free", []string{"AAAA0001", "BBBB0002"}, "BBBB0002", false},
		{"every code taken", []string{"AAAA0001", "AAAA0001", "AAAA0001", "AAAA0001", "AAAA0001"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemAppointments()
			repo.rows["AAAA0001"] = &db.Appointment{ID: 99, Code: "AAAA0001", Status: StatusScheduled}
			svc := NewAppointmentService(repo, nil, zap.NewNop())
			svc.Now = fixedNow
			next := 0
			svc.NewCode = func() string {
				code := tt.codes[next]
				next++
				return code
			}

			resp, err := svc.SubmitBooking(context.Background(), readyState())
			if tt.wantErr {
				assert.ErrorIs(t, err, repository.ErrDuplicateCode)
				assert.Equal(t, codeAttempts, next)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, 2, next)
			assert.Len(t, repo.rows, 2)
		})
	}
}

func TestSubmitBookingManualContactDropsContactID(t *testing.T) {
	repo := newMemAppointments()
	svc := NewAppointmentService(repo, nil, zap.NewNop())
	st := readyState()
	st.EntryMode.ManualContact = true

	resp, err := svc.SubmitBooking(context.Background(), st)
	require.NoError(t, err)
	assert.Empty(t, resp.ContactID)
}

func TestSubmitBookingRepositoryError(t *testing.T) {
	repo := newMemAppointments()
	repo.err = errors.New("connection refused")
	svc := NewAppointmentService(repo, nil, zap.NewNop())

	_, err := svc.SubmitBooking(context.Background(), readyState())
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.err)
}

func TestCancelAppointment(t *testing.T) {
	repo := newMemAppointments()
	notes := make(chanNotifier, 2)
	svc := NewAppointmentService(repo, notes, zap.NewNop())
	ctx := context.Background()

	resp, err := svc.SubmitBooking(ctx, readyState())
	require.NoError(t, err)
	waitNotice(t, notes)

	require.NoError(t, svc.CancelAppointment(ctx, resp.Code))
	assert.Equal(t, NoticeCanceled, waitNotice(t, notes).notice)

	err = svc.CancelAppointment(ctx, resp.Code)
	var herr *apperrors.HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusConflict, herr.Code)

	err = svc.CancelAppointment(ctx, "NOPE0000")
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusNotFound, herr.Code)
}

func TestListAppointments(t *testing.T) {
	repo := newMemAppointments()
	svc := NewAppointmentService(repo, nil, zap.NewNop())
	ctx := context.Background()
	_, err := svc.SubmitBooking(ctx, readyState())
	require.NoError(t, err)

	list, err := svc.ListAppointments(ctx, StatusScheduled, "")
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	_, err = svc.ListAppointments(ctx, "", "21/10/2026")
	var herr *apperrors.HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusBadRequest, herr.Code)
}
