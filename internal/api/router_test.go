package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"servicebooking/internal/booking"
	"servicebooking/internal/contacts"
	"servicebooking/internal/db"
	"servicebooking/internal/entities"
	apperrors "servicebooking/internal/errors"
	"servicebooking/internal/repository"
	"servicebooking/internal/service"
	"servicebooking/internal/validation"
)

const jwtSecret = "router-test-secret"

type memContactStore struct {
	mu   sync.Mutex
	rows []db.Contact
}

func (m *memContactStore) ListContacts(context.Context) ([]db.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.Contact{}, m.rows...), nil
}

func (m *memContactStore) CreateContact(_ context.Context, c *db.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *c)
	return nil
}

type memAppointmentStore struct {
	mu   sync.Mutex
	rows map[string]*db.Appointment
}

func (m *memAppointmentStore) CreateAppointment(_ context.Context, a *db.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = len(m.rows) + 1
	cp := *a
	m.rows[a.Code] = &cp
	return nil
}

func (m *memAppointmentStore) GetAppointmentByCode(_ context.Context, code string) (*db.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[code]
	if !ok {
		return nil, repository.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAppointmentStore) ListAppointments(context.Context, string, string) ([]db.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Appointment
	for _, a := range m.rows {
		out = append(out, *a)
	}
	return out, nil
}

func (m *memAppointmentStore) UpdateStatus(_ context.Context, code, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[code].Status = status
	return nil
}

type stubAuth struct{}

func (stubAuth) Login(_ context.Context, email, password string) (string, error) {
	if email != "admin@example.com" || password != "secret" {
		return "", service.ErrInvalidCredentials
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
}

func (stubAuth) CreateAdmin(context.Context, string, string) error { return nil }

// directoryAPI lets a test make the contact directory fail or swap its backend.
type directoryAPI struct {
	mu   sync.Mutex
	api  contacts.API
	fail bool
}

func (d *directoryAPI) backend() (contacts.API, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.api, d.fail
}

func (d *directoryAPI) use(api contacts.API) {
	d.mu.Lock()
	d.api = api
	d.mu.Unlock()
}

func (d *directoryAPI) ListContacts(ctx context.Context) ([]entities.Contact, error) {
	api, fail := d.backend()
	if fail {
		return nil, &apperrors.FetchError{Op: "list contacts", StatusCode: http.StatusServiceUnavailable}
	}
	return api.ListContacts(ctx)
}

func (d *directoryAPI) CreateContact(ctx context.Context, in entities.NewContact) (*entities.Contact, error) {
	api, _ := d.backend()
	return api.CreateContact(ctx, in)
}

type testServer struct {
	handler http.Handler
	dir     *directoryAPI
	limiter *RateLimiter
	appts   *memAppointmentStore
	logs    *observer.ObservedLogs
}

func newTestServer(t *testing.T, perMinute int) testServer {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)
	now := func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }

	contactSvc := service.NewContactService(&memContactStore{rows: []db.Contact{
		{ID: "c1", Name: "Jane Doe", Email: "jane@example.com", Phone: "+15550001"},
	}})
	dir := &directoryAPI{api: service.LocalDirectory{Contacts: contactSvc}}
	appts := &memAppointmentStore{rows: map[string]*db.Appointment{}}
	apptSvc := service.NewAppointmentService(appts, nil, log)
	bookingSvc := service.NewBookingService(
		booking.NewPersister(repository.NewMemorySessionRepository(time.Hour), log),
		validation.NewValidator(now),
		contacts.NewDirectory(dir, log),
		apptSvc,
		log,
	)

	limiter := NewRateLimiter(perMinute, log)
	h := NewRouter(RouterConfig{
		Booking:        NewBookingHandler(bookingSvc, log),
		Contacts:       NewContactHandler(contactSvc, log),
		Admin:          NewAdminHandler(apptSvc, log),
		AdminAuth:      NewAdminAuthHandler(stubAuth{}, log),
		JWTSecret:      jwtSecret,
		AllowedOrigins: []string{"*"},
		RateLimiter:    limiter,
		Log:            log,
	})
	return testServer{handler: h, dir: dir, limiter: limiter, appts: appts, logs: logs}
}

func (s testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestWizardHappyPath(t *testing.T) {
	srv := newTestServer(t, 1000)

	rec := srv.do(t, http.MethodPost, "/api/booking/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	state := decodeBody[entities.BookingStateView](t, rec)
	base := "/api/booking/sessions/" + state.SessionID

	rec = srv.do(t, http.MethodPost, base+"/contacts/c1/select", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state = decodeBody[entities.BookingStateView](t, rec)
	assert.Equal(t, "Jane Doe", state.ClientInfo.ContactName)

	rec = srv.do(t, http.MethodPut, base+"/vehicle", entities.VehicleInfo{Make: "Toyota", Model: "Corolla", Type: "Sedan", Year: "2020"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decodeBody[entities.BookingStateView](t, rec).Step)

	rec = srv.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	verr := decodeBody[ValidationErrorResponse](t, rec)
	assert.Contains(t, verr.Errors, validation.FieldServices)

	rec = srv.do(t, http.MethodPut, base+"/services", entities.ServiceInfo{Services: []string{"Brake Inspection"}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = srv.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decodeBody[entities.BookingStateView](t, rec)
	assert.Equal(t, "Confirm", state.Title)
	assert.Equal(t, "/appointment/step-3", state.Route)

	rec = srv.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	appt := decodeBody[entities.AppointmentResponse](t, rec)
	assert.Equal(t, "c1", appt.ContactID)
	assert.Equal(t, []string{"Brake Inspection"}, appt.Services)

	rec = srv.do(t, http.MethodGet, base, nil)
	assert.Equal(t, 1, decodeBody[entities.BookingStateView](t, rec).Step)
}

func TestSubmitOutsideReviewStep(t *testing.T) {
	srv := newTestServer(t, 1000)
	state := decodeBody[entities.BookingStateView](t, srv.do(t, http.MethodPost, "/api/booking/sessions", nil))

	rec := srv.do(t, http.MethodPost, "/api/booking/sessions/"+state.SessionID+"/submit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSyncRouteRedirect(t *testing.T) {
	srv := newTestServer(t, 1000)
	state := decodeBody[entities.BookingStateView](t, srv.do(t, http.MethodPost, "/api/booking/sessions", nil))
	base := "/api/booking/sessions/" + state.SessionID

	rec := srv.do(t, http.MethodPost, base+"/route", SyncRouteRequest{Path: "/appointment/step-3"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/appointment/step-1", decodeBody[entities.BookingStateView](t, rec).Route)

	rec = srv.do(t, http.MethodPost, base+"/route", SyncRouteRequest{Path: "/settings"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidSessionAndBody(t *testing.T) {
	srv := newTestServer(t, 1000)

	rec := srv.do(t, http.MethodGet, "/api/booking/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	state := decodeBody[entities.BookingStateView](t, srv.do(t, http.MethodPost, "/api/booking/sessions", nil))
	req := httptest.NewRequest(http.MethodPut, "/api/booking/sessions/"+state.SessionID+"/client", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContactEndpoints(t *testing.T) {
	srv := newTestServer(t, 1000)

	rec := srv.do(t, http.MethodPost, "/api/contacts", entities.NewContact{Name: "Ann", Email: "bad"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email address", decodeBody[ValidationErrorResponse](t, rec).Errors["email"])

	rec = srv.do(t, http.MethodPost, "/api/contacts", entities.NewContact{Name: "Ann", Email: "ann@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[entities.Contact](t, rec)
	assert.NotEmpty(t, created.ID)

	rec = srv.do(t, http.MethodGet, "/api/contacts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]entities.Contact](t, rec), 2)
}

func TestSessionContactSearchAndAdd(t *testing.T) {
	srv := newTestServer(t, 1000)
	state := decodeBody[entities.BookingStateView](t, srv.do(t, http.MethodPost, "/api/booking/sessions", nil))
	base := "/api/booking/sessions/" + state.SessionID

	rec := srv.do(t, http.MethodPost, base+"/contacts", entities.NewContact{Name: "Mario Rossi", Phone: "+39333"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decodeBody[AddContactResponse](t, rec)
	assert.Equal(t, added.Contact.ID, added.State.ClientInfo.ContactID)

	rec = srv.do(t, http.MethodGet, base+"/contacts?q=rossi", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decodeBody[ContactSearchResponse](t, rec)
	require.Len(t, found.Contacts, 1)
	assert.Equal(t, "Mario Rossi", found.Contacts[0].Name)

	srv.dir.mu.Lock()
	srv.dir.fail = true
	srv.dir.mu.Unlock()
	rec = srv.do(t, http.MethodGet, base+"/contacts", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	cached := decodeBody[ContactSearchResponse](t, rec)
	assert.Len(t, cached.Contacts, 2)
	assert.NotEmpty(t, cached.Error)
}

func TestOptionsEndpoint(t *testing.T) {
	srv := newTestServer(t, 1000)

	rec := srv.do(t, http.MethodGet, "/api/options/type?q=s", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Sedan", "SUV"}, decodeBody[OptionsResponse](t, rec).Options)

	rec = srv.do(t, http.MethodGet, "/api/options/colour", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminFlow(t *testing.T) {
	srv := newTestServer(t, 1000)

	rec := srv.do(t, http.MethodGet, "/admin/appointments", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/admin/login", LoginRequest{Email: "admin@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/admin/login", LoginRequest{Email: "admin@example.com", Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeBody[LoginResponse](t, rec).Token

	rec = srv.do(t, http.MethodGet, "/admin/appointments", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[entities.AppointmentsList](t, rec).Total)

	rec = srv.do(t, http.MethodDelete, "/admin/appointments/NOPE0000", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, 2)

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/options/make", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/options/make", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, srv.do(t, http.MethodGet, "/api/options/make", nil).Code)

	// Admin routes are outside the limited /api prefix.
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/admin/appointments", nil).Code)
}

func TestSessionContactSearchThroughHTTPClient(t *testing.T) {
	srv := newTestServer(t, 5)
	require.NoError(t, srv.limiter.TrustProxies([]string{"127.0.0.1", "::1"}))
	hs := httptest.NewServer(srv.handler)
	defer hs.Close()
	srv.dir.use(contacts.NewClient(hs.URL+"/api", 2*time.Second, 1, zap.NewNop()))

	var codes []int
	for i := 1; i <= 6; i++ {
		user := fmt.Sprintf("203.0.113.%d", i)

		req, err := http.NewRequest(http.MethodPost, hs.URL+"/api/booking/sessions", nil)
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", user)
		resp, err := hs.Client().Do(req)
		require.NoError(t, err)
		var state entities.BookingStateView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		req, err = http.NewRequest(http.MethodGet, hs.URL+"/api/booking/sessions/"+state.SessionID+"/contacts?q=jane", nil)
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", user)
		resp, err = hs.Client().Do(req)
		require.NoError(t, err)
		var found ContactSearchResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&found))
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
		assert.Len(t, found.Contacts, 1)
	}
	assert.Equal(t, []int{200, 200, 200, 200, 200, 200}, codes)
}

func TestRateLimitForwardedFor(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		want    []int
	}{
		{"spoofed header from untrusted peer", nil, []int{200, 200, 429}},
		{"header from trusted proxy", []string{"192.0.2.0/24"}, []int{200, 200, 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, 2)
			require.NoError(t, srv.limiter.TrustProxies(tt.trusted))

			var got []int
			for i := 1; i <= 3; i++ {
				// httptest requests come from 192.0.2.1.
				rec := srv.do(t, http.MethodGet, "/api/options/make", nil, "X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
				got = append(got, rec.Code)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirectoryEndpointsOutsideRateLimit(t *testing.T) {
	srv := newTestServer(t, 1)

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/options/make", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, srv.do(t, http.MethodGet, "/api/options/make", nil).Code)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/contacts", nil).Code)
	}
}

func TestAdminCancelLogsAdmin(t *testing.T) {
	srv := newTestServer(t, 1000)
	srv.appts.rows["AB12CD34"] = &db.Appointment{ID: 1, Code: "AB12CD34", ContactName: "Jane", Status: service.StatusScheduled}

	rec := srv.do(t, http.MethodPost, "/admin/login", LoginRequest{Email: "admin@example.com", Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeBody[LoginResponse](t, rec).Token

	rec = srv.do(t, http.MethodDelete, "/admin/appointments/AB12CD34", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, service.StatusCanceled, srv.appts.rows["AB12CD34"].Status)

	entries := srv.logs.FilterMessage("appointment canceled by admin").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "admin@example.com", fields["admin"])
	assert.Equal(t, "AB12CD34", fields["code"])

	rec = srv.do(t, http.MethodDelete, "/admin/appointments/AB12CD34", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, srv.logs.FilterMessage("appointment canceled by admin").All(), 1)
}
