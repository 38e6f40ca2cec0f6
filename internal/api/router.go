package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"servicebooking/internal/auth"
	"servicebooking/internal/logger"
)

type RouterConfig struct {
	Booking   *BookingHandler
	Contacts  *ContactHandler
	Admin     *AdminHandler
	AdminAuth *AdminAuthHandler

	JWTSecret          string
	AllowedOrigins     []string
	RateLimiter        *RateLimiter
	PrintRecoveryStack bool
	Log                *zap.Logger
}

// NewRouter wires every endpoint and wraps the result with CORS, panic recovery
// and request logging.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Contact directory. The booking directory client may call these on this very
	// server, so they sit ahead of the limited /api subrouter; the session search
	// that triggers those calls is limited instead.
	r.HandleFunc("/api/contacts", cfg.Contacts.ListContacts).Methods(http.MethodGet)
	r.HandleFunc("/api/contacts", cfg.Contacts.CreateContact).Methods(http.MethodPost)

	apiRouter := r.PathPrefix("/api").Subrouter()
	if cfg.RateLimiter != nil {
		apiRouter.Use(cfg.RateLimiter.Middleware)
	}

	// Booking wizard
	b := cfg.Booking
	apiRouter.HandleFunc("/options/{field}", b.Options).Methods(http.MethodGet)
	apiRouter.HandleFunc("/booking/sessions", b.CreateSession).Methods(http.MethodPost)
	apiRouter.HandleFunc("/booking/sessions/{id}", b.GetSession).Methods(http.MethodGet)
	s := apiRouter.PathPrefix("/booking/sessions/{id}").Subrouter()
	s.HandleFunc("/client", b.SetClientInfo).Methods(http.MethodPut)
	s.HandleFunc("/vehicle", b.SetVehicleInfo).Methods(http.MethodPut)
	s.HandleFunc("/services", b.SetServiceInfo).Methods(http.MethodPut)
	s.HandleFunc("/mode", b.SetEntryMode).Methods(http.MethodPut)
	s.HandleFunc("/step", b.SetStep).Methods(http.MethodPost)
	s.HandleFunc("/next", b.Next).Methods(http.MethodPost)
	s.HandleFunc("/back", b.Back).Methods(http.MethodPost)
	s.HandleFunc("/route", b.SyncRoute).Methods(http.MethodPost)
	s.HandleFunc("/reset", b.Reset).Methods(http.MethodPost)
	s.HandleFunc("/submit", b.Submit).Methods(http.MethodPost)
	s.HandleFunc("/contacts", b.SearchContacts).Methods(http.MethodGet)
	s.HandleFunc("/contacts", b.AddContact).Methods(http.MethodPost)
	s.HandleFunc("/contacts/{contactId}/select", b.SelectContact).Methods(http.MethodPost)

	// Admin
	r.HandleFunc("/admin/login", cfg.AdminAuth.Login).Methods(http.MethodPost)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware(cfg.JWTSecret))
	admin.HandleFunc("/appointments", cfg.Admin.ListAppointments).Methods(http.MethodGet)
	admin.HandleFunc("/appointments/{code}", cfg.Admin.GetAppointment).Methods(http.MethodGet)
	admin.HandleFunc("/appointments/{code}", cfg.Admin.CancelAppointment).Methods(http.MethodDelete)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	var h http.Handler = r
	h = handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(cfg.PrintRecoveryStack))(h)
	return logger.Middleware(cfg.Log)(h)
}
