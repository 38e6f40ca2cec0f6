package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"servicebooking/internal/auth"
	"servicebooking/internal/service"
)

type AdminHandler struct {
	Service *service.AppointmentService
	Log     *zap.Logger
}

func NewAdminHandler(svc *service.AppointmentService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{Service: svc, Log: log}
}

func (h *AdminHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	date := r.URL.Query().Get("date")
	list, err := h.Service.ListAppointments(r.Context(), status, date)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := h.Service.GetAppointment(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *AdminHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	admin, _ := auth.AdminEmail(r.Context())
	if err := h.Service.CancelAppointment(r.Context(), code); err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.Log.Info("appointment canceled by admin", zap.String("code", code), zap.String("admin", admin))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment canceled"})
}
