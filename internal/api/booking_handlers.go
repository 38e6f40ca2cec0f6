package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"servicebooking/internal/entities"
	apperrors "servicebooking/internal/errors"
	"servicebooking/internal/service"
)

type BookingHandler struct {
	Service *service.BookingService
	Log     *zap.Logger
}

func NewBookingHandler(svc *service.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Log: log}
}

func sessionID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func (h *BookingHandler) respond(w http.ResponseWriter, v entities.BookingStateView, err error) {
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *BookingHandler) writeErr(w http.ResponseWriter, err error) {
	writeError(w, h.Log, err)
}

func (h *BookingHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.CreateSession(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *BookingHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.GetSession(r.Context(), sessionID(r))
	h.respond(w, v, err)
}

func (h *BookingHandler) SetClientInfo(w http.ResponseWriter, r *http.Request) {
	var req entities.ClientInfo
	if err := decode(r, &req); err != nil {
		h.writeErr(w, err)
		return
	}
	v, err := h.Service.SetClientInfo(r.Context(), sessionID(r), req)
	h.respond(w, v, err)
}

func (h *BookingHandler) SetVehicleInfo(w http.ResponseWriter, r *http.Request) {
	var req entities.VehicleInfo
	if err := decode(r, &req); err != nil {
		h.writeErr(w, err)
		return
	}
	v, err := h.Service.SetVehicleInfo(r.Context(), sessionID(r), req)
	h.respond(w, v, err)
}

func (h *BookingHandler) SetServiceInfo(w http.ResponseWriter, r *http.Request) {
	var req entities.ServiceInfo
	if err := decode(r, &req); err != nil {
		h.writeErr(w, err)
		return
	}
	v, err := h.Service.SetServiceInfo(r.Context(), sessionID(r), req)
	h.respond(w, v, err)
}

func (h *BookingHandler) SetEntryMode(w http.ResponseWriter, r *http.Request) {
	var req entities.EntryMode
	if err := decode(r, &req); err != nil {
		h.writeErr(w, err)
		return
	}
	v, err := h.Service.SetEntryMode(r.Context(), sessionID(r), req)
	h.respond(w, v, err)
}

func (h *BookingHandler) SetStep(w http.ResponseWriter, r *http.Request) {
	var req SetStepRequest
	if err := decode(r, &req); err != nil {
		h.writeErr(w, err)
		return
	}
	v, err := h.Service.SetStep(r.Context(), sessionID(r), req.Step)
	h.respond(w, v, err)
}

func (h *BookingHandler) Next(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.Next(r.Context(), sessionID(r))
	h.respond(w, v, err)
}

func (h *BookingHandler) Back(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.Back(r.Context(), sessionID(r))
	h.respond(w, v, err)
}

func (h *BookingHandler) SyncRoute(w http.ResponseWriter, r *http.Request) {
	var req SyncRouteRequest
	if err := decode(r, &req); err != nil {
		h.writeErr(w, err)
		return
	}
	v, err := h.Service.SyncRoute(r.Context(), sessionID(r), req.Path)
	h.respond(w, v, err)
}

func (h *BookingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.Reset(r.Context(), sessionID(r))
	h.respond(w, v, err)
}

func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	appt, err := h.Service.Submit(r.Context(), sessionID(r))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// SearchContacts answers with the cached list when the directory cannot be
// reached, together with a 502 so the UI can offer a retry.
func (h *BookingHandler) SearchContacts(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.SearchContacts(r.Context(), r.URL.Query().Get("q"))
	resp := ContactSearchResponse{Contacts: snap.Contacts, Error: snap.Error}
	if err != nil {
		var ferr *apperrors.FetchError
		if !errors.As(err, &ferr) {
			h.writeErr(w, err)
			return
		}
		h.Log.Warn("contact refresh failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BookingHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	var req entities.NewContact
	if err := decode(r, &req); err != nil {
		h.writeErr(w, err)
		return
	}
	v, created, err := h.Service.AddContact(r.Context(), sessionID(r), req)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AddContactResponse{Contact: *created, State: v})
}

func (h *BookingHandler) SelectContact(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.SelectContact(r.Context(), sessionID(r), mux.Vars(r)["contactId"])
	h.respond(w, v, err)
}

func (h *BookingHandler) Options(w http.ResponseWriter, r *http.Request) {
	field := mux.Vars(r)["field"]
	options, err := h.Service.Options(field, r.URL.Query().Get("q"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OptionsResponse{Field: field, Options: options})
}
