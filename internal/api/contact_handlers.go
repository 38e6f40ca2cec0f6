package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"servicebooking/internal/entities"
	apperrors "servicebooking/internal/errors"
	"servicebooking/internal/service"
)

// ContactHandler serves the contact directory consumed by the wizard.
type ContactHandler struct {
	Service *service.ContactService
	Log     *zap.Logger
}

func NewContactHandler(svc *service.ContactService, log *zap.Logger) *ContactHandler {
	return &ContactHandler{Service: svc, Log: log}
}

func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListContacts(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateContact answers 201 with the stored contact, or 400 with field errors.
func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req entities.NewContact
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	c, err := h.Service.CreateContact(r.Context(), req)
	if err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{Errors: verr.Fields})
			return
		}
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
