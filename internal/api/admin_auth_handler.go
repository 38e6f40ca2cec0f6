package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"servicebooking/internal/service"
)

type AdminAuthHandler struct {
	service service.AdminAuthService
	log     *zap.Logger
}

func NewAdminAuthHandler(svc service.AdminAuthService, log *zap.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{service: svc, log: log}
}

func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.log.Error("admin login failed", zap.Error(err))
		}
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}
