package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	apperrors "servicebooking/internal/errors"
	"servicebooking/internal/service"
	"servicebooking/internal/wizard"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ErrBadRequest("Invalid request body")
	}
	return nil
}

// writeError maps service errors to responses. Unknown errors are logged and
// reported as 500 without detail.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var (
		verr *apperrors.ValidationError
		ferr *apperrors.FetchError
		herr *apperrors.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{Errors: verr.Fields})
	case errors.As(err, &ferr):
		log.Warn("contact directory request failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "Contact directory is unavailable, please retry"})
	case errors.As(err, &herr):
		writeJSON(w, herr.Code, ErrorResponse{Error: herr.Message})
	case errors.Is(err, service.ErrInvalidSession), errors.Is(err, wizard.ErrUnknownRoute), errors.Is(err, service.ErrUnknownField):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrContactNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, wizard.ErrNotReviewStep), errors.Is(err, wizard.ErrNotHydrated):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
