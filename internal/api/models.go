package api

import "servicebooking/internal/entities"

// Booking session
type SetStepRequest struct {
	Step int `json:"step"`
}

type SyncRouteRequest struct {
	Path string `json:"path"`
}

type AddContactResponse struct {
	Contact entities.Contact          `json:"contact"`
	State   entities.BookingStateView `json:"state"`
}

type ValidationErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ContactSearchResponse struct {
	Contacts []entities.Contact `json:"contacts"`
	Error    string             `json:"error,omitempty"`
}

type OptionsResponse struct {
	Field   string   `json:"field"`
	Options []string `json:"options"`
}

// Admin
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
