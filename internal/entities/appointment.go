package entities

import "time"

type AppointmentResponse struct {
	Code          string     `json:"code"`
	ContactID     string     `json:"contact_id,omitempty"`
	ContactName   string     `json:"contact_name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	VehicleMake   string     `json:"vehicle_make"`
	VehicleModel  string     `json:"vehicle_model"`
	VehicleType   string     `json:"vehicle_type"`
	VehicleYear   string     `json:"vehicle_year"`
	VehiclePlate  string     `json:"vehicle_plate"`
	Services      []string   `json:"services"`
	PreferredDate *time.Time `json:"preferred_date,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type AppointmentsList struct {
	Total        int                   `json:"total"`
	Appointments []AppointmentResponse `json:"appointments"`
}

type AppointmentEmailData struct {
	ContactName     string
	AppointmentCode string
	Vehicle         string
	VehiclePlate    string
	Services        string
	PreferredDate   string
	Status          string
	CurrentYear     int
}
