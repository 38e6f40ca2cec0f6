package db

import (
	"database/sql"
	"time"
)

type Contact struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

type Appointment struct {
	ID            int
	Code          string
	ContactID     sql.NullString
	ContactName   string
	Email         string
	Phone         string
	VehicleMake   string
	VehicleModel  string
	VehicleType   string
	VehicleYear   string
	VehiclePlate  string
	Services      []string
	PreferredDate sql.NullTime
	Notes         string
	Status        string
	ReminderSent  bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
