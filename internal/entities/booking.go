package entities

// ClientInfo is the contact part of a booking draft.
type ClientInfo struct {
	ContactID   string `json:"contactId,omitempty"`
	ContactName string `json:"contactName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// VehicleInfo is the vehicle part of a booking draft. Make, model, type and year
// hold either a catalog value or free text, depending on EntryMode.ManualVehicle.
type VehicleInfo struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Type  string `json:"type"`
	Year  string `json:"year"`
	Plate string `json:"plate"`
}

// ServiceInfo is collected on the details step.
type ServiceInfo struct {
	Services      []string `json:"services"`
	PreferredDate string   `json:"preferredDate,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// EntryMode records which inputs were typed by hand instead of picked from a list.
type EntryMode struct {
	ManualContact bool `json:"manualContact"`
	ManualVehicle bool `json:"manualVehicle"`
}

// BookingState is the whole draft of one wizard session.
type BookingState struct {
	ClientInfo  ClientInfo  `json:"clientInfo"`
	VehicleInfo VehicleInfo `json:"vehicleInfo"`
	ServiceInfo ServiceInfo `json:"serviceInfo"`
	EntryMode   EntryMode   `json:"entryMode"`
	Step        int         `json:"step"`
	HasHydrated bool        `json:"-"`
}

// BookingStateView is what the wizard API returns to the UI.
type BookingStateView struct {
	SessionID   string      `json:"sessionId"`
	ClientInfo  ClientInfo  `json:"clientInfo"`
	VehicleInfo VehicleInfo `json:"vehicleInfo"`
	ServiceInfo ServiceInfo `json:"serviceInfo"`
	EntryMode   EntryMode   `json:"entryMode"`
	Step        int         `json:"step"`
	HasHydrated bool        `json:"hasHydrated"`
	Title       string      `json:"title,omitempty"`
	Route       string      `json:"route"`
}
