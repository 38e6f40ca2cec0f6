package entities

// ContactInput is either a SelectedContact or a ManualContact.
type ContactInput interface {
	contactInput()
}

// SelectedContact is a contact picked from the directory.
type SelectedContact struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// ManualContact is a contact typed in by hand.
type ManualContact struct {
	Name  string
	Email string
	Phone string
}

func (SelectedContact) contactInput() {}
func (ManualContact) contactInput()   {}

// VehicleField is either Enumerated (must be one of a fixed option set) or FreeText.
type VehicleField interface {
	Value() string
	vehicleField()
}

type Enumerated string

type FreeText string

func (v Enumerated) Value() string { return string(v) }
func (v FreeText) Value() string   { return string(v) }

func (Enumerated) vehicleField() {}
func (FreeText) vehicleField()   {}

// ContactInputFrom builds the contact variant for a draft.
func ContactInputFrom(info ClientInfo, manual bool) ContactInput {
	if manual {
		return ManualContact{Name: info.ContactName, Email: info.Email, Phone: info.Phone}
	}
	return SelectedContact{ID: info.ContactID, Name: info.ContactName, Email: info.Email, Phone: info.Phone}
}

// VehicleFieldFrom wraps a raw vehicle value in the variant matching the entry mode.
func VehicleFieldFrom(value string, manual bool) VehicleField {
	if manual {
		return FreeText(value)
	}
	return Enumerated(value)
}
