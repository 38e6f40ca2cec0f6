// Package validation holds the per-step field rules of the booking wizard.
// Validators are pure: they read a draft and report field messages.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"servicebooking/internal/entities"
	apperrors "servicebooking/internal/errors"
)

const (
	FieldContactName   = "contactName"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldMake          = "make"
	FieldModel         = "model"
	FieldType          = "type"
	FieldYear          = "year"
	FieldServices      = "services"
	FieldPreferredDate = "preferredDate"
)

const dateLayout = "2006-01-02"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Result maps a field name to its error message. An empty Result means every
// field passed.
type Result map[string]string

func (r Result) OK() bool {
	return len(r) == 0
}

// Err returns a *ValidationError for a failed result and nil otherwise.
func (r Result) Err(step int) error {
	if r.OK() {
		return nil
	}
	fields := make(map[string]string, len(r))
	for k, v := range r {
		fields[k] = v
	}
	return &apperrors.ValidationError{Step: step, Fields: fields}
}

type Validator struct {
	Catalog Catalog
	Now     func() time.Time
}

func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{Catalog: DefaultCatalog(), Now: now}
}

// Options returns the option set for a field name using the validator's clock.
func (v *Validator) Options(field string) ([]string, bool) {
	return v.Catalog.Options(field, v.Now())
}

// ValidateStep1 checks the client and vehicle part of the draft.
func ValidateStep1(client entities.ClientInfo, vehicle entities.VehicleInfo, manualContact, manualVehicle bool) Result {
	return NewValidator(nil).ValidateStep1(client, vehicle, manualContact, manualVehicle)
}

func (v *Validator) ValidateStep1(client entities.ClientInfo, vehicle entities.VehicleInfo, manualContact, manualVehicle bool) Result {
	res := Result{}
	v.validateContact(res, entities.ContactInputFrom(client, manualContact))
	v.validateVehicleField(res, FieldYear, entities.VehicleFieldFrom(vehicle.Year, manualVehicle), VehicleYears(v.Now()))
	v.validateVehicleField(res, FieldMake, entities.VehicleFieldFrom(vehicle.Make, manualVehicle), v.Catalog.Makes)
	v.validateVehicleField(res, FieldModel, entities.VehicleFieldFrom(vehicle.Model, manualVehicle), v.Catalog.Models)
	v.validateVehicleField(res, FieldType, entities.VehicleFieldFrom(vehicle.Type, manualVehicle), v.Catalog.Types)
	return res
}

// ValidateStep2 requires at least one catalog service and, when given, a
// preferred date that is not in the past.
func (v *Validator) ValidateStep2(info entities.ServiceInfo) Result {
	res := Result{}
	if len(info.Services) == 0 {
		res[FieldServices] = "Please select at least one service"
	}
	for _, s := range info.Services {
		if !contains(v.Catalog.Services, s) {
			res[FieldServices] = fmt.Sprintf("Unknown service %q", s)
			break
		}
	}

	if d := strings.TrimSpace(info.PreferredDate); d != "" {
		date, err := time.Parse(dateLayout, d)
		if err != nil {
			res[FieldPreferredDate] = "Please enter a date as YYYY-MM-DD"
		} else {
			now := v.Now()
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			if date.Before(today) {
				res[FieldPreferredDate] = "Preferred date cannot be in the past"
			}
		}
	}
	return res
}

// ValidateStep3 is the review step; it has no fields of its own.
func (v *Validator) ValidateStep3(entities.BookingState) Result {
	return Result{}
}

// ValidateStep dispatches on the step number using the draft's entry mode.
func (v *Validator) ValidateStep(step int, state entities.BookingState) Result {
	switch step {
	case 1:
		return v.ValidateStep1(state.ClientInfo, state.VehicleInfo, state.EntryMode.ManualContact, state.EntryMode.ManualVehicle)
	case 2:
		return v.ValidateStep2(state.ServiceInfo)
	case 3:
		return v.ValidateStep3(state)
	}
	return Result{"step": fmt.Sprintf("Unknown step %d", step)}
}

func (v *Validator) validateContact(res Result, input entities.ContactInput) {
	switch c := input.(type) {
	case entities.SelectedContact:
		if blank(c.ID) && blank(c.Name) {
			res[FieldContactName] = "Please select a contact"
			return
		}
		if blank(c.Email) && blank(c.Phone) {
			res[FieldEmail] = "Please enter at least one field: email or phone number."
			return
		}
		if !blank(c.Email) && !emailPattern.MatchString(strings.TrimSpace(c.Email)) {
			res[FieldEmail] = "Invalid email address"
		}
	case entities.ManualContact:
		if blank(c.Name) {
			res[FieldContactName] = "Please enter a contact name"
		}
		switch {
		case blank(c.Email):
			res[FieldEmail] = "Please enter an email"
		case !emailPattern.MatchString(strings.TrimSpace(c.Email)):
			res[FieldEmail] = "Invalid email address"
		}
		// Phone formats vary internationally, so only presence is checked.
		if blank(c.Phone) {
			res[FieldPhone] = "Please enter a phone number"
		}
	default:
		res[FieldContactName] = "Please select a contact"
	}
}

func (v *Validator) validateVehicleField(res Result, name string, field entities.VehicleField, options []string) {
	switch f := field.(type) {
	case entities.Enumerated:
		if blank(string(f)) {
			res[name] = fmt.Sprintf("Please select a %s", name)
		} else if !contains(options, string(f)) {
			res[name] = fmt.Sprintf("Please select a valid %s", name)
		}
	case entities.FreeText:
		if blank(string(f)) {
			res[name] = fmt.Sprintf("Please enter a %s", name)
		}
	case nil:
		res[name] = fmt.Sprintf("Please select a %s", name)
	}
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
