package validation

import (
	"strconv"
	"strings"
	"time"
)

// yearSpan is how many years before the current one the year picker offers.
const yearSpan = 30

var (
	VehicleMakes  = []string{"Toyota", "Honda", "Ford", "Tesla"}
	VehicleModels = []string{"Corolla", "Civic", "F-150", "Model 3"}
	VehicleTypes  = []string{"Sedan", "SUV", "Truck", "Electric"}
	Services      = []string{
		"Oil Change",
		"Tire Rotation",
		"Brake Inspection",
		"Battery Replacement",
		"Wheel Alignment",
		"General Inspection",
	}
)

// Catalog holds the fixed option sets offered by the vehicle and service
// dropdowns. Years move with the clock and are derived per call.
type Catalog struct {
	Makes    []string
	Models   []string
	Types    []string
	Services []string
}

// VehicleYears returns the current year down through yearSpan prior years.
func VehicleYears(now time.Time) []string {
	current := now.Year()
	years := make([]string, 0, yearSpan+1)
	for y := current; y >= current-yearSpan; y-- {
		years = append(years, strconv.Itoa(y))
	}
	return years
}

func DefaultCatalog() Catalog {
	return Catalog{
		Makes:    VehicleMakes,
		Models:   VehicleModels,
		Types:    VehicleTypes,
		Services: Services,
	}
}

// Options returns the option set for a field name as of now, or false for
// unknown fields.
func (c Catalog) Options(field string, now time.Time) ([]string, bool) {
	switch field {
	case FieldMake:
		return c.Makes, true
	case FieldModel:
		return c.Models, true
	case FieldType:
		return c.Types, true
	case FieldYear:
		return VehicleYears(now), true
	case FieldServices, "service":
		return c.Services, true
	}
	return nil, false
}

// FilterOptions keeps the options containing search, ignoring case. A blank search
// returns every option.
func FilterOptions(options []string, search string) []string {
	search = strings.TrimSpace(search)
	if search == "" {
		out := make([]string, len(options))
		copy(out, options)
		return out
	}
	needle := strings.ToLower(search)
	var out []string
	for _, o := range options {
		if strings.Contains(strings.ToLower(o), needle) {
			out = append(out, o)
		}
	}
	return out
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
