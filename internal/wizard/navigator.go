// Package wizard moves a booking draft between the three wizard steps and keeps
// the active route consistent with the stored step.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"servicebooking/internal/booking"
	"servicebooking/internal/entities"
	"servicebooking/internal/validation"
)

var (
	ErrNotHydrated   = errors.New("booking state is not hydrated yet")
	ErrUnknownRoute  = errors.New("route does not belong to the booking wizard")
	ErrNotReviewStep = errors.New("booking can only be submitted from the review step")
)

const routePrefix = "/appointment/step-"

var titles = [booking.LastStep]string{"Client & Vehicle", "Details", "Confirm"}

// RouteFor returns the view path of a step.
func RouteFor(step int) string {
	return routePrefix + strconv.Itoa(booking.ClampStep(step))
}

// StepForRoute finds the step-N segment in a path.
func StepForRoute(path string) (int, bool) {
	for _, seg := range strings.Split(path, "/") {
		if !strings.HasPrefix(seg, "step-") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(seg, "step-"))
		if err != nil || n < booking.FirstStep || n > booking.LastStep {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Submitter persists a finished booking.
type Submitter interface {
	SubmitBooking(ctx context.Context, state entities.BookingState) (*entities.AppointmentResponse, error)
}

type Navigator struct {
	Store     *booking.Store
	Validator *validation.Validator
}

func New(store *booking.Store, validator *validation.Validator) *Navigator {
	return &Navigator{Store: store, Validator: validator}
}

// Next validates the current step and advances on success. On failure the step
// is unchanged and the field messages are returned along with a ValidationError.
func (n *Navigator) Next() (validation.Result, error) {
	state := n.Store.State()
	res := n.Validator.ValidateStep(state.Step, state)
	if !res.OK() {
		return res, res.Err(state.Step)
	}
	n.Store.GoToNextStep()
	return res, nil
}

// Back always succeeds and keeps every entered value.
func (n *Navigator) Back() {
	n.Store.GoToPreviousStep()
}

func (n *Navigator) Route() string {
	return RouteFor(n.Store.Step())
}

// Title is the label of the current step, or "" until the draft is hydrated.
func (n *Navigator) Title() string {
	if !n.Store.HasHydrated() {
		return ""
	}
	return titles[n.Store.Step()-1]
}

// SyncRoute applies a route the user landed on directly. Routes at or behind the
// current step are taken as is. A forward route is honoured only as far as the
// steps before it validate; the returned route is where the user should be.
func (n *Navigator) SyncRoute(path string) (string, error) {
	if !n.Store.HasHydrated() {
		return "", ErrNotHydrated
	}
	target, ok := StepForRoute(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, path)
	}

	if target <= n.Store.Step() {
		n.Store.SetStep(target)
		return RouteFor(target), nil
	}

	state := n.Store.State()
	reachable := booking.FirstStep
	for s := booking.FirstStep; s < target; s++ {
		if !n.Validator.ValidateStep(s, state).OK() {
			break
		}
		reachable = s + 1
	}
	n.Store.SetStep(reachable)
	return RouteFor(reachable), nil
}

// Submit hands the draft to the submitter from the review step and resets the
// store once the booking is stored. A failed submit keeps the draft.
func (n *Navigator) Submit(ctx context.Context, submitter Submitter) (*entities.AppointmentResponse, error) {
	state := n.Store.State()
	if state.Step != booking.LastStep {
		return nil, ErrNotReviewStep
	}
	for s := booking.FirstStep; s < booking.LastStep; s++ {
		if res := n.Validator.ValidateStep(s, state); !res.OK() {
			return nil, res.Err(s)
		}
	}

	appt, err := submitter.SubmitBooking(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("submit booking: %w", err)
	}
	n.Store.ResetBooking()
	return appt, nil
}
