// Package booking holds the draft of one wizard session and its persistence.
package booking

import (
	"sync"

	"servicebooking/internal/entities"
)

const (
	FirstStep = 1
	LastStep  = 3
)

// Store is the single owner of one session's booking draft. Create one per
// session with NewStore or Persister.Load; do not share it between sessions.
type Store struct {
	mu    sync.RWMutex
	state entities.BookingState
}

func NewStore() *Store {
	return &Store{state: defaultState()}
}

func defaultState() entities.BookingState {
	return entities.BookingState{Step: FirstStep}
}

// ClampStep forces n into [FirstStep, LastStep].
func ClampStep(n int) int {
	if n < FirstStep {
		return FirstStep
	}
	if n > LastStep {
		return LastStep
	}
	return n
}

// State returns a snapshot of the draft.
func (s *Store) State() entities.BookingState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	if st.ServiceInfo.Services != nil {
		st.ServiceInfo.Services = append([]string(nil), st.ServiceInfo.Services...)
	}
	return st
}

// SetClientInfo replaces the client info wholesale.
func (s *Store) SetClientInfo(info entities.ClientInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ClientInfo = info
}

// SetVehicleInfo replaces the vehicle info wholesale.
func (s *Store) SetVehicleInfo(info entities.VehicleInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.VehicleInfo = info
}

func (s *Store) SetServiceInfo(info entities.ServiceInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if info.Services != nil {
		info.Services = append([]string(nil), info.Services...)
	}
	s.state.ServiceInfo = info
}

func (s *Store) SetEntryMode(mode entities.EntryMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.EntryMode = mode
}

// SetStep sets an absolute step, clamped to the valid range.
func (s *Store) SetStep(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Step = ClampStep(n)
}

// GoToNextStep advances one step and stops at LastStep.
func (s *Store) GoToNextStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Step = ClampStep(s.state.Step + 1)
}

func (s *Store) GoToPreviousStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Step = ClampStep(s.state.Step - 1)
}

// ResetBooking restores the empty draft at step 1. The hydration flag is kept.
func (s *Store) ResetBooking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	hydrated := s.state.HasHydrated
	s.state = defaultState()
	s.state.HasHydrated = hydrated
}

func (s *Store) SetHasHydrated(flag bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.HasHydrated = flag
}

func (s *Store) HasHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.HasHydrated
}

func (s *Store) Step() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Step
}
