package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"servicebooking/internal/booking"
	"servicebooking/internal/contacts"
	"servicebooking/internal/entities"
	apperrors "servicebooking/internal/errors"
	"servicebooking/internal/validation"
	"servicebooking/internal/wizard"
)

var (
	ErrInvalidSession  = errors.New("invalid booking session id")
	ErrContactNotFound = errors.New("contact not found")
	ErrUnknownField    = errors.New("unknown option field")
)

// BookingService runs the wizard for many sessions. Each call loads the session's
// draft, applies one operation and saves it back. Calls for the same session are
// serialised.
type BookingService struct {
	Persister *booking.Persister
	Validator *validation.Validator
	Directory *contacts.Directory
	Submitter wizard.Submitter
	Log       *zap.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewBookingService(persister *booking.Persister, validator *validation.Validator, directory *contacts.Directory, submitter wizard.Submitter, log *zap.Logger) *BookingService {
	return &BookingService{
		Persister: persister,
		Validator: validator,
		Directory: directory,
		Submitter: submitter,
		Log:       log,
		locks:     make(map[string]*sessionLock),
	}
}

func (s *BookingService) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func checkSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSession, id)
	}
	return nil
}

func view(id string, nav *wizard.Navigator) entities.BookingStateView {
	st := nav.Store.State()
	return entities.BookingStateView{
		SessionID:   id,
		ClientInfo:  st.ClientInfo,
		VehicleInfo: st.VehicleInfo,
		ServiceInfo: st.ServiceInfo,
		EntryMode:   st.EntryMode,
		Step:        st.Step,
		HasHydrated: st.HasHydrated,
		Title:       nav.Title(),
		Route:       nav.Route(),
	}
}

// update loads the session, runs fn and saves the draft when fn succeeds. The
// returned view reflects the draft after fn either way.
func (s *BookingService) update(ctx context.Context, id string, fn func(nav *wizard.Navigator) error) (entities.BookingStateView, error) {
	if err := checkSessionID(id); err != nil {
		return entities.BookingStateView{}, err
	}
	unlock := s.lock(id)
	defer unlock()

	nav := wizard.New(s.Persister.Load(ctx, id), s.Validator)
	if err := fn(nav); err != nil {
		return view(id, nav), err
	}
	if err := s.Persister.Save(ctx, id, nav.Store); err != nil {
		return view(id, nav), err
	}
	return view(id, nav), nil
}

// CreateSession starts a new draft with default values.
func (s *BookingService) CreateSession(ctx context.Context) (entities.BookingStateView, error) {
	id := uuid.NewString()
	s.Log.Debug("booking session created", zap.String("session_id", id))
	return s.update(ctx, id, func(*wizard.Navigator) error { return nil })
}

func (s *BookingService) GetSession(ctx context.Context, id string) (entities.BookingStateView, error) {
	if err := checkSessionID(id); err != nil {
		return entities.BookingStateView{}, err
	}
	unlock := s.lock(id)
	defer unlock()
	return view(id, wizard.New(s.Persister.Load(ctx, id), s.Validator)), nil
}

func (s *BookingService) SetClientInfo(ctx context.Context, id string, info entities.ClientInfo) (entities.BookingStateView, error) {
	return s.update(ctx, id, func(nav *wizard.Navigator) error {
		nav.Store.SetClientInfo(info)
		return nil
	})
}

func (s *BookingService) SetVehicleInfo(ctx context.Context, id string, info entities.VehicleInfo) (entities.BookingStateView, error) {
	return s.update(ctx, id, func(nav *wizard.Navigator) error {
		nav.Store.SetVehicleInfo(info)
		return nil
	})
}

func (s *BookingService) SetServiceInfo(ctx context.Context, id string, info entities.ServiceInfo) (entities.BookingStateView, error) {
	return s.update(ctx, id, func(nav *wizard.Navigator) error {
		nav.Store.SetServiceInfo(info)
		return nil
	})
}

func (s *BookingService) SetEntryMode(ctx context.Context, id string, mode entities.EntryMode) (entities.BookingStateView, error) {
	return s.update(ctx, id, func(nav *wizard.Navigator) error {
		nav.Store.SetEntryMode(mode)
		return nil
	})
}

func (s *BookingService) SetStep(ctx context.Context, id string, step int) (entities.BookingStateView, error) {
	return s.update(ctx, id, func(nav *wizard.Navigator) error {
		nav.Store.SetStep(step)
		return nil
	})
}

// Next advances the session when the current step validates. A failed
// validation returns a ValidationError and leaves the draft as it was.
func (s *BookingService) Next(ctx context.Context, id string) (entities.BookingStateView, error) {
	return s.update(ctx, id, func(nav *wizard.Navigator) error {
		_, err := nav.Next()
		return err
	})
}

func (s *BookingService) Back(ctx context.Context, id string) (entities.BookingStateView, error) {
	return s.update(ctx, id, func(nav *wizard.Navigator) error {
		nav.Back()
		return nil
	})
}

// SyncRoute applies a route the browser landed on. The view's Route is where the
// browser should be afterwards.
func (s *BookingService) SyncRoute(ctx context.Context, id, path string) (entities.BookingStateView, error) {
	return s.update(ctx, id, func(nav *wizard.Navigator) error {
		_, err := nav.SyncRoute(path)
		return err
	})
}

// Reset discards the draft.
func (s *BookingService) Reset(ctx context.Context, id string) (entities.BookingStateView, error) {
	if err := checkSessionID(id); err != nil {
		return entities.BookingStateView{}, err
	}
	unlock := s.lock(id)
	defer unlock()

	if err := s.Persister.Clear(ctx, id); err != nil {
		return entities.BookingStateView{}, err
	}
	store := booking.NewStore()
	store.SetHasHydrated(true)
	return view(id, wizard.New(store, s.Validator)), nil
}

// Submit stores the booking from the review step and clears the draft.
func (s *BookingService) Submit(ctx context.Context, id string) (*entities.AppointmentResponse, error) {
	if err := checkSessionID(id); err != nil {
		return nil, err
	}
	unlock := s.lock(id)
	defer unlock()

	nav := wizard.New(s.Persister.Load(ctx, id), s.Validator)
	appt, err := nav.Submit(ctx, s.Submitter)
	if err != nil {
		return nil, err
	}
	if err := s.Persister.Clear(ctx, id); err != nil {
		s.Log.Warn("booking submitted but draft was not cleared", zap.String("session_id", id), zap.Error(err))
	}
	return appt, nil
}

// SearchContacts refreshes the directory and filters it. When the refresh fails
// the snapshot still holds the previously loaded contacts.
func (s *BookingService) SearchContacts(ctx context.Context, query string) (entities.DirectorySnapshot, error) {
	err := s.Directory.Refresh(ctx)
	snap := s.Directory.Snapshot()
	snap.Contacts = s.Directory.Search(query)
	return snap, err
}

// AddContact creates a contact in the directory and selects it for the session.
func (s *BookingService) AddContact(ctx context.Context, id string, input entities.NewContact) (entities.BookingStateView, *entities.Contact, error) {
	if err := checkSessionID(id); err != nil {
		return entities.BookingStateView{}, nil, err
	}
	if fields := ValidateNewContact(input); len(fields) > 0 {
		return entities.BookingStateView{}, nil, &apperrors.ValidationError{Fields: fields}
	}

	created, err := s.Directory.Add(ctx, input)
	if err != nil {
		return entities.BookingStateView{}, nil, err
	}
	v, err := s.update(ctx, id, func(nav *wizard.Navigator) error {
		selectContact(nav.Store, *created)
		return nil
	})
	return v, created, err
}

// SelectContact copies a directory contact into the session's client info.
func (s *BookingService) SelectContact(ctx context.Context, id, contactID string) (entities.BookingStateView, error) {
	if err := checkSessionID(id); err != nil {
		return entities.BookingStateView{}, err
	}
	c, ok := s.Directory.Lookup(contactID)
	if !ok {
		if err := s.Directory.Refresh(ctx); err != nil {
			return entities.BookingStateView{}, err
		}
		if c, ok = s.Directory.Lookup(contactID); !ok {
			return entities.BookingStateView{}, fmt.Errorf("%w: %s", ErrContactNotFound, contactID)
		}
	}
	return s.update(ctx, id, func(nav *wizard.Navigator) error {
		selectContact(nav.Store, c)
		return nil
	})
}

func selectContact(store *booking.Store, c entities.Contact) {
	store.SetClientInfo(entities.ClientInfo{
		ContactID:   c.ID,
		ContactName: c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
	})
	mode := store.State().EntryMode
	mode.ManualContact = false
	store.SetEntryMode(mode)
}

// Options returns the catalog values of a vehicle or service field matching q.
func (s *BookingService) Options(field, q string) ([]string, error) {
	options, ok := s.Validator.Options(field)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return validation.FilterOptions(options, q), nil
}
