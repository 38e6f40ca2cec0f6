package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"servicebooking/internal/entities"
	apperrors "servicebooking/internal/errors"
	"servicebooking/internal/repository"
)

const StorageKeyPrefix = "booking-storage"

// snapshot is the persisted shape of a draft. The hydration flag is recomputed on
// every load and never stored.
type snapshot struct {
	ClientInfo  entities.ClientInfo  `json:"clientInfo"`
	VehicleInfo entities.VehicleInfo `json:"vehicleInfo"`
	ServiceInfo entities.ServiceInfo `json:"serviceInfo"`
	EntryMode   entities.EntryMode   `json:"entryMode"`
	Step        int                  `json:"step"`
}

func StorageKey(sessionID string) string {
	return StorageKeyPrefix + ":" + sessionID
}

// Persister moves stores in and out of session storage.
type Persister struct {
	Repo repository.SessionRepository
	Log  *zap.Logger
}

func NewPersister(repo repository.SessionRepository, log *zap.Logger) *Persister {
	if log == nil {
		log = zap.NewNop()
	}
	return &Persister{Repo: repo, Log: log}
}

// Load hydrates a store for the session. Missing, unreadable and corrupt
// snapshots all resolve to the default draft; the returned store is always
// hydrated.
func (p *Persister) Load(ctx context.Context, sessionID string) *Store {
	store := NewStore()
	key := StorageKey(sessionID)

	data, err := p.Repo.Load(ctx, key)
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
	case err != nil:
		p.warn(&apperrors.PersistenceError{Key: key, Err: err})
	default:
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			p.warn(&apperrors.PersistenceError{Key: key, Err: err})
			break
		}
		store.SetClientInfo(snap.ClientInfo)
		store.SetVehicleInfo(snap.VehicleInfo)
		store.SetServiceInfo(snap.ServiceInfo)
		store.SetEntryMode(snap.EntryMode)
		store.SetStep(snap.Step)
	}

	store.SetHasHydrated(true)
	return store
}

// Save writes the current draft of the store.
func (p *Persister) Save(ctx context.Context, sessionID string, store *Store) error {
	st := store.State()
	data, err := json.Marshal(snapshot{
		ClientInfo:  st.ClientInfo,
		VehicleInfo: st.VehicleInfo,
		ServiceInfo: st.ServiceInfo,
		EntryMode:   st.EntryMode,
		Step:        st.Step,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal booking draft: %w", err)
	}
	if err := p.Repo.Save(ctx, StorageKey(sessionID), data); err != nil {
		return fmt.Errorf("failed to save booking draft: %w", err)
	}
	return nil
}

// Clear removes the persisted draft of the session.
func (p *Persister) Clear(ctx context.Context, sessionID string) error {
	if err := p.Repo.Delete(ctx, StorageKey(sessionID)); err != nil {
		return fmt.Errorf("failed to clear booking draft: %w", err)
	}
	return nil
}

func (p *Persister) warn(err *apperrors.PersistenceError) {
	p.Log.Warn("discarding persisted booking draft", zap.String("key", err.Key), zap.Error(err))
}
