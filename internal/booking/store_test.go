package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicebooking/internal/entities"
	"servicebooking/internal/repository"
)

func TestGoToNextStep(t *testing.T) {
	for n := FirstStep; n <= LastStep; n++ {
		s := NewStore()
		s.SetStep(n)
		s.GoToNextStep()
		want := n + 1
		if n == LastStep {
			want = LastStep
		}
		assert.Equal(t, want, s.Step(), "from step %d", n)
	}
}

func TestSetStepClamps(t *testing.T) {
	tests := map[int]int{0: 1, -1: 1, 1: 1, 2: 2, 3: 3, 4: 3, 99: 3}
	for in, want := range tests {
		s := NewStore()
		s.SetStep(in)
		assert.Equal(t, want, s.Step(), "setStep(%d)", in)
	}
}

func TestGoToPreviousStepStopsAtFirst(t *testing.T) {
	s := NewStore()
	s.SetStep(2)
	s.GoToPreviousStep()
	assert.Equal(t, 1, s.Step())
	s.GoToPreviousStep()
	assert.Equal(t, 1, s.Step())
}

func TestResetBookingIdempotent(t *testing.T) {
	s := NewStore()
	s.SetHasHydrated(true)
	s.SetClientInfo(entities.ClientInfo{ContactName: "J", Email: "j@x.com"})
	s.SetServiceInfo(entities.ServiceInfo{Services: []string{"Oil Change"}})
	s.SetStep(3)

	s.ResetBooking()
	once := s.State()
	s.ResetBooking()
	twice := s.State()

	assert.Equal(t, once, twice)
	assert.Equal(t, entities.ClientInfo{}, once.ClientInfo)
	assert.Equal(t, 1, once.Step)
	assert.True(t, once.HasHydrated)
}

func TestStateReturnsCopy(t *testing.T) {
	s := NewStore()
	s.SetServiceInfo(entities.ServiceInfo{Services: []string{"Oil Change"}})
	st := s.State()
	st.ServiceInfo.Services[0] = "Tampered"
	assert.Equal(t, "Oil Change", s.State().ServiceInfo.Services[0])
}

func TestEndToEndSteps(t *testing.T) {
	s := NewStore()
	s.SetClientInfo(entities.ClientInfo{ContactName: "J", Email: "j@x.com", Phone: "555"})
	s.SetVehicleInfo(entities.VehicleInfo{Make: "Toyota", Model: "Corolla", Type: "Sedan", Year: "2020", Plate: ""})
	s.GoToNextStep()
	assert.Equal(t, 2, s.Step())
	s.GoToNextStep()
	assert.Equal(t, 3, s.Step())
	s.GoToNextStep()
	assert.Equal(t, 3, s.Step())
}

func TestPersisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewPersister(repository.NewMemorySessionRepository(time.Hour), nil)

	client := entities.ClientInfo{ContactID: "4", ContactName: "Diana", Email: "diana@example.com", Phone: "555-333-4444"}
	s := p.Load(ctx, "tab-1")
	s.SetClientInfo(client)
	s.SetEntryMode(entities.EntryMode{ManualVehicle: true})
	s.SetStep(2)
	require.NoError(t, p.Save(ctx, "tab-1", s))

	reloaded := p.Load(ctx, "tab-1")
	st := reloaded.State()
	require.True(t, st.HasHydrated)
	assert.Equal(t, client, st.ClientInfo)
	assert.Equal(t, 2, st.Step)
	assert.True(t, st.EntryMode.ManualVehicle)
}

func TestPersisterLoadMissingHydratesDefaults(t *testing.T) {
	p := NewPersister(repository.NewMemorySessionRepository(time.Hour), nil)
	st := p.Load(context.Background(), "fresh").State()
	assert.True(t, st.HasHydrated)
	assert.Equal(t, 1, st.Step)
}

func TestPersisterLoadCorruptFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemorySessionRepository(time.Hour)
	require.NoError(t, repo.Save(ctx, StorageKey("bad"), []byte("{not json")))

	st := NewPersister(repo, nil).Load(ctx, "bad").State()
	assert.True(t, st.HasHydrated)
	assert.Equal(t, 1, st.Step)
	assert.Equal(t, entities.ClientInfo{}, st.ClientInfo)
}

func TestPersisterLoadClampsStoredStep(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemorySessionRepository(time.Hour)
	require.NoError(t, repo.Save(ctx, StorageKey("s"), []byte(`{"step":7}`)))

	assert.Equal(t, 3, NewPersister(repo, nil).Load(ctx, "s").Step())
}

type failingRepo struct{ repository.SessionRepository }

func (failingRepo) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestPersisterLoadReadFailureFallsBack(t *testing.T) {
	st := NewPersister(failingRepo{}, nil).Load(context.Background(), "s").State()
	assert.True(t, st.HasHydrated)
	assert.Equal(t, 1, st.Step)
}

func TestPersisterClear(t *testing.T) {
	ctx := context.Background()
	p := NewPersister(repository.NewMemorySessionRepository(time.Hour), nil)
	s := p.Load(ctx, "s")
	s.SetStep(3)
	require.NoError(t, p.Save(ctx, "s", s))
	require.NoError(t, p.Clear(ctx, "s"))

	assert.Equal(t, 1, p.Load(ctx, "s").Step())
}

func TestSnapshotOmitsHydrationFlag(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemorySessionRepository(time.Hour)
	p := NewPersister(repo, nil)
	s := p.Load(ctx, "s")
	require.NoError(t, p.Save(ctx, "s", s))

	data, err := repo.Load(ctx, StorageKey("s"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hasHydrated")
	assert.Contains(t, string(data), `"step":1`)
}
