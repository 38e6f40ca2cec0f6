package contacts

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"servicebooking/internal/entities"
)

// API is the request/response surface of the contact directory service.
type API interface {
	ListContacts(ctx context.Context) ([]entities.Contact, error)
	CreateContact(ctx context.Context, input entities.NewContact) (*entities.Contact, error)
}

// Directory caches the contact list with loading and error state. Only the most
// recently issued refresh may publish its result; older responses are dropped.
type Directory struct {
	api API
	log *zap.Logger

	mu          sync.Mutex
	contacts    []entities.Contact
	unconfirmed map[string]entities.Contact
	generation  uint64
	loading     bool
	lastErr     error
}

func NewDirectory(api API, log *zap.Logger) *Directory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{
		api:         api,
		log:         log,
		unconfirmed: make(map[string]entities.Contact),
	}
}

// Refresh reloads the list. On failure the previous list is kept and the error
// is recorded so the caller can offer a retry.
func (d *Directory) Refresh(ctx context.Context) error {
	d.mu.Lock()
	d.generation++
	gen := d.generation
	d.loading = true
	d.mu.Unlock()

	list, err := d.api.ListContacts(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		d.log.Debug("dropping stale contact list", zap.Uint64("generation", gen))
		return nil
	}
	d.loading = false
	if err != nil {
		d.lastErr = err
		return err
	}
	d.lastErr = nil
	d.contacts = d.mergeUnconfirmed(list)
	return nil
}

// mergeUnconfirmed appends contacts this directory created that the list does not
// show yet, and forgets the ones it does show.
func (d *Directory) mergeUnconfirmed(list []entities.Contact) []entities.Contact {
	out := make([]entities.Contact, 0, len(list)+len(d.unconfirmed))
	seen := make(map[string]bool, len(list))
	for _, c := range list {
		seen[c.ID] = true
		out = append(out, c)
	}
	for id, c := range d.unconfirmed {
		if seen[id] {
			delete(d.unconfirmed, id)
			continue
		}
		out = append(out, c)
	}
	return out
}

// Add creates a contact, merges the directory's response into the local list and
// then refreshes. A failed create leaves the list untouched.
func (d *Directory) Add(ctx context.Context, input entities.NewContact) (*entities.Contact, error) {
	created, err := d.api.CreateContact(ctx, input)
	if err != nil {
		d.mu.Lock()
		d.lastErr = err
		d.mu.Unlock()
		return nil, err
	}

	d.mu.Lock()
	d.unconfirmed[created.ID] = *created
	d.upsert(*created)
	d.lastErr = nil
	d.mu.Unlock()

	if err := d.Refresh(ctx); err != nil {
		d.log.Warn("contact created but list refresh failed", zap.String("contact_id", created.ID), zap.Error(err))
	}
	return created, nil
}

func (d *Directory) upsert(c entities.Contact) {
	for i := range d.contacts {
		if d.contacts[i].ID == c.ID {
			d.contacts[i] = c
			return
		}
	}
	d.contacts = append(d.contacts, c)
}

// Lookup finds a contact by id in the cached list.
func (d *Directory) Lookup(id string) (entities.Contact, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.contacts {
		if c.ID == id {
			return c, true
		}
	}
	return entities.Contact{}, false
}

// Search filters the cached list by name, email or phone, ignoring case.
func (d *Directory) Search(query string) []entities.Contact {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]entities.Contact, 0, len(d.contacts))
	for _, c := range d.contacts {
		if q == "" ||
			strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Email), q) ||
			strings.Contains(strings.ToLower(c.Phone), q) {
			out = append(out, c)
		}
	}
	return out
}

func (d *Directory) Snapshot() entities.DirectorySnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := entities.DirectorySnapshot{
		Contacts: append([]entities.Contact{}, d.contacts...),
		Loading:  d.loading,
	}
	if d.lastErr != nil {
		snap.Error = d.lastErr.Error()
	}
	return snap
}
