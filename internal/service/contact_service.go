package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"servicebooking/internal/db"
	"servicebooking/internal/entities"
	apperrors "servicebooking/internal/errors"
	"servicebooking/internal/validation"
)

type ContactStore interface {
	ListContacts(ctx context.Context) ([]db.Contact, error)
	CreateContact(ctx context.Context, c *db.Contact) error
}

// ContactService backs the contact directory endpoints.
type ContactService struct {
	Repo ContactStore
}

func NewContactService(repo ContactStore) *ContactService {
	return &ContactService{Repo: repo}
}

func (s *ContactService) ListContacts(ctx context.Context) ([]entities.Contact, error) {
	rows, err := s.Repo.ListContacts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entities.Contact, 0, len(rows))
	for _, c := range rows {
		out = append(out, entities.Contact{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone})
	}
	return out, nil
}

// CreateContact validates the input and stores a new contact with a fresh id.
// Invalid input returns a ValidationError.
func (s *ContactService) CreateContact(ctx context.Context, input entities.NewContact) (*entities.Contact, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)

	if fields := ValidateNewContact(input); len(fields) > 0 {
		return nil, &apperrors.ValidationError{Fields: fields}
	}

	row := &db.Contact{ID: uuid.NewString(), Name: input.Name, Email: input.Email, Phone: input.Phone}
	if err := s.Repo.CreateContact(ctx, row); err != nil {
		return nil, fmt.Errorf("could not create contact: %w", err)
	}
	return &entities.Contact{ID: row.ID, Name: row.Name, Email: row.Email, Phone: row.Phone}, nil
}

// ValidateNewContact applies the add-contact form rules: a name and at least one
// of email or phone, with a well formed email when given.
func ValidateNewContact(input entities.NewContact) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(input.Name) == "" {
		fields["name"] = "Please enter a name"
	}
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)
	if email == "" && phone == "" {
		fields["email"] = "Please enter at least one field: email or phone number."
	} else if email != "" && !validation.IsEmail(email) {
		fields["email"] = "Invalid email address"
	}
	return fields
}

// LocalDirectory serves the booking contact directory straight from the
// ContactService when no remote directory is configured. Store failures surface
// as FetchErrors so the wizard reacts to them like to a failed remote call.
type LocalDirectory struct {
	Contacts *ContactService
}

func (d LocalDirectory) ListContacts(ctx context.Context) ([]entities.Contact, error) {
	list, err := d.Contacts.ListContacts(ctx)
	if err != nil {
		return nil, &apperrors.FetchError{Op: "list contacts", Err: err}
	}
	return list, nil
}

func (d LocalDirectory) CreateContact(ctx context.Context, input entities.NewContact) (*entities.Contact, error) {
	c, err := d.Contacts.CreateContact(ctx, input)
	if err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, &apperrors.FetchError{Op: "create contact", Err: err}
	}
	return c, nil
}
