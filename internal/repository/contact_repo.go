package repository

import (
	"context"
	"database/sql"
	"fmt"

	"servicebooking/internal/db"
)

type ContactRepository struct {
	DB *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{DB: db}
}

func (r *ContactRepository) ListContacts(ctx context.Context) ([]db.Contact, error) {
	query := `SELECT id, name, email, phone, created_at FROM contacts ORDER BY created_at, name`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying contacts: %w", err)
	}
	defer rows.Close()

	contacts := []db.Contact{}
	for rows.Next() {
		var c db.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating contacts: %w", err)
	}
	return contacts, nil
}

func (r *ContactRepository) CreateContact(ctx context.Context, c *db.Contact) error {
	query := `
		INSERT INTO contacts (id, name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	if err := r.DB.QueryRowContext(ctx, query, c.ID, c.Name, c.Email, c.Phone).Scan(&c.CreatedAt); err != nil {
		return fmt.Errorf("error inserting contact: %w", err)
	}
	return nil
}
