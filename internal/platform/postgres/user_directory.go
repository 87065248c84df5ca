package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventd/internal/domain"
	"eventd/internal/store"
)

// PostgresUserDirectory implements the store.UserDirectory interface using
// PostgreSQL. It is a read-only view over the members table; membership
// management happens elsewhere.
type PostgresUserDirectory struct {
	db store.DBTX
}

// NewPostgresUserDirectory creates a new PostgresUserDirectory.
func NewPostgresUserDirectory(db store.DBTX) *PostgresUserDirectory {
	return &PostgresUserDirectory{
		db: db,
	}
}

// GetContact returns the contact for the given user.
func (d *PostgresUserDirectory) GetContact(ctx context.Context, userID string) (*domain.Contact, error) {
	query := `
		SELECT id, display_name, email, parent_email
		FROM users
		WHERE id = $1
	`
	var (
		contact     domain.Contact
		email       sql.NullString
		parentEmail sql.NullString
	)
	err := d.db.QueryRowContext(ctx, query, userID).Scan(
		&contact.UserID,
		&contact.DisplayName,
		&email,
		&parentEmail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, store.NewStoreError("user", "get", "failed to query contact", err)
	}

	contact.Email = email.String
	contact.ParentEmail = parentEmail.String
	return &contact, nil
}
