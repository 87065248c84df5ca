package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"eventd/internal/domain"
	"eventd/internal/platform/logger"
	"eventd/internal/store"
)

// PostgresEventStore implements the store.EventStore interface using
// PostgreSQL. Participants and cancellation records live in their own tables
// with ON DELETE CASCADE, so deleting an event removes both in one statement.
type PostgresEventStore struct {
	db store.DBTX
}

// NewPostgresEventStore creates a new PostgresEventStore.
func NewPostgresEventStore(db store.DBTX) *PostgresEventStore {
	return &PostgresEventStore{
		db: db,
	}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *PostgresEventStore) WithTx(tx *sql.Tx) *PostgresEventStore {
	return &PostgresEventStore{db: tx}
}

// Create saves a new event.
func (s *PostgresEventStore) Create(ctx context.Context, event *domain.Event) error {
	log := logger.FromContext(ctx)

	if err := event.Validate(); err != nil {
		return err
	}

	title, err := json.Marshal(event.Title)
	if err != nil {
		return fmt.Errorf("failed to encode event title: %w", err)
	}
	description, err := json.Marshal(event.Description)
	if err != nil {
		return fmt.Errorf("failed to encode event description: %w", err)
	}

	query := `
		INSERT INTO events (id, event_date, event_time, location, title, description,
			status, cancellation_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.Date,
		event.Time,
		event.Location,
		title,
		description,
		event.Status,
		event.CancellationReason,
		event.CreatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrDuplicate) {
			return mapped
		}
		log.Error("failed to create event",
			"event_id", event.ID,
			"error", err)
		return mapped
	}

	return nil
}

// GetByID retrieves an event with its participants and cancellation log.
func (s *PostgresEventStore) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, event_date, event_time, location, title, description,
			status, cancellation_reason, created_at
		FROM events
		WHERE id = $1
	`
	event, err := s.scanEvent(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(MapError(err), store.ErrNotFound) {
			return nil, store.ErrEventNotFound
		}
		return nil, store.NewStoreError("event", "get", "failed to query event", err)
	}

	if err := s.loadParticipants(ctx, event); err != nil {
		return nil, store.NewStoreError("event", "get", "failed to load participants", err)
	}
	if err := s.loadCancellations(ctx, event); err != nil {
		return nil, store.NewStoreError("event", "get", "failed to load cancellation records", err)
	}
	return event, nil
}

// GetByDate retrieves all events on the given civil date with the given
// status, participants included. Cancellation records are not loaded on this
// path; the daily reminder job has no use for them.
func (s *PostgresEventStore) GetByDate(ctx context.Context, date string, status domain.EventStatus) ([]*domain.Event, error) {
	query := `
		SELECT id, event_date, event_time, location, title, description,
			status, cancellation_reason, created_at
		FROM events
		WHERE event_date = $1 AND status = $2
		ORDER BY event_time, id
	`
	rows, err := s.db.QueryContext(ctx, query, date, status)
	if err != nil {
		return nil, store.NewStoreError("event", "list", "failed to query events by date", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*domain.Event
	for rows.Next() {
		event, err := s.scanEvent(rows)
		if err != nil {
			return nil, store.NewStoreError("event", "list", "failed to scan event row", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("event", "list", "failed to iterate event rows", err)
	}

	for _, event := range events {
		if err := s.loadParticipants(ctx, event); err != nil {
			return nil, store.NewStoreError("event", "list", "failed to load participants", err)
		}
	}
	return events, nil
}

// AddParticipant adds the user to the event's participant set. The primary
// key on (event_id, user_id) plus ON CONFLICT DO NOTHING makes repeated
// confirmations a no-op at the database level.
func (s *PostgresEventStore) AddParticipant(ctx context.Context, eventID, userID string) error {
	query := `
		INSERT INTO event_participants (event_id, user_id, confirmed_at)
		VALUES ($1, $2, now())
		ON CONFLICT (event_id, user_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, eventID, userID); err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrEventNotFound
		}
		return store.NewStoreError("event participant", "add", "failed to add participant", err)
	}
	return nil
}

// WithdrawParticipant removes the user from the participant set and appends
// the cancellation record. When the store is backed by the connection pool
// the two statements run in one transaction; inside a caller-provided
// transaction they simply join it.
func (s *PostgresEventStore) WithdrawParticipant(ctx context.Context, eventID string, rec domain.CancellationRecord) error {
	if db, ok := s.db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return s.WithTx(tx).withdrawParticipant(ctx, eventID, rec)
		})
	}
	return s.withdrawParticipant(ctx, eventID, rec)
}

func (s *PostgresEventStore) withdrawParticipant(ctx context.Context, eventID string, rec domain.CancellationRecord) error {
	query := `DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`
	if _, err := s.db.ExecContext(ctx, query, eventID, rec.UserID); err != nil {
		return store.NewStoreError("event participant", "remove", "failed to remove participant", err)
	}

	query = `
		INSERT INTO event_cancellations (id, event_id, user_id, reason, cancelled_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		eventID,
		rec.UserID,
		rec.Reason,
		rec.CancelledAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrEventNotFound
		}
		return store.NewStoreError("event cancellation", "append", "failed to append cancellation record", err)
	}
	return nil
}

// SetCancelled transitions the event to cancelled and stores the reason.
// The WHERE clause excludes already-cancelled rows, so exactly one of two
// concurrent cancellations wins and the loser sees ErrEventCancelled.
func (s *PostgresEventStore) SetCancelled(ctx context.Context, eventID, reason string) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE events
		SET status = $1, cancellation_reason = $2
		WHERE id = $3 AND status <> $1
	`
	result, err := s.db.ExecContext(ctx, query, domain.EventStatusCancelled, reason, eventID)
	if err != nil {
		return store.NewStoreError("event", "cancel", "failed to cancel event", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("event", "cancel", "failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		var status domain.EventStatus
		err := s.db.QueryRowContext(ctx,
			`SELECT status FROM events WHERE id = $1`, eventID).Scan(&status)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return store.ErrEventNotFound
		case err != nil:
			return store.NewStoreError("event", "cancel", "failed to check event status", err)
		case status == domain.EventStatusCancelled:
			return domain.ErrEventCancelled
		}
		return store.ErrEventNotFound
	}

	log.Debug("event marked cancelled", "event_id", eventID)
	return nil
}

// Delete removes the event; participants and cancellation records go with it
// via ON DELETE CASCADE.
func (s *PostgresEventStore) Delete(ctx context.Context, eventID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return store.NewStoreError("event", "delete", "failed to delete event", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("event", "delete", "failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return store.ErrEventNotFound
	}
	return nil
}

// rowScanner lets scanEvent work for both QueryRowContext and rows.Next.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresEventStore) scanEvent(row rowScanner) (*domain.Event, error) {
	var (
		event       domain.Event
		title       []byte
		description []byte
	)
	err := row.Scan(
		&event.ID,
		&event.Date,
		&event.Time,
		&event.Location,
		&title,
		&description,
		&event.Status,
		&event.CancellationReason,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(title, &event.Title); err != nil {
		return nil, fmt.Errorf("failed to decode event title: %w", err)
	}
	if len(description) > 0 {
		if err := json.Unmarshal(description, &event.Description); err != nil {
			return nil, fmt.Errorf("failed to decode event description: %w", err)
		}
	}
	return &event, nil
}

func (s *PostgresEventStore) loadParticipants(ctx context.Context, event *domain.Event) error {
	query := `
		SELECT user_id
		FROM event_participants
		WHERE event_id = $1
		ORDER BY confirmed_at, user_id
	`
	rows, err := s.db.QueryContext(ctx, query, event.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return err
		}
		event.Participants = append(event.Participants, userID)
	}
	return rows.Err()
}

func (s *PostgresEventStore) loadCancellations(ctx context.Context, event *domain.Event) error {
	query := `
		SELECT id, user_id, reason, cancelled_at
		FROM event_cancellations
		WHERE event_id = $1
		ORDER BY cancelled_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, event.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var rec domain.CancellationRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Reason, &rec.CancelledAt); err != nil {
			return err
		}
		event.Cancellations = append(event.Cancellations, rec)
	}
	return rows.Err()
}
