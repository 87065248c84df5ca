// Package store provides abstractions and implementations for data persistence.
package store

import (
	"context"
	"database/sql"
	"time"

	"eventd/internal/domain"
)

// DBTX abstracts the executor a store runs its queries against. Both *sql.DB
// and *sql.Tx satisfy it, so the same store code serves the connection pool
// and callers inside RunInTransaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// EventStore defines the interface for event persistence. Implementations
// must be safe for concurrent use by the request path and the scheduled jobs
// simultaneously; AddParticipant/WithdrawParticipant rely on the store's own
// atomic set semantics, so no in-process locking is layered on top.
type EventStore interface {
	// Create saves a new event. Returns ErrDuplicate if the ID is taken.
	Create(ctx context.Context, event *domain.Event) error

	// GetByID retrieves an event with its participants and cancellation log.
	// Returns ErrEventNotFound if the event does not exist.
	GetByID(ctx context.Context, id string) (*domain.Event, error)

	// GetByDate retrieves all events on the given civil date
	// (domain.DateLayout) with the given status, participants included.
	GetByDate(ctx context.Context, date string, status domain.EventStatus) ([]*domain.Event, error)

	// AddParticipant adds the user to the event's participant set.
	// Adding an already present user is a no-op.
	// Returns ErrEventNotFound if the event does not exist.
	AddParticipant(ctx context.Context, eventID, userID string) error

	// WithdrawParticipant removes the record's user from the event's
	// participant set and appends the record to the event's append-only
	// cancellation log, atomically. Removing an absent user still appends
	// the record. Returns ErrEventNotFound if the event does not exist.
	WithdrawParticipant(ctx context.Context, eventID string, rec domain.CancellationRecord) error

	// SetCancelled transitions the event to cancelled and stores the reason.
	// The transition is compare-and-set: an already-cancelled event returns
	// domain.ErrEventCancelled, so concurrent cancellations resolve to one
	// winner. Returns ErrEventNotFound if the event does not exist.
	SetCancelled(ctx context.Context, eventID, reason string) error

	// Delete removes the event entirely, along with its participant set and
	// cancellation log. Returns ErrEventNotFound if the event does not exist.
	Delete(ctx context.Context, eventID string) error
}

// UserDirectory resolves a member's display name and delivery addresses.
// The membership CRUD itself lives outside this core.
type UserDirectory interface {
	// GetContact returns the contact for the given user.
	// Returns ErrUserNotFound if the user does not exist.
	GetContact(ctx context.Context, userID string) (*domain.Contact, error)
}

// ActivityLogStore persists the admin activity trail and supports the
// monthly retention purge.
type ActivityLogStore interface {
	// Append saves an activity entry.
	Append(ctx context.Context, entry *domain.ActivityEntry) error

	// DeleteOlderThan removes all entries with a timestamp strictly before
	// the cutoff and returns the number removed. Zero matches is not an error.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReminderLedger records which (event, user, date) reminder sends have
// already happened, making the daily reminder job safe to re-run within the
// same civil day after a restart.
type ReminderLedger interface {
	// AlreadySent reports whether a reminder for the event/user pair was
	// already recorded for the given civil date (domain.DateLayout).
	AlreadySent(ctx context.Context, eventID, userID, date string) (bool, error)

	// MarkSent records a successful send. Marking the same triple twice
	// is a no-op.
	MarkSent(ctx context.Context, eventID, userID, date string) error
}
