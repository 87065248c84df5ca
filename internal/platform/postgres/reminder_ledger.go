package postgres

import (
	"context"

	"eventd/internal/store"
)

// PostgresReminderLedger implements the store.ReminderLedger interface using
// PostgreSQL. The primary key on (event_id, user_id, remind_date) makes
// MarkSent idempotent.
type PostgresReminderLedger struct {
	db store.DBTX
}

// NewPostgresReminderLedger creates a new PostgresReminderLedger.
func NewPostgresReminderLedger(db store.DBTX) *PostgresReminderLedger {
	return &PostgresReminderLedger{
		db: db,
	}
}

// AlreadySent reports whether a reminder for the event/user pair was already
// recorded for the given civil date.
func (l *PostgresReminderLedger) AlreadySent(ctx context.Context, eventID, userID, date string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reminder_dispatches
			WHERE event_id = $1 AND user_id = $2 AND remind_date = $3
		)
	`
	var sent bool
	if err := l.db.QueryRowContext(ctx, query, eventID, userID, date).Scan(&sent); err != nil {
		return false, store.NewStoreError("reminder ledger", "get", "failed to query ledger", err)
	}
	return sent, nil
}

// MarkSent records a successful send. Marking the same triple twice is a
// no-op.
func (l *PostgresReminderLedger) MarkSent(ctx context.Context, eventID, userID, date string) error {
	query := `
		INSERT INTO reminder_dispatches (event_id, user_id, remind_date, sent_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (event_id, user_id, remind_date) DO NOTHING
	`
	if _, err := l.db.ExecContext(ctx, query, eventID, userID, date); err != nil {
		return store.NewStoreError("reminder ledger", "mark", "failed to record dispatch", err)
	}
	return nil
}
