package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eventd/internal/domain"
	"eventd/internal/platform/logger"
	"eventd/internal/store"
)

// PostgresActivityLogStore implements the store.ActivityLogStore interface
// using PostgreSQL.
type PostgresActivityLogStore struct {
	db store.DBTX
}

// NewPostgresActivityLogStore creates a new PostgresActivityLogStore.
func NewPostgresActivityLogStore(db store.DBTX) *PostgresActivityLogStore {
	return &PostgresActivityLogStore{
		db: db,
	}
}

// Append saves an activity entry.
func (s *PostgresActivityLogStore) Append(ctx context.Context, entry *domain.ActivityEntry) error {
	log := logger.FromContext(ctx)

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to encode activity details: %w", err)
	}

	query := `
		INSERT INTO activity_logs (id, actor_id, actor_name, action, target_type,
			target_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.ActorName,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		details,
		entry.Timestamp,
	)
	if err != nil {
		log.Error("failed to append activity entry",
			"action", entry.Action,
			"target_id", entry.TargetID,
			"error", err)
		return store.NewStoreError("activity log", "append", "failed to insert entry", err)
	}
	return nil
}

// DeleteOlderThan removes all entries with a timestamp strictly before the
// cutoff and returns the number removed.
func (s *PostgresActivityLogStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM activity_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, store.NewStoreError("activity log", "purge", "failed to delete entries", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, store.NewStoreError("activity log", "purge", "failed to get rows affected", err)
	}
	return removed, nil
}
