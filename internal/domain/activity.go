package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Activity-specific validation errors
var (
	// ErrActivityActionEmpty is returned when an activity entry has no action.
	ErrActivityActionEmpty = errors.New("activity action cannot be empty")
)

// ActivityEntry records an admin mutation for the audit trail. Entries are
// retained for a configurable window and purged by the monthly retention job.
type ActivityEntry struct {
	ID         uuid.UUID         `json:"id"`
	ActorID    string            `json:"actor_id"`
	ActorName  string            `json:"actor_name"`
	Action     string            `json:"action"`
	TargetType string            `json:"target_type"`
	TargetID   string            `json:"target_id,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewActivityEntry creates an activity entry stamped with the current UTC time.
func NewActivityEntry(actorID, actorName, action, targetType, targetID string, details map[string]string) (*ActivityEntry, error) {
	if action == "" {
		return nil, ErrActivityActionEmpty
	}
	return &ActivityEntry{
		ID:         uuid.New(),
		ActorID:    actorID,
		ActorName:  actorName,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}, nil
}
