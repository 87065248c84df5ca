package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event-specific validation errors
var (
	// ErrEventIDEmpty is returned when an event ID is empty.
	ErrEventIDEmpty = errors.New("event ID cannot be empty")

	// ErrEventDateInvalid is returned when an event date is not a valid
	// ISO calendar date (2006-01-02).
	ErrEventDateInvalid = errors.New("event date must be a valid ISO date")

	// ErrEventTitleEmpty is returned when an event has no title in any locale.
	ErrEventTitleEmpty = errors.New("event title cannot be empty")

	// ErrUserIDEmpty is returned when a participant user ID is empty.
	ErrUserIDEmpty = errors.New("user ID cannot be empty")
)

// EventStatus represents the lifecycle state of an event.
type EventStatus string

// Possible event status values. The transition active -> cancelled is
// terminal; there is no un-cancel.
const (
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
)

// DateLayout is the ISO calendar date format used for event dates.
// Event dates are civil dates: they carry no time zone and are interpreted
// in the association's configured zone.
const DateLayout = "2006-01-02"

// DateOf formats the given instant as a civil date in its own location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// LocalizedText maps a locale code ("en", "sr", "sv") to translated text.
type LocalizedText map[string]string

// Get returns the text for the given locale, falling back to English and
// then to any available translation.
func (lt LocalizedText) Get(locale string) string {
	if s, ok := lt[locale]; ok && s != "" {
		return s
	}
	if s, ok := lt["en"]; ok && s != "" {
		return s
	}
	for _, s := range lt {
		if s != "" {
			return s
		}
	}
	return ""
}

// CancellationRecord is an immutable historical entry documenting a user's
// withdrawal from an event. Records are append-only: a user who confirms and
// cancels repeatedly appears once per cancellation.
type CancellationRecord struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// NewCancellationRecord creates a cancellation record for the given user with
// the current UTC timestamp. The reason may be empty.
func NewCancellationRecord(userID, reason string) (CancellationRecord, error) {
	if userID == "" {
		return CancellationRecord{}, ErrUserIDEmpty
	}
	return CancellationRecord{
		ID:          uuid.New(),
		UserID:      userID,
		Reason:      reason,
		CancelledAt: time.Now().UTC(),
	}, nil
}

// Event represents a scheduled association activity (training, celebration)
// with a civil date, a local time, and a set of confirmed participants.
type Event struct {
	ID                 string               `json:"id"`
	Date               string               `json:"date"` // civil date, DateLayout
	Time               string               `json:"time"` // local wall-clock, free-form ("18:30")
	Location           string               `json:"location"`
	Title              LocalizedText        `json:"title"`
	Description        LocalizedText        `json:"description,omitempty"`
	Status             EventStatus          `json:"status"`
	CancellationReason string               `json:"cancellation_reason,omitempty"`
	Participants       []string             `json:"participants"`
	Cancellations      []CancellationRecord `json:"cancellations,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

// NewEvent creates an active Event with no participants.
// Returns an error if validation fails.
func NewEvent(id, date, timeOfDay, location string, title LocalizedText) (*Event, error) {
	e := &Event{
		ID:        id,
		Date:      date,
		Time:      timeOfDay,
		Location:  location,
		Title:     title,
		Status:    EventStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks if the Event has valid data.
func (e *Event) Validate() error {
	if e.ID == "" {
		return ErrEventIDEmpty
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return ErrEventDateInvalid
	}
	if e.Title.Get("en") == "" {
		return ErrEventTitleEmpty
	}
	return nil
}

// IsCancelled reports whether the event has been cancelled.
func (e *Event) IsCancelled() bool {
	return e.Status == EventStatusCancelled
}

// HasParticipant reports whether the given user is currently confirmed.
func (e *Event) HasParticipant(userID string) bool {
	for _, id := range e.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// AddParticipant adds the user to the participant set. Adding an already
// present user is a no-op; the set never holds duplicates.
func (e *Event) AddParticipant(userID string) error {
	if userID == "" {
		return ErrUserIDEmpty
	}
	if e.IsCancelled() {
		return ErrEventCancelled
	}
	if e.HasParticipant(userID) {
		return nil
	}
	e.Participants = append(e.Participants, userID)
	return nil
}

// RemoveParticipant removes the user from the participant set. Removing an
// absent user is a no-op.
func (e *Event) RemoveParticipant(userID string) {
	for i, id := range e.Participants {
		if id == userID {
			e.Participants = append(e.Participants[:i], e.Participants[i+1:]...)
			return
		}
	}
}

// AppendCancellation records a user's withdrawal. The record is appended
// unconditionally, even when the event itself is already cancelled or the
// user was never confirmed: it documents intent, not membership.
func (e *Event) AppendCancellation(rec CancellationRecord) {
	e.Cancellations = append(e.Cancellations, rec)
}

// MarkCancelled transitions the event to the terminal cancelled status and
// stores the reason. Returns ErrEventCancelled if already cancelled:
// re-cancelling is rejected so the reason and the participant notifications
// are never duplicated.
func (e *Event) MarkCancelled(reason string) error {
	if e.IsCancelled() {
		return ErrEventCancelled
	}
	e.Status = EventStatusCancelled
	e.CancellationReason = reason
	return nil
}
