package service

import (
	"context"
	"errors"
	"log/slog"

	"eventd/internal/domain"
	"eventd/internal/notify"
	"eventd/internal/platform/logger"
	"eventd/internal/store"
)

// EventService owns the event participation lifecycle: who is confirmed for
// an event, the append-only cancellation history, and the terminal
// cancellation of an event itself. Every mutation's outcome depends only on
// the store; the notifications it triggers are best-effort and asynchronous.
type EventService interface {
	// ConfirmParticipation idempotently adds the user to the event's
	// participant set. Returns store.ErrEventNotFound if the event is absent
	// and domain.ErrEventCancelled if it has been cancelled.
	ConfirmParticipation(ctx context.Context, eventID, userID string) error

	// CancelParticipation removes the user from the participant set (no-op
	// if absent) and unconditionally appends a cancellation record, even on
	// a cancelled event, since the record documents the user's intent.
	// Returns store.ErrEventNotFound if the event is absent.
	CancelParticipation(ctx context.Context, eventID, userID, reason string) error

	// CancelEvent transitions the event to its terminal cancelled status and
	// fans out one cancellation notice per current participant (plus each
	// known guardian address). Returns store.ErrEventNotFound if the event
	// is absent and domain.ErrEventCancelled on a repeat call: re-cancelling
	// is rejected so the reason and the notices are never duplicated.
	CancelEvent(ctx context.Context, eventID, reason string) error

	// DeleteEvent removes the event entirely. No notifications are sent.
	// Returns store.ErrEventNotFound if the event is absent.
	DeleteEvent(ctx context.Context, eventID string) error
}

// eventServiceImpl implements the EventService interface.
type eventServiceImpl struct {
	events     store.EventStore
	users      store.UserDirectory
	activity   store.ActivityLogStore
	dispatcher notify.Submitter
	adminEmail string
	logger     *slog.Logger
}

// NewEventService creates a new EventService.
// It returns an error if any of the required dependencies are nil.
func NewEventService(
	events store.EventStore,
	users store.UserDirectory,
	activity store.ActivityLogStore,
	dispatcher notify.Submitter,
	adminEmail string,
	log *slog.Logger,
) (EventService, error) {
	if events == nil {
		return nil, domain.NewValidationError("events", "cannot be nil", domain.ErrValidation)
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if activity == nil {
		return nil, domain.NewValidationError("activity", "cannot be nil", domain.ErrValidation)
	}
	if dispatcher == nil {
		return nil, domain.NewValidationError("dispatcher", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}

	return &eventServiceImpl{
		events:     events,
		users:      users,
		activity:   activity,
		dispatcher: dispatcher,
		adminEmail: adminEmail,
		logger:     log.With(slog.String("component", "event_service")),
	}, nil
}

// ConfirmParticipation implements EventService.ConfirmParticipation.
func (s *eventServiceImpl) ConfirmParticipation(ctx context.Context, eventID, userID string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewEventServiceError("confirm_participation", "failed to load event", err)
	}
	if event.IsCancelled() {
		return domain.ErrEventCancelled
	}

	if err := s.events.AddParticipant(ctx, eventID, userID); err != nil {
		return NewEventServiceError("confirm_participation", "failed to add participant", err)
	}

	log.Info("participation confirmed",
		slog.String("event_id", eventID),
		slog.String("user_id", userID))

	s.notifyAdmin(ctx, event, userID, true, "")
	return nil
}

// CancelParticipation implements EventService.CancelParticipation.
func (s *eventServiceImpl) CancelParticipation(ctx context.Context, eventID, userID, reason string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewEventServiceError("cancel_participation", "failed to load event", err)
	}

	rec, err := domain.NewCancellationRecord(userID, reason)
	if err != nil {
		return NewEventServiceError("cancel_participation", "invalid cancellation record", err)
	}
	if err := s.events.WithdrawParticipant(ctx, eventID, rec); err != nil {
		return NewEventServiceError("cancel_participation", "failed to withdraw participant", err)
	}

	log.Info("participation cancelled",
		slog.String("event_id", eventID),
		slog.String("user_id", userID),
		slog.Bool("reason_given", reason != ""))

	s.notifyAdmin(ctx, event, userID, false, reason)
	return nil
}

// CancelEvent implements EventService.CancelEvent.
func (s *eventServiceImpl) CancelEvent(ctx context.Context, eventID, reason string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewEventServiceError("cancel_event", "failed to load event", err)
	}
	if event.IsCancelled() {
		return domain.ErrEventCancelled
	}

	// The store transition is compare-and-set; a concurrent cancellation
	// that won the race surfaces here even though the read above saw the
	// event as active, and the loser must not fan out a second time.
	if err := s.events.SetCancelled(ctx, eventID, reason); err != nil {
		if errors.Is(err, domain.ErrEventCancelled) {
			return err
		}
		return NewEventServiceError("cancel_event", "failed to cancel event", err)
	}

	log.Info("event cancelled",
		slog.String("event_id", eventID),
		slog.Int("participant_count", len(event.Participants)))

	s.recordActivity(ctx, "cancelled", "event", eventID, map[string]string{
		"reason": reason,
		"title":  event.Title.Get("en"),
	})

	// Fan out one notice per current participant, plus the guardian address
	// where known. Per-recipient failures are logged and never abort the
	// remaining recipients.
	for _, userID := range event.Participants {
		contact, err := s.users.GetContact(ctx, userID)
		if err != nil {
			log.Warn("skipping cancellation notice, contact lookup failed",
				slog.String("event_id", eventID),
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
			continue
		}
		if contact.Email == "" {
			log.Warn("skipping cancellation notice, participant has no email",
				slog.String("event_id", eventID),
				slog.String("user_id", userID))
			continue
		}

		s.submit(log, notify.CancellationMessage(contact.Email, contact.DisplayName, event, reason))
		if contact.ParentEmail != "" {
			s.submit(log, notify.CancellationMessage(contact.ParentEmail, contact.DisplayName, event, reason))
		}
	}

	return nil
}

// DeleteEvent implements EventService.DeleteEvent.
func (s *eventServiceImpl) DeleteEvent(ctx context.Context, eventID string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewEventServiceError("delete_event", "failed to load event", err)
	}

	if err := s.events.Delete(ctx, eventID); err != nil {
		return NewEventServiceError("delete_event", "failed to delete event", err)
	}

	log.Info("event deleted", slog.String("event_id", eventID))

	s.recordActivity(ctx, "deleted", "event", eventID, map[string]string{
		"title": event.Title.Get("en"),
		"date":  event.Date,
	})
	return nil
}

// notifyAdmin submits the admin participation notice. Best-effort: lookup or
// queue failures are logged as warnings and swallowed, never surfaced to the
// caller whose state mutation already succeeded.
func (s *eventServiceImpl) notifyAdmin(ctx context.Context, event *domain.Event, userID string, confirmed bool, reason string) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.adminEmail == "" {
		return
	}

	contact, err := s.users.GetContact(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Warn("admin notification skipped, contact lookup failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
			return
		}
		// Unknown member: notify with the bare id rather than staying silent.
		contact = &domain.Contact{UserID: userID, DisplayName: userID}
	}

	s.submit(log, notify.AdminParticipationMessage(s.adminEmail, contact, event, confirmed, reason))
}

// submit hands a message to the dispatcher, logging (only) a failure.
func (s *eventServiceImpl) submit(log *slog.Logger, msg notify.Message) {
	if err := s.dispatcher.Submit(msg); err != nil {
		log.Warn("failed to enqueue notification",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
			slog.String("error", err.Error()))
	}
}

// recordActivity appends to the admin activity trail. A storage failure here
// is logged and swallowed: the primary mutation has already committed.
func (s *eventServiceImpl) recordActivity(ctx context.Context, action, targetType, targetID string, details map[string]string) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	actor := ActorFromContext(ctx)
	entry, err := domain.NewActivityEntry(actor.ID, actor.Name, action, targetType, targetID, details)
	if err != nil {
		log.Warn("failed to build activity entry", slog.String("error", err.Error()))
		return
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		log.Warn("failed to record activity entry",
			slog.String("action", action),
			slog.String("target_id", targetID),
			slog.String("error", err.Error()))
	}
}
