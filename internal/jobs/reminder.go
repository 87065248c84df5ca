// Package jobs contains the scheduled maintenance jobs: the daily event
// reminder and the monthly activity-log purge. Each job exposes a Run method
// shaped to plug into the scheduler as a JobFunc.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventd/internal/domain"
	"eventd/internal/notify"
	"eventd/internal/platform/logger"
	"eventd/internal/store"
)

// ReminderJob sends each participant (and their guardian address, when known)
// a reminder the day before an event takes place. "The day before" is a civil
// date in the association's time zone, not a 24h offset, so a reminder fired
// late in the evening still targets tomorrow's events.
type ReminderJob struct {
	events     store.EventStore
	users      store.UserDirectory
	ledger     store.ReminderLedger
	dispatcher notify.Submitter
	zone       *time.Location
	logger     *slog.Logger

	now func() time.Time
}

// NewReminderJob creates the daily reminder job.
func NewReminderJob(
	events store.EventStore,
	users store.UserDirectory,
	ledger store.ReminderLedger,
	dispatcher notify.Submitter,
	zone *time.Location,
	log *slog.Logger,
) (*ReminderJob, error) {
	if events == nil {
		return nil, domain.NewValidationError("events", "cannot be nil", domain.ErrValidation)
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if ledger == nil {
		return nil, domain.NewValidationError("ledger", "cannot be nil", domain.ErrValidation)
	}
	if dispatcher == nil {
		return nil, domain.NewValidationError("dispatcher", "cannot be nil", domain.ErrValidation)
	}
	if zone == nil {
		zone = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}

	return &ReminderJob{
		events:     events,
		users:      users,
		ledger:     ledger,
		dispatcher: dispatcher,
		zone:       zone,
		logger:     log.With(slog.String("job", "event_reminder")),
		now:        time.Now,
	}, nil
}

// Run sends reminders for all active events taking place tomorrow. Failures
// for a single participant are logged and never abort the remaining
// participants or events; Run returns an error only when the event lookup
// itself fails.
func (j *ReminderJob) Run(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, j.logger)

	tomorrow := domain.DateOf(j.now().In(j.zone).AddDate(0, 0, 1))
	events, err := j.events.GetByDate(ctx, tomorrow, domain.EventStatusActive)
	if err != nil {
		return fmt.Errorf("loading events for %s: %w", tomorrow, err)
	}
	if len(events) == 0 {
		log.Info("no events tomorrow, nothing to remind", slog.String("date", tomorrow))
		return nil
	}

	var sent, failed, skipped int
	for _, event := range events {
		for _, userID := range event.Participants {
			ok, err := j.remind(ctx, log, event, userID, tomorrow)
			if err != nil {
				log.Warn("reminder failed",
					slog.String("event_id", event.ID),
					slog.String("user_id", userID),
					slog.String("error", err.Error()))
				failed++
				continue
			}
			if ok {
				sent++
			} else {
				skipped++
			}
		}
	}

	log.Info("reminder run finished",
		slog.String("date", tomorrow),
		slog.Int("events", len(events)),
		slog.Int("sent", sent),
		slog.Int("failed", failed),
		slog.Int("skipped", skipped))
	return nil
}

// remind handles one participant. It reports whether a reminder was actually
// enqueued; already-sent and address-less participants are skips (false,
// nil), while lookup and enqueue failures are errors.
func (j *ReminderJob) remind(ctx context.Context, log *slog.Logger, event *domain.Event, userID, date string) (bool, error) {
	done, err := j.ledger.AlreadySent(ctx, event.ID, userID, date)
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	if done {
		return false, nil
	}

	contact, err := j.users.GetContact(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("contact lookup: %w", err)
	}
	if contact.Email == "" {
		log.Warn("participant has no email, reminder skipped",
			slog.String("event_id", event.ID),
			slog.String("user_id", userID))
		return false, nil
	}

	if err := j.dispatcher.Submit(notify.ReminderMessage(contact.Email, contact, event)); err != nil {
		return false, fmt.Errorf("enqueue: %w", err)
	}
	if contact.ParentEmail != "" {
		// Guardian copy is best-effort; the member copy already went out.
		if err := j.dispatcher.Submit(notify.ReminderMessage(contact.ParentEmail, contact, event)); err != nil {
			log.Warn("guardian reminder copy dropped",
				slog.String("event_id", event.ID),
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
	}

	if err := j.ledger.MarkSent(ctx, event.ID, userID, date); err != nil {
		// The message is already enqueued; a ledger write failure only risks
		// a duplicate on the next run, which beats a missed reminder.
		log.Warn("failed to record reminder in ledger",
			slog.String("event_id", event.ID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
	return true, nil
}
