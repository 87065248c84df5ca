package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventd/internal/domain"
	"eventd/internal/platform/logger"
	"eventd/internal/store"
)

// RetentionJob purges activity-log entries older than the configured
// retention window. It runs monthly and is safe to re-run: a purge that
// matches nothing succeeds with zero removals.
type RetentionJob struct {
	activity store.ActivityLogStore
	days     int
	logger   *slog.Logger

	now func() time.Time
}

// NewRetentionJob creates the monthly retention job. days is the retention
// window in days; entries strictly older than now minus the window are
// removed.
func NewRetentionJob(activity store.ActivityLogStore, days int, log *slog.Logger) (*RetentionJob, error) {
	if activity == nil {
		return nil, domain.NewValidationError("activity", "cannot be nil", domain.ErrValidation)
	}
	if days <= 0 {
		return nil, domain.NewValidationError("days", "must be positive", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}

	return &RetentionJob{
		activity: activity,
		days:     days,
		logger:   log.With(slog.String("job", "activity_retention")),
		now:      time.Now,
	}, nil
}

// Run deletes activity entries older than the retention window.
func (j *RetentionJob) Run(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, j.logger)

	cutoff := j.now().UTC().AddDate(0, 0, -j.days)
	removed, err := j.activity.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purging activity log: %w", err)
	}

	log.Info("activity log purged",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", j.days),
		slog.Int64("removed", removed))
	return nil
}
