package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultRejectedRetention = 90 * 24 * time.Hour
	defaultBatchSize         = 200
	maxBatchesPerRun         = 50
)

type rejectedMemberRepo interface {
	DeleteRejectedBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

type RejectedMemberCleanupJobParams struct {
	Logger     *logger.Logger
	Repository rejectedMemberRepo
	Retention  time.Duration
	BatchSize  int
}

// NewRejectedMemberCleanupJob hard-deletes members whose rejection is older than the retention.
func NewRejectedMemberCleanupJob(params RejectedMemberCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("members repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultRejectedRetention
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &rejectedMemberCleanupJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		batch:     batch,
		now:       time.Now,
	}, nil
}

type rejectedMemberCleanupJob struct {
	logg      *logger.Logger
	repo      rejectedMemberRepo
	retention time.Duration
	batch     int
	now       func() time.Time
}

func (j *rejectedMemberCleanupJob) Name() string { return "rejected-member-cleanup" }

func (j *rejectedMemberCleanupJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	for i := 0; i < maxBatchesPerRun; i++ {
		ids, err := j.repo.DeleteRejectedBefore(ctx, cutoff, j.batch)
		if err != nil {
			return deleted, fmt.Errorf("delete rejected members: %w", err)
		}
		deleted += int64(len(ids))
		for _, id := range ids {
			j.logg.Info(j.logg.WithField(ctx, "member_id", id.String()), "rejected member removed")
		}
		if len(ids) < j.batch {
			break
		}
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "rejected member cleanup complete")
	return deleted, nil
}
