package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/logger"
)

const defaultPrayerArchiveAfter = 30 * 24 * time.Hour

type prayerArchiver interface {
	ArchiveAnsweredBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

type PrayerArchiveJobParams struct {
	Logger    *logger.Logger
	Prayers   prayerArchiver
	After     time.Duration
	BatchSize int
}

// NewPrayerArchiveJob archives prayers that were answered longer ago than After.
func NewPrayerArchiveJob(params PrayerArchiveJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Prayers == nil {
		return nil, fmt.Errorf("prayer service required")
	}
	after := params.After
	if after <= 0 {
		after = defaultPrayerArchiveAfter
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &prayerArchiveJob{
		logg:    params.Logger,
		prayers: params.Prayers,
		after:   after,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type prayerArchiveJob struct {
	logg    *logger.Logger
	prayers prayerArchiver
	after   time.Duration
	batch   int
	now     func() time.Time
}

func (j *prayerArchiveJob) Name() string { return "prayer-archive" }

func (j *prayerArchiveJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.after)
	var archived int64
	for i := 0; i < maxBatchesPerRun; i++ {
		rows, err := j.prayers.ArchiveAnsweredBefore(ctx, cutoff, j.batch)
		if err != nil {
			return archived, fmt.Errorf("archive answered prayers: %w", err)
		}
		archived += rows
		if rows < int64(j.batch) {
			break
		}
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"rows_archived": archived,
	}), "prayer archive complete")
	return archived, nil
}
