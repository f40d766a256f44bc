package job

import (
	"context"
	"time"

	"go.uber.org/zap"

	"location-service/internal/config"
	"location-service/internal/repository"
)

// CleanupJob sweeps aged location history and expired share grants. It runs
// on a cron schedule and deletes in batches so a large backlog never holds a
// long transaction open.
type CleanupJob struct {
	locationRepo repository.LocationRepository
	shareRepo    repository.ShareRepository
	cfg          config.LocationConfig
	logger       *zap.Logger
}

// NewCleanupJob creates a new CleanupJob instance
func NewCleanupJob(
	locationRepo repository.LocationRepository,
	shareRepo repository.ShareRepository,
	cfg config.LocationConfig,
	logger *zap.Logger,
) *CleanupJob {
	return &CleanupJob{
		locationRepo: locationRepo,
		shareRepo:    shareRepo,
		cfg:          cfg,
		logger:       logger,
	}
}

// Run executes one sweep. Implements cron.Job.
func (j *CleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	j.logger.Info("Starting location cleanup sweep",
		zap.Int("retention_days", j.cfg.HistoryRetentionDays),
		zap.Int("batch_size", j.cfg.CleanupBatchSize),
	)

	historyDeleted := j.sweepHistory(ctx)
	sharesDeleted := j.sweepExpiredShares(ctx)

	j.logger.Info("Location cleanup sweep finished",
		zap.Int64("history_deleted", historyDeleted),
		zap.Int64("shares_deleted", sharesDeleted),
	)
}

func (j *CleanupJob) sweepHistory(ctx context.Context) int64 {
	if j.cfg.HistoryRetentionDays <= 0 {
		return 0
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -j.cfg.HistoryRetentionDays)
	var total int64
	for {
		deleted, err := j.locationRepo.DeleteHistoryBefore(ctx, cutoff, j.cfg.CleanupBatchSize)
		if err != nil {
			j.logger.Error("Failed to delete aged history batch", zap.Error(err))
			return total
		}
		total += deleted
		if deleted < int64(j.cfg.CleanupBatchSize) {
			return total
		}
	}
}

func (j *CleanupJob) sweepExpiredShares(ctx context.Context) int64 {
	now := time.Now().UTC()
	var total int64
	for {
		deleted, err := j.shareRepo.DeleteExpiredBefore(ctx, now, j.cfg.CleanupBatchSize)
		if err != nil {
			j.logger.Error("Failed to delete expired shares batch", zap.Error(err))
			return total
		}
		total += deleted
		if deleted < int64(j.cfg.CleanupBatchSize) {
			return total
		}
	}
}
