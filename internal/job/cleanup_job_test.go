package job

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"location-service/internal/config"
	"location-service/internal/domain"
	"location-service/internal/repository"
)

func setupJobTest(t *testing.T) (*gorm.DB, repository.LocationRepository, repository.ShareRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.CurrentLocation{},
		&domain.LocationHistory{},
		&domain.LocationShare{},
	))

	return db, repository.NewLocationRepository(db), repository.NewShareRepository(db)
}

func TestCleanupJob_Run(t *testing.T) {
	db, locationRepo, shareRepo := setupJobTest(t)
	ctx := context.Background()

	userID := uuid.New()
	old := time.Now().UTC().AddDate(0, 0, -40)
	recent := time.Now().UTC().Add(-time.Hour)

	// Seven aged rows and one recent row; batch size 3 forces multiple sweeps
	for i := 0; i < 7; i++ {
		loc := &domain.CurrentLocation{
			UserID:     userID,
			Latitude:   1,
			Longitude:  1,
			RecordedAt: old.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, locationRepo.SaveCurrent(ctx, loc))
	}
	require.NoError(t, locationRepo.SaveCurrent(ctx, &domain.CurrentLocation{
		UserID: userID, Latitude: 2, Longitude: 2, RecordedAt: recent,
	}))

	// One expired grant and one open-ended grant
	target := uuid.New()
	_, err := shareRepo.Upsert(ctx, &domain.LocationShare{
		UserID:       userID,
		SharedWithID: &target,
		ExpiresAt:    func() *time.Time { t := time.Now().UTC().Add(-time.Hour); return &t }(),
	})
	require.NoError(t, err)
	_, err = shareRepo.Upsert(ctx, &domain.LocationShare{UserID: userID})
	require.NoError(t, err)

	cfg := config.LocationConfig{
		HistoryRetentionDays: 30,
		CleanupBatchSize:     3,
	}
	job := NewCleanupJob(locationRepo, shareRepo, cfg, zap.NewNop())
	job.Run()

	var historyCount int64
	db.Model(&domain.LocationHistory{}).Count(&historyCount)
	assert.Equal(t, int64(1), historyCount, "only the recent history row should survive")

	var shareCount int64
	db.Model(&domain.LocationShare{}).Count(&shareCount)
	assert.Equal(t, int64(1), shareCount, "only the open-ended grant should survive")

	// Current location is exempt from retention
	current, err := locationRepo.GetCurrent(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, current.Latitude)
}

func TestCleanupJob_Run_RetentionDisabled(t *testing.T) {
	db, locationRepo, shareRepo := setupJobTest(t)
	ctx := context.Background()

	userID := uuid.New()
	old := time.Now().UTC().AddDate(0, 0, -100)
	require.NoError(t, locationRepo.SaveCurrent(ctx, &domain.CurrentLocation{
		UserID: userID, Latitude: 1, Longitude: 1, RecordedAt: old,
	}))

	cfg := config.LocationConfig{
		HistoryRetentionDays: 0, // retention off
		CleanupBatchSize:     10,
	}
	job := NewCleanupJob(locationRepo, shareRepo, cfg, zap.NewNop())
	job.Run()

	var historyCount int64
	db.Model(&domain.LocationHistory{}).Count(&historyCount)
	assert.Equal(t, int64(1), historyCount, "history must not be pruned when retention is disabled")
}
