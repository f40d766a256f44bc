package database

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"location-service/internal/domain"
)

var (
	db    *gorm.DB
	dbMux sync.RWMutex
)

// InitPostgres opens the PostgreSQL connection and runs migrations. A failed
// connection returns an error without taking the process down so the pod can
// keep serving health checks while retrying in the background.
func InitPostgres(dsn, env string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database URL is not configured")
	}

	logLevel := logger.Silent
	if env == "dev" {
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	var conn *gorm.DB

	done := make(chan bool, 1)
	go func() {
		conn, err = gorm.Open(postgres.Open(dsn), gormConfig)
		done <- true
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("database connection timeout")
	case <-done:
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := AutoMigrate(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dbMux.Lock()
	db = conn
	dbMux.Unlock()

	return conn, nil
}

// InitPostgresAsync retries the connection in the background without blocking
// startup.
func InitPostgresAsync(dsn, env string, retryInterval time.Duration) {
	go func() {
		for {
			if Get() != nil {
				return
			}

			if _, err := InitPostgres(dsn, env); err != nil {
				log.Printf("DB connection failed, retrying in %v: %v", retryInterval, err)
				time.Sleep(retryInterval)
				continue
			}
			return
		}
	}()
}

// Get returns the shared connection, or nil when not yet connected.
func Get() *gorm.DB {
	dbMux.RLock()
	defer dbMux.RUnlock()
	return db
}

// AutoMigrate creates or updates the location tables.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&domain.CurrentLocation{},
		&domain.LocationHistory{},
		&domain.LocationShare{},
		&domain.GeofenceArea{},
		&domain.GeofenceEvent{},
	)
}
