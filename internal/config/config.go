package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Services ServicesConfig `yaml:"services"`
	Location LocationConfig `yaml:"location"`
}

type ServerConfig struct {
	Port           int    `yaml:"port"`
	BasePath       string `yaml:"base_path"`
	Env            string `yaml:"env"`
	LogLevel       string `yaml:"log_level"`
	AllowedOrigins string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	ServiceURL string `yaml:"service_url"`
	SecretKey  string `yaml:"secret_key"`
}

type ServicesConfig struct {
	NotiServiceURL string `yaml:"noti_service_url"`
	NotiAPIKey     string `yaml:"noti_api_key"`
}

// LocationConfig holds the tuning knobs of the presence engine.
type LocationConfig struct {
	MaxGeofenceRadiusMeters float64 `yaml:"max_geofence_radius_meters"`
	NearbyDefaultRadius     float64 `yaml:"nearby_default_radius_meters"`
	NearbyMaxRadius         float64 `yaml:"nearby_max_radius_meters"`
	HistoryRetentionDays    int     `yaml:"history_retention_days"`
	CleanupSchedule         string  `yaml:"cleanup_schedule"`
	CleanupBatchSize        int     `yaml:"cleanup_batch_size"`
	DispatchQueueSize       int     `yaml:"dispatch_queue_size"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           8002,
			BasePath:       "/api/locations",
			Env:            "dev",
			LogLevel:       "debug",
			AllowedOrigins: "*",
		},
		Redis: RedisConfig{
			URL: "redis://localhost:6379/3",
		},
		Location: LocationConfig{
			MaxGeofenceRadiusMeters: 100000,
			NearbyDefaultRadius:     1000,
			NearbyMaxRadius:         10000,
			HistoryRetentionDays:    30,
			CleanupSchedule:         "@every 1h",
			CleanupBatchSize:        500,
			DispatchQueueSize:       1024,
		},
	}

	// Load from yaml file if exists
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override with environment variables
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if basePath := os.Getenv("SERVER_BASE_PATH"); basePath != "" {
		cfg.Server.BasePath = basePath
	}
	if env := os.Getenv("ENV"); env != "" {
		cfg.Server.Env = env
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = origins
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
	}
	if authURL := os.Getenv("AUTH_SERVICE_URL"); authURL != "" {
		cfg.Auth.ServiceURL = authURL
	}
	if secretKey := os.Getenv("SECRET_KEY"); secretKey != "" {
		cfg.Auth.SecretKey = secretKey
	}
	if notiURL := os.Getenv("NOTI_SERVICE_URL"); notiURL != "" {
		cfg.Services.NotiServiceURL = notiURL
	}
	if notiKey := os.Getenv("NOTI_API_KEY"); notiKey != "" {
		cfg.Services.NotiAPIKey = notiKey
	}
	if radius := os.Getenv("MAX_GEOFENCE_RADIUS_METERS"); radius != "" {
		if r, err := strconv.ParseFloat(radius, 64); err == nil {
			cfg.Location.MaxGeofenceRadiusMeters = r
		}
	}
	if days := os.Getenv("HISTORY_RETENTION_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			cfg.Location.HistoryRetentionDays = d
		}
	}
	if schedule := os.Getenv("CLEANUP_SCHEDULE"); schedule != "" {
		cfg.Location.CleanupSchedule = schedule
	}

	return cfg, nil
}
