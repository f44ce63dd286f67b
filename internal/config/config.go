package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration, loaded from the environment.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Auth    AuthConfig
	Storage StorageConfig
	Ads     AdsConfig
	GeoIP   GeoIPConfig
}

type ServerConfig struct {
	Port                 int    `envconfig:"PORT" default:"8080"`
	BaseURL              string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	AllowedOrigins       string `envconfig:"ALLOWED_ORIGINS"`
	ShutdownTimeoutSecs  int    `envconfig:"SHUTDOWN_TIMEOUT_SECONDS" default:"10"`
	CleanupIntervalSecs  int    `envconfig:"CLEANUP_INTERVAL_SECONDS" default:"600"`
	SessionSweepInterval int    `envconfig:"PLAYER_SESSION_SWEEP_SECONDS" default:"300"`
}

type DBConfig struct {
	URL string `envconfig:"DATABASE_URL" required:"true"`
}

type AuthConfig struct {
	JWTSecret  string `envconfig:"JWT_SECRET" required:"true"`
	HMACSecret string `envconfig:"HMAC_SECRET"`
}

type StorageConfig struct {
	Endpoint       string `envconfig:"S3_ENDPOINT" default:"http://localhost:9000"`
	PublicEndpoint string `envconfig:"S3_PUBLIC_ENDPOINT"`
	Bucket         string `envconfig:"S3_BUCKET" default:"vidhaven"`
	AccessKey      string `envconfig:"S3_ACCESS_KEY"`
	SecretKey      string `envconfig:"S3_SECRET_KEY"`
	Region         string `envconfig:"S3_REGION" default:"eu-central-1"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"2147483648"`
}

type AdsConfig struct {
	BaseDelaySeconds  int `envconfig:"AD_BASE_DELAY_SECONDS" default:"2"`
	DelayIncrementSec int `envconfig:"AD_DELAY_INCREMENT_SECONDS" default:"3"`
	OverlayPeriodSec  int `envconfig:"AD_OVERLAY_PERIOD_SECONDS" default:"10"`
	OverlayVisibleSec int `envconfig:"AD_OVERLAY_VISIBLE_SECONDS" default:"5"`
}

type GeoIPConfig struct {
	DatabasePath string `envconfig:"GEOIP_DB_PATH"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Auth.HMACSecret == "" {
		cfg.Auth.HMACSecret = cfg.Auth.JWTSecret
	}
	return &cfg, nil
}
