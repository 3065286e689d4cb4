// Package config builds the single immutable configuration value for a
// lifeboat run. All tunables come from the environment (optionally seeded
// from a .env file); no other component reads ambient state directly.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/bnema/lifeboat/internal/domain"
)

const envPrefix = "LIFEBOAT_"

// DatabaseConfig holds connection parameters for the transactional store.
type DatabaseConfig struct {
	Name     string
	User     string
	Password string
	Host     string
	Port     int
}

// S3Config holds the offsite replication target. Replication is enabled iff
// Bucket is set.
type S3Config struct {
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Config is constructed once at process start and passed to every component.
type Config struct {
	BackupDir string
	Retention domain.RetentionPolicy
	DB        DatabaseConfig
	MediaDir  string
	S3        S3Config

	// Passphrase enables artifact encryption when non-empty.
	Passphrase string

	// AlertWebhookURL enables the failure alert sink when non-empty.
	AlertWebhookURL string
}

// EncryptionEnabled reports whether artifacts are encrypted at rest.
func (c *Config) EncryptionEnabled() bool { return c.Passphrase != "" }

// ReplicationEnabled reports whether artifacts are synced offsite.
func (c *Config) ReplicationEnabled() bool { return c.S3.Bucket != "" }

// AlertingEnabled reports whether fatal failures are posted to a webhook.
func (c *Config) AlertingEnabled() bool { return c.AlertWebhookURL != "" }

// FromEnv loads an optional .env file and builds a validated Config.
func FromEnv() (*Config, error) {
	// Missing .env is the normal case; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	retentionDays, err := intEnv("RETENTION_DAYS", 30)
	if err != nil {
		return nil, err
	}
	dbPort, err := intEnv("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BackupDir: stringEnv("BACKUP_DIR", "/backups"),
		Retention: domain.RetentionPolicy{
			MaxAgeDays: retentionDays,
			AllowPurge: boolEnv("RETENTION_ALLOW_PURGE"),
		},
		DB: DatabaseConfig{
			Name:     stringEnv("DB_NAME", ""),
			User:     stringEnv("DB_USER", "postgres"),
			Password: stringEnv("DB_PASSWORD", ""),
			Host:     stringEnv("DB_HOST", "localhost"),
			Port:     dbPort,
		},
		MediaDir: stringEnv("MEDIA_DIR", ""),
		S3: S3Config{
			Bucket:    stringEnv("S3_BUCKET", ""),
			Endpoint:  stringEnv("S3_ENDPOINT", "s3.amazonaws.com"),
			AccessKey: stringEnv("S3_ACCESS_KEY", ""),
			SecretKey: stringEnv("S3_SECRET_KEY", ""),
			UseSSL:    stringEnv("S3_USE_SSL", "true") != "false",
		},
		Passphrase:      stringEnv("PASSPHRASE", ""),
		AlertWebhookURL: stringEnv("ALERT_WEBHOOK_URL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the invariants a run depends on.
func (c *Config) Validate() error {
	if c.BackupDir == "" {
		return fmt.Errorf("backup directory must not be empty")
	}
	if err := c.Retention.Validate(); err != nil {
		return fmt.Errorf("invalid retention policy: %w", err)
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		return fmt.Errorf("invalid database port %d", c.DB.Port)
	}
	if c.ReplicationEnabled() && (c.S3.AccessKey == "" || c.S3.SecretKey == "") {
		return fmt.Errorf("replication bucket %q configured without credentials", c.S3.Bucket)
	}
	return nil
}

func stringEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s must be an integer, got %q", envPrefix, key, v)
	}
	return n, nil
}

func boolEnv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(envPrefix + key))
	return err == nil && v
}
