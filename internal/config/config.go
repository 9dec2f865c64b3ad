// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "time"

const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
//
// Use struct tags to define:
// - `env:"VAR_NAME"` - the environment variable name
// - `envDefault:"value"` - set a default value
//
// Domain settings (ranks, keywords, thresholds) live in the reconciliation YAML file
// referenced by CONFIG_PATH, not here.
type Config struct {
	// ============================================================
	// Server configuration
	// ============================================================
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8000"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"RosterReconciliation"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// ============================================================
	// Storage configuration
	// ============================================================
	Store      string `env:"STORE" envDefault:"sqlite"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/roster.db"`

	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisNamespace    string `env:"REDIS_NAMESPACE"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`

	// ============================================================
	// Reconciliation configuration
	// ============================================================
	// ConfigPath points at the reconciliation YAML. An empty path or a missing file
	// selects the built-in defaults.
	ConfigPath string `env:"CONFIG_PATH" envDefault:"config/reconciliation.yaml"`

	// ============================================================
	// Recognition tool configuration
	// ============================================================
	OCRBinary   string        `env:"OCR_BINARY" envDefault:"tesseract"`
	OCRLanguage string        `env:"OCR_LANGUAGE" envDefault:"deu"`
	OCRTimeout  time.Duration `env:"OCR_TIMEOUT" envDefault:"30s"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	OtelEnabled    bool   `env:"OTEL_ENABLED" envDefault:"true"`
	ZipkinEndpoint string `env:"ZIPKIN_ENDPOINT"`
}
