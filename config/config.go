package config

import (
	"github.com/customeros/dmarcstore/internal/logger"
	"github.com/customeros/dmarcstore/internal/tracing"
)

type AppConfig struct {
	Logger  *logger.Config
	Tracing *tracing.JaegerConfig
}

// IngestConfig governs domain auto-provisioning during report ingestion.
type IngestConfig struct {
	// AllowedDomains is a regular expression matched against the fqdn of an
	// unknown domain. Empty means no auto-provisioning beyond the empty
	// store bootstrap.
	AllowedDomains string `env:"INGEST_ALLOWED_DOMAINS"`
}

// RetentionConfig governs the maintenance cron jobs. A zero days value
// disables the matching job.
type RetentionConfig struct {
	LogDays    int `env:"RETENTION_LOG_DAYS" envDefault:"30"`
	ReportDays int `env:"RETENTION_REPORT_DAYS" envDefault:"0"`
	Batch      int `env:"RETENTION_BATCH" envDefault:"1000"`
}
