package cron

import (
	"os"
	"testing"

	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"

	"github.com/customeros/dmarcstore/config"
	cron_config "github.com/customeros/dmarcstore/internal/cron/config"
	"github.com/customeros/dmarcstore/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func getConfig() *config.Config {
	return &config.Config{
		AppConfig: &config.AppConfig{
			Logger: &logger.Config{
				LogLevel: "info",
			},
		},
		Retention: &config.RetentionConfig{
			LogDays:    30,
			ReportDays: 0,
			Batch:      1000,
		},
	}
}

func TestNewCronManager(t *testing.T) {
	// Arrange
	cfg := getConfig()
	log := getLogger()

	// Act
	cm := NewCronManager(cfg, log, nil, nil)

	// Assert
	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_StartCron(t *testing.T) {
	// Set environment variable for testing
	os.Setenv("CRON_SCHEDULE_LOG_RETENTION", "0 10 0 * * *")
	os.Setenv("CRON_SCHEDULE_REPORT_RETENTION", "0 20 0 * * *")
	defer os.Unsetenv("CRON_SCHEDULE_LOG_RETENTION")
	defer os.Unsetenv("CRON_SCHEDULE_REPORT_RETENTION")

	// Arrange
	cfg := getConfig()
	log := getLogger()
	cm := NewCronManager(cfg, log, nil, nil)

	// Create a mock cron for testing
	mockCron := cronv3.New(cronv3.WithSeconds())

	// Register jobs directly
	var cronConfig cron_config.Config
	cronConfig.CronScheduleLogRetention = "0 10 0 * * *"
	cronConfig.CronScheduleReportRetention = "0 20 0 * * *"

	// Act - register jobs manually
	logId, err := mockCron.AddFunc(cronConfig.CronScheduleLogRetention, func() {})
	assert.NoError(t, err)
	cm.jobIDs["log_retention"] = logId

	reportId, err := mockCron.AddFunc(cronConfig.CronScheduleReportRetention, func() {})
	assert.NoError(t, err)
	cm.jobIDs["report_retention"] = reportId

	cm.cron = mockCron

	// Assert
	assert.NotNil(t, cm.cron)
	assert.Equal(t, 2, len(cm.jobIDs))
}

func TestCronManager_Stop(t *testing.T) {
	// Arrange
	cfg := getConfig()
	log := getLogger()
	cm := NewCronManager(cfg, log, nil, nil)

	// Create a mock cron for testing
	mockCron := cronv3.New()
	mockCron.Start()
	cm.cron = mockCron

	// Act
	cm.Stop()

	// Assert
	select {
	case <-cm.stopCh:
		// Channel is closed as expected
	default:
		t.Error("Stop channel was not closed")
	}
}
