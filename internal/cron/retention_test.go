package cron

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/customeros/dmarcstore/internal/database"
	"github.com/customeros/dmarcstore/internal/migration"
	"github.com/customeros/dmarcstore/internal/models"
	"github.com/customeros/dmarcstore/internal/repository"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewConnection(&database.DatabaseConfig{
		Driver:      database.DriverSQLite,
		Path:        ":memory:",
		MaxConn:     1,
		MaxIdleConn: 1,
		LogLevel:    "SILENT",
	})
	require.NoError(t, err)
	require.NoError(t, migration.NewMigrator(db, getLogger()).Upgrade(context.Background(), migration.LatestVersion))
	return db
}

func TestCronManager_TrimReportLog(t *testing.T) {
	db := openTestDB(t)
	repos, err := repository.InitRepositories(db, "", getLogger())
	require.NoError(t, err)

	cfg := getConfig()
	cfg.Retention.LogDays = 30
	cfg.Retention.Batch = 2
	cm := NewCronManager(cfg, getLogger(), repos.ReportRepository, repos.ReportLogRepository)

	now := models.Now()
	for i := 0; i < 5; i++ {
		entry := models.ReportLogEntry{
			EventTime: now.AddDate(0, 0, -40-i),
			Source:    "email",
			Success:   true,
		}
		require.NoError(t, db.Create(&entry).Error)
	}
	fresh := models.ReportLogEntry{EventTime: now, Source: "email", Success: true}
	require.NoError(t, db.Create(&fresh).Error)

	// The batch size is smaller than the backlog; one run drains it anyway.
	cm.trimReportLog()

	var remaining []models.ReportLogEntry
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID, remaining[0].ID)
}

func TestCronManager_TrimReports(t *testing.T) {
	db := openTestDB(t)
	repos, err := repository.InitRepositories(db, "", getLogger())
	require.NoError(t, err)

	cfg := getConfig()
	cfg.Retention.ReportDays = 90
	cfg.Retention.Batch = 2
	cm := NewCronManager(cfg, getLogger(), repos.ReportRepository, repos.ReportLogRepository)

	now := models.Now()
	domain := models.Domain{FQDN: "example.com", Active: true, CreatedTime: now, UpdatedTime: now}
	require.NoError(t, db.Create(&domain).Error)

	for i := 0; i < 3; i++ {
		stale := models.Report{
			DomainID:   domain.ID,
			BeginTime:  now.AddDate(0, 0, -100-i),
			EndTime:    now.AddDate(0, 0, -99-i),
			LoadedTime: now,
			Org:        "google.com",
			ExternalID: fmt.Sprintf("stale-%d", i),
			Records: []models.ReportRecord{
				{IP: []byte{203, 0, 113, byte(i)}, RCount: 1},
			},
		}
		require.NoError(t, db.Create(&stale).Error)
	}
	fresh := models.Report{
		DomainID:   domain.ID,
		BeginTime:  now.AddDate(0, 0, -1),
		EndTime:    now,
		LoadedTime: now,
		Org:        "google.com",
		ExternalID: "fresh",
	}
	require.NoError(t, db.Create(&fresh).Error)

	cm.trimReports()

	var reports []models.Report
	require.NoError(t, db.Find(&reports).Error)
	require.Len(t, reports, 1)
	assert.Equal(t, "fresh", reports[0].ExternalID)

	// Records of trimmed reports went with them.
	var records int64
	require.NoError(t, db.Model(&models.ReportRecord{}).Count(&records).Error)
	assert.Equal(t, int64(0), records)
}
