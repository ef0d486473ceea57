package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/customeros/dmarcstore/internal/database"
	"github.com/customeros/dmarcstore/internal/logger"
	"github.com/customeros/dmarcstore/internal/migration"
	"github.com/customeros/dmarcstore/internal/models"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

// openTestDB opens an in-memory store and brings its schema to the latest
// version. A single connection keeps the in-memory database alive for the
// whole test.
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

	migrator := migration.NewMigrator(db, getLogger())
	require.NoError(t, migrator.Upgrade(context.Background(), migration.LatestVersion))

	return db
}

func newTestRepositories(t *testing.T, allowedDomains string) *Repositories {
	t.Helper()

	repos, err := InitRepositories(openTestDB(t), allowedDomains, getLogger())
	require.NoError(t, err)
	return repos
}

func seedDomain(t *testing.T, db *gorm.DB, fqdn string, active bool) *models.Domain {
	t.Helper()

	now := models.Now()
	domain := &models.Domain{
		FQDN:        fqdn,
		Active:      active,
		CreatedTime: now,
		UpdatedTime: now,
	}
	require.NoError(t, db.Create(domain).Error)
	return domain
}

// testReport builds an unsaved report with a single record per alignment
// tuple given. Counts default to one message per record.
func testReport(domainID uint64, org, externalID string, begin time.Time, records ...models.ReportRecord) *models.Report {
	return &models.Report{
		DomainID:   domainID,
		BeginTime:  begin,
		EndTime:    begin.Add(24 * time.Hour),
		LoadedTime: models.Now(),
		Org:        org,
		ExternalID: externalID,
		Email:      "noreply@" + org,
		Records:    records,
	}
}
