package migration

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/customeros/dmarcstore/internal/database"
	"github.com/customeros/dmarcstore/internal/models"
)

func isSQLite(db *gorm.DB) bool {
	return db.Dialector.Name() == database.DriverSQLite
}

func serialPK(db *gorm.DB) string {
	if isSQLite(db) {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "BIGSERIAL PRIMARY KEY"
}

func binaryType(db *gorm.DB) string {
	if isSQLite(db) {
		return "BLOB"
	}
	return "BYTEA"
}

func createTable(db *gorm.DB, name, ddl string) error {
	if db.Migrator().HasTable(name) {
		return nil
	}
	return db.Exec(ddl).Error
}

func addColumn(db *gorm.DB, model interface{}, table, column, ddl string) error {
	if db.Migrator().HasColumn(model, column) {
		return nil
	}
	return db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, ddl)).Error
}

// upInit creates the original tables: the version marker, the registered
// domains, the reports and their per-source records.
func upInit(ctx context.Context, db *gorm.DB) (string, error) {
	if err := createTable(db, "system",
		"CREATE TABLE system (key VARCHAR(64) PRIMARY KEY, value VARCHAR(255))"); err != nil {
		return "", err
	}
	if err := createTable(db, "domains", fmt.Sprintf(`CREATE TABLE domains (
		id %s,
		fqdn VARCHAR(255) NOT NULL UNIQUE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		description TEXT,
		created_time TIMESTAMP NOT NULL,
		updated_time TIMESTAMP NOT NULL)`, serialPK(db))); err != nil {
		return "", err
	}
	if err := createTable(db, "reports", fmt.Sprintf(`CREATE TABLE reports (
		id %s,
		domain_id BIGINT NOT NULL REFERENCES domains (id),
		begin_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		loaded_time TIMESTAMP NOT NULL,
		org VARCHAR(64) NOT NULL,
		external_id VARCHAR(255) NOT NULL,
		email VARCHAR(255),
		error_string TEXT,
		policy_adkim VARCHAR(20),
		policy_aspf VARCHAR(20),
		policy_p VARCHAR(20),
		policy_sp VARCHAR(20),
		policy_pct VARCHAR(20),
		policy_fo VARCHAR(20))`, serialPK(db))); err != nil {
		return "", err
	}
	if !db.Migrator().HasIndex(&models.Report{}, "idx_reports_org_time") {
		if err := db.Exec("CREATE INDEX idx_reports_org_time ON reports (domain_id, begin_time, org)").Error; err != nil {
			return "", err
		}
	}
	if err := createTable(db, "rptrecords", fmt.Sprintf(`CREATE TABLE rptrecords (
		id %s,
		report_id BIGINT NOT NULL REFERENCES reports (id),
		ip %s NOT NULL,
		rcount BIGINT NOT NULL,
		disposition INTEGER NOT NULL,
		reason VARCHAR(255),
		dkim_auth VARCHAR(255),
		spf_auth VARCHAR(255),
		dkim_align INTEGER NOT NULL,
		spf_align INTEGER NOT NULL,
		envelope_from VARCHAR(255),
		header_from VARCHAR(255))`, serialPK(db), binaryType(db))); err != nil {
		return "", err
	}
	if !db.Migrator().HasIndex(&models.ReportRecord{}, "idx_rptrecords_report_id") {
		if err := db.Exec("CREATE INDEX idx_rptrecords_report_id ON rptrecords (report_id)").Error; err != nil {
			return "", err
		}
	}
	return "0.1", nil
}

// up01 adds the incoming-report journal and the per-report seen flag.
func up01(ctx context.Context, db *gorm.DB) (string, error) {
	if err := createTable(db, "reportlog", fmt.Sprintf(`CREATE TABLE reportlog (
		id %s,
		user_id BIGINT NOT NULL DEFAULT 0,
		domain VARCHAR(255),
		external_id VARCHAR(255),
		event_time TIMESTAMP NOT NULL,
		filename VARCHAR(255),
		source VARCHAR(20) NOT NULL,
		success BOOLEAN NOT NULL DEFAULT FALSE,
		message TEXT)`, serialPK(db))); err != nil {
		return "", err
	}
	if !db.Migrator().HasIndex(&models.ReportLogEntry{}, "idx_reportlog_event_time") {
		if err := db.Exec("CREATE INDEX idx_reportlog_event_time ON reportlog (event_time)").Error; err != nil {
			return "", err
		}
	}
	if err := addColumn(db, &models.Report{}, "reports", "seen", "BOOLEAN NOT NULL DEFAULT FALSE"); err != nil {
		return "", err
	}
	return "1.0", nil
}

// up10 introduces accounts and their domain assignments.
func up10(ctx context.Context, db *gorm.DB) (string, error) {
	if err := createTable(db, "users", fmt.Sprintf(`CREATE TABLE users (
		id %s,
		name VARCHAR(32) NOT NULL UNIQUE,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		created_time TIMESTAMP NOT NULL)`, serialPK(db))); err != nil {
		return "", err
	}
	if err := createTable(db, "userdomains", `CREATE TABLE userdomains (
		user_id BIGINT NOT NULL,
		domain_id BIGINT NOT NULL,
		PRIMARY KEY (user_id, domain_id))`); err != nil {
		return "", err
	}
	return "2.0", nil
}

// up20 widens the reporter and journal identity columns and adds the
// reporter contact field. SQLite does not enforce VARCHAR lengths, so the
// widening only applies to PostgreSQL.
func up20(ctx context.Context, db *gorm.DB) (string, error) {
	if !isSQLite(db) {
		alters := []string{
			"ALTER TABLE reports ALTER COLUMN org TYPE VARCHAR(255)",
			"ALTER TABLE reportlog ALTER COLUMN domain TYPE VARCHAR(255)",
		}
		for _, ddl := range alters {
			if err := db.Exec(ddl).Error; err != nil {
				return "", err
			}
		}
	}
	if err := addColumn(db, &models.Report{}, "reports", "extra_contact_info", "VARCHAR(255)"); err != nil {
		return "", err
	}
	return "3.0", nil
}

// up30 removes duplicate reports, keeping the earliest loaded row of each
// identity, and replaces the non-unique lookup index with the unique
// fingerprint over (domain_id, begin_time, org, external_id).
func up30(ctx context.Context, db *gorm.DB) (string, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		const keepers = `SELECT MIN(id) FROM reports GROUP BY domain_id, begin_time, org, external_id`
		if err := tx.Exec("DELETE FROM rptrecords WHERE report_id NOT IN (" + keepers + ")").Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM reports WHERE id NOT IN (" + keepers + ")").Error
	})
	if err != nil {
		return "", err
	}

	mig := db.Migrator()
	if mig.HasIndex(&models.Report{}, "idx_reports_org_time") {
		if err := mig.DropIndex(&models.Report{}, "idx_reports_org_time"); err != nil {
			return "", err
		}
	}
	if !mig.HasIndex(&models.Report{}, "fingerprint") {
		if err := db.Exec("CREATE UNIQUE INDEX fingerprint ON reports (domain_id, begin_time, org, external_id)").Error; err != nil {
			return "", err
		}
	}
	return "3.1", nil
}

// up31 scopes settings to accounts: the system table gains a user_id column
// and its primary key moves to (user_id, key). SQLite cannot alter a primary
// key in place, so the table is rebuilt there.
func up31(ctx context.Context, db *gorm.DB) (string, error) {
	if db.Migrator().HasColumn(&models.Setting{}, "user_id") {
		return "3.2", nil
	}

	if isSQLite(db) {
		err := db.Transaction(func(tx *gorm.DB) error {
			ddl := []string{
				`CREATE TABLE system_new (
					user_id BIGINT NOT NULL DEFAULT 0,
					key VARCHAR(64) NOT NULL,
					value VARCHAR(255),
					PRIMARY KEY (user_id, key))`,
				"INSERT INTO system_new (user_id, key, value) SELECT 0, key, value FROM system",
				"DROP TABLE system",
				"ALTER TABLE system_new RENAME TO system",
			}
			for _, stmt := range ddl {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return "", err
		}
		return "3.2", nil
	}

	ddl := []string{
		"ALTER TABLE system ADD COLUMN user_id BIGINT NOT NULL DEFAULT 0",
		"ALTER TABLE system DROP CONSTRAINT system_pkey",
		"ALTER TABLE system ADD PRIMARY KEY (user_id, key)",
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			return "", err
		}
	}
	return "3.2", nil
}

// up32 adds the RFC 9091 non-existent subdomain policy to reports and the
// SMTP envelope recipient to records.
func up32(ctx context.Context, db *gorm.DB) (string, error) {
	if err := addColumn(db, &models.Report{}, "reports", "policy_np", "VARCHAR(20)"); err != nil {
		return "", err
	}
	if err := addColumn(db, &models.ReportRecord{}, "rptrecords", "envelope_to", "VARCHAR(255)"); err != nil {
		return "", err
	}
	return "4.0", nil
}
