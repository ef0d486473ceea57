package migration

import (
	"context"

	"gorm.io/gorm"

	"github.com/customeros/dmarcstore/interfaces"
	ers "github.com/customeros/dmarcstore/internal/errors"
	"github.com/customeros/dmarcstore/internal/logger"
	"github.com/customeros/dmarcstore/internal/models"
	"github.com/customeros/dmarcstore/internal/tracing"
)

// LatestVersion is the schema version this build targets.
const LatestVersion = "4.0"

// step brings the schema from one version to the next and returns the
// successor label. Steps are idempotent on re-entry: structural changes are
// guarded by existence checks because DDL is not transactional on every
// engine.
type step func(ctx context.Context, db *gorm.DB) (string, error)

type migrator struct {
	db    *gorm.DB
	log   logger.Logger
	steps map[string]step
}

// NewMigrator builds the migrator with the full transition registry. It is
// not safe for concurrent execution against one store; callers coordinate
// externally.
func NewMigrator(db *gorm.DB, log logger.Logger) interfaces.Migrator {
	return &migrator{
		db:  db,
		log: log,
		steps: map[string]step{
			"":    upInit,
			"0.1": up01,
			"1.0": up10,
			"2.0": up20,
			"3.0": up30,
			"3.1": up31,
			"3.2": up32,
		},
	}
}

func (m *migrator) CurrentVersion(ctx context.Context) (string, error) {
	if !m.db.WithContext(ctx).Migrator().HasTable(models.Setting{}.TableName()) {
		return "", nil
	}

	// The version marker predates the user_id column, so it is read by key
	// alone.
	var version string
	err := m.db.WithContext(ctx).
		Raw("SELECT value FROM system WHERE key = ?", models.SettingVersionKey).
		Scan(&version).Error
	if err != nil {
		return "", ers.NewStorageFault("fetch", "setting", models.SettingVersionKey, err)
	}
	return version, nil
}

func (m *migrator) Upgrade(ctx context.Context, target string) error {
	span, ctx := tracing.StartTracerSpan(ctx, "migrator.Upgrade")
	defer span.Finish()
	tracing.TagComponentMigration(span)

	current, err := m.CurrentVersion(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if current == target {
		m.log.Infof("schema already at version %q", target)
		return nil
	}

	for current != target {
		fn, ok := m.steps[current]
		if !ok {
			err := ers.NewConfigurationFault("no upgrade path from version %q to %q", current, target)
			tracing.TraceErr(span, err)
			return err
		}

		next, err := fn(ctx, m.db.WithContext(ctx))
		if err != nil {
			err = ers.NewStorageFault("upgrade", "schema", current, err)
			tracing.TraceErr(span, err)
			return err
		}
		if err := m.saveVersion(ctx, next); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		m.log.Infof("schema upgraded from version %q to %q", current, next)
		current = next
	}
	return nil
}

// saveVersion rewrites the version marker. It must work both before and
// after the 3.2 step that adds the user_id column.
func (m *migrator) saveVersion(ctx context.Context, version string) error {
	db := m.db.WithContext(ctx)
	scoped := db.Migrator().HasColumn(&models.Setting{}, "user_id")

	var res *gorm.DB
	if scoped {
		res = db.Exec("UPDATE system SET value = ? WHERE user_id = ? AND key = ?",
			version, models.GlobalUserID, models.SettingVersionKey)
	} else {
		res = db.Exec("UPDATE system SET value = ? WHERE key = ?", version, models.SettingVersionKey)
	}
	if res.Error != nil {
		return ers.NewStorageFault("save", "setting", models.SettingVersionKey, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if scoped {
		res = db.Exec("INSERT INTO system (user_id, key, value) VALUES (?, ?, ?)",
			models.GlobalUserID, models.SettingVersionKey, version)
	} else {
		res = db.Exec("INSERT INTO system (key, value) VALUES (?, ?)", models.SettingVersionKey, version)
	}
	if res.Error != nil {
		return ers.NewStorageFault("save", "setting", models.SettingVersionKey, res.Error)
	}
	return nil
}
