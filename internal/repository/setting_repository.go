package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/customeros/dmarcstore/interfaces"
	ers "github.com/customeros/dmarcstore/internal/errors"
	"github.com/customeros/dmarcstore/internal/models"
	"github.com/customeros/dmarcstore/internal/tracing"
)

type settingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) interfaces.SettingRepository {
	return &settingRepository{
		db: db,
	}
}

func (r *settingRepository) Value(ctx context.Context, userID int64, key string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingRepository.Value")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userID)

	var setting models.Setting
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND key = ?", userID, key).
		First(&setting).Error
	if err != nil {
		err = translate("fetch", "setting", key, err)
		if !ers.IsNotFound(err) {
			tracing.TraceErr(span, err)
		}
		return "", err
	}
	return setting.Value, nil
}

func (r *settingRepository) List(ctx context.Context, userID int64) ([]models.Setting, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userID)

	var settings []models.Setting
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("key").
		Find(&settings).Error
	if err != nil {
		err = translate("list", "setting", "", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	return settings, nil
}

func (r *settingRepository) Save(ctx context.Context, userID int64, key, value string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userID)

	setting := models.Setting{UserID: userID, Key: key, Value: value}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&setting).Error
	if err != nil {
		err = translate("save", "setting", key, err)
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
