package repository

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/customeros/dmarcstore/interfaces"
	"github.com/customeros/dmarcstore/internal/enum"
	ers "github.com/customeros/dmarcstore/internal/errors"
	"github.com/customeros/dmarcstore/internal/models"
	"github.com/customeros/dmarcstore/internal/tracing"
)

type reportLogRepository struct {
	db *gorm.DB
}

func NewReportLogRepository(db *gorm.DB) interfaces.ReportLogRepository {
	return &reportLogRepository{
		db: db,
	}
}

func (r *reportLogRepository) Fetch(ctx context.Context, id uint64) (*models.ReportLogEntry, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportLogRepository.Fetch")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var entry models.ReportLogEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		err = translate("fetch", "reportlog", fmt.Sprint(id), err)
		if !ers.IsNotFound(err) {
			tracing.TraceErr(span, err)
		}
		return nil, err
	}
	return &entry, nil
}

func (r *reportLogRepository) Save(ctx context.Context, entry *models.ReportLogEntry) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportLogRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, entry.UserID)

	if entry.EventTime.IsZero() {
		entry.EventTime = models.Now()
	}

	// The log is append-only; entries are never updated.
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		err = translate("save", "reportlog", "", err)
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *reportLogRepository) List(ctx context.Context, filter *interfaces.LogFilter, direction enum.SortDirection, page interfaces.Page) ([]models.ReportLogEntry, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportLogRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	q, err := r.filtered(ctx, filter)
	if err != nil {
		return nil, err
	}
	q = q.Order(logOrderClause(direction))
	if page.Count > 0 {
		q = q.Limit(page.Count)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}

	var entries []models.ReportLogEntry
	if err := q.Find(&entries).Error; err != nil {
		err = translate("list", "reportlog", "", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	return entries, nil
}

func (r *reportLogRepository) Count(ctx context.Context, filter *interfaces.LogFilter, page interfaces.Page) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportLogRepository.Count")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	q, err := r.filtered(ctx, filter)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		err = translate("count", "reportlog", "", err)
		tracing.TraceErr(span, err)
		return 0, err
	}

	if page.Offset > 0 {
		count -= int64(page.Offset)
		if count < 0 {
			count = 0
		}
	}
	if page.Count > 0 && count > int64(page.Count) {
		count = int64(page.Count)
	}
	return count, nil
}

func (r *reportLogRepository) Delete(ctx context.Context, filter *interfaces.LogFilter, direction enum.SortDirection, page interfaces.Page) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportLogRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	q, err := r.filtered(ctx, filter)
	if err != nil {
		return 0, err
	}
	q = q.Order(logOrderClause(direction))
	if page.Count > 0 {
		q = q.Limit(page.Count)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}

	// The window is resolved to ids first; not every engine can order and
	// limit a DELETE.
	var ids []uint64
	if err := q.Pluck("reportlog.id", &ids).Error; err != nil {
		err = translate("delete", "reportlog", "", err)
		tracing.TraceErr(span, err)
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.ReportLogEntry{}).Error; err != nil {
		err = translate("delete", "reportlog", "", err)
		tracing.TraceErr(span, err)
		return 0, err
	}
	return int64(len(ids)), nil
}

func (r *reportLogRepository) filtered(ctx context.Context, filter *interfaces.LogFilter) (*gorm.DB, error) {
	q := r.db.WithContext(ctx).Model(&models.ReportLogEntry{})
	if filter == nil {
		return q, nil
	}
	if filter.UserID != models.GlobalUserID {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Source != "" {
		switch filter.Source {
		case enum.LogSourceEmail, enum.LogSourceFile, enum.LogSourceDirectory:
			q = q.Where("source = ?", filter.Source)
		default:
			return nil, ers.NewValidationError("source", fmt.Sprintf("unknown log source %q", filter.Source))
		}
	}
	if filter.Success != nil {
		q = q.Where("success = ?", *filter.Success)
	}
	if !filter.Before.IsZero() {
		q = q.Where("event_time < ?", filter.Before)
	}
	return q, nil
}

func logOrderClause(direction enum.SortDirection) string {
	if direction == enum.SortDescent {
		return "event_time DESC, id DESC"
	}
	return "event_time ASC, id ASC"
}
