package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/customeros/dmarcstore/interfaces"
	"github.com/customeros/dmarcstore/internal/database"
	"github.com/customeros/dmarcstore/internal/enum"
	ers "github.com/customeros/dmarcstore/internal/errors"
	"github.com/customeros/dmarcstore/internal/logger"
	"github.com/customeros/dmarcstore/internal/models"
	"github.com/customeros/dmarcstore/internal/tracing"
)

type reportRepository struct {
	db      *gorm.DB
	allowed *regexp.Regexp
	log     logger.Logger
}

func NewReportRepository(db *gorm.DB, allowed *regexp.Regexp, log logger.Logger) interfaces.ReportRepository {
	return &reportRepository{
		db:      db,
		allowed: allowed,
		log:     log,
	}
}

// reportAggJoin is the shared selection shape: reports joined to their
// domain, with per-report rollups over the child records. LEFT JOIN keeps
// record-less reports listable; group B conditions exclude them by design.
const reportAggJoin = `FROM reports
JOIN domains ON domains.id = reports.domain_id
LEFT JOIN (
	SELECT report_id,
		SUM(rcount) AS messages,
		MIN(dkim_align) AS dkim_align,
		MIN(spf_align) AS spf_align,
		MIN(disposition) AS disposition
	FROM rptrecords
	GROUP BY report_id
) agg ON agg.report_id = reports.id`

const reportListColumns = `reports.id AS id,
	reports.org AS org,
	reports.begin_time AS begin_time,
	reports.end_time AS end_time,
	domains.fqdn AS fqdn,
	reports.external_id AS external_id,
	reports.seen AS seen,
	COALESCE(agg.messages, 0) AS messages,
	COALESCE(agg.dkim_align, 0) AS dkim_align,
	COALESCE(agg.spf_align, 0) AS spf_align,
	COALESCE(agg.disposition, 0) AS disposition`

var reportSortColumns = map[enum.ReportSortField]string{
	enum.SortByBeginTime:  "reports.begin_time",
	enum.SortByEndTime:    "reports.end_time",
	enum.SortByLoadedTime: "reports.loaded_time",
	enum.SortByOrg:        "reports.org",
	enum.SortByFQDN:       "domains.fqdn",
	enum.SortByMessages:   "COALESCE(agg.messages, 0)",
}

func (r *reportRepository) List(ctx context.Context, filter *interfaces.ReportFilter, sort interfaces.ReportSort, page interfaces.Page) ([]interfaces.ReportListRow, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query, binds, err := r.buildSelection(ctx, reportListColumns, filter, &sort, &page)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	var rows []interfaces.ReportListRow
	if err := r.db.WithContext(ctx).Raw(query, binds...).Scan(&rows).Error; err != nil {
		err = translate("list", "report", "", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	return rows, nil
}

func (r *reportRepository) Count(ctx context.Context, filter *interfaces.ReportFilter, page interfaces.Page) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportRepository.Count")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query, binds, err := r.buildSelection(ctx, "COUNT(*)", filter, nil, nil)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	var count int64
	if err := r.db.WithContext(ctx).Raw(query, binds...).Scan(&count).Error; err != nil {
		err = translate("count", "report", "", err)
		tracing.TraceErr(span, err)
		return 0, err
	}

	// Clamp to the caller's page window: skip the offset, cap at the count.
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

func (r *reportRepository) Delete(ctx context.Context, filter *interfaces.ReportFilter, sort interfaces.ReportSort, page interfaces.Page) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	// The ids are selected with the exact logic List uses, so the rows
	// deleted are the rows that would have been listed.
	query, binds, err := r.buildSelection(ctx, "reports.id AS id", filter, &sort, &page)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	var ids []uint64
	if err := r.db.WithContext(ctx).Raw(query, binds...).Scan(&ids).Error; err != nil {
		err = translate("delete", "report", "", err)
		tracing.TraceErr(span, err)
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id IN ?", ids).Delete(&models.ReportRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Report{}).Error
	})
	if err != nil {
		err = translate("delete", "report", "", err)
		tracing.TraceErr(span, err)
		return 0, err
	}
	return int64(len(ids)), nil
}

func (r *reportRepository) Fetch(ctx context.Context, fqdn, externalID string, order enum.RecordOrder) (*models.Report, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportRepository.Fetch")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, externalID)

	domainID, found, err := r.resolveDomainID(ctx, fqdn)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if !found {
		return nil, ers.ErrNotFound
	}

	recordOrder := "ip"
	if order == enum.RecordOrderByMessages {
		recordOrder = "rcount DESC"
	}

	// The fingerprint allows the same external id under one domain with a
	// different org or period; the most recent report wins.
	var report models.Report
	err = r.db.WithContext(ctx).
		Where("domain_id = ? AND external_id = ?", domainID, externalID).
		Order("begin_time DESC, id DESC").
		Preload("Records", func(db *gorm.DB) *gorm.DB {
			return db.Order(recordOrder)
		}).
		First(&report).Error
	if err != nil {
		err = translate("fetch", "report", externalID, err)
		if !ers.IsNotFound(err) {
			tracing.TraceErr(span, err)
		}
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) Save(ctx context.Context, fqdn string, report *models.Report) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, report.ExternalID)

	domain, err := r.resolveOrProvisionDomain(ctx, fqdn)
	if err != nil {
		if !ers.IsSoft(err) {
			tracing.TraceErr(span, err)
		}
		return err
	}

	report.DomainID = domain.ID
	if report.LoadedTime.IsZero() {
		report.LoadedTime = models.Now()
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Creates the child records along with the report row.
		return tx.Create(report).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Re-delivery of an already loaded report. The transaction is
			// rolled back; the caller treats this as "already done".
			span.SetTag("duplicate", true)
			return ers.ErrReportAlreadyLoaded
		}
		err = translate("save", "report", report.ExternalID, err)
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *reportRepository) SetProperty(ctx context.Context, fqdn, externalID, name string, value interface{}) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportRepository.SetProperty")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, externalID)

	if name != "seen" {
		return ers.NewValidationError("property", fmt.Sprintf("unknown report property %q", name))
	}
	seen, ok := value.(bool)
	if !ok {
		return ers.NewValidationError("property", "seen must be a boolean")
	}

	domainID, found, err := r.resolveDomainID(ctx, fqdn)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if !found {
		return ers.ErrNotFound
	}

	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("domain_id = ? AND external_id = ?", domainID, externalID).
		Update("seen", seen)
	if res.Error != nil {
		err = translate("update", "report", externalID, res.Error)
		tracing.TraceErr(span, err)
		return err
	}
	if res.RowsAffected == 0 {
		return ers.ErrNotFound
	}
	return nil
}

func (r *reportRepository) Months(ctx context.Context) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportRepository.Months")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	monthExpr := database.MonthExpr(r.db, "begin_time")
	var months []string
	err := r.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT DISTINCT %s AS month FROM reports ORDER BY month DESC", monthExpr)).
		Scan(&months).Error
	if err != nil {
		err = translate("list", "report", "months", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	return months, nil
}

func (r *reportRepository) Organizations(ctx context.Context) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportRepository.Organizations")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var orgs []string
	err := r.db.WithContext(ctx).
		Raw("SELECT DISTINCT org FROM reports ORDER BY org").
		Scan(&orgs).Error
	if err != nil {
		err = translate("list", "report", "organizations", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	return orgs, nil
}

// buildSelection assembles the shared report selection: columns over the
// aggregate join, both predicate groups, and optionally ORDER BY and the
// page window. Bind order always follows fragment order.
func (r *reportRepository) buildSelection(ctx context.Context, columns string, filter *interfaces.ReportFilter, sort *interfaces.ReportSort, page *interfaces.Page) (string, []interface{}, error) {
	compiled, err := compileReportFilter(filter, func(fqdn string) (uint64, bool, error) {
		return r.resolveDomainID(ctx, fqdn)
	})
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(columns)
	sb.WriteString("\n")
	sb.WriteString(reportAggJoin)

	var binds []interface{}
	where := make([]string, 0, 2)
	if !compiled.pre.Empty() {
		where = append(where, compiled.pre.SQL())
		binds = append(binds, compiled.pre.Binds()...)
	}
	if !compiled.post.Empty() {
		where = append(where, compiled.post.SQL())
		binds = append(binds, compiled.post.Binds()...)
	}
	if len(where) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	if sort != nil {
		orderClause, err := reportOrderClause(*sort)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString("\nORDER BY ")
		sb.WriteString(orderClause)
	}

	if page != nil {
		if page.Count > 0 {
			sb.WriteString("\nLIMIT ?")
			binds = append(binds, page.Count)
		} else if page.Offset > 0 {
			// An offset with no row cap still needs a LIMIT clause on sqlite.
			sb.WriteString("\nLIMIT ")
			sb.WriteString(database.NoLimit(r.db))
		}
		if page.Offset > 0 {
			sb.WriteString(" OFFSET ?")
			binds = append(binds, page.Offset)
		}
	}

	return sb.String(), binds, nil
}

// reportOrderClause maps the sort request onto whitelisted columns and adds
// the report id as a stable tiebreak.
func reportOrderClause(sort interfaces.ReportSort) (string, error) {
	field := sort.Field
	if field == "" {
		field = enum.SortByBeginTime
	}
	column, ok := reportSortColumns[field]
	if !ok {
		return "", ers.NewValidationError("sort", fmt.Sprintf("unknown sort field %q", sort.Field))
	}

	direction := "ASC"
	switch sort.Direction {
	case enum.SortAscent, "":
	case enum.SortDescent:
		direction = "DESC"
	default:
		return "", ers.NewValidationError("sort", fmt.Sprintf("unknown sort direction %q", sort.Direction))
	}

	return fmt.Sprintf("%s %s, reports.id %s", column, direction, direction), nil
}

// resolveDomainID looks a domain id up by fqdn without treating a miss as
// an error.
func (r *reportRepository) resolveDomainID(ctx context.Context, fqdn string) (uint64, bool, error) {
	var domain models.Domain
	err := r.db.WithContext(ctx).
		Where("fqdn = ?", models.NormalizeFQDN(fqdn)).
		First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, translate("fetch", "domain", fqdn, err)
	}
	return domain.ID, true, nil
}

// resolveOrProvisionDomain implements the ingestion policy: an active
// domain is used, an inactive one rejects the report, and an unknown one is
// created only for the very first report into an empty store or when the
// fqdn matches the operator's allow-pattern.
func (r *reportRepository) resolveOrProvisionDomain(ctx context.Context, fqdn string) (*models.Domain, error) {
	fqdn = models.NormalizeFQDN(fqdn)

	var domain models.Domain
	err := r.db.WithContext(ctx).Where("fqdn = ?", fqdn).First(&domain).Error
	if err == nil {
		if !domain.Active {
			return nil, ers.NewSoftError(ers.ErrDomainInactive)
		}
		return &domain, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, translate("fetch", "domain", fqdn, err)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Domain{}).Count(&total).Error; err != nil {
		return nil, translate("count", "domain", "", err)
	}
	if total > 0 && (r.allowed == nil || !r.allowed.MatchString(fqdn)) {
		return nil, ers.NewSoftError(ers.ErrUnknownDomain)
	}
	if total == 0 {
		// Bootstrap: the very first report always provisions its domain,
		// bypassing the allow-pattern.
		r.log.Warnf("provisioning first domain %s into an empty store", fqdn)
	}

	now := models.Now()
	created := models.Domain{
		FQDN:        fqdn,
		Active:      true,
		CreatedTime: now,
		UpdatedTime: now,
	}
	err = r.db.WithContext(ctx).Create(&created).Error
	if err == nil {
		r.log.Infof("auto-provisioned domain %s", fqdn)
		return &created, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, translate("save", "domain", fqdn, err)
	}

	// Another ingester provisioned the same domain first; use its row.
	if err := r.db.WithContext(ctx).Where("fqdn = ?", fqdn).First(&domain).Error; err != nil {
		return nil, translate("fetch", "domain", fqdn, err)
	}
	if !domain.Active {
		return nil, ers.NewSoftError(ers.ErrDomainInactive)
	}
	return &domain, nil
}
