package repository

import (
	"context"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/customeros/dmarcstore/interfaces"
	"github.com/customeros/dmarcstore/internal/enum"
	"github.com/customeros/dmarcstore/internal/models"
	"github.com/customeros/dmarcstore/internal/tracing"
)

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) interfaces.StatisticsRepository {
	return &statisticsRepository{
		db: db,
	}
}

// scopeConditions compiles the rollup scope with the same fragment+bind
// pairing the report filter uses.
func scopeConditions(scope interfaces.StatScope) conditions {
	var conds conditions
	if scope.DomainID != nil {
		conds.add("reports.domain_id = ?", *scope.DomainID)
	}
	if !scope.From.IsZero() {
		conds.add("reports.begin_time >= ?", scope.From)
	}
	if !scope.Till.IsZero() {
		conds.add("reports.begin_time < ?", scope.Till)
	}
	return conds
}

func rollupQuery(columns, groupOrder string, scope interfaces.StatScope) (string, []interface{}) {
	conds := scopeConditions(scope)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(columns)
	sb.WriteString("\nFROM rptrecords rr\nJOIN reports ON reports.id = rr.report_id")
	if !conds.Empty() {
		sb.WriteString("\nWHERE ")
		sb.WriteString(conds.SQL())
	}
	if groupOrder != "" {
		sb.WriteString("\n")
		sb.WriteString(groupOrder)
	}
	return sb.String(), conds.Binds()
}

func (r *statisticsRepository) Summary(ctx context.Context, scope interfaces.StatScope) (*interfaces.SummaryStats, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "statisticsRepository.Summary")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	const columns = `COALESCE(SUM(rr.rcount), 0) AS total_messages,
	COALESCE(SUM(CASE WHEN rr.dkim_align = ? AND rr.spf_align = ? THEN rr.rcount ELSE 0 END), 0) AS aligned_full,
	COALESCE(SUM(CASE WHEN (rr.dkim_align = ?) <> (rr.spf_align = ?) THEN rr.rcount ELSE 0 END), 0) AS aligned_partial,
	COALESCE(SUM(CASE WHEN rr.dkim_align <> ? AND rr.spf_align <> ? THEN rr.rcount ELSE 0 END), 0) AS aligned_none,
	COUNT(DISTINCT rr.ip) AS source_ips,
	COUNT(DISTINCT reports.org) AS organizations`

	// The alignment binds come first: they belong to the SELECT list, the
	// scope binds to the WHERE that follows it.
	binds := []interface{}{
		enum.AlignmentPass, enum.AlignmentPass,
		enum.AlignmentPass, enum.AlignmentPass,
		enum.AlignmentPass, enum.AlignmentPass,
	}
	query, scopeBinds := rollupQuery(columns, "", scope)
	binds = append(binds, scopeBinds...)

	var stats interfaces.SummaryStats
	if err := r.db.WithContext(ctx).Raw(query, binds...).Scan(&stats).Error; err != nil {
		err = translate("summary", "statistics", "", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &stats, nil
}

func (r *statisticsRepository) IPs(ctx context.Context, scope interfaces.StatScope) ([]interfaces.IPStats, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "statisticsRepository.IPs")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	const columns = `rr.ip AS ip,
	SUM(rr.rcount) AS messages,
	SUM(CASE WHEN rr.dkim_align = ? THEN rr.rcount ELSE 0 END) AS dkim_aligned,
	SUM(CASE WHEN rr.spf_align = ? THEN rr.rcount ELSE 0 END) AS spf_aligned,
	COUNT(DISTINCT rr.report_id) AS report_count`

	binds := []interface{}{enum.AlignmentPass, enum.AlignmentPass}
	query, scopeBinds := rollupQuery(columns, "GROUP BY rr.ip\nORDER BY messages DESC", scope)
	binds = append(binds, scopeBinds...)

	var stats []interfaces.IPStats
	if err := r.db.WithContext(ctx).Raw(query, binds...).Scan(&stats).Error; err != nil {
		err = translate("ips", "statistics", "", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	return stats, nil
}

func (r *statisticsRepository) Organizations(ctx context.Context, scope interfaces.StatScope) ([]interfaces.OrgStats, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "statisticsRepository.Organizations")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	const columns = `reports.org AS org,
	COUNT(DISTINCT reports.id) AS reports,
	SUM(rr.rcount) AS messages`

	query, binds := rollupQuery(columns, "GROUP BY reports.org\nORDER BY messages DESC", scope)

	var stats []interfaces.OrgStats
	if err := r.db.WithContext(ctx).Raw(query, binds...).Scan(&stats).Error; err != nil {
		err = translate("organizations", "statistics", "", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	return stats, nil
}

type hostRepository struct {
	db *gorm.DB
}

func NewHostRepository(db *gorm.DB) interfaces.HostRepository {
	return &hostRepository{
		db: db,
	}
}

func (r *hostRepository) Statistics(ctx context.Context, ip []byte, userID int64) (*interfaces.HostStats, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "hostRepository.Statistics")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userID)

	var conds conditions
	conds.add("rr.ip = ?", ip)
	if userID != models.GlobalUserID {
		conds.add("reports.domain_id IN (SELECT domain_id FROM userdomains WHERE user_id = ?)", userID)
	}

	totalsQuery := `SELECT COUNT(DISTINCT rr.report_id) AS reports, COALESCE(SUM(rr.rcount), 0) AS messages
FROM rptrecords rr
JOIN reports ON reports.id = rr.report_id
WHERE ` + conds.SQL()

	var stats interfaces.HostStats
	if err := r.db.WithContext(ctx).Raw(totalsQuery, conds.Binds()...).Scan(&stats).Error; err != nil {
		err = translate("statistics", "host", "", err)
		tracing.TraceErr(span, err)
		return nil, err
	}

	lastSeenQuery := `SELECT DISTINCT reports.begin_time AS begin_time
FROM rptrecords rr
JOIN reports ON reports.id = rr.report_id
WHERE ` + conds.SQL() + `
ORDER BY begin_time DESC
LIMIT 2`

	var seen []struct {
		BeginTime time.Time
	}
	if err := r.db.WithContext(ctx).Raw(lastSeenQuery, conds.Binds()...).Scan(&seen).Error; err != nil {
		err = translate("statistics", "host", "", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	for _, row := range seen {
		stats.LastSeen = append(stats.LastSeen, row.BeginTime)
	}
	return &stats, nil
}
