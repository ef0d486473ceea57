package repository

import (
	"strings"
	"time"

	"github.com/customeros/dmarcstore/interfaces"
	"github.com/customeros/dmarcstore/internal/enum"
	ers "github.com/customeros/dmarcstore/internal/errors"
)

// monthEpsilon absorbs boundary reports whose begin or end time lands
// exactly on a month edge.
const monthEpsilon = 10 * time.Second

// condition pairs one predicate fragment with its bind values so that
// reordering fragments can never desynchronize values from placeholders.
type condition struct {
	expr  string
	binds []interface{}
}

// conditions is an ordered conjunction of predicate fragments.
type conditions struct {
	list []condition
}

func (c *conditions) add(expr string, binds ...interface{}) {
	c.list = append(c.list, condition{expr: expr, binds: binds})
}

func (c *conditions) Empty() bool {
	return len(c.list) == 0
}

// SQL joins the fragments with AND. Empty conditions yield "".
func (c *conditions) SQL() string {
	if len(c.list) == 0 {
		return ""
	}
	parts := make([]string, len(c.list))
	for i, cond := range c.list {
		parts[i] = cond.expr
	}
	return strings.Join(parts, " AND ")
}

// Binds returns the bind values in fragment order, matching SQL()'s
// placeholder order exactly.
func (c *conditions) Binds() []interface{} {
	var binds []interface{}
	for _, cond := range c.list {
		binds = append(binds, cond.binds...)
	}
	return binds
}

// compiledFilter is the two predicate groups a semantic filter compiles to.
// pre holds conditions over the report/domain join; post holds conditions
// over the per-report record aggregates.
type compiledFilter struct {
	pre  conditions
	post conditions
}

// domainResolver turns an fqdn into a domain id, reporting a miss without
// an error.
type domainResolver func(fqdn string) (uint64, bool, error)

// compileReportFilter validates the semantic filter and splits it into the
// pre- and post-aggregation groups.
func compileReportFilter(f *interfaces.ReportFilter, resolve domainResolver) (*compiledFilter, error) {
	compiled := &compiledFilter{}
	if f == nil {
		return compiled, nil
	}

	if f.Domain != "" {
		domainID, found, err := resolve(f.Domain)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ers.NewValidationError("domain", "unknown domain")
		}
		compiled.pre.add("reports.domain_id = ?", domainID)
	}

	if f.Month != "" {
		lower, upper, err := monthRange(f.Month)
		if err != nil {
			return nil, err
		}
		compiled.pre.add("reports.begin_time < ?", upper)
		compiled.pre.add("reports.end_time >= ?", lower)
	}

	if f.Organization != "" {
		compiled.pre.add("reports.org = ?", f.Organization)
	}

	if !f.BeforeTime.IsZero() {
		compiled.pre.add("reports.begin_time < ?", f.BeforeTime)
	}

	if f.Status != "" {
		switch f.Status {
		case "read":
			compiled.pre.add("reports.seen = ?", true)
		case "unread":
			compiled.pre.add("reports.seen = ?", false)
		default:
			return nil, ers.NewValidationError("status", "must be \"read\" or \"unread\"")
		}
	}

	if f.DKIM != "" {
		code, err := alignmentFilterCode("dkim", f.DKIM)
		if err != nil {
			return nil, err
		}
		compiled.post.add("agg.dkim_align = ?", code)
	}

	if f.SPF != "" {
		code, err := alignmentFilterCode("spf", f.SPF)
		if err != nil {
			return nil, err
		}
		compiled.post.add("agg.spf_align = ?", code)
	}

	if f.Disposition != "" {
		disposition, err := enum.ParseDisposition(f.Disposition)
		if err != nil {
			return nil, ers.NewValidationError("disposition", err.Error())
		}
		compiled.post.add("agg.disposition = ?", disposition)
	}

	return compiled, nil
}

// monthRange computes the half-open month interval padded by the epsilon:
// [first-of-month + 10s, first-of-next-month - 10s].
func monthRange(month string) (lower, upper time.Time, err error) {
	start, perr := time.ParseInLocation("2006-01", month, time.UTC)
	if perr != nil {
		return time.Time{}, time.Time{}, ers.NewValidationError("month", "must be formatted as YYYY-MM")
	}
	lower = start.Add(monthEpsilon)
	upper = start.AddDate(0, 1, 0).Add(-monthEpsilon)
	return lower, upper, nil
}

// alignmentFilterCode maps the two recognized filter labels onto the edge
// alignment codes: "pass" is the maximum, "fail" is zero.
func alignmentFilterCode(field, label string) (enum.Alignment, error) {
	switch label {
	case "pass":
		return enum.AlignmentPass, nil
	case "fail":
		return enum.AlignmentFail, nil
	}
	return 0, ers.NewValidationError(field, "must be \"pass\" or \"fail\"")
}
