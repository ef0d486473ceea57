package interfaces

import (
	"context"

	"github.com/customeros/dmarcstore/internal/enum"
	"github.com/customeros/dmarcstore/internal/models"
)

type ReportRepository interface {
	// Fetch returns the report with all its records, ordered by the given
	// record order.
	Fetch(ctx context.Context, fqdn, externalID string, order enum.RecordOrder) (*models.Report, error)
	// Save stores a report and its records in one transaction. A duplicate
	// of the (domain, begin_time, org, external_id) fingerprint surfaces as
	// ErrReportAlreadyLoaded. Unknown domains are auto-provisioned only for
	// an empty store or an allow-pattern match.
	Save(ctx context.Context, fqdn string, report *models.Report) error
	SetProperty(ctx context.Context, fqdn, externalID, name string, value interface{}) error
	List(ctx context.Context, filter *ReportFilter, sort ReportSort, page Page) ([]ReportListRow, error)
	Count(ctx context.Context, filter *ReportFilter, page Page) (int64, error)
	// Delete removes exactly the reports List would return for the same
	// arguments, child records first, in one transaction.
	Delete(ctx context.Context, filter *ReportFilter, sort ReportSort, page Page) (int64, error)
	Months(ctx context.Context) ([]string, error)
	Organizations(ctx context.Context) ([]string, error)
}
