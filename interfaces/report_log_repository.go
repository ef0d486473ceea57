package interfaces

import (
	"context"

	"github.com/customeros/dmarcstore/internal/enum"
	"github.com/customeros/dmarcstore/internal/models"
)

type ReportLogRepository interface {
	Fetch(ctx context.Context, id uint64) (*models.ReportLogEntry, error)
	Save(ctx context.Context, entry *models.ReportLogEntry) error
	List(ctx context.Context, filter *LogFilter, direction enum.SortDirection, page Page) ([]models.ReportLogEntry, error)
	Count(ctx context.Context, filter *LogFilter, page Page) (int64, error)
	// Delete removes matching entries oldest-or-newest first per direction;
	// page.Count caps the batch, which is how retention runs.
	Delete(ctx context.Context, filter *LogFilter, direction enum.SortDirection, page Page) (int64, error)
}
