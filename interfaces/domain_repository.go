package interfaces

import (
	"context"

	"github.com/customeros/dmarcstore/internal/models"
)

type DomainRepository interface {
	// Exists reports whether the fqdn is registered without treating a
	// miss as an error.
	Exists(ctx context.Context, fqdn string) (*models.Domain, bool, error)
	IsAssignedTo(ctx context.Context, domainID uint64, userID int64) (bool, error)
	Fetch(ctx context.Context, fqdn string) (*models.Domain, error)
	Save(ctx context.Context, domain *models.Domain) error
	// Delete removes the domain and its user assignments. It fails with a
	// SoftError while any report still references the domain.
	Delete(ctx context.Context, fqdn string) error
	List(ctx context.Context, userID int64) ([]models.Domain, error)
	Names(ctx context.Context, userID int64) ([]string, error)
	Count(ctx context.Context, userID int64) (int64, error)
	AssignToUser(ctx context.Context, domainID uint64, userID int64) error
	UnassignFromUser(ctx context.Context, domainID uint64, userID int64) error
	ReplaceUserAssignments(ctx context.Context, userID int64, domainIDs []uint64) error
}
