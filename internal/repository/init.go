package repository

import (
	"context"
	"regexp"

	"gorm.io/gorm"

	"github.com/customeros/dmarcstore/interfaces"
	ers "github.com/customeros/dmarcstore/internal/errors"
	"github.com/customeros/dmarcstore/internal/logger"
)

// Repositories is the per-entity repository accessor handed to
// collaborators. Repositories receive the session, never a bare connection.
type Repositories struct {
	DomainRepository     interfaces.DomainRepository
	ReportRepository     interfaces.ReportRepository
	ReportLogRepository  interfaces.ReportLogRepository
	SettingRepository    interfaces.SettingRepository
	StatisticsRepository interfaces.StatisticsRepository
	HostRepository       interfaces.HostRepository

	db      *gorm.DB
	allowed *regexp.Regexp
	log     logger.Logger
}

// InitRepositories builds the repository set. allowedDomains is the
// operator's auto-provisioning pattern; empty disables provisioning beyond
// the empty-store bootstrap.
func InitRepositories(db *gorm.DB, allowedDomains string, log logger.Logger) (*Repositories, error) {
	var allowed *regexp.Regexp
	if allowedDomains != "" {
		var err error
		allowed, err = regexp.Compile(allowedDomains)
		if err != nil {
			return nil, ers.NewConfigurationFault("invalid domain allow-pattern %q: %v", allowedDomains, err)
		}
	}
	return newRepositories(db, allowed, log), nil
}

func newRepositories(db *gorm.DB, allowed *regexp.Regexp, log logger.Logger) *Repositories {
	return &Repositories{
		DomainRepository:     NewDomainRepository(db),
		ReportRepository:     NewReportRepository(db, allowed, log),
		ReportLogRepository:  NewReportLogRepository(db),
		SettingRepository:    NewSettingRepository(db),
		StatisticsRepository: NewStatisticsRepository(db),
		HostRepository:       NewHostRepository(db),

		db:      db,
		allowed: allowed,
		log:     log,
	}
}

// WithTransaction runs fn against transaction-scoped repositories. Any
// error rolls the transaction back and is returned unchanged.
func (r *Repositories) WithTransaction(ctx context.Context, fn func(*Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepositories(tx, r.allowed, r.log))
	})
}
