package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/customeros/dmarcstore/interfaces"
	ers "github.com/customeros/dmarcstore/internal/errors"
	"github.com/customeros/dmarcstore/internal/models"
	"github.com/customeros/dmarcstore/internal/tracing"
)

type domainRepository struct {
	db *gorm.DB
}

func NewDomainRepository(db *gorm.DB) interfaces.DomainRepository {
	return &domainRepository{
		db: db,
	}
}

func (r *domainRepository) Exists(ctx context.Context, fqdn string) (*models.Domain, bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainRepository.Exists")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, fqdn)

	var domain models.Domain
	err := r.db.WithContext(ctx).
		Where("fqdn = ?", models.NormalizeFQDN(fqdn)).
		First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		err = translate("fetch", "domain", fqdn, err)
		tracing.TraceErr(span, err)
		return nil, false, err
	}
	return &domain, true, nil
}

func (r *domainRepository) IsAssignedTo(ctx context.Context, domainID uint64, userID int64) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainRepository.IsAssignedTo")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userID)

	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserDomain{}).
		Where("domain_id = ? AND user_id = ?", domainID, userID).
		Count(&count).Error
	if err != nil {
		err = translate("count", "userdomain", "", err)
		tracing.TraceErr(span, err)
		return false, err
	}
	return count > 0, nil
}

func (r *domainRepository) Fetch(ctx context.Context, fqdn string) (*models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainRepository.Fetch")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, fqdn)

	domain, found, err := r.Exists(ctx, fqdn)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ers.ErrNotFound
	}
	return domain, nil
}

func (r *domainRepository) Save(ctx context.Context, domain *models.Domain) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, domain.FQDN)

	domain.FQDN = models.NormalizeFQDN(domain.FQDN)
	if domain.FQDN == "" {
		return ers.NewValidationError("fqdn", "must not be empty")
	}

	now := models.Now()
	domain.UpdatedTime = now

	var err error
	if domain.ID == 0 {
		domain.CreatedTime = now
		err = r.db.WithContext(ctx).Create(domain).Error
	} else {
		err = r.db.WithContext(ctx).Model(domain).
			Select("fqdn", "active", "description", "updated_time").
			Updates(domain).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ers.NewValidationError("fqdn", "already registered")
		}
		err = translate("save", "domain", domain.FQDN, err)
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *domainRepository) Delete(ctx context.Context, fqdn string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, fqdn)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var domain models.Domain
		if err := tx.Where("fqdn = ?", models.NormalizeFQDN(fqdn)).First(&domain).Error; err != nil {
			return err
		}

		var reports int64
		if err := tx.Model(&models.Report{}).Where("domain_id = ?", domain.ID).Count(&reports).Error; err != nil {
			return err
		}
		if reports > 0 {
			return ers.NewSoftError(ers.ErrDomainHasReports)
		}

		if err := tx.Where("domain_id = ?", domain.ID).Delete(&models.UserDomain{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain).Error
	})
	if err != nil {
		err = translate("delete", "domain", fqdn, err)
		if !ers.IsSoft(err) && !ers.IsNotFound(err) {
			tracing.TraceErr(span, err)
		}
		return err
	}
	return nil
}

func (r *domainRepository) List(ctx context.Context, userID int64) ([]models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userID)

	var domains []models.Domain
	err := r.userScope(ctx, userID).Order("fqdn").Find(&domains).Error
	if err != nil {
		err = translate("list", "domain", "", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	return domains, nil
}

func (r *domainRepository) Names(ctx context.Context, userID int64) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainRepository.Names")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userID)

	var names []string
	err := r.userScope(ctx, userID).Order("fqdn").Pluck("domains.fqdn", &names).Error
	if err != nil {
		err = translate("list", "domain", "", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	return names, nil
}

func (r *domainRepository) Count(ctx context.Context, userID int64) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainRepository.Count")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userID)

	var count int64
	err := r.userScope(ctx, userID).Count(&count).Error
	if err != nil {
		err = translate("count", "domain", "", err)
		tracing.TraceErr(span, err)
		return 0, err
	}
	return count, nil
}

func (r *domainRepository) AssignToUser(ctx context.Context, domainID uint64, userID int64) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainRepository.AssignToUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userID)

	// Re-assigning an already assigned domain is a no-op.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserDomain{DomainID: domainID, UserID: userID}).Error
	if err != nil {
		err = translate("save", "userdomain", "", err)
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *domainRepository) UnassignFromUser(ctx context.Context, domainID uint64, userID int64) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainRepository.UnassignFromUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userID)

	err := r.db.WithContext(ctx).
		Where("domain_id = ? AND user_id = ?", domainID, userID).
		Delete(&models.UserDomain{}).Error
	if err != nil {
		err = translate("delete", "userdomain", "", err)
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *domainRepository) ReplaceUserAssignments(ctx context.Context, userID int64, domainIDs []uint64) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainRepository.ReplaceUserAssignments")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userID)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserDomain{}).Error; err != nil {
			return err
		}
		for _, domainID := range domainIDs {
			assignment := models.UserDomain{DomainID: domainID, UserID: userID}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		err = translate("save", "userdomain", "", err)
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

// userScope limits a domains query to the given user's assignments; user 0
// sees everything.
func (r *domainRepository) userScope(ctx context.Context, userID int64) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Domain{})
	if userID != models.GlobalUserID {
		q = q.Joins("JOIN userdomains ON userdomains.domain_id = domains.id").
			Where("userdomains.user_id = ?", userID)
	}
	return q
}
