package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ers "github.com/customeros/dmarcstore/internal/errors"
	"github.com/customeros/dmarcstore/internal/models"
)

func TestDomainRepository_SaveNormalizesFQDN(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")

	domain := &models.Domain{FQDN: "  Example.COM. ", Active: true}
	require.NoError(t, repos.DomainRepository.Save(ctx, domain))
	assert.Equal(t, "example.com", domain.FQDN)
	assert.NotZero(t, domain.ID)
	assert.False(t, domain.CreatedTime.IsZero())

	fetched, err := repos.DomainRepository.Fetch(ctx, "EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, domain.ID, fetched.ID)
}

func TestDomainRepository_SaveValidation(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")

	var validationErr *ers.ValidationError
	err := repos.DomainRepository.Save(ctx, &models.Domain{FQDN: " . "})
	assert.ErrorAs(t, err, &validationErr)

	require.NoError(t, repos.DomainRepository.Save(ctx, &models.Domain{FQDN: "example.com", Active: true}))
	err = repos.DomainRepository.Save(ctx, &models.Domain{FQDN: "Example.com"})
	assert.ErrorAs(t, err, &validationErr)
}

func TestDomainRepository_SaveUpdates(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")

	domain := &models.Domain{FQDN: "example.com", Active: true}
	require.NoError(t, repos.DomainRepository.Save(ctx, domain))
	created := domain.CreatedTime

	description := "primary mail domain"
	domain.Active = false
	domain.Description = &description
	time.Sleep(time.Millisecond)
	require.NoError(t, repos.DomainRepository.Save(ctx, domain))

	fetched, err := repos.DomainRepository.Fetch(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, fetched.Active)
	require.NotNil(t, fetched.Description)
	assert.Equal(t, description, *fetched.Description)
	assert.True(t, fetched.CreatedTime.Equal(created))
	assert.True(t, fetched.UpdatedTime.After(created))
}

func TestDomainRepository_FetchMiss(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")

	_, err := repos.DomainRepository.Fetch(ctx, "nobody.example")
	assert.True(t, ers.IsNotFound(err))

	_, found, err := repos.DomainRepository.Exists(ctx, "nobody.example")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDomainRepository_DeleteBlockedByReports(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")
	domain := seedDomain(t, repos.db, "example.com", true)

	report := testReport(domain.ID, "google.com", "rpt-001", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repos.db.Create(report).Error)

	err := repos.DomainRepository.Delete(ctx, "example.com")
	assert.True(t, ers.IsSoft(err))
	assert.ErrorIs(t, err, ers.ErrDomainHasReports)

	// Still there.
	_, err = repos.DomainRepository.Fetch(ctx, "example.com")
	assert.NoError(t, err)
}

func TestDomainRepository_DeleteRemovesAssignments(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")
	domain := seedDomain(t, repos.db, "example.com", true)
	require.NoError(t, repos.DomainRepository.AssignToUser(ctx, domain.ID, 7))

	require.NoError(t, repos.DomainRepository.Delete(ctx, "example.com"))

	_, err := repos.DomainRepository.Fetch(ctx, "example.com")
	assert.True(t, ers.IsNotFound(err))

	var assignments int64
	require.NoError(t, repos.db.Model(&models.UserDomain{}).Count(&assignments).Error)
	assert.Equal(t, int64(0), assignments)

	err = repos.DomainRepository.Delete(ctx, "example.com")
	assert.True(t, ers.IsNotFound(err))
}

func TestDomainRepository_UserScoping(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")
	one := seedDomain(t, repos.db, "one.example", true)
	two := seedDomain(t, repos.db, "two.example", true)
	seedDomain(t, repos.db, "three.example", true)

	require.NoError(t, repos.DomainRepository.AssignToUser(ctx, one.ID, 7))
	require.NoError(t, repos.DomainRepository.AssignToUser(ctx, two.ID, 7))
	// Re-assigning is a no-op, not an error.
	require.NoError(t, repos.DomainRepository.AssignToUser(ctx, one.ID, 7))

	names, err := repos.DomainRepository.Names(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"one.example", "two.example"}, names)

	assigned, err := repos.DomainRepository.IsAssignedTo(ctx, one.ID, 7)
	require.NoError(t, err)
	assert.True(t, assigned)
	assigned, err = repos.DomainRepository.IsAssignedTo(ctx, one.ID, 8)
	require.NoError(t, err)
	assert.False(t, assigned)

	// User 0 sees the whole store.
	all, err := repos.DomainRepository.Count(ctx, models.GlobalUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all)

	count, err := repos.DomainRepository.Count(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repos.DomainRepository.UnassignFromUser(ctx, two.ID, 7))
	count, err = repos.DomainRepository.Count(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDomainRepository_ReplaceUserAssignments(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")
	one := seedDomain(t, repos.db, "one.example", true)
	two := seedDomain(t, repos.db, "two.example", true)
	three := seedDomain(t, repos.db, "three.example", true)

	require.NoError(t, repos.DomainRepository.AssignToUser(ctx, one.ID, 7))
	require.NoError(t, repos.DomainRepository.ReplaceUserAssignments(ctx, 7, []uint64{two.ID, three.ID}))

	names, err := repos.DomainRepository.Names(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"three.example", "two.example"}, names)

	require.NoError(t, repos.DomainRepository.ReplaceUserAssignments(ctx, 7, nil))
	count, err := repos.DomainRepository.Count(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
