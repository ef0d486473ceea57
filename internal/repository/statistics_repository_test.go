package repository

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/dmarcstore/interfaces"
	"github.com/customeros/dmarcstore/internal/enum"
	"github.com/customeros/dmarcstore/internal/models"
)

// seedStatsFixture loads two domains with known alignment outcomes:
// ip1 carries 10 fully aligned and 5 unaligned messages, ip2 carries
// 20 partially aligned ones.
func seedStatsFixture(t *testing.T, repos *Repositories) (one, two *models.Domain) {
	t.Helper()
	ctx := context.Background()
	one = seedDomain(t, repos.db, "one.example", true)
	two = seedDomain(t, repos.db, "two.example", true)

	ip1 := net.ParseIP("203.0.113.1").To4()
	ip2 := net.ParseIP("203.0.113.2").To4()

	feb := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repos.ReportRepository.Save(ctx, "one.example",
		testReport(0, "google.com", "rpt-1", feb,
			models.ReportRecord{IP: ip1, RCount: 10,
				DKIMAlign: enum.AlignmentPass, SPFAlign: enum.AlignmentPass, Disposition: enum.DispositionNone},
			models.ReportRecord{IP: ip2, RCount: 20,
				DKIMAlign: enum.AlignmentFail, SPFAlign: enum.AlignmentPass, Disposition: enum.DispositionQuarantine},
		)))
	require.NoError(t, repos.ReportRepository.Save(ctx, "two.example",
		testReport(0, "yahoo.com", "rpt-2", mar,
			models.ReportRecord{IP: ip1, RCount: 5,
				DKIMAlign: enum.AlignmentFail, SPFAlign: enum.AlignmentFail, Disposition: enum.DispositionReject},
		)))
	return one, two
}

func TestStatisticsRepository_Summary(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")
	seedStatsFixture(t, repos)

	stats, err := repos.StatisticsRepository.Summary(ctx, interfaces.StatScope{})
	require.NoError(t, err)
	assert.Equal(t, int64(35), stats.TotalMessages)
	assert.Equal(t, int64(10), stats.AlignedFull)
	assert.Equal(t, int64(20), stats.AlignedPartial)
	assert.Equal(t, int64(5), stats.AlignedNone)
	assert.Equal(t, int64(2), stats.SourceIPs)
	assert.Equal(t, int64(2), stats.Organizations)
}

func TestStatisticsRepository_SummaryScoped(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")
	one, _ := seedStatsFixture(t, repos)

	byDomain, err := repos.StatisticsRepository.Summary(ctx, interfaces.StatScope{DomainID: &one.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(30), byDomain.TotalMessages)
	assert.Equal(t, int64(1), byDomain.Organizations)

	byRange, err := repos.StatisticsRepository.Summary(ctx, interfaces.StatScope{
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Till: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), byRange.TotalMessages)
	assert.Equal(t, int64(5), byRange.AlignedNone)

	// An empty scope window aggregates to zeroes, not an error.
	empty, err := repos.StatisticsRepository.Summary(ctx, interfaces.StatScope{
		Till: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.TotalMessages)
	assert.Equal(t, int64(0), empty.SourceIPs)
}

func TestStatisticsRepository_IPs(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")
	seedStatsFixture(t, repos)

	stats, err := repos.StatisticsRepository.IPs(ctx, interfaces.StatScope{})
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// Ordered by message volume.
	assert.Equal(t, net.ParseIP("203.0.113.2").To4(), net.IP(stats[0].IP))
	assert.Equal(t, int64(20), stats[0].Messages)
	assert.Equal(t, int64(0), stats[0].DKIMAligned)
	assert.Equal(t, int64(20), stats[0].SPFAligned)
	assert.Equal(t, int64(1), stats[0].ReportCount)

	assert.Equal(t, int64(15), stats[1].Messages)
	assert.Equal(t, int64(10), stats[1].DKIMAligned)
	assert.Equal(t, int64(10), stats[1].SPFAligned)
	assert.Equal(t, int64(2), stats[1].ReportCount)
}

func TestStatisticsRepository_Organizations(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")
	seedStatsFixture(t, repos)

	stats, err := repos.StatisticsRepository.Organizations(ctx, interfaces.StatScope{})
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "google.com", stats[0].Org)
	assert.Equal(t, int64(1), stats[0].Reports)
	assert.Equal(t, int64(30), stats[0].Messages)
	assert.Equal(t, "yahoo.com", stats[1].Org)
	assert.Equal(t, int64(5), stats[1].Messages)
}

func TestHostRepository_Statistics(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")
	one, _ := seedStatsFixture(t, repos)

	ip1 := net.ParseIP("203.0.113.1").To4()

	stats, err := repos.HostRepository.Statistics(ctx, ip1, models.GlobalUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Reports)
	assert.Equal(t, int64(15), stats.Messages)
	require.Len(t, stats.LastSeen, 2)
	assert.True(t, stats.LastSeen[0].After(stats.LastSeen[1]))

	// A user only sees reports of domains assigned to them.
	require.NoError(t, repos.DomainRepository.AssignToUser(ctx, one.ID, 7))
	scoped, err := repos.HostRepository.Statistics(ctx, ip1, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), scoped.Reports)
	assert.Equal(t, int64(10), scoped.Messages)
	assert.Len(t, scoped.LastSeen, 1)

	// An unseen host reads as zero, not an error.
	unknown, err := repos.HostRepository.Statistics(ctx, net.ParseIP("192.0.2.99").To4(), models.GlobalUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unknown.Reports)
	assert.Empty(t, unknown.LastSeen)
}
