package interfaces

import "context"

type StatisticsRepository interface {
	Summary(ctx context.Context, scope StatScope) (*SummaryStats, error)
	IPs(ctx context.Context, scope StatScope) ([]IPStats, error)
	Organizations(ctx context.Context, scope StatScope) ([]OrgStats, error)
}

type HostRepository interface {
	// Statistics is scoped to the user's domains unless userID is 0.
	Statistics(ctx context.Context, ip []byte, userID int64) (*HostStats, error)
}
