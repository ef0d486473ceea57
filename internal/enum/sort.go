package enum

type SortDirection string

const (
	SortAscent  SortDirection = "ascent"
	SortDescent SortDirection = "descent"
)

func (d SortDirection) String() string {
	return string(d)
}

// ReportSortField is the column a report listing is ordered by.
type ReportSortField string

const (
	SortByBeginTime  ReportSortField = "begin_time"
	SortByEndTime    ReportSortField = "end_time"
	SortByLoadedTime ReportSortField = "loaded_time"
	SortByOrg        ReportSortField = "org"
	SortByFQDN       ReportSortField = "fqdn"
	SortByMessages   ReportSortField = "messages"
)

func (f ReportSortField) String() string {
	return string(f)
}

// RecordOrder selects how a fetched report's records are ordered.
type RecordOrder string

const (
	RecordOrderByIP       RecordOrder = "ip"
	RecordOrderByMessages RecordOrder = "rcount"
)

func (o RecordOrder) String() string {
	return string(o)
}
