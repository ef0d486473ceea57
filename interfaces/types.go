package interfaces

import (
	"time"

	"github.com/customeros/dmarcstore/internal/enum"
)

// ReportFilter is the semantic search criteria a caller supplies. Zero
// values mean "no condition". Label fields are validated when compiled.
type ReportFilter struct {
	Domain       string    // fqdn, resolved to a domain id
	Month        string    // "YYYY-MM"
	Organization string    // exact org match
	DKIM         string    // "pass" or "fail", against the report's worst record
	SPF          string    // "pass" or "fail"
	Disposition  string    // against the report's worst disposition
	Status       string    // "read" or "unread"
	BeforeTime   time.Time // begin_time strictly before
}

type ReportSort struct {
	Field     enum.ReportSortField
	Direction enum.SortDirection
}

// Page is an offset/limit window. Count <= 0 means unlimited.
type Page struct {
	Offset int
	Count  int
}

// ReportListRow is one denormalized row of a report listing.
type ReportListRow struct {
	ID          uint64           `json:"id"`
	Org         string           `json:"org"`
	BeginTime   time.Time        `json:"beginTime"`
	EndTime     time.Time        `json:"endTime"`
	FQDN        string           `json:"fqdn"`
	ExternalID  string           `json:"externalId"`
	Seen        bool             `json:"seen"`
	Messages    int64            `json:"messages"`
	DKIMAlign   enum.Alignment   `json:"dkimAlign"`
	SPFAlign    enum.Alignment   `json:"spfAlign"`
	Disposition enum.Disposition `json:"disposition"`
}

// LogFilter narrows report-log listings and retention deletes.
type LogFilter struct {
	UserID  int64          // 0 selects every user
	Source  enum.LogSource // "" selects every source
	Success *bool
	Before  time.Time
}

// StatScope bounds a statistics rollup. A nil DomainID means store-wide.
type StatScope struct {
	DomainID *uint64
	From     time.Time
	Till     time.Time
}

type SummaryStats struct {
	TotalMessages  int64 `json:"totalMessages"`
	AlignedFull    int64 `json:"alignedFull"`
	AlignedPartial int64 `json:"alignedPartial"`
	AlignedNone    int64 `json:"alignedNone"`
	SourceIPs      int64 `json:"sourceIps"`
	Organizations  int64 `json:"organizations"`
}

type IPStats struct {
	IP           []byte `json:"ip"`
	Messages     int64  `json:"messages"`
	DKIMAligned  int64  `json:"dkimAligned"`
	SPFAligned   int64  `json:"spfAligned"`
	ReportCount  int64  `json:"reportCount"`
}

type OrgStats struct {
	Org      string `json:"org"`
	Reports  int64  `json:"reports"`
	Messages int64  `json:"messages"`
}

// HostStats describes one source host: totals plus the one or two most
// recent report timestamps mentioning it.
type HostStats struct {
	Reports  int64       `json:"reports"`
	Messages int64       `json:"messages"`
	LastSeen []time.Time `gorm:"-" json:"lastSeen"`
}
