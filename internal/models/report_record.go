package models

import (
	"github.com/customeros/dmarcstore/internal/enum"
)

// ReportRecord is one row of a report: a source IP with its message count
// and evaluation results. Records live and die with their parent report.
type ReportRecord struct {
	ID       uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ReportID uint64 `gorm:"column:report_id;NOT NULL;index" json:"reportId"`

	// IP is the raw address, 4 or 16 bytes.
	IP     []byte `gorm:"column:ip;NOT NULL" json:"ip"`
	RCount int64  `gorm:"column:rcount;NOT NULL" json:"rcount"`

	Disposition enum.Disposition `gorm:"column:disposition;NOT NULL" json:"disposition"`
	Reason      *string          `gorm:"column:reason;type:varchar(255)" json:"reason,omitempty"`

	DKIMAuth *string `gorm:"column:dkim_auth;type:varchar(255)" json:"dkimAuth,omitempty"`
	SPFAuth  *string `gorm:"column:spf_auth;type:varchar(255)" json:"spfAuth,omitempty"`

	DKIMAlign enum.Alignment `gorm:"column:dkim_align;NOT NULL" json:"dkimAlign"`
	SPFAlign  enum.Alignment `gorm:"column:spf_align;NOT NULL" json:"spfAlign"`

	EnvelopeTo   *string `gorm:"column:envelope_to;type:varchar(255)" json:"envelopeTo,omitempty"`
	EnvelopeFrom *string `gorm:"column:envelope_from;type:varchar(255)" json:"envelopeFrom,omitempty"`
	HeaderFrom   *string `gorm:"column:header_from;type:varchar(255)" json:"headerFrom,omitempty"`
}

func (ReportRecord) TableName() string {
	return "rptrecords"
}
