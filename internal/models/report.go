package models

import (
	"time"
)

// Report is one DMARC aggregate report as delivered by a reporting
// organization. The (domain_id, begin_time, org, external_id) tuple is the
// report's dedup fingerprint and carries a unique index.
type Report struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DomainID   uint64    `gorm:"column:domain_id;NOT NULL;uniqueIndex:fingerprint" json:"domainId"`
	BeginTime  time.Time `gorm:"column:begin_time;type:timestamp;NOT NULL;uniqueIndex:fingerprint" json:"beginTime"`
	EndTime    time.Time `gorm:"column:end_time;type:timestamp;NOT NULL" json:"endTime"`
	LoadedTime time.Time `gorm:"column:loaded_time;type:timestamp;NOT NULL" json:"loadedTime"`
	Org        string    `gorm:"column:org;type:varchar(255);NOT NULL;uniqueIndex:fingerprint" json:"org"`
	ExternalID string    `gorm:"column:external_id;type:varchar(255);NOT NULL;uniqueIndex:fingerprint" json:"externalId"`
	Email      string    `gorm:"column:email;type:varchar(255)" json:"email"`

	ExtraContactInfo *string    `gorm:"column:extra_contact_info;type:varchar(255)" json:"extraContactInfo,omitempty"`
	ErrorString      StringList `gorm:"column:error_string;type:text" json:"errorString,omitempty"`

	PolicyADKIM *string `gorm:"column:policy_adkim;type:varchar(20)" json:"policyAdkim,omitempty"`
	PolicyASPF  *string `gorm:"column:policy_aspf;type:varchar(20)" json:"policyAspf,omitempty"`
	PolicyP     *string `gorm:"column:policy_p;type:varchar(20)" json:"policyP,omitempty"`
	PolicySP    *string `gorm:"column:policy_sp;type:varchar(20)" json:"policySp,omitempty"`
	PolicyNP    *string `gorm:"column:policy_np;type:varchar(20)" json:"policyNp,omitempty"`
	PolicyPCT   *string `gorm:"column:policy_pct;type:varchar(20)" json:"policyPct,omitempty"`
	PolicyFO    *string `gorm:"column:policy_fo;type:varchar(20)" json:"policyFo,omitempty"`

	Seen bool `gorm:"column:seen;type:boolean;NOT NULL;DEFAULT:false" json:"seen"`

	Records []ReportRecord `gorm:"foreignKey:ReportID" json:"records,omitempty"`
}

func (Report) TableName() string {
	return "reports"
}
