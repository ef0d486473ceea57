package models

import (
	"strings"
	"time"
)

type Domain struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FQDN        string    `gorm:"column:fqdn;type:varchar(255);NOT NULL;uniqueIndex" json:"fqdn"`
	Active      bool      `gorm:"column:active;type:boolean;NOT NULL" json:"active"`
	Description *string   `gorm:"column:description;type:text" json:"description,omitempty"`
	CreatedTime time.Time `gorm:"column:created_time;type:timestamp" json:"createdTime"`
	UpdatedTime time.Time `gorm:"column:updated_time;type:timestamp" json:"updatedTime"`
}

func (Domain) TableName() string {
	return "domains"
}

// NormalizeFQDN is the canonical form stored and compared everywhere:
// lower-case, no surrounding space, no trailing dot.
func NormalizeFQDN(fqdn string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(fqdn)), ".")
}
