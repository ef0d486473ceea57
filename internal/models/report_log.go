package models

import (
	"time"

	"github.com/customeros/dmarcstore/internal/enum"
)

// ReportLogEntry is the append-only audit record of one ingestion attempt.
// Entries are never updated; retention deletes them in batches.
type ReportLogEntry struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID     int64          `gorm:"column:user_id;NOT NULL;DEFAULT:0" json:"userId"`
	Domain     *string        `gorm:"column:domain;type:varchar(255)" json:"domain,omitempty"`
	ExternalID *string        `gorm:"column:external_id;type:varchar(255)" json:"externalId,omitempty"`
	EventTime  time.Time      `gorm:"column:event_time;type:timestamp;NOT NULL;index" json:"eventTime"`
	Filename   *string        `gorm:"column:filename;type:varchar(255)" json:"filename,omitempty"`
	Source     enum.LogSource `gorm:"column:source;type:varchar(20);NOT NULL" json:"source"`
	Success    bool           `gorm:"column:success;type:boolean;NOT NULL" json:"success"`
	Message    *string        `gorm:"column:message;type:text" json:"message,omitempty"`
}

func (ReportLogEntry) TableName() string {
	return "reportlog"
}
