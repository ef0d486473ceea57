package models

import "time"

type User struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:name;type:varchar(32);NOT NULL;uniqueIndex" json:"name"`
	Enabled     bool      `gorm:"column:enabled;type:boolean;NOT NULL;DEFAULT:true" json:"enabled"`
	CreatedTime time.Time `gorm:"column:created_time;type:timestamp" json:"createdTime"`
}

func (User) TableName() string {
	return "users"
}

// UserDomain assigns a domain to a user. Rows are removed together with
// their domain.
type UserDomain struct {
	DomainID uint64 `gorm:"column:domain_id;primaryKey" json:"domainId"`
	UserID   int64  `gorm:"column:user_id;primaryKey" json:"userId"`
}

func (UserDomain) TableName() string {
	return "userdomains"
}
