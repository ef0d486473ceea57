package models

// Setting is a key/value pair scoped by user. UserID 0 holds the global
// settings; the schema version lives at (0, "version").
type Setting struct {
	UserID int64  `gorm:"column:user_id;primaryKey;autoIncrement:false" json:"userId"`
	Key    string `gorm:"column:key;type:varchar(64);primaryKey" json:"key"`
	Value  string `gorm:"column:value;type:varchar(255)" json:"value"`
}

func (Setting) TableName() string {
	return "system"
}

const (
	SettingVersionKey = "version"

	// GlobalUserID scopes settings and queries that are not bound to a
	// single user.
	GlobalUserID int64 = 0
)
