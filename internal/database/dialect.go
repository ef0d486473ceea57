package database

import (
	"fmt"

	"gorm.io/gorm"
)

// MonthExpr returns the dialect's expression formatting a timestamp column
// as "YYYY-MM".
func MonthExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == DriverSQLite {
		return fmt.Sprintf("strftime('%%Y-%%m', %s)", column)
	}
	return fmt.Sprintf("to_char(%s, 'YYYY-MM')", column)
}

// NoLimit returns the dialect's "no limit" LIMIT operand. SQLite requires a
// LIMIT clause before OFFSET, so an offset without a row cap still has to
// emit one.
func NoLimit(db *gorm.DB) string {
	if db.Dialector.Name() == DriverSQLite {
		return "-1"
	}
	return "ALL"
}
