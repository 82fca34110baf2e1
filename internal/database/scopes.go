package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/timesheet-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// LedgerOrder orders task_time_logs rows in the order they were appended.
func LedgerOrder(db *gorm.DB) *gorm.DB {
	return db.Order("task_time_logs.created_at ASC").Order("task_time_logs.id ASC")
}
