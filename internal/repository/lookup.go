package repository

import "gorm.io/gorm"

// findOptional returns the first row matched by query, or nil when none
// matches. Absence is a normal answer here, so the lookup goes through Find
// and gorm never reports ErrRecordNotFound for it.
func findOptional[T any](query *gorm.DB) (*T, error) {
	var rows []T
	if err := query.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
