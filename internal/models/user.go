package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a person who tracks time. A disabled user keeps their ledger rows
// and timesheets but can no longer log in.
type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Disabled     bool           `gorm:"not null;default:false" json:"disabled"`
	LastLoginAt  *time.Time     `json:"last_login_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	AssignedTasks []Task               `gorm:"foreignKey:AssignedTo" json:"-"`
	Organizations []OrganizationMember `gorm:"foreignKey:UserID" json:"-"`
	Timesheets    []Timesheet          `gorm:"foreignKey:UserID" json:"-"`
	TimeLogs      []TaskTimeLog        `gorm:"foreignKey:UserID" json:"-"`
}
