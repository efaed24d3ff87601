package models

import (
	"time"
)

// StatusHistory is an append-only record of one status transition. Rows are
// never updated or deleted except by the cascade from their issue.
type StatusHistory struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	IssueID    uint64    `gorm:"not null;index" json:"issue_id"`
	UserID     uint64    `gorm:"not null" json:"user_id"`
	StatusID   StatusID  `gorm:"not null" json:"status_id"`
	RespRoleID RoleID    `gorm:"not null" json:"resp_role_id"`

	// Relations
	User     User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status   Status `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	RespRole Role   `gorm:"foreignKey:RespRoleID" json:"resp_role,omitempty"`
}

func (StatusHistory) TableName() string {
	return "status_history"
}
