package models

import (
	"time"
)

type Issue struct {
	ID          uint64     `gorm:"primarykey" json:"issue_id"`
	Name        string     `gorm:"column:issue_name;type:varchar(255);not null" json:"issue_name"`
	Description string     `gorm:"column:issue_desc;type:text" json:"issue_desc"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ClosedAt    *time.Time `json:"closed_at"`
	CreatorID   uint64     `gorm:"not null;index" json:"creator_id"`
	TypeID      uint64     `gorm:"not null" json:"type_id"`
	StatusID    StatusID   `gorm:"not null;index" json:"status_id"`
	ProductID   *uint64    `json:"product_id"`
	PriorityID  uint64     `gorm:"not null" json:"priority_id"`
	RespRoleID  RoleID     `gorm:"not null;index" json:"resp_role_id"`

	// Relations
	Creator  User            `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Type     IssueType       `gorm:"foreignKey:TypeID" json:"type,omitempty"`
	Status   Status          `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	Product  *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL" json:"product,omitempty"`
	Priority Priority        `gorm:"foreignKey:PriorityID" json:"priority,omitempty"`
	RespRole Role            `gorm:"foreignKey:RespRoleID" json:"resp_role,omitempty"`
	Comments []Comment       `gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	History  []StatusHistory `gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsClosed reports whether the issue sits in the terminal state.
func (i Issue) IsClosed() bool {
	return i.StatusID.IsTerminal()
}
