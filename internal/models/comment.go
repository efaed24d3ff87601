package models

import (
	"time"
)

type Comment struct {
	ID        uint64    `gorm:"primarykey" json:"comment_id"`
	Text      string    `gorm:"column:comment_text;type:text;not null" json:"comment_text"`
	CreatedAt time.Time `json:"created_at"`
	IssueID   uint64    `gorm:"not null;index" json:"issue_id"`
	UserID    uint64    `gorm:"not null" json:"user_id"`

	// Relations
	Issue     Issue      `gorm:"foreignKey:IssueID" json:"-"`
	User      User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Documents []Document `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

// Document is a file attached to a comment. URL holds the BlobStore ref.
type Document struct {
	ID          uint64    `gorm:"primarykey" json:"document_id"`
	URL         string    `gorm:"column:document_url;type:varchar(512);not null" json:"document_url"`
	ContentType string    `gorm:"type:varchar(100)" json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	CommentID   uint64    `gorm:"not null;index" json:"comment_id"`

	// Relations
	Comment Comment `gorm:"foreignKey:CommentID" json:"-"`
}
