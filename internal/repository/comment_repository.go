package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/issue-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

// Create inserts the comment while holding the parent issue's lock
func (r *GormCommentRepository) Create(ctx context.Context, comment *models.Comment, guard IssueGuard) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		issue, err := lockIssue(tx, comment.IssueID)
		if err != nil {
			return err
		}
		if err := guard(issue); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		return nil
	})
}

// FindByID finds a comment with its issue and documents
func (r *GormCommentRepository) FindByID(ctx context.Context, id uint64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).
		Preload("Issue").
		Preload("User").
		Preload("Documents").
		First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete removes the comment and its documents under the issue lock
func (r *GormCommentRepository) Delete(ctx context.Context, id uint64, guard CommentGuard) ([]string, error) {
	var refs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comment, issue, err := lockComment(tx, id)
		if err != nil {
			return err
		}
		if err := guard(comment, issue); err != nil {
			return err
		}

		if err := tx.Model(&models.Document{}).
			Where("comment_id = ?", id).
			Pluck("document_url", &refs).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id = ?", id).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Comment{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// lockComment loads a comment and locks its parent issue. The comment is
// re-read after the lock so a concurrent delete is observed.
func lockComment(tx *gorm.DB, id uint64) (*models.Comment, *models.Issue, error) {
	var comment models.Comment
	if err := tx.First(&comment, id).Error; err != nil {
		return nil, nil, err
	}
	issue, err := lockIssue(tx, comment.IssueID)
	if err != nil {
		return nil, nil, err
	}
	var current models.Comment
	if err := tx.First(&current, id).Error; err != nil {
		return nil, nil, err
	}
	return &current, issue, nil
}
