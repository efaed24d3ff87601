package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/issue-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentRepository is a GORM implementation of DocumentRepository
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &GormDocumentRepository{db: db}
}

// CreateBatch inserts docs for a comment under the parent issue's lock
func (r *GormDocumentRepository) CreateBatch(ctx context.Context, commentID uint64, docs []models.Document, guard CommentGuard) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comment, issue, err := lockComment(tx, commentID)
		if err != nil {
			return err
		}
		if err := guard(comment, issue); err != nil {
			return err
		}
		for i := range docs {
			docs[i].CommentID = commentID
		}
		if err := tx.Omit(clause.Associations).Create(&docs).Error; err != nil {
			return fmt.Errorf("create documents: %w", err)
		}
		return nil
	})
}

// FindByID finds a document with its comment and the comment's issue
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uint64) (*models.Document, error) {
	var doc models.Document
	if err := r.db.WithContext(ctx).
		Preload("Comment").
		Preload("Comment.Issue").
		First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete removes the document row under the parent issue's lock. The blob
// is left to the caller.
func (r *GormDocumentRepository) Delete(ctx context.Context, id uint64, guard CommentGuard) (*models.Document, error) {
	var deleted models.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.First(&doc, id).Error; err != nil {
			return err
		}
		comment, issue, err := lockComment(tx, doc.CommentID)
		if err != nil {
			return err
		}
		if err := guard(comment, issue); err != nil {
			return err
		}
		res := tx.Delete(&models.Document{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		deleted = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}
