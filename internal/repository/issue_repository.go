package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IssueDetailPreloads are the relations returned with a single issue.
var IssueDetailPreloads = []string{"Creator", "Type", "Status", "Product", "Priority", "RespRole", "Comments", "Comments.User", "Comments.Documents"}

// GormIssueRepository is a GORM implementation of IssueRepository
type GormIssueRepository struct {
	db *gorm.DB
}

// NewIssueRepository creates a new IssueRepository
func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &GormIssueRepository{db: db}
}

// Create inserts the issue and its initial history row atomically
func (r *GormIssueRepository) Create(ctx context.Context, issue *models.Issue, initial *models.StatusHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(issue).Error; err != nil {
			return fmt.Errorf("create issue: %w", err)
		}
		initial.IssueID = issue.ID
		if err := tx.Create(initial).Error; err != nil {
			return fmt.Errorf("create initial history: %w", err)
		}
		return nil
	})
}

// FindByID finds an issue by ID with optional preloading
func (r *GormIssueRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Issue, error) {
	var issue models.Issue
	q := r.db.WithContext(ctx)

	for _, p := range preload {
		q = q.Preload(p)
	}

	if err := q.First(&issue, id).Error; err != nil {
		return nil, err
	}

	return &issue, nil
}

// List retrieves issues matching q with the total match count
func (r *GormIssueRepository) List(ctx context.Context, q *query.Query) ([]models.Issue, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Issue{})

	var total int64
	if err := base.Scopes(q.Filter()).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	issues := []models.Issue{}
	if err := r.db.WithContext(ctx).
		Scopes(q.Scope()).
		Preload("Creator").
		Preload("Status").
		Preload("Type").
		Preload("Priority").
		Preload("Product").
		Preload("RespRole").
		Find(&issues).Error; err != nil {
		return nil, 0, err
	}

	return issues, total, nil
}

// Update runs mutate on the locked row and persists the result together
// with the history row it produced. Nothing is written if mutate fails.
func (r *GormIssueRepository) Update(ctx context.Context, id uint64, mutate IssueMutation) (*models.Issue, error) {
	var updated *models.Issue
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		issue, err := lockIssue(tx, id)
		if err != nil {
			return err
		}

		history, err := mutate(issue)
		if err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Save(issue).Error; err != nil {
			return fmt.Errorf("save issue: %w", err)
		}
		if history != nil {
			if err := tx.Create(history).Error; err != nil {
				return fmt.Errorf("append history: %w", err)
			}
		}

		updated = issue
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete hard deletes the issue and everything hanging off it
func (r *GormIssueRepository) Delete(ctx context.Context, id uint64, guard IssueGuard) ([]string, error) {
	var refs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		issue, err := lockIssue(tx, id)
		if err != nil {
			return err
		}
		if err := guard(issue); err != nil {
			return err
		}

		comments := func() *gorm.DB {
			return tx.Model(&models.Comment{}).Select("id").Where("issue_id = ?", id)
		}
		if err := tx.Model(&models.Document{}).
			Where("comment_id IN (?)", comments()).
			Pluck("document_url", &refs).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN (?)", comments()).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("issue_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("issue_id = ?", id).Delete(&models.StatusHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Issue{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// History lists an issue's transitions, oldest first
func (r *GormIssueRepository) History(ctx context.Context, issueID uint64) ([]models.StatusHistory, error) {
	history := []models.StatusHistory{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Status").
		Preload("RespRole").
		Where("issue_id = ?", issueID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&history).Error
	return history, err
}
