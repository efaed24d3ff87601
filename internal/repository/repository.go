package repository

import (
	"context"

	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/query"
)

// IssueGuard inspects a locked issue and aborts the transaction by
// returning an error.
type IssueGuard func(issue *models.Issue) error

// IssueMutation edits a locked issue in place and returns the history row to
// append, or nil when no transition happened.
type IssueMutation func(issue *models.Issue) (*models.StatusHistory, error)

// CommentGuard inspects a comment and its locked parent issue.
type CommentGuard func(comment *models.Comment, issue *models.Issue) error

// IssueRepository defines the interface for issue data access
type IssueRepository interface {
	// Create inserts an issue and its initial history row atomically
	Create(ctx context.Context, issue *models.Issue, initial *models.StatusHistory) error

	// FindByID finds an issue by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Issue, error)

	// List retrieves issues matching q, with the total match count
	List(ctx context.Context, q *query.Query) ([]models.Issue, int64, error)

	// Update locks the issue row, runs mutate, then saves the issue and the
	// returned history row in the same transaction
	Update(ctx context.Context, id uint64, mutate IssueMutation) (*models.Issue, error)

	// Delete locks the issue, runs guard, and hard deletes it with its
	// comments, documents and history. It returns the blob refs of the
	// deleted documents.
	Delete(ctx context.Context, id uint64, guard IssueGuard) ([]string, error)

	// History lists an issue's status history, oldest first
	History(ctx context.Context, issueID uint64) ([]models.StatusHistory, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create locks the parent issue, runs guard, and inserts the comment
	Create(ctx context.Context, comment *models.Comment, guard IssueGuard) error

	// FindByID finds a comment with its issue and documents
	FindByID(ctx context.Context, id uint64) (*models.Comment, error)

	// Delete locks the parent issue, runs guard, and deletes the comment and
	// its documents. It returns the blob refs of the deleted documents.
	Delete(ctx context.Context, id uint64, guard CommentGuard) ([]string, error)
}

// DocumentRepository defines the interface for attachment data access
type DocumentRepository interface {
	// CreateBatch locks the parent issue, runs guard, and inserts docs
	CreateBatch(ctx context.Context, commentID uint64, docs []models.Document, guard CommentGuard) error

	// FindByID finds a document with its comment and the comment's issue
	FindByID(ctx context.Context, id uint64) (*models.Document, error)

	// Delete locks the parent issue, runs guard, and deletes the row
	Delete(ctx context.Context, id uint64, guard CommentGuard) (*models.Document, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a user and its role links
	Create(ctx context.Context, user *models.User, roleIDs []models.RoleID) error

	// FindByID finds a user by ID with roles
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email with roles
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByRefreshToken finds the user holding a refresh token hash
	FindByRefreshToken(ctx context.Context, hash string) (*models.User, error)

	// List retrieves users matching q, with the total match count
	List(ctx context.Context, q *query.Query) ([]models.User, int64, error)

	// Update saves profile fields and, when roleIDs is non-nil, replaces the
	// role set in the same transaction
	Update(ctx context.Context, user *models.User, roleIDs []models.RoleID) error

	// SetRefreshToken overwrites the stored refresh token hash
	SetRefreshToken(ctx context.Context, userID uint64, hash string) error

	// Delete deletes a user
	Delete(ctx context.Context, id uint64) error

	// CountRoles counts how many of the given role IDs exist
	CountRoles(ctx context.Context, roleIDs []models.RoleID) (int64, error)
}

// LookupRepository reads the fixed reference tables
type LookupRepository interface {
	Statuses(ctx context.Context) ([]models.Status, error)
	Priorities(ctx context.Context) ([]models.Priority, error)
	Types(ctx context.Context) ([]models.IssueType, error)
	Roles(ctx context.Context) ([]models.Role, error)
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uint64) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint64) error
}
