package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-api/internal/authz"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/lifecycle"
	"github.com/yukikurage/issue-tracker-api/internal/metrics"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/repository"
	"github.com/yukikurage/issue-tracker-api/internal/storage"
)

var (
	ErrCommentNotFound     = apierrors.New(apierrors.KindNotFound, "comment not found")
	ErrCommentTextRequired = apierrors.New(apierrors.KindBadRequest, "comment_text cannot be empty")
)

// CommentService handles comment related business logic
type CommentService struct {
	commentRepo repository.CommentRepository
	blobs       storage.BlobStore
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repository.CommentRepository, blobs storage.BlobStore, m *metrics.Metrics, log logrus.FieldLogger) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		blobs:       blobs,
		metrics:     m,
		log:         log,
	}
}

// CreateCommentInput holds the fields of a new comment
type CreateCommentInput struct {
	IssueID uint64
	Text    string
}

// Create adds a comment authored by the principal. The parent issue must not
// be closed.
func (s *CommentService) Create(ctx context.Context, p authz.Principal, input CreateCommentInput) (*models.Comment, error) {
	if err := authorize(s.metrics, p, authz.CommentCreate, nil); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, ErrCommentTextRequired
	}

	comment := &models.Comment{
		Text:    input.Text,
		IssueID: input.IssueID,
		UserID:  p.UserID,
	}
	if err := s.commentRepo.Create(ctx, comment, lifecycle.Guard); err != nil {
		return nil, fail(err, ErrIssueNotFound, "create comment")
	}

	created, err := s.commentRepo.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, fail(err, ErrCommentNotFound, "reload comment")
	}
	return created, nil
}

// Get returns one comment with its documents.
func (s *CommentService) Get(ctx context.Context, p authz.Principal, id uint64) (*models.Comment, error) {
	if err := coarse(s.metrics, p, authz.IssueView); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(err, ErrCommentNotFound, "find comment")
	}
	if err := authorize(s.metrics, p, authz.IssueView, snapshotOf(&comment.Issue)); err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete removes a comment and its attachments. Only the author or an admin
// may do so, and only while the issue is open.
func (s *CommentService) Delete(ctx context.Context, p authz.Principal, id uint64) error {
	if err := coarse(s.metrics, p, authz.CommentDelete); err != nil {
		return err
	}

	refs, err := s.commentRepo.Delete(ctx, id, func(comment *models.Comment, issue *models.Issue) error {
		if err := authorize(s.metrics, p, authz.CommentDelete, &authz.Snapshot{OwnerID: comment.UserID}); err != nil {
			return err
		}
		return lifecycle.Guard(issue)
	})
	if err != nil {
		return fail(err, ErrCommentNotFound, "delete comment")
	}

	removeBlobs(ctx, s.blobs, s.metrics, s.log, refs)
	return nil
}
