package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-api/internal/authz"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/lifecycle"
	"github.com/yukikurage/issue-tracker-api/internal/metrics"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/query"
	"github.com/yukikurage/issue-tracker-api/internal/repository"
	"github.com/yukikurage/issue-tracker-api/internal/storage"
	"gorm.io/gorm/clause"
)

var (
	ErrIssueNotFound  = apierrors.New(apierrors.KindNotFound, "issue not found")
	ErrStatusRequired = apierrors.New(apierrors.KindBadRequest, "status_id is required")
)

// IssueService handles issue related business logic
type IssueService struct {
	issueRepo repository.IssueRepository
	blobs     storage.BlobStore
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
	now       Clock
}

// NewIssueService creates a new IssueService
func NewIssueService(issueRepo repository.IssueRepository, blobs storage.BlobStore, m *metrics.Metrics, log logrus.FieldLogger) *IssueService {
	return &IssueService{
		issueRepo: issueRepo,
		blobs:     blobs,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// CreateIssueInput holds the fields of a new issue
type CreateIssueInput struct {
	Name        string
	Description string
	TypeID      uint64
	PriorityID  uint64
	ProductID   *uint64
	StatusID    *models.StatusID
	RespRoleID  *models.RoleID
}

func snapshotOf(issue *models.Issue) *authz.Snapshot {
	return &authz.Snapshot{OwnerID: issue.CreatorID, RespRoleID: issue.RespRoleID}
}

// visibility restricts a listing to issues the principal created or is
// responsible for.
func visibility(p authz.Principal) clause.Expression {
	creator := clause.Eq{Column: clause.Column{Table: query.Issues.Table, Name: "creator_id"}, Value: p.UserID}
	if len(p.Roles) == 0 {
		return creator
	}
	roles := make([]any, 0, len(p.Roles))
	for _, r := range p.Roles {
		roles = append(roles, r)
	}
	return clause.Or(creator, clause.IN{
		Column: clause.Column{Table: query.Issues.Table, Name: "resp_role_id"},
		Values: roles,
	})
}

// List returns the issues matching params that the principal may see.
func (s *IssueService) List(ctx context.Context, p authz.Principal, params map[string]string) ([]models.Issue, *query.Query, int64, error) {
	if err := authorize(s.metrics, p, authz.IssueList, nil); err != nil {
		return nil, nil, 0, err
	}

	q, err := query.Build(params, query.Issues)
	if err != nil {
		return nil, nil, 0, err
	}
	if !p.IsAdmin() {
		q.And(visibility(p))
	}

	issues, total, err := s.issueRepo.List(ctx, q)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to list issues: %w", err)
	}
	return issues, q, total, nil
}

// Get returns one issue with its relations.
func (s *IssueService) Get(ctx context.Context, p authz.Principal, id uint64) (*models.Issue, error) {
	if err := coarse(s.metrics, p, authz.IssueView); err != nil {
		return nil, err
	}

	issue, err := s.issueRepo.FindByID(ctx, id, repository.IssueDetailPreloads...)
	if err != nil {
		return nil, fail(err, ErrIssueNotFound, "find issue")
	}
	if err := authorize(s.metrics, p, authz.IssueView, snapshotOf(issue)); err != nil {
		return nil, err
	}
	return issue, nil
}

// Create inserts an issue owned by the principal together with its first
// history row.
func (s *IssueService) Create(ctx context.Context, p authz.Principal, input CreateIssueInput) (*models.Issue, error) {
	if err := authorize(s.metrics, p, authz.IssueCreate, nil); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, lifecycle.ErrNameRequired
	}
	if input.StatusID == nil {
		return nil, ErrStatusRequired
	}

	respRole := models.RoleTriager
	if input.RespRoleID != nil {
		respRole = *input.RespRoleID
	}

	issue := &models.Issue{
		Name:        name,
		Description: input.Description,
		CreatorID:   p.UserID,
		TypeID:      input.TypeID,
		PriorityID:  input.PriorityID,
		ProductID:   input.ProductID,
		StatusID:    *input.StatusID,
		RespRoleID:  respRole,
	}
	initial, err := lifecycle.Initial(issue, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.issueRepo.Create(ctx, issue, initial); err != nil {
		return nil, fail(err, ErrUnknownReference, "create issue")
	}
	s.metrics.ObserveTransition(issue.StatusID)

	return s.reload(ctx, issue.ID)
}

// Update applies change to the issue under a row lock. The fine check and
// the Closed guard run against the locked row, so a concurrent close cannot
// slip between check and write.
func (s *IssueService) Update(ctx context.Context, p authz.Principal, id uint64, change lifecycle.Change) (*models.Issue, error) {
	if err := coarse(s.metrics, p, authz.IssueUpdate); err != nil {
		return nil, err
	}

	var transition *models.StatusHistory
	_, err := s.issueRepo.Update(ctx, id, func(issue *models.Issue) (*models.StatusHistory, error) {
		if err := authorize(s.metrics, p, authz.IssueUpdate, snapshotOf(issue)); err != nil {
			return nil, err
		}
		history, err := lifecycle.Apply(issue, change, p.UserID, s.now())
		transition = history
		return history, err
	})
	if err != nil {
		return nil, fail(err, ErrIssueNotFound, "update issue")
	}

	if transition != nil {
		s.metrics.ObserveTransition(transition.StatusID)
		s.log.WithFields(logrus.Fields{
			"issue_id": id,
			"user_id":  p.UserID,
			"status":   transition.StatusID.String(),
		}).Info("issue status changed")
	}
	return s.reload(ctx, id)
}

// Delete removes the issue with its comments, attachments and history, then
// removes the attachment files.
func (s *IssueService) Delete(ctx context.Context, p authz.Principal, id uint64) error {
	if err := coarse(s.metrics, p, authz.IssueDelete); err != nil {
		return err
	}

	refs, err := s.issueRepo.Delete(ctx, id, func(issue *models.Issue) error {
		return authorize(s.metrics, p, authz.IssueDelete, snapshotOf(issue))
	})
	if err != nil {
		return fail(err, ErrIssueNotFound, "delete issue")
	}

	removeBlobs(ctx, s.blobs, s.metrics, s.log, refs)
	return nil
}

// History lists the status transitions of an issue, oldest first.
func (s *IssueService) History(ctx context.Context, p authz.Principal, id uint64) ([]models.StatusHistory, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	history, err := s.issueRepo.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return history, nil
}

func (s *IssueService) reload(ctx context.Context, id uint64) (*models.Issue, error) {
	issue, err := s.issueRepo.FindByID(ctx, id, repository.IssueDetailPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload issue: %w", err)
	}
	return issue, nil
}

// removeBlobs deletes files whose rows are already gone. Failures are
// logged; the rows are not coming back.
func removeBlobs(ctx context.Context, blobs storage.BlobStore, m *metrics.Metrics, log logrus.FieldLogger, refs []string) {
	for _, ref := range refs {
		err := blobs.Delete(ctx, ref)
		m.ObserveBlob("delete", err)
		if err != nil {
			log.WithError(err).WithField("ref", ref).Warn("failed to remove attachment file")
		}
	}
}
