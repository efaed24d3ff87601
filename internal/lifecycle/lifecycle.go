// Package lifecycle guards issue state transitions and produces the status
// history record that must be written with each accepted change.
package lifecycle

import (
	"time"

	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/models"
)

var (
	ErrStateLocked  = apierrors.New(apierrors.KindStateLocked, "issue is closed and cannot be modified")
	ErrInvalidState = apierrors.New(apierrors.KindInvalidState, "status is not one of the known states")
	ErrNameRequired = apierrors.New(apierrors.KindBadRequest, "issue_name cannot be empty")
)

// Change is a partial issue update. Nil fields are left untouched.
type Change struct {
	Name        *string
	Description *string
	TypeID      *uint64
	PriorityID  *uint64
	ProductID   *uint64
	RespRoleID  *models.RoleID
	StatusID    *models.StatusID
}

// Guard rejects any mutation of a closed issue.
func Guard(issue *models.Issue) error {
	if issue.IsClosed() {
		return ErrStateLocked
	}
	return nil
}

// Apply validates change against issue and writes it in place. When the
// status changes it returns the history row to append in the same
// transaction; otherwise the returned row is nil. issue is not modified when
// an error is returned.
func Apply(issue *models.Issue, change Change, actorID uint64, now time.Time) (*models.StatusHistory, error) {
	if err := Guard(issue); err != nil {
		return nil, err
	}
	if change.StatusID != nil && !change.StatusID.Valid() {
		return nil, ErrInvalidState
	}
	if change.Name != nil && *change.Name == "" {
		return nil, ErrNameRequired
	}

	if change.Name != nil {
		issue.Name = *change.Name
	}
	if change.Description != nil {
		issue.Description = *change.Description
	}
	if change.TypeID != nil {
		issue.TypeID = *change.TypeID
	}
	if change.PriorityID != nil {
		issue.PriorityID = *change.PriorityID
	}
	if change.ProductID != nil {
		issue.ProductID = change.ProductID
	}
	if change.RespRoleID != nil {
		issue.RespRoleID = *change.RespRoleID
	}

	if change.StatusID == nil || *change.StatusID == issue.StatusID {
		return nil, nil
	}

	issue.StatusID = *change.StatusID
	if issue.StatusID.IsTerminal() {
		closedAt := now
		issue.ClosedAt = &closedAt
	} else {
		issue.ClosedAt = nil
	}

	return &models.StatusHistory{
		CreatedAt:  now,
		IssueID:    issue.ID,
		UserID:     actorID,
		StatusID:   issue.StatusID,
		RespRoleID: issue.RespRoleID,
	}, nil
}

// Initial validates a new issue's state and returns its first history row.
// The row's IssueID is filled in once the issue has been inserted.
func Initial(issue *models.Issue, now time.Time) (*models.StatusHistory, error) {
	if !issue.StatusID.Valid() {
		return nil, ErrInvalidState
	}
	if issue.StatusID.IsTerminal() {
		closedAt := now
		issue.ClosedAt = &closedAt
	} else {
		issue.ClosedAt = nil
	}
	return &models.StatusHistory{
		CreatedAt:  now,
		UserID:     issue.CreatorID,
		StatusID:   issue.StatusID,
		RespRoleID: issue.RespRoleID,
	}, nil
}
