package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/issue-tracker-api/internal/lifecycle"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/testutil"
	"gorm.io/gorm"
)

func allowComment(*models.Comment, *models.Issue) error { return nil }

func lockedGuard(_ *models.Comment, issue *models.Issue) error {
	return lifecycle.Guard(issue)
}

func TestCommentRepository_CreateHonoursGuard(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommentRepository(db)
	reporter := testutil.CreateUser(t, db, "reporter@example.com", models.RoleReporter)
	open := testutil.CreateIssue(t, db, reporter, models.StatusTriage, models.RoleTriager)
	closed := testutil.CreateIssue(t, db, reporter, models.StatusClosed, models.RoleTriager)

	comment := &models.Comment{Text: "hello", IssueID: open.ID, UserID: reporter.ID}
	require.NoError(t, repo.Create(context.Background(), comment, lifecycle.Guard))
	assert.NotZero(t, comment.ID)

	err := repo.Create(context.Background(), &models.Comment{Text: "late", IssueID: closed.ID, UserID: reporter.ID}, lifecycle.Guard)
	assert.ErrorIs(t, err, lifecycle.ErrStateLocked)

	err = repo.Create(context.Background(), &models.Comment{Text: "lost", IssueID: 404, UserID: reporter.ID}, lifecycle.Guard)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.FindByID(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Equal(t, open.ID, found.Issue.ID)
	assert.Equal(t, reporter.ID, found.User.ID)
}

func TestCommentRepository_DeleteRemovesDocuments(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommentRepository(db)
	reporter := testutil.CreateUser(t, db, "reporter@example.com", models.RoleReporter)
	issue := testutil.CreateIssue(t, db, reporter, models.StatusTriage, models.RoleTriager)
	comment := testutil.CreateComment(t, db, issue, reporter)
	testutil.CreateDocument(t, db, comment, "shot.png")

	refs, err := repo.Delete(context.Background(), comment.ID, allowComment)
	require.NoError(t, err)
	assert.Equal(t, []string{"shot.png"}, refs)

	var docs int64
	db.Model(&models.Document{}).Count(&docs)
	assert.Zero(t, docs)

	_, err = repo.FindByID(context.Background(), comment.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCommentRepository_DeleteOnClosedIssue(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommentRepository(db)
	reporter := testutil.CreateUser(t, db, "reporter@example.com", models.RoleReporter)
	issue := testutil.CreateIssue(t, db, reporter, models.StatusClosed, models.RoleTriager)
	comment := testutil.CreateComment(t, db, issue, reporter)

	_, err := repo.Delete(context.Background(), comment.ID, lockedGuard)
	assert.ErrorIs(t, err, lifecycle.ErrStateLocked)

	_, err = repo.FindByID(context.Background(), comment.ID)
	assert.NoError(t, err)
}

func TestDocumentRepository_Lifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewDocumentRepository(db)
	reporter := testutil.CreateUser(t, db, "reporter@example.com", models.RoleReporter)
	issue := testutil.CreateIssue(t, db, reporter, models.StatusResolving, models.RoleTriager)
	comment := testutil.CreateComment(t, db, issue, reporter)

	docs := []models.Document{{URL: "one.png", ContentType: "image/png"}, {URL: "two.gif", ContentType: "image/gif"}}
	require.NoError(t, repo.CreateBatch(context.Background(), comment.ID, docs, allowComment))
	require.NotZero(t, docs[0].ID)
	assert.Equal(t, comment.ID, docs[1].CommentID)

	found, err := repo.FindByID(context.Background(), docs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, issue.ID, found.Comment.Issue.ID)

	deleted, err := repo.Delete(context.Background(), docs[0].ID, lockedGuard)
	require.NoError(t, err)
	assert.Equal(t, "one.png", deleted.URL)

	_, err = repo.Delete(context.Background(), docs[0].ID, lockedGuard)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// closing the issue locks the remaining attachment
	require.NoError(t, db.Model(&models.Issue{}).Where("id = ?", issue.ID).Update("status_id", models.StatusClosed).Error)
	_, err = repo.Delete(context.Background(), docs[1].ID, lockedGuard)
	assert.ErrorIs(t, err, lifecycle.ErrStateLocked)
}
