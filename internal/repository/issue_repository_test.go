package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/issue-tracker-api/internal/lifecycle"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/query"
	"github.com/yukikurage/issue-tracker-api/internal/testutil"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestIssueRepository_CreateWritesInitialHistory(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIssueRepository(db)
	reporter := testutil.CreateUser(t, db, "reporter@example.com", models.RoleReporter)

	issue := &models.Issue{
		Name:       "Crash on save",
		CreatorID:  reporter.ID,
		TypeID:     1,
		PriorityID: 1,
		StatusID:   models.StatusTriage,
		RespRoleID: models.RoleTriager,
	}
	initial, err := lifecycle.Initial(issue, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), issue, initial))
	require.NotZero(t, issue.ID)

	history, err := repo.History(context.Background(), issue.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusTriage, history[0].StatusID)
	assert.Equal(t, reporter.ID, history[0].User.ID)
}

func TestIssueRepository_CreateRollsBackOnBadReference(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIssueRepository(db)
	reporter := testutil.CreateUser(t, db, "reporter@example.com", models.RoleReporter)

	issue := &models.Issue{
		Name:       "Unknown type",
		CreatorID:  reporter.ID,
		TypeID:     999,
		PriorityID: 1,
		StatusID:   models.StatusTriage,
		RespRoleID: models.RoleTriager,
	}
	initial, err := lifecycle.Initial(issue, time.Now())
	require.NoError(t, err)

	err = repo.Create(context.Background(), issue, initial)
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrForeignKeyViolated)

	var issues, rows int64
	db.Model(&models.Issue{}).Count(&issues)
	db.Model(&models.StatusHistory{}).Count(&rows)
	assert.Zero(t, issues)
	assert.Zero(t, rows)
}

func TestIssueRepository_UpdateAppendsHistory(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIssueRepository(db)
	reporter := testutil.CreateUser(t, db, "reporter@example.com", models.RoleReporter)
	issue := testutil.CreateIssue(t, db, reporter, models.StatusTriage, models.RoleTriager)

	status := models.StatusResolving
	updated, err := repo.Update(context.Background(), issue.ID, func(locked *models.Issue) (*models.StatusHistory, error) {
		return lifecycle.Apply(locked, lifecycle.Change{StatusID: &status}, reporter.ID, time.Now())
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolving, updated.StatusID)
	assert.Equal(t, int64(2), testutil.CountHistory(t, db, issue.ID))

	history, err := repo.History(context.Background(), issue.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StatusTriage, history[0].StatusID)
	assert.Equal(t, models.StatusResolving, history[1].StatusID)
}

func TestIssueRepository_UpdateAbortsOnMutationError(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIssueRepository(db)
	reporter := testutil.CreateUser(t, db, "reporter@example.com", models.RoleReporter)
	issue := testutil.CreateIssue(t, db, reporter, models.StatusClosed, models.RoleTriager)

	name := "renamed"
	_, err := repo.Update(context.Background(), issue.ID, func(locked *models.Issue) (*models.StatusHistory, error) {
		return lifecycle.Apply(locked, lifecycle.Change{Name: &name}, reporter.ID, time.Now())
	})
	require.ErrorIs(t, err, lifecycle.ErrStateLocked)

	var stored models.Issue
	require.NoError(t, db.First(&stored, issue.ID).Error)
	assert.Equal(t, issue.Name, stored.Name)
	assert.Equal(t, int64(1), testutil.CountHistory(t, db, issue.ID))
}

func TestIssueRepository_UpdateMissing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIssueRepository(db)

	_, err := repo.Update(context.Background(), 404, func(*models.Issue) (*models.StatusHistory, error) {
		t.Fatal("mutate must not run for a missing issue")
		return nil, nil
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestIssueRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIssueRepository(db)
	reporter := testutil.CreateUser(t, db, "reporter@example.com", models.RoleReporter)
	issue := testutil.CreateIssue(t, db, reporter, models.StatusTriage, models.RoleTriager)
	other := testutil.CreateIssue(t, db, reporter, models.StatusTriage, models.RoleTriager)

	comment := testutil.CreateComment(t, db, issue, reporter)
	testutil.CreateDocument(t, db, comment, "a.png")
	testutil.CreateDocument(t, db, comment, "b.png")
	kept := testutil.CreateComment(t, db, other, reporter)
	testutil.CreateDocument(t, db, kept, "c.png")

	refs, err := repo.Delete(context.Background(), issue.ID, func(*models.Issue) error { return nil })
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.png", "b.png"}, refs)

	var issues, comments, docs int64
	db.Model(&models.Issue{}).Count(&issues)
	db.Model(&models.Comment{}).Count(&comments)
	db.Model(&models.Document{}).Count(&docs)
	assert.Equal(t, int64(1), issues)
	assert.Equal(t, int64(1), comments)
	assert.Equal(t, int64(1), docs)
	assert.Zero(t, testutil.CountHistory(t, db, issue.ID))
}

func TestIssueRepository_DeleteGuard(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIssueRepository(db)
	reporter := testutil.CreateUser(t, db, "reporter@example.com", models.RoleReporter)
	issue := testutil.CreateIssue(t, db, reporter, models.StatusTriage, models.RoleTriager)

	denied := errors.New("denied")
	_, err := repo.Delete(context.Background(), issue.ID, func(*models.Issue) error { return denied })
	require.ErrorIs(t, err, denied)

	var n int64
	db.Model(&models.Issue{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestIssueRepository_List(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIssueRepository(db)
	reporter := testutil.CreateUser(t, db, "reporter@example.com", models.RoleReporter)
	testutil.CreateIssue(t, db, reporter, models.StatusTriage, models.RoleTriager)
	testutil.CreateIssue(t, db, reporter, models.StatusClarify, models.RoleTriager)
	testutil.CreateIssue(t, db, reporter, models.StatusClosed, models.RoleBackend)

	q, err := query.Build(map[string]string{"status_id": "1,3", "limit": "1"}, query.Issues)
	require.NoError(t, err)

	issues, total, err := repo.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, issues, 1)
	assert.Equal(t, reporter.ID, issues[0].Creator.ID)
	assert.NotEmpty(t, issues[0].Status.Name)
}

// newMockDB opens GORM on sqlmock through the MySQL dialector, so the
// statements carry FOR UPDATE.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

var issueColumns = []string{
	"id", "issue_name", "issue_desc", "created_at", "updated_at", "closed_at",
	"creator_id", "type_id", "status_id", "product_id", "priority_id", "resp_role_id",
}

func issueRow(status models.StatusID) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(issueColumns).
		AddRow(1, "Crash on save", "", now, now, nil, 7, 1, uint64(status), nil, 2, uint64(models.RoleTriager))
}

func TestIssueRepository_UpdateLocksThenWritesInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIssueRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `issues` WHERE `issues`.`id` = ?") + ".*FOR UPDATE").
		WillReturnRows(issueRow(models.StatusTriage))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `issues` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `status_history`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	status := models.StatusVerify
	updated, err := repo.Update(context.Background(), 1, func(locked *models.Issue) (*models.StatusHistory, error) {
		return lifecycle.Apply(locked, lifecycle.Change{StatusID: &status}, 7, time.Now())
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerify, updated.StatusID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueRepository_UpdateOnClosedRollsBackWithoutWrites(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIssueRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `issues` WHERE `issues`.`id` = ?") + ".*FOR UPDATE").
		WillReturnRows(issueRow(models.StatusClosed))
	mock.ExpectRollback()

	status := models.StatusTriage
	_, err := repo.Update(context.Background(), 1, func(locked *models.Issue) (*models.StatusHistory, error) {
		return lifecycle.Apply(locked, lifecycle.Change{StatusID: &status}, 7, time.Now())
	})
	require.ErrorIs(t, err, lifecycle.ErrStateLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
