// Package testutil builds seeded in-memory databases and fixtures for tests.
package testutil

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/issue-tracker-api/internal/authz"
	"github.com/yukikurage/issue-tracker-api/internal/config"
	"github.com/yukikurage/issue-tracker-api/internal/database"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Password is the password of every user made by CreateUser.
const Password = "supersecret"

// Logger discards everything.
func Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// NewDB opens a private in-memory SQLite database with the schema and the
// reference data in place.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	log := Logger()
	db, err := database.Connect(&config.Config{DBDriver: "sqlite", DBPath: ":memory:"}, log)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, database.MigrateDatabase(db, log))
	require.NoError(t, database.Seed(context.Background(), db, database.SeedOptions{}, log))
	return db
}

// CreateUser inserts a user holding roles, with Password as password.
func CreateUser(t testing.TB, db *gorm.DB, email string, roles ...models.RoleID) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{FirstName: "Test", LastName: email, Email: email, PasswordHash: string(hash)}
	require.NoError(t, db.Omit(clause.Associations).Create(user).Error)
	for _, r := range roles {
		require.NoError(t, db.Create(&models.UserRole{UserID: user.ID, RoleID: r}).Error)
	}
	require.NoError(t, db.Preload("Roles").First(user, user.ID).Error)
	return user
}

// Principal is the principal an access token for user would resolve to.
func Principal(user *models.User) authz.Principal {
	return authz.Principal{UserID: user.ID, Roles: user.RoleIDs()}
}

// CreateIssue inserts an issue with its creation history row.
func CreateIssue(t testing.TB, db *gorm.DB, creator *models.User, status models.StatusID, respRole models.RoleID) *models.Issue {
	t.Helper()

	issue := &models.Issue{
		Name:       "Login button does nothing",
		CreatorID:  creator.ID,
		TypeID:     1,
		PriorityID: 2,
		StatusID:   status,
		RespRoleID: respRole,
	}
	if status.IsTerminal() {
		now := time.Now()
		issue.ClosedAt = &now
	}
	require.NoError(t, db.Omit(clause.Associations).Create(issue).Error)
	require.NoError(t, db.Create(&models.StatusHistory{
		IssueID:    issue.ID,
		UserID:     creator.ID,
		StatusID:   status,
		RespRoleID: respRole,
	}).Error)
	return issue
}

// CreateComment inserts a comment by author on issue.
func CreateComment(t testing.TB, db *gorm.DB, issue *models.Issue, author *models.User) *models.Comment {
	t.Helper()

	comment := &models.Comment{Text: "Seeing this too", IssueID: issue.ID, UserID: author.ID}
	require.NoError(t, db.Omit(clause.Associations).Create(comment).Error)
	return comment
}

// CreateDocument records a document row for ref on comment.
func CreateDocument(t testing.TB, db *gorm.DB, comment *models.Comment, ref string) *models.Document {
	t.Helper()

	doc := &models.Document{URL: ref, ContentType: "image/png", Size: 4, CommentID: comment.ID}
	require.NoError(t, db.Omit(clause.Associations).Create(doc).Error)
	return doc
}

// CountHistory counts the status history rows of an issue.
func CountHistory(t testing.TB, db *gorm.DB, issueID uint64) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.StatusHistory{}).Where("issue_id = ?", issueID).Count(&n).Error)
	return n
}
