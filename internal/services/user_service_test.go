package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/testutil"
	"golang.org/x/crypto/bcrypt"
)

func strPtr(s string) *string { return &s }

func TestUserService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.Principal(testutil.CreateUser(t, f.db, "admin@example.com", models.RoleAdmin))

	user, err := f.users.Create(ctx, admin, CreateUserInput{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Password:  "cobol-rules",
		RoleIDs:   []models.RoleID{models.RoleBackend, models.RoleTriager},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.RoleID{models.RoleBackend, models.RoleTriager}, user.RoleIDs())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("cobol-rules")))

	valid := CreateUserInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	cases := map[string]struct {
		mutate func(in *CreateUserInput)
		want   error
	}{
		"taken email":    {func(in *CreateUserInput) { in.Email = "grace@example.com" }, ErrEmailTaken},
		"missing email":  {func(in *CreateUserInput) { in.Email = " " }, ErrEmailRequired},
		"missing name":   {func(in *CreateUserInput) { in.LastName = "" }, ErrNameRequired},
		"short password": {func(in *CreateUserInput) { in.Password = "short" }, ErrPasswordTooShort},
		"unknown role":   {func(in *CreateUserInput) { in.RoleIDs = []models.RoleID{models.RoleReporter, 4242} }, ErrUnknownRole},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, err := f.users.Create(ctx, admin, in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	reporter := testutil.Principal(testutil.CreateUser(t, f.db, "reporter@example.com", models.RoleReporter))
	_, err = f.users.Create(ctx, reporter, valid)
	assert.Equal(t, apierrors.KindForbidden, apierrors.KindOf(err))
}

func TestUserService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.Principal(testutil.CreateUser(t, f.db, "admin@example.com", models.RoleAdmin))
	user := testutil.CreateUser(t, f.db, "ada@example.com", models.RoleReporter, models.RoleFrontend)
	testutil.CreateUser(t, f.db, "grace@example.com", models.RoleBackend)

	updated, err := f.users.Update(ctx, admin, user.ID, UpdateUserInput{FirstName: strPtr("Augusta")})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Len(t, updated.Roles, 2)

	updated, err = f.users.Update(ctx, admin, user.ID, UpdateUserInput{RoleIDs: []models.RoleID{models.RoleDevOps}})
	require.NoError(t, err)
	assert.Equal(t, []models.RoleID{models.RoleDevOps}, updated.RoleIDs())

	// keeping one's own address is not a conflict
	_, err = f.users.Update(ctx, admin, user.ID, UpdateUserInput{Email: strPtr("ada@example.com")})
	assert.NoError(t, err)

	_, err = f.users.Update(ctx, admin, user.ID, UpdateUserInput{Email: strPtr("grace@example.com")})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.users.Update(ctx, admin, user.ID, UpdateUserInput{FirstName: strPtr(" ")})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = f.users.Update(ctx, admin, 404, UpdateUserInput{FirstName: strPtr("Nobody")})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.Principal(testutil.CreateUser(t, f.db, "admin@example.com", models.RoleAdmin))
	idle := testutil.CreateUser(t, f.db, "idle@example.com", models.RoleReporter)
	busy := testutil.CreateUser(t, f.db, "busy@example.com", models.RoleReporter)
	testutil.CreateIssue(t, f.db, busy, models.StatusTriage, models.RoleTriager)

	require.NoError(t, f.users.Delete(ctx, admin, idle.ID))
	_, err := f.users.Get(ctx, admin, idle.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.ErrorIs(t, f.users.Delete(ctx, admin, busy.ID), ErrUserInUse)
	_, err = f.users.Get(ctx, admin, busy.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, f.users.Delete(ctx, admin, idle.ID), ErrUserNotFound)
}

func TestUserService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reporter := testutil.Principal(testutil.CreateUser(t, f.db, "reporter@example.com", models.RoleReporter))
	testutil.CreateUser(t, f.db, "grace@example.com", models.RoleBackend)

	users, q, total, err := f.users.List(ctx, reporter, map[string]string{"sortBy": "email", "limit": "1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, 1, q.Limit)
	require.Len(t, users, 1)
	assert.Equal(t, "grace@example.com", users[0].Email)

	_, _, _, err = f.users.List(ctx, reporter, map[string]string{"password": "x"})
	assert.Equal(t, apierrors.KindBadRequest, apierrors.KindOf(err))
}
