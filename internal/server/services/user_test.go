package services

import (
	"context"
	"testing"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/dmaltsev/tasklist/internal/server/auth"
	"github.com/dmaltsev/tasklist/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture(t *testing.T) (*UserService, *fakeRepoManager) {
	t.Helper()
	rm := newFakeRepoManager()
	svc := NewUserService(nil, rm, discardLogger())
	svc.withTx = passthroughTx
	return svc, rm
}

func seedAccount(t *testing.T, rm *fakeRepoManager, email, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return rm.u.add(&models.User{Email: email, Password: hash, UserName: "alice", Role: models.RoleUser})
}

func TestGetDetail(t *testing.T) {
	svc, rm := newUserFixture(t)
	user := seedAccount(t, rm, "a@example.com", "Passw0rd!")

	got, err := svc.GetDetail(context.Background(), user.UserNo)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)
	assert.Equal(t, "alice", got.UserName)
}

func TestGetDetail_Unknown(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.GetDetail(context.Background(), 99)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateUserName(t *testing.T) {
	svc, rm := newUserFixture(t)
	user := seedAccount(t, rm, "a@example.com", "Passw0rd!")

	require.NoError(t, svc.UpdateUserName(context.Background(), user.UserNo, "bob"))
	assert.Equal(t, "bob", rm.u.byNo[user.UserNo].UserName)
}

func TestUpdateUserName_Empty(t *testing.T) {
	svc, rm := newUserFixture(t)
	user := seedAccount(t, rm, "a@example.com", "Passw0rd!")

	err := svc.UpdateUserName(context.Background(), user.UserNo, "")
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestUpdateUserName_Unknown(t *testing.T) {
	svc, _ := newUserFixture(t)

	err := svc.UpdateUserName(context.Background(), 99, "bob")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	svc, rm := newUserFixture(t)
	user := seedAccount(t, rm, "a@example.com", "OldPass1!")

	require.NoError(t, svc.ChangePassword(context.Background(), user.UserNo, "OldPass1!", "NewPass1!"))
	assert.True(t, auth.VerifyPassword("NewPass1!", rm.u.byNo[user.UserNo].Password))
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	svc, rm := newUserFixture(t)
	user := seedAccount(t, rm, "a@example.com", "OldPass1!")

	err := svc.ChangePassword(context.Background(), user.UserNo, "wrong", "NewPass1!")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.True(t, auth.VerifyPassword("OldPass1!", rm.u.byNo[user.UserNo].Password))
}

func TestChangePassword_EmptyNew(t *testing.T) {
	svc, rm := newUserFixture(t)
	user := seedAccount(t, rm, "a@example.com", "OldPass1!")

	err := svc.ChangePassword(context.Background(), user.UserNo, "OldPass1!", "")
	assert.ErrorIs(t, err, common.ErrBadRequest)
}
