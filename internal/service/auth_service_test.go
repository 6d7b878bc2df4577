package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManagerRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Minute, time.Hour)
	user := &model.User{Base: model.Base{ID: uuid.New()}, Username: "anita", Role: model.RoleManager}

	token, expires, err := m.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expires, 5*time.Second)

	actor, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.ID)
	assert.Equal(t, "anita", actor.Username)
	assert.Equal(t, model.RoleManager, actor.Role)

	_, err = NewTokenManager("other", time.Minute, time.Hour).Parse(token)
	requireCode(t, err, apperror.CodeUnauthorized)
}

func TestSignUpFirstUserIsAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.auth.SignUp(ctx, SignUpRequest{Username: "owner", Email: "owner@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, first.User.Role)
	assert.NotEmpty(t, first.AccessToken)
	assert.NotEmpty(t, first.RefreshToken)
	assert.Equal(t, "Bearer", first.TokenType)

	second, err := f.auth.SignUp(ctx, SignUpRequest{Username: "clerk", Email: "clerk@example.com", Password: "secret2"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, second.User.Role)

	_, err = f.auth.SignUp(ctx, SignUpRequest{Username: "clerk", Email: "other@example.com", Password: "secret2"})
	requireCode(t, err, apperror.CodeConflict)

	_, err = f.auth.SignUp(ctx, SignUpRequest{Username: "x", Email: "not-an-email", Password: "secret2"})
	requireCode(t, err, apperror.CodeValidation)

	_, err = f.auth.SignUp(ctx, SignUpRequest{Username: "y", Email: "y@example.com", Password: strings.Repeat("p", 73)})
	requireCode(t, err, apperror.CodeValidation)
}

func TestSignInRefreshSignOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.SignUp(ctx, SignUpRequest{Username: "owner", Email: "owner@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.auth.SignIn(ctx, SignInRequest{Login: "owner", Password: "wrong-pass"})
	requireCode(t, err, apperror.CodeUnauthorized)

	byEmail, err := f.auth.SignIn(ctx, SignInRequest{Login: "owner@example.com", Password: "secret1"})
	require.NoError(t, err)

	actor, err := f.tokens.Parse(byEmail.AccessToken)
	require.NoError(t, err)
	me, err := f.auth.Me(WithActor(ctx, actor))
	require.NoError(t, err)
	assert.Equal(t, "owner", me.Username)

	rotated, err := f.auth.Refresh(ctx, byEmail.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, byEmail.RefreshToken, rotated.RefreshToken)

	// the consumed token cannot be replayed
	_, err = f.auth.Refresh(ctx, byEmail.RefreshToken)
	requireCode(t, err, apperror.CodeUnauthorized)

	require.NoError(t, f.auth.SignOut(ctx, rotated.RefreshToken))
	_, err = f.auth.Refresh(ctx, rotated.RefreshToken)
	requireCode(t, err, apperror.CodeUnauthorized)
}

func TestUserService(t *testing.T) {
	f := newFixture(t)

	user, err := f.users.Create(f.ctx, CreateUserRequest{Username: "mgr", Email: "mgr@example.com", Password: "secret1", Role: model.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, user.Role)

	_, err = f.users.Create(f.ctx, CreateUserRequest{Username: "boss", Email: "boss@example.com", Password: "secret1", Role: "owner"})
	requireCode(t, err, apperror.CodeValidation)

	tokens, err := f.auth.SignIn(context.Background(), SignInRequest{Login: "mgr", Password: "secret1"})
	require.NoError(t, err)

	// a role change signs the user out
	_, err = f.users.Update(f.ctx, user.ID.String(), UpdateUserRequest{Role: strp(model.RoleStaff)})
	require.NoError(t, err)
	_, err = f.auth.Refresh(context.Background(), tokens.RefreshToken)
	requireCode(t, err, apperror.CodeUnauthorized)

	users, total, err := f.users.List(f.ctx, repository.Filter{Search: "mgr"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, model.RoleStaff, users[0].Role)

	require.NoError(t, f.users.Delete(f.ctx, user.ID.String()))
	_, err = f.users.Get(f.ctx, user.ID.String())
	requireCode(t, err, apperror.CodeNotFound)
}

func TestUserCannotDeleteSelf(t *testing.T) {
	f := newFixture(t)
	user, err := f.users.Create(f.ctx, CreateUserRequest{Username: "root", Email: "root@example.com", Password: "secret1", Role: model.RoleAdmin})
	require.NoError(t, err)

	ctx := WithActor(context.Background(), Actor{ID: user.ID, Username: "root", Role: model.RoleAdmin})
	requireCode(t, f.users.Delete(ctx, user.ID.String()), apperror.CodeValidation)
}
