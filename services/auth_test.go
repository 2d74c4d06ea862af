package services

import (
	"context"
	"testing"
	"time"

	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/entities"
	"github.com/skif48/wellness-engine/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth() (*AuthService, *fakeProfiles, *fakeTokens) {
	profiles := newFakeProfiles()
	tokens := &fakeTokens{}
	return NewAuthService(&app_config.AppConfig{AuthTokenTTL: time.Hour}, profiles, tokens), profiles, tokens
}

func TestAuthSignUpSignInSignOut(t *testing.T) {
	auth, profiles, _ := newTestAuth()
	ctx := context.Background()

	profile, err := auth.SignUp(ctx, &entities.SignUpRequest{Name: " Ada ", Email: "Ada@Example.com", Password: "secret-pw"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Name)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, 1, profile.Level)
	assert.Zero(t, profile.Xp)
	assert.Contains(t, profile.Avatar, profile.Id)

	creds, _ := profiles.GetCredentials(ctx, "ada@example.com")
	require.NotNil(t, creds)
	assert.NotEqual(t, "secret-pw", creds.PasswordHash)

	res, err := auth.SignIn(ctx, &entities.SignInRequest{Email: "ada@example.com", Password: "secret-pw"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, profile.Id, res.User.Id)

	userId, err := auth.CurrentUser(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, profile.Id, userId)

	require.NoError(t, auth.SignOut(ctx, res.Token))
	_, err = auth.CurrentUser(ctx, res.Token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthRejectsWrongPassword(t *testing.T) {
	auth, _, _ := newTestAuth()
	ctx := context.Background()

	_, err := auth.SignUp(ctx, &entities.SignUpRequest{Name: "Ada", Email: "ada@example.com", Password: "secret-pw"})
	require.NoError(t, err)

	_, err = auth.SignIn(ctx, &entities.SignInRequest{Email: "ada@example.com", Password: "wrong-pw"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.SignIn(ctx, &entities.SignInRequest{Email: "nobody@example.com", Password: "secret-pw"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthSignUpValidation(t *testing.T) {
	auth, _, _ := newTestAuth()
	ctx := context.Background()

	cases := []*entities.SignUpRequest{
		{Name: "", Email: "ada@example.com", Password: "secret-pw"},
		{Name: "Ada", Email: "not-an-email", Password: "secret-pw"},
		{Name: "Ada", Email: "ada@example.com", Password: "123"},
	}
	for _, req := range cases {
		_, err := auth.SignUp(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidSignUp, "%+v", req)
	}
}

func TestAuthDuplicateEmail(t *testing.T) {
	auth, _, _ := newTestAuth()
	ctx := context.Background()

	_, err := auth.SignUp(ctx, &entities.SignUpRequest{Name: "Ada", Email: "ada@example.com", Password: "secret-pw"})
	require.NoError(t, err)
	_, err = auth.SignUp(ctx, &entities.SignUpRequest{Name: "Ada 2", Email: "ADA@example.com", Password: "secret-pw"})
	require.ErrorIs(t, err, repositories.ErrEmailTaken)
}

func TestAuthMissingToken(t *testing.T) {
	auth, _, _ := newTestAuth()

	_, err := auth.CurrentUser(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
}
