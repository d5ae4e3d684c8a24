package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareplace_backend/internal/services/dto"
	"shareplace_backend/pkg/apperrors"
)

func signupRequest() *dto.SignupRequest {
	return &dto.SignupRequest{Name: "Alice", Email: "Alice@Example.com", Password: "secret1"}
}

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.services.UserService.Signup(ctx, signupRequest(), pngImage(t))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.UserID)
	assert.Equal(t, "alice@example.com", resp.Email)
	assert.NotEmpty(t, resp.Token)

	u := f.reloadUser(t, resp.UserID)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.Regexp(t, `^users/alice_\d+\.png$`, u.ImageKey)

	login, err := f.services.UserService.Login(ctx, &dto.LoginRequest{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, login.UserID)

	_, err = f.services.UserService.Login(ctx, &dto.LoginRequest{Email: "alice@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.services.UserService.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestSignup_ExistingEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "Alice", "alice@example.com")

	_, err := f.services.UserService.Signup(ctx, signupRequest(), pngImage(t))
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeAlreadyExists, appErr.Code)
	assert.Equal(t, 422, appErr.HTTPCode)
	assert.Empty(t, f.backend.Keys())
}

func TestSignup_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.services.UserService.Signup(context.Background(), &dto.SignupRequest{Name: "", Email: "not-an-email", Password: "123"}, nil)
	require.Error(t, err)

	appErr, _ := apperrors.AsAppError(err)
	details := appErr.Details.(map[string]string)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
	assert.Contains(t, details, "image")
}

func TestSignup_TransactionFailureRemovesAvatar(t *testing.T) {
	f := newFixture(t)
	f.failTransactions(errors.New("connection lost"))

	_, err := f.services.UserService.Signup(context.Background(), signupRequest(), pngImage(t))
	assert.ErrorIs(t, err, apperrors.ErrTransactionFailed)
	assert.Empty(t, f.backend.Keys())
}

func TestGetUsers_HidesPasswords(t *testing.T) {
	f := newFixture(t)
	f.user(t, "Alice", "alice@example.com")

	users, err := f.services.UserService.GetUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice@example.com", users[0].Email)
	assert.NotNil(t, users[0].Places)
}
