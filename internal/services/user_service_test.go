package services

import (
	"context"
	"testing"

	"github.com/Dias221467/achievements/internal/repository/memory"
	"github.com/Dias221467/achievements/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewUserService(memory.NewStore())
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "rob", " Rob@Email.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "rob@email.com", user.Email)
	assert.Equal(t, "user", user.Role)
	assert.NotEqual(t, "secret123", user.HashedPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("secret123")))

	got, err := svc.AuthenticateUser(ctx, "rob@email.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.AuthenticateUser(ctx, "rob@email.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.AuthenticateUser(ctx, "nobody@email.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewUserService(memory.NewStore())

	_, err := svc.RegisterUser(context.Background(), "", "not-an-email", "123")
	verr := requireValidation(t, err)
	assert.Equal(t, []string{"can't be blank"}, verr.Messages("username"))
	assert.Equal(t, []string{"is invalid"}, verr.Messages("email"))
	assert.Len(t, verr.Messages("password"), 1)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewUserService(memory.NewStore())
	ctx := context.Background()

	_, err := svc.RegisterUser(ctx, "rob", "rob@email.com", "secret123")
	require.NoError(t, err)

	_, err = svc.RegisterUser(ctx, "robert", "ROB@email.com", "secret456")
	verr := requireValidation(t, err)
	assert.Equal(t, []string{"has already been taken"}, verr.Messages("email"))
}

func TestGetUser(t *testing.T) {
	svc := NewUserService(memory.NewStore())
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "rob", "rob@email.com", "secret123")
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "rob", got.Username)

	_, err = svc.GetUser(ctx, "bogus")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
