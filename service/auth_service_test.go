package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	hashers := map[string]PasswordHasher{
		"plain":  PlainHasher{},
		"bcrypt": BcryptHasher{Cost: 4},
	}

	for name, hasher := range hashers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t, hasher)

			_, err := env.reg.Register(ctx, registerReq("bob", "pw123", nil))
			require.NoError(t, err)

			res, err := env.auth.Login(ctx, "bob", "pw123")
			require.NoError(t, err)
			assert.Equal(t, "/profile/bob", res.RedirectTo)
			assert.Equal(t, "bob", res.User.Username)

			_, err = env.auth.Login(ctx, "bob", "wrong")
			assert.ErrorIs(t, err, ErrInvalidCredentials)

			_, err = env.auth.Login(ctx, "nobody", "pw123")
			assert.ErrorIs(t, err, ErrInvalidCredentials)

			_, err = env.auth.Login(ctx, "bob", "PW123")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestNewPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher("", 0)
	require.NoError(t, err)
	assert.IsType(t, PlainHasher{}, h)

	h, err = NewPasswordHasher(PasswordSchemeBcrypt, 4)
	require.NoError(t, err)
	assert.Equal(t, BcryptHasher{Cost: 4}, h)

	_, err = NewPasswordHasher("md5", 0)
	assert.Error(t, err)
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: 4}
	stored, err := h.Hash("pw")
	require.NoError(t, err)
	assert.True(t, h.Verify(stored, "pw"))
	assert.False(t, h.Verify(stored, "nope"))
	assert.False(t, h.Verify("not-a-hash", "pw"))
}
