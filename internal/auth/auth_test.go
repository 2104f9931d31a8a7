package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CheckPassword(hash, "secret123"))
	assert.False(t, CheckPassword(hash, "wrong"))

	_, err = HashPassword("abc")
	assert.Error(t, err, "слишком короткий пароль")
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleViewer, r)

	r, err = ParseRole("editor")
	require.NoError(t, err)
	assert.True(t, r.CanEdit())

	_, err = ParseRole("admin")
	assert.Error(t, err)
}

func TestTokenManager_RoundTrip(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)
	tm, err := NewTokenManager(secret, time.Hour)
	require.NoError(t, err)

	token, err := tm.Generate(&User{Username: "builder", Role: RoleEditor})
	require.NoError(t, err)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "builder", claims.Username)
	assert.Equal(t, RoleEditor, claims.Role)
	assert.Equal(t, "builder", claims.Subject)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm, err := NewTokenManager("", time.Minute)
	require.NoError(t, err)
	other, err := NewTokenManager("", time.Minute)
	require.NoError(t, err)

	token, err := other.Generate(&User{Username: "x", Role: RoleViewer})
	require.NoError(t, err)
	_, err = tm.Validate(token)
	assert.Error(t, err, "чужая подпись")

	_, err = tm.Validate("not-a-token")
	assert.Error(t, err)

	// Истёкший токен
	token, err = tm.Generate(&User{Username: "x"})
	require.NoError(t, err)
	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestNewTokenManager_BadSecret(t *testing.T) {
	_, err := NewTokenManager("%%%", time.Hour)
	assert.Error(t, err)
	_, err = NewTokenManager("c2hvcnQ=", time.Hour)
	assert.Error(t, err, "секрет короче 32 байт")
}

func TestMemoryUserRepo(t *testing.T) {
	repo := NewMemoryUserRepo()
	hash, err := HashPassword("pass1234")
	require.NoError(t, err)

	_, err = repo.CreateUser("Builder", hash, RoleEditor)
	require.NoError(t, err)
	_, err = repo.CreateUser("builder", hash, RoleViewer)
	assert.ErrorIs(t, err, ErrUserExists)

	u, err := repo.GetUser("BUILDER")
	require.NoError(t, err)
	assert.Equal(t, "Builder", u.Username)

	_, err = repo.GetUser("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.Authenticate("builder", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = repo.Authenticate("ghost", "pass1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u, err = repo.Authenticate("builder", "pass1234")
	require.NoError(t, err)
	assert.False(t, u.LastLogin.IsZero())

	_, err = repo.CreateUser("alice", hash, RoleViewer)
	require.NoError(t, err)
	users := repo.ListUsers()
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
}
