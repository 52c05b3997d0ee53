package auth

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	a, err := NewAuthenticator("", "admin", "")
	require.NoError(t, err)

	token, err := a.GenerateToken("admin")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "Неверный формат JWT токена")

	claims, err := a.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "blockverse", claims.Issuer)
}

func TestValidate_Rejects(t *testing.T) {
	a, err := NewAuthenticator("", "admin", "")
	require.NoError(t, err)
	other, err := NewAuthenticator("", "admin", "")
	require.NoError(t, err)

	foreign, err := other.GenerateToken("admin")
	require.NoError(t, err)
	_, err = a.Validate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken, "Токен с чужим ключом")

	_, err = a.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Токен без подписи
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSharedSecret(t *testing.T) {
	secret, err := GenerateSecureSecret()
	require.NoError(t, err)

	a, err := NewAuthenticator(secret, "admin", "")
	require.NoError(t, err)
	b, err := NewAuthenticator(secret, "admin", "")
	require.NoError(t, err)

	token, err := a.GenerateToken("admin")
	require.NoError(t, err)
	_, err = b.Validate(token)
	assert.NoError(t, err, "Узлы с общим ключом принимают токены друг друга")

	_, err = NewAuthenticator("c2hvcnQ=", "admin", "")
	assert.Error(t, err, "Короткий ключ отклоняется")
	_, err = NewAuthenticator("%%%", "admin", "")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("ChangeMe123!")
	require.NoError(t, err)

	a, err := NewAuthenticator("", "admin", hash)
	require.NoError(t, err)

	token, err := a.Login("admin", "ChangeMe123!")
	require.NoError(t, err)
	_, err = a.Validate(token)
	assert.NoError(t, err)

	_, err = a.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login("root", "ChangeMe123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	disabled, err := NewAuthenticator("", "admin", "")
	require.NoError(t, err)
	_, err = disabled.Login("admin", "ChangeMe123!")
	assert.ErrorIs(t, err, ErrLoginDisabled)
}
