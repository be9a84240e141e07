package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Issuer:         "storefront-test",
		AccessSecret:   "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()

	token, exp, err := m.SignAccess(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := m.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "storefront-test", claims.Issuer)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := testManager()

	token, _, err := m.SignRefresh(42)
	require.NoError(t, err)

	claims, err := m.ParseRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
}

func TestAccessAndRefreshSecretsAreSeparate(t *testing.T) {
	m := testManager()

	access, _, err := m.SignAccess(42)
	require.NoError(t, err)
	_, err = m.ParseRefresh(access)
	assert.Error(t, err)

	refresh, _, err := m.SignRefresh(42)
	require.NoError(t, err)
	_, err = m.ParseAccess(refresh)
	assert.Error(t, err)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	m := testManager()

	token, _, err := m.SignAccess(42)
	require.NoError(t, err)

	_, err = m.ParseAccess(token + "x")
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := NewJWTManager(JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTLMin:  -1,
	})

	token, _, err := m.SignAccess(42)
	require.NoError(t, err)

	_, err = m.ParseAccess(token)
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, passwordCost, cost)
}

func TestHashTokenIsDeterministic(t *testing.T) {
	a := HashToken("reset-token")
	b := HashToken("reset-token")
	c := HashToken("other-token")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, "reset-token", a)
}
