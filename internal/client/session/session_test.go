package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/client/localstore"
)

func signedToken(t *testing.T, userID int64, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func newTestSession(t *testing.T, baseURL string) (*Session, *localstore.Store) {
	t.Helper()
	local, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	return New(local, baseURL, nil, nil), local
}

func TestRehydrateWithoutTokens(t *testing.T) {
	s, _ := newTestSession(t, "http://unused")
	assert.Equal(t, StateAnonymous, s.Rehydrate())
	assert.False(t, s.IsAuthenticated())
}

func TestRehydrateValidToken(t *testing.T) {
	s, local := newTestSession(t, "http://unused")
	require.NoError(t, local.SetString(localstore.KeyAccessToken, signedToken(t, 42, time.Hour)))
	require.NoError(t, local.SetString(localstore.KeyRefreshToken, "refresh-opaque"))

	assert.Equal(t, StateAuthenticated, s.Rehydrate())
	id, ok := s.Identity()
	require.True(t, ok)
	assert.Equal(t, int64(42), id.UserID)
}

func TestRehydrateExpiredTokenClearsBoth(t *testing.T) {
	s, local := newTestSession(t, "http://unused")
	require.NoError(t, local.SetString(localstore.KeyAccessToken, signedToken(t, 42, -time.Minute)))
	require.NoError(t, local.SetString(localstore.KeyRefreshToken, "refresh-opaque"))

	assert.Equal(t, StateAnonymous, s.Rehydrate())
	_, err := local.GetString(localstore.KeyAccessToken)
	assert.ErrorIs(t, err, localstore.ErrNotFound)
	_, err = local.GetString(localstore.KeyRefreshToken)
	assert.ErrorIs(t, err, localstore.ErrNotFound)
}

func TestRehydrateGarbageToken(t *testing.T) {
	s, local := newTestSession(t, "http://unused")
	require.NoError(t, local.SetString(localstore.KeyAccessToken, "not.a.jwt"))

	assert.Equal(t, StateAnonymous, s.Rehydrate())
}

func TestLoginPersistsPair(t *testing.T) {
	s, local := newTestSession(t, "http://unused")
	access := signedToken(t, 7, time.Hour)

	require.NoError(t, s.Login(TokenPair{Access: access, Refresh: "r1"}))
	assert.True(t, s.IsAuthenticated())

	stored, err := local.GetString(localstore.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, access, stored)
}

func TestLoginRejectsIncompletePair(t *testing.T) {
	s, _ := newTestSession(t, "http://unused")
	assert.Error(t, s.Login(TokenPair{Access: "only-access"}))
}

func TestLogoutNotifiesObservers(t *testing.T) {
	s, _ := newTestSession(t, "http://unused")
	require.NoError(t, s.Login(TokenPair{Access: signedToken(t, 7, time.Hour), Refresh: "r1"}))

	called := 0
	s.OnLogout(func() { called++ })
	s.Logout()

	assert.Equal(t, 1, called)
	assert.Equal(t, StateAnonymous, s.State())
}

func TestDoAttachesBearer(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, _ := newTestSession(t, srv.URL)
	access := signedToken(t, 7, time.Hour)
	require.NoError(t, s.Login(TokenPair{Access: access, Refresh: "r1"}))

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/accounts/profile", nil)
	resp, err := s.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer "+access, got)
}

func TestDoAnonymousFailsFast(t *testing.T) {
	s, _ := newTestSession(t, "http://unused")
	s.Rehydrate()

	req, _ := http.NewRequest(http.MethodGet, "http://unused/api/x", nil)
	_, err := s.Do(req)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestDoRefreshesOnceOn401(t *testing.T) {
	oldAccess := signedToken(t, 7, time.Hour)
	newAccess := signedToken(t, 7, 2*time.Hour)

	refreshes := 0
	attempts := []string{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/token/refresh" {
			refreshes++
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["refresh"] != "r1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(TokenPair{Access: newAccess, Refresh: "r2"})
			return
		}

		auth := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		attempts = append(attempts, auth)
		if auth != newAccess {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, _ := newTestSession(t, srv.URL)
	require.NoError(t, s.Login(TokenPair{Access: oldAccess, Refresh: "r1"}))

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/orders/cart", nil)
	resp, err := s.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1, refreshes)
	require.Len(t, attempts, 2)
	assert.Equal(t, oldAccess, attempts[0])
	assert.Equal(t, newAccess, attempts[1])
	assert.True(t, s.IsAuthenticated())
}

func TestDoExpiresAfterSecond401(t *testing.T) {
	access := signedToken(t, 7, time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/token/refresh" {
			// hand back a pair the API will still reject
			_ = json.NewEncoder(w).Encode(TokenPair{Access: access, Refresh: "r2"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s, _ := newTestSession(t, srv.URL)
	require.NoError(t, s.Login(TokenPair{Access: access, Refresh: "r1"}))

	loggedOut := false
	s.OnLogout(func() { loggedOut = true })

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/orders/cart", nil)
	_, err := s.Do(req)

	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.False(t, s.IsAuthenticated())
	assert.True(t, loggedOut)
}

func TestRefreshRejectionDropsToAnonymous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s, _ := newTestSession(t, srv.URL)
	require.NoError(t, s.Login(TokenPair{Access: signedToken(t, 7, time.Hour), Refresh: "r1"}))

	assert.ErrorIs(t, s.Refresh(), ErrSessionExpired)
	assert.Equal(t, StateAnonymous, s.State())
}
