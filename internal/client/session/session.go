// Package session holds the client's JWT pair and authentication state.
// The access token payload is decoded WITHOUT signature verification and
// used purely as a display hint (who appears logged in); the backend is
// the only authority on whether a request is actually allowed.
package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"storefront/internal/client/localstore"
)

type State int

const (
	StateLoading State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "loading"
	}
}

var ErrSessionExpired = errors.New("session expired")

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Identity is the lightweight user record decoded from the access token.
type Identity struct {
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Session struct {
	store   *localstore.Store
	http    *http.Client
	baseURL string
	log     *zap.Logger

	mu       sync.Mutex
	state    State
	identity Identity
	pair     TokenPair
	onLogout []func()

	// now is swapped in tests to control expiry checks.
	now func() time.Time
}

func New(store *localstore.Store, baseURL string, httpClient *http.Client, log *zap.Logger) *Session {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		store:   store,
		http:    httpClient,
		baseURL: baseURL,
		log:     log,
		state:   StateLoading,
		now:     time.Now,
	}
}

// Rehydrate restores authentication state from the persisted tokens without
// a network round-trip. A missing, undecodable, or expired access token
// clears both tokens and leaves the session anonymous.
func (s *Session) Rehydrate() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	access, err := s.store.GetString(localstore.KeyAccessToken)
	if err != nil || access == "" {
		s.clearLocked()
		return s.state
	}

	id, err := decodeIdentity(access)
	if err != nil {
		s.log.Debug("stored access token undecodable", zap.Error(err))
		s.clearLocked()
		return s.state
	}
	if !id.ExpiresAt.After(s.now()) {
		s.log.Debug("stored access token expired", zap.Time("exp", id.ExpiresAt))
		s.clearLocked()
		return s.state
	}

	refresh, _ := s.store.GetString(localstore.KeyRefreshToken)
	s.pair = TokenPair{Access: access, Refresh: refresh}
	s.identity = id
	s.state = StateAuthenticated
	return s.state
}

// Login persists a freshly issued pair and marks the session authenticated.
func (s *Session) Login(pair TokenPair) error {
	if pair.Access == "" || pair.Refresh == "" {
		return errors.New("session: incomplete token pair")
	}
	id, err := decodeIdentity(pair.Access)
	if err != nil {
		return fmt.Errorf("session: bad access token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistLocked(pair); err != nil {
		return err
	}
	s.identity = id
	s.state = StateAuthenticated
	s.log.Info("logged in", zap.Int64("user_id", id.UserID))
	return nil
}

// Logout clears tokens and notifies observers. It never fails: local state
// is wiped even if nothing was persisted.
func (s *Session) Logout() {
	s.mu.Lock()
	s.clearLocked()
	observers := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// OnLogout registers an observer called whenever the session transitions to
// anonymous (explicit logout or irrecoverable 401). This replaces the
// original's window-event logout broadcast.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// Identity returns the decoded user record; valid only when authenticated.
func (s *Session) Identity() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.state == StateAuthenticated
}

// Refresh rotates the pair against the backend. On any failure the tokens
// are cleared and the session drops to anonymous.
func (s *Session) Refresh() error {
	s.mu.Lock()
	refresh := s.pair.Refresh
	s.mu.Unlock()

	if refresh == "" {
		s.expire()
		return ErrSessionExpired
	}

	body, _ := json.Marshal(map[string]string{"refresh": refresh})
	resp, err := s.http.Post(s.baseURL+"/api/auth/token/refresh", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("session: refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("token refresh rejected", zap.Int("status", resp.StatusCode))
		s.expire()
		return ErrSessionExpired
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return fmt.Errorf("session: refresh response: %w", err)
	}
	return s.Login(pair)
}

// Do sends an authenticated request. On a 401 it refreshes the pair and
// retries exactly once; a second 401 expires the session.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	access := s.pair.Access
	authed := s.state == StateAuthenticated
	s.mu.Unlock()

	if !authed {
		return nil, ErrSessionExpired
	}

	attach := func(r *http.Request, token string) {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	attach(req, access)
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	s.log.Debug("got 401, attempting token refresh", zap.String("url", req.URL.Path))
	if err := s.Refresh(); err != nil {
		return nil, err
	}

	retry, err := cloneRequest(req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	access = s.pair.Access
	s.mu.Unlock()
	attach(retry, access)

	resp, err = s.http.Do(retry)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		s.expire()
		return nil, ErrSessionExpired
	}
	return resp, nil
}

// expire clears state and notifies observers, used for irrecoverable 401s.
func (s *Session) expire() {
	s.mu.Lock()
	wasAuthed := s.state == StateAuthenticated
	s.clearLocked()
	observers := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	if wasAuthed {
		for _, fn := range observers {
			fn()
		}
	}
}

func (s *Session) persistLocked(pair TokenPair) error {
	if err := s.store.SetString(localstore.KeyAccessToken, pair.Access); err != nil {
		return err
	}
	if err := s.store.SetString(localstore.KeyRefreshToken, pair.Refresh); err != nil {
		return err
	}
	s.pair = pair
	return nil
}

func (s *Session) clearLocked() {
	_ = s.store.Delete(localstore.KeyAccessToken)
	_ = s.store.Delete(localstore.KeyRefreshToken)
	s.pair = TokenPair{}
	s.identity = Identity{}
	s.state = StateAnonymous
}

// decodeIdentity reads the access token payload without verifying the
// signature. Display hint only.
func decodeIdentity(access string) (Identity, error) {
	var claims jwt.MapClaims = map[string]any{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return Identity{}, err
	}

	var id Identity
	switch v := claims["user_id"].(type) {
	case float64:
		id.UserID = int64(v)
	case json.Number:
		n, _ := v.Int64()
		id.UserID = n
	default:
		return Identity{}, errors.New("missing user_id claim")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Identity{}, errors.New("missing exp claim")
	}
	id.ExpiresAt = exp.Time

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		id.IssuedAt = iat.Time
	}
	return id, nil
}

func cloneRequest(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return retry, nil
}
