// Package auth tracks the user's session: an in-memory access token with a
// silent renewal flow driven by the HTTP-only refresh cookie. The feed
// engine only ever sees this package through a narrow read-only view.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/OneVth/prj-board/internal/board"
	"github.com/OneVth/prj-board/internal/logging"
)

// State is the session lifecycle position. Unknown and Authenticating are
// startup states; consumers that need a definite answer wait for the first
// transition into Authenticated or Anonymous.
type State int

const (
	StateUnknown State = iota
	StateAuthenticating
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAuthenticating:
		return "signing in"
	case StateAuthenticated:
		return "signed in"
	case StateAnonymous:
		return "anonymous"
	}
	return "invalid"
}

// API is the slice of the board client the session needs.
type API interface {
	RefreshToken(ctx context.Context) (board.TokenPair, error)
	Login(ctx context.Context, email, password string) (board.TokenPair, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context, token string) (board.UserSummary, error)
}

const (
	renewRetries = 2
	renewBackoff = 300 * time.Millisecond
)

type Session struct {
	api API

	mu       sync.Mutex
	state    State
	token    string
	user     *board.UserSummary
	resolved chan struct{}
}

func NewSession(api API) *Session {
	return &Session{
		api:      api,
		state:    StateUnknown,
		resolved: make(chan struct{}),
	}
}

// ResolveSilently renews the session with the stored refresh credential.
// It never prompts: a rejected or missing credential resolves to Anonymous.
// Transport failures are retried briefly, then give up for this run; the
// user can still sign in manually.
func (s *Session) ResolveSilently(ctx context.Context) State {
	s.mu.Lock()
	if s.state == StateAuthenticating {
		st := s.state
		s.mu.Unlock()
		return st
	}
	s.state = StateAuthenticating
	s.mu.Unlock()

	pair, err := s.renewWithRetry(ctx)
	if err != nil {
		logging.Info("silent renewal failed", "error", err)
		return s.resolve(StateAnonymous, "", nil)
	}

	user := s.fetchUser(ctx, pair.AccessToken)
	logging.Info("silent renewal succeeded")
	return s.resolve(StateAuthenticated, pair.AccessToken, user)
}

func (s *Session) renewWithRetry(ctx context.Context) (board.TokenPair, error) {
	var lastErr error
	for attempt := 0; attempt <= renewRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return board.TokenPair{}, ctx.Err()
			case <-time.After(renewBackoff):
			}
		}

		pair, err := s.api.RefreshToken(ctx)
		if err == nil {
			return pair, nil
		}
		lastErr = err

		var apiErr *board.APIError
		if errors.As(err, &apiErr) {
			// The server answered; retrying cannot change a rejected
			// credential.
			return board.TokenPair{}, err
		}
		logging.Debug("silent renewal attempt failed", "attempt", attempt+1, "error", err)
	}
	return board.TokenPair{}, lastErr
}

// Login exchanges credentials for a session. The server installs the
// refresh cookie in the client's jar as a side effect.
func (s *Session) Login(ctx context.Context, email, password string) error {
	pair, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	user := s.fetchUser(ctx, pair.AccessToken)
	s.resolve(StateAuthenticated, pair.AccessToken, user)
	logging.Info("signed in", "user", usernameOf(user))
	return nil
}

// Logout ends the session on both sides. Local state clears even when the
// server call fails.
func (s *Session) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	s.resolve(StateAnonymous, "", nil)
	logging.Info("signed out")
	return err
}

// Expire drops the in-memory access token, typically after the API
// rejected it. The session stays resolved; the next ResolveSilently can
// renew it.
func (s *Session) Expire() {
	s.mu.Lock()
	s.token = ""
	if s.state == StateAuthenticated {
		s.state = StateAnonymous
	}
	s.mu.Unlock()
	logging.Debug("access token expired")
}

// AccessToken returns the in-memory access token. Fetches re-read it every
// time, so renewals take effect without any coordination.
func (s *Session) AccessToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated || s.token == "" {
		return "", false
	}
	return s.token, true
}

// Resolved blocks until the session first reaches Authenticated or
// Anonymous. It satisfies the feed engine's TokenSource.
func (s *Session) Resolved(ctx context.Context) error {
	select {
	case <-s.resolved:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the profile fetched at resolution, or nil for anonymous
// sessions.
func (s *Session) User() *board.UserSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) resolve(state State, token string, user *board.UserSummary) State {
	s.mu.Lock()
	s.state = state
	s.token = token
	s.user = user
	select {
	case <-s.resolved:
	default:
		close(s.resolved)
	}
	s.mu.Unlock()
	return state
}

func (s *Session) fetchUser(ctx context.Context, token string) *board.UserSummary {
	user, err := s.api.Me(ctx, token)
	if err != nil {
		logging.Warn("profile fetch failed", "error", err)
		return nil
	}
	return &user
}

func usernameOf(user *board.UserSummary) string {
	if user == nil {
		return ""
	}
	return user.Username
}
