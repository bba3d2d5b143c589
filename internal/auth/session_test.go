package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OneVth/prj-board/internal/board"
)

type fakeAPI struct {
	refresh func() (board.TokenPair, error)
	login   func(email, password string) (board.TokenPair, error)
	logout  func() error

	refreshCalls int
	logoutCalls  int
}

func (f *fakeAPI) RefreshToken(ctx context.Context) (board.TokenPair, error) {
	f.refreshCalls++
	if f.refresh == nil {
		return board.TokenPair{}, errors.New("refresh not stubbed")
	}
	return f.refresh()
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (board.TokenPair, error) {
	if f.login == nil {
		return board.TokenPair{}, errors.New("login not stubbed")
	}
	return f.login(email, password)
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	f.logoutCalls++
	if f.logout == nil {
		return nil
	}
	return f.logout()
}

func (f *fakeAPI) Me(ctx context.Context, token string) (board.UserSummary, error) {
	return board.UserSummary{ID: "u1", Username: "ann", Email: "u@example.com"}, nil
}

func TestResolveSilently_RenewalSucceeds(t *testing.T) {
	api := &fakeAPI{refresh: func() (board.TokenPair, error) {
		return board.TokenPair{AccessToken: "at-1", TokenType: "bearer"}, nil
	}}
	s := NewSession(api)

	if st := s.ResolveSilently(context.Background()); st != StateAuthenticated {
		t.Fatalf("expected authenticated, got %v", st)
	}
	token, ok := s.AccessToken()
	if !ok || token != "at-1" {
		t.Fatalf("expected access token, got %q (ok=%v)", token, ok)
	}
	if u := s.User(); u == nil || u.Username != "ann" {
		t.Fatalf("expected profile fetched, got %+v", u)
	}
	if err := s.Resolved(context.Background()); err != nil {
		t.Fatalf("Resolved must not block after resolution: %v", err)
	}
}

func TestResolveSilently_RejectedCredentialResolvesAnonymous(t *testing.T) {
	api := &fakeAPI{refresh: func() (board.TokenPair, error) {
		return board.TokenPair{}, &board.APIError{StatusCode: 401, Detail: "Invalid refresh token"}
	}}
	s := NewSession(api)

	if st := s.ResolveSilently(context.Background()); st != StateAnonymous {
		t.Fatalf("expected anonymous, got %v", st)
	}
	if _, ok := s.AccessToken(); ok {
		t.Fatal("anonymous session must not hold a token")
	}
	// A server answer is definitive: no retries.
	if api.refreshCalls != 1 {
		t.Fatalf("expected 1 refresh attempt, got %d", api.refreshCalls)
	}
}

func TestResolveSilently_RetriesTransportFailures(t *testing.T) {
	api := &fakeAPI{}
	api.refresh = func() (board.TokenPair, error) {
		if api.refreshCalls < 2 {
			return board.TokenPair{}, errors.New("dial tcp: connection refused")
		}
		return board.TokenPair{AccessToken: "at-2"}, nil
	}
	s := NewSession(api)

	if st := s.ResolveSilently(context.Background()); st != StateAuthenticated {
		t.Fatalf("expected authenticated after retry, got %v", st)
	}
	if api.refreshCalls != 2 {
		t.Fatalf("expected 2 refresh attempts, got %d", api.refreshCalls)
	}
}

func TestResolveSilently_GivesUpAfterRetries(t *testing.T) {
	api := &fakeAPI{refresh: func() (board.TokenPair, error) {
		return board.TokenPair{}, errors.New("dial tcp: connection refused")
	}}
	s := NewSession(api)

	if st := s.ResolveSilently(context.Background()); st != StateAnonymous {
		t.Fatalf("expected anonymous after exhausted retries, got %v", st)
	}
	if api.refreshCalls != 3 {
		t.Fatalf("expected 3 refresh attempts, got %d", api.refreshCalls)
	}
}

func TestLogin_ResolvesWaiters(t *testing.T) {
	api := &fakeAPI{login: func(email, password string) (board.TokenPair, error) {
		if email != "u@example.com" || password != "secret" {
			return board.TokenPair{}, &board.APIError{StatusCode: 401, Detail: "Incorrect email or password"}
		}
		return board.TokenPair{AccessToken: "at-3"}, nil
	}}
	s := NewSession(api)

	waited := make(chan error, 1)
	go func() { waited <- s.Resolved(context.Background()) }()

	if err := s.Login(context.Background(), "u@example.com", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	select {
	case err := <-waited:
		if err != nil {
			t.Fatalf("waiter returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("login did not resolve waiters")
	}
	if s.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %v", s.State())
	}
}

func TestLogin_BadCredentialsLeaveSessionUnchanged(t *testing.T) {
	api := &fakeAPI{login: func(email, password string) (board.TokenPair, error) {
		return board.TokenPair{}, &board.APIError{StatusCode: 401, Detail: "Incorrect email or password"}
	}}
	s := NewSession(api)

	if err := s.Login(context.Background(), "u@example.com", "wrong"); err == nil {
		t.Fatal("expected login error")
	}
	if s.State() != StateUnknown {
		t.Fatalf("failed login must not resolve the session, got %v", s.State())
	}
}

func TestLogout_ClearsSessionEvenWhenServerFails(t *testing.T) {
	api := &fakeAPI{
		refresh: func() (board.TokenPair, error) {
			return board.TokenPair{AccessToken: "at-4"}, nil
		},
		logout: func() error { return errors.New("dial tcp: connection refused") },
	}
	s := NewSession(api)
	s.ResolveSilently(context.Background())

	if err := s.Logout(context.Background()); err == nil {
		t.Fatal("expected logout to report the server error")
	}
	if s.State() != StateAnonymous {
		t.Fatalf("expected anonymous after logout, got %v", s.State())
	}
	if _, ok := s.AccessToken(); ok {
		t.Fatal("token must be cleared by logout")
	}
}

func TestExpire_DropsTokenUntilNextRenewal(t *testing.T) {
	api := &fakeAPI{refresh: func() (board.TokenPair, error) {
		return board.TokenPair{AccessToken: "at-5"}, nil
	}}
	s := NewSession(api)
	s.ResolveSilently(context.Background())

	s.Expire()
	if _, ok := s.AccessToken(); ok {
		t.Fatal("expired session must not hand out a token")
	}
	if s.State() != StateAnonymous {
		t.Fatalf("expected anonymous after expiry, got %v", s.State())
	}

	// Renewal brings the session back without user involvement.
	if st := s.ResolveSilently(context.Background()); st != StateAuthenticated {
		t.Fatalf("expected renewed session, got %v", st)
	}
	if token, ok := s.AccessToken(); !ok || token != "at-5" {
		t.Fatalf("expected renewed token, got %q (ok=%v)", token, ok)
	}
}

func TestResolved_HonorsContext(t *testing.T) {
	s := NewSession(&fakeAPI{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Resolved(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
