package feed

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/OneVth/prj-board/internal/board"
)

// ErrorKind buckets fetch failures by the recovery they admit.
type ErrorKind int

const (
	// NetworkFailure covers transport-level failures: DNS, refused
	// connections, timeouts, cancelled contexts, unusable payloads.
	NetworkFailure ErrorKind = iota
	// AuthExpired is a 401: the access token is no longer accepted.
	AuthExpired
	// ServerRejected is any other 4xx: the request itself was refused.
	ServerRejected
	// ServerFault is a 5xx.
	ServerFault
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkFailure:
		return "network failure"
	case AuthExpired:
		return "session expired"
	case ServerRejected:
		return "request rejected"
	case ServerFault:
		return "server error"
	}
	return "unknown"
}

// Retryable reports whether the same request may succeed later unchanged.
func (k ErrorKind) Retryable() bool {
	return k == NetworkFailure || k == ServerFault
}

// FetchError is a failed fetch surfaced as feed state. Failures never
// escape the engine as returned errors or panics; the UI reads this and
// picks the affordance.
type FetchError struct {
	Kind ErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Classify buckets an error returned by the listing collaborator.
func Classify(err error) ErrorKind {
	var apiErr *board.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			return AuthExpired
		case apiErr.StatusCode >= 500:
			return ServerFault
		case apiErr.StatusCode >= 400:
			return ServerRejected
		}
	}
	return NetworkFailure
}
