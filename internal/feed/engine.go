// Package feed implements the incremental synchronization engine behind
// the board's infinite-scroll feed: a paged item list that grows through
// guarded, generation-checked fetches and resets atomically when its query
// changes.
package feed

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/OneVth/prj-board/internal/board"
	"github.com/OneVth/prj-board/internal/logging"
)

// Lister is the slice of the API client the engine needs.
type Lister interface {
	ListItems(ctx context.Context, q board.ListQuery) (board.PostPage, error)
}

// TokenSource is the engine's read-only view of the auth session. The
// token is re-read for every fetch, never cached across calls, so a
// renewed token is picked up without any engine involvement.
type TokenSource interface {
	// AccessToken returns the current token, if authenticated.
	AccessToken() (string, bool)
	// Resolved blocks until the session has left its startup states,
	// returning early with ctx's error on cancellation.
	Resolved(ctx context.Context) error
}

// Stats counts engine decisions, for the status line.
type Stats struct {
	Fetches    int
	StaleDrops int
	GuardBusy  int
}

// State is a point-in-time snapshot of the feed for rendering. Items is a
// copy; holders may keep it across updates.
type State struct {
	Items      []board.Post
	Loading    bool
	Err        *FetchError
	Filters    Filters
	Generation uint64
	NextPage   int
	TotalPages int
	TotalItems int
	HasMore    bool
	Stats      Stats
}

// Engine is the feed state machine. All mutation happens inside its
// methods; the update loop and command goroutines may call them freely.
type Engine struct {
	lister Lister
	tokens TokenSource

	mu      sync.Mutex
	guard   Guard
	filters Filters
	cursor  Cursor
	items   []board.Post
	loading bool
	err     *FetchError
	stats   Stats
}

func New(lister Lister, tokens TokenSource, filters Filters, pageSize int) *Engine {
	if pageSize < 1 {
		pageSize = 10
	}
	return &Engine{
		lister:  lister,
		tokens:  tokens,
		filters: filters,
		cursor:  NewCursor(pageSize),
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) Filters() Filters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filters
}

// SetFilters replaces the query tuple. Setting a tuple equal to the current
// one is a complete no-op. A real change resets the feed to an empty first
// page and invalidates any in-flight fetch; it does not start a fetch, that
// is the caller's next move.
func (e *Engine) SetFilters(f Filters) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if f == e.filters {
		return false
	}
	e.filters = f
	e.resetLocked()
	return true
}

// LoadNext fetches the next page if the feed is idle and incomplete, blocks
// until the fetch settles, and returns the resulting snapshot. When the
// feed is complete or a fetch is already in flight it returns immediately.
// Failures land in State.Err; LoadNext never returns an error itself.
func (e *Engine) LoadNext(ctx context.Context) State {
	e.mu.Lock()
	if !e.cursor.HasMore() {
		st := e.stateLocked()
		e.mu.Unlock()
		return st
	}
	ticket, ok := e.guard.TryAcquire()
	if !ok {
		e.stats.GuardBusy++
		logging.Debug("fetch already in flight", "page", e.cursor.NextPage)
		st := e.stateLocked()
		e.mu.Unlock()
		return st
	}

	// Everything the request depends on is captured here. A reset after
	// this point starts a new generation and this outcome will be dropped.
	query := board.ListQuery{
		Page:  e.cursor.NextPage,
		Limit: e.cursor.PageSize,
		Query: e.filters.Query,
		Sort:  string(e.filters.Sort),
		Scope: string(e.filters.Scope),
	}
	followed := e.filters.Scope == ScopeFollowed
	e.loading = true
	e.stats.Fetches++
	e.mu.Unlock()

	if followed {
		if err := e.tokens.Resolved(ctx); err != nil {
			return e.settle(ticket, board.PostPage{}, fmt.Errorf("await session: %w", err))
		}
	}
	token, authed := e.tokens.AccessToken()
	if followed && !authed {
		// Anonymous users follow nobody and the server would only say
		// the same thing. Complete the feed without a request.
		return e.settleEmpty(ticket)
	}
	query.AccessToken = token

	logging.Debug("fetching page",
		"page", query.Page, "generation", ticket.Generation(),
		"query", query.Query, "sort", query.Sort, "scope", query.Scope)
	page, err := e.lister.ListItems(ctx, query)
	return e.settle(ticket, page, err)
}

// Retry resets the feed to a fresh first page under the current filters and
// fetches it. The reset invalidates stragglers, so a retried feed cannot be
// corrupted by the failed fetch it replaces.
func (e *Engine) Retry(ctx context.Context) State {
	e.mu.Lock()
	e.resetLocked()
	e.mu.Unlock()
	return e.LoadNext(ctx)
}

// ApplyItemPatch mutates the cached copy of one item in place, typically
// with fields from a write response. Pagination state is untouched. It
// reports whether the item was present.
func (e *Engine) ApplyItemPatch(id string, patch func(*board.Post)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.items {
		if e.items[i].ID == id {
			patch(&e.items[i])
			return true
		}
	}
	return false
}

func (e *Engine) resetLocked() {
	gen := e.guard.Invalidate()
	e.items = nil
	e.cursor = NewCursor(e.cursor.PageSize)
	e.loading = false
	e.err = nil
	logging.Debug("feed reset",
		"generation", gen, "query", e.filters.Query,
		"sort", string(e.filters.Sort), "scope", string(e.filters.Scope))
}

// settle applies a fetch outcome if its ticket is still current and always
// releases the latch. Stale outcomes leave every field alone: by the time
// they land, the state they would touch belongs to a newer generation.
func (e *Engine) settle(t Ticket, page board.PostPage, fetchErr error) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.guard.Release(t)

	if !e.guard.Current(t) {
		e.stats.StaleDrops++
		logging.Debug("stale fetch dropped", "generation", t.Generation())
		return e.stateLocked()
	}

	e.loading = false
	if fetchErr != nil {
		e.err = &FetchError{Kind: Classify(fetchErr), Err: fetchErr}
		logging.Warn("fetch failed", "kind", e.err.Kind.String(), "error", fetchErr)
		return e.stateLocked()
	}

	e.err = nil
	e.items = append(e.items, page.Items...)
	e.cursor.NextPage++
	e.cursor.TotalPages = page.TotalPages
	e.cursor.TotalItems = page.TotalItems
	logging.Debug("page applied",
		"page", page.CurrentPage, "items", len(page.Items),
		"totalPages", page.TotalPages)
	return e.stateLocked()
}

// settleEmpty completes the feed as empty without a network round trip.
func (e *Engine) settleEmpty(t Ticket) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.guard.Release(t)

	if !e.guard.Current(t) {
		e.stats.StaleDrops++
		return e.stateLocked()
	}
	e.loading = false
	e.err = nil
	e.cursor.TotalPages = 0
	e.cursor.TotalItems = 0
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	return State{
		Items:      slices.Clone(e.items),
		Loading:    e.loading,
		Err:        e.err,
		Filters:    e.filters,
		Generation: e.guard.Generation(),
		NextPage:   e.cursor.NextPage,
		TotalPages: e.cursor.TotalPages,
		TotalItems: e.cursor.TotalItems,
		HasMore:    e.cursor.HasMore(),
		Stats:      e.stats,
	}
}
