// Package app assembles the board client, local store, session, and
// feed engine into a ready-to-run unit.
package app

import (
	"context"
	"fmt"

	"github.com/OneVth/prj-board/internal/auth"
	"github.com/OneVth/prj-board/internal/board"
	"github.com/OneVth/prj-board/internal/config"
	"github.com/OneVth/prj-board/internal/feed"
	"github.com/OneVth/prj-board/internal/logging"
	"github.com/OneVth/prj-board/internal/store"
)

// App holds the wired dependencies for one client run.
type App struct {
	Config      config.Config
	Store       *store.Store
	Client      *board.Client
	Session     *auth.Session
	Engine      *feed.Engine
	SeedPosts   []board.Post
	Preferences store.Preferences
}

// New opens the local store, restores the saved session credential and
// feed snapshot, and builds the engine. When saved posts exist the
// snapshot's filters win over the configured defaults, so the warm-start
// list and the first fetch describe the same feed.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err := st.Init(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init local store: %w", err)
	}

	client := board.NewClient(cfg.APIBaseURL, nil)
	client.SetRequestRate(cfg.RequestRate)

	refresh, err := st.LoadSession(ctx)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load saved session: %w", err)
	}
	if refresh != "" {
		client.SeedRefreshCookie(refresh)
	}

	filters := feed.Filters{
		Sort:  feed.SortKey(cfg.DefaultSort),
		Scope: feed.Scope(cfg.DefaultScope),
	}
	savedFilters, posts, err := st.LoadSnapshot(ctx)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load feed snapshot: %w", err)
	}
	if len(posts) > 0 {
		filters = savedFilters
	}

	prefs, err := st.LoadPreferences(ctx)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	session := auth.NewSession(client)

	return &App{
		Config:      cfg,
		Store:       st,
		Client:      client,
		Session:     session,
		Engine:      feed.New(client, session, filters, cfg.PageSize),
		SeedPosts:   posts,
		Preferences: prefs,
	}, nil
}

// Close persists the rotated refresh credential and releases the store.
// A signed-out run clears the saved session so the next start stays
// anonymous. Persistence failures are logged, not fatal: the session is
// a convenience, the store close still has to happen.
func (a *App) Close(ctx context.Context) error {
	if cookie, ok := a.Client.RefreshCookie(); ok {
		if err := a.Store.SaveSession(ctx, cookie); err != nil {
			logging.Warn("save session failed", "error", err)
		}
	} else if err := a.Store.ClearSession(ctx); err != nil {
		logging.Warn("clear session failed", "error", err)
	}
	return a.Store.Close()
}
