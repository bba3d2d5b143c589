// Package store persists the last feed snapshot, the session credential and
// UI preferences in a local sqlite database. The snapshot only seeds the
// first paint after startup; the engine never reads it back.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/OneVth/prj-board/internal/board"
	"github.com/OneVth/prj-board/internal/feed"
)

// Preferences are the UI toggles that survive restarts.
type Preferences struct {
	VerboseFooter bool
	RelativeTime  bool
}

type Store struct {
	db *sql.DB
}

// Open creates the database file if needed and opens it. The file is kept
// at 0600 because the refresh credential is stored inside.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create database file: %w", err)
	}
	_ = f.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS snapshot_posts (
  position INTEGER PRIMARY KEY,
  id TEXT NOT NULL,
  title TEXT NOT NULL,
  content TEXT NOT NULL,
  author_id TEXT NOT NULL,
  author_username TEXT NOT NULL,
  image TEXT,
  likes INTEGER NOT NULL,
  comment_count INTEGER NOT NULL,
  created_at TEXT NOT NULL,
  fetched_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_meta (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  query TEXT NOT NULL,
  sort TEXT NOT NULL,
  scope TEXT NOT NULL,
  saved_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS session (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  refresh_token TEXT NOT NULL,
  saved_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS preferences (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveSnapshot replaces the stored snapshot wholesale. Post order is kept
// through the position column so the next startup paints the same list.
func (s *Store) SaveSnapshot(ctx context.Context, filters feed.Filters, posts []board.Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_posts`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO snapshot_posts (position, id, title, content, author_id, author_username, image, likes, comment_count, created_at, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return fmt.Errorf("prepare snapshot statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i, post := range posts {
		_, err := stmt.ExecContext(
			ctx,
			i,
			post.ID,
			post.Title,
			post.Content,
			post.AuthorID,
			post.AuthorUsername,
			post.Image,
			post.Likes,
			post.CommentCount,
			post.CreatedAt.UTC().Format(time.RFC3339Nano),
			now,
		)
		if err != nil {
			return fmt.Errorf("save post %s: %w", post.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO snapshot_meta (id, query, sort, scope, saved_at)
VALUES (1, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  query=excluded.query,
  sort=excluded.sort,
  scope=excluded.scope,
  saved_at=excluded.saved_at
`, filters.Query, string(filters.Sort), string(filters.Scope), now)
	if err != nil {
		return fmt.Errorf("save snapshot meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored filter tuple and posts in saved order.
// An empty database yields the default filters and no posts.
func (s *Store) LoadSnapshot(ctx context.Context) (feed.Filters, []board.Post, error) {
	filters := feed.DefaultFilters()

	var query, sortRaw, scopeRaw string
	err := s.db.QueryRowContext(ctx, `SELECT query, sort, scope FROM snapshot_meta WHERE id = 1`).
		Scan(&query, &sortRaw, &scopeRaw)
	switch {
	case err == sql.ErrNoRows:
		return filters, nil, nil
	case err != nil:
		return filters, nil, fmt.Errorf("query snapshot meta: %w", err)
	}

	sort, err := feed.ParseSortKey(sortRaw)
	if err != nil {
		return filters, nil, fmt.Errorf("stored snapshot: %w", err)
	}
	scope, err := feed.ParseScope(scopeRaw)
	if err != nil {
		return filters, nil, fmt.Errorf("stored snapshot: %w", err)
	}
	filters = feed.Filters{Query: query, Sort: sort, Scope: scope}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, content, author_id, author_username, image, likes, comment_count, created_at
FROM snapshot_posts
ORDER BY position ASC
`)
	if err != nil {
		return filters, nil, fmt.Errorf("query snapshot posts: %w", err)
	}
	defer rows.Close()

	posts, err := scanPosts(rows)
	if err != nil {
		return filters, nil, err
	}
	return filters, posts, nil
}

// SearchSaved runs a local search over the snapshot, for browsing the cache
// while offline. An empty query matches everything.
func (s *Store) SearchSaved(ctx context.Context, query string, sort feed.SortKey, limit int) ([]board.Post, error) {
	if limit < 1 {
		limit = 20
	}

	builder := sq.Select(
		"id", "title", "content", "author_id", "author_username",
		"image", "likes", "comment_count", "created_at",
	).From("snapshot_posts")

	if query != "" {
		like := "%" + query + "%"
		builder = builder.Where(sq.Or{
			sq.Like{"title": like},
			sq.Like{"content": like},
		})
	}

	switch sort {
	case feed.SortLikes:
		builder = builder.OrderBy("likes DESC", "created_at DESC")
	case feed.SortComments:
		builder = builder.OrderBy("comment_count DESC", "created_at DESC")
	default:
		builder = builder.OrderBy("created_at DESC")
	}

	rows, err := builder.Limit(uint64(limit)).RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("search snapshot: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

func scanPosts(rows *sql.Rows) ([]board.Post, error) {
	var posts []board.Post
	for rows.Next() {
		var post board.Post
		var createdAt string
		if err := rows.Scan(
			&post.ID,
			&post.Title,
			&post.Content,
			&post.AuthorID,
			&post.AuthorUsername,
			&post.Image,
			&post.Likes,
			&post.CommentCount,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}

		var err error
		post.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse post created_at %q: %w", createdAt, err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return posts, nil
}

// SaveSession stores the refresh credential for the next silent sign-in.
func (s *Store) SaveSession(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return s.ClearSession(ctx)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO session (id, refresh_token, saved_at)
VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  refresh_token=excluded.refresh_token,
  saved_at=excluded.saved_at
`, refreshToken, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession returns the stored refresh credential, or "" when signed out.
func (s *Store) LoadSession(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `SELECT refresh_token FROM session WHERE id = 1`).Scan(&token)
	switch {
	case err == sql.ErrNoRows:
		return "", nil
	case err != nil:
		return "", fmt.Errorf("query session: %w", err)
	}
	return token, nil
}

func (s *Store) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) SavePreferences(ctx context.Context, p Preferences) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for key, value := range map[string]bool{
		"verbose_footer": p.VerboseFooter,
		"relative_time":  p.RelativeTime,
	} {
		_, err := tx.ExecContext(ctx, `
INSERT INTO preferences (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value
`, key, boolValue(value))
		if err != nil {
			return fmt.Errorf("save preference %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) LoadPreferences(ctx context.Context) (Preferences, error) {
	var p Preferences

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM preferences`)
	if err != nil {
		return p, fmt.Errorf("query preferences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return p, fmt.Errorf("scan preference: %w", err)
		}
		switch key {
		case "verbose_footer":
			p.VerboseFooter = value == "1"
		case "relative_time":
			p.RelativeTime = value == "1"
		}
	}

	if err := rows.Err(); err != nil {
		return p, fmt.Errorf("rows iteration: %w", err)
	}
	return p, nil
}

// Prune deletes snapshot posts fetched before the cutoff. A zero duration
// clears the whole snapshot. Session and preferences are untouched.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	var res sql.Result
	var err error
	if olderThan <= 0 {
		res, err = s.db.ExecContext(ctx, `DELETE FROM snapshot_posts`)
	} else {
		cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
		res, err = s.db.ExecContext(ctx, `DELETE FROM snapshot_posts WHERE fetched_at < ?`, cutoff)
	}
	if err != nil {
		return 0, fmt.Errorf("prune snapshot: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune result: %w", err)
	}

	var remaining int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshot_posts`).Scan(&remaining); err != nil {
		return deleted, fmt.Errorf("count snapshot: %w", err)
	}
	if remaining == 0 {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshot_meta`); err != nil {
			return deleted, fmt.Errorf("clear snapshot meta: %w", err)
		}
	}
	return deleted, nil
}

func boolValue(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
