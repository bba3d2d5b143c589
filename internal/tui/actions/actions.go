package actions

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/OneVth/prj-board/internal/auth"
	"github.com/OneVth/prj-board/internal/board"
	"github.com/OneVth/prj-board/internal/feed"
)

// Feeder is the slice of the feed engine the commands need. Both calls
// block until the feed settles and report the resulting snapshot; the
// engine owns all guarding and staleness decisions.
type Feeder interface {
	LoadNext(ctx context.Context) feed.State
	Retry(ctx context.Context) feed.State
}

// Account is the slice of the auth session the commands need.
type Account interface {
	ResolveSilently(ctx context.Context) auth.State
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	Expire()
	AccessToken() (string, bool)
	User() *board.UserSummary
}

// Poster is the slice of the API client for per-post actions.
type Poster interface {
	ToggleLike(ctx context.Context, token, id string) (board.Post, error)
	ListComments(ctx context.Context, id string) ([]board.Comment, error)
	CreateComment(ctx context.Context, token, id, content string) (board.Comment, error)
}

// SnapshotSaver persists the visible feed for the next offline startup.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, f feed.Filters, posts []board.Post) error
}

type FeedSettledMsg struct {
	State    feed.State
	Duration time.Duration
	Source   string
}

type SessionResolvedMsg struct {
	State auth.State
	User  *board.UserSummary
}

type SessionRecoveredMsg struct {
	State     auth.State
	User      *board.UserSummary
	FeedState feed.State
}

type LoginSuccessMsg struct {
	User *board.UserSummary
}

type LoginErrorMsg struct {
	Err error
}

type LogoutMsg struct {
	Err error
}

type LikeToggledMsg struct {
	Post board.Post
}

type LikeErrorMsg struct {
	Err error
}

type CommentsLoadedMsg struct {
	PostID   string
	Comments []board.Comment
}

type CommentsErrorMsg struct {
	PostID string
	Err    error
}

type CommentPostedMsg struct {
	PostID  string
	Comment board.Comment
}

type CommentErrorMsg struct {
	PostID string
	Err    error
}

type SnapshotSavedMsg struct {
	Err error
}

type PreferencesSavedMsg struct {
	Err error
}

type OpenPostSuccessMsg struct {
	Status string
	Opened bool
}

type OpenPostErrorMsg struct {
	Err error
}

func LoadNextCmd(eng Feeder, source string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
		defer cancel()
		start := time.Now()

		st := eng.LoadNext(ctx)
		return FeedSettledMsg{State: st, Duration: time.Since(start), Source: source}
	}
}

func RetryCmd(eng Feeder, source string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
		defer cancel()
		start := time.Now()

		st := eng.Retry(ctx)
		return FeedSettledMsg{State: st, Duration: time.Since(start), Source: source}
	}
}

func ResolveSessionCmd(account Account) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		st := account.ResolveSilently(ctx)
		return SessionResolvedMsg{State: st, User: account.User()}
	}
}

// RecoverSessionCmd handles a rejected access token: drop it, renew
// silently, then refetch the feed from page one whatever the renewal
// outcome, so the feed reflects whoever we are now.
func RecoverSessionCmd(account Account, eng Feeder) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		account.Expire()
		st := account.ResolveSilently(ctx)
		fs := eng.Retry(ctx)
		return SessionRecoveredMsg{State: st, User: account.User(), FeedState: fs}
	}
}

func LoginCmd(account Account, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := account.Login(ctx, email, password); err != nil {
			return LoginErrorMsg{Err: err}
		}
		return LoginSuccessMsg{User: account.User()}
	}
}

func LogoutCmd(account Account) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return LogoutMsg{Err: account.Logout(ctx)}
	}
}

func ToggleLikeCmd(api Poster, account Account, postID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		token, ok := account.AccessToken()
		if !ok {
			return LikeErrorMsg{Err: fmt.Errorf("sign in to like posts")}
		}
		post, err := api.ToggleLike(ctx, token, postID)
		if err != nil {
			return LikeErrorMsg{Err: err}
		}
		return LikeToggledMsg{Post: post}
	}
}

func LoadCommentsCmd(api Poster, postID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		comments, err := api.ListComments(ctx, postID)
		if err != nil {
			return CommentsErrorMsg{PostID: postID, Err: err}
		}
		return CommentsLoadedMsg{PostID: postID, Comments: comments}
	}
}

func PostCommentCmd(api Poster, account Account, postID, content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		token, ok := account.AccessToken()
		if !ok {
			return CommentErrorMsg{PostID: postID, Err: fmt.Errorf("sign in to comment")}
		}
		comment, err := api.CreateComment(ctx, token, postID, content)
		if err != nil {
			return CommentErrorMsg{PostID: postID, Err: err}
		}
		return CommentPostedMsg{PostID: postID, Comment: comment}
	}
}

func SaveSnapshotCmd(saver SnapshotSaver, f feed.Filters, posts []board.Post) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return SnapshotSavedMsg{Err: saver.SaveSnapshot(ctx, f, posts)}
	}
}

func SavePreferencesCmd(save func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return PreferencesSavedMsg{Err: save(ctx)}
	}
}

func OpenPostCmd(url string, openFn, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if openFn != nil {
			if err := openFn(url); err == nil {
				return OpenPostSuccessMsg{Status: "Opened post in browser", Opened: true}
			}
		}
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenPostSuccessMsg{Status: "Could not open browser, URL copied to clipboard", Opened: false}
			}
		}
		return OpenPostErrorMsg{Err: fmt.Errorf("could not open URL or copy to clipboard")}
	}
}

func CopyURLCmd(url string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenPostSuccessMsg{Status: "URL copied to clipboard"}
			}
		}
		return OpenPostErrorMsg{Err: fmt.Errorf("could not copy URL to clipboard")}
	}
}
