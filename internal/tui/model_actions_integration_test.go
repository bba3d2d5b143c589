package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/OneVth/prj-board/internal/auth"
	"github.com/OneVth/prj-board/internal/board"
	"github.com/OneVth/prj-board/internal/feed"
	tuiactions "github.com/OneVth/prj-board/internal/tui/actions"
)

// collectMsgs runs a command tree synchronously and flattens the messages
// it produces. Commands that sleep (status clears) must not be in the tree.
func collectMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, sub := range batch {
			out = append(out, collectMsgs(sub)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findFeedSettled(msgs []tea.Msg) (tuiactions.FeedSettledMsg, bool) {
	for _, msg := range msgs {
		if fm, ok := msg.(tuiactions.FeedSettledMsg); ok {
			return fm, true
		}
	}
	return tuiactions.FeedSettledMsg{}, false
}

func TestScrollBoundaryLoadsNextPage(t *testing.T) {
	eng := newFakeEngine()
	all := makePosts("Post", 20)
	page1 := settledPage(all[:10], 2, 2, 20, true)
	page2 := settledPage(all, 3, 2, 20, false)
	eng.loadQueue = []feed.State{page2}

	m := NewModel(Options{Engine: eng})
	m, _ = updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 12})

	m, cmd := updateModel(t, m, tuiactions.FeedSettledMsg{State: page1})
	if cmd != nil {
		t.Fatal("no fetch while the boundary is off screen")
	}

	m, cmd = updateModel(t, m, keyRunes("G"))
	if cmd == nil {
		t.Fatal("expected a fetch once the boundary scrolls into view")
	}
	if !m.fetching {
		t.Fatal("expected the model to mark the fetch in flight")
	}

	m, dup := updateModel(t, m, keyRunes("j"))
	if dup != nil {
		t.Fatal("moving while a fetch runs must not start another")
	}

	fm, ok := findFeedSettled(collectMsgs(cmd))
	if !ok {
		t.Fatal("expected a feed settle from the boundary fetch")
	}
	if fm.Source != "scroll" {
		t.Fatalf("source = %q, want scroll", fm.Source)
	}
	if eng.loadCalls != 1 {
		t.Fatalf("loadCalls = %d, want 1", eng.loadCalls)
	}

	m, _ = updateModel(t, m, fm)
	if len(m.feed.Items) != 20 {
		t.Fatalf("items = %d, want 20", len(m.feed.Items))
	}

	m, cmd = updateModel(t, m, keyRunes("G"))
	if cmd != nil {
		t.Fatal("no fetch once the feed is complete")
	}
	if eng.loadCalls != 1 {
		t.Fatalf("loadCalls = %d, want 1 after completion", eng.loadCalls)
	}
}

func TestBottomParkedReaderChainsFetches(t *testing.T) {
	eng := newFakeEngine()
	all := makePosts("Post", 9)
	eng.loadQueue = []feed.State{
		settledPage(all[:6], 3, 3, 9, true),
		settledPage(all, 4, 3, 9, false),
	}

	m := NewModel(Options{Engine: eng})
	page1 := settledPage(all[:3], 2, 3, 9, true)

	// A short page leaves the boundary on screen, so each settle starts
	// the next fetch until the feed is complete.
	m, cmd := updateModel(t, m, tuiactions.FeedSettledMsg{State: page1})
	if cmd == nil {
		t.Fatal("expected an immediate fetch with the boundary visible")
	}
	fm, ok := findFeedSettled(collectMsgs(cmd))
	if !ok || fm.Source != "scroll" {
		t.Fatalf("expected a scroll settle, got %+v", fm)
	}

	m, cmd = updateModel(t, m, fm)
	if cmd == nil {
		t.Fatal("expected the chain to continue while pages remain")
	}
	fm, ok = findFeedSettled(collectMsgs(cmd))
	if !ok {
		t.Fatal("expected the second chained settle")
	}

	m, cmd = updateModel(t, m, fm)
	if cmd != nil {
		t.Fatal("the chain must stop at the last page")
	}
	if eng.loadCalls != 2 {
		t.Fatalf("loadCalls = %d, want 2", eng.loadCalls)
	}
	if !strings.Contains(plainView(m), "end of feed") {
		t.Fatal("expected the end-of-feed boundary")
	}
}

func TestExpiredSessionRecoversSilently(t *testing.T) {
	eng := newFakeEngine()
	eng.retryQueue = []feed.State{settledPage(makePosts("Post", 2), 2, 1, 2, false)}
	account := &fakeAccount{
		state:     auth.StateAuthenticated,
		resolveTo: auth.StateAuthenticated,
		token:     "tok",
		user:      &board.UserSummary{ID: "u1", Username: "momo"},
	}
	m := NewModel(Options{Engine: eng, Account: account})

	expired := feed.State{
		Err:        &feed.FetchError{Kind: feed.AuthExpired, Err: fmt.Errorf("token rejected")},
		NextPage:   2,
		TotalPages: 3,
		TotalItems: 30,
		HasMore:    true,
	}
	m, cmd := updateModel(t, m, tuiactions.FeedSettledMsg{State: expired})
	if cmd == nil {
		t.Fatal("expected a silent recovery command")
	}
	if !strings.Contains(plainView(m), "renewing session") {
		t.Fatal("expected the renewal indicator")
	}

	var rm tuiactions.SessionRecoveredMsg
	found := false
	for _, msg := range collectMsgs(cmd) {
		if got, ok := msg.(tuiactions.SessionRecoveredMsg); ok {
			rm = got
			found = true
		}
	}
	if !found {
		t.Fatal("expected a SessionRecoveredMsg")
	}
	if account.expireCalls != 1 {
		t.Fatalf("expireCalls = %d, want 1", account.expireCalls)
	}
	if eng.retryCalls != 1 {
		t.Fatalf("retryCalls = %d, want 1", eng.retryCalls)
	}

	m, _ = updateModel(t, m, rm)
	out := plainView(m)
	if !strings.Contains(out, "Post 01") {
		t.Fatalf("expected the refetched feed, got:\n%s", out)
	}
	if !strings.Contains(out, "Session renewed") {
		t.Fatal("expected the renewal status")
	}
}

func TestLoginFlow(t *testing.T) {
	eng := newFakeEngine()
	account := &fakeAccount{
		state: auth.StateAnonymous,
		user:  &board.UserSummary{ID: "u1", Username: "momo"},
	}
	m := NewModel(Options{Engine: eng, Account: account})

	m, _ = updateModel(t, m, keyRunes("i"))
	if m.mode != modeLoginEmail {
		t.Fatalf("mode = %v, want login email", m.mode)
	}

	m, _ = updateModel(t, m, keyRunes("me@example.com"))
	m, _ = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeLoginPassword {
		t.Fatalf("mode = %v, want login password", m.mode)
	}

	m, _ = updateModel(t, m, keyRunes("hunter2"))
	m, cmd := updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a login command")
	}

	var lm tuiactions.LoginSuccessMsg
	found := false
	for _, msg := range collectMsgs(cmd) {
		if got, ok := msg.(tuiactions.LoginSuccessMsg); ok {
			lm = got
			found = true
		}
	}
	if !found {
		t.Fatal("expected a LoginSuccessMsg")
	}
	if account.state != auth.StateAuthenticated {
		t.Fatal("expected the account to be signed in")
	}

	m, cmd = updateModel(t, m, lm)
	if m.mode != modeList {
		t.Fatalf("mode = %v, want list after sign-in", m.mode)
	}
	if cmd == nil {
		t.Fatal("expected a refetch after sign-in")
	}
	if !strings.Contains(plainView(m), "Signed in as @momo") {
		t.Fatal("expected the sign-in status")
	}
}

func TestCommentFlow(t *testing.T) {
	account := &fakeAccount{state: auth.StateAuthenticated, token: "tok"}
	api := &fakePoster{
		created: board.Comment{
			ID:             "c9",
			PostID:         "seed01",
			Content:        "Nice.",
			AuthorUsername: "momo",
		},
	}
	m := NewModel(Options{Account: account, API: api, SeedPosts: makePosts("Seed", 1)})

	m, cmd := updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a comments load on entering detail")
	}
	msgs := collectMsgs(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	if _, ok := msgs[0].(tuiactions.CommentsLoadedMsg); !ok {
		t.Fatalf("expected CommentsLoadedMsg, got %T", msgs[0])
	}
	m, _ = updateModel(t, m, msgs[0])
	if !strings.Contains(plainView(m), "No comments yet.") {
		t.Fatal("expected the empty thread text")
	}

	m, _ = updateModel(t, m, keyRunes("c"))
	if m.mode != modeComment {
		t.Fatalf("mode = %v, want comment", m.mode)
	}
	m, _ = updateModel(t, m, keyRunes("Nice."))
	m, cmd = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a post command")
	}

	msgs = collectMsgs(cmd)
	pm, ok := msgs[0].(tuiactions.CommentPostedMsg)
	if !ok {
		t.Fatalf("expected CommentPostedMsg, got %T", msgs[0])
	}
	if api.lastToken != "tok" || api.lastContent != "Nice." {
		t.Fatalf("unexpected create call: token=%q content=%q", api.lastToken, api.lastContent)
	}

	m, _ = updateModel(t, m, pm)
	if m.mode != modeDetail {
		t.Fatalf("mode = %v, want detail after posting", m.mode)
	}
	out := plainView(m)
	if !strings.Contains(out, "Comments (1)") || !strings.Contains(out, "Nice.") {
		t.Fatalf("expected the new comment in the thread, got:\n%s", out)
	}
}

func TestLikeFlow(t *testing.T) {
	eng := newFakeEngine()
	account := &fakeAccount{state: auth.StateAuthenticated, token: "tok"}
	api := &fakePoster{toggled: board.Post{ID: "post02", Title: "Post 02", Likes: 8}}
	m := NewModel(Options{Engine: eng, Account: account, API: api})

	m, _ = updateModel(t, m, tuiactions.FeedSettledMsg{State: settledPage(makePosts("Post", 3), 2, 1, 3, false)})
	m, _ = updateModel(t, m, keyRunes("j"))

	m, cmd := updateModel(t, m, keyRunes("l"))
	if cmd == nil {
		t.Fatal("expected a like command")
	}
	msgs := collectMsgs(cmd)
	lm, ok := msgs[0].(tuiactions.LikeToggledMsg)
	if !ok {
		t.Fatalf("expected LikeToggledMsg, got %T", msgs[0])
	}
	if api.lastToken != "tok" || api.lastPostID != "post02" {
		t.Fatalf("unexpected toggle call: token=%q post=%q", api.lastToken, api.lastPostID)
	}

	m, _ = updateModel(t, m, lm)
	if m.feed.Items[1].Likes != 8 {
		t.Fatalf("likes = %d, want 8", m.feed.Items[1].Likes)
	}
	if !strings.Contains(plainView(m), "♥8") {
		t.Fatal("expected the updated like count")
	}
}

func TestOpenAndCopyFlow(t *testing.T) {
	m := NewModel(Options{SeedPosts: makePosts("Seed", 1), APIBaseURL: "http://api.test/api"})
	var opened, copied string
	m.openURLFn = func(u string) error {
		opened = u
		return nil
	}
	m.copyURLFn = func(u string) error {
		copied = u
		return nil
	}

	m, cmd := updateModel(t, m, keyRunes("o"))
	if cmd == nil {
		t.Fatal("expected an open command")
	}
	msgs := collectMsgs(cmd)
	om, ok := msgs[0].(tuiactions.OpenPostSuccessMsg)
	if !ok {
		t.Fatalf("expected OpenPostSuccessMsg, got %T", msgs[0])
	}
	if opened != "http://api.test/posts/seed01" {
		t.Fatalf("opened = %q", opened)
	}
	m, _ = updateModel(t, m, om)
	if !strings.Contains(plainView(m), "Opened post in browser") {
		t.Fatal("expected the open status")
	}

	m, cmd = updateModel(t, m, keyRunes("y"))
	msgs = collectMsgs(cmd)
	if _, ok := msgs[0].(tuiactions.OpenPostSuccessMsg); !ok {
		t.Fatalf("expected OpenPostSuccessMsg, got %T", msgs[0])
	}
	if copied != "http://api.test/posts/seed01" {
		t.Fatalf("copied = %q", copied)
	}
}
