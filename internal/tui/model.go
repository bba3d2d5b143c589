// Package tui is the bubbletea front end for the board. The Model owns no
// feed logic: paging, staleness and reset decisions live in the feed
// engine, and the update loop only dispatches commands and renders the
// snapshots they bring back.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/OneVth/prj-board/internal/auth"
	"github.com/OneVth/prj-board/internal/board"
	"github.com/OneVth/prj-board/internal/feed"
	postrender "github.com/OneVth/prj-board/internal/render/post"
	tuiactions "github.com/OneVth/prj-board/internal/tui/actions"
	"github.com/OneVth/prj-board/internal/tui/platform"
	"github.com/OneVth/prj-board/internal/tui/state"
	tuitheme "github.com/OneVth/prj-board/internal/tui/theme"
	"github.com/OneVth/prj-board/internal/tui/view"
)

// Engine is the feed engine surface the model drives.
type Engine interface {
	State() feed.State
	Filters() feed.Filters
	SetFilters(feed.Filters) bool
	LoadNext(ctx context.Context) feed.State
	Retry(ctx context.Context) feed.State
	ApplyItemPatch(id string, patch func(*board.Post)) bool
}

// Account extends the command-level session surface with the lifecycle
// state the footer shows.
type Account interface {
	tuiactions.Account
	State() auth.State
}

type mode int

const (
	modeList mode = iota
	modeDetail
	modeSearch
	modeLoginEmail
	modeLoginPassword
	modeComment
)

func (d mode) String() string {
	switch d {
	case modeDetail:
		return "detail"
	case modeSearch:
		return "search"
	case modeLoginEmail, modeLoginPassword:
		return "login"
	case modeComment:
		return "comment"
	}
	return "list"
}

type clearStatusMsg struct {
	id int
}

// Preferences are the persisted UI toggles.
type Preferences struct {
	VerboseFooter bool
	RelativeTime  bool
}

// Options wires the model's collaborators. Everything is optional; a nil
// collaborator disables the keys that need it, which keeps tests small.
type Options struct {
	Engine          Engine
	Account         Account
	API             tuiactions.Poster
	Snapshot        tuiactions.SnapshotSaver
	SeedPosts       []board.Post
	Preferences     Preferences
	APIBaseURL      string
	SavePreferences func(context.Context, Preferences) error
}

type Model struct {
	engine   Engine
	account  Account
	api      tuiactions.Poster
	snapshot tuiactions.SnapshotSaver

	mode       mode
	feed       feed.State
	seeded     []board.Post
	hasSettled bool
	cursor     int
	selectedID string
	detailTop  int

	width  int
	height int

	fetching       bool
	authBusy       bool
	authRecovering bool
	sentinel       feed.Sentinel

	searchInput   textinput.Model
	emailInput    textinput.Model
	passwordInput textinput.Model
	commentInput  textinput.Model
	commentPostID string
	returnMode    mode
	spin          spinner.Model

	comments        map[string][]board.Comment
	commentsLoaded  map[string]bool
	commentsLoading map[string]bool
	commentsErr     map[string]string

	verboseFooter bool
	relativeTime  bool

	status   string
	statusID int
	err      error

	th         tuitheme.Theme
	apiBaseURL string

	openURLFn         func(string) error
	copyURLFn         func(string) error
	nowFn             func() time.Time
	savePreferencesFn func(context.Context, Preferences) error
}

func NewModel(opts Options) Model {
	th := tuitheme.Default()

	search := textinput.New()
	search.Placeholder = "title or content"
	search.Prompt = "/ "
	search.PromptStyle = th.Prompt
	search.CharLimit = 120

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "> "
	email.PromptStyle = th.Prompt
	email.CharLimit = 120

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "> "
	password.PromptStyle = th.Prompt
	password.CharLimit = 120
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	comment := textinput.New()
	comment.Placeholder = "write a comment"
	comment.Prompt = "> "
	comment.PromptStyle = th.Prompt
	comment.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = th.Spinner

	m := Model{
		engine:            opts.Engine,
		account:           opts.Account,
		api:               opts.API,
		snapshot:          opts.Snapshot,
		seeded:            append([]board.Post(nil), opts.SeedPosts...),
		searchInput:       search,
		emailInput:        email,
		passwordInput:     password,
		commentInput:      comment,
		spin:              sp,
		comments:          make(map[string][]board.Comment),
		commentsLoaded:    make(map[string]bool),
		commentsLoading:   make(map[string]bool),
		commentsErr:       make(map[string]string),
		verboseFooter:     opts.Preferences.VerboseFooter,
		relativeTime:      opts.Preferences.RelativeTime,
		th:                th,
		apiBaseURL:        opts.APIBaseURL,
		openURLFn:         platform.OpenURLInBrowser,
		copyURLFn:         platform.CopyToClipboard,
		nowFn:             time.Now,
		savePreferencesFn: opts.SavePreferences,
	}
	if opts.Engine != nil {
		m.feed = opts.Engine.State()
		// Init dispatches the first fetch immediately.
		m.fetching = true
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick}
	if m.account != nil {
		cmds = append(cmds, tuiactions.ResolveSessionCmd(m.account))
	}
	if m.engine != nil {
		cmds = append(cmds, tuiactions.LoadNextCmd(m.engine, "init"))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.observeBoundary()

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.handleSearchKey(msg)
		case modeLoginEmail, modeLoginPassword:
			return m.handleLoginKey(msg)
		case modeComment:
			return m.handleCommentKey(msg)
		case modeDetail:
			return m.handleDetailKey(msg)
		default:
			return m.handleListKey(msg)
		}

	case tuiactions.FeedSettledMsg:
		return m.handleFeedSettled(msg)

	case tuiactions.SessionResolvedMsg:
		if msg.State == auth.StateAuthenticated && msg.User != nil {
			m.status = "Signed in as @" + msg.User.Username
			m.statusID++
			return m, clearStatusCmd(m.statusID, 3*time.Second)
		}
		return m, nil

	case tuiactions.SessionRecoveredMsg:
		m.authRecovering = false
		m.fetching = false
		m.feed = msg.FeedState
		if !msg.FeedState.Loading && msg.FeedState.Err == nil {
			m.hasSettled = true
		}
		m.cursor = state.ClampCursor(m.cursor, len(m.displayPosts()))
		if msg.State == auth.StateAuthenticated {
			m.status = "Session renewed"
		} else {
			m.status = "Session expired, continuing anonymously"
		}
		m.statusID++
		cmds := []tea.Cmd{clearStatusCmd(m.statusID, 4*time.Second)}
		if cmd := m.observeBoundary(); cmd != nil {
			cmds = append(cmds, cmd, m.spin.Tick)
		}
		return m, tea.Batch(cmds...)

	case tuiactions.LoginSuccessMsg:
		m.authBusy = false
		m.mode = modeList
		m.emailInput.Blur()
		m.emailInput.Reset()
		m.passwordInput.Blur()
		m.passwordInput.Reset()
		m.err = nil
		m.status = "Signed in"
		if msg.User != nil && msg.User.Username != "" {
			m.status = "Signed in as @" + msg.User.Username
		}
		m.statusID++
		cmds := []tea.Cmd{clearStatusCmd(m.statusID, 3*time.Second)}
		if m.engine != nil {
			m.fetching = true
			m.sentinel = feed.Sentinel{}
			m.cursor = 0
			cmds = append(cmds, tuiactions.RetryCmd(m.engine, "signin"), m.spin.Tick)
		}
		return m, tea.Batch(cmds...)

	case tuiactions.LoginErrorMsg:
		m.authBusy = false
		m.err = msg.Err
		m.status = ""
		m.passwordInput.Reset()
		return m, nil

	case tuiactions.LogoutMsg:
		m.authBusy = false
		m.status = "Signed out"
		m.statusID++
		m.err = msg.Err
		cmds := []tea.Cmd{clearStatusCmd(m.statusID, 3*time.Second)}
		if m.engine != nil {
			m.fetching = true
			m.sentinel = feed.Sentinel{}
			m.cursor = 0
			cmds = append(cmds, tuiactions.RetryCmd(m.engine, "signout"), m.spin.Tick)
		}
		return m, tea.Batch(cmds...)

	case tuiactions.LikeToggledMsg:
		m.patchPost(msg.Post.ID, func(p *board.Post) {
			p.Likes = msg.Post.Likes
			p.CommentCount = msg.Post.CommentCount
		})
		m.err = nil
		m.status = fmt.Sprintf("♥%d", msg.Post.Likes)
		m.statusID++
		return m, clearStatusCmd(m.statusID, 3*time.Second)

	case tuiactions.LikeErrorMsg:
		m.err = msg.Err
		m.status = ""
		return m, nil

	case tuiactions.CommentsLoadedMsg:
		delete(m.commentsLoading, msg.PostID)
		delete(m.commentsErr, msg.PostID)
		m.comments[msg.PostID] = msg.Comments
		m.commentsLoaded[msg.PostID] = true
		return m, nil

	case tuiactions.CommentsErrorMsg:
		delete(m.commentsLoading, msg.PostID)
		m.commentsErr[msg.PostID] = msg.Err.Error()
		return m, nil

	case tuiactions.CommentPostedMsg:
		m.comments[msg.PostID] = append(m.comments[msg.PostID], msg.Comment)
		m.commentsLoaded[msg.PostID] = true
		count := len(m.comments[msg.PostID])
		m.patchPost(msg.PostID, func(p *board.Post) {
			p.CommentCount = count
		})
		m.mode = m.returnMode
		m.commentInput.Blur()
		m.commentInput.Reset()
		m.err = nil
		m.status = "Comment posted"
		m.statusID++
		return m, clearStatusCmd(m.statusID, 3*time.Second)

	case tuiactions.CommentErrorMsg:
		m.err = msg.Err
		m.status = ""
		return m, nil

	case tuiactions.SnapshotSavedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.status = "Could not persist the feed snapshot"
		}
		return m, nil

	case tuiactions.PreferencesSavedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.status = "Could not persist UI preferences"
		}
		return m, nil

	case tuiactions.OpenPostSuccessMsg:
		m.err = nil
		m.status = msg.Status
		m.statusID++
		return m, clearStatusCmd(m.statusID, 4*time.Second)

	case tuiactions.OpenPostErrorMsg:
		m.err = msg.Err
		m.status = ""
		return m, nil

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleFeedSettled(msg tuiactions.FeedSettledMsg) (tea.Model, tea.Cmd) {
	m.fetching = false
	m.feed = msg.State
	// A failed first fetch keeps the persisted snapshot on screen; live
	// items take over only once a fetch lands cleanly.
	if !msg.State.Loading && msg.State.Err == nil {
		m.hasSettled = true
	}
	if m.selectedID != "" {
		if idx := state.PostIndexByID(m.displayPosts(), m.selectedID); idx >= 0 {
			m.cursor = idx
		}
	}
	m.cursor = state.ClampCursor(m.cursor, len(m.displayPosts()))

	if fe := msg.State.Err; fe != nil && fe.Kind == feed.AuthExpired &&
		!m.authRecovering && m.account != nil && m.engine != nil {
		m.authRecovering = true
		m.fetching = true
		m.status = "Session expired, renewing..."
		return m, tea.Batch(tuiactions.RecoverSessionCmd(m.account, m.engine), m.spin.Tick)
	}

	var cmds []tea.Cmd
	if msg.State.Err == nil && !msg.State.Loading && m.snapshot != nil && len(msg.State.Items) > 0 {
		cmds = append(cmds, tuiactions.SaveSnapshotCmd(m.snapshot, msg.State.Filters, msg.State.Items))
	}
	if cmd := m.observeBoundary(); cmd != nil {
		cmds = append(cmds, cmd, m.spin.Tick)
	}
	if len(cmds) == 0 {
		return m, nil
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		m.cursor = state.ClampCursor(m.cursor-1, len(m.displayPosts()))
		return m, m.observeBoundary()
	case "down", "j":
		m.cursor = state.ClampCursor(m.cursor+1, len(m.displayPosts()))
		return m, m.observeBoundary()
	case "pgup", "ctrl+b":
		step := state.PageStep(m.height, m.status != "" || m.err != nil)
		m.cursor = state.ClampCursor(m.cursor-step, len(m.displayPosts()))
		return m, m.observeBoundary()
	case "pgdown", "ctrl+f":
		step := state.PageStep(m.height, m.status != "" || m.err != nil)
		m.cursor = state.ClampCursor(m.cursor+step, len(m.displayPosts()))
		return m, m.observeBoundary()
	case "g":
		m.cursor = 0
		return m, m.observeBoundary()
	case "G":
		m.cursor = state.ClampCursor(len(m.displayPosts())-1, len(m.displayPosts()))
		return m, m.observeBoundary()
	case "enter":
		return m.enterDetail()
	case "/":
		m.mode = modeSearch
		m.searchInput.SetValue(m.engineFilters().Query)
		m.searchInput.CursorEnd()
		m.searchInput.Focus()
		return m, textinput.Blink
	case "s":
		f := m.engineFilters()
		f.Sort = f.Sort.Next()
		cmd := m.applyFilters(f)
		if cmd != nil {
			m.status = "Sort: " + string(f.Sort)
			m.statusID++
			cmd = tea.Batch(cmd, clearStatusCmd(m.statusID, 3*time.Second))
		}
		return m, cmd
	case "f":
		f := m.engineFilters()
		f.Scope = f.Scope.Toggle()
		cmd := m.applyFilters(f)
		if cmd != nil {
			m.status = "Scope: " + string(f.Scope)
			m.statusID++
			cmd = tea.Batch(cmd, clearStatusCmd(m.statusID, 3*time.Second))
		}
		return m, cmd
	case "r":
		if m.engine == nil {
			return m, nil
		}
		m.fetching = true
		m.status = ""
		m.err = nil
		m.cursor = 0
		m.sentinel = feed.Sentinel{}
		return m, tea.Batch(tuiactions.RetryCmd(m.engine, "manual"), m.spin.Tick)
	case "l":
		return m.likeCurrent()
	case "c":
		return m.startComment()
	case "o":
		return m.openCurrent()
	case "y":
		return m.copyCurrent()
	case "i":
		return m.startLogin()
	case "x":
		return m.startLogout()
	case "t":
		m.relativeTime = !m.relativeTime
		m.err = nil
		if m.relativeTime {
			m.status = "Relative dates: on"
		} else {
			m.status = "Relative dates: off"
		}
		m.statusID++
		return m, tea.Batch(m.persistPreferences(), clearStatusCmd(m.statusID, 3*time.Second))
	case "v":
		m.verboseFooter = !m.verboseFooter
		m.err = nil
		if m.verboseFooter {
			m.status = "Verbose footer: on"
		} else {
			m.status = "Verbose footer: off"
		}
		m.statusID++
		return m, tea.Batch(m.persistPreferences(), clearStatusCmd(m.statusID, 3*time.Second))
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.mode = modeList
		m.detailTop = 0
		m.selectedID = ""
		return m, m.observeBoundary()
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.detailTop > 0 {
			m.detailTop--
		}
		return m, nil
	case "down", "j":
		if maxTop := view.DetailMaxTop(len(m.detailLines()), m.bodyHeight()); m.detailTop < maxTop {
			m.detailTop++
		}
		return m, nil
	case "g":
		m.detailTop = 0
		return m, nil
	case "G":
		m.detailTop = view.DetailMaxTop(len(m.detailLines()), m.bodyHeight())
		return m, nil
	case "[":
		if m.cursor > 0 {
			m.cursor--
			m.detailTop = 0
			m.rememberSelection()
			return m, m.ensureCommentsCmd()
		}
		return m, nil
	case "]":
		if m.cursor < len(m.displayPosts())-1 {
			m.cursor++
			m.detailTop = 0
			m.rememberSelection()
			return m, m.ensureCommentsCmd()
		}
		return m, nil
	case "l":
		return m.likeCurrent()
	case "c":
		return m.startComment()
	case "o":
		return m.openCurrent()
	case "y":
		return m.copyCurrent()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.mode = modeList
		m.searchInput.Blur()
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.searchInput.Value())
		m.mode = modeList
		m.searchInput.Blur()
		f := m.engineFilters()
		f.Query = query
		// An unchanged tuple is a complete no-op, including re-submitting
		// the same search text.
		return m, m.applyFilters(f)
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.mode = modeList
		m.emailInput.Blur()
		m.passwordInput.Blur()
		m.passwordInput.Reset()
		return m, nil
	case "enter":
		if m.mode == modeLoginEmail {
			if strings.TrimSpace(m.emailInput.Value()) == "" {
				return m, nil
			}
			m.mode = modeLoginPassword
			m.emailInput.Blur()
			m.passwordInput.Focus()
			return m, textinput.Blink
		}
		if m.account == nil || m.passwordInput.Value() == "" {
			return m, nil
		}
		m.authBusy = true
		m.err = nil
		email := strings.TrimSpace(m.emailInput.Value())
		return m, tea.Batch(tuiactions.LoginCmd(m.account, email, m.passwordInput.Value()), m.spin.Tick)
	}
	var cmd tea.Cmd
	if m.mode == modeLoginEmail {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleCommentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.mode = m.returnMode
		m.commentInput.Blur()
		return m, nil
	case "enter":
		content := strings.TrimSpace(m.commentInput.Value())
		if content == "" || m.api == nil {
			return m, nil
		}
		m.status = "Posting comment..."
		return m, tuiactions.PostCommentCmd(m.api, m.account, m.commentPostID, content)
	}
	var cmd tea.Cmd
	m.commentInput, cmd = m.commentInput.Update(msg)
	return m, cmd
}

func (m Model) enterDetail() (tea.Model, tea.Cmd) {
	post, ok := m.currentPost()
	if !ok {
		return m, nil
	}
	m.mode = modeDetail
	m.detailTop = 0
	m.selectedID = post.ID
	return m, m.ensureCommentsCmd()
}

func (m Model) likeCurrent() (tea.Model, tea.Cmd) {
	post, ok := m.currentPost()
	if !ok || m.api == nil {
		return m, nil
	}
	if !m.authenticated() {
		m.status = "Sign in (i) to like posts"
		m.statusID++
		return m, clearStatusCmd(m.statusID, 3*time.Second)
	}
	return m, tuiactions.ToggleLikeCmd(m.api, m.account, post.ID)
}

func (m Model) startComment() (tea.Model, tea.Cmd) {
	post, ok := m.currentPost()
	if !ok || m.api == nil {
		return m, nil
	}
	if !m.authenticated() {
		m.status = "Sign in (i) to comment"
		m.statusID++
		return m, clearStatusCmd(m.statusID, 3*time.Second)
	}
	m.returnMode = m.mode
	m.mode = modeComment
	m.commentPostID = post.ID
	m.commentInput.Reset()
	m.commentInput.Focus()
	return m, textinput.Blink
}

func (m Model) startLogin() (tea.Model, tea.Cmd) {
	if m.account == nil {
		return m, nil
	}
	if m.authenticated() {
		m.status = "Already signed in"
		m.statusID++
		return m, clearStatusCmd(m.statusID, 3*time.Second)
	}
	m.mode = modeLoginEmail
	m.passwordInput.Reset()
	m.emailInput.Focus()
	return m, textinput.Blink
}

func (m Model) startLogout() (tea.Model, tea.Cmd) {
	if m.account == nil || !m.authenticated() {
		m.status = "Not signed in"
		m.statusID++
		return m, clearStatusCmd(m.statusID, 3*time.Second)
	}
	m.authBusy = true
	return m, tea.Batch(tuiactions.LogoutCmd(m.account), m.spin.Tick)
}

func (m Model) openCurrent() (tea.Model, tea.Cmd) {
	post, ok := m.currentPost()
	if !ok {
		return m, nil
	}
	url, err := platform.PostWebURL(m.apiBaseURL, post.ID)
	if err != nil {
		m.err = err
		return m, nil
	}
	return m, tuiactions.OpenPostCmd(url, m.openURLFn, m.copyURLFn)
}

func (m Model) copyCurrent() (tea.Model, tea.Cmd) {
	post, ok := m.currentPost()
	if !ok {
		return m, nil
	}
	url, err := platform.PostWebURL(m.apiBaseURL, post.ID)
	if err != nil {
		m.err = err
		return m, nil
	}
	return m, tuiactions.CopyURLCmd(url, m.copyURLFn)
}

// applyFilters swaps the engine's query tuple and starts the first fetch of
// the new feed. It returns nil when the tuple is unchanged, in which case
// nothing at all happens.
func (m *Model) applyFilters(f feed.Filters) tea.Cmd {
	if m.engine == nil || !m.engine.SetFilters(f) {
		return nil
	}
	m.feed = m.engine.State()
	m.cursor = 0
	m.detailTop = 0
	m.selectedID = ""
	m.sentinel = feed.Sentinel{}
	m.fetching = true
	m.err = nil
	return tea.Batch(tuiactions.LoadNextCmd(m.engine, "filters"), m.spin.Tick)
}

// observeBoundary reports the boundary row's visibility to the sentinel and
// dispatches the next page exactly when it fires.
func (m *Model) observeBoundary() tea.Cmd {
	if m.engine == nil || m.mode != modeList || !m.hasSettled {
		return nil
	}
	posts := m.displayPosts()
	totalRows := len(posts) + 1
	visible := state.MarkerVisible(totalRows, m.cursor, m.bodyHeight())
	busy := m.fetching || m.feed.Loading
	hasMore := m.feed.HasMore && m.feed.Err == nil
	if m.sentinel.Observe(visible, busy, hasMore) {
		m.fetching = true
		// The fetch just started is itself a loading observation: it
		// disarms the sentinel so the settle re-arms it and a marker
		// still on screen counts as a fresh edge.
		m.sentinel.Observe(visible, true, hasMore)
		return tuiactions.LoadNextCmd(m.engine, "scroll")
	}
	return nil
}

func (m *Model) ensureCommentsCmd() tea.Cmd {
	post, ok := m.currentPost()
	if !ok || m.api == nil {
		return nil
	}
	if m.commentsLoaded[post.ID] || m.commentsLoading[post.ID] {
		return nil
	}
	m.commentsLoading[post.ID] = true
	return tuiactions.LoadCommentsCmd(m.api, post.ID)
}

func (m *Model) rememberSelection() {
	if post, ok := m.currentPost(); ok {
		m.selectedID = post.ID
	}
}

func (m *Model) patchPost(id string, patch func(*board.Post)) {
	if m.engine != nil && m.engine.ApplyItemPatch(id, patch) {
		m.feed = m.engine.State()
	}
	for i := range m.seeded {
		if m.seeded[i].ID == id {
			patch(&m.seeded[i])
		}
	}
}

// displayPosts is what the list renders: the persisted snapshot until the
// engine's first real settle, live items after.
func (m Model) displayPosts() []board.Post {
	if !m.hasSettled && len(m.feed.Items) == 0 {
		return m.seeded
	}
	return m.feed.Items
}

func (m Model) currentPost() (board.Post, bool) {
	posts := m.displayPosts()
	if len(posts) == 0 || m.cursor < 0 || m.cursor >= len(posts) {
		return board.Post{}, false
	}
	return posts[m.cursor], true
}

func (m Model) engineFilters() feed.Filters {
	if m.engine == nil {
		return m.feed.Filters
	}
	return m.engine.Filters()
}

func (m Model) authenticated() bool {
	if m.account == nil {
		return false
	}
	return m.account.State() == auth.StateAuthenticated
}

func (m Model) busy() bool {
	return m.fetching || m.feed.Loading || m.authBusy || m.authRecovering
}

func (m Model) persistPreferences() tea.Cmd {
	if m.savePreferencesFn == nil {
		return nil
	}
	prefs := Preferences{VerboseFooter: m.verboseFooter, RelativeTime: m.relativeTime}
	save := m.savePreferencesFn
	return tuiactions.SavePreferencesCmd(func(ctx context.Context) error {
		return save(ctx, prefs)
	})
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.th.Title.Render("board"))
	b.WriteString(" ")
	b.WriteString(m.th.ModePill.Render(m.mode.String()))
	b.WriteString("\n")
	b.WriteString(view.Toolbar(m.verboseFooter, m.mode.String()))
	b.WriteString("\n\n")

	switch m.mode {
	case modeDetail:
		b.WriteString(m.detailView())
	case modeSearch:
		b.WriteString(m.searchView())
	case modeLoginEmail, modeLoginPassword:
		b.WriteString(m.loginView())
	case modeComment:
		b.WriteString(m.commentView())
	default:
		b.WriteString(m.listView())
	}

	b.WriteString("\n")
	b.WriteString(m.messageRow())
	b.WriteString("\n")
	b.WriteString(m.footer())
	b.WriteString("\n")
	return b.String()
}

func (m Model) listView() string {
	posts := m.displayPosts()
	if len(posts) == 0 {
		return m.emptyListText() + "\n"
	}

	var b strings.Builder
	totalRows := len(posts) + 1
	start, end := state.CenteredWindow(totalRows, m.cursor, m.bodyHeight())
	errText := ""
	if m.feed.Err != nil {
		errText = m.feed.Err.Kind.String()
	}
	now := m.nowFn()
	for i := start; i < end; i++ {
		if i == len(posts) {
			b.WriteString(view.RenderBoundaryLine(m.fetching || m.feed.Loading, errText, m.feed.HasMore, m.th))
			b.WriteString("\n")
			continue
		}
		b.WriteString(view.RenderPostLine(view.PostLineParams{
			Post:         posts[i],
			Now:          now,
			RelativeTime: m.relativeTime,
			Active:       i == m.cursor,
			Width:        m.contentWidth(),
		}, m.th))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) emptyListText() string {
	if m.busy() {
		return "Loading posts..."
	}
	if m.feed.Err != nil {
		return fmt.Sprintf("Could not load the feed (%s). Press r to retry.", m.feed.Err.Kind)
	}
	f := m.feed.Filters
	if f.Scope == feed.ScopeFollowed && !m.authenticated() {
		return "Nothing here: sign in (i) to see posts from people you follow."
	}
	if strings.TrimSpace(f.Query) != "" {
		return "No posts match this search."
	}
	return "No posts available."
}

func (m Model) detailView() string {
	if _, ok := m.currentPost(); !ok {
		return "No post selected.\n"
	}
	return view.RenderDetailLines(m.detailLines(), m.detailTop, m.bodyHeight())
}

func (m Model) detailLines() []string {
	post, ok := m.currentPost()
	if !ok {
		return nil
	}
	section := view.CommentSection{
		Comments: m.comments[post.ID],
		Loaded:   m.commentsLoaded[post.ID],
		Loading:  m.commentsLoading[post.ID],
		Err:      m.commentsErr[post.ID],
	}
	return view.DetailLines(post, m.contentWidth(), 2, m.relativeTime, m.nowFn(), postrender.PlainLines, section)
}

func (m Model) searchView() string {
	var b strings.Builder
	b.WriteString("Search posts\n\n")
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\nAn empty query clears the search.\n")
	return b.String()
}

func (m Model) loginView() string {
	var b strings.Builder
	b.WriteString("Sign in\n\n")
	b.WriteString("Email\n")
	b.WriteString(m.emailInput.View())
	b.WriteString("\n")
	if m.mode == modeLoginPassword {
		b.WriteString("\nPassword\n")
		b.WriteString(m.passwordInput.View())
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) commentView() string {
	title := ""
	if post, ok := m.currentPost(); ok {
		title = strings.TrimSpace(post.Title)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Comment on %q\n\n", title)
	b.WriteString(m.commentInput.View())
	b.WriteString("\n")
	return b.String()
}

func (m Model) messageRow() string {
	warning := ""
	if m.err != nil {
		warning = m.err.Error()
	}
	status := m.status
	busy := m.busy()
	if busy {
		status = m.spin.View() + " " + m.loadingLabel()
	}
	if m.verboseFooter {
		s := status
		if s == "" {
			s = "-"
		}
		w := warning
		if w == "" {
			w = "-"
		}
		stateLabel := "idle"
		if busy {
			stateLabel = "loading"
		}
		return view.VerboseMessage(s, w, stateLabel, m.sessionLabel())
	}
	return view.CompactMessage(busy, warning != "", status, warning, m.th)
}

func (m Model) loadingLabel() string {
	switch {
	case m.authRecovering:
		return "renewing session..."
	case m.authBusy:
		return "signing in..."
	default:
		return fmt.Sprintf("fetching page %d...", max(1, m.feed.NextPage))
	}
}

func (m Model) footer() string {
	p := view.FooterParams{
		Mode:       m.mode.String(),
		Filters:    m.feed.Filters,
		PagesShown: max(0, m.feed.NextPage-1),
		TotalPages: m.feed.TotalPages,
		Shown:      len(m.displayPosts()),
		TotalItems: m.feed.TotalItems,
		Auth:       m.authLabel(),
		Generation: m.feed.Generation,
		Stats:      m.feed.Stats,
	}
	if m.verboseFooter {
		return view.VerboseFooter(p)
	}
	return view.CompactFooter(p, m.th)
}

func (m Model) authLabel() string {
	if m.account == nil {
		return "anonymous"
	}
	switch m.account.State() {
	case auth.StateAuthenticated:
		if u := m.account.User(); u != nil && u.Username != "" {
			return "@" + u.Username
		}
		return "signed in"
	case auth.StateAuthenticating:
		return "signing in"
	default:
		return "anonymous"
	}
}

func (m Model) sessionLabel() string {
	if m.account == nil {
		return "unknown"
	}
	return m.account.State().String()
}

func (m Model) contentWidth() int {
	if m.width == 0 {
		return 76
	}
	return max(20, m.width-4)
}

func (m Model) bodyHeight() int {
	if m.height == 0 {
		return 20
	}
	return max(3, m.height-6)
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}
