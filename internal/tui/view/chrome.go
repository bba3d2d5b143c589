// Package view renders the board TUI's screen fragments: chrome (toolbar,
// footer, message row), the post list and its boundary row, and the post
// detail pane. Everything here is pure string assembly so it can be tested
// without a terminal.
package view

import (
	"fmt"
	"strings"

	"github.com/OneVth/prj-board/internal/feed"
	tuitheme "github.com/OneVth/prj-board/internal/tui/theme"
)

// Toolbar returns the key hint row for the current input mode. The verbose
// variant spells out every binding; compact keeps the row short.
func Toolbar(verbose bool, mode string) string {
	switch mode {
	case "search":
		return "enter apply | esc cancel"
	case "login":
		return "enter continue | esc cancel"
	case "comment":
		return "enter post | esc cancel"
	case "detail":
		if verbose {
			return "j/k scroll | [ ] prev/next | g/G top/bottom | l like | c comment | o open | y copy URL | esc/backspace back | q quit"
		}
		return "j/k scroll | l like | c comment | o open | esc back"
	}
	if verbose {
		return "j/k/arrows move | g/G top/bottom | pgup/pgdown jump | enter read | / search | s sort | f scope | l like | c comment | o open | y copy URL | i sign in | x sign out | t time format | v verbose | r refresh | q quit"
	}
	return "j/k move | enter read | / search | s sort | f scope | r refresh | q quit"
}

// FooterParams carries everything the footer variants can show.
type FooterParams struct {
	Mode       string
	Filters    feed.Filters
	PagesShown int
	TotalPages int
	Shown      int
	TotalItems int
	Auth       string
	Generation uint64
	Stats      feed.Stats
}

// CompactFooter is the single-line summary: mode, query tuple, paging
// progress and who is signed in.
func CompactFooter(p FooterParams, th tuitheme.Theme) string {
	parts := []string{
		th.MetaLabel.Render("mode") + " " + th.MetaValue.Render(p.Mode),
		th.MetaLabel.Render("sort") + " " + th.MetaValue.Render(string(p.Filters.Sort)),
		th.MetaLabel.Render("scope") + " " + th.MetaValue.Render(string(p.Filters.Scope)),
		th.MetaLabel.Render("page") + " " + th.MetaValue.Render(fmt.Sprintf("%d/%s", p.PagesShown, countLabel(p.TotalPages))),
		th.MetaValue.Render(fmt.Sprintf("%d of %s shown", p.Shown, countLabel(p.TotalItems))),
	}
	if q := strings.TrimSpace(p.Filters.Query); q != "" {
		parts = append(parts, th.MetaLabel.Render("search")+" "+th.MetaValue.Render(fmt.Sprintf("%q", q)))
	}
	parts = append(parts, th.Author.Render(p.Auth))
	return strings.Join(parts, " • ")
}

// VerboseFooter is the raw diagnostic dump, engine counters included.
func VerboseFooter(p FooterParams) string {
	footer := fmt.Sprintf("Mode: %s | Sort: %s | Scope: %s | Page: %d/%s | Showing: %d/%s | Gen: %d | Fetches: %d | Stale: %d | Busy: %d | Session: %s",
		p.Mode, p.Filters.Sort, p.Filters.Scope,
		p.PagesShown, countLabel(p.TotalPages),
		p.Shown, countLabel(p.TotalItems),
		p.Generation, p.Stats.Fetches, p.Stats.StaleDrops, p.Stats.GuardBusy,
		p.Auth)
	if q := strings.TrimSpace(p.Filters.Query); q != "" {
		return fmt.Sprintf("%s | Search: %q", footer, q)
	}
	return footer
}

// CompactMessage is the transient status row between body and footer.
func CompactMessage(loading bool, hasWarning bool, status, warning string, th tuitheme.Theme) string {
	state := "idle"
	if loading {
		state = "loading"
	}
	if hasWarning {
		state = "warning"
	}
	main := "Ready"
	if status != "" {
		main = status
	} else if hasWarning {
		main = warning
	}
	stateLabel := th.StateIdle.Render("state")
	switch state {
	case "warning":
		stateLabel = th.StateWarn.Render("state")
	case "loading":
		stateLabel = th.StateLoad.Render("state")
	}
	return fmt.Sprintf("%s: %s | %s", stateLabel, state, th.MetaValue.Render(main))
}

// VerboseMessage mirrors CompactMessage without styling, plus the session
// resolution state.
func VerboseMessage(status, warning, state, session string) string {
	return fmt.Sprintf("Status: %s | Warning: %s | State: %s | Session: %s", status, warning, state, session)
}

func countLabel(n int) string {
	if n == feed.TotalUnknown {
		return "?"
	}
	return fmt.Sprintf("%d", n)
}
