package view

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	tuitheme "github.com/OneVth/prj-board/internal/tui/theme"

	"github.com/OneVth/prj-board/internal/board"
)

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type PostLineParams struct {
	Post         board.Post
	Now          time.Time
	RelativeTime bool
	Active       bool
	Width        int
}

// RenderPostLine lays out one list row: cursor marker, styled title, then
// author, counters and date right-aligned.
func RenderPostLine(p PostLineParams, th tuitheme.Theme) string {
	date := p.Post.CreatedAt.UTC().Format(time.DateOnly)
	if p.RelativeTime {
		date = RelativeTimeLabel(p.Now, p.Post.CreatedAt)
	}

	cursorMarker := " "
	if p.Active {
		cursorMarker = ">"
	}
	prefix := fmt.Sprintf("  %s ", cursorMarker)

	author := strings.TrimSpace(p.Post.AuthorUsername)
	if author == "" {
		author = "unknown"
	}
	meta := fmt.Sprintf("@%s ♥%d ◇%d [%s]", author, p.Post.Likes, p.Post.CommentCount, date)

	available := p.Width - visibleLen(prefix) - 1 - visibleLen(meta)
	if available < 1 {
		available = 1
	}

	title := strings.TrimSpace(p.Post.Title)
	if title == "" {
		title = "(untitled)"
	}
	title = truncateRunes(title, available)
	styledTitle := th.StylePostTitle(p.Post, title)

	styledMeta := th.Author.Render("@"+author) + " " +
		th.Counter.Render(fmt.Sprintf("♥%d", p.Post.Likes)) + " " +
		th.MetaValue.Render(fmt.Sprintf("◇%d", p.Post.CommentCount)) + " " +
		th.MetaLabel.Render("["+date+"]")

	gap := p.Width - visibleLen(prefix) - visibleLen(title) - visibleLen(meta)
	if gap < 1 {
		gap = 1
	}
	return th.RenderActiveLine(p.Active, prefix+styledTitle+strings.Repeat(" ", gap)+styledMeta)
}

// RenderBoundaryLine draws the row after the last post. Its text tracks the
// feed: a spinner note while fetching, the failure while broken, an end cap
// once every page has arrived, and otherwise the quiet trigger zone the
// infinite scroll watches.
func RenderBoundaryLine(loading bool, errText string, hasMore bool, th tuitheme.Theme) string {
	switch {
	case loading:
		return "    " + th.Marker.Render("… loading more")
	case errText != "":
		return "    " + th.StateWarn.Render("✗ "+errText+" (press r to retry)")
	case !hasMore:
		return "    " + th.Marker.Render("· end of feed ·")
	default:
		return "    " + th.Marker.Render("↓ more")
	}
}

func RelativeTimeLabel(now, then time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	if then.IsZero() {
		return "unknown"
	}
	d := now.Sub(then)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d/(24*time.Hour)), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return strings.Repeat(".", maxLen)
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

func visibleLen(s string) int {
	return utf8.RuneCountInString(stripANSIText(s))
}

func stripANSIText(s string) string {
	return reANSICodes.ReplaceAllString(s, "")
}
