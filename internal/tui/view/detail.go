package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/OneVth/prj-board/internal/board"
	postrender "github.com/OneVth/prj-board/internal/render/post"
)

type WrapFunc func(string, int) []string

// DetailMetaLines is the heading block of the detail pane: title, rule,
// and the post's metadata one field per line.
func DetailMetaLines(post board.Post, width int, relativeTime bool, now time.Time, wrap WrapFunc) []string {
	title := strings.TrimSpace(post.Title)
	if title == "" {
		title = "(untitled)"
	}

	lines := make([]string, 0, 16)
	lines = append(lines, wrap(title, width)...)
	lines = append(lines, strings.Repeat("=", max(1, min(width, len(title)))))
	lines = append(lines, "")

	if author := strings.TrimSpace(post.AuthorUsername); author != "" {
		lines = append(lines, wrap("Author: @"+author, width)...)
	}
	date := post.CreatedAt.UTC().Format(time.RFC3339)
	if relativeTime {
		date = RelativeTimeLabel(now, post.CreatedAt)
	}
	lines = append(lines, "Date: "+date)
	lines = append(lines, fmt.Sprintf("Likes: %d", post.Likes))
	lines = append(lines, fmt.Sprintf("Comments: %d", post.CommentCount))
	return lines
}

// DetailLines assembles the full scrollable detail pane: metadata, rendered
// body, then the comment section.
func DetailLines(
	post board.Post,
	contentWidth int,
	horizontalMargin int,
	relativeTime bool,
	now time.Time,
	wrap WrapFunc,
	comments CommentSection,
) []string {
	lines := DetailMetaLines(post, contentWidth, relativeTime, now, wrap)
	if body := postrender.Lines(post, contentWidth); len(body) > 0 {
		lines = append(lines, "")
		lines = append(lines, body...)
	}
	lines = append(lines, CommentSectionLines(comments, contentWidth, relativeTime, now)...)
	return leftPadLines(lines, horizontalMargin)
}

// CommentSection is the thread state the detail pane shows. Loaded is false
// until the first fetch for this post settles, so an empty slice can mean
// either "no comments" or "not fetched yet".
type CommentSection struct {
	Comments []board.Comment
	Loaded   bool
	Loading  bool
	Err      string
}

func CommentSectionLines(s CommentSection, width int, relativeTime bool, now time.Time) []string {
	header := fmt.Sprintf("Comments (%d)", len(s.Comments))
	if !s.Loaded {
		header = "Comments"
	}

	lines := make([]string, 0, len(s.Comments)*4+4)
	lines = append(lines, "")
	lines = append(lines, header)
	lines = append(lines, strings.Repeat("-", max(1, min(width, len(header)))))

	switch {
	case s.Loading:
		lines = append(lines, "Loading comments...")
		return lines
	case s.Err != "":
		lines = append(lines, "Comments unavailable: "+s.Err)
		return lines
	case !s.Loaded:
		lines = append(lines, "Comments not loaded yet.")
		return lines
	case len(s.Comments) == 0:
		lines = append(lines, "No comments yet.")
		return lines
	}

	for _, c := range s.Comments {
		date := c.CreatedAt.UTC().Format(time.RFC3339)
		if relativeTime {
			date = RelativeTimeLabel(now, c.CreatedAt)
		}
		head := fmt.Sprintf("@%s • %s", c.AuthorUsername, date)
		if c.Likes > 0 {
			head = fmt.Sprintf("%s • ♥%d", head, c.Likes)
		}
		lines = append(lines, "")
		lines = append(lines, head)
		lines = append(lines, postrender.PlainLines(c.Content, width)...)
	}
	return lines
}

func DetailMaxTop(linesLen, bodyHeight int) int {
	maxTop := linesLen - bodyHeight
	if maxTop < 0 {
		return 0
	}
	return maxTop
}

// RenderDetailLines joins the window [top, top+maxLines) of the pane.
func RenderDetailLines(lines []string, top, maxLines int) string {
	if len(lines) == 0 {
		return ""
	}
	if top < 0 {
		top = 0
	}
	if top > len(lines)-1 {
		top = len(lines) - 1
	}
	end := len(lines)
	if maxLines > 0 && top+maxLines < end {
		end = top + maxLines
	}
	return strings.Join(lines[top:end], "\n") + "\n"
}

func leftPadLines(lines []string, padding int) []string {
	if padding <= 0 || len(lines) == 0 {
		return lines
	}
	prefix := strings.Repeat(" ", padding)
	out := make([]string, len(lines))
	for i, line := range lines {
		if line == "" {
			out[i] = line
			continue
		}
		out[i] = prefix + line
	}
	return out
}
