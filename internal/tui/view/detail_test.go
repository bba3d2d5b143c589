package view

import (
	"strings"
	"testing"
	"time"

	"github.com/OneVth/prj-board/internal/board"
	postrender "github.com/OneVth/prj-board/internal/render/post"
)

func TestDetailMetaLines(t *testing.T) {
	post := board.Post{
		Title:          "Release notes",
		AuthorUsername: "jae",
		Likes:          12,
		CommentCount:   3,
		CreatedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	lines := DetailMetaLines(post, 60, false, time.Time{}, postrender.PlainLines)
	if lines[0] != "Release notes" {
		t.Fatalf("expected title first, got %q", lines[0])
	}
	if lines[1] != strings.Repeat("=", len("Release notes")) {
		t.Fatalf("expected rule under title, got %q", lines[1])
	}
	joined := strings.Join(lines, "\n")
	for _, want := range []string{"Author: @jae", "Date: 2026-03-01T10:00:00Z", "Likes: 12", "Comments: 3"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in meta lines, got:\n%s", want, joined)
		}
	}
}

func TestDetailMetaLines_RelativeDate(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	post := board.Post{
		Title:     "Fresh",
		CreatedAt: now.Add(-3 * time.Hour),
	}
	lines := DetailMetaLines(post, 60, true, now, postrender.PlainLines)
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "Date: 3 hours ago") {
		t.Fatalf("expected relative date, got:\n%s", joined)
	}
}

func TestDetailLines_IncludesBodyAndComments(t *testing.T) {
	post := board.Post{
		Title:          "Go ships generics",
		Content:        "<p>Hello world</p>",
		AuthorUsername: "momo",
		CreatedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	section := CommentSection{
		Loaded: true,
		Comments: []board.Comment{{
			AuthorUsername: "jae",
			Content:        "Nice.",
			Likes:          2,
			CreatedAt:      time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
		}},
	}
	lines := DetailLines(post, 60, 2, false, time.Time{}, postrender.PlainLines, section)
	joined := stripANSI(strings.Join(lines, "\n"))
	for _, want := range []string{"Hello world", "Comments (1)", "@jae", "♥2", "Nice."} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in detail pane, got:\n%s", want, joined)
		}
	}
	for _, line := range lines {
		if line == "" {
			continue
		}
		if !strings.HasPrefix(stripANSI(line), "  ") {
			t.Fatalf("expected two-space margin on %q", line)
		}
	}
}

func TestCommentSectionLines_States(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	loading := strings.Join(CommentSectionLines(CommentSection{Loading: true}, 40, false, now), "\n")
	if !strings.Contains(loading, "Loading comments...") {
		t.Fatalf("unexpected loading section:\n%s", loading)
	}

	failed := strings.Join(CommentSectionLines(CommentSection{Loaded: true, Err: "boom"}, 40, false, now), "\n")
	if !strings.Contains(failed, "Comments unavailable: boom") {
		t.Fatalf("unexpected failed section:\n%s", failed)
	}

	unloaded := strings.Join(CommentSectionLines(CommentSection{}, 40, false, now), "\n")
	if !strings.Contains(unloaded, "Comments not loaded yet.") {
		t.Fatalf("unexpected unloaded section:\n%s", unloaded)
	}

	empty := strings.Join(CommentSectionLines(CommentSection{Loaded: true}, 40, false, now), "\n")
	if !strings.Contains(empty, "No comments yet.") {
		t.Fatalf("unexpected empty section:\n%s", empty)
	}
}

func TestRenderDetailLines_Window(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}
	if got := RenderDetailLines(lines, 1, 2); got != "b\nc\n" {
		t.Fatalf("unexpected window: %q", got)
	}
	if got := RenderDetailLines(lines, 10, 2); got != "d\n" {
		t.Fatalf("expected top clamped to last line, got %q", got)
	}
	if got := RenderDetailLines(nil, 0, 2); got != "" {
		t.Fatalf("expected empty render for no lines, got %q", got)
	}
}

func TestDetailMaxTop(t *testing.T) {
	if got := DetailMaxTop(10, 4); got != 6 {
		t.Fatalf("DetailMaxTop(10, 4) = %d, want 6", got)
	}
	if got := DetailMaxTop(3, 10); got != 0 {
		t.Fatalf("DetailMaxTop(3, 10) = %d, want 0", got)
	}
}
