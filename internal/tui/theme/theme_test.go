package theme

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/OneVth/prj-board/internal/board"
)

func TestStylePostTitle_ByEngagement(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI)
	th := Default()

	hot := th.StylePostTitle(board.Post{Likes: hotLikes}, "Hot")
	if !strings.Contains(hot, "\x1b[") {
		t.Fatalf("expected styled hot title, got %q", hot)
	}

	discussed := th.StylePostTitle(board.Post{CommentCount: 2}, "Discussed")
	if !strings.Contains(discussed, "\x1b[") {
		t.Fatalf("expected styled discussed title, got %q", discussed)
	}

	quiet := th.StylePostTitle(board.Post{}, "Quiet")
	if !strings.Contains(quiet, "\x1b[") {
		t.Fatalf("expected styled quiet title, got %q", quiet)
	}

	if th.StylePostTitle(board.Post{}, "") != "" {
		t.Fatal("empty title should stay empty")
	}
}

func TestRenderActiveLine(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI)
	th := Default()

	if got := th.RenderActiveLine(false, "plain"); got != "plain" {
		t.Fatalf("inactive line should be unstyled, got %q", got)
	}
	if got := th.RenderActiveLine(true, "active"); !strings.Contains(got, "\x1b[") {
		t.Fatalf("active line should be styled, got %q", got)
	}
}
