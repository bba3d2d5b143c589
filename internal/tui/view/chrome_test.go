package view

import (
	"regexp"
	"strings"
	"testing"

	tuitheme "github.com/OneVth/prj-board/internal/tui/theme"

	"github.com/OneVth/prj-board/internal/feed"
)

var ansiStrip = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiStrip.ReplaceAllString(s, "")
}

func TestToolbar(t *testing.T) {
	if got := Toolbar(false, "list"); !strings.Contains(got, "j/k move") {
		t.Fatalf("unexpected compact list toolbar: %q", got)
	}
	if got := Toolbar(false, "detail"); !strings.Contains(got, "j/k scroll") {
		t.Fatalf("unexpected compact detail toolbar: %q", got)
	}
	if got := Toolbar(true, "list"); !strings.Contains(got, "i sign in") {
		t.Fatalf("unexpected verbose list toolbar: %q", got)
	}
	if got := Toolbar(true, "detail"); !strings.Contains(got, "y copy URL") {
		t.Fatalf("unexpected verbose detail toolbar: %q", got)
	}
	if got := Toolbar(false, "search"); !strings.Contains(got, "esc cancel") {
		t.Fatalf("unexpected search toolbar: %q", got)
	}
	if got := Toolbar(false, "comment"); !strings.Contains(got, "enter post") {
		t.Fatalf("unexpected comment toolbar: %q", got)
	}
}

func TestCompactFooter(t *testing.T) {
	th := tuitheme.Default()
	got := stripANSI(CompactFooter(FooterParams{
		Mode:       "list",
		Filters:    feed.Filters{Query: "go", Sort: feed.SortLikes, Scope: feed.ScopeAll},
		PagesShown: 2,
		TotalPages: 12,
		Shown:      20,
		TotalItems: 115,
		Auth:       "@momo",
	}, th))
	for _, want := range []string{"mode list", "sort likes", "scope all", "page 2/12", "20 of 115 shown", `search "go"`, "@momo"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in footer, got %q", want, got)
		}
	}
}

func TestCompactFooterBeforeFirstResponse(t *testing.T) {
	th := tuitheme.Default()
	got := stripANSI(CompactFooter(FooterParams{
		Mode:       "list",
		Filters:    feed.DefaultFilters(),
		PagesShown: 0,
		TotalPages: feed.TotalUnknown,
		Shown:      0,
		TotalItems: feed.TotalUnknown,
		Auth:       "anonymous",
	}, th))
	for _, want := range []string{"page 0/?", "0 of ? shown", "anonymous"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in footer, got %q", want, got)
		}
	}
	if strings.Contains(got, "search") {
		t.Fatalf("empty query must not render a search segment, got %q", got)
	}
}

func TestVerboseFooter(t *testing.T) {
	got := VerboseFooter(FooterParams{
		Mode:       "detail",
		Filters:    feed.Filters{Query: "tea", Sort: feed.SortDate, Scope: feed.ScopeFollowed},
		PagesShown: 3,
		TotalPages: 7,
		Shown:      30,
		TotalItems: 64,
		Auth:       "@jae",
		Generation: 4,
		Stats:      feed.Stats{Fetches: 9, StaleDrops: 1, GuardBusy: 2},
	})
	if !strings.Contains(got, "Mode: detail | Sort: date | Scope: followed | Page: 3/7") {
		t.Fatalf("unexpected verbose footer: %q", got)
	}
	for _, want := range []string{"Gen: 4", "Fetches: 9", "Stale: 1", "Busy: 2", `Search: "tea"`, "Session: @jae"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in verbose footer, got %q", want, got)
		}
	}
}

func TestCompactMessage(t *testing.T) {
	th := tuitheme.Default()
	if got := stripANSI(CompactMessage(false, false, "", "", th)); !strings.Contains(got, "state: idle | Ready") {
		t.Fatalf("unexpected idle compact message: %q", got)
	}
	if got := stripANSI(CompactMessage(true, false, "", "", th)); !strings.Contains(got, "state: loading") {
		t.Fatalf("unexpected loading compact message: %q", got)
	}
	if got := stripANSI(CompactMessage(false, true, "", "boom", th)); !strings.Contains(got, "state: warning | boom") {
		t.Fatalf("unexpected warning compact message: %q", got)
	}
	if got := stripANSI(CompactMessage(false, false, "liked", "", th)); !strings.Contains(got, "state: idle | liked") {
		t.Fatalf("status text must win over the Ready placeholder: %q", got)
	}
}

func TestVerboseMessage(t *testing.T) {
	got := VerboseMessage("ok", "-", "idle", "authenticated")
	if !strings.Contains(got, "Status: ok | Warning: - | State: idle | Session: authenticated") {
		t.Fatalf("unexpected verbose message: %q", got)
	}
}
