package tui

import (
	"strings"
	"testing"

	xansi "github.com/charmbracelet/x/ansi"
)

func TestNormalizePane_PadsAndTruncates(t *testing.T) {
	out := normalizePane("short\nthis line is far too long", 10, 3)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, ln := range lines {
		if w := xansi.StringWidth(ln); w != 10 {
			t.Fatalf("line %d: width %d, want 10 (%q)", i, w, ln)
		}
	}
	if !strings.HasSuffix(lines[1], "…") {
		t.Fatalf("expected ellipsis on truncated line, got %q", lines[1])
	}
}

func TestMarkdownStyle_RespectsTheme(t *testing.T) {
	t.Setenv("EVENTCAL_TUI_MD_STYLE", "")
	t.Setenv("COLORFGBG", "")

	t.Setenv("EVENTCAL_TUI_THEME", "light")
	if got := markdownStyle(); got != "light" {
		t.Fatalf("expected light, got %q", got)
	}
	t.Setenv("EVENTCAL_TUI_MD_STYLE", "dark")
	if got := markdownStyle(); got != "dark" {
		t.Fatalf("expected override to win, got %q", got)
	}
}

func TestDarkFromColorFGBG(t *testing.T) {
	t.Setenv("COLORFGBG", "15;0")
	if dark, ok := darkFromColorFGBG(); !ok || !dark {
		t.Fatalf("expected dark background")
	}
	t.Setenv("COLORFGBG", "0;15")
	if dark, ok := darkFromColorFGBG(); !ok || dark {
		t.Fatalf("expected light background")
	}
}
