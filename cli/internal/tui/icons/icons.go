// ABOUTME: Icon set with Nerd Font detection and Unicode fallback
// ABOUTME: Keeps studio screens legible in terminals without patched fonts

package icons

import (
	"os"
	"strings"
	"sync"
)

var (
	useNerdFonts bool
	detectOnce   sync.Once
)

var nerdFontTerminals = []string{"iTerm.app", "alacritty", "WezTerm", "kitty", "ghostty"}

// detect decides from the environment whether Nerd Font glyphs render.
func detect(getenv func(string) string) bool {
	if v := getenv("CROCHET_NERD_FONTS"); v != "" {
		return v == "1" || strings.EqualFold(v, "true")
	}
	term := getenv("TERM")
	program := getenv("TERM_PROGRAM")
	for _, t := range nerdFontTerminals {
		if strings.Contains(program, t) || strings.Contains(term, strings.ToLower(t)) {
			return true
		}
	}
	return getenv("NERD_FONTS") == "1"
}

// HasNerdFonts returns true if Nerd Fonts are available
func HasNerdFonts() bool {
	detectOnce.Do(func() {
		useNerdFonts = detect(os.Getenv)
	})
	return useNerdFonts
}

// Icon has a Nerd Font glyph and a plain Unicode fallback.
type Icon struct {
	NerdFont string
	Fallback string
}

func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

var (
	// Pages
	App       = Icon{"󰆘", "❀"} // nf-md-flower
	Home      = Icon{"󰋜", "⌂"}
	Gallery   = Icon{"󰉏", "▦"}
	Tutorials = Icon{"󰂺", "✎"}
	Projects  = Icon{"󰉋", "◧"}
	Publish   = Icon{"󰐕", "+"}
	Track     = Icon{"󰔟", "◔"}
	Admin     = Icon{"󰒃", "⛊"}

	// Content
	Image    = Icon{"󰋩", "▣"}
	Profile  = Icon{"󰀄", "☺"}
	Material = Icon{"󰇽", "∞"}

	// Status
	CheckOK  = Icon{"", "✓"}
	Warning  = Icon{"", "⚠"}
	Critical = Icon{"", "✗"}
	Info     = Icon{"", "ℹ"}

	// Actions
	Refresh = Icon{"󰑓", "↻"}
	Back    = Icon{"󰁍", "←"}
	Quit    = Icon{"󰗼", "×"}
	Login   = Icon{"󰍂", "→"}
)
