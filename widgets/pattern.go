package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-midifx/theme"
)

// StepView is what the pattern row needs to know about one step.
type StepView struct {
	Active bool
	Accent bool
	Hold   bool
}

// RenderPatternRow draws the arp pattern as one line of step glyphs.
// playhead is the sounding step (-1 when the arp is off); cursor is the
// edit position (-1 hides it).
func RenderPatternRow(steps []StepView, playhead, cursor int, th *theme.Theme) string {
	sym := th.Symbols

	activeStyle := lipgloss.NewStyle().Foreground(th.Active())
	accentStyle := lipgloss.NewStyle().Foreground(th.Warning())
	playStyle := lipgloss.NewStyle().Foreground(th.Success())
	cursorStyle := lipgloss.NewStyle().Foreground(th.Cursor())
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())

	var out strings.Builder
	for i, s := range steps {
		if i > 0 {
			out.WriteString(" ")
		}

		var glyph rune
		var style lipgloss.Style
		switch {
		case i == cursor && i == playhead:
			glyph, style = sym.CursorPlayhead, playStyle
		case i == cursor && s.Active:
			glyph, style = sym.CursorActive, cursorStyle
		case i == cursor:
			glyph, style = sym.CursorEmpty, cursorStyle
		case i == playhead:
			glyph, style = sym.StepPlayhead, playStyle
		case s.Active && s.Accent:
			glyph, style = sym.StepAccent, accentStyle
		case s.Active:
			glyph, style = sym.StepActive, activeStyle
		default:
			glyph, style = sym.StepEmpty, dimStyle
		}
		out.WriteString(style.Render(string(glyph)))
	}
	return out.String()
}

// RenderToggle draws an on/off indicator with a label.
func RenderToggle(label string, on bool, th *theme.Theme) string {
	sym, style := th.Symbols.Off, lipgloss.NewStyle().Foreground(th.Muted())
	if on {
		sym, style = th.Symbols.On, lipgloss.NewStyle().Foreground(th.Success())
	}
	return style.Render(fmt.Sprintf("%c %s", sym, label))
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
