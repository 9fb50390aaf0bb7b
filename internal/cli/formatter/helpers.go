package formatter

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

// RenderBox wraps content in a rounded border with an optional title.
func RenderBox(title, content string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorLilac).
		Padding(0, 2)
	if title != "" {
		content = StyleHeader.Render(title) + "\n\n" + content
	}
	return box.Render(content)
}

// RelativeTime renders t relative to now, e.g. "3 hours ago".
func RelativeTime(t, now time.Time) string {
	if now.Sub(t) < time.Minute && now.Sub(t) >= 0 {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Wrap word-wraps s to width and indents every line by pad spaces.
func Wrap(s string, width, pad int) string {
	if width <= pad+10 {
		width = DefaultWidth
	}
	wrapped := wordwrap.String(s, width-pad)
	if pad == 0 {
		return wrapped
	}
	return indent.String(wrapped, uint(pad))
}

// Truncate shortens s to width visible cells, ending with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return truncate.StringWithTail(s, uint(width), "…")
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Bullets renders items as wrapped "•" lines.
func Bullets(items []string, width int) string {
	lines := make([]string, len(items))
	for i, it := range items {
		wrapped := Wrap(it, width, 4)
		lines[i] = "  " + StyleGold.Render("•") + " " + strings.TrimLeft(wrapped, " ")
	}
	return strings.Join(lines, "\n")
}
