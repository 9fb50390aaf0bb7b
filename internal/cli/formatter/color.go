package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/zenstory/internal/story"
)

// Night-sky palette.
var (
	ColorGold   = lipgloss.Color("#fabd2f")
	ColorRose   = lipgloss.Color("#d3869b")
	ColorSky    = lipgloss.Color("#83a598")
	ColorMint   = lipgloss.Color("#8ec07c")
	ColorCoral  = lipgloss.Color("#fb4934")
	ColorLilac  = lipgloss.Color("#b4a7f5")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGold   = lipgloss.NewStyle().Foreground(ColorGold)
	StyleRose   = lipgloss.NewStyle().Foreground(ColorRose)
	StyleSky    = lipgloss.NewStyle().Foreground(ColorSky)
	StyleMint   = lipgloss.NewStyle().Foreground(ColorMint)
	StyleCoral  = lipgloss.NewStyle().Foreground(ColorCoral)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// termColors maps the dictionary card colors to terminal styles.
var termColors = map[string]lipgloss.Style{
	"purple": lipgloss.NewStyle().Foreground(ColorLilac),
	"blue":   StyleSky,
	"green":  StyleMint,
	"yellow": StyleGold,
	"orange": lipgloss.NewStyle().Foreground(ColorHeader),
	"pink":   StyleRose,
	"red":    StyleCoral,
}

// TermColor returns the style for a dictionary color name, dim when unknown.
func TermColor(name string) lipgloss.Style {
	if s, ok := termColors[strings.ToLower(name)]; ok {
		return s
	}
	return StyleFg
}

// Header renders a section header with an underline of the same width.
func Header(text string) string {
	line := strings.Repeat("─", lipgloss.Width(text))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(text), StyleDim.Render(line))
}

func Dim(text string) string { return StyleDim.Render(text) }

func Bold(text string) string { return StyleBold.Render(text) }

// Success and Warning style one-line confirmations.
func Success(text string) string { return StyleMint.Render(text) }

func Warning(text string) string { return StyleGold.Render(text) }

// SourceBadge marks whether a story came from the model or the bundled
// fallback.
func SourceBadge(src story.Source) string {
	if src == story.SourceFallback {
		return StyleGold.Render("○ bedtime fallback")
	}
	return StyleMint.Render("● written tonight")
}
