package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/zenstory/internal/astro"
	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/cli/formatter"
)

func zenHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorGold).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorGold)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorMint)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorLilac).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorGold)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorGold)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// tonightForm asks for the location, language and optional date.
func tonightForm(c *catalog.Catalog, location, lang, date *string) *huh.Form {
	ui := c.Language(*lang)
	options := make([]huh.Option[string], len(c.Languages))
	for i, l := range c.Languages {
		options[i] = huh.NewOption(l.Flag+" "+l.Name, l.Code)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(ui.T("location_label")).
				Description(ui.T("location_hint") + " Leave blank to use your IP.").
				Placeholder(ui.T("location_placeholder")).
				Suggestions(c.Sky.PopularCities).
				Value(location),
			huh.NewSelect[string]().
				Title("Language").
				Options(options...).
				Value(lang),
			huh.NewInput().
				Title("Date (YYYY-MM-DD, blank for tonight)").
				Placeholder(time.Now().Format(astro.DateLayout)).
				Value(date).
				Validate(validateOptionalDate),
		),
	).WithTheme(zenHuhTheme()).WithShowHelp(false)
}

func confirmForm(title string, result *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(result),
		),
	).WithTheme(zenHuhTheme()).WithShowHelp(false)
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(astro.DateLayout, s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	return nil
}
