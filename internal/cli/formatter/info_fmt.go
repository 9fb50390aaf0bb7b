package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/geo"
)

// FormatDictionary renders the astronomy dictionary as colored cards.
func FormatDictionary(lang *catalog.Language, width int) string {
	var b strings.Builder
	b.WriteString(Header(lang.T("dict_title")) + "\n")
	b.WriteString(Dim(lang.T("dict_intro")) + "\n")
	for _, term := range lang.Dictionary {
		style := TermColor(term.Color)
		b.WriteString("\n" + style.Bold(true).Render(term.Emoji+" "+term.Title) + "\n")
		b.WriteString(Wrap(term.Description, width, 3) + "\n")
	}
	return b.String()
}

// Bedtime is the reminder schedule shown on the about page.
type Bedtime struct {
	Hour            int
	ReminderMinutes int
}

// FormatAbout renders the about page and the bedtime settings.
func FormatAbout(lang *catalog.Language, bed Bedtime, width int) string {
	a := lang.About
	var b strings.Builder

	section := func(title string) { b.WriteString("\n" + Header(title) + "\n") }

	section(a.MissionTitle)
	b.WriteString(Wrap(a.MissionText, width, 0) + "\n")

	section(a.HowTitle)
	for i, step := range a.HowSteps {
		b.WriteString(Wrap(fmt.Sprintf("%d. %s", i+1, step), width, 2) + "\n")
	}

	section(a.FeaturesTitle)
	b.WriteString(Bullets(a.Features, width) + "\n")

	section(a.PerfectTitle)
	b.WriteString(Bullets(a.PerfectFor, width) + "\n")

	section("🛏️ Bedtime")
	fmt.Fprintf(&b, "  Story time at %02d:00, with a reminder %d minutes before.\n", bed.Hour, bed.ReminderMinutes)
	return strings.TrimPrefix(b.String(), "\n")
}

// FormatCities lists city names, one per line.
func FormatCities(cities []string) string {
	if len(cities) == 0 {
		return Dim("No matching cities.") + "\n"
	}
	return strings.Join(cities, "\n") + "\n"
}

// FormatResolved renders the location banner markdown and how the location
// was found.
func FormatResolved(loc geo.Location, lang *catalog.Language, opts Options) (string, error) {
	banner, err := Markdown(geo.FormatDisplay(loc.Name, loc.Lat, loc.Lon, lang), opts)
	if err != nil {
		return "", err
	}
	return banner + Dim("  source: "+string(loc.Source)) + "\n", nil
}
