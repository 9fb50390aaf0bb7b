package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"

	"github.com/alexanderramin/zenstory/internal/astro"
	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/geo"
	"github.com/alexanderramin/zenstory/internal/render"
	"github.com/alexanderramin/zenstory/internal/service"
	"github.com/alexanderramin/zenstory/internal/story"
)

const infoLayout = "01/02/2006, 03:04:05 PM"

// Options control terminal rendering.
type Options struct {
	Width int
	// Style is a glamour style name; empty picks one from the terminal.
	Style string
}

func (o Options) width() int {
	if o.Width <= 0 {
		return DefaultWidth
	}
	return o.Width
}

// PlainOptions renders without terminal styling, for pipes and tests.
func PlainOptions(width int) Options {
	return Options{Width: width, Style: styles.NoTTYStyle}
}

// StoryMarkdown turns a story into markdown: title, body and the haiku
// with hard line breaks.
func StoryMarkdown(s story.Story) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n", s.Title, strings.TrimSpace(s.Story))
	if haiku := strings.TrimSpace(s.Haiku); haiku != "" {
		title := s.HaikuTitle
		if title == "" {
			title = "Haiku"
		}
		fmt.Fprintf(&b, "\n### 🌸 %s\n\n", title)
		lines := strings.Split(haiku, "\n")
		for i, l := range lines {
			b.WriteString("*" + strings.TrimSpace(l) + "*")
			if i < len(lines)-1 {
				b.WriteString("  ")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Markdown renders md for the terminal with glamour.
func Markdown(md string, opts Options) (string, error) {
	ro := []glamour.TermRendererOption{glamour.WithWordWrap(opts.width())}
	if opts.Style == "" {
		ro = append(ro, glamour.WithAutoStyle())
	} else {
		ro = append(ro, glamour.WithStandardStyle(opts.Style))
	}
	r, err := glamour.NewTermRenderer(ro...)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// FormatLocation is the "Tonight's sky from" banner.
func FormatLocation(loc geo.Location, lang *catalog.Language) string {
	return fmt.Sprintf("🌌 %s %s %s",
		lang.T("tonight_sky_from"),
		Bold(loc.Name),
		Dim("("+render.Coordinates(loc.Lat, loc.Lon, lang)+")"))
}

// FormatObject summarizes the selected celestial object.
func FormatObject(obj astro.CelestialObject) string {
	line := fmt.Sprintf("⭐ %s %s", Bold(obj.Name), Dim(fmt.Sprintf("(%s, magnitude %.2f)", obj.Type, obj.Magnitude)))
	if obj.Constellation != "" {
		line += Dim(" in " + obj.Constellation)
	}
	if obj.Description != "" {
		line += "\n   " + obj.Description
	}
	return line
}

// FormatTonight renders a generated story with its banner, fun facts and
// the info line.
func FormatTonight(res *service.TonightResult, lang *catalog.Language, opts Options) (string, error) {
	body, err := Markdown(StoryMarkdown(res.Story), opts)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(FormatLocation(res.Location, lang) + "\n")
	b.WriteString(FormatObject(res.Object) + "\n")
	b.WriteString(body)
	b.WriteString(SourceBadge(res.Story.Source) + "\n")

	if len(res.FunFacts) > 0 {
		b.WriteString("\n" + StyleHeader.Render(lang.DidYouKnow) + "\n")
		b.WriteString(Bullets(res.FunFacts, opts.width()) + "\n")
	}
	if res.Image.URL != "" {
		b.WriteString("\n🖼️  " + res.Image.URL + " " + Dim("("+res.Image.Source+")") + "\n")
	}
	b.WriteString("\n" + FormatInfoBar(res.Location.Name, lang, res.GeneratedAt) + "\n")
	return b.String(), nil
}

// FormatInfoBar mirrors the info bar under a story in the web UI.
func FormatInfoBar(location string, lang *catalog.Language, at time.Time) string {
	return Dim(fmt.Sprintf("📍 %s: %s  •  🗣️ %s: %s  •  🕐 %s: %s",
		lang.T("info_location"), location,
		lang.T("info_language"), lang.Name,
		lang.T("info_generated"), at.Format(infoLayout)))
}

// FormatProgress renders one progress event.
func FormatProgress(e service.ProgressEvent) string {
	return Dim(e.Time.Format("15:04:05")) + " " + e.Icon + " " + e.Message
}
