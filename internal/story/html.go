package story

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
)

// DefaultHaikuTitle heads the haiku box when the model gave no title.
const DefaultHaikuTitle = "Goodnight Haiku"

var (
	markdown = goldmark.New(goldmark.WithExtensions(emoji.New(emoji.WithRenderingMethod(emoji.Unicode))))

	// Looser than the parse patterns: the heading may follow "###" without
	// a space and the haiku runs to the next blank line.
	bodyHaikuPattern = regexp.MustCompile(`(?s)###?\s*(.*?[Hh]a[iï]ku.*?)\s*\n\s*(.+?)(?:\n\n|$)`)
	headingLine      = regexp.MustCompile(`(?m)^\s*#.*$`)
)

// sanitizer is bluemonday's UGC policy plus the classes used by the story
// stylesheet.
var sanitizer = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-z-]+$`)).OnElements("div", "h1", "h3", "p")
	return p
}()

// RenderHTML renders s as sanitized HTML: the title, the story body and the
// haiku in its own box. A haiku left inside the body is pulled out first.
func RenderHTML(s Story) string {
	body := s.Story
	haiku := s.Haiku
	haikuTitle := s.HaikuTitle

	if haiku == "" {
		if m := bodyHaikuPattern.FindStringSubmatch(body); m != nil {
			haikuTitle = strings.TrimSpace(m[1])
			lines := nonEmptyLines(m[2])
			if len(lines) >= 3 {
				haiku = strings.Join(lines[:3], "\n")
			} else {
				haiku = strings.TrimSpace(m[2])
			}
			body = strings.TrimSpace(strings.Replace(body, m[0], "", 1))
		}
	}
	body = headingLine.ReplaceAllString(body, "")

	var buf bytes.Buffer
	buf.WriteString(`<h1 class="story-title">` + html.EscapeString(s.Title) + "</h1>\n")
	buf.WriteString(`<div class="story-body">` + "\n")
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		for _, para := range strings.Split(body, "\n\n") {
			if para = strings.TrimSpace(para); para != "" {
				buf.WriteString("<p>" + html.EscapeString(para) + "</p>\n")
			}
		}
	}
	buf.WriteString("</div>\n")

	if haiku != "" {
		if haikuTitle == "" {
			haikuTitle = DefaultHaikuTitle
		}
		buf.WriteString(`<div class="haiku-box">` + "\n")
		buf.WriteString(`<h3 class="haiku-title">🌸 ` + html.EscapeString(haikuTitle) + "</h3>\n")
		buf.WriteString(`<div class="haiku-lines">` + "\n")
		for _, line := range nonEmptyLines(haiku) {
			buf.WriteString("<p>" + html.EscapeString(line) + "</p>\n")
		}
		buf.WriteString("</div>\n</div>\n")
	}

	return sanitizer.Sanitize(buf.String())
}
