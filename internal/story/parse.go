package story

import (
	"regexp"
	"strings"
)

// DefaultTitle is used when the response has a haiku but no title heading.
const DefaultTitle = "A Celestial Tale"

var (
	titlePattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	// A "##"/"###" haiku heading followed by three lines.
	haikuLinesPattern = regexp.MustCompile(`(?s)###?\s+(.*?[Hh]a[iï]ku.*?)\s*\n\s*(.+?)\s*\n\s*(.+?)\s*\n\s*(.+?)(?:\s*\n\n|\s*$)`)
	// The same heading followed by the whole haiku on one line.
	haikuOneLinePattern = regexp.MustCompile(`(?s)###?\s+(.*?[Hh]a[iï]ku.*?)\s*\n\s*(.+?)(?:\s*\n\n|\s*$)`)
)

// Parsed is the structure recovered from a model response.
type Parsed struct {
	Title      string
	Story      string
	Haiku      string
	HaikuTitle string
	FullText   string
}

// Parse splits a markdown response into title, body and haiku. ok is false
// when the text has neither a title heading nor a haiku heading.
func Parse(text string) (p Parsed, ok bool) {
	p = Parsed{Title: DefaultTitle, FullText: text}

	titleMatch := titlePattern.FindStringSubmatch(text)
	if titleMatch != nil {
		p.Title = strings.TrimSpace(titleMatch[1])
	}

	var haikuBlock string
	if m := haikuLinesPattern.FindStringSubmatch(text); m != nil {
		haikuBlock = m[0]
		p.HaikuTitle = strings.TrimSpace(m[1])
		p.Haiku = strings.Join([]string{strings.TrimSpace(m[2]), strings.TrimSpace(m[3]), strings.TrimSpace(m[4])}, "\n")
	} else if m := haikuOneLinePattern.FindStringSubmatch(text); m != nil {
		haikuBlock = m[0]
		p.HaikuTitle = strings.TrimSpace(m[1])
		p.Haiku = splitHaiku(strings.TrimSpace(m[2]))
	}

	if titleMatch == nil && haikuBlock == "" {
		return p, false
	}

	body := text
	if titleMatch != nil {
		body = strings.Replace(body, titleMatch[0], "", 1)
	}
	if haikuBlock != "" {
		body = strings.ReplaceAll(body, haikuBlock, "")
	}
	p.Story = strings.TrimSpace(body)
	return p, true
}

// splitHaiku breaks a one-line haiku on "/", then on commas when there are
// at least two (the third line keeps the remainder), then on newlines.
func splitHaiku(text string) string {
	var lines []string
	switch {
	case strings.Contains(text, "/"):
		for _, l := range strings.Split(text, "/") {
			lines = append(lines, strings.TrimSpace(l))
		}
	case strings.Count(text, ",") >= 2:
		parts := strings.Split(text, ",")
		lines = []string{
			strings.TrimSpace(parts[0]),
			strings.TrimSpace(parts[1]),
			strings.TrimSpace(strings.Join(parts[2:], ",")),
		}
	default:
		lines = nonEmptyLines(text)
	}
	if len(lines) >= 3 {
		return strings.Join(lines[:3], "\n")
	}
	return text
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
