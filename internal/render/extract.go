package render

import (
	"strings"

	"golang.org/x/net/html"
)

// haikuMarker opens the heading of the haiku box in story HTML.
const haikuMarker = "🌸"

// ExtractTitle returns the text of the first <h1> in fragment, or "" when
// there is none.
func ExtractTitle(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	h1 := findElement(doc, func(n *html.Node) bool { return n.Data == "h1" })
	if h1 == nil {
		return ""
	}
	return strings.TrimSpace(textContent(h1))
}

// ExtractHaiku returns the haiku lines of story HTML: the paragraphs of the
// first <div> following an <h3> whose text starts with the blossom marker.
func ExtractHaiku(fragment string) []string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil
	}
	h3 := findElement(doc, func(n *html.Node) bool {
		return n.Data == "h3" && strings.HasPrefix(strings.TrimSpace(textContent(n)), haikuMarker)
	})
	if h3 == nil {
		return nil
	}

	var box *html.Node
	for s := h3.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode && s.Data == "div" {
			box = s
			break
		}
	}
	if box == nil {
		return nil
	}

	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			if line := strings.TrimSpace(textContent(n)); line != "" {
				lines = append(lines, line)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(box)
	return lines
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

var blockElements = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true,
	"p": true, "div": true, "li": true, "br": true,
}

// PlainText flattens story HTML into its text blocks, one per heading,
// paragraph or div, with whitespace collapsed. Scripts and styles are
// dropped.
func PlainText(fragment string) []string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var blocks []string
	var cur strings.Builder
	flush := func() {
		if s := strings.Join(strings.Fields(cur.String()), " "); s != "" {
			blocks = append(blocks, s)
		}
		cur.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			cur.WriteByte(' ')
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
			if blockElements[n.Data] {
				flush()
				defer flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	flush()
	return blocks
}
