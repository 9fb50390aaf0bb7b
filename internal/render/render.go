// Package render turns generated stories and library entries into HTML:
// the fragments shown around a story, the dictionary and about pages, and
// the printable exports.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	infoBarLayout    = "01/02/2006, 03:04:05 PM"
	exportLayout     = "2006-01-02 15:04:05"
	canvasDateLayout = "2006-01-02"
	defaultErrorKey  = "generic_error"
	untitled         = "Zen-IT Story"
)

type Renderer struct {
	catalog  *catalog.Catalog
	tmpl     *template.Template
	policy   *bluemonday.Policy
	markdown goldmark.Markdown
}

// New parses the embedded templates.
func New(c *catalog.Catalog) (*Renderer, error) {
	tmpl, err := template.New("render").Funcs(template.FuncMap{
		"lines": func(s []string) template.HTML {
			escaped := make([]string, len(s))
			for i, l := range s {
				escaped[i] = template.HTMLEscapeString(l)
			}
			return template.HTML(strings.Join(escaped, "<br>"))
		},
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-z0-9 -]+$`)).Globally()

	return &Renderer{
		catalog:  c,
		tmpl:     tmpl,
		policy:   policy,
		markdown: goldmark.New(),
	}, nil
}

// Sanitize strips anything from stored story HTML that the story renderer
// would not have produced itself.
func (r *Renderer) Sanitize(fragment string) template.HTML {
	return template.HTML(r.policy.Sanitize(fragment))
}

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// Coordinates formats a position with the language's compass letters.
func Coordinates(lat, lon float64, lang *catalog.Language) string {
	ns, ew := lang.Directions.North, lang.Directions.East
	if lat < 0 {
		ns = lang.Directions.South
	}
	if lon < 0 {
		ew = lang.Directions.West
	}
	return fmt.Sprintf("%.1f %s, %.1f %s", math.Abs(lat), ns, math.Abs(lon), ew)
}

func (r *Renderer) LocationBanner(langCode, city string, lat, lon float64) (template.HTML, error) {
	lang := r.catalog.Language(langCode)
	return r.execute("banner", map[string]any{
		"From":        lang.T("tonight_sky_from"),
		"City":        city,
		"Coordinates": Coordinates(lat, lon, lang),
	})
}

func (r *Renderer) FunFacts(langCode string, facts []string) (template.HTML, error) {
	lang := r.catalog.Language(langCode)
	return r.execute("funfacts", map[string]any{
		"Title": lang.DidYouKnow,
		"Facts": facts,
	})
}

func (r *Renderer) InfoBar(langCode, city string, at time.Time) (template.HTML, error) {
	lang := r.catalog.Language(langCode)
	return r.execute("infobar", map[string]any{
		"LocationLabel":  lang.T("info_location"),
		"Location":       city,
		"LanguageLabel":  lang.T("info_language"),
		"Language":       lang.Name,
		"GeneratedLabel": lang.T("info_generated"),
		"Generated":      at.Format(infoBarLayout),
	})
}

// StoryParts are the fragments combined into the displayed story.
type StoryParts struct {
	Banner   template.HTML
	Story    template.HTML
	FunFacts template.HTML
	InfoBar  template.HTML
}

// Compose joins the parts in display order.
func (r *Renderer) Compose(p StoryParts) (template.HTML, error) {
	return r.execute("story", p)
}

// ErrorMessage is the poetic markdown message for an error key. Unknown keys
// use the generic message.
func (r *Renderer) ErrorMessage(langCode, key string) string {
	lang := r.catalog.Language(langCode)
	msg, ok := lang.Errors[key]
	if !ok {
		msg = lang.Errors[defaultErrorKey]
	}
	return fmt.Sprintf("%s %s\n\n%s", lang.ErrorWrapper.Prefix, msg, lang.ErrorWrapper.TryAgain)
}

func (r *Renderer) ErrorHTML(langCode, key string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(r.ErrorMessage(langCode, key)), &buf); err != nil {
		return "", fmt.Errorf("rendering error message: %w", err)
	}
	return r.execute("error", r.Sanitize(buf.String()))
}

func (r *Renderer) Dictionary(langCode string) (template.HTML, error) {
	lang := r.catalog.Language(langCode)
	return r.execute("dictionary", map[string]any{
		"Title": lang.T("dict_title"),
		"Intro": lang.T("dict_intro"),
		"Terms": lang.Dictionary,
	})
}

func (r *Renderer) About(langCode string) (template.HTML, error) {
	return r.execute("about", r.catalog.Language(langCode).About)
}

// StoryPage is the printable page of a saved story.
func (r *Renderer) StoryPage(s *domain.SavedStory) (string, error) {
	title := s.Title
	if title == "" {
		title = untitled
	}
	out, err := r.execute("story_page", map[string]any{
		"Lang":      r.catalog.NormalizeLanguage(s.Language),
		"Title":     title,
		"Timestamp": s.CreatedAt.Local().Format(exportLayout),
		"Location":  s.Location,
		"ImageURL":  s.ImageURL,
		"Body":      r.Sanitize(s.StoryHTML),
	})
	return string(out), err
}

// CanvasPage is the printable A4 drawing sheet of a dream canvas, with the
// story's haiku as a reminder and a star border seeded by the canvas ID.
func (r *Renderer) CanvasPage(c *domain.DreamCanvas) (string, error) {
	lang := r.catalog.Language(c.Language)
	title := c.Title
	if title == "" {
		title = untitled
	}
	out, err := r.execute("canvas_page", map[string]any{
		"Lang":      lang.Code,
		"Text":      lang.Canvas,
		"Title":     title,
		"Haiku":     ExtractHaiku(c.StoryHTML),
		"Location":  c.Location,
		"Date":      c.CreatedAt.Local().Format(canvasDateLayout),
		"Starfield": Starfield(c.ID, 794, 1123),
	})
	return string(out), err
}

// IndexData feeds the single-page web UI.
type IndexData struct {
	Lang      *catalog.Language
	Languages []catalog.Language
	Cities    []string
}

func (r *Renderer) Index(langCode string) (string, error) {
	out, err := r.execute("index", IndexData{
		Lang:      r.catalog.Language(langCode),
		Languages: r.catalog.Languages,
		Cities:    r.catalog.Sky.PopularCities,
	})
	return string(out), err
}
