// Package story turns a celestial object into a localized bedtime story with
// a closing haiku.
package story

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/llm"
)

// Source records where a story's text came from.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

type Request struct {
	Object     string
	ObjectType string
	Location   string
	Facts      string
	Language   string
}

type Story struct {
	Title      string `json:"title"`
	Story      string `json:"story"`
	Haiku      string `json:"haiku"`
	HaikuTitle string `json:"haiku_title"`
	FullText   string `json:"full_text"`
	Language   string `json:"language"`
	Source     Source `json:"source"`
	Model      string `json:"model,omitempty"`
}

// Generator writes stories through an LLM and falls back to the bundled
// story whenever the model fails or says something unsafe.
type Generator struct {
	client      llm.LLMClient
	catalog     *catalog.Catalog
	safety      *SafetyFilter
	log         *zap.Logger
	llmFunFacts bool
}

type Option func(*Generator)

func WithLogger(log *zap.Logger) Option {
	return func(g *Generator) { g.log = log }
}

// WithLLMFunFacts asks the model for fun facts instead of using only the
// static set.
func WithLLMFunFacts(enabled bool) Option {
	return func(g *Generator) { g.llmFunFacts = enabled }
}

func NewGenerator(client llm.LLMClient, c *catalog.Catalog, opts ...Option) *Generator {
	g := &Generator{
		client:  client,
		catalog: c,
		safety:  NewSafetyFilter(c.UnsafeWords),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Safety exposes the blocklist used for stories.
func (g *Generator) Safety() *SafetyFilter { return g.safety }

// Prompt renders the story prompt for req after normalizing its language.
func (g *Generator) Prompt(req Request) string {
	lang := g.catalog.Language(g.catalog.NormalizeLanguage(req.Language))
	return BuildPrompt(PromptInput{
		Object:     req.Object,
		ObjectType: req.ObjectType,
		Location:   req.Location,
		Facts:      req.Facts,
		Language:   lang.Name,
	})
}

// Generate never fails: every error path yields the localized fallback.
func (g *Generator) Generate(ctx context.Context, req Request) Story {
	code := g.catalog.NormalizeLanguage(req.Language)
	log := g.log.With(zap.String("object", req.Object), zap.String("language", code))

	resp, err := g.client.Generate(ctx, llm.GenerateRequest{
		Task:       llm.TaskStory,
		UserPrompt: g.Prompt(req),
	})
	if err != nil {
		log.Warn("story generation failed, using fallback", zap.Error(err))
		return g.Fallback(req.Object, code)
	}
	if strings.TrimSpace(resp.Text) == "" {
		log.Warn("empty story response, using fallback")
		return g.Fallback(req.Object, code)
	}

	parsed, ok := Parse(resp.Text)
	if !ok {
		log.Warn("story response has no markdown structure")
		parsed = Parsed{
			Title:    "The Tale of " + req.Object,
			Story:    resp.Text,
			FullText: resp.Text,
		}
	}

	if parsed.Haiku != "" {
		if valid, issues := CheckHaiku(parsed.Haiku, code); !valid || len(issues) > 0 {
			log.Warn("haiku does not fit the expected shape", zap.Strings("issues", issues))
		}
	}

	if word, safe := g.safety.Check(parsed.FullText); !safe {
		log.Error("story contains unsafe content, using fallback", zap.String("word", word))
		return g.Fallback(req.Object, code)
	}

	log.Info("story generated", zap.Int("chars", len(resp.Text)), zap.String("model", resp.Model))
	return Story{
		Title:      parsed.Title,
		Story:      parsed.Story,
		Haiku:      parsed.Haiku,
		HaikuTitle: parsed.HaikuTitle,
		FullText:   parsed.FullText,
		Language:   code,
		Source:     SourceLLM,
		Model:      resp.Model,
	}
}

// Fallback returns the bundled story for lang with object filled in.
func (g *Generator) Fallback(object, lang string) Story {
	code := g.catalog.NormalizeLanguage(lang)
	fb := g.catalog.Language(code).FallbackStory
	fill := strings.NewReplacer("{object}", object)

	s := Story{
		Title:      fill.Replace(fb.Title),
		Story:      fill.Replace(fb.Story),
		Haiku:      fb.Haiku,
		HaikuTitle: fb.HaikuTitle,
		Language:   code,
		Source:     SourceFallback,
	}
	s.FullText = "# " + s.Title + "\n\n" + s.Story + "\n\n### " + s.HaikuTitle + "\n\n" + s.Haiku
	return s
}
