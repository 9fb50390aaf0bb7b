package story

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alexanderramin/zenstory/internal/astro"
	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/llm"
)

// FactsPerObject is how many fun facts are shown under a story.
const FactsPerObject = 3

type funFactsPayload struct {
	Facts []string `json:"facts"`
}

func validateFunFacts(p funFactsPayload) error {
	if len(p.Facts) != FactsPerObject {
		return fmt.Errorf("expected %d facts, got %d", FactsPerObject, len(p.Facts))
	}
	for i, f := range p.Facts {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("fact %d is empty", i+1)
		}
	}
	return nil
}

// FunFacts returns three child-friendly facts about object in lang. The
// static set is used unless model facts are enabled and come back valid
// and safe.
func (g *Generator) FunFacts(ctx context.Context, object, objectType, lang string) []string {
	code := g.catalog.NormalizeLanguage(lang)
	if g.llmFunFacts {
		facts, err := g.modelFunFacts(ctx, object, objectType, code)
		if err == nil {
			return facts
		}
		g.log.Debug("model fun facts unavailable, using static set",
			zap.String("object", object), zap.Error(err))
	}
	return g.StaticFunFacts(object, code)
}

// StaticFunFacts looks object up by its capitalized name, falling back to
// the default set and then to English.
func (g *Generator) StaticFunFacts(object, lang string) []string {
	set := g.catalog.FunFactSet(astro.Capitalize(object))
	facts, ok := set.Facts[lang]
	if !ok {
		facts = set.Facts[catalog.DefaultLanguage]
	}
	if len(facts) > FactsPerObject {
		facts = facts[:FactsPerObject]
	}
	return facts
}

func (g *Generator) modelFunFacts(ctx context.Context, object, objectType, lang string) ([]string, error) {
	resp, err := g.client.Generate(ctx, llm.GenerateRequest{
		Task:       llm.TaskFunFacts,
		UserPrompt: buildFunFactsPrompt(object, objectType, g.catalog.Language(lang).Name),
	})
	if err != nil {
		return nil, err
	}
	payload, err := llm.ExtractJSON[funFactsPayload](resp.Text, validateFunFacts)
	if err != nil {
		return nil, err
	}
	facts := make([]string, len(payload.Facts))
	for i, f := range payload.Facts {
		if word, ok := g.safety.Check(f); !ok {
			return nil, fmt.Errorf("fact %d contains %q", i+1, word)
		}
		facts[i] = strings.TrimSpace(f)
	}
	return facts, nil
}
