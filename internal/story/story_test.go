package story

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/llm"
)

type fakeLLM struct {
	text string
	err  error
	reqs []llm.GenerateRequest
}

func (f *fakeLLM) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResponse{Text: f.text, Model: "test-model"}, nil
}

func (f *fakeLLM) Available(context.Context) bool { return f.err == nil }

const wellFormed = `# Vega and the Little Dreamer

Mia looked up at the sky and saw a bright blue light.

"Hello," said Vega. "I am twenty-five light-years away."

### Goodnight Haiku
Blue star softly glows
whispering to sleepy eyes
dream until the dawn
`

func TestGenerate_ParsesModelOutput(t *testing.T) {
	client := &fakeLLM{text: wellFormed}
	g := NewGenerator(client, catalog.Default())

	s := g.Generate(context.Background(), Request{Object: "Vega", ObjectType: "star", Location: "Rome, Italy", Facts: "25 light-years", Language: "en"})

	assert.Equal(t, SourceLLM, s.Source)
	assert.Equal(t, "test-model", s.Model)
	assert.Equal(t, "Vega and the Little Dreamer", s.Title)
	assert.Equal(t, "Goodnight Haiku", s.HaikuTitle)
	assert.Equal(t, "Blue star softly glows\nwhispering to sleepy eyes\ndream until the dawn", s.Haiku)
	assert.True(t, strings.HasPrefix(s.Story, "Mia looked up"))
	assert.NotContains(t, s.Story, "Haiku")
	assert.NotContains(t, s.Story, "# Vega")
	assert.Equal(t, wellFormed, s.FullText)

	require.Len(t, client.reqs, 1)
	assert.Equal(t, llm.TaskStory, client.reqs[0].Task)
	prompt := client.reqs[0].UserPrompt
	assert.Contains(t, prompt, "CELESTIAL OBJECT: Vega")
	assert.Contains(t, prompt, "VISIBLE FROM: Rome, Italy")
	assert.Contains(t, prompt, "SCIENTIFIC FACTS: 25 light-years")
	assert.Contains(t, prompt, "TARGET LANGUAGE: English")
	assert.NotContains(t, prompt, "{language}")
}

func TestGenerate_LLMErrorUsesLocalizedFallback(t *testing.T) {
	g := NewGenerator(&fakeLLM{err: llm.ErrUnavailable}, catalog.Default())

	s := g.Generate(context.Background(), Request{Object: "Altair", Language: "it"})

	assert.Equal(t, SourceFallback, s.Source)
	assert.Equal(t, "it", s.Language)
	assert.Equal(t, "La Storia di Altair", s.Title)
	assert.Equal(t, "Haiku della Buonanotte", s.HaikuTitle)
	assert.Contains(t, s.Story, "Altair")
	assert.NotContains(t, s.Story, "{object}")
	assert.True(t, strings.HasPrefix(s.FullText, "# La Storia di Altair\n\n"))
	assert.Contains(t, s.FullText, "\n\n### Haiku della Buonanotte\n\n"+s.Haiku)
}

func TestGenerate_UnsupportedLanguageFallsBackToEnglish(t *testing.T) {
	client := &fakeLLM{err: errors.New("boom")}
	g := NewGenerator(client, catalog.Default())

	s := g.Generate(context.Background(), Request{Object: "Sirius", Language: "de"})

	assert.Equal(t, "en", s.Language)
	assert.Equal(t, "The Tale of Sirius", s.Title)
	require.Len(t, client.reqs, 1)
	assert.Contains(t, client.reqs[0].UserPrompt, "TARGET LANGUAGE: English")
}

func TestGenerate_UnsafeOutputIsReplaced(t *testing.T) {
	client := &fakeLLM{text: "# A Scary Night\n\nThe monster under the bed woke up.\n"}
	g := NewGenerator(client, catalog.Default())

	s := g.Generate(context.Background(), Request{Object: "Mars", Language: "en"})

	assert.Equal(t, SourceFallback, s.Source)
	assert.Equal(t, "The Tale of Mars", s.Title)
}

func TestGenerate_UnstructuredOutputKeepsRawText(t *testing.T) {
	raw := "Once upon a time Jupiter smiled at a sleepy child."
	g := NewGenerator(&fakeLLM{text: raw}, catalog.Default())

	s := g.Generate(context.Background(), Request{Object: "Jupiter", Language: "fr"})

	assert.Equal(t, SourceLLM, s.Source)
	assert.Equal(t, "The Tale of Jupiter", s.Title)
	assert.Equal(t, raw, s.Story)
	assert.Equal(t, raw, s.FullText)
	assert.Empty(t, s.Haiku)
}

func TestGenerate_BlankResponseUsesFallback(t *testing.T) {
	g := NewGenerator(&fakeLLM{text: "   \n"}, catalog.Default())
	s := g.Generate(context.Background(), Request{Object: "Deneb", Language: "es"})
	assert.Equal(t, SourceFallback, s.Source)
	assert.Equal(t, "El Cuento de Deneb", s.Title)
}

func TestFallback_EveryLanguageIsSafeAndWellShaped(t *testing.T) {
	c := catalog.Default()
	g := NewGenerator(&fakeLLM{}, c)

	for _, code := range c.LanguageCodes() {
		t.Run(code, func(t *testing.T) {
			s := g.Fallback("Vega", code)
			assert.True(t, g.Safety().Safe(s.FullText))

			ok, issues := CheckHaiku(s.Haiku, code)
			assert.True(t, ok)
			assert.Empty(t, issues)

			parsed, ok := Parse(s.FullText)
			require.True(t, ok)
			assert.Equal(t, s.Title, parsed.Title)
		})
	}
}

func TestFunFacts_Static(t *testing.T) {
	g := NewGenerator(&fakeLLM{err: llm.ErrUnavailable}, catalog.Default())

	jupiter := g.FunFacts(context.Background(), "jupiter", "planet", "en")
	require.Len(t, jupiter, 3)
	assert.Contains(t, jupiter[0], "1,300 Earths")

	unknown := g.FunFacts(context.Background(), "Betelgeuse", "star", "it")
	assert.Equal(t, catalog.Default().FunFactSet("default").Facts["it"], unknown)

	assert.Equal(t, g.StaticFunFacts("Mars", "en"), g.FunFacts(context.Background(), "Mars", "planet", "xx"))
}

func TestFunFacts_FromModel(t *testing.T) {
	client := &fakeLLM{text: "```json\n{\"facts\": [\"Vega is blue.\", \" Vega spins fast. \", \"Vega is in Lyra.\"]}\n```"}
	g := NewGenerator(client, catalog.Default(), WithLLMFunFacts(true))

	facts := g.FunFacts(context.Background(), "Vega", "star", "en")

	assert.Equal(t, []string{"Vega is blue.", "Vega spins fast.", "Vega is in Lyra."}, facts)
	require.Len(t, client.reqs, 1)
	assert.Equal(t, llm.TaskFunFacts, client.reqs[0].Task)
	assert.Contains(t, client.reqs[0].UserPrompt, "about Vega (a star)")
}

func TestFunFacts_ModelOutputRejected(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"unsafe fact", `{"facts": ["Vega is blue.", "Vega is scary.", "Vega is in Lyra."]}`},
		{"wrong count", `{"facts": ["Vega is blue."]}`},
		{"not json", "Vega is lovely."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(&fakeLLM{text: tt.text}, catalog.Default(), WithLLMFunFacts(true))
			got := g.FunFacts(context.Background(), "Saturn", "planet", "en")
			assert.Equal(t, g.StaticFunFacts("Saturn", "en"), got)
		})
	}
}
