// Package catalog holds the static reference data bundled into the binary:
// cities, translations, sky tables, curated images, fun facts and the
// safety blocklist.
package catalog

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// DefaultLanguage is used whenever a requested language is not bundled.
const DefaultLanguage = "en"

type City struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

type Star struct {
	Name          string  `yaml:"name"`
	RA            float64 `yaml:"ra"`
	Dec           float64 `yaml:"dec"`
	Magnitude     float64 `yaml:"magnitude"`
	Constellation string  `yaml:"constellation"`
	HIP           int     `yaml:"hip"`
}

type Directions struct {
	North string `yaml:"north"`
	South string `yaml:"south"`
	East  string `yaml:"east"`
	West  string `yaml:"west"`
	From  string `yaml:"from"`
}

type ErrorWrapper struct {
	Prefix   string `yaml:"prefix"`
	TryAgain string `yaml:"try_again"`
}

type CanvasText struct {
	Header      string `yaml:"header"`
	DrawPrompt1 string `yaml:"draw_prompt_1"`
	DrawPrompt2 string `yaml:"draw_prompt_2"`
	HaikuLabel  string `yaml:"haiku_label"`
	Footer      string `yaml:"footer"`
	Created     string `yaml:"created"`
	ViewTab     string `yaml:"view_tab"`
}

// FallbackStory is the localized story used when the LLM cannot be reached
// or its output is rejected. "{object}" is replaced with the object name.
type FallbackStory struct {
	Title      string `yaml:"title"`
	Story      string `yaml:"story"`
	Haiku      string `yaml:"haiku"`
	HaikuTitle string `yaml:"haiku_title"`
}

type About struct {
	MissionTitle  string   `yaml:"mission_title"`
	MissionText   string   `yaml:"mission_text"`
	HowTitle      string   `yaml:"how_title"`
	HowSteps      []string `yaml:"how_steps"`
	FeaturesTitle string   `yaml:"features_title"`
	Features      []string `yaml:"features"`
	PerfectTitle  string   `yaml:"perfect_title"`
	PerfectFor    []string `yaml:"perfect_for"`
}

type Term struct {
	Emoji       string `yaml:"emoji"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
}

type Language struct {
	Code          string            `yaml:"code"`
	Name          string            `yaml:"name"`
	Flag          string            `yaml:"flag"`
	Directions    Directions        `yaml:"directions"`
	DidYouKnow    string            `yaml:"did_you_know"`
	ErrorWrapper  ErrorWrapper      `yaml:"error_wrapper"`
	Strings       map[string]string `yaml:"strings"`
	Errors        map[string]string `yaml:"errors"`
	Canvas        CanvasText        `yaml:"canvas"`
	FallbackStory FallbackStory     `yaml:"fallback_story"`
	About         About             `yaml:"about"`
	Dictionary    []Term            `yaml:"dictionary"`
}

// T returns the UI string for key, or the key itself when missing.
func (l *Language) T(key string) string {
	if s, ok := l.Strings[key]; ok {
		return s
	}
	return key
}

type CuratedImage struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Credit  string `yaml:"credit"`
	AltText string `yaml:"alt_text"`
}

type FunFactSet struct {
	Object string              `yaml:"object"`
	Facts  map[string][]string `yaml:"facts"`
}

type Sky struct {
	BrightStars        []Star              `yaml:"bright_stars"`
	HemisphereDefaults map[string][]Star   `yaml:"hemisphere_defaults"`
	FallbackStars      []Star              `yaml:"fallback_stars"`
	Polaris            Star                `yaml:"polaris"`
	DefaultFacts       map[string]string   `yaml:"default_facts"`
	AltNames           map[string][]string `yaml:"alt_names"`
	Planets            []string            `yaml:"planets"`
	Constellations     []string            `yaml:"constellations"`
	IconicPlanets      []string            `yaml:"iconic_planets"`
	PopularCities      []string            `yaml:"popular_cities"`
}

// Catalog is the parsed, read-only view of the embedded data files.
type Catalog struct {
	Cities        []City
	Languages     []Language
	UnsafeWords   []string
	CuratedImages []CuratedImage
	FunFacts      []FunFactSet
	Sky           Sky

	langIndex map[string]int
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Default returns the process-wide catalog, parsing the embedded files on
// first use. It panics if the bundled data is malformed.
func Default() *Catalog {
	loadOnce.Do(func() {
		loaded, loadErr = Load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("catalog: %v", loadErr))
	}
	return loaded
}

// Load parses every embedded data file into a fresh Catalog.
func Load() (*Catalog, error) {
	c := &Catalog{}

	var cities struct {
		Cities []City `yaml:"cities"`
	}
	var langs struct {
		Languages []Language `yaml:"languages"`
	}
	var safety struct {
		UnsafeWords []string `yaml:"unsafe_words"`
	}
	var images struct {
		CuratedImages []CuratedImage `yaml:"curated_images"`
	}
	var facts struct {
		FunFacts []FunFactSet `yaml:"fun_facts"`
	}

	files := []struct {
		name string
		out  any
	}{
		{"data/cities.yaml", &cities},
		{"data/languages.yaml", &langs},
		{"data/safety.yaml", &safety},
		{"data/images.yaml", &images},
		{"data/funfacts.yaml", &facts},
		{"data/sky.yaml", &c.Sky},
	}
	for _, f := range files {
		raw, err := dataFS.ReadFile(f.name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.name, err)
		}
		if err := yaml.Unmarshal(raw, f.out); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.name, err)
		}
	}

	c.Cities = cities.Cities
	c.Languages = langs.Languages
	c.UnsafeWords = safety.UnsafeWords
	c.CuratedImages = images.CuratedImages
	c.FunFacts = facts.FunFacts

	c.langIndex = make(map[string]int, len(c.Languages))
	for i, l := range c.Languages {
		c.langIndex[l.Code] = i
	}
	if _, ok := c.langIndex[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("default language %q missing", DefaultLanguage)
	}
	return c, nil
}

// Supported reports whether code names a bundled language.
func (c *Catalog) Supported(code string) bool {
	_, ok := c.langIndex[code]
	return ok
}

// NormalizeLanguage maps unsupported or empty codes to DefaultLanguage.
func (c *Catalog) NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if c.Supported(code) {
		return code
	}
	return DefaultLanguage
}

// Language returns the bundle for code, falling back to English.
func (c *Catalog) Language(code string) *Language {
	if i, ok := c.langIndex[code]; ok {
		return &c.Languages[i]
	}
	return &c.Languages[c.langIndex[DefaultLanguage]]
}

// LanguageCodes lists the bundled language codes in file order.
func (c *Catalog) LanguageCodes() []string {
	codes := make([]string, len(c.Languages))
	for i, l := range c.Languages {
		codes[i] = l.Code
	}
	return codes
}

func (c *Catalog) CuratedImage(name string) (CuratedImage, bool) {
	for _, img := range c.CuratedImages {
		if img.Name == name {
			return img, true
		}
	}
	return CuratedImage{}, false
}

// FunFactSet returns the facts for object, or the "default" set.
func (c *Catalog) FunFactSet(object string) FunFactSet {
	var fallback FunFactSet
	for _, s := range c.FunFacts {
		if s.Object == object {
			return s
		}
		if s.Object == "default" {
			fallback = s
		}
	}
	return fallback
}

func (c *Catalog) IsPlanet(name string) bool { return contains(c.Sky.Planets, name) }

func (c *Catalog) IsConstellation(name string) bool { return contains(c.Sky.Constellations, name) }

func (c *Catalog) IsIconicPlanet(name string) bool { return contains(c.Sky.IconicPlanets, name) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
