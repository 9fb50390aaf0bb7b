package astro

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/fetch"
)

// GenericFact is used when nothing is known about an object.
const GenericFact = "A beautiful celestial object visible in tonight's sky"

// FactsProvider looks up short scientific facts about an object, first in
// the Arcsecond catalog, then in the bundled defaults.
type FactsProvider struct {
	client  *fetch.Client
	cache   *fetch.Cache
	baseURL string
	apiKey  string
	sky     catalog.Sky
	log     *zap.Logger
}

func NewFactsProvider(client *fetch.Client, cache *fetch.Cache, baseURL, apiKey string, sky catalog.Sky, log *zap.Logger) *FactsProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &FactsProvider{client: client, cache: cache, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, sky: sky, log: log}
}

// arcsecondObject keeps distance and magnitude loosely typed; the catalog
// returns numbers for some objects and strings for others.
type arcsecondObject struct {
	Name           string `json:"name"`
	Distance       any    `json:"distance"`
	Classification string `json:"classification"`
	Magnitude      any    `json:"magnitude"`
}

// Facts never fails; unknown objects get GenericFact.
func (f *FactsProvider) Facts(ctx context.Context, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return GenericFact
	}
	if facts, err := f.arcsecond(ctx, name); err == nil && facts != "" {
		return facts
	} else if err != nil {
		f.log.Debug("arcsecond lookup failed", zap.String("object", name), zap.Error(err))
	}
	return f.DefaultFacts(name)
}

// DefaultFacts returns the bundled fact for name or GenericFact.
func (f *FactsProvider) DefaultFacts(name string) string {
	if s, ok := f.sky.DefaultFacts[name]; ok {
		return s
	}
	return GenericFact
}

func (f *FactsProvider) arcsecond(ctx context.Context, name string) (string, error) {
	key, err := fetch.Key("arcsecond", name)
	if err != nil {
		return "", err
	}
	return fetch.GetOrLoad(ctx, f.cache, key, func(ctx context.Context) (string, error) {
		var headers map[string]string
		if f.apiKey != "" {
			headers = map[string]string{"Authorization": "Token " + f.apiKey}
		}

		var lastErr error
		for _, variant := range NameVariants(name) {
			var obj arcsecondObject
			err := f.client.GetJSON(ctx, f.baseURL+"/"+url.PathEscape(variant)+"/", nil, headers, &obj)
			if err != nil {
				lastErr = err
				if ctx.Err() != nil {
					break
				}
				continue
			}
			if facts := formatFacts(obj); facts != "" {
				return facts, nil
			}
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("no facts for %q", name)
		}
		return "", lastErr
	})
}

// NameVariants lists the spellings tried against the catalog, without
// duplicates: as given, UPPER, lower, Capitalized.
func NameVariants(name string) []string {
	candidates := []string{
		name,
		strings.ToUpper(name),
		strings.ToLower(name),
		Capitalize(name),
	}
	seen := make(map[string]bool, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func formatFacts(obj arcsecondObject) string {
	var parts []string
	if obj.Distance != nil {
		parts = append(parts, fmt.Sprintf("Distance: %v light-years", obj.Distance))
	}
	if obj.Classification != "" {
		parts = append(parts, "Type: "+obj.Classification)
	}
	if obj.Magnitude != nil {
		parts = append(parts, fmt.Sprintf("Brightness: Magnitude %v", obj.Magnitude))
	}
	return strings.Join(parts, "; ")
}
