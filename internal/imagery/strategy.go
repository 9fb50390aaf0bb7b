package imagery

import (
	"net/url"
	"strings"
)

// Strategy tells an external agent where to look for an image of an object.
type Strategy struct {
	Strategy       string   `json:"strategy"`
	SearchQuery    string   `json:"search_query"`
	HubbleURL      string   `json:"hubble_url"`
	SDSSURL        string   `json:"sdss_url"`
	WikimediaURL   string   `json:"wikimedia_url"`
	WikimediaQuery string   `json:"wikimedia_query"`
	FallbackURL    string   `json:"fallback_url"`
	AltNames       []string `json:"alt_names"`
	Instructions   string   `json:"instructions"`
}

// Strategy picks the primary source by object type: Hubble for planets,
// nebulae and galaxies, SDSS for stars, Wikimedia for anything else.
func (f *Fetcher) Strategy(name, objectType string) Strategy {
	query := strings.TrimSpace(name)

	primary := SourceWikimedia
	switch objectType {
	case "planet", "nebula", "galaxy":
		primary = SourceHubble
	case "star":
		primary = SourceSDSS
	}

	alt := f.AltNames(query)
	wikiQuery := WikimediaQuery(query)
	return Strategy{
		Strategy:    primary,
		SearchQuery: query,
		HubbleURL:   f.endpoints.Hubble + "?" + url.Values{"name": {query}}.Encode(),
		// Coordinates come from select_celestial; this is the template.
		SDSSURL: f.endpoints.SDSS + "?ra=0&dec=0&scale=0.1&width=512&height=512",
		WikimediaURL: f.endpoints.Wikimedia + "?" + url.Values{
			"action":   {"query"},
			"list":     {"search"},
			"srsearch": {wikiQuery},
			"format":   {"json"},
		}.Encode(),
		WikimediaQuery: wikiQuery,
		FallbackURL:    f.endpoints.Fallback,
		AltNames:       alt,
		Instructions: "Try sources in this order: 1) " + primary + " 2) wikimedia 3) fallback. " +
			"If primary fails, try alt_names: " + strings.Join(alt, ", "),
	}
}

// AltNames lists alternative search terms for name.
func (f *Fetcher) AltNames(name string) []string {
	if alt, ok := f.catalog.Sky.AltNames[name]; ok && len(alt) > 0 {
		return alt
	}
	return []string{name + " astronomy"}
}
