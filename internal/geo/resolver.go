// Package geo turns user input into coordinates: a city table lookup,
// literal "lat,lon" pairs, fuzzy matching, and IP geolocation.
package geo

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/alexanderramin/zenstory/internal/catalog"
)

// Source records how a Location was resolved.
type Source string

const (
	SourceTable       Source = "table"
	SourceCoordinates Source = "coordinates"
	SourceFuzzy       Source = "fuzzy"
	SourceIP          Source = "ip"
)

// minFuzzyQuery is the shortest input handed to the fuzzy matcher.
const minFuzzyQuery = 3

type Location struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"latitude"`
	Lon      float64 `json:"longitude"`
	Timezone string  `json:"timezone,omitempty"`
	Source   Source  `json:"source"`
	// Nearby names the table city within 0.1 degrees of raw coordinates.
	Nearby string `json:"nearby,omitempty"`
}

// Resolver matches free text against the city table.
type Resolver struct {
	cities  []catalog.City
	names   []string // original names, for fuzzy search
	folded  []string // folded full names
	parts   []string // folded text before the first comma
	popular []string
}

func NewResolver(cities []catalog.City, popular []string) *Resolver {
	r := &Resolver{
		cities:  cities,
		names:   make([]string, len(cities)),
		folded:  make([]string, len(cities)),
		parts:   make([]string, len(cities)),
		popular: popular,
	}
	for i, c := range cities {
		r.names[i] = c.Name
		r.folded[i] = Fold(c.Name)
		part, _, _ := strings.Cut(c.Name, ",")
		r.parts[i] = Fold(strings.TrimSpace(part))
	}
	return r
}

// Parse resolves input to a location. Rules are tried in order: exact name,
// case and accent insensitive name, the city part (equality before
// containment), a literal "lat,lon" pair, then a fuzzy match. Empty input
// never resolves.
func (r *Resolver) Parse(input string) (Location, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Location{}, false
	}

	for i, c := range r.cities {
		if c.Name == input {
			return r.at(i, SourceTable), true
		}
	}

	folded := Fold(input)
	for i := range r.cities {
		if r.folded[i] == folded {
			return r.at(i, SourceTable), true
		}
	}

	for i, part := range r.parts {
		if folded == part {
			return r.at(i, SourceTable), true
		}
	}
	for i, part := range r.parts {
		if strings.Contains(part, folded) || strings.Contains(folded, part) {
			return r.at(i, SourceTable), true
		}
	}

	if lat, lon, ok := ParseCoordinates(input); ok {
		loc := Location{
			Name:   fmt.Sprintf("Location (%.2f, %.2f)", lat, lon),
			Lat:    lat,
			Lon:    lon,
			Source: SourceCoordinates,
		}
		if c, ok := r.Nearest(lat, lon); ok {
			loc.Nearby = c.Name
		}
		return loc, true
	}

	if len([]rune(folded)) >= minFuzzyQuery {
		if matches := fuzzy.Find(folded, r.folded); len(matches) > 0 {
			return r.at(matches[0].Index, SourceFuzzy), true
		}
	}
	return Location{}, false
}

// Suggest returns up to limit city names ranked by fuzzy score. An empty
// query returns the popular cities.
func (r *Resolver) Suggest(query string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	query = strings.TrimSpace(query)
	if query == "" {
		if len(r.popular) < limit {
			return append([]string(nil), r.popular...)
		}
		return append([]string(nil), r.popular[:limit]...)
	}

	matches := fuzzy.Find(Fold(query), r.folded)
	out := make([]string, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, r.names[m.Index])
	}
	return out
}

// Nearest returns the first table city within 0.1 degrees on both axes.
func (r *Resolver) Nearest(lat, lon float64) (catalog.City, bool) {
	for _, c := range r.cities {
		if abs(c.Lat-lat) < 0.1 && abs(c.Lon-lon) < 0.1 {
			return c, true
		}
	}
	return catalog.City{}, false
}

func (r *Resolver) at(i int, src Source) Location {
	c := r.cities[i]
	return Location{Name: c.Name, Lat: c.Lat, Lon: c.Lon, Source: src}
}

// ParseCoordinates accepts "lat,lon" with optional spaces. Both values must
// be in range.
func ParseCoordinates(s string) (float64, float64, bool) {
	s = strings.ReplaceAll(s, " ", "")
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok || strings.Contains(lonStr, ",") {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, false
	}
	if !ValidCoordinates(lat, lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Fold lowercases s and strips diacritics, so "São Paulo" and "sao paulo"
// compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
