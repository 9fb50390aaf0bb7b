package astro

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/alexanderramin/zenstory/internal/fetch"
)

// Planet is one entry from the visible planets service.
type Planet struct {
	Name          string  `json:"name"`
	RA            float64 `json:"ra"`
	Dec           float64 `json:"dec"`
	Magnitude     float64 `json:"magnitude"`
	Constellation string  `json:"constellation"`
	AboveHorizon  bool    `json:"above_horizon"`
	// Raw keeps the upstream entry for special-event detection.
	Raw string `json:"-"`
}

// PlanetsClient queries api.visibleplanets.dev.
type PlanetsClient struct {
	client  *fetch.Client
	cache   *fetch.Cache
	baseURL string
}

func NewPlanetsClient(client *fetch.Client, cache *fetch.Cache, baseURL string) *PlanetsClient {
	return &PlanetsClient{client: client, cache: cache, baseURL: baseURL}
}

type planetsResponse struct {
	Data []json.RawMessage `json:"data"`
}

type planetEntry struct {
	Name           string   `json:"name"`
	RightAscension *float64 `json:"rightAscension"`
	Declination    *float64 `json:"declination"`
	Magnitude      *float64 `json:"magnitude"`
	Constellation  string   `json:"constellation"`
	AboveHorizon   *bool    `json:"aboveHorizon"`
}

// Visible returns the planets above the horizon at (lat, lon) on date
// (YYYY-MM-DD, empty for now). Entries without a name or flagged below the
// horizon are dropped.
func (p *PlanetsClient) Visible(ctx context.Context, lat, lon float64, date string) ([]Planet, error) {
	key, err := fetch.Key("visible_planets", lat, lon, date)
	if err != nil {
		return nil, err
	}
	return fetch.GetOrLoad(ctx, p.cache, key, func(ctx context.Context) ([]Planet, error) {
		params := url.Values{
			"latitude":  {strconv.FormatFloat(lat, 'f', -1, 64)},
			"longitude": {strconv.FormatFloat(lon, 'f', -1, 64)},
		}
		if date != "" {
			params.Set("date", date)
		}

		var resp planetsResponse
		if err := p.client.GetJSON(ctx, p.baseURL, params, nil, &resp); err != nil {
			return nil, fmt.Errorf("visible planets: %w", err)
		}

		planets := make([]Planet, 0, len(resp.Data))
		for _, raw := range resp.Data {
			var e planetEntry
			if err := json.Unmarshal(raw, &e); err != nil || e.Name == "" {
				continue
			}
			if e.AboveHorizon != nil && !*e.AboveHorizon {
				continue
			}
			planets = append(planets, Planet{
				Name:          e.Name,
				RA:            valueOr(e.RightAscension, 0),
				Dec:           valueOr(e.Declination, 0),
				Magnitude:     valueOr(e.Magnitude, 5),
				Constellation: stringOr(e.Constellation, "Unknown"),
				AboveHorizon:  e.AboveHorizon == nil || *e.AboveHorizon,
				Raw:           strings.ToLower(string(raw)),
			})
		}
		return planets, nil
	})
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
