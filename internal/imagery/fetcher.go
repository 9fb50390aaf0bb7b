// Package imagery finds a picture for a celestial object by walking a chain
// of public image sources, ending in a guaranteed starfield.
package imagery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/fetch"
)

const (
	SourceCurated   = "curated"
	SourceSkyView   = "skyview"
	SourceSDSS      = "sdss"
	SourceHubble    = "hubble"
	SourceWikimedia = "wikimedia"
	SourceAPOD      = "nasa_apod"
	SourceFallback  = "fallback"
)

// curatedCheckTimeout bounds the HEAD request that verifies a curated URL.
const curatedCheckTimeout = 2 * time.Second

// Endpoints are the base URLs of each source.
type Endpoints struct {
	SkyView   string
	SDSS      string
	Hubble    string
	Wikimedia string
	APOD      string
	Fallback  string
}

// Target is the object to illustrate. RA and Dec are degrees; nil skips the
// coordinate-based surveys.
type Target struct {
	Name string
	Type string
	RA   *float64
	Dec  *float64
}

type Image struct {
	URL     string `json:"url"`
	Source  string `json:"source"`
	AltText string `json:"alt_text"`
	Credit  string `json:"credit"`
}

type Fetcher struct {
	client    *fetch.Client
	cache     *fetch.Cache
	catalog   *catalog.Catalog
	endpoints Endpoints
	nasaKey   string
	log       *zap.Logger
}

func NewFetcher(client *fetch.Client, cache *fetch.Cache, c *catalog.Catalog, endpoints Endpoints, nasaKey string, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	if nasaKey == "" {
		nasaKey = "DEMO_KEY"
	}
	return &Fetcher{client: client, cache: cache, catalog: c, endpoints: endpoints, nasaKey: nasaKey, log: log}
}

type source struct {
	name string
	try  func(ctx context.Context, t Target) (Image, error)
}

// errSkipped marks a source that does not apply to the target.
var errSkipped = errors.New("source not applicable")

func (f *Fetcher) chain() []source {
	return []source{
		{SourceCurated, f.curated},
		{SourceSkyView, f.skyView},
		{SourceSDSS, f.sdss},
		{SourceHubble, f.hubble},
		{SourceWikimedia, f.wikimedia},
		{SourceAPOD, f.apod},
	}
}

// Fetch never fails. Results from real sources are cached per object; the
// starfield fallback is not, so the next request tries the chain again.
func (f *Fetcher) Fetch(ctx context.Context, t Target) Image {
	key, keyErr := fetch.Key("image", t.Name)
	if keyErr == nil {
		if v, ok := f.cache.Get(key); ok {
			if img, ok := v.(Image); ok {
				return img
			}
		}
	}

	for _, s := range f.chain() {
		img, err := s.try(ctx, t)
		if err != nil {
			if !errors.Is(err, errSkipped) {
				f.log.Debug("image source failed", zap.String("source", s.name), zap.String("object", t.Name), zap.Error(err))
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}
		f.log.Info("image found", zap.String("source", s.name), zap.String("object", t.Name))
		if keyErr == nil {
			f.cache.Set(key, img)
		}
		return img
	}

	f.log.Warn("all image sources failed, using starfield", zap.String("object", t.Name))
	return f.Fallback(t.Name)
}

// Fallback is the starfield shown when no source has an image.
func (f *Fetcher) Fallback(name string) Image {
	return Image{
		URL:     f.endpoints.Fallback,
		Source:  SourceFallback,
		AltText: "Beautiful starfield representing " + name,
		Credit:  "Unsplash starfield",
	}
}

func (f *Fetcher) curated(ctx context.Context, t Target) (Image, error) {
	img, ok := f.catalog.CuratedImage(t.Name)
	if !ok {
		return Image{}, errSkipped
	}
	status, err := f.client.Head(ctx, img.URL, curatedCheckTimeout)
	if err != nil {
		return Image{}, err
	}
	if status != http.StatusOK {
		return Image{}, fmt.Errorf("curated url returned %d", status)
	}
	return Image{URL: img.URL, Source: SourceCurated, AltText: img.AltText, Credit: img.Credit}, nil
}

func (f *Fetcher) skyView(ctx context.Context, t Target) (Image, error) {
	if t.RA == nil || t.Dec == nil {
		return Image{}, errSkipped
	}
	params := url.Values{
		"Position": {formatDeg(*t.RA) + "," + formatDeg(*t.Dec)},
		"Survey":   {"DSS"},
		"Pixels":   {"512"},
		"Return":   {"GIF"},
	}
	resp, err := f.client.Get(ctx, f.endpoints.SkyView, params, nil)
	if err != nil {
		return Image{}, err
	}
	if !isImage(resp) {
		return Image{}, fmt.Errorf("skyview returned %q", resp.ContentType())
	}
	return Image{
		URL:     resp.URL,
		Source:  SourceSkyView,
		AltText: fmt.Sprintf("Sky view of %s region from NASA SkyView", t.Name),
		Credit:  "NASA SkyView Virtual Observatory (DSS)",
	}, nil
}

func (f *Fetcher) sdss(ctx context.Context, t Target) (Image, error) {
	if t.RA == nil || t.Dec == nil {
		return Image{}, errSkipped
	}
	params := url.Values{
		"ra":     {formatDeg(*t.RA)},
		"dec":    {formatDeg(*t.Dec)},
		"scale":  {"0.2"},
		"width":  {"512"},
		"height": {"512"},
		"opt":    {"G"},
	}
	resp, err := f.client.Get(ctx, f.endpoints.SDSS, params, nil)
	if err != nil {
		return Image{}, err
	}
	if !isImage(resp) {
		return Image{}, fmt.Errorf("sdss returned %q", resp.ContentType())
	}
	return Image{
		URL:     resp.URL,
		Source:  SourceSDSS,
		AltText: fmt.Sprintf("Sky view of %s region from SDSS", t.Name),
		Credit:  "Sloan Digital Sky Survey (SDSS)",
	}, nil
}

type hubbleImage struct {
	Description string `json:"description"`
	ImageFiles  []struct {
		FileURL string `json:"file_url"`
	} `json:"image_files"`
}

func (f *Fetcher) hubble(ctx context.Context, t Target) (Image, error) {
	var results []hubbleImage
	if err := f.client.GetJSON(ctx, f.endpoints.Hubble, url.Values{"name": {t.Name}}, nil, &results); err != nil {
		return Image{}, err
	}
	if len(results) == 0 || len(results[0].ImageFiles) == 0 || results[0].ImageFiles[0].FileURL == "" {
		return Image{}, fmt.Errorf("no hubble image for %q", t.Name)
	}
	alt := results[0].Description
	if alt == "" {
		alt = t.Name + " captured by Hubble Space Telescope"
	}
	return Image{
		URL:     results[0].ImageFiles[0].FileURL,
		Source:  SourceHubble,
		AltText: alt,
		Credit:  "NASA/ESA Hubble Space Telescope",
	}, nil
}

type wikiSearch struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikiImageInfo struct {
	Query struct {
		Pages map[string]struct {
			ImageInfo []struct {
				URL string `json:"url"`
			} `json:"imageinfo"`
		} `json:"pages"`
	} `json:"query"`
}

// WikimediaQuery is the Commons search used for name.
func WikimediaQuery(name string) string {
	return name + " astronomy space telescope"
}

func (f *Fetcher) wikimedia(ctx context.Context, t Target) (Image, error) {
	var search wikiSearch
	err := f.client.GetJSON(ctx, f.endpoints.Wikimedia, url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"list":        {"search"},
		"srsearch":    {WikimediaQuery(t.Name)},
		"srnamespace": {"6"},
		"srlimit":     {"5"},
	}, nil, &search)
	if err != nil {
		return Image{}, err
	}

	for _, result := range search.Query.Search {
		var info wikiImageInfo
		err := f.client.GetJSON(ctx, f.endpoints.Wikimedia, url.Values{
			"action": {"query"},
			"format": {"json"},
			"titles": {result.Title},
			"prop":   {"imageinfo"},
			"iiprop": {"url"},
		}, nil, &info)
		if err != nil {
			return Image{}, err
		}
		for _, page := range info.Query.Pages {
			if len(page.ImageInfo) > 0 && page.ImageInfo[0].URL != "" {
				return Image{
					URL:     page.ImageInfo[0].URL,
					Source:  SourceWikimedia,
					AltText: t.Name + " - " + result.Title,
					Credit:  "Wikimedia Commons",
				}, nil
			}
		}
	}
	return Image{}, fmt.Errorf("no wikimedia image for %q", t.Name)
}

type apodEntry struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	MediaType string `json:"media_type"`
}

// apod returns a random picture of the day. It is unrelated to the object,
// so it is the last source tried.
func (f *Fetcher) apod(ctx context.Context, t Target) (Image, error) {
	var entries []apodEntry
	if err := f.client.GetJSON(ctx, f.endpoints.APOD, url.Values{"api_key": {f.nasaKey}, "count": {"1"}}, nil, &entries); err != nil {
		return Image{}, err
	}
	if len(entries) == 0 || entries[0].MediaType != "image" || entries[0].URL == "" {
		return Image{}, fmt.Errorf("apod returned no image")
	}
	alt := entries[0].Title
	if alt == "" {
		alt = "Astronomy picture related to " + t.Name
	}
	return Image{URL: entries[0].URL, Source: SourceAPOD, AltText: alt, Credit: "NASA APOD"}, nil
}

func isImage(resp *fetch.Response) bool {
	return strings.HasPrefix(resp.ContentType(), "image/")
}

func formatDeg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
