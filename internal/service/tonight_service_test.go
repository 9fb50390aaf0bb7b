package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/zenstory/internal/astro"
	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/geo"
	"github.com/alexanderramin/zenstory/internal/imagery"
	"github.com/alexanderramin/zenstory/internal/render"
	"github.com/alexanderramin/zenstory/internal/story"
)

type fakeParser struct{ loc *geo.Location }

func (f fakeParser) Parse(string) (geo.Location, bool) {
	if f.loc == nil {
		return geo.Location{}, false
	}
	return *f.loc, true
}

type fakeLocator struct {
	loc geo.Location
	err error
}

func (f fakeLocator) Locate(context.Context) (geo.Location, error) { return f.loc, f.err }

type fakeSelector struct {
	obj      astro.CelestialObject
	err      error
	gotDate  string
	gotCoord [2]float64
}

func (f *fakeSelector) Select(_ context.Context, lat, lon float64, date string) (astro.CelestialObject, error) {
	f.gotDate = date
	f.gotCoord = [2]float64{lat, lon}
	return f.obj, f.err
}

type fakeFacts struct{ text string }

func (f fakeFacts) Facts(context.Context, string) string { return f.text }

type fakeWriter struct {
	story story.Story
	req   story.Request
}

func (f *fakeWriter) Generate(_ context.Context, req story.Request) story.Story {
	f.req = req
	return f.story
}

func (f *fakeWriter) FunFacts(context.Context, string, string, string) []string {
	return []string{"Vega was the pole star long ago."}
}

type fakeImages struct {
	img    imagery.Image
	target imagery.Target
}

func (f *fakeImages) Fetch(_ context.Context, t imagery.Target) imagery.Image {
	f.target = t
	return f.img
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

var tonightNow = time.Date(2026, 10, 17, 20, 30, 0, 0, time.UTC)

type tonightFixture struct {
	deps     TonightDeps
	selector *fakeSelector
	writer   *fakeWriter
	images   *fakeImages
	observer *recordingObserver
}

func newTonightFixture(t *testing.T) *tonightFixture {
	t.Helper()
	c := catalog.Default()
	r, err := render.New(c)
	require.NoError(t, err)

	rome := geo.Location{Name: "Rome, Italy", Lat: 41.9, Lon: 12.5, Source: geo.SourceTable}
	f := &tonightFixture{
		selector: &fakeSelector{obj: astro.CelestialObject{
			Name: "Vega", Type: astro.TypeStar, RA: 279.23, Dec: 38.78, Magnitude: 0.03, Description: "Vega in Lyra",
		}},
		writer: &fakeWriter{story: story.Story{
			Title: "The Star Who Sang", Story: "Vega hummed a lullaby.", Haiku: "a\nb\nc",
			HaikuTitle: "Goodnight Haiku", Language: "en", Source: story.SourceLLM,
		}},
		images:   &fakeImages{img: imagery.Image{URL: "https://example.org/vega.jpg", Source: imagery.SourceCurated}},
		observer: &recordingObserver{},
	}
	f.deps = TonightDeps{
		Catalog:  c,
		Parser:   fakeParser{loc: &rome},
		Locator:  fakeLocator{err: errors.New("offline")},
		Selector: f.selector,
		Facts:    fakeFacts{text: "Distance: 25.04 light-years"},
		Stories:  f.writer,
		Images:   f.images,
		Renderer: r,
		Now:      func() time.Time { return tonightNow },
	}
	return f
}

func (f *tonightFixture) service() TonightService {
	return NewTonightService(f.deps, f.observer)
}

func TestTonight_Generate(t *testing.T) {
	f := newTonightFixture(t)

	var streamed []ProgressEvent
	res, err := f.service().Generate(context.Background(), TonightRequest{Location: "Rome", Language: "EN"},
		func(e ProgressEvent) { streamed = append(streamed, e) })
	require.NoError(t, err)

	assert.Equal(t, "Vega", res.Object.Name)
	assert.Equal(t, "Rome, Italy", res.Location.Name)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, "2026-10-17", f.selector.gotDate)
	assert.Equal(t, [2]float64{41.9, 12.5}, f.selector.gotCoord)

	assert.Equal(t, "Distance: 25.04 light-years", f.writer.req.Facts)
	assert.Equal(t, "Rome, Italy", f.writer.req.Location)
	assert.Equal(t, "star", f.writer.req.ObjectType)
	require.NotNil(t, f.images.target.RA)
	assert.InDelta(t, 279.23, *f.images.target.RA, 1e-9)

	assert.Contains(t, res.StoryHTML, "Tonight&#39;s sky from")
	assert.Contains(t, res.StoryHTML, `<h1 class="story-title">The Star Who Sang</h1>`)
	assert.Contains(t, res.StoryHTML, "Vega was the pole star long ago.")
	assert.Contains(t, res.StoryHTML, "10/17/2026, 08:30:00 PM")
	assert.Contains(t, res.ShareText, "🌌 The Star Who Sang")
	assert.Equal(t, []string{"Vega was the pole star long ago."}, res.FunFacts)

	assert.Equal(t, res.Log, streamed)
	log := FormatLog(res.Log)
	assert.Contains(t, log, "20:30:00 🔍 Parsing location input: 'Rome'")
	assert.Contains(t, log, "🌍 Coordinates: 41.9°N, 12.5°E")
	assert.Contains(t, log, "⭐ Selected: Vega (star, magnitude 0.03)")
	assert.Contains(t, log, "✅ Image fetched from curated")
	assert.True(t, strings.HasSuffix(log, "✅ Story generation complete!"))
	assert.NotContains(t, log, "auto-geolocation")

	require.Len(t, f.observer.events, 1)
	ev := f.observer.events[0]
	assert.Equal(t, "tonight", ev.Name)
	assert.True(t, ev.Success)
	assert.Equal(t, "Vega", ev.Fields["object"])
}

func TestTonight_LogsNearbyCityForCoordinates(t *testing.T) {
	f := newTonightFixture(t)
	f.deps.Parser = fakeParser{loc: &geo.Location{
		Name: "Location (41.95, 12.45)", Lat: 41.95, Lon: 12.45, Source: geo.SourceCoordinates, Nearby: "Roma, Italia",
	}}

	res, err := f.service().Generate(context.Background(), TonightRequest{Location: "41.95, 12.45"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Roma, Italia", res.Location.Nearby)
	assert.Contains(t, FormatLog(res.Log), "📍 Coordinates are near Roma, Italia")
}

func TestTonight_FallsBackToIPLocation(t *testing.T) {
	f := newTonightFixture(t)
	f.deps.Parser = fakeParser{}
	f.deps.Locator = fakeLocator{loc: geo.Location{Name: "Sydney, Australia", Lat: -33.9, Lon: 151.2, Source: geo.SourceIP}}

	res, err := f.service().Generate(context.Background(), TonightRequest{Location: "", Language: "it"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Sydney, Australia", res.Location.Name)
	log := FormatLog(res.Log)
	assert.Contains(t, log, "⚠️ Location parsing failed, trying auto-geolocation...")
	assert.Contains(t, log, "✅ Auto-located: Sydney, Australia")
	assert.Contains(t, log, "33.9°S, 151.2°E")
	assert.Contains(t, res.StoryHTML, "Il cielo di stasera da")
}

func TestTonight_LocationUnresolved(t *testing.T) {
	f := newTonightFixture(t)
	f.deps.Parser = fakeParser{}

	var lines []string
	_, err := f.service().Generate(context.Background(), TonightRequest{Location: "Atlantis"},
		func(e ProgressEvent) { lines = append(lines, e.Line()) })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocationUnresolved)
	assert.Equal(t, "location_error", ErrorKey(err))

	require.NotEmpty(t, lines)
	assert.Contains(t, lines[len(lines)-1], "❌ Geolocation failed: offline")

	require.Len(t, f.observer.events, 1)
	assert.False(t, f.observer.events[0].Success)
}

func TestTonight_ReportsFallbacks(t *testing.T) {
	f := newTonightFixture(t)
	f.writer.story.Source = story.SourceFallback
	f.images.img = imagery.Image{URL: "https://example.org/stars.jpg", Source: imagery.SourceFallback}
	f.deps.Facts = fakeFacts{}

	res, err := f.service().Generate(context.Background(), TonightRequest{Location: "Rome", Date: "2026-12-24"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "2026-12-24", f.selector.gotDate)
	assert.Equal(t, "Vega in Lyra", f.writer.req.Facts)
	log := FormatLog(res.Log)
	assert.Contains(t, log, "⚠️ Using the bedtime fallback story")
	assert.Contains(t, log, "⚠️ Using fallback image (APIs unavailable)")
}

func TestTonight_PlanetWithoutCoordinates(t *testing.T) {
	f := newTonightFixture(t)
	f.selector.obj = astro.CelestialObject{Name: "Jupiter", Type: astro.TypePlanet, Magnitude: -2.5}

	_, err := f.service().Generate(context.Background(), TonightRequest{Location: "Rome"}, nil)
	require.NoError(t, err)
	assert.Nil(t, f.images.target.RA)
	assert.Equal(t, "planet", f.images.target.Type)
}

func TestTonight_SelectorError(t *testing.T) {
	f := newTonightFixture(t)
	f.selector.err = astro.ErrInvalidDate

	_, err := f.service().Generate(context.Background(), TonightRequest{Location: "Rome", Date: "tomorrow"}, nil)
	assert.ErrorIs(t, err, astro.ErrInvalidDate)
}
