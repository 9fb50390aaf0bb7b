package astro

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/zenstory/internal/catalog"
)

type stubPlanets struct {
	planets []Planet
	err     error
	calls   int
}

func (s *stubPlanets) Visible(context.Context, float64, float64, string) ([]Planet, error) {
	s.calls++
	return s.planets, s.err
}

var fixedNow = time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC)

func newTestSelector(planets PlanetSource, novelty NoveltyStore, opts ...SelectorOption) *Selector {
	opts = append([]SelectorOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewSelector(catalog.Default(), planets, novelty, DefaultWeights(), opts...)
}

func TestSelect_ValidatesInput(t *testing.T) {
	s := newTestSelector(nil, nil)

	_, err := s.Select(context.Background(), 91, 0, "")
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	_, err = s.Select(context.Background(), 0, -180.5, "")
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	_, err = s.Select(context.Background(), 0, 0, "17/10/2026")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestSelect_BrightestComputedStarWins(t *testing.T) {
	s := newTestSelector(&stubPlanets{}, nil)

	obj, err := s.Select(context.Background(), 41.9028, 12.4964, "2026-10-17")
	require.NoError(t, err)

	assert.Equal(t, "Vega", obj.Name)
	assert.Equal(t, TypeStar, obj.Type)
	assert.Equal(t, 100, obj.Score) // ephemeris star + novelty
	assert.Equal(t, "Lyra", obj.Constellation)
	assert.Equal(t, "Vega is a bright star visible in tonight's sky", obj.Description)
}

func TestSelect_NoveltyRotatesObjects(t *testing.T) {
	novelty := NewMemoryNovelty()
	s := newTestSelector(nil, novelty)

	first, err := s.Select(context.Background(), 41.9028, 12.4964, "2026-10-17")
	require.NoError(t, err)
	second, err := s.Select(context.Background(), 41.9028, 12.4964, "2026-10-17")
	require.NoError(t, err)

	assert.Equal(t, "Vega", first.Name)
	assert.Equal(t, "Altair", second.Name)

	last, ok, _ := novelty.LastShown(context.Background(), "Altair")
	require.True(t, ok)
	assert.Equal(t, fixedNow, last)
}

func TestSelect_NoveltyExpiresAfterWindow(t *testing.T) {
	novelty := NewMemoryNovelty()
	require.NoError(t, novelty.MarkShown(context.Background(), "Vega", fixedNow.Add(-8*24*time.Hour)))

	obj, err := newTestSelector(nil, novelty).Select(context.Background(), 41.9028, 12.4964, "2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, "Vega", obj.Name)
}

func TestSelect_SpecialEventPlanetBeatsStars(t *testing.T) {
	planets := &stubPlanets{planets: []Planet{
		{Name: "Saturn", RA: 350, Dec: -5, Magnitude: 0.6, Constellation: "Aquarius", Raw: `{"name":"saturn"}`},
		{Name: "Jupiter", RA: 110, Dec: 22, Magnitude: -2.3, Constellation: "Gemini", Raw: `{"name":"jupiter","event":"moon transit"}`},
	}}

	obj, err := newTestSelector(planets, nil).Select(context.Background(), 41.9028, 12.4964, "2026-10-17")
	require.NoError(t, err)

	assert.Equal(t, "Jupiter", obj.Name)
	assert.Equal(t, TypePlanet, obj.Type)
	assert.Equal(t, 120, obj.Score)
	assert.Equal(t, "Jupiter is visible tonight", obj.Description)
}

func TestSelect_PlanetWeightsApplyWhenConfigured(t *testing.T) {
	w := DefaultWeights()
	w.PlanetBonus = 50
	w.IconicBonus = 40
	planets := &stubPlanets{planets: []Planet{{Name: "Mars", Constellation: "Leo"}}}

	s := NewSelector(catalog.Default(), planets, nil, w, WithClock(func() time.Time { return fixedNow }))
	obj, err := s.Select(context.Background(), 41.9028, 12.4964, "2026-10-17")
	require.NoError(t, err)

	assert.Equal(t, "Mars", obj.Name)
	assert.Equal(t, 110, obj.Score)
}

func TestSelect_PlanetsFailureIsIgnored(t *testing.T) {
	planets := &stubPlanets{err: errors.New("dns failure")}

	obj, err := newTestSelector(planets, nil).Select(context.Background(), -33.8688, 151.2093, "2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, "Achernar", obj.Name)
	assert.Equal(t, 1, planets.calls)
}

func TestSelect_EmptyDateMeansToday(t *testing.T) {
	obj, err := newTestSelector(nil, nil).Select(context.Background(), 41.9028, 12.4964, "")
	require.NoError(t, err)
	assert.Equal(t, "Vega", obj.Name)
}

func TestSelect_FallbackStarWhenNoCandidates(t *testing.T) {
	base := catalog.Default()
	c := &catalog.Catalog{Sky: catalog.Sky{FallbackStars: base.Sky.FallbackStars, Polaris: base.Sky.Polaris}}

	s := NewSelector(c, nil, nil, DefaultWeights(), WithPicker(func(n int) int { return n - 1 }))
	obj, err := s.Select(context.Background(), 10, 10, "2026-10-17")
	require.NoError(t, err)

	assert.Equal(t, "Arcturus", obj.Name)
	assert.Equal(t, 50, obj.Score)
	assert.Equal(t, 0.0, obj.Magnitude)
	assert.Equal(t, "Arcturus in Boötes is a bright star visible tonight", obj.Description)
}

func TestSelect_PolarisIsTheLastResort(t *testing.T) {
	c := &catalog.Catalog{Sky: catalog.Sky{Polaris: catalog.Default().Sky.Polaris}}

	obj, err := NewSelector(c, nil, nil, DefaultWeights()).Select(context.Background(), 10, 10, "")
	require.NoError(t, err)

	assert.Equal(t, "Polaris", obj.Name)
	assert.Equal(t, 20, obj.Score)
	assert.Equal(t, 2.0, obj.Magnitude)
	assert.Equal(t, "Ursa Minor", obj.Constellation)
}

func TestSelect_HemisphereDefaultsWhenNothingComputed(t *testing.T) {
	base := catalog.Default()
	c := &catalog.Catalog{Sky: catalog.Sky{HemisphereDefaults: base.Sky.HemisphereDefaults}}

	obj, err := NewSelector(c, nil, nil, DefaultWeights()).Select(context.Background(), 45, 0, "2026-10-17")
	require.NoError(t, err)

	assert.Equal(t, "Polaris", obj.Name)
	assert.Equal(t, 20, obj.Score) // not computed: novelty only
}
