// Package astro picks the celestial object a child can look for tonight and
// gathers facts about it.
package astro

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/zenstory/internal/catalog"
)

// DateLayout is the accepted date format.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidCoordinates is returned when latitude or longitude is out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrInvalidDate is returned when the date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
)

// CelestialObject is the selection result.
type CelestialObject struct {
	Name          string     `json:"object_name"`
	Type          ObjectType `json:"type"`
	RA            float64    `json:"ra"`
	Dec           float64    `json:"dec"`
	Magnitude     float64    `json:"magnitude"`
	Constellation string     `json:"constellation"`
	Description   string     `json:"description"`
	Score         int        `json:"score"`
	Altitude      float64    `json:"altitude,omitempty"`
}

// PlanetSource lists planets visible from a location on a date.
type PlanetSource interface {
	Visible(ctx context.Context, lat, lon float64, date string) ([]Planet, error)
}

type Selector struct {
	catalog *catalog.Catalog
	planets PlanetSource
	novelty NoveltyStore
	weights Weights
	log     *zap.Logger
	now     func() time.Time
	pick    func(n int) int
}

type SelectorOption func(*Selector)

// WithClock overrides the time source used for "today" and novelty.
func WithClock(now func() time.Time) SelectorOption {
	return func(s *Selector) { s.now = now }
}

// WithPicker overrides the random choice among fallback stars.
func WithPicker(pick func(n int) int) SelectorOption {
	return func(s *Selector) { s.pick = pick }
}

func WithLogger(log *zap.Logger) SelectorOption {
	return func(s *Selector) { s.log = log }
}

// NewSelector wires a selector. planets may be nil to skip the planets API;
// novelty may be nil to keep history in memory only.
func NewSelector(c *catalog.Catalog, planets PlanetSource, novelty NoveltyStore, weights Weights, opts ...SelectorOption) *Selector {
	if novelty == nil {
		novelty = NewMemoryNovelty()
	}
	s := &Selector{
		catalog: c,
		planets: planets,
		novelty: novelty,
		weights: weights,
		log:     zap.NewNop(),
		now:     time.Now,
		pick:    rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the best object to tell a story about tonight. date is
// YYYY-MM-DD; empty means today. External failures never surface: the
// result degrades to the hemisphere defaults, a fallback bright star and
// finally Polaris.
func (s *Selector) Select(ctx context.Context, lat, lon float64, date string) (CelestialObject, error) {
	if lat < -90 || lat > 90 {
		return CelestialObject{}, fmt.Errorf("%w: latitude must be between -90 and 90, got %g", ErrInvalidCoordinates, lat)
	}
	if lon < -180 || lon > 180 {
		return CelestialObject{}, fmt.Errorf("%w: longitude must be between -180 and 180, got %g", ErrInvalidCoordinates, lon)
	}
	now := s.now()
	day := now
	if date == "" {
		date = now.Format(DateLayout)
	} else {
		parsed, err := time.Parse(DateLayout, date)
		if err != nil {
			return CelestialObject{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
		day = parsed
	}

	var stars []candidate
	var planets []candidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stars = s.starCandidates(lat, lon, day)
		return nil
	})
	g.Go(func() error {
		planets = s.planetCandidates(gctx, lat, lon, date)
		return nil
	})
	_ = g.Wait()

	all := append(stars, planets...)
	if len(all) == 0 {
		best := s.fallback()
		s.markShown(ctx, best.Name, now)
		return best, nil
	}

	bestIdx := -1
	for i := range all {
		all[i].object.Score = s.weights.score(all[i], s.isNovel(ctx, all[i].object.Name, now))
		if bestIdx == -1 || all[i].object.Score > all[bestIdx].object.Score {
			bestIdx = i
		}
	}
	best := all[bestIdx].object
	s.log.Info("celestial object selected",
		zap.String("object", best.Name),
		zap.Int("score", best.Score),
		zap.Int("candidates", len(all)))
	s.markShown(ctx, best.Name, now)
	return best, nil
}

func (s *Selector) starCandidates(lat, lon float64, day time.Time) []candidate {
	visible := VisibleStars(s.catalog.Sky.BrightStars, lat, lon, day, s.weights.MinAltitude, s.weights.EphemerisLimit)
	if len(visible) == 0 {
		s.log.Info("no computed stars above horizon, using hemisphere defaults", zap.Float64("lat", lat))
		visible = HemisphereStars(s.catalog.Sky, lat)
	}
	out := make([]candidate, 0, len(visible))
	for _, v := range visible {
		out = append(out, candidate{
			object: CelestialObject{
				Name:          v.Name,
				Type:          TypeStar,
				RA:            v.RA,
				Dec:           v.Dec,
				Magnitude:     v.Magnitude,
				Constellation: v.Constellation,
				Description:   v.Name + " is a bright star visible in tonight's sky",
				Altitude:      v.Altitude,
			},
			computed: v.Computed,
		})
	}
	return out
}

func (s *Selector) planetCandidates(ctx context.Context, lat, lon float64, date string) []candidate {
	if s.planets == nil {
		return nil
	}
	found, err := s.planets.Visible(ctx, lat, lon, date)
	if err != nil {
		s.log.Warn("visible planets lookup failed", zap.Error(err))
		return nil
	}
	out := make([]candidate, 0, len(found))
	for _, p := range found {
		out = append(out, candidate{
			object: CelestialObject{
				Name:          p.Name,
				Type:          TypePlanet,
				RA:            p.RA,
				Dec:           p.Dec,
				Magnitude:     p.Magnitude,
				Constellation: p.Constellation,
				Description:   p.Name + " is visible tonight",
			},
			iconic: s.catalog.IsIconicPlanet(p.Name),
			raw:    p.Raw,
		})
	}
	return out
}

func (s *Selector) fallback() CelestialObject {
	if stars := s.catalog.Sky.FallbackStars; len(stars) > 0 {
		star := stars[s.pick(len(stars))]
		return CelestialObject{
			Name:          star.Name,
			Type:          TypeStar,
			RA:            star.RA,
			Dec:           star.Dec,
			Magnitude:     0,
			Constellation: star.Constellation,
			Description:   fmt.Sprintf("%s in %s is a bright star visible tonight", star.Name, star.Constellation),
			Score:         50,
		}
	}
	p := s.catalog.Sky.Polaris
	return CelestialObject{
		Name:          p.Name,
		Type:          TypeStar,
		RA:            p.RA,
		Dec:           p.Dec,
		Magnitude:     p.Magnitude,
		Constellation: p.Constellation,
		Description:   "Polaris, the North Star, is always visible in the northern sky",
		Score:         20,
	}
}

func (s *Selector) isNovel(ctx context.Context, name string, now time.Time) bool {
	last, ok, err := s.novelty.LastShown(ctx, name)
	if err != nil {
		s.log.Warn("novelty lookup failed", zap.String("object", name), zap.Error(err))
		return true
	}
	return !ok || now.Sub(last) >= s.weights.NoveltyWindow
}

func (s *Selector) markShown(ctx context.Context, name string, at time.Time) {
	if err := s.novelty.MarkShown(ctx, name, at); err != nil {
		s.log.Warn("recording shown object failed", zap.String("object", name), zap.Error(err))
	}
}
