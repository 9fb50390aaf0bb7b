package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/alexanderramin/zenstory/internal/astro"
	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/geo"
	"github.com/alexanderramin/zenstory/internal/imagery"
	"github.com/alexanderramin/zenstory/internal/render"
	"github.com/alexanderramin/zenstory/internal/story"
)

// TonightDeps wires the pipeline stages.
type TonightDeps struct {
	Catalog  *catalog.Catalog
	Parser   LocationParser
	Locator  Locator
	Selector ObjectSelector
	Facts    FactSource
	Stories  StoryWriter
	Images   ImageSource
	Renderer *render.Renderer
	Log      *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type tonightService struct {
	deps     TonightDeps
	observer UseCaseObserver
}

func NewTonightService(deps TonightDeps, observers ...UseCaseObserver) TonightService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &tonightService{deps: deps, observer: useCaseObserverOrNoop(observers)}
}

// Generate runs the whole pipeline: resolve the location, pick tonight's
// object, write its story and fetch an image. Only an unresolvable location
// fails; every later stage has a fallback.
func (s *tonightService) Generate(ctx context.Context, req TonightRequest, progress ProgressFunc) (res *TonightResult, err error) {
	startedAt := s.deps.Now()
	lang := s.deps.Catalog.NormalizeLanguage(req.Language)
	fields := map[string]any{"location": req.Location, "language": lang}
	defer observe(ctx, s.observer, "tonight", startedAt, fields, &err)

	log := &progressLog{now: s.deps.Now, notify: progress}

	loc, err := s.resolveLocation(ctx, req.Location, log)
	if err != nil {
		return nil, err
	}
	log.add("🌍", "Coordinates: %s", formatCoordinates(loc.Lat, loc.Lon))
	log.add("📍", "Location: %s", loc.Name)

	date := req.Date
	if date == "" {
		date = s.deps.Now().Format(astro.DateLayout)
	}
	log.add("🔧", "Tool: select_celestial(lat=%.1f, lon=%.1f, date=%s)", loc.Lat, loc.Lon, date)
	obj, err := s.deps.Selector.Select(ctx, loc.Lat, loc.Lon, date)
	if err != nil {
		log.add("❌", "Selection failed: %v", err)
		return nil, fmt.Errorf("selecting celestial object: %w", err)
	}
	log.add("⭐", "Selected: %s (%s, magnitude %.2f)", obj.Name, obj.Type, obj.Magnitude)
	fields["object"] = obj.Name

	log.add("🔬", "Gathering facts about %s...", obj.Name)
	facts := s.deps.Facts.Facts(ctx, obj.Name)
	if facts == "" {
		facts = obj.Description
	}

	log.add("🤖", "Writing the story (language: %s)...", lang)
	st := s.deps.Stories.Generate(ctx, story.Request{
		Object:     obj.Name,
		ObjectType: string(obj.Type),
		Location:   loc.Name,
		Facts:      facts,
		Language:   lang,
	})
	if st.Source == story.SourceFallback {
		log.add("⚠️", "Using the bedtime fallback story")
	} else {
		log.add("📖", "Story generated successfully (%d characters)", len(st.Story))
	}
	fields["story_source"] = string(st.Source)

	log.add("🖼️", "Fetching image for %s...", obj.Name)
	target := imagery.Target{Name: obj.Name, Type: string(obj.Type)}
	if obj.RA != 0 || obj.Dec != 0 {
		ra, dec := obj.RA, obj.Dec
		target.RA, target.Dec = &ra, &dec
	}
	img := s.deps.Images.Fetch(ctx, target)
	if img.Source == imagery.SourceFallback {
		log.add("⚠️", "Using fallback image (APIs unavailable)")
	} else {
		log.add("✅", "Image fetched from %s", img.Source)
	}
	fields["image_source"] = img.Source

	funFacts := s.deps.Stories.FunFacts(ctx, obj.Name, string(obj.Type), lang)
	generatedAt := s.deps.Now()
	html, err := s.renderStory(lang, loc, st, funFacts, generatedAt)
	if err != nil {
		return nil, err
	}

	log.add("✅", "Story generation complete!")
	return &TonightResult{
		Location:    loc,
		Object:      obj,
		Story:       st,
		Image:       img,
		FunFacts:    funFacts,
		StoryHTML:   html,
		ShareText:   story.ShareText(st, obj.Name, loc.Name),
		Language:    lang,
		GeneratedAt: generatedAt,
		Log:         log.events,
	}, nil
}

func (s *tonightService) resolveLocation(ctx context.Context, input string, log *progressLog) (geo.Location, error) {
	log.add("🔍", "Parsing location input: '%s'", input)
	if loc, ok := s.deps.Parser.Parse(input); ok {
		if loc.Nearby != "" {
			log.add("📍", "Coordinates are near %s", loc.Nearby)
		}
		return loc, nil
	}

	log.add("⚠️", "Location parsing failed, trying auto-geolocation...")
	loc, err := s.deps.Locator.Locate(ctx)
	if err != nil {
		log.add("❌", "Geolocation failed: %v", err)
		s.deps.Log.Warn("location unresolved", zap.String("input", input), zap.Error(err))
		return geo.Location{}, fmt.Errorf("%w: %v", ErrLocationUnresolved, err)
	}
	log.add("✅", "Auto-located: %s", loc.Name)
	return loc, nil
}

func (s *tonightService) renderStory(lang string, loc geo.Location, st story.Story, facts []string, at time.Time) (string, error) {
	r := s.deps.Renderer
	banner, err := r.LocationBanner(lang, loc.Name, loc.Lat, loc.Lon)
	if err != nil {
		return "", err
	}
	factsHTML, err := r.FunFacts(lang, facts)
	if err != nil {
		return "", err
	}
	info, err := r.InfoBar(lang, loc.Name, at)
	if err != nil {
		return "", err
	}
	out, err := r.Compose(render.StoryParts{
		Banner:   banner,
		Story:    r.Sanitize(story.RenderHTML(st)),
		FunFacts: factsHTML,
		InfoBar:  info,
	})
	return string(out), err
}

func formatCoordinates(lat, lon float64) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns = "S"
	}
	if lon < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.1f°%s, %.1f°%s", math.Abs(lat), ns, math.Abs(lon), ew)
}
