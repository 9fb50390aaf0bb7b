package astro

import (
	"strings"
	"time"
)

// Weights are the points awarded during selection.
type Weights struct {
	SpecialEvent   int
	EphemerisStar  int
	PlanetBonus    int
	IconicBonus    int
	Novelty        int
	NoveltyWindow  time.Duration
	MinAltitude    float64
	EphemerisLimit int
}

func DefaultWeights() Weights {
	return Weights{
		SpecialEvent:   100,
		EphemerisStar:  80,
		Novelty:        20,
		NoveltyWindow:  7 * 24 * time.Hour,
		MinAltitude:    30,
		EphemerisLimit: 10,
	}
}

type candidate struct {
	object   CelestialObject
	computed bool   // star placed by the altitude calculation
	iconic   bool   // iconic planet
	raw      string // lower-cased upstream payload
}

// score adds up every bonus that applies; novel reports whether the object
// has not been shown inside the novelty window.
func (w Weights) score(c candidate, novel bool) int {
	score := 0
	if strings.Contains(c.raw, "eclipse") || strings.Contains(c.raw, "transit") {
		score += w.SpecialEvent
	}
	switch c.object.Type {
	case TypeStar:
		if c.computed {
			score += w.EphemerisStar
		}
	case TypePlanet:
		score += w.PlanetBonus
		if c.iconic {
			score += w.IconicBonus
		}
	}
	if novel {
		score += w.Novelty
	}
	return score
}
