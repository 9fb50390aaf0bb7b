package astro

import (
	"math"
	"sort"
	"time"

	"github.com/alexanderramin/zenstory/internal/catalog"
)

// ObservationHour is the local mean time at which "tonight" is evaluated.
const ObservationHour = 21

const (
	unixEpochJD = 2440587.5
	j2000JD     = 2451545.0
	deg         = math.Pi / 180
)

// VisibleStar is a catalog star together with its altitude at observation time.
type VisibleStar struct {
	catalog.Star
	Altitude float64
	// Computed is false when the star comes from the hemisphere defaults
	// rather than an altitude calculation.
	Computed bool
}

// ObservationTime returns 21:00 local mean time on date at longitude lon,
// expressed in UTC. Only the calendar day of date is used.
func ObservationTime(date time.Time, lon float64) time.Time {
	y, m, d := date.Date()
	evening := time.Date(y, m, d, ObservationHour, 0, 0, 0, time.UTC)
	return evening.Add(-time.Duration(lon / 15 * float64(time.Hour)))
}

// JulianDate converts t to a Julian date.
func JulianDate(t time.Time) float64 {
	return float64(t.UnixNano())/float64(24*time.Hour) + unixEpochJD
}

// GMST returns Greenwich mean sidereal time in degrees [0, 360).
func GMST(t time.Time) float64 {
	return normalizeDegrees(280.46061837 + 360.98564736629*(JulianDate(t)-j2000JD))
}

// Altitude returns the altitude in degrees of a J2000 position seen from
// (lat, lon) at time t. Precession and refraction are ignored.
func Altitude(ra, dec, lat, lon float64, t time.Time) float64 {
	ha := normalizeDegrees(GMST(t)+lon-ra) * deg
	sinAlt := math.Sin(lat*deg)*math.Sin(dec*deg) + math.Cos(lat*deg)*math.Cos(dec*deg)*math.Cos(ha)
	return math.Asin(clamp(sinAlt, -1, 1)) / deg
}

// VisibleStars returns up to limit catalog stars above minAlt degrees at
// 21:00 local mean time on date, brightest first.
func VisibleStars(stars []catalog.Star, lat, lon float64, date time.Time, minAlt float64, limit int) []VisibleStar {
	at := ObservationTime(date, lon)

	var visible []VisibleStar
	for _, s := range stars {
		alt := Altitude(s.RA, s.Dec, lat, lon, at)
		if alt > minAlt {
			visible = append(visible, VisibleStar{Star: s, Altitude: alt, Computed: true})
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Magnitude < visible[j].Magnitude
	})
	if limit > 0 && len(visible) > limit {
		visible = visible[:limit]
	}
	return visible
}

// HemisphereStars returns the default list for the observer's hemisphere.
// The equator counts as north.
func HemisphereStars(sky catalog.Sky, lat float64) []VisibleStar {
	key := "north"
	if lat < 0 {
		key = "south"
	}
	defaults := sky.HemisphereDefaults[key]
	out := make([]VisibleStar, len(defaults))
	for i, s := range defaults {
		out[i] = VisibleStar{Star: s}
	}
	return out
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
