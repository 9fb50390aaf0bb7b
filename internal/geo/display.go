package geo

import (
	"fmt"
	"math"

	"github.com/alexanderramin/zenstory/internal/catalog"
)

// FormatDisplay renders the location banner in markdown, with compass
// letters from the given language.
func FormatDisplay(city string, lat, lon float64, lang *catalog.Language) string {
	d := lang.Directions
	ns := d.North
	if lat < 0 {
		ns = d.South
	}
	ew := d.East
	if lon < 0 {
		ew = d.West
	}
	return fmt.Sprintf("📍 **%s %s**\n*(%.1f %s, %.1f %s)*", d.From, city, math.Abs(lat), ns, math.Abs(lon), ew)
}
