package render

import (
	"fmt"
	"hash/fnv"
	"html/template"
	"strings"

	opensimplex "github.com/ojrac/opensimplex-go"
)

const (
	starGrid      = 14.0
	starThreshold = 0.62
	starBand      = 0.12 // fraction of each side covered by the border
)

// Starfield draws the decorative star border of a printable canvas as an
// SVG. The same seed always yields the same picture.
func Starfield(seed string, width, height float64) template.HTML {
	noise := opensimplex.NewNormalized(seedValue(seed))
	bandX, bandY := width*starBand, height*starBand

	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="starfield" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" preserveAspectRatio="none" aria-hidden="true">`, width, height)
	for y := starGrid / 2; y < height; y += starGrid {
		for x := starGrid / 2; x < width; x += starGrid {
			if x > bandX && x < width-bandX && y > bandY && y < height-bandY {
				continue
			}
			v := octaveNoise(noise, x, y, 3, 0.04, 0.5)
			if v < starThreshold {
				continue
			}
			r := 0.8 + (v-starThreshold)*9
			opacity := 0.45 + (v-starThreshold)*1.4
			if opacity > 1 {
				opacity = 1
			}
			fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.2f" fill="#fbbf24" opacity="%.2f"/>`, x, y, r, opacity)
		}
	}
	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total, amplitude, maxVal := 0.0, 1.0, 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

func seedValue(seed string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return int64(h.Sum64())
}
