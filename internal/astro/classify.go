package astro

import "github.com/alexanderramin/zenstory/internal/catalog"

// ObjectType is the coarse kind of a celestial object.
type ObjectType string

const (
	TypeStar          ObjectType = "star"
	TypePlanet        ObjectType = "planet"
	TypeConstellation ObjectType = "constellation"
	TypeNebula        ObjectType = "nebula"
	TypeGalaxy        ObjectType = "galaxy"
)

// Classify names the type of a known object; anything unrecognized is a star.
func Classify(c *catalog.Catalog, name string) ObjectType {
	switch {
	case c.IsPlanet(name):
		return TypePlanet
	case c.IsConstellation(name):
		return TypeConstellation
	}
	return TypeStar
}
