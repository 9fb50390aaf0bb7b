package domain

import "time"

const (
	// MaxSavedStories is how many saved stories are kept; older ones are
	// dropped when a new one is saved.
	MaxSavedStories = 50
	// MaxDreamCanvases caps the printable postcards the same way.
	MaxDreamCanvases = 20
)

// SavedStory is a generated story the user chose to keep.
type SavedStory struct {
	ID         string
	Title      string
	Location   string
	Language   string
	ObjectName string
	StoryHTML  string
	ImageURL   string
	ShareText  string
	CreatedAt  time.Time
}

// DreamCanvas is a printable postcard with space for the child to draw.
type DreamCanvas struct {
	ID        string
	Title     string
	Location  string
	Language  string
	StoryHTML string
	ImageURL  string
	CreatedAt time.Time
}

// ShownObject records when a celestial object was last chosen.
type ShownObject struct {
	Name        string
	LastShownAt time.Time
	TimesShown  int
}
