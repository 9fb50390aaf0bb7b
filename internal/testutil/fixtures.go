package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/zenstory/internal/domain"
)

// Story options
type StoryOption func(*domain.SavedStory)

func WithStoryCreatedAt(t time.Time) StoryOption {
	return func(s *domain.SavedStory) {
		s.CreatedAt = t
	}
}

func WithStoryLanguage(code string) StoryOption {
	return func(s *domain.SavedStory) {
		s.Language = code
	}
}

func WithStoryLocation(loc string) StoryOption {
	return func(s *domain.SavedStory) {
		s.Location = loc
	}
}

func WithObjectName(name string) StoryOption {
	return func(s *domain.SavedStory) {
		s.ObjectName = name
	}
}

func NewTestStory(title string, opts ...StoryOption) *domain.SavedStory {
	s := &domain.SavedStory{
		ID:         uuid.New().String(),
		Title:      title,
		Location:   "Rome, Italy",
		Language:   "en",
		ObjectName: "Vega",
		StoryHTML:  "<h1>" + title + "</h1><p>Once upon a time.</p>",
		ImageURL:   "https://example.org/vega.jpg",
		ShareText:  "🌌 " + title,
		CreatedAt:  time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Canvas options
type CanvasOption func(*domain.DreamCanvas)

func WithCanvasCreatedAt(t time.Time) CanvasOption {
	return func(c *domain.DreamCanvas) {
		c.CreatedAt = t
	}
}

func WithCanvasLanguage(code string) CanvasOption {
	return func(c *domain.DreamCanvas) {
		c.Language = code
	}
}

func NewTestCanvas(title string, opts ...CanvasOption) *domain.DreamCanvas {
	c := &domain.DreamCanvas{
		ID:        uuid.New().String(),
		Title:     title,
		Location:  "Rome, Italy",
		Language:  "en",
		StoryHTML: "<h1>" + title + "</h1><p>Draw the stars.</p>",
		ImageURL:  "https://example.org/sky.jpg",
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
