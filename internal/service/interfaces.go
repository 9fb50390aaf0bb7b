package service

import (
	"context"
	"time"

	"github.com/alexanderramin/zenstory/internal/astro"
	"github.com/alexanderramin/zenstory/internal/domain"
	"github.com/alexanderramin/zenstory/internal/geo"
	"github.com/alexanderramin/zenstory/internal/imagery"
	"github.com/alexanderramin/zenstory/internal/story"
)

type TonightService interface {
	Generate(ctx context.Context, req TonightRequest, progress ProgressFunc) (*TonightResult, error)
}

// SaveInput is the story currently on screen, as the user chose to keep it.
type SaveInput struct {
	StoryHTML  string `json:"story_html"`
	ImageURL   string `json:"image_url"`
	ShareText  string `json:"share_text"`
	Location   string `json:"location"`
	Language   string `json:"language"`
	ObjectName string `json:"object_name"`
}

// LibraryService manages saved stories. Indexes are 1-based positions in
// the newest-first list.
type LibraryService interface {
	Save(ctx context.Context, in SaveInput) (saved *domain.SavedStory, total int, err error)
	List(ctx context.Context) ([]*domain.SavedStory, error)
	Get(ctx context.Context, index int) (*domain.SavedStory, error)
	Delete(ctx context.Context, index int) (*domain.SavedStory, error)
	DeleteAll(ctx context.Context) (int, error)
	ExportHTML(ctx context.Context, index int) (string, error)
}

// CanvasService manages dream canvases, indexed like LibraryService.
type CanvasService interface {
	Create(ctx context.Context, in SaveInput) (created *domain.DreamCanvas, total int, err error)
	List(ctx context.Context) ([]*domain.DreamCanvas, error)
	Get(ctx context.Context, index int) (*domain.DreamCanvas, error)
	Delete(ctx context.Context, index int) (*domain.DreamCanvas, error)
	DeleteAll(ctx context.Context) (int, error)
	ExportHTML(ctx context.Context, index int) (string, error)
}

// Collaborators of the tonight pipeline, satisfied by the geo, astro,
// story and imagery packages.
type (
	LocationParser interface {
		Parse(input string) (geo.Location, bool)
	}
	Locator interface {
		Locate(ctx context.Context) (geo.Location, error)
	}
	ObjectSelector interface {
		Select(ctx context.Context, lat, lon float64, date string) (astro.CelestialObject, error)
	}
	FactSource interface {
		Facts(ctx context.Context, name string) string
	}
	StoryWriter interface {
		Generate(ctx context.Context, req story.Request) story.Story
		FunFacts(ctx context.Context, object, objectType, lang string) []string
	}
	ImageSource interface {
		Fetch(ctx context.Context, t imagery.Target) imagery.Image
	}
)

type TonightRequest struct {
	Location string `json:"location"`
	Language string `json:"language"`
	// Date is YYYY-MM-DD; empty means today.
	Date string `json:"date,omitempty"`
}

type TonightResult struct {
	Location    geo.Location          `json:"location"`
	Object      astro.CelestialObject `json:"object"`
	Story       story.Story           `json:"story"`
	Image       imagery.Image         `json:"image"`
	FunFacts    []string              `json:"fun_facts"`
	StoryHTML   string                `json:"story_html"`
	ShareText   string                `json:"share_text"`
	Language    string                `json:"language"`
	GeneratedAt time.Time             `json:"generated_at"`
	Log         []ProgressEvent       `json:"log"`
}
