package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/zenstory/internal/domain"
)

// StoryRepo stores saved stories. List returns newest first.
type StoryRepo interface {
	Create(ctx context.Context, s *domain.SavedStory) error
	GetByID(ctx context.Context, id string) (*domain.SavedStory, error)
	List(ctx context.Context) ([]*domain.SavedStory, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int, error)
	// TrimTo deletes all but the newest keep rows and reports how many went.
	TrimTo(ctx context.Context, keep int) (int, error)
}

// CanvasRepo stores dream canvases. List returns newest first.
type CanvasRepo interface {
	Create(ctx context.Context, c *domain.DreamCanvas) error
	GetByID(ctx context.Context, id string) (*domain.DreamCanvas, error)
	List(ctx context.Context) ([]*domain.DreamCanvas, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int, error)
	TrimTo(ctx context.Context, keep int) (int, error)
}

// ShownObjectRepo remembers which celestial objects were recently chosen.
type ShownObjectRepo interface {
	LastShown(ctx context.Context, name string) (time.Time, bool, error)
	MarkShown(ctx context.Context, name string, at time.Time) error
	Get(ctx context.Context, name string) (*domain.ShownObject, error)
	List(ctx context.Context) ([]*domain.ShownObject, error)
}
