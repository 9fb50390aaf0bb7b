package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/db"
	"github.com/alexanderramin/zenstory/internal/domain"
	"github.com/alexanderramin/zenstory/internal/render"
	"github.com/alexanderramin/zenstory/internal/repository"
)

const canvasNoun = "postcard"

type canvasService struct {
	canvases repository.CanvasRepo
	uow      db.UnitOfWork
	renderer *render.Renderer
	catalog  *catalog.Catalog
	now      func() time.Time
	observer UseCaseObserver
}

func NewCanvasService(
	canvases repository.CanvasRepo,
	uow db.UnitOfWork,
	renderer *render.Renderer,
	c *catalog.Catalog,
	observers ...UseCaseObserver,
) CanvasService {
	return &canvasService{
		canvases: canvases,
		uow:      uow,
		renderer: renderer,
		catalog:  c,
		now:      time.Now,
		observer: useCaseObserverOrNoop(observers),
	}
}

// Create stores a dream canvas for the story on screen, keeping at most
// domain.MaxDreamCanvases.
func (s *canvasService) Create(ctx context.Context, in SaveInput) (created *domain.DreamCanvas, total int, err error) {
	startedAt := s.now()
	fields := map[string]any{"location": in.Location}
	defer observe(ctx, s.observer, "create-canvas", startedAt, fields, &err)

	if nothingToSave(s.catalog, in.StoryHTML) {
		return nil, 0, ErrNothingToSave
	}

	title := render.ExtractTitle(in.StoryHTML)
	if title == "" {
		title = "Zen-IT Story"
	}
	created = &domain.DreamCanvas{
		ID:        uuid.New().String(),
		Title:     title,
		Location:  in.Location,
		Language:  s.catalog.NormalizeLanguage(in.Language),
		StoryHTML: in.StoryHTML,
		ImageURL:  in.ImageURL,
		CreatedAt: startedAt.UTC(),
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txCanvases := repository.NewSQLiteCanvasRepo(tx)
		if err := txCanvases.Create(ctx, created); err != nil {
			return err
		}
		if _, err := txCanvases.TrimTo(ctx, domain.MaxDreamCanvases); err != nil {
			return err
		}
		total, err = txCanvases.Count(ctx)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return created, total, nil
}

func (s *canvasService) List(ctx context.Context) ([]*domain.DreamCanvas, error) {
	return s.canvases.List(ctx)
}

func (s *canvasService) Get(ctx context.Context, index int) (*domain.DreamCanvas, error) {
	list, err := s.canvases.List(ctx)
	if err != nil {
		return nil, err
	}
	return at(list, index, canvasNoun)
}

func (s *canvasService) Delete(ctx context.Context, index int) (deleted *domain.DreamCanvas, err error) {
	startedAt := s.now()
	defer observe(ctx, s.observer, "delete-canvas", startedAt, map[string]any{"index": index}, &err)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txCanvases := repository.NewSQLiteCanvasRepo(tx)
		list, err := txCanvases.List(ctx)
		if err != nil {
			return err
		}
		if deleted, err = at(list, index, canvasNoun); err != nil {
			return err
		}
		return txCanvases.Delete(ctx, deleted.ID)
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *canvasService) DeleteAll(ctx context.Context) (int, error) {
	return s.canvases.DeleteAll(ctx)
}

func (s *canvasService) ExportHTML(ctx context.Context, index int) (string, error) {
	c, err := s.Get(ctx, index)
	if err != nil {
		return "", err
	}
	return s.renderer.CanvasPage(c)
}
