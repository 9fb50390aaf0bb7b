package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/db"
	"github.com/alexanderramin/zenstory/internal/domain"
	"github.com/alexanderramin/zenstory/internal/render"
	"github.com/alexanderramin/zenstory/internal/repository"
)

type libraryService struct {
	stories  repository.StoryRepo
	uow      db.UnitOfWork
	renderer *render.Renderer
	catalog  *catalog.Catalog
	now      func() time.Time
	observer UseCaseObserver
}

func NewLibraryService(
	stories repository.StoryRepo,
	uow db.UnitOfWork,
	renderer *render.Renderer,
	c *catalog.Catalog,
	observers ...UseCaseObserver,
) LibraryService {
	return &libraryService{
		stories:  stories,
		uow:      uow,
		renderer: renderer,
		catalog:  c,
		now:      time.Now,
		observer: useCaseObserverOrNoop(observers),
	}
}

// Save stores the story as the newest entry and drops the oldest beyond
// domain.MaxSavedStories, in one transaction.
func (s *libraryService) Save(ctx context.Context, in SaveInput) (saved *domain.SavedStory, total int, err error) {
	startedAt := s.now()
	fields := map[string]any{"location": in.Location}
	defer observe(ctx, s.observer, "save-story", startedAt, fields, &err)

	if nothingToSave(s.catalog, in.StoryHTML) {
		return nil, 0, ErrNothingToSave
	}

	title := render.ExtractTitle(in.StoryHTML)
	if title == "" {
		title = "Story from " + in.Location
	}
	saved = &domain.SavedStory{
		ID:         uuid.New().String(),
		Title:      title,
		Location:   in.Location,
		Language:   s.catalog.NormalizeLanguage(in.Language),
		ObjectName: in.ObjectName,
		StoryHTML:  in.StoryHTML,
		ImageURL:   in.ImageURL,
		ShareText:  in.ShareText,
		CreatedAt:  startedAt.UTC(),
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txStories := repository.NewSQLiteStoryRepo(tx)
		if err := txStories.Create(ctx, saved); err != nil {
			return err
		}
		trimmed, err := txStories.TrimTo(ctx, domain.MaxSavedStories)
		if err != nil {
			return err
		}
		fields["trimmed"] = trimmed
		total, err = txStories.Count(ctx)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return saved, total, nil
}

func (s *libraryService) List(ctx context.Context) ([]*domain.SavedStory, error) {
	return s.stories.List(ctx)
}

func (s *libraryService) Get(ctx context.Context, index int) (*domain.SavedStory, error) {
	list, err := s.stories.List(ctx)
	if err != nil {
		return nil, err
	}
	return at(list, index, "story")
}

func (s *libraryService) Delete(ctx context.Context, index int) (deleted *domain.SavedStory, err error) {
	startedAt := s.now()
	fields := map[string]any{"index": index}
	defer observe(ctx, s.observer, "delete-story", startedAt, fields, &err)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txStories := repository.NewSQLiteStoryRepo(tx)
		list, err := txStories.List(ctx)
		if err != nil {
			return err
		}
		if deleted, err = at(list, index, "story"); err != nil {
			return err
		}
		return txStories.Delete(ctx, deleted.ID)
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *libraryService) DeleteAll(ctx context.Context) (n int, err error) {
	startedAt := s.now()
	fields := map[string]any{}
	defer observe(ctx, s.observer, "delete-all-stories", startedAt, fields, &err)

	n, err = s.stories.DeleteAll(ctx)
	fields["deleted"] = n
	return n, err
}

func (s *libraryService) ExportHTML(ctx context.Context, index int) (string, error) {
	saved, err := s.Get(ctx, index)
	if err != nil {
		return "", err
	}
	return s.renderer.StoryPage(saved)
}

// nothingToSave reports blank output or the result panel's waiting prompt,
// in any bundled language, shown before a story was generated.
func nothingToSave(c *catalog.Catalog, html string) bool {
	if strings.TrimSpace(html) == "" {
		return true
	}
	text := strings.Join(render.PlainText(html), " ")
	for i := range c.Languages {
		prompt := strings.TrimSpace(strings.TrimPrefix(c.Languages[i].T("waiting_title"), "🌙"))
		if prompt != "" && strings.Contains(text, prompt) {
			return true
		}
	}
	return false
}

// at returns list[index-1] or an IndexError.
func at[T any](list []*T, index int, noun string) (*T, error) {
	if index < 1 || index > len(list) {
		return nil, &IndexError{Noun: noun, Index: index, Count: len(list)}
	}
	return list[index-1], nil
}
