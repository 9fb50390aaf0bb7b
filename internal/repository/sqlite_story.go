package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/zenstory/internal/db"
	"github.com/alexanderramin/zenstory/internal/domain"
)

type SQLiteStoryRepo struct {
	db db.DBTX
}

func NewSQLiteStoryRepo(conn db.DBTX) *SQLiteStoryRepo {
	return &SQLiteStoryRepo{db: conn}
}

const storyColumns = `id, title, location, language, object_name, story_html, image_url, share_text, created_at`

func (r *SQLiteStoryRepo) Create(ctx context.Context, s *domain.SavedStory) error {
	query := `INSERT INTO saved_stories (` + storyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Title, s.Location, s.Language, s.ObjectName,
		s.StoryHTML, s.ImageURL, s.ShareText, formatTime(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting saved story: %w", err)
	}
	return nil
}

func (r *SQLiteStoryRepo) GetByID(ctx context.Context, id string) (*domain.SavedStory, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM saved_stories WHERE id = ?`, id)
	s, err := scanStory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("saved story %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return s, nil
}

func (r *SQLiteStoryRepo) List(ctx context.Context) ([]*domain.SavedStory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+storyColumns+` FROM saved_stories ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing saved stories: %w", err)
	}
	defer rows.Close()

	var out []*domain.SavedStory
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteStoryRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_stories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting saved stories: %w", err)
	}
	return n, nil
}

func (r *SQLiteStoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_stories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting saved story: %w", err)
	}
	return requireAffected(res, "saved story", id)
}

func (r *SQLiteStoryRepo) DeleteAll(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_stories`)
	if err != nil {
		return 0, fmt.Errorf("deleting saved stories: %w", err)
	}
	return affected(res)
}

func (r *SQLiteStoryRepo) TrimTo(ctx context.Context, keep int) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_stories WHERE id NOT IN (
		SELECT id FROM saved_stories ORDER BY created_at DESC, rowid DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("trimming saved stories: %w", err)
	}
	return affected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStory(row scanner) (*domain.SavedStory, error) {
	var s domain.SavedStory
	var created string
	err := row.Scan(&s.ID, &s.Title, &s.Location, &s.Language, &s.ObjectName,
		&s.StoryHTML, &s.ImageURL, &s.ShareText, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning saved story: %w", err)
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parsing created_at of story %s: %w", s.ID, err)
	}
	return &s, nil
}

func affected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return int(n), nil
}

func requireAffected(res sql.Result, what, id string) error {
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}
