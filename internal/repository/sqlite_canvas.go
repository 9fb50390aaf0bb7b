package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/zenstory/internal/db"
	"github.com/alexanderramin/zenstory/internal/domain"
)

type SQLiteCanvasRepo struct {
	db db.DBTX
}

func NewSQLiteCanvasRepo(conn db.DBTX) *SQLiteCanvasRepo {
	return &SQLiteCanvasRepo{db: conn}
}

const canvasColumns = `id, title, location, language, story_html, image_url, created_at`

func (r *SQLiteCanvasRepo) Create(ctx context.Context, c *domain.DreamCanvas) error {
	query := `INSERT INTO dream_canvases (` + canvasColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Title, c.Location, c.Language, c.StoryHTML, c.ImageURL, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting dream canvas: %w", err)
	}
	return nil
}

func (r *SQLiteCanvasRepo) GetByID(ctx context.Context, id string) (*domain.DreamCanvas, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+canvasColumns+` FROM dream_canvases WHERE id = ?`, id)
	c, err := scanCanvas(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("dream canvas %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func (r *SQLiteCanvasRepo) List(ctx context.Context) ([]*domain.DreamCanvas, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+canvasColumns+` FROM dream_canvases ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing dream canvases: %w", err)
	}
	defer rows.Close()

	var out []*domain.DreamCanvas
	for rows.Next() {
		c, err := scanCanvas(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteCanvasRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dream_canvases`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting dream canvases: %w", err)
	}
	return n, nil
}

func (r *SQLiteCanvasRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dream_canvases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting dream canvas: %w", err)
	}
	return requireAffected(res, "dream canvas", id)
}

func (r *SQLiteCanvasRepo) DeleteAll(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dream_canvases`)
	if err != nil {
		return 0, fmt.Errorf("deleting dream canvases: %w", err)
	}
	return affected(res)
}

func (r *SQLiteCanvasRepo) TrimTo(ctx context.Context, keep int) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dream_canvases WHERE id NOT IN (
		SELECT id FROM dream_canvases ORDER BY created_at DESC, rowid DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("trimming dream canvases: %w", err)
	}
	return affected(res)
}

func scanCanvas(row scanner) (*domain.DreamCanvas, error) {
	var c domain.DreamCanvas
	var created string
	err := row.Scan(&c.ID, &c.Title, &c.Location, &c.Language, &c.StoryHTML, &c.ImageURL, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning dream canvas: %w", err)
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parsing created_at of canvas %s: %w", c.ID, err)
	}
	return &c, nil
}
