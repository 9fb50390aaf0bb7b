package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/zenstory/internal/db"
	"github.com/alexanderramin/zenstory/internal/domain"
)

// SQLiteShownObjectRepo persists selection history. It satisfies the
// novelty store used by the celestial selector.
type SQLiteShownObjectRepo struct {
	db db.DBTX
}

func NewSQLiteShownObjectRepo(conn db.DBTX) *SQLiteShownObjectRepo {
	return &SQLiteShownObjectRepo{db: conn}
}

func (r *SQLiteShownObjectRepo) LastShown(ctx context.Context, name string) (time.Time, bool, error) {
	o, err := r.Get(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return o.LastShownAt, true, nil
}

func (r *SQLiteShownObjectRepo) MarkShown(ctx context.Context, name string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO shown_objects (name, last_shown_at, times_shown)
		VALUES (?, ?, 1)
		ON CONFLICT(name) DO UPDATE SET
			last_shown_at = excluded.last_shown_at,
			times_shown = times_shown + 1`,
		name, formatTime(at))
	if err != nil {
		return fmt.Errorf("marking %s shown: %w", name, err)
	}
	return nil
}

func (r *SQLiteShownObjectRepo) Get(ctx context.Context, name string) (*domain.ShownObject, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT name, last_shown_at, times_shown FROM shown_objects WHERE name = ?`, name)
	o, err := scanShown(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("shown object %s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return o, nil
}

// List returns the history, most recently shown first.
func (r *SQLiteShownObjectRepo) List(ctx context.Context) ([]*domain.ShownObject, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, last_shown_at, times_shown FROM shown_objects ORDER BY last_shown_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("listing shown objects: %w", err)
	}
	defer rows.Close()

	var out []*domain.ShownObject
	for rows.Next() {
		o, err := scanShown(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanShown(row scanner) (*domain.ShownObject, error) {
	var o domain.ShownObject
	var last string
	if err := row.Scan(&o.Name, &last, &o.TimesShown); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning shown object: %w", err)
	}
	t, err := parseTime(last)
	if err != nil {
		return nil, fmt.Errorf("parsing last_shown_at of %s: %w", o.Name, err)
	}
	o.LastShownAt = t
	return &o, nil
}
