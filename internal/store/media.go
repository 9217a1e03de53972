package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5"

	"mediadesk.io/courier/internal/domain"
)

// MediaStore manages gallery media items and their order references.
type MediaStore struct {
	db TxBeginner
}

// NewMediaStore creates a MediaStore.
func NewMediaStore(db TxBeginner) *MediaStore {
	return &MediaStore{db: db}
}

// GetMediaItem loads a media item by id.
func (s *MediaStore) GetMediaItem(ctx context.Context, id string) (*domain.MediaItem, error) {
	query, args := pg().
		Select("id", "gallery_id", "title", "created_at").
		From(entsql.Table(tableMediaItems)).
		Where(entsql.EQ("id", id)).
		Query()

	var m domain.MediaItem
	if err := s.db.QueryRow(ctx, query, args...).Scan(&m.ID, &m.GalleryID, &m.Title, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("get media item %s: %w", id, notFound(err))
	}
	return &m, nil
}

// CreateMediaItem inserts a media item.
func (s *MediaStore) CreateMediaItem(ctx context.Context, m *domain.MediaItem) error {
	query, args := pg().
		Insert(tableMediaItems).
		Columns("id", "gallery_id", "title").
		Values(m.ID, m.GalleryID, m.Title).
		Returning("created_at").
		Query()

	if err := s.db.QueryRow(ctx, query, args...).Scan(&m.CreatedAt); err != nil {
		return fmt.Errorf("insert media item %s: %w", m.ID, err)
	}
	return nil
}

// CountDependents returns how many order line items reference the media item.
func (s *MediaStore) CountDependents(ctx context.Context, id string) (int, error) {
	return countDependents(ctx, s.db, id)
}

// DeleteMediaItem removes the media item. With cascade set, referencing
// line items are removed in the same transaction; it returns how many.
// Without cascade, a referenced item is left untouched and the dependent
// count is returned with ErrHasDependents.
func (s *MediaStore) DeleteMediaItem(ctx context.Context, id string, cascade bool) (int, error) {
	var removed int
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		n, err := countDependents(ctx, tx, id)
		if err != nil {
			return err
		}
		if n > 0 && !cascade {
			removed = n
			return ErrHasDependents
		}
		if n > 0 {
			query, args := pg().
				Delete(tableOrderItems).
				Where(entsql.EQ("media_item_id", id)).
				Query()
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("delete line items for media %s: %w", id, err)
			}
			removed = n
		}

		query, args := pg().
			Delete(tableMediaItems).
			Where(entsql.EQ("id", id)).
			Query()
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("delete media item %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("delete media item %s: %w", id, ErrNotFound)
		}
		return nil
	})
	return removed, err
}

func countDependents(ctx context.Context, db DBTX, id string) (int, error) {
	query, args := pg().
		Select(entsql.Count("*")).
		From(entsql.Table(tableOrderItems)).
		Where(entsql.EQ("media_item_id", id)).
		Query()

	var n int
	if err := db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dependents of media %s: %w", id, err)
	}
	return n, nil
}
