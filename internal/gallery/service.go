// Package gallery guards media deletion against orders that still deliver
// the item.
package gallery

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	apperrors "mediadesk.io/courier/internal/pkg/errors"
	"mediadesk.io/courier/internal/pkg/logger"
	"mediadesk.io/courier/internal/store"
)

// MediaRepository is satisfied by *store.MediaStore.
type MediaRepository interface {
	CountDependents(ctx context.Context, id string) (int, error)
	DeleteMediaItem(ctx context.Context, id string, cascade bool) (int, error)
}

// Service exposes gallery dependency checks.
type Service struct {
	media MediaRepository
}

// NewService creates a Service.
func NewService(media MediaRepository) *Service {
	return &Service{media: media}
}

// DependencyCount returns how many order line items reference the media item.
func (s *Service) DependencyCount(ctx context.Context, mediaID string) (int, error) {
	n, err := s.media.CountDependents(ctx, mediaID)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeInternal, "count media dependents", http.StatusInternalServerError)
	}
	return n, nil
}

// DeleteMedia removes a media item. Referenced items are refused unless
// cascade is set, which also removes the referencing line items.
func (s *Service) DeleteMedia(ctx context.Context, mediaID string, cascade bool) (int, error) {
	removed, err := s.media.DeleteMediaItem(ctx, mediaID, cascade)
	switch {
	case errors.Is(err, store.ErrHasDependents):
		return removed, apperrors.ErrMediaInUse(mediaID, removed)
	case errors.Is(err, store.ErrNotFound):
		return 0, apperrors.ErrMediaNotFound(mediaID)
	case err != nil:
		return 0, apperrors.Wrap(err, apperrors.CodeInternal, "delete media item", http.StatusInternalServerError)
	}

	logger.Info("Media item deleted",
		zap.String("media_id", mediaID),
		zap.Bool("cascade", cascade),
		zap.Int("line_items_removed", removed),
	)
	return removed, nil
}
