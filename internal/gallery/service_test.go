package gallery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mediadesk.io/courier/internal/pkg/errors"
	"mediadesk.io/courier/internal/pkg/logger"
	"mediadesk.io/courier/internal/store"
)

func init() {
	_ = logger.Init("error", "json")
}

type fakeMedia struct {
	dependents map[string]int
	deleted    []string
	err        error
}

func (f *fakeMedia) CountDependents(_ context.Context, id string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.dependents[id], nil
}

func (f *fakeMedia) DeleteMediaItem(_ context.Context, id string, cascade bool) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, ok := f.dependents[id]
	if !ok {
		return 0, fmt.Errorf("delete media item %s: %w", id, store.ErrNotFound)
	}
	if n > 0 && !cascade {
		return n, store.ErrHasDependents
	}
	delete(f.dependents, id)
	f.deleted = append(f.deleted, id)
	return n, nil
}

func TestDeleteMedia(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		cascade     bool
		wantRemoved int
		wantStatus  int
		wantCode    string
	}{
		{name: "unreferenced", id: "free", wantRemoved: 0},
		{name: "referenced refused", id: "used", wantRemoved: 2, wantStatus: http.StatusConflict, wantCode: apperrors.CodeMediaInUse},
		{name: "referenced cascade", id: "used", cascade: true, wantRemoved: 2},
		{name: "missing", id: "ghost", wantStatus: http.StatusNotFound, wantCode: apperrors.CodeMediaNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeMedia{dependents: map[string]int{"free": 0, "used": 2}}
			svc := NewService(repo)

			removed, err := svc.DeleteMedia(context.Background(), tt.id, tt.cascade)

			assert.Equal(t, tt.wantRemoved, removed)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, []string{tt.id}, repo.deleted)
				return
			}
			appErr, ok := apperrors.IsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.HTTPStatus)
			assert.Empty(t, repo.deleted)
		})
	}
}

func TestDeleteMedia_InUseCarriesCount(t *testing.T) {
	svc := NewService(&fakeMedia{dependents: map[string]int{"used": 3}})

	_, err := svc.DeleteMedia(context.Background(), "used", false)

	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 3, appErr.Params["dependents"])
}

func TestDependencyCount(t *testing.T) {
	svc := NewService(&fakeMedia{dependents: map[string]int{"used": 5}})
	n, err := svc.DependencyCount(context.Background(), "used")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	svc = NewService(&fakeMedia{err: errors.New("db down")})
	_, err = svc.DependencyCount(context.Background(), "used")
	assert.Equal(t, http.StatusInternalServerError, apperrors.StatusOf(err))
}
