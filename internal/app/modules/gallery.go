package modules

import (
	"context"

	"mediadesk.io/courier/internal/api/handlers"
	"mediadesk.io/courier/internal/gallery"
	"mediadesk.io/courier/internal/jobs"
	"mediadesk.io/courier/internal/store"
)

// GalleryModule owns media deletion.
type GalleryModule struct {
	Service *gallery.Service
}

// NewGalleryModule creates the gallery module.
func NewGalleryModule(infra *Infrastructure) *GalleryModule {
	return &GalleryModule{Service: gallery.NewService(store.NewMediaStore(infra.DB.Pool))}
}

func (m *GalleryModule) Name() string { return "gallery" }

func (m *GalleryModule) ContributeJobs(*jobs.Deps) {}

func (m *GalleryModule) ContributeServerDeps(d *handlers.ServerDeps) {
	d.Gallery = m.Service
}

func (m *GalleryModule) Shutdown(context.Context) error { return nil }
