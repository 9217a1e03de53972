// Package modules contains the domain-oriented dependency units wired by
// the composition root.
//
// Import Path: mediadesk.io/courier/internal/app/modules
package modules

import (
	"context"

	"mediadesk.io/courier/internal/api/handlers"
	"mediadesk.io/courier/internal/jobs"
)

// Module represents a domain-specific dependency unit in the composition root.
type Module interface {
	// Name returns a stable module identifier for logging.
	Name() string

	// ContributeJobs injects module-owned collaborators into the River workers.
	ContributeJobs(*jobs.Deps)

	// ContributeServerDeps injects module-owned dependencies into the HTTP server deps.
	// Called after River is initialized.
	ContributeServerDeps(*handlers.ServerDeps)

	// Shutdown performs module-local graceful cleanup.
	Shutdown(context.Context) error
}
