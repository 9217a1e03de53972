package modules

import (
	"mediadesk.io/courier/internal/api/handlers"
	"mediadesk.io/courier/internal/jobs"
)

// NewJobDeps collects worker collaborators from every module.
func NewJobDeps(mods []Module) jobs.Deps {
	var deps jobs.Deps
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		mod.ContributeJobs(&deps)
	}
	return deps
}

// NewServerDeps builds base server deps then lets each module contribute explicit wiring.
func NewServerDeps(infra *Infrastructure, mods []Module) handlers.ServerDeps {
	deps := handlers.ServerDeps{}
	if infra != nil && infra.DB != nil && infra.DB.Pool != nil {
		deps.DB = infra.DB.Pool
	}
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		mod.ContributeServerDeps(&deps)
	}
	return deps
}
