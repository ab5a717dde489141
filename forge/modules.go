package forge

import (
	"context"
	"fmt"
	"strings"

	"appforge"
	"appforge/module"
	"appforge/template"
)

// Built-in generator module ids.
const (
	ModuleModels      = "models"
	ModuleControllers = "controllers"
	ModuleViews       = "views"
	ModuleRoutes      = "routes"
	ModuleSeed        = "seed"
)

// renderTo adapts a template id into a per-resource generator.
func renderTo(templateID string) GenerateFunc {
	return func(r *Runner, _ appforge.ResourceDescriptor, tctx *template.Context) error {
		return r.RenderArtifacts(templateID, tctx)
	}
}

// builtinModules declares the built-in generator modules and their
// dependency edges. Declaration order is the registration order, which
// breaks topological ties.
func builtinModules() []module.Module[*Runner] {
	return []module.Module[*Runner]{
		{
			ID: ModuleModels,
			Setup: func(r *Runner) error {
				r.AddGenerator("model", renderTo(template.Model))
				r.AddGenerator("migration", renderTo(template.Migration))
				r.AddFinalizer("migrate", func(ctx context.Context, r *Runner) error {
					return r.runExternal(ctx, "migrate", r.cfg.MigrateCommand)
				})
				return nil
			},
		},
		{
			ID:        ModuleControllers,
			DependsOn: []string{ModuleModels},
			Setup: func(r *Runner) error {
				r.AddGenerator("controller", renderTo(template.Controller))
				return nil
			},
		},
		{
			ID:        ModuleViews,
			DependsOn: []string{ModuleControllers},
			Setup: func(r *Runner) error {
				r.AddGenerator("views", renderTo(template.Views))
				return nil
			},
		},
		{
			ID:        ModuleRoutes,
			DependsOn: []string{ModuleControllers},
			Setup: func(r *Runner) error {
				r.AddFinalizer("routes", func(_ context.Context, r *Runner) error {
					for _, res := range r.Succeeded() {
						tctx, err := r.templateContext(res)
						if err != nil {
							return err
						}
						if err := r.PatchRoute(tctx); err != nil {
							return err
						}
					}
					return nil
				})
				return nil
			},
		},
		{
			ID:        ModuleSeed,
			DependsOn: []string{ModuleModels},
			Setup: func(r *Runner) error {
				r.AddGenerator("seed", renderTo(template.Seed))
				r.AddFinalizer("seed", func(ctx context.Context, r *Runner) error {
					return r.runExternal(ctx, "seed", r.cfg.SeedCommand)
				})
				return nil
			},
		},
	}
}

// BuiltinModuleIDs returns the built-in module ids in declaration order.
func BuiltinModuleIDs() []string {
	all := builtinModules()
	ids := make([]string, len(all))
	for i, m := range all {
		ids[i] = m.ID
	}
	return ids
}

// registryFor builds a module registry containing the enabled modules plus
// their transitive dependencies. An empty selection enables everything.
func registryFor(enabled []string) (*module.Registry[*Runner], error) {
	all := builtinModules()
	byID := make(map[string]module.Module[*Runner], len(all))
	for _, m := range all {
		byID[m.ID] = m
	}

	selected := make(map[string]bool)
	if len(enabled) == 0 {
		for _, m := range all {
			selected[m.ID] = true
		}
	} else {
		queue := append([]string(nil), enabled...)
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			m, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("appforge: unknown module %q; available: %s",
					id, strings.Join(BuiltinModuleIDs(), ", "))
			}
			if selected[id] {
				continue
			}
			selected[id] = true
			queue = append(queue, m.DependsOn...)
		}
	}

	registry := module.NewRegistry[*Runner]()
	for _, m := range all {
		if !selected[m.ID] {
			continue
		}
		if err := registry.Register(m); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
