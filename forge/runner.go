package forge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"appforge"
	"appforge/envelope"
	"appforge/inflector"
	"appforge/marker"
	"appforge/module"
	"appforge/template"
)

// RoutesFile is the shared routing envelope inside a target, patched rather
// than overwritten by every run that touches routing.
const RoutesFile = "config/routes.rb"

// routesTerminator is the terminator token of the routing envelope.
const routesTerminator = "end"

// GenerateFunc produces the artifacts of one resource. The template context
// carries the inflected name set derived from the resource name.
type GenerateFunc func(r *Runner, res appforge.ResourceDescriptor, tctx *template.Context) error

// FinalizeFunc is a hook that runs after per-resource generation: the
// routing patch, the migration trigger, seed population.
type FinalizeFunc func(ctx context.Context, r *Runner) error

type generator struct {
	name string
	fn   GenerateFunc
}

type finalizer struct {
	name string
	fn   FinalizeFunc
}

// ResourceFailure pairs a resource name with the error that stopped its
// generation.
type ResourceFailure struct {
	Resource string
	Err      error
}

// FailureList aggregates per-resource failures. The run continues past each
// one and reports them together at the end.
type FailureList []ResourceFailure

// Error returns the aggregated error string.
func (f FailureList) Error() string {
	parts := make([]string, len(f))
	for i, rf := range f {
		parts[i] = fmt.Sprintf("%s: %v", rf.Resource, rf.Err)
	}
	return fmt.Sprintf("appforge: %d resource(s) failed: %s", len(f), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures to errors.Is / errors.As.
func (f FailureList) Unwrap() []error {
	errs := make([]error, len(f))
	for i, rf := range f {
		errs[i] = rf.Err
	}
	return errs
}

// Runner executes one generation run. It is single-use: build with
// NewRunner, call Run once.
type Runner struct {
	cfg    *Config
	runID  string
	logger *log.Logger

	templates *template.Registry
	loader    *module.Loader[*Runner]
	guard     *marker.Guard
	manifest  *marker.Manifest
	patcher   *envelope.Patcher
	rules     *inflector.Ruleset

	generators []generator
	finalizers []finalizer

	// succeeded collects the resources whose generation completed; finalize
	// hooks (routing, seeding) only touch these.
	succeeded []appforge.ResourceDescriptor

	metrics Metrics
}

// NewRunner builds a Runner over the configuration. The enabled module set
// is resolved here; unknown module ids fail before anything runs.
func NewRunner(cfg *Config) (*Runner, error) {
	registry, err := registryFor(cfg.Modules)
	if err != nil {
		return nil, err
	}
	manifest, err := marker.LoadManifest(filepath.Join(cfg.BaseDir, cfg.AppName))
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	logger := cfg.Logger.With("run", runID[:8], "app", cfg.AppName)
	return &Runner{
		cfg:       cfg,
		runID:     runID,
		logger:    logger,
		templates: template.DefaultRegistry(),
		loader:    module.NewLoader(registry),
		guard:     marker.NewGuard(logger),
		manifest:  manifest,
		patcher:   envelope.NewPatcher(routesTerminator),
		rules:     inflector.NewRuleset(),
	}, nil
}

// Target returns the application's target directory.
func (r *Runner) Target() string {
	return filepath.Join(r.cfg.BaseDir, r.cfg.AppName)
}

// Templates returns the template registry, letting module setups register
// additional templates.
func (r *Runner) Templates() *template.Registry {
	return r.templates
}

// Metrics returns the counters of the run so far.
func (r *Runner) Metrics() Metrics {
	return r.metrics
}

// AddGenerator registers a per-resource generator. Called by module setups.
func (r *Runner) AddGenerator(name string, fn GenerateFunc) {
	r.generators = append(r.generators, generator{name: name, fn: fn})
}

// AddFinalizer registers a finalize hook. Called by module setups; hooks run
// in registration order, which follows module load order.
func (r *Runner) AddFinalizer(name string, fn FinalizeFunc) {
	r.finalizers = append(r.finalizers, finalizer{name: name, fn: fn})
}

// Run executes the full sequence: prerequisites, skeleton, module loading,
// package install, per-resource generation, finalize hooks, commit
// checkpoint. Prerequisite, module, envelope, and external-command failures
// abort the run; per-resource failures are collected and returned together
// as a FailureList.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("starting run", "base", r.cfg.BaseDir, "resources", len(r.cfg.Resources))

	if err := r.checkPrerequisites(); err != nil {
		r.logger.Error("prerequisite check failed", "err", err)
		return err
	}
	if err := r.ensureSkeleton(); err != nil {
		return err
	}
	order, err := r.loader.LoadAll(r)
	if err != nil {
		r.logger.Error("module loading failed", "err", err)
		return err
	}
	r.logger.Debug("modules loaded", "order", strings.Join(order, ", "))

	if !r.cfg.SkipInstall {
		if err := r.runExternal(ctx, "install", r.cfg.InstallCommand); err != nil {
			return err
		}
	}

	var failures FailureList
	for _, res := range r.cfg.Resources {
		if err := r.generateResource(res); err != nil {
			r.logger.Error("resource generation failed", "resource", res.Name, "err", err)
			failures = append(failures, ResourceFailure{Resource: res.Name, Err: err})
			r.metrics.ResourcesFailed++
			continue
		}
		r.succeeded = append(r.succeeded, res)
		r.metrics.ResourcesOK++
	}

	for _, f := range r.finalizers {
		if err := f.fn(ctx, r); err != nil {
			r.logger.Error("finalize hook failed", "hook", f.name, "err", err)
			return err
		}
	}

	if r.cfg.Commit {
		if err := r.commit(ctx); err != nil {
			return err
		}
	}

	if err := r.manifest.Save(); err != nil {
		return err
	}

	r.logger.Info("run finished",
		"written", r.metrics.FilesWritten,
		"skipped", r.metrics.FilesSkipped,
		"stale", r.metrics.FilesStale,
		"failed", r.metrics.ResourcesFailed)

	if len(failures) > 0 {
		return failures
	}
	return nil
}

// checkPrerequisites verifies the base directory exists. Missing
// preconditions abort immediately; the engine never attempts partial
// generation against a missing base.
func (r *Runner) checkPrerequisites() error {
	info, err := os.Stat(r.cfg.BaseDir)
	if err != nil {
		return appforge.NewPrerequisiteError(r.cfg.BaseDir, "base directory does not exist")
	}
	if !info.IsDir() {
		return appforge.NewPrerequisiteError(r.cfg.BaseDir, "base path is not a directory")
	}
	return nil
}

// ensureSkeleton generates the application skeleton (Gemfile, routing
// envelope, seed loader, layout). Every file is guard-checked, so repeat
// runs write nothing.
func (r *Runner) ensureSkeleton() error {
	if err := os.MkdirAll(r.Target(), 0o755); err != nil {
		return err
	}
	tctx := &template.Context{AppName: r.cfg.AppName, Env: r.cfg.Env}
	return r.RenderArtifacts(template.Skeleton, tctx)
}

// generateResource derives the inflected name set and runs every registered
// generator for one resource. An invalid identifier or a failing generator
// is fatal to this resource only.
func (r *Runner) generateResource(res appforge.ResourceDescriptor) error {
	if err := res.Validate(); err != nil {
		return err
	}
	tctx, err := r.templateContext(res)
	if err != nil {
		return err
	}
	r.logger.Info("generating resource", "resource", res.Name, "plural", tctx.Plural)
	for _, g := range r.generators {
		if err := g.fn(r, res, tctx); err != nil {
			return fmt.Errorf("generator %q: %w", g.name, err)
		}
	}
	return nil
}

// templateContext derives the full name set for a resource.
func (r *Runner) templateContext(res appforge.ResourceDescriptor) (*template.Context, error) {
	under, err := r.rules.Underscore(res.Name)
	if err != nil {
		return nil, err
	}
	singular, err := r.rules.Singularize(under)
	if err != nil {
		return nil, err
	}
	plural, err := r.rules.Pluralize(singular)
	if err != nil {
		return nil, err
	}
	classified, err := r.rules.Classify(singular)
	if err != nil {
		return nil, err
	}
	return &template.Context{
		AppName:     r.cfg.AppName,
		Singular:    singular,
		Plural:      plural,
		Classified:  classified,
		Underscored: singular,
		Attributes:  res.Attributes,
		Env:         r.cfg.Env,
	}, nil
}

// RenderArtifacts renders a template and writes each output file under the
// target, consulting the idempotency guard per artifact. The marker is the
// generated file itself, so a missing sibling is still regenerated while
// present files are skipped. Present-but-changed artifacts are reported as
// stale and left untouched.
func (r *Runner) RenderArtifacts(templateID string, tctx *template.Context) error {
	files, err := r.templates.Render(templateID, tctx)
	if err != nil {
		return err
	}

	// Deterministic write order.
	paths := make([]string, 0, len(files))
	for rel := range files {
		paths = append(paths, rel)
	}
	sort.Strings(paths)

	for _, rel := range paths {
		body := []byte(files[rel])
		abs := filepath.Join(r.Target(), rel)
		if !r.guard.ShouldGenerate(abs) {
			if r.manifest.Status(rel, body) == marker.StatusStale {
				r.logger.Warn("artifact is stale: rendered content differs from the generated file",
					"path", rel, "hint", "remove the file to regenerate")
				r.metrics.FilesStale++
			}
			r.metrics.FilesSkipped++
			continue
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(abs, body, 0o644); err != nil {
			return err
		}
		r.manifest.Record(rel, body)
		r.metrics.FilesWritten++
		r.metrics.BytesWritten += int64(len(body))
		r.logger.Debug("wrote artifact", "path", rel, "bytes", len(body))
	}
	return nil
}

// PatchRoute inserts the routing fragment for one resource into the routing
// envelope, matching on the route's first two tokens so whitespace
// differences do not duplicate entries. Envelope failures abort the run:
// routing becomes inconsistent if the patch is skipped.
func (r *Runner) PatchRoute(tctx *template.Context) error {
	fragment, err := r.templates.RenderBody(template.Route, tctx)
	if err != nil {
		return err
	}
	path := filepath.Join(r.Target(), RoutesFile)
	target := ":" + tctx.Plural
	present, err := envelope.ContainsLine(path, func(line string) bool {
		fields := strings.Fields(line)
		return len(fields) >= 2 && fields[0] == "resources" && fields[1] == target
	})
	if err != nil {
		return err
	}
	if present {
		r.logger.Info("route already present", "route", fragment)
		return nil
	}
	if err := r.patcher.Patch(path, "  "+fragment); err != nil {
		return err
	}
	r.logger.Info("patched routing envelope", "route", fragment)
	return nil
}

// Succeeded returns the resources whose generation completed in this run.
func (r *Runner) Succeeded() []appforge.ResourceDescriptor {
	return r.succeeded
}

// commit persists a checkpoint of the generated tree.
func (r *Runner) commit(ctx context.Context) error {
	if err := r.runExternal(ctx, "commit", []string{"git", "add", "-A"}); err != nil {
		return err
	}
	return r.runExternal(ctx, "commit", []string{"git", "commit", "--allow-empty", "-m", r.cfg.CommitMessage})
}
