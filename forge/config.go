// Package forge is the top-level driver of the generation engine. It owns
// the run configuration, sequences prerequisite checks, module loading,
// per-resource generation, finalize hooks, and the optional commit step.
//
// The engine is single-threaded, synchronous, and blocking throughout.
// Concurrent runs against disjoint target directories are independent and
// safe; concurrent runs against the same target directory are not mutually
// excluded and are the caller's responsibility.
package forge

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"appforge"
)

// ExecFunc runs one external collaborator command with the given working
// directory. The engine only inspects the returned error (process exit
// status); output is opaque.
type ExecFunc func(ctx context.Context, dir string, argv []string) error

// Config is the run configuration. It is owned by the Runner and passed
// explicitly; leaf components never read process-wide state.
type Config struct {
	// BaseDir is the directory containing application targets. It must
	// exist before a run starts.
	BaseDir string

	// AppName names the application; the target directory is
	// BaseDir/AppName.
	AppName string

	// Resources is the ordered list of resources to generate.
	Resources []appforge.ResourceDescriptor

	// Modules selects the enabled generator modules by id. Empty enables
	// every built-in module. Dependencies of a selected module are enabled
	// implicitly.
	Modules []string

	// Env carries environment bindings (port, credential placeholders)
	// exposed to templates.
	Env map[string]string

	// SkipInstall disables the package-install step.
	SkipInstall bool

	// Commit enables the final commit checkpoint of the generated tree.
	Commit bool

	// CommitMessage is used by the commit checkpoint.
	CommitMessage string

	// InstallCommand, MigrateCommand, and SeedCommand are the external
	// collaborator argvs. An empty argv disables the step.
	InstallCommand []string
	MigrateCommand []string
	SeedCommand    []string

	// CommandTimeout bounds each external command attempt. These are the
	// steps most likely to hang; template, patch, and loader steps stay
	// synchronous and retry-free.
	CommandTimeout time.Duration

	// CommandRetries is the number of additional attempts after a failed
	// external command.
	CommandRetries int

	// Logger receives structured run output.
	Logger *log.Logger

	// Exec runs external commands. Replaceable in tests.
	Exec ExecFunc
}

// Option configures a run.
type Option func(*Config) error

// WithBaseDir sets the directory containing application targets.
func WithBaseDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return appforge.NewPrerequisiteError("", "base directory cannot be empty")
		}
		c.BaseDir = dir
		return nil
	}
}

// WithAppName sets the application name.
func WithAppName(name string) Option {
	return func(c *Config) error {
		if err := appforge.ValidIdentifier(name); err != nil {
			return err
		}
		c.AppName = name
		return nil
	}
}

// WithResources sets the resource list.
func WithResources(resources ...appforge.ResourceDescriptor) Option {
	return func(c *Config) error {
		c.Resources = append(c.Resources, resources...)
		return nil
	}
}

// WithModules selects the enabled generator modules.
func WithModules(ids ...string) Option {
	return func(c *Config) error {
		c.Modules = append(c.Modules, ids...)
		return nil
	}
}

// WithEnv adds environment bindings exposed to templates.
func WithEnv(env map[string]string) Option {
	return func(c *Config) error {
		for k, v := range env {
			c.Env[k] = v
		}
		return nil
	}
}

// WithSkipInstall disables the package-install step.
func WithSkipInstall() Option {
	return func(c *Config) error {
		c.SkipInstall = true
		return nil
	}
}

// WithCommit enables the final commit checkpoint.
func WithCommit(message string) Option {
	return func(c *Config) error {
		c.Commit = true
		if message != "" {
			c.CommitMessage = message
		}
		return nil
	}
}

// WithCommandTimeout sets the per-attempt timeout for external commands.
func WithCommandTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return fmt.Errorf("appforge: command timeout must be positive, got %v", d)
		}
		c.CommandTimeout = d
		return nil
	}
}

// WithCommandRetries sets the retry count for external commands.
func WithCommandRetries(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			n = 0
		}
		c.CommandRetries = n
		return nil
	}
}

// WithInstallCommand overrides the package-install argv.
func WithInstallCommand(argv ...string) Option {
	return func(c *Config) error {
		c.InstallCommand = argv
		return nil
	}
}

// WithMigrateCommand overrides the migration-runner argv.
func WithMigrateCommand(argv ...string) Option {
	return func(c *Config) error {
		c.MigrateCommand = argv
		return nil
	}
}

// WithSeedCommand overrides the seed-runner argv.
func WithSeedCommand(argv ...string) Option {
	return func(c *Config) error {
		c.SeedCommand = argv
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Config) error {
		if logger != nil {
			c.Logger = logger
		}
		return nil
	}
}

// WithExec replaces the external-process runner.
func WithExec(exec ExecFunc) Option {
	return func(c *Config) error {
		if exec != nil {
			c.Exec = exec
		}
		return nil
	}
}

// NewConfig builds a validated Config from options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Env:            make(map[string]string),
		CommitMessage:  "appforge checkpoint",
		InstallCommand: []string{"bundle", "install"},
		MigrateCommand: []string{"rake", "db:migrate"},
		SeedCommand:    []string{"rake", "db:seed"},
		CommandTimeout: 5 * time.Minute,
		CommandRetries: 2,
		Logger:         log.Default(),
		Exec:           execCommand,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.BaseDir == "" {
		return nil, appforge.NewPrerequisiteError("", "base directory not configured")
	}
	if c.AppName == "" {
		return nil, appforge.NewIdentifierError("", "application name not configured")
	}
	return c, nil
}
