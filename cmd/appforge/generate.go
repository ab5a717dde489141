package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"appforge"
	"appforge/forge"
)

var (
	resourceSpecs []string
	manifestPath  string
	moduleIDs     []string
	skipInstall   bool
	commitTree    bool
	commitMessage string
	cmdTimeout    time.Duration
	cmdRetries    int
)

var generateCmd = &cobra.Command{
	Use:     "generate <app> [resource-spec...]",
	Aliases: []string{"g"},
	Short:   "Generate an application's source tree",
	Long: `Generate (or re-generate) the source tree of one application.

A resource spec has the form name:field:kind,field:kind with kinds text,
boolean, secret, and freetext:

  appforge generate blog post:title:text,published:boolean

Resources may also come from a YAML manifest (--manifest). Repeat runs are
idempotent: present artifacts are skipped and the routing file is patched
only once per route.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return generate(args[0], args[1:])
	},
}

func init() {
	generateCmd.Flags().StringArrayVarP(&resourceSpecs, "resource", "r", nil, "resource spec name:field:kind,... (repeatable)")
	generateCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "YAML resource manifest")
	generateCmd.Flags().StringSliceVar(&moduleIDs, "modules", nil, "enabled generator modules (default: all)")
	generateCmd.Flags().BoolVar(&skipInstall, "skip-install", false, "skip the package install step")
	generateCmd.Flags().BoolVar(&commitTree, "commit", false, "commit a checkpoint of the generated tree")
	generateCmd.Flags().StringVar(&commitMessage, "message", "", "commit message for the checkpoint")
	generateCmd.Flags().DurationVar(&cmdTimeout, "timeout", 5*time.Minute, "per-attempt timeout for external commands")
	generateCmd.Flags().IntVar(&cmdRetries, "retries", 2, "retries for external commands")
}

func generate(app string, specArgs []string) error {
	logger := newLogger()

	resources, err := collectResources(specArgs)
	if err != nil {
		logger.Error("invalid resource description", "err", err)
		return err
	}

	opts := []forge.Option{
		forge.WithBaseDir(viper.GetString("base")),
		forge.WithAppName(app),
		forge.WithResources(resources...),
		forge.WithModules(moduleIDs...),
		forge.WithEnv(envBindings()),
		forge.WithLogger(logger),
		forge.WithCommandTimeout(cmdTimeout),
		forge.WithCommandRetries(cmdRetries),
	}
	if skipInstall {
		opts = append(opts, forge.WithSkipInstall())
	}
	if commitTree {
		opts = append(opts, forge.WithCommit(commitMessage))
	}

	cfg, err := forge.NewConfig(opts...)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		return err
	}
	runner, err := forge.NewRunner(cfg)
	if err != nil {
		logger.Error("run setup failed", "err", err)
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return runner.Run(ctx)
}

// collectResources merges positional specs, --resource flags, and the
// optional YAML manifest, preserving declaration order.
func collectResources(specArgs []string) ([]appforge.ResourceDescriptor, error) {
	var resources []appforge.ResourceDescriptor
	for _, spec := range append(append([]string(nil), specArgs...), resourceSpecs...) {
		res, err := appforge.ParseResource(spec)
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	if manifestPath != "" {
		m, err := appforge.LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		fromManifest, err := m.Descriptors()
		if err != nil {
			return nil, err
		}
		resources = append(resources, fromManifest...)
	}
	seen := make(map[string]bool, len(resources))
	for _, res := range resources {
		if seen[res.Name] {
			return nil, fmt.Errorf("appforge: resource %q listed more than once", res.Name)
		}
		seen[res.Name] = true
	}
	return resources, nil
}
