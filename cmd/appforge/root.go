package main

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"appforge/forge"
)

var (
	verbose bool
	baseDir string

	rootCmd = &cobra.Command{
		Use:   "appforge",
		Short: "Idempotent web-application scaffolding",
		Long: `appforge synthesizes the source tree of a web application (models,
controllers, views, routing, seed data) from a resource description.

Every generation step is guarded by a marker artifact, so re-running a
generation is safe: existing files are skipped, the shared routing file is
patched structurally instead of overwritten, and external steps (package
install, migration, seeding) run with explicit timeouts and retries.

Environment bindings (prefix APPFORGE_): BASE, PORT, DB_USER, DB_PASSWORD.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base", "", "directory containing application targets (APPFORGE_BASE)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(modulesCmd)
}

// initEnv wires the APPFORGE_ environment bindings. They are resolved once
// here into the run configuration; leaf components never read the process
// environment.
func initEnv() {
	viper.SetEnvPrefix("APPFORGE")
	viper.AutomaticEnv()
	viper.SetDefault("base", ".")
	viper.SetDefault("port", "3000")
	viper.SetDefault("db_user", "app")
	viper.SetDefault("db_password", "changeme")
	_ = viper.BindPFlag("base", rootCmd.PersistentFlags().Lookup("base"))
}

// newLogger builds the structured logger shared by a run.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "appforge",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// envBindings collects the template-visible environment values.
func envBindings() map[string]string {
	return map[string]string{
		"port":        viper.GetString("port"),
		"db_user":     viper.GetString("db_user"),
		"db_password": viper.GetString("db_password"),
	}
}

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the built-in generator modules",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(strings.Join(forge.BuiltinModuleIDs(), "\n"))
	},
}
