package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce coalesces editor write bursts into one regeneration.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <app>",
	Short: "Re-generate whenever the resource manifest changes",
	Long: `Watch the YAML resource manifest and re-run generation on every change.
Because generation is idempotent, each re-run only writes artifacts for
newly added resources and reports stale ones.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if manifestPath == "" {
			return fmt.Errorf("appforge: watch requires --manifest")
		}
		return watch(args[0])
	},
}

func init() {
	watchCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "YAML resource manifest (required)")
	watchCmd.Flags().BoolVar(&skipInstall, "skip-install", false, "skip the package install step")
	_ = watchCmd.MarkFlagRequired("manifest")
}

func watch(app string) error {
	logger := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(manifestPath); err != nil {
		return err
	}

	// Initial pass before waiting for changes.
	if err := generate(app, nil); err != nil {
		logger.Error("generation failed", "err", err)
	}

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	logger.Info("watching manifest", "path", manifestPath)

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping watch")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "err", err)
		case <-pending:
			logger.Info("manifest changed, regenerating")
			if err := generate(app, nil); err != nil {
				logger.Error("generation failed", "err", err)
			}
			// Editors replace files on save; re-add the path in case the
			// inode changed.
			_ = watcher.Add(manifestPath)
		}
	}
}
