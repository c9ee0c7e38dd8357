package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"route-recon/internal/config"
	"route-recon/internal/logger"
)

func newWatchCmd(opts *cliOptions) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the analysis whenever classes, jars or the manifest change",
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner(cmd.OutOrStdout())

			cfg, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Close()

			logger.Info("Watching %d classpath entries (Ctrl+C to stop)", len(cfg.Classpath.Entries))
			return watch(cmd.Context(), newWatchSet(cfg), debounce, func(ctx context.Context) {
				if _, err := runPass(ctx, cfg, !opts.noProgress, cmd.OutOrStdout()); err != nil {
					logger.Error("Analysis failed: %v", err)
				}
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period after the last change before re-running")
	return cmd
}

// watchSet describes what a change must touch to trigger a new pass
type watchSet struct {
	// Directories watched recursively for .class and .jar changes
	dirs []string

	// Single files, watched through their parent directory
	files map[string]bool
}

func newWatchSet(cfg *config.Config) *watchSet {
	ws := &watchSet{files: make(map[string]bool)}
	for _, entry := range cfg.Classpath.Entries {
		if info, err := os.Stat(entry); err == nil && info.IsDir() {
			ws.dirs = append(ws.dirs, entry)
		} else {
			ws.files[entry] = true
		}
	}
	if cfg.Analysis.Manifest != "" {
		ws.files[cfg.Analysis.Manifest] = true
	}
	return ws
}

func (ws *watchSet) matches(name string) bool {
	if ws.files[name] {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".class" && ext != ".jar" {
		return false
	}
	for _, dir := range ws.dirs {
		if rel, err := filepath.Rel(dir, name); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

// watch runs pass once, then once more after every burst of matching
// changes, until ctx is done
func watch(ctx context.Context, ws *watchSet, debounce time.Duration, pass func(context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range ws.dirs {
		if err := addTree(watcher, dir); err != nil {
			return err
		}
	}
	for file := range ws.files {
		if err := watcher.Add(filepath.Dir(file)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", file, err)
		}
	}

	pass(ctx)

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						logger.Warn("%v", err)
					}
				}
			}
			if event.Op == fsnotify.Chmod || !ws.matches(event.Name) {
				continue
			}
			logger.Debug("[WATCH] %s", event)
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			logger.Info("Change detected, re-running analysis...")
			pass(ctx)
		}
	}
}

// addTree watches dir and every directory below it
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
