package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/steveyegge/reqsync/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-plan whenever a snapshot file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Snapshot path -> modules fed by it. Editors replace files
		// rather than rewriting them, so watch the directories and
		// match events by cleaned path.
		byPath := make(map[string][]string)
		dirs := make(map[string]bool)
		for _, mc := range cfg.Modules {
			if mc.Snapshot == "" {
				continue
			}
			path := filepath.Clean(mc.Snapshot)
			byPath[path] = append(byPath[path], mc.DisplayName())
			dirs[filepath.Dir(path)] = true
		}
		if len(byPath) == 0 {
			return fmt.Errorf("no snapshot files configured")
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer watcher.Close()
		for dir := range dirs {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		replanAll(nil)
		fmt.Fprintln(os.Stderr, ui.MutedStyle.Render("watching for snapshot changes, ^C to stop"))

		for {
			select {
			case <-ctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				names, watched := byPath[filepath.Clean(event.Name)]
				if !watched {
					continue
				}
				fmt.Fprintln(os.Stderr, ui.AccentStyle.Render("snapshot changed: "+event.Name))
				replanAll(names)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(os.Stderr, "%s watcher: %v\n", ui.ModifyStyle.Render(ui.IconWarn), err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// replanAll recomputes and renders the plans for the named modules,
// reloading config and model so edits to either are picked up.
func replanAll(names []string) {
	eng, err := newEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.ModifyStyle.Render(ui.IconWarn), err)
		return
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	for _, plan := range eng.PlanAll() {
		if len(wanted) > 0 && !wanted[plan.Config.DisplayName()] {
			continue
		}
		renderPlan(plan)
	}
}
