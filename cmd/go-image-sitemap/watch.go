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
)

const watchDebounce = 500 * time.Millisecond

func newWatchCommand(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the image sitemap whenever the source tree changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			return a.watch(cmd.Context())
		},
	}
}

// watch generates once, then again after every burst of changes under the
// source dir, until ctx is done.
func (a *app) watch(ctx context.Context) error {
	if _, err := a.generate(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchTree(watcher, a.sourceDir); err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("watching %s", a.sourceDir))

	trigger := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if a.ignoreEvent(event) {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatchTree(watcher, event.Name); err != nil {
						a.logger.Warn(fmt.Sprintf("cannot watch %s: %v", event.Name, err))
					}
				}
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			if _, err := a.generate(ctx); err != nil {
				a.logger.Error(fmt.Sprintf("regenerating sitemap: %v", err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn(fmt.Sprintf("watcher error: %v", err))
		}
	}
}

// ignoreEvent drops chmod-only events, editor temp files and writes of the
// sitemap itself. Other writes under the output dir are dropped too, unless
// the output dir contains the source tree.
func (a *app) ignoreEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return true
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return true
	}
	name := absPath(event.Name)
	if name == absPath(filepath.Join(a.outDir, a.name)) {
		return true
	}
	out := absPath(a.outDir)
	if within(out, absPath(a.sourceDir)) {
		return false
	}
	return within(out, name)
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// within reports whether p is dir or lies below it.
func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch folder %s: %w", p, err)
		}
		return nil
	})
}
