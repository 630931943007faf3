package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fieldops/pdvstamp/internal/manifest"
)

// Watcher runs a handler for every manifest dropped into a directory.
// Manifests are handled one at a time in the order they settle.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	Handle   func(ctx context.Context, path string) error
}

// Run blocks until ctx is cancelled or the underlying watcher fails
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.Dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", w.Dir, err)
	}
	slog.Info("Watching for manifests", "dir", w.Dir)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	// Debounce: a manifest is handled once writes to it have stopped
	timers := make(map[string]*time.Timer)
	ready := make(chan string, 16)
	defer func() {
		for _, timer := range timers {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") || !manifest.IsManifest(name) {
				continue
			}

			if timer, exists := timers[event.Name]; exists {
				timer.Stop()
			}
			path := event.Name
			timers[path] = time.AfterFunc(debounce, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})

		case path := <-ready:
			delete(timers, path)
			slog.Info("Manifest ready", "path", path)
			if err := w.Handle(ctx, path); err != nil {
				slog.Error("Failed to process manifest", "path", path, "error", err)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", "error", err)
		}
	}
}
