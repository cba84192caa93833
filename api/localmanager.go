package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aouyang1/photoportfolio/util"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// LocalManager watches the images directory and signals Updated once a burst
// of changes to supported images has settled.
type LocalManager struct {
	path     string
	debounce time.Duration

	watcher      *fsnotify.Watcher
	trackedFiles mapset.Set[string]

	Updated chan bool
}

func NewLocalManager(path string, debounce time.Duration) (*LocalManager, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch folder %s: %w", path, err)
	}

	l := &LocalManager{
		path:     path,
		debounce: debounce,
		watcher:  w,
		Updated:  make(chan bool, 1),
	}

	currentFiles, err := l.getCurrentFiles()
	if err != nil {
		w.Close()
		return nil, err
	}
	l.trackedFiles = currentFiles

	return l, nil
}

func (l *LocalManager) getCurrentFiles() (mapset.Set[string], error) {
	dirs, err := os.ReadDir(l.path)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory, %s, %w", l.path, err)
	}

	currentFiles := mapset.NewSet[string]()
	for _, dir := range dirs {
		name := dir.Name()
		if dir.IsDir() || !util.IsSupported(name) {
			continue
		}
		currentFiles.Add(name)
	}
	return currentFiles, nil
}

// Run processes file events until ctx is done and then closes the watcher.
func (l *LocalManager) Run(ctx context.Context) {
	defer l.watcher.Close()

	timer := time.NewTimer(l.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") || !util.IsSupported(name) {
				continue
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			slog.Debug("image changed", "name", name, "op", event.Op.String())

			// Reset discards a stale expiry since go1.23
			timer.Reset(l.debounce)

		case <-timer.C:
			l.scan()

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "path", l.path, "error", err)
		}
	}
}

func (l *LocalManager) scan() {
	currentFiles, err := l.getCurrentFiles()
	if err != nil {
		slog.Warn("error reading local directory", "path", l.path, "error", err)
		return
	}

	added := currentFiles.Difference(l.trackedFiles).ToSlice()
	removed := l.trackedFiles.Difference(currentFiles).ToSlice()
	l.trackedFiles = currentFiles
	slog.Info("images directory changed", "added", added, "removed", removed)

	// modified files still trigger an update
	select {
	case l.Updated <- true:
	default:
		// an update is already pending
	}
}
