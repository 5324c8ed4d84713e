package catalog

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/s376930/Chat-Arena/internal/logging"
)

// Watcher watches the data directory for catalog file edits and reloads the
// store when topics_tasks.json or consent.json change. This keeps a running
// server in sync with out-of-band edits (scp'd files, manual fixes).
type Watcher struct {
	watcher *fsnotify.Watcher
	store   *Store
	dataDir string
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	mu      sync.Mutex
	log     zerolog.Logger
}

// NewWatcher creates a catalog watcher over the given data directory.
func NewWatcher(dataDir string, store *Store) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory itself; atomic renames land as Create events on
	// the target name, which watching the files directly would miss.
	if err := w.Add(dataDir); err != nil {
		w.Close()
		return nil, err
	}

	logger := logging.Component("catalog")
	logger.Info().Str("dir", dataDir).Msg("catalog watcher initialized")

	return &Watcher{
		watcher: w,
		store:   store,
		dataDir: dataDir,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		log:     logger,
	}, nil
}

// Start begins watching for catalog changes.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 && isCatalogFile(ev.Name) {
				w.log.Debug().Str("file", filepath.Base(ev.Name)).Msg("catalog file changed")
				w.store.Reload(context.Background())
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("catalog watcher error")
		}
	}
}

func isCatalogFile(name string) bool {
	switch filepath.Base(name) {
	case topicsTasksKey + ".json", consentKey + ".json":
		return true
	}
	return false
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	// Signal stop
	select {
	case <-w.stopCh:
		// Already stopped
	default:
		close(w.stopCh)
	}

	// Wait for run() to finish if it was started
	if started {
		<-w.doneCh
	}

	return w.watcher.Close()
}
