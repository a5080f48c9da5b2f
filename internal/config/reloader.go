package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigChangeFunc is invoked after a file change has been reloaded and
// validated. err is non-nil if the new file failed to parse or validate —
// in that case cfg is nil and the previously active config stays in use.
type ConfigChangeFunc func(cfg *FileConfig, err error)

// ConfigReloader watches a TOML file with fsnotify and re-validates before
// swapping the active config, debouncing bursts of filesystem events (most
// editors emit several writes per save).
type ConfigReloader struct {
	mu sync.Mutex

	path           string
	validator      *DefaultConfigValidator
	debouncePeriod time.Duration
	lastReload     time.Time
	callbacks      []ConfigChangeFunc

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewConfigReloader builds a reloader for path, validating every reload
// with validator before it's handed to registered callbacks.
func NewConfigReloader(path string, validator *DefaultConfigValidator) *ConfigReloader {
	return &ConfigReloader{
		path:           path,
		validator:      validator,
		debouncePeriod: 500 * time.Millisecond,
	}
}

// SetDebouncePeriod overrides the default 500ms debounce window.
func (r *ConfigReloader) SetDebouncePeriod(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debouncePeriod = d
}

// OnConfigChanged registers a callback invoked on every successful or
// failed reload. Callbacks run one after another on the debounce timer's
// goroutine, not on the watcher goroutine.
func (r *ConfigReloader) OnConfigChanged(fn ConfigChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, fn)
}

// IsWatching reports whether Start has been called and Stop hasn't.
func (r *ConfigReloader) IsWatching() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watcher != nil
}

// GetLastReloadTime returns the zero Time if no reload has happened yet.
func (r *ConfigReloader) GetLastReloadTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastReload
}

// Start begins watching the config file's directory (fsnotify watches
// directories, not individual files, so editors that replace-via-rename on
// save are still caught) and debounces bursts of events into one reload.
func (r *ConfigReloader) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	r.mu.Lock()
	r.watcher = watcher
	r.done = make(chan struct{})
	r.mu.Unlock()

	go r.watchLoop(watcher)
	return nil
}

// Stop tears down the watcher. Safe to call multiple times.
func (r *ConfigReloader) Stop() {
	r.mu.Lock()
	w := r.watcher
	done := r.done
	r.watcher = nil
	r.mu.Unlock()

	if w == nil {
		return
	}
	w.Close()
	if done != nil {
		close(done)
	}
}

func (r *ConfigReloader) watchLoop(watcher *fsnotify.Watcher) {
	var pending *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != r.path {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(r.debouncePeriod, r.reload)
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		case <-r.done:
			return
		}
	}
}

func (r *ConfigReloader) reload() {
	cfg, err := LoadConfig(r.path)
	if err == nil {
		if verrs := r.validator.ValidateConfig(cfg); len(verrs) > 0 {
			err = verrs[0]
			cfg = nil
		}
	}

	r.mu.Lock()
	if err == nil {
		r.lastReload = time.Now()
	}
	callbacks := append([]ConfigChangeFunc(nil), r.callbacks...)
	r.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg, err)
	}
}
