package config

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultReloadDebounce coalesces bursts of editor writes into one reload.
const DefaultReloadDebounce = 300 * time.Millisecond

// Source is the live configuration of one client instance.
//
// Readers call Load at admission and retry time, so an Update takes effect
// for every request dispatched after it returns.
type Source struct {
	mu  sync.Mutex // serializes writers
	cur atomic.Pointer[Config]
}

// NewSource validates cfg and wraps it.
func NewSource(cfg Config) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Source{}
	s.cur.Store(&cfg)
	return s, nil
}

// Load returns a copy of the current configuration.
func (s *Source) Load() Config {
	return *s.cur.Load()
}

// Update applies fn to a copy of the current configuration and swaps it in
// if the result validates. On error the previous configuration stays active.
func (s *Source) Update(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.cur.Load()
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	s.cur.Store(&next)
	return nil
}

// Replace swaps in cfg if it validates.
func (s *Source) Replace(cfg Config) error {
	return s.Update(func(c *Config) { *c = cfg })
}

// watch is a running config file watcher.
type watch struct {
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	once    sync.Once
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *watch) Close() error {
	w.once.Do(func() { close(w.stopCh) })
	<-w.doneCh
	return nil
}

// Watch reloads path into the source whenever the file changes. The parent
// directory is watched so that atomic rename-style saves are seen. Invalid
// files are logged and ignored. Cancelling ctx or closing the returned
// io.Closer stops watching and releases the underlying watch handle.
func (s *Source) Watch(ctx context.Context, path string, debounce time.Duration, logger zerolog.Logger) (io.Closer, error) {
	if debounce <= 0 {
		debounce = DefaultReloadDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &watch{
		watcher: watcher,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	go func() {
		defer close(w.doneCh)
		defer func() { _ = watcher.Close() }()
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		reload := func() {
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn().Err(err).Str("path", abs).Msg("Config reload failed, keeping previous config")
				return
			}
			if err := s.Replace(*cfg); err != nil {
				logger.Warn().Err(err).Str("path", abs).Msg("Config reload rejected")
				return
			}
			logger.Info().
				Str("path", abs).
				Int("concurrency_limit", cfg.Admission.ConcurrencyLimit).
				Int("window_limit", cfg.Admission.WindowLimit).
				Dur("window_size", cfg.Admission.WindowSize).
				Msg("Config reloaded")
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case <-timerC:
				timerC = nil
				reload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("Config watcher error")
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != abs {
					continue
				}
				if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(debounce)
				}
				timerC = timer.C
			}
		}
	}()

	logger.Info().Str("path", abs).Dur("debounce", debounce).Msg("Config auto-reload enabled")

	return w, nil
}
