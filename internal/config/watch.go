package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-stage/internal/logger"
)

// Watcher reloads a config file whenever it changes on disk.
// Reloads are coalesced: only the newest valid config is kept until polled.
type Watcher struct {
	path    string
	fs      *fsnotify.Watcher
	updates chan *Config
	done    chan struct{}
}

// Watch starts watching path. The parent directory is watched so that
// editors that replace the file on save are still observed.
func Watch(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:    abs,
		fs:      fsw,
		updates: make(chan *Config, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	log := logger.Named("config")

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			cfg, err := LoadFile(w.path)
			if err != nil {
				log.Warn("ignoring config change", zap.String("path", w.path), zap.Error(err))
				continue
			}
			// Drop a stale pending config so the newest wins.
			select {
			case <-w.updates:
			default:
			}
			w.updates <- cfg
			log.Info("config reloaded", zap.String("path", w.path))

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher error", zap.Error(err))
		}
	}
}

// Updates returns the channel of reloaded configs.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Poll returns the pending reloaded config without blocking.
func (w *Watcher) Poll() (*Config, bool) {
	select {
	case cfg := <-w.updates:
		return cfg, true
	default:
		return nil, false
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}
