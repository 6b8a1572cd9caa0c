// internal/config/watcher.go
package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/valpere/tatooine/internal/utils"
)

// SchemaWatcher reloads a schema file whenever it changes on disk
type SchemaWatcher struct {
	watcher   *fsnotify.Watcher
	path      string
	logger    utils.Logger
	callbacks []func(*SchemaFile)
	mu        sync.RWMutex
	stopped   bool
	done      chan struct{}
}

// NewSchemaWatcher starts watching path
func NewSchemaWatcher(path string, logger utils.Logger) (*SchemaWatcher, error) {
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve schema path: %w", err)
	}

	// Editors often replace files instead of writing them, so the directory is watched
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch schema directory: %w", err)
	}

	sw := &SchemaWatcher{
		watcher: watcher,
		path:    abs,
		logger:  logger.WithField("file", abs),
		done:    make(chan struct{}),
	}
	go sw.watch()

	return sw, nil
}

// OnChange registers a callback receiving every successfully reloaded file
func (sw *SchemaWatcher) OnChange(callback func(*SchemaFile)) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.callbacks = append(sw.callbacks, callback)
}

func (sw *SchemaWatcher) watch() {
	defer close(sw.done)
	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != sw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				sw.handleChange()
			}

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.logger.Warnf("schema watcher error: %v", err)
		}
	}
}

func (sw *SchemaWatcher) handleChange() {
	sw.mu.RLock()
	if sw.stopped {
		sw.mu.RUnlock()
		return
	}
	callbacks := make([]func(*SchemaFile), len(sw.callbacks))
	copy(callbacks, sw.callbacks)
	sw.mu.RUnlock()

	file, err := LoadFromFile(sw.path)
	if err == nil {
		err = file.Validate()
	}
	if err != nil {
		sw.logger.Warnf("ignoring schema change: %v", err)
		return
	}

	sw.logger.Info("schema file reloaded")
	for _, callback := range callbacks {
		callback(file)
	}
}

// Close stops the watcher and waits for its goroutine to exit
func (sw *SchemaWatcher) Close() error {
	sw.mu.Lock()
	if sw.stopped {
		sw.mu.Unlock()
		return nil
	}
	sw.stopped = true
	sw.mu.Unlock()

	err := sw.watcher.Close()
	<-sw.done
	return err
}
