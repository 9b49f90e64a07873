// Package watch monitors the input directory during a run. Redundancy
// generation can take hours; a file edited underneath it makes the
// staged copies and written checksums stale without failing anything.
// The monitor collects such mutations so the run can surface them as
// warnings.
package watch

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/maglar0/create-par2/internal/core/ports/driven"
	"github.com/maglar0/create-par2/internal/logger"
)

// Ensure Monitor implements the interface.
var _ driven.InputMonitor = (*Monitor)(nil)

// Monitor records filesystem events under the watched directory.
type Monitor struct {
	watcher *fsnotify.Watcher
	done    chan struct{}

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMonitor returns an idle monitor; watching begins with Start.
func NewMonitor() *Monitor {
	return &Monitor{seen: make(map[string]struct{})}
}

// Start begins watching path for writes, creations, removals and
// renames.
func (m *Monitor) Start(path string) error {
	if m.watcher != nil {
		return fmt.Errorf("monitor already started")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", path, err)
	}

	m.watcher = w
	m.done = make(chan struct{})
	go m.loop()
	return nil
}

func (m *Monitor) loop() {
	defer close(m.done)
	for {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			m.mu.Lock()
			m.seen[ev.Name] = struct{}{}
			m.mu.Unlock()
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logger.Debug("Input watcher error: %v", err)
		}
	}
}

// Mutations returns the paths changed since Start, deduplicated and
// sorted.
func (m *Monitor) Mutations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.seen))
	for p := range m.seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Close stops watching. Mutations remains valid after Close.
func (m *Monitor) Close() error {
	if m.watcher == nil {
		return nil
	}
	err := m.watcher.Close()
	<-m.done
	return err
}
