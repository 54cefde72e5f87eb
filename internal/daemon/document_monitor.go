package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"soundbridge/internal/logging"
)

// cycleState is the slice of the coordinator the monitor needs: whether a
// mutation cycle is currently rewriting the document.
type cycleState interface {
	InFlight() bool
}

// livenessCache is invalidated when the document changes under us, since an
// external rewrite usually means the soundboard restarted.
type livenessCache interface {
	Invalidate()
}

// DocumentMonitor watches the soundlist document for changes made outside
// the daemon, such as the user editing sounds in the soundboard UI. Events
// caused by the coordinator's own writes are ignored.
type DocumentMonitor struct {
	path    string
	cycle   cycleState
	cache   livenessCache
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	onChange func()
}

// NewDocumentMonitor builds a monitor for the given document path.
func NewDocumentMonitor(path string, cycle cycleState, cache livenessCache, logger *slog.Logger) (*DocumentMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory rather than the file: atomic rename-over-target
	// replaces the inode, which would silently drop a file-level watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch document directory: %w", err)
	}
	return &DocumentMonitor{
		path:    filepath.Clean(path),
		cycle:   cycle,
		cache:   cache,
		logger:  logging.NewComponentLogger(logger, "docmon"),
		watcher: watcher,
	}, nil
}

// SetOnChange registers a callback fired on external document changes.
func (m *DocumentMonitor) SetOnChange(fn func()) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Start begins consuming filesystem events until Stop or context
// cancellation.
func (m *DocumentMonitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.run(ctx)
}

func (m *DocumentMonitor) run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleEvent(event)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("watcher error", logging.Error(err))
		}
	}
}

func (m *DocumentMonitor) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != m.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if m.cycle != nil && m.cycle.InFlight() {
		return
	}

	m.logger.Info("document changed externally",
		logging.String(logging.FieldDocument, m.path),
		logging.String("event", event.Op.String()))
	if m.cache != nil {
		m.cache.Invalidate()
	}

	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Stop ends event processing and releases the watcher.
func (m *DocumentMonitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	_ = m.watcher.Close()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
