package wiki

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/hubd/internal/logging"
)

// debounceWindow coalesces bursts of editor write events into one rescan.
const debounceWindow = 2 * time.Second

// Watcher triggers a rescan callback when markdown files under the wiki root
// change. Events are debounced so a burst of writes causes one rescan.
type Watcher struct {
	root     string
	onChange func(context.Context)
	logger   *logging.Logger
	debounce time.Duration

	mu      sync.Mutex
	fw      *fsnotify.Watcher
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher over root. onChange is invoked after the
// debounce window elapses with no further events.
func NewWatcher(root string, onChange func(context.Context), logger *logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Watcher{
		root:     root,
		onChange: onChange,
		logger:   logger.Named("wiki.watcher"),
		debounce: debounceWindow,
	}
}

// Start begins watching. It returns immediately; events are handled on a
// background goroutine until Stop is called or ctx is cancelled.
//
// fsnotify watches are not recursive, so the root and every category
// directory below it get their own watch. Directories created while running
// are picked up from their create events.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.root); err != nil {
		fw.Close()
		return err
	}
	walkErr := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == w.root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if addErr := fw.Add(path); addErr != nil {
			w.logger.Warn(ctx, "cannot watch wiki directory", zap.String("dir", path), zap.Error(addErr))
		}
		return nil
	})
	if walkErr != nil {
		fw.Close()
		return walkErr
	}

	w.mu.Lock()
	w.fw = fw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.run(ctx)
	return nil
}

// Stop stops watching. A rescan already in flight is not interrupted.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || w.fw == nil {
		return
	}
	w.stopped = true
	close(w.stopCh)
	w.fw.Close()
	<-w.doneCh
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) && isDir(event.Name) {
				// A directory can arrive already populated (moved into the
				// wiki), so watch it and let the debounce trigger a rescan.
				if err := w.fw.Add(event.Name); err != nil {
					w.logger.Warn(ctx, "cannot watch new wiki directory", zap.String("dir", event.Name), zap.Error(err))
				}
			} else if !relevant(event) {
				continue
			}
			w.logger.Debug(ctx, "wiki change detected", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "wiki watcher error", zap.Error(err))
		case <-timerCh:
			timer = nil
			timerCh = nil
			w.onChange(ctx)
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// relevant filters events down to markdown content changes.
func relevant(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, ".md") {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename)
}
