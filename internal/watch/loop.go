package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce absorbs the burst of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// Cycle is one full sync run.
type Cycle func(ctx context.Context) error

// Loop drives repeated cycles.
type Loop struct {
	// Interval re-runs the cycle periodically when positive.
	Interval time.Duration
	// Files re-run the cycle when any of them is written, created,
	// removed or renamed.
	Files    []string
	Debounce time.Duration
	Logger   zerolog.Logger
}

// Run executes cycle once, then again on every trigger until ctx is done.
// An error from the first cycle is returned; later errors are logged and the
// loop keeps going. Without an interval or files, Run returns after the
// first cycle.
func (l *Loop) Run(ctx context.Context, cycle Cycle) error {
	if err := cycle(ctx); err != nil {
		return err
	}
	if l.Interval <= 0 && len(l.Files) == 0 {
		return nil
	}

	var watcher *fsnotify.Watcher
	targets := make(map[string]bool)
	if len(l.Files) > 0 {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("starting file watcher: %w", err)
		}
		watcher = w
		defer watcher.Close()

		if err := l.addDirs(watcher, targets); err != nil {
			return err
		}
	}

	triggers := make(chan string, 1)
	pumpCtx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.pump(pumpCtx, watcher, targets, triggers)
	}()
	defer func() {
		stop()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			l.Logger.Info().Msg("watch loop stopped")
			return nil
		case reason := <-triggers:
			if ctx.Err() != nil {
				return nil
			}
			l.Logger.Info().Str("trigger", reason).Msg("starting sync cycle")
			if err := cycle(ctx); err != nil {
				l.Logger.Error().Err(err).Msg("sync cycle failed")
			}
		}
	}
}

// addDirs watches the parent directory of every file. Editors often
// replace files by rename, which drops a watch placed on the file itself.
func (l *Loop) addDirs(w *fsnotify.Watcher, targets map[string]bool) error {
	dirs := make(map[string]bool)
	for _, f := range l.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", f, err)
		}
		targets[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		l.Logger.Debug().Str("dir", dir).Msg("watching directory")
	}
	return nil
}

// pump turns ticks and debounced file events into triggers. Sends never
// block, so a pending trigger absorbs any that follow it.
func (l *Loop) pump(ctx context.Context, w *fsnotify.Watcher, targets map[string]bool, out chan<- string) {
	send := func(reason string) {
		select {
		case out <- reason:
		default:
		}
	}

	var tick <-chan time.Time
	if l.Interval > 0 {
		ticker := time.NewTicker(l.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	if w != nil {
		events = w.Events
		errs = w.Errors
	}

	debounce := l.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	var settle *time.Timer
	var settled <-chan time.Time
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			send("interval")
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !targets[filepath.Clean(ev.Name)] || !relevant(ev.Op) {
				continue
			}
			l.Logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("file changed")
			if settle == nil {
				settle = time.NewTimer(debounce)
			} else {
				settle.Reset(debounce)
			}
			settled = settle.C
		case <-settled:
			settled = nil
			send("file change")
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			l.Logger.Warn().Err(err).Msg("file watcher error")
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) ||
		op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}
