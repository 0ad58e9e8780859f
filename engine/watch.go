package engine

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pthm-cable/granule/config"
)

// configWatcher watches one config file and reports debounced change
// events. The containing directory is watched rather than the file itself
// so editors that replace the file on save keep working.
type configWatcher struct {
	watcher *fsnotify.Watcher
	events  chan struct{}
	errs    chan error
	closeCh chan struct{}
	once    sync.Once
}

func newConfigWatcher(path string) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}

	cw := &configWatcher{
		watcher: w,
		events:  make(chan struct{}, 1),
		errs:    make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go cw.run(filepath.Clean(path))
	return cw, nil
}

func (cw *configWatcher) close() error {
	var err error
	cw.once.Do(func() {
		close(cw.closeCh)
		err = cw.watcher.Close()
	})
	return err
}

func (cw *configWatcher) run(path string) {
	var last time.Time
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			now := time.Now()
			if now.Sub(last) < 100*time.Millisecond {
				continue
			}
			last = now
			select {
			case cw.events <- struct{}{}:
			default:
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			select {
			case cw.errs <- err:
			default:
			}
		case <-cw.closeCh:
			return
		}
	}
}

// startWatcher wires live reload: changes to the watched file re-read the
// config and hand it to the step loop, which applies it between ticks.
func (e *Engine) startWatcher(path string) error {
	cw, err := newConfigWatcher(path)
	if err != nil {
		return err
	}
	e.watcher = cw
	e.reloadCh = make(chan *config.Config, 1)

	go func() {
		for {
			select {
			case <-cw.closeCh:
				return
			case err := <-cw.errs:
				slog.Warn("config watcher", "error", err)
			case _, ok := <-cw.events:
				if !ok {
					return
				}
				cfg, err := config.Load(path)
				if err != nil {
					slog.Warn("config reload failed", "path", path, "error", err)
					continue
				}
				select {
				case e.reloadCh <- cfg:
				default:
				}
			}
		}
	}()

	slog.Info("watching config", "path", path)
	return nil
}

// maybeReload applies a pending reloaded config. Called at the top of Step,
// so emitters only ever change between ticks.
func (e *Engine) maybeReload() {
	if e.reloadCh == nil {
		return
	}
	select {
	case cfg := <-e.reloadCh:
		e.ApplyRuntime(cfg)
	default:
	}
}

// ApplyRuntime applies the reloadable subset of a config: emitter knobs and
// the stats log toggle. The schema and block size are fixed at construction;
// attempts to change them are reported and ignored.
func (e *Engine) ApplyRuntime(cfg *config.Config) {
	if cfg.Storage.BlockSize != e.container.BlockSize() ||
		len(cfg.Storage.FloatAttributes) != e.container.FloatCount() ||
		len(cfg.Storage.Vec3Attributes) != e.container.Vec3Count() {
		slog.Warn("storage section changed on reload; schema is immutable, ignoring")
	}

	applied := 0
	for _, emCfg := range cfg.Emitters {
		for _, em := range e.emitters {
			if em.Name() == emCfg.Name {
				em.Apply(emCfg)
				applied++
				break
			}
		}
	}

	slog.Info("config reloaded", "emitters_updated", applied, "tick", e.tick)
}
