package config

import (
	"go.uber.org/zap"

	"github.com/dshills/stormdrain/internal/config/watcher"
)

// ReloadFunc receives the result of reloading a changed file. cfg is nil
// when err is not.
type ReloadFunc func(cfg *Config, err error)

// Watcher reloads a configuration file whenever it changes.
type Watcher struct {
	path   string
	w      *watcher.Watcher
	logger *zap.Logger
}

// Watch starts watching path and calls fn with every reloaded config.
func Watch(path string, fn ReloadFunc, logger *zap.Logger, opts ...watcher.Option) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cw := &Watcher{path: path, logger: logger}

	opts = append([]watcher.Option{watcher.WithLogger(logger)}, opts...)
	w, err := watcher.New(func(ev watcher.Event) {
		cfg, err := Load(cw.path)
		if err != nil {
			logger.Warn("config reload failed", zap.String("path", ev.Path), zap.Error(err))
		} else {
			logger.Info("config reloaded", zap.String("path", ev.Path), zap.Stringer("op", ev.Op))
		}
		fn(cfg, err)
	}, opts...)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Close()
		return nil, err
	}
	cw.w = w
	return cw, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.w.Close()
}
