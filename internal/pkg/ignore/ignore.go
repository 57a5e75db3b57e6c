package ignore

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gethiox/middleclick/internal/pkg/config"
	"github.com/gethiox/middleclick/internal/pkg/logger"
	"github.com/gethiox/middleclick/internal/pkg/utils"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	classCacheSize = 256
	classCacheTTL  = time.Second * 30 // X server reuses ids of closed windows
	commandTimeout = time.Second
)

// Runner executes external command and returns its output
type Runner func(ctx context.Context, args ...string) (string, error)

func xdotool(ctx context.Context, args ...string) (string, error) {
	return utils.RunCommand(ctx, commandTimeout, "xdotool", args...)
}

// Checker tells whether focused application is on the ignore list.
// Ignored never blocks, it works on the last class published by Watcher.
type Checker struct {
	store   *config.Store
	focused atomic.Pointer[string]
}

func NewChecker(store *config.Store) *Checker {
	c := &Checker{store: store}
	empty := ""
	c.focused.Store(&empty)
	return c
}

func (c *Checker) Ignored() bool {
	return c.store.Get().IsIgnored(c.Focused())
}

// Focused returns window class of the focused application, empty when unknown
func (c *Checker) Focused() string {
	return *c.focused.Load()
}

func (c *Checker) setFocused(class string) {
	c.focused.Store(&class)
}

// Watcher polls focused window and keeps Checker up to date
type Watcher struct {
	checker *Checker
	run     Runner
	classes *expirable.LRU[string, string] // window id -> class
	failing bool
}

func NewWatcher(checker *Checker, run Runner) *Watcher {
	return newWatcher(checker, run, classCacheTTL)
}

func newWatcher(checker *Checker, run Runner, ttl time.Duration) *Watcher {
	if run == nil {
		run = xdotool
	}
	return &Watcher{
		checker: checker,
		run:     run,
		classes: expirable.NewLRU[string, string](classCacheSize, nil, ttl),
	}
}

// Poll refreshes focused class once
func (w *Watcher) Poll(ctx context.Context) error {
	window, err := w.run(ctx, "getactivewindow")
	if err != nil {
		w.checker.setFocused("")
		return err
	}

	class, ok := w.classes.Get(window)
	if !ok {
		class, err = w.run(ctx, "getwindowclassname", window)
		if err != nil {
			w.checker.setFocused("")
			return err
		}
		class = strings.ToLower(class)
		w.classes.Add(window, class)
	}

	if class != w.checker.Focused() {
		log.Info("focus changed", zap.String("class", class), logger.Debug)
	}
	w.checker.setFocused(class)
	return nil
}

// Run polls focused window every rate until ctx is cancelled.
// Polling is skipped while ignore list is empty.
func (w *Watcher) Run(ctx context.Context, rate time.Duration) {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

root:
	for {
		if len(w.checker.store.Get().IgnoredApps) > 0 {
			err := w.Poll(ctx)
			switch {
			case err != nil && !w.failing:
				w.failing = true
				log.Info(fmt.Sprintf("cannot determine focused window, ignore list inactive: %v", err), logger.Warning)
			case err == nil && w.failing:
				w.failing = false
				log.Info("focused window detection recovered", logger.Info)
			}
		}

		select {
		case <-ctx.Done():
			break root
		case <-ticker.C:
		}
	}
}
