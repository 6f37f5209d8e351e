package loader

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Catalog tracks the case files available in the case directory so the
// controller can list them without rescanning on every request. A
// filesystem watcher keeps the cached list current.
type Catalog struct {
	dir    string
	logger *zap.Logger

	mu    sync.RWMutex
	cases []string
}

// NewCatalog scans dir and returns a catalog of its case files.
func NewCatalog(dir string, logger *zap.Logger) (*Catalog, error) {
	c := &Catalog{dir: dir, logger: logger}
	if err := c.rescan(); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the known case names, sorted, without the .json extension.
func (c *Catalog) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.cases))
	copy(out, c.cases)
	return out
}

// Watch rescans the case directory whenever files change, until ctx is
// done. The initial scan already happened in NewCatalog, so a watcher
// failure only degrades freshness, not availability.
func (c *Catalog) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(c.dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-w.Events:
			if !ok {
				return nil
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := c.rescan(); err != nil {
				c.logger.Warn("case directory rescan failed",
					zap.String("event", evt.Name),
					zap.Error(err),
				)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("case directory watch error", zap.Error(err))
		}
	}
}

func (c *Catalog) rescan() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, CaseName(e.Name()))
	}
	sort.Strings(names)

	c.mu.Lock()
	c.cases = names
	c.mu.Unlock()
	return nil
}
