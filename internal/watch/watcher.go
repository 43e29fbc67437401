// Package watch analyzes template images dropped into a directory.
//
// New and rewritten PNG, JPEG and GIF files are analyzed once their write
// activity has settled for the debounce interval. The template id is the
// file name without extension plus the configured suffix. Files named by a
// bare UUID are uploads stored by the HTTP API, which analyzes them itself,
// and are skipped.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/ironsheep/ad-template-matcher/internal/capacity"
	"github.com/ironsheep/ad-template-matcher/internal/logging"
	"github.com/ironsheep/ad-template-matcher/internal/matcher"
)

// Analyzer analyzes one template file into the cache.
type Analyzer interface {
	AnalyzeFile(ctx context.Context, templateID, path string) (*capacity.Analysis, error)
}

// Watcher feeds a template directory to an Analyzer.
type Watcher struct {
	dir      string
	suffix   string
	debounce time.Duration
	analyzer Analyzer
	log      *logging.Logger

	// OnAnalyzed, when set, is called after every analysis attempt.
	OnAnalyzed func(templateID string, err error)
}

// New creates a Watcher for dir.
func New(dir, suffix string, debounce time.Duration, a Analyzer, log *logging.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Watcher{
		dir:      dir,
		suffix:   suffix,
		debounce: debounce,
		analyzer: a,
		log:      log,
	}
}

// IsTemplateFile reports whether name is an image the watcher analyzes.
func IsTemplateFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif":
	default:
		return false
	}
	if _, err := uuid.Parse(strings.TrimSuffix(base, filepath.Ext(base))); err == nil {
		return false
	}
	return true
}

// ScanExisting analyzes every template file already in the directory, in
// name order. It returns the number of files analyzed successfully.
func (w *Watcher) ScanExisting(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("read template dir: %w", err)
	}
	ok := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return ok, err
		}
		if e.IsDir() || !IsTemplateFile(e.Name()) {
			continue
		}
		if w.analyze(ctx, filepath.Join(w.dir, e.Name())) == nil {
			ok++
		}
	}
	return ok, nil
}

// Run watches the directory until ctx is cancelled. Analysis failures are
// logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("watching template directory", "dir", w.dir, "debounce", w.debounce)

	pending := map[string]time.Time{}
	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !IsTemplateFile(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			for path, t := range pending {
				if now.Sub(t) < w.debounce {
					continue
				}
				delete(pending, path)
				w.analyze(ctx, path)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) tick() time.Duration {
	t := w.debounce / 4
	if t < 10*time.Millisecond {
		t = 10 * time.Millisecond
	}
	return t
}

func (w *Watcher) analyze(ctx context.Context, path string) error {
	id := matcher.TemplateIDFromPath(path, w.suffix)
	analysis, err := w.analyzer.AnalyzeFile(ctx, id, path)
	if err != nil {
		w.log.Warn("template analysis failed", "template", id, "path", path, "error", err)
	} else {
		w.log.Info("template analyzed",
			"template", id,
			"image_slots", analysis.Metadata.ImageSlots,
			"text_char_capacity", analysis.Metadata.TextCharCapacity)
	}
	if w.OnAnalyzed != nil {
		w.OnAnalyzed(id, err)
	}
	return err
}
