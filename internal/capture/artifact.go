package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

const pollInterval = 100 * time.Millisecond

// fileStamp identifies one version of a file.
type fileStamp struct {
	modTime time.Time
	size    int64
}

// artifactMatcher finds files named {prefix}_*.{ext} that were created or
// rewritten after the matcher was built. Files already present at that
// point only count once their mtime or size changes.
type artifactMatcher struct {
	dir      string
	pattern  glob.Glob
	foldCase bool
	baseline map[string]fileStamp
}

// newArtifactMatcher snapshots the matching files in dir. Build it before
// the provider is invoked.
func newArtifactMatcher(dir, prefix, ext string) (*artifactMatcher, error) {
	foldCase := runtime.GOOS == "windows"
	expr := glob.QuoteMeta(prefix) + "_*." + glob.QuoteMeta(strings.TrimPrefix(ext, "."))
	if foldCase {
		expr = strings.ToLower(expr)
	}

	pattern, err := glob.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile artifact pattern %q: %w", expr, err)
	}

	m := &artifactMatcher{
		dir:      dir,
		pattern:  pattern,
		foldCase: foldCase,
	}
	m.baseline = m.stamps()
	return m, nil
}

func (m *artifactMatcher) matchName(name string) bool {
	if m.foldCase {
		name = strings.ToLower(name)
	}
	return m.pattern.Match(name)
}

// stamps lists the matching regular files in dir. A missing directory has
// none.
func (m *artifactMatcher) stamps() map[string]fileStamp {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil
	}

	found := make(map[string]fileStamp)
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !m.matchName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found[entry.Name()] = fileStamp{modTime: info.ModTime(), size: info.Size()}
	}
	return found
}

// scan returns the paths of new or rewritten artifacts, sorted.
func (m *artifactMatcher) scan() []string {
	var found []string
	for name, stamp := range m.stamps() {
		if before, ok := m.baseline[name]; ok && before.modTime.Equal(stamp.modTime) && before.size == stamp.size {
			continue
		}
		found = append(found, filepath.Join(m.dir, name))
	}
	sort.Strings(found)
	return found
}

// dirWatch reports file activity in the output directory. A nil *dirWatch
// is valid and never fires.
type dirWatch struct {
	watcher *fsnotify.Watcher
}

func watchDir(dir string, logger *slog.Logger) *dirWatch {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Debug("Artifact watcher unavailable", "error", err)
		return nil
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		logger.Debug("Cannot watch output directory, falling back to polling", "dir", dir, "error", err)
		return nil
	}
	return &dirWatch{watcher: watcher}
}

func (w *dirWatch) events() <-chan fsnotify.Event {
	if w == nil {
		return nil
	}
	return w.watcher.Events
}

func (w *dirWatch) errors() <-chan error {
	if w == nil {
		return nil
	}
	return w.watcher.Errors
}

func (w *dirWatch) Close() {
	if w != nil {
		_ = w.watcher.Close()
	}
}

// awaitArtifacts scans once and, if nothing matched, keeps rescanning on
// directory events and on a poll tick until settle elapses or ctx ends.
func awaitArtifacts(ctx context.Context, m *artifactMatcher, w *dirWatch, settle time.Duration, logger *slog.Logger) []string {
	if found := m.scan(); len(found) > 0 || settle <= 0 {
		return found
	}

	deadline := time.NewTimer(settle)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	events := w.events()
	watchErrs := w.errors()

	for {
		select {
		case <-ctx.Done():
			return m.scan()
		case <-deadline.C:
			return m.scan()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !m.matchName(filepath.Base(ev.Name)) {
				continue
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Debug("Artifact watcher error", "error", err)
			continue
		case <-ticker.C:
		}

		if found := m.scan(); len(found) > 0 {
			return found
		}
	}
}
