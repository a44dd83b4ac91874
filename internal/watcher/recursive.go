package watcher

import (
	"io/fs"
	"os"
	"path/filepath"

	"dama/internal/logging"
)

// addTree registers every directory below root and returns the ones added.
// On failure the directories already added are released again.
func (w *Watcher) addTree(root string) ([]string, error) {
	added := []string{}
	for _, dir := range subdirectories(root) {
		if err := w.addNested(dir); err != nil {
			w.releaseNested(added)
			return nil, err
		}
		added = append(added, dir)
	}
	return added, nil
}

// subdirectories lists the directories beneath root, skipping unreadable
// entries.
func subdirectories(root string) []string {
	dirs := []string{}
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err == nil && entry.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs
}

func (w *Watcher) addNested(dir string) error {
	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return ErrClosed
	}
	if w.watchedLocked(dir) {
		w.nested[dir]++
		w.mutex.Unlock()
		return nil
	}
	if w.watches >= w.limit {
		w.mutex.Unlock()
		return ErrMaxWatchesExceeded
	}
	w.nested[dir] = 1
	w.watches++
	watches := w.watches
	backend := w.backend
	w.mutex.Unlock()

	if err := backend.Add(dir); err != nil {
		w.forgetNested(dir)
		w.logger.Warn("watch add failed", map[string]string{
			"path":             dir,
			logging.FieldError: err.Error(),
		})
		return err
	}
	w.logWatchChange("watch added", dir, watches)
	return nil
}

// adoptCreatedDir extends each recursive subscription above a new directory
// to the directory and everything already inside it.
func (w *Watcher) adoptCreatedDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	w.mutex.Lock()
	var owners []*subscription
	for _, subs := range w.subs {
		for _, sub := range subs {
			if sub.recursive && within(sub.path, path) {
				owners = append(owners, sub)
			}
		}
	}
	w.mutex.Unlock()

	for _, owner := range owners {
		dirs := append([]string{path}, subdirectories(path)...)
		var added []string
		for _, dir := range dirs {
			if err := w.addNested(dir); err != nil {
				break
			}
			added = append(added, dir)
		}
		w.mutex.Lock()
		owner.nested = append(owner.nested, added...)
		w.mutex.Unlock()
	}
}

func (w *Watcher) releaseNested(dirs []string) {
	for _, dir := range dirs {
		w.releaseNestedOne(dir)
	}
}

func (w *Watcher) releaseNestedOne(dir string) {
	w.mutex.Lock()
	count := w.nested[dir]
	if count == 0 {
		w.mutex.Unlock()
		return
	}
	if count > 1 {
		w.nested[dir] = count - 1
		w.mutex.Unlock()
		return
	}
	delete(w.nested, dir)
	unwatch := len(w.subs[dir]) == 0
	if unwatch && w.watches > 0 {
		w.watches--
	}
	watches := w.watches
	backend := w.backend
	closed := w.closed
	w.mutex.Unlock()

	if !unwatch || closed {
		return
	}
	// The directory may already be gone; fsnotify drops those itself.
	if err := backend.Remove(dir); err == nil {
		w.logWatchChange("watch removed", dir, watches)
	}
}

// forgetNested undoes the bookkeeping of an addNested whose backend Add failed.
func (w *Watcher) forgetNested(dir string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	switch count := w.nested[dir]; {
	case count > 1:
		w.nested[dir] = count - 1
	case count == 1:
		delete(w.nested, dir)
		if w.watches > 0 {
			w.watches--
		}
	}
}
