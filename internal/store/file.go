package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// watchDebounce is how long we wait for a burst of filesystem events to settle before
// reporting a change
const watchDebounce = 250 * time.Millisecond

// FileStore keeps each value as a JSON file under a root directory: the key
// "chatStyles/foo" is stored at "<root>/chatStyles/foo.json"
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "create snapshot directory")
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, errors.Wrap(err, "read snapshot file")
}

// Save writes to a temporary file in the same directory, then renames it over the
// destination
func (s *FileStore) Save(ctx context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create snapshot directory")
	}
	f, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "write temp file")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "replace snapshot file")
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(err, "remove snapshot file")
}

// Watch calls onChange with the key of any value that's modified on disk by some
// other process (or by this store), until the context is canceled. Bursts of events
// for the same key are reported once.
func (s *FileStore) Watch(ctx context.Context, logger *slog.Logger, onChange func(key string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	watched := map[string]struct{}{}
	add := func(dir string) {
		if _, ok := watched[dir]; ok {
			return
		}
		if err := w.Add(dir); err != nil {
			logger.Error("watch add", "path", dir, "error", err)
			return
		}
		watched[dir] = struct{}{}
	}
	add(s.root)
	entries, err := os.ReadDir(s.root)
	if err != nil {
		w.Close()
		return errors.Wrap(err, "list snapshot directory")
	}
	for _, entry := range entries {
		if entry.IsDir() {
			add(filepath.Join(s.root, entry.Name()))
		}
	}

	go func() {
		defer w.Close()
		debounce := time.NewTimer(0)
		if !debounce.Stop() {
			<-debounce.C
		}
		pending := map[string]struct{}{}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						add(ev.Name)
						continue
					}
				}
				key, ok := s.keyForPath(ev.Name)
				if !ok {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					pending[key] = struct{}{}
					if !debounce.Stop() {
						select {
						case <-debounce.C:
						default:
						}
					}
					debounce.Reset(watchDebounce)
				}
			case <-debounce.C:
				for key := range pending {
					onChange(key)
				}
				pending = map[string]struct{}{}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watch error", "error", err)
			}
		}
	}()
	return nil
}

func (s *FileStore) path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)+".json"), nil
}

// keyForPath maps a file path back to its key, ignoring anything that isn't a
// snapshot file (including our own temp files)
func (s *FileStore) keyForPath(path string) (string, bool) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasSuffix(rel, ".json") {
		return "", false
	}
	key := strings.TrimSuffix(rel, ".json")
	if strings.HasPrefix(filepath.Base(key), ".") || validateKey(key) != nil {
		return "", false
	}
	return key, true
}

var _ Store = (*FileStore)(nil)
