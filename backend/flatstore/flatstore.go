// Package flatstore is a small JSON key-value store over a filesystem. It
// holds everything that lives outside the record store: legacy data awaiting
// migration, the migration-complete flag, the persisted sync queue and
// archival lists. Tests run it against an in-memory filesystem.
package flatstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

type Store struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

// New opens a flat store rooted at dir on the OS filesystem.
func New(dir string) (*Store, error) {
	return NewWithFs(afero.NewOsFs(), dir)
}

// NewWithFs opens a flat store on an arbitrary filesystem.
func NewWithFs(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create flat store dir")
	}
	return &Store{fs: fs, dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Set marshals value and writes it under key.
func (s *Store) Set(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "marshal flat key %q", key)
	}
	if err := afero.WriteFile(s.fs, s.path(key), data, 0o644); err != nil {
		return errors.Wrapf(err, "write flat key %q", key)
	}
	return nil
}

// Get unmarshals the value stored under key into out. Returns false without
// error when the key is absent.
func (s *Store) Get(key string, out interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "read flat key %q", key)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, errors.Wrapf(err, "decode flat key %q", key)
	}
	return true, nil
}

// Has reports whether key exists.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, _ := afero.Exists(s.fs, s.path(key))
	return ok
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete flat key %q", key)
	}
	return nil
}
