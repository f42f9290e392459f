package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/and161185/movie-mate/internal/crypto/sealbox"
)

const (
	credentialsFile = "credentials.bin"
	keyFile         = "store.key"
	sealPurpose     = "moviemate/credentials/v1"
)

var sealAAD = []byte(credentialsFile)

// File is a Store backed by one sealed JSON map on disk.
// The master key lives next to it in a 0600 file created on first use.
type File struct {
	mu  sync.Mutex
	dir string
	key []byte
}

var _ Store = (*File)(nil)

// NewFile opens (or initialises) a file store under dir.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("credstore: mkdir: %w", err)
	}
	master, err := loadOrCreateKey(filepath.Join(dir, keyFile))
	if err != nil {
		return nil, err
	}
	key, err := sealbox.DeriveKey(master, sealPurpose)
	if err != nil {
		return nil, fmt.Errorf("credstore: derive key: %w", err)
	}
	return &File{dir: dir, key: key}, nil
}

func loadOrCreateKey(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(b) != sealbox.KeyLen {
			return nil, fmt.Errorf("credstore: key file %s has wrong size", path)
		}
		return b, nil
	case errors.Is(err, fs.ErrNotExist):
		k, err := sealbox.NewKey()
		if err != nil {
			return nil, err
		}
		if err := writeAtomic(path, k); err != nil {
			return nil, fmt.Errorf("credstore: write key: %w", err)
		}
		return k, nil
	default:
		return nil, fmt.Errorf("credstore: read key: %w", err)
	}
}

// Path returns the sealed credentials file path.
func (s *File) Path() string { return filepath.Join(s.dir, credentialsFile) }

func (s *File) read() (map[string]string, error) {
	b, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credstore: read: %w", err)
	}
	plain, err := sealbox.Open(s.key, b, sealAAD)
	if err != nil {
		return nil, fmt.Errorf("credstore: open: %w", err)
	}
	m := map[string]string{}
	if err := json.Unmarshal(plain, &m); err != nil {
		return nil, fmt.Errorf("credstore: decode: %w", err)
	}
	return m, nil
}

func (s *File) write(m map[string]string) error {
	if len(m) == 0 {
		if err := os.Remove(s.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("credstore: remove: %w", err)
		}
		return nil
	}
	plain, err := json.Marshal(m)
	if err != nil {
		return err
	}
	sealed, err := sealbox.Seal(s.key, plain, sealAAD)
	if err != nil {
		return fmt.Errorf("credstore: seal: %w", err)
	}
	return writeAtomic(s.Path(), sealed)
}

func (s *File) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func (s *File) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.read()
	if err != nil {
		return err
	}
	m[key] = value
	return s.write(m)
}

func (s *File) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return s.write(m)
}

// writeAtomic replaces path via a temp file and rename.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}
