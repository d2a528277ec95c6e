package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/b-harvest/gasp-e2e/internal/application/ports"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// FileKeyStore implements ports.KeyStore with one <address>.json file per
// account in a directory.
type FileKeyStore struct {
	dir string
}

// NewFileKeyStore creates a store rooted at dir. The directory is created
// on first write.
func NewFileKeyStore(dir string) *FileKeyStore {
	return &FileKeyStore{dir: dir}
}

// Dir returns the store directory.
func (s *FileKeyStore) Dir() string {
	return s.dir
}

func (s *FileKeyStore) path(address chain.Address) string {
	return filepath.Join(s.dir, string(address)+".json")
}

// Save writes the key JSON, readable only by the owner.
func (s *FileKeyStore) Save(ctx context.Context, address chain.Address, keyJSON []byte) error {
	if len(keyJSON) == 0 {
		return fmt.Errorf("key json is empty")
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return &StoreError{Op: "save", Location: s.dir, Err: err}
	}

	path := s.path(address)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, keyJSON, 0600); err != nil {
		return &StoreError{Op: "save", Location: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &StoreError{Op: "save", Location: path, Err: err}
	}
	return nil
}

// Load reads the key JSON for address.
func (s *FileKeyStore) Load(ctx context.Context, address chain.Address) ([]byte, error) {
	path := s.path(address)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Key: path}
		}
		return nil, &StoreError{Op: "load", Location: path, Err: err}
	}
	return data, nil
}

// List returns the addresses of every stored key, sorted.
func (s *FileKeyStore) List(ctx context.Context) ([]chain.Address, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StoreError{Op: "list", Location: s.dir, Err: err}
	}

	var out []chain.Address
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		addr, err := chain.ParseAddress(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Delete removes the key file for address.
func (s *FileKeyStore) Delete(ctx context.Context, address chain.Address) error {
	path := s.path(address)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Key: path}
		}
		return &StoreError{Op: "delete", Location: path, Err: err}
	}
	return nil
}

var _ ports.KeyStore = (*FileKeyStore)(nil)
