package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// File roles.
const (
	RoleTrading = "sub-wallets"
	RoleHolders = "holders-wallets"
)

const archiveInfix = ".archive-"

// record is the on-disk layout of one wallet.
type record struct {
	ID        int    `json:"id"`
	Address   string `json:"address"`
	SecretKey string `json:"secretKey"`
}

// FileStore persists a keyed wallet collection as a JSON array.
// Writes go to a temp file renamed over the target.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store for path. The file need not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads all wallets. A missing file yields an empty list.
func (s *FileStore) Load() ([]*Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() ([]*Wallet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	wallets := make([]*Wallet, 0, len(records))
	for _, r := range records {
		w, err := FromBase58(r.ID, r.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("%s wallet %d: %w", s.path, r.ID, err)
		}
		if r.Address != "" && r.Address != w.Address() {
			return nil, fmt.Errorf("%s wallet %d: address %s does not match key", s.path, r.ID, r.Address)
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

// Generate returns count wallets. Without force an existing file holding at
// least count wallets is reused; otherwise a fresh batch replaces the file.
// A replaced non-empty file is first renamed to an archive next to it, so
// keys of wallets that may still hold funds stay on disk.
func (s *FileStore) Generate(count int, force bool) ([]*Wallet, error) {
	if count < 1 {
		return nil, fmt.Errorf("generate: count must be positive, got %d", count)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load()
	if err != nil {
		return nil, err
	}
	if !force && len(existing) >= count {
		return existing[:count], nil
	}

	wallets, err := Generate(count)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		if err := s.archive(); err != nil {
			return nil, err
		}
	}
	if err := s.write(wallets); err != nil {
		return nil, err
	}
	return wallets, nil
}

// Generate creates count fresh wallets numbered from 1 without persisting
// them.
func Generate(count int) ([]*Wallet, error) {
	wallets := make([]*Wallet, count)
	for i := range wallets {
		w, err := New(i + 1)
		if err != nil {
			return nil, err
		}
		wallets[i] = w
	}
	return wallets, nil
}

// archive renames the current file to <name>.archive-<unixnano>.json.
// A missing file is not an error.
func (s *FileStore) archive() error {
	dst := fmt.Sprintf("%s%s%d.json", strings.TrimSuffix(s.path, ".json"), archiveInfix, time.Now().UnixNano())
	if err := os.Rename(s.path, dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("archive %s: %w", s.path, err)
	}
	return nil
}

// Clear truncates the collection to an empty list.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(nil)
}

func (s *FileStore) write(wallets []*Wallet) error {
	records := make([]record, len(wallets))
	for i, w := range wallets {
		records[i] = record{ID: w.ID, Address: w.Address(), SecretKey: w.Secret()}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode wallets: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Dir resolves wallet files inside one directory, one file per role and token.
// Replaced files are kept as archives beside the current one.
type Dir struct {
	Root string
}

// Store returns the current store for role and token.
func (d Dir) Store(role, token string) *FileStore {
	return NewFileStore(filepath.Join(d.Root, fmt.Sprintf("%s-%s.json", role, token)))
}

// Stores returns every current store of role, sorted by path. Archives are
// excluded.
func (d Dir) Stores(role string) ([]*FileStore, error) {
	matches, err := filepath.Glob(filepath.Join(d.Root, role+"-*.json"))
	if err != nil {
		return nil, err
	}
	current := matches[:0]
	for _, m := range matches {
		if !strings.Contains(filepath.Base(m), archiveInfix) {
			current = append(current, m)
		}
	}
	return storesAt(current), nil
}

// Recoverable returns the current and archived stores of role, limited to
// token when it is set. These are all the files that may hold keys of
// funded wallets.
func (d Dir) Recoverable(role, token string) ([]*FileStore, error) {
	pattern := role + "-*.json"
	if token != "" {
		pattern = fmt.Sprintf("%s-%s%s*.json", role, token, archiveInfix)
	}
	matches, err := filepath.Glob(filepath.Join(d.Root, pattern))
	if err != nil {
		return nil, err
	}
	if token != "" {
		current := d.Store(role, token).Path()
		if _, err := os.Stat(current); err == nil {
			matches = append(matches, current)
		}
	}
	return storesAt(matches), nil
}

// LoadAll loads every wallet of role across the current files.
func (d Dir) LoadAll(role string) ([]*Wallet, error) {
	stores, err := d.Stores(role)
	if err != nil {
		return nil, err
	}
	return loadStores(stores)
}

// LoadRecoverable loads every wallet of Recoverable(role, token).
func (d Dir) LoadRecoverable(role, token string) ([]*Wallet, error) {
	stores, err := d.Recoverable(role, token)
	if err != nil {
		return nil, err
	}
	return loadStores(stores)
}

func storesAt(paths []string) []*FileStore {
	sort.Strings(paths)
	stores := make([]*FileStore, 0, len(paths))
	for _, p := range paths {
		stores = append(stores, NewFileStore(p))
	}
	return stores
}

func loadStores(stores []*FileStore) ([]*Wallet, error) {
	var all []*Wallet
	for _, s := range stores {
		ws, err := s.Load()
		if err != nil {
			return nil, err
		}
		all = append(all, ws...)
	}
	return all, nil
}
