// ABOUTME: Credential storage for the bearer access/refresh token pair
// ABOUTME: File-backed and in-memory implementations with atomic pair writes

package credstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Credential is the access/refresh token pair proving an authenticated
// identity to the platform backend. Tokens are opaque bearer strings.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IsZero reports whether no credential is present.
func (c Credential) IsZero() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Store persists a single credential pair. Both tokens are always written
// together; a half-written pair is never observable. Absence of a credential
// is a normal value, not an error: Get returns nil when nothing is stored or
// when the underlying storage is unavailable.
type Store interface {
	// Get returns the stored credential, or nil if none is present.
	Get() *Credential

	// Set overwrites the stored credential atomically.
	Set(c Credential) error

	// Clear removes both tokens.
	Clear() error
}

// FileStore persists the credential pair as a single JSON file with 0600
// permissions, written via temp-file rename so readers never see a partial
// pair.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file store at the given path. The file is not
// created until the first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get returns the stored credential, or nil if the file is missing,
// unreadable, or does not contain a complete pair.
func (s *FileStore) Get() *Credential {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil
	}
	if c.IsZero() {
		return nil
	}

	return &c
}

// Set writes the credential pair atomically via a temp file and rename.
func (s *FileStore) Set(c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("creating temp credential file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("setting credential file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing credential file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing credential file: %w", err)
	}

	return nil
}

// Clear removes the credential file. Clearing an absent credential succeeds.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credential file: %w", err)
	}
	return nil
}

// MemStore holds the credential pair in memory. Used for tests and for
// console sessions before their first login.
type MemStore struct {
	mu   sync.Mutex
	cred *Credential
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Get returns the stored credential, or nil if none is present.
func (s *MemStore) Get() *Credential {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cred == nil {
		return nil
	}
	c := *s.cred
	return &c
}

// Set overwrites the stored credential.
func (s *MemStore) Set(c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred = &c
	return nil
}

// Clear removes the stored credential.
func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred = nil
	return nil
}
