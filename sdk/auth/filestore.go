package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// CredentialStore persists credential bundles using the filesystem as backing
// storage. Files are named after the account identity so multiple identities
// can share one cache directory.
type CredentialStore struct {
	mu      sync.Mutex
	dirLock sync.RWMutex
	baseDir string
}

// NewCredentialStore creates a store rooted at dir.
func NewCredentialStore(dir string) *CredentialStore {
	return &CredentialStore{baseDir: strings.TrimSpace(dir)}
}

// SetBaseDir updates the directory used for credential persistence.
func (s *CredentialStore) SetBaseDir(dir string) {
	s.dirLock.Lock()
	s.baseDir = strings.TrimSpace(dir)
	s.dirLock.Unlock()
}

// FilePath returns the cache file path for an identity. The empty identity
// maps to the shared default entry.
func (s *CredentialStore) FilePath(email string) string {
	return filepath.Join(s.baseDirSnapshot(), identityLabel(email)+".json")
}

// Save writes the credential to its cache file. The write is skipped when the
// file already holds identical content, so watchers do not fire on no-ops.
func (s *CredentialStore) Save(cred *Credential) (string, error) {
	if cred == nil {
		return "", fmt.Errorf("googledocs auth: credential is nil")
	}
	target := s.FilePath(cred.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(cred)
	if err != nil {
		return "", fmt.Errorf("googledocs auth: marshal credential failed: %w", err)
	}
	if existing, errRead := os.ReadFile(target); errRead == nil {
		if jsonEqual(existing, raw) {
			return target, nil
		}
	}
	if err = cred.SaveToFile(target); err != nil {
		return "", err
	}
	return target, nil
}

// Load reads the cache entry for an identity. With no identity given and no
// default entry on disk, a lone cached credential is used when it is
// unambiguous.
func (s *CredentialStore) Load(email string) (*Credential, error) {
	path := s.FilePath(email)
	cred, err := LoadCredentialFile(path)
	if err == nil {
		return cred, nil
	}
	if email != "" || !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	creds, errList := s.List()
	if errList != nil {
		return nil, errList
	}
	if len(creds) == 1 {
		log.Debugf("using sole cached credential for %s", identityLabel(creds[0].Email))
		return creds[0], nil
	}
	return nil, err
}

// List enumerates all credential bundles under the cache directory.
// Unreadable or foreign JSON files are skipped.
func (s *CredentialStore) List() ([]*Credential, error) {
	dir := s.baseDirSnapshot()
	if dir == "" {
		return nil, fmt.Errorf("googledocs auth: cache directory not configured")
	}
	entries := make([]*Credential, 0)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}
		cred, errLoad := LoadCredentialFile(path)
		if errLoad != nil {
			return nil
		}
		if cred.Type != CredentialType {
			return nil
		}
		entries = append(entries, cred)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entries, nil
		}
		return nil, err
	}
	return entries, nil
}

// Delete removes an identity's cache entry. Missing files are not an error.
func (s *CredentialStore) Delete(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.FilePath(email)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("googledocs auth: delete failed: %w", err)
	}
	return nil
}

func (s *CredentialStore) baseDirSnapshot() string {
	s.dirLock.RLock()
	defer s.dirLock.RUnlock()
	return s.baseDir
}

// Store returns the credential store for the state's cache directory.
func (s *State) Store() *CredentialStore {
	return s.credentialStore()
}

func (s *State) credentialStore() *CredentialStore {
	s.mu.RLock()
	dir := s.cacheDir
	s.mu.RUnlock()
	if dir == "" {
		dir = defaultCacheDir()
	}
	return NewCredentialStore(dir)
}

// identityLabel names the cache entry for an email address, falling back to
// the shared default entry.
func identityLabel(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "default"
	}
	return email
}

// defaultCacheDir is used when the host injects no cache directory.
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("failed to resolve home directory, caching credentials under the working directory: %v", err)
		return ".googledocs"
	}
	return filepath.Join(home, ".config", "googledocs", "credentials")
}

func jsonEqual(a, b []byte) bool {
	var objA any
	var objB any
	if err := json.Unmarshal(a, &objA); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &objB); err != nil {
		return false
	}
	return deepEqualJSON(objA, objB)
}

func deepEqualJSON(a, b any) bool {
	switch valA := a.(type) {
	case map[string]any:
		valB, ok := b.(map[string]any)
		if !ok || len(valA) != len(valB) {
			return false
		}
		for key, subA := range valA {
			subB, ok1 := valB[key]
			if !ok1 || !deepEqualJSON(subA, subB) {
				return false
			}
		}
		return true
	case []any:
		sliceB, ok := b.([]any)
		if !ok || len(valA) != len(sliceB) {
			return false
		}
		for i := range valA {
			if !deepEqualJSON(valA[i], sliceB[i]) {
				return false
			}
		}
		return true
	case float64:
		valB, ok := b.(float64)
		if !ok {
			return false
		}
		return valA == valB
	case string:
		valB, ok := b.(string)
		if !ok {
			return false
		}
		return valA == valB
	case bool:
		valB, ok := b.(bool)
		if !ok {
			return false
		}
		return valA == valB
	case nil:
		return b == nil
	default:
		return false
	}
}
