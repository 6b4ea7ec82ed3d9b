package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const (
	credFileReadMaxAttempts = 5
	credFileReadRetryDelay  = 100 * time.Millisecond
)

// CacheWatcher keeps a State in sync with its credential cache file. Long
// running hosts embed it so a token refreshed by another process (or a
// deauthorization that removed the file) is picked up without a restart.
type CacheWatcher struct {
	state    *State
	email    string
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	lastHash string
}

// NewCacheWatcher creates a watcher for the cache entry of the given identity
// in state's cache directory. The empty identity watches the default entry.
func NewCacheWatcher(state *State, email string) (*CacheWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &CacheWatcher{
		state:   state,
		email:   email,
		watcher: watcher,
	}, nil
}

// FilePath returns the credential file being watched.
func (w *CacheWatcher) FilePath() string {
	return w.state.credentialStore().FilePath(w.email)
}

// Start begins watching the cache directory and processes events until the
// context is cancelled or Stop is called. The directory must exist.
func (w *CacheWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.FilePath())
	if err := w.watcher.Add(dir); err != nil {
		log.Errorf("failed to watch credential cache directory %s: %v", dir, err)
		return err
	}
	log.Debugf("watching credential cache directory: %s", dir)

	if data, err := os.ReadFile(w.FilePath()); err == nil && len(data) > 0 {
		w.setHash(contentHash(data))
	}

	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher.
func (w *CacheWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *CacheWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case errWatch, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("credential cache watcher error: %v", errWatch)
		}
	}
}

func (w *CacheWatcher) handleEvent(event fsnotify.Event) {
	// Only the watched credential file matters; the directory also holds
	// entries for other identities.
	if event.Name != w.FilePath() {
		return
	}
	log.Debugf("credential cache event detected: %s %s", event.Op.String(), filepath.Base(event.Name))

	if event.Op&fsnotify.Remove == fsnotify.Remove || event.Op&fsnotify.Rename == fsnotify.Rename {
		// A removed cache file means another process deauthorized. Dropping
		// the loaded credential forces re-authorization on next use.
		log.Infof("credential cache file removed: %s", filepath.Base(event.Name))
		w.setHash("")
		w.state.SetCredential(nil)
		return
	}

	if event.Op&fsnotify.Write != fsnotify.Write && event.Op&fsnotify.Create != fsnotify.Create {
		return
	}
	w.reload(event.Name)
}

// reload reads the changed credential file and loads it into the state when
// its content actually changed and still validates.
func (w *CacheWatcher) reload(path string) {
	data, err := readCredFileWithRetry(path, credFileReadMaxAttempts, credFileReadRetryDelay)
	if err != nil {
		log.Errorf("failed to read credential file %s: %v", filepath.Base(path), err)
		return
	}
	if len(data) == 0 {
		// An intermediate state between touch and write; a subsequent write
		// event carries the content.
		log.Debugf("ignoring empty credential file: %s", filepath.Base(path))
		return
	}

	curHash := contentHash(data)
	w.mu.Lock()
	if w.lastHash == curHash {
		log.Debugf("credential file content unchanged (hash match), skipping reload: %s", filepath.Base(path))
		w.mu.Unlock()
		return
	}
	w.lastHash = curHash
	w.mu.Unlock()

	cred, err := LoadCredentialFile(path)
	if err != nil {
		log.Errorf("failed to parse changed credential file %s: %v", filepath.Base(path), err)
		return
	}
	if !Validate(cred) {
		log.Warnf("changed credential file failed validation, not loading: %s", filepath.Base(path))
		return
	}
	w.state.SetCredential(cred)
	log.Infof("credential reloaded from cache for %s", identityLabel(cred.Email))
}

func (w *CacheWatcher) setHash(hash string) {
	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// readCredFileWithRetry attempts to read the credential file multiple times
// to work around short-lived locks on Windows while the file is being written.
func readCredFileWithRetry(path string, attempts int, delay time.Duration) ([]byte, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return nil, lastErr
}
