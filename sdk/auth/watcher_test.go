package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, state *State, email string) *CacheWatcher {
	t.Helper()
	watcher, err := NewCacheWatcher(state, email)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, watcher.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = watcher.Stop()
	})
	return watcher
}

func TestCacheWatcher_ReloadsChangedCredential(t *testing.T) {
	dir := t.TempDir()
	state := NewState(WithCacheDir(dir))
	store := state.Store()

	first := testCredential("user@example.com")
	_, err := store.Save(first)
	require.NoError(t, err)

	startWatcher(t, state, "user@example.com")

	second := testCredential("user@example.com")
	second.Token["access_token"] = "rotated-access-token"
	_, err = store.Save(second)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		cred := state.Credential()
		return cred != nil && cred.AccessToken() == "rotated-access-token"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestCacheWatcher_RemoveClearsCredential(t *testing.T) {
	dir := t.TempDir()
	state := NewState(WithCacheDir(dir))
	store := state.Store()

	cred := testCredential("user@example.com")
	_, err := store.Save(cred)
	require.NoError(t, err)
	state.SetCredential(cred)

	watcher := startWatcher(t, state, "user@example.com")

	require.NoError(t, os.Remove(watcher.FilePath()))

	require.Eventually(t, func() bool {
		return state.Credential() == nil
	}, 3*time.Second, 20*time.Millisecond)
}

func TestCacheWatcher_IgnoresOtherIdentities(t *testing.T) {
	dir := t.TempDir()
	state := NewState(WithCacheDir(dir))
	store := state.Store()

	watched := testCredential("watched@example.com")
	_, err := store.Save(watched)
	require.NoError(t, err)
	state.SetCredential(watched)

	startWatcher(t, state, "watched@example.com")

	other := testCredential("other@example.com")
	other.Token["access_token"] = "other-access-token"
	_, err = store.Save(other)
	require.NoError(t, err)

	// The other identity's file never displaces the loaded credential.
	time.Sleep(300 * time.Millisecond)
	current := state.Credential()
	require.NotNil(t, current)
	assert.Equal(t, "watched@example.com", current.Email)
}

func TestCacheWatcher_InvalidFileNotLoaded(t *testing.T) {
	dir := t.TempDir()
	state := NewState(WithCacheDir(dir))
	store := state.Store()

	good := testCredential("user@example.com")
	_, err := store.Save(good)
	require.NoError(t, err)
	state.SetCredential(good)

	watcher := startWatcher(t, state, "user@example.com")

	bad := testCredential("user@example.com")
	bad.Token["error"] = "invalid_client"
	raw, err := os.ReadFile(watcher.FilePath())
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.NoError(t, bad.SaveToFile(watcher.FilePath()))

	// The rejected bundle never replaces the loaded credential.
	time.Sleep(300 * time.Millisecond)
	current := state.Credential()
	require.NotNil(t, current)
	assert.Equal(t, "test-access-token", current.AccessToken())
}
