package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredential_AccessToken(t *testing.T) {
	cred := testCredential("user@example.com")
	assert.Equal(t, "test-access-token", cred.AccessToken())

	var nilCred *Credential
	assert.Equal(t, "", nilCred.AccessToken())
	assert.Equal(t, "", (&Credential{}).AccessToken())
}

func TestCredential_OAuthToken(t *testing.T) {
	cred := testCredential("user@example.com")

	token, err := cred.OAuthToken()
	require.NoError(t, err)
	assert.Equal(t, "test-access-token", token.AccessToken)
	assert.Equal(t, "test-refresh-token", token.RefreshToken)
	assert.True(t, token.Valid())
}

func TestCredential_OAuthToken_NoPayload(t *testing.T) {
	_, err := (&Credential{}).OAuthToken()
	require.Error(t, err)
}

func TestCredential_SaveToFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds", "user@example.com.json")
	cred := testCredential("user@example.com")

	require.NoError(t, cred.SaveToFile(path))

	loaded, err := LoadCredentialFile(path)
	require.NoError(t, err)
	assert.Equal(t, cred.Email, loaded.Email)
	assert.Equal(t, cred.Scopes, loaded.Scopes)
	assert.Equal(t, CredentialType, loaded.Type)
	assert.Equal(t, cred.AccessToken(), loaded.AccessToken())

	// The temporary sibling used for the atomic write must be gone.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCredential_SaveToFile_ForcesTypeTag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cred.json")
	cred := testCredential("user@example.com")
	cred.Type = "something-else"

	require.NoError(t, cred.SaveToFile(path))

	loaded, err := LoadCredentialFile(path)
	require.NoError(t, err)
	assert.Equal(t, CredentialType, loaded.Type)
}

func TestLoadCredentialFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := LoadCredentialFile(path)
	require.Error(t, err)
}
