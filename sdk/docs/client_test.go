package docs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/noamross/googledocs/internal/cache"
	"github.com/noamross/googledocs/sdk/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func activeState(t *testing.T) *auth.State {
	t.Helper()
	state := auth.NewState(auth.WithCacheDir(t.TempDir()))
	state.SetCredential(&auth.Credential{
		Token: map[string]any{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expiry":       time.Now().Add(time.Hour).Format(time.RFC3339),
		},
		Email:    "user@example.com",
		Scopes:   auth.DefaultScopes(),
		Obtained: time.Now(),
		Type:     auth.CredentialType,
	})
	return state
}

const sampleDocument = `{
	"documentId": "doc-123",
	"title": "My Document",
	"revisionId": "rev-1",
	"body": {"content": [
		{"sectionBreak": {}},
		{"paragraph": {"elements": [{"textRun": {"content": "Hello "}}, {"textRun": {"content": "world.\n"}}]}}
	]}
}`

func TestClient_Get_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	var gotKey string
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.URL.Query().Get("key")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(sampleDocument))
	}))
	defer server.Close()

	client := New(activeState(t), WithBaseURL(server.URL))
	doc, err := client.Get(context.Background(), "doc-123")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-access-token", gotAuth)
	assert.Equal(t, "", gotKey)
	assert.Equal(t, "/v1/documents/doc-123", gotPath)
	assert.Equal(t, "doc-123", doc.DocumentID)
	assert.Equal(t, "My Document", doc.Title)
	assert.Equal(t, "rev-1", doc.RevisionID)
}

func TestClient_Get_AttachesAPIKeyWhenInactive(t *testing.T) {
	var gotAuth string
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.URL.Query().Get("key")
		_, _ = w.Write([]byte(sampleDocument))
	}))
	defer server.Close()

	state := auth.NewState(auth.WithCacheDir(t.TempDir()))
	state.SetAPIKey("my-key")
	state.Deauthorize()

	client := New(state, WithBaseURL(server.URL))
	_, err := client.Get(context.Background(), "doc-123")
	require.NoError(t, err)

	assert.Equal(t, "", gotAuth)
	assert.Equal(t, "my-key", gotKey)
}

func TestClient_Create_SendsTitle(t *testing.T) {
	var gotBody []byte
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody = readAll(t, r)
		_, _ = w.Write([]byte(`{"documentId":"new-doc","title":"Fresh","revisionId":"rev-0"}`))
	}))
	defer server.Close()

	client := New(activeState(t), WithBaseURL(server.URL))
	doc, err := client.Create(context.Background(), "Fresh")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Fresh", gjson.GetBytes(gotBody, "title").String())
	assert.Equal(t, "new-doc", doc.DocumentID)
}

func TestClient_BatchUpdate_BodyShapeAndReplies(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody = readAll(t, r)
		_, _ = w.Write([]byte(`{"documentId":"doc-123","replies":[{},{"replaceAllText":{"occurrencesChanged":2}}]}`))
	}))
	defer server.Close()

	client := New(activeState(t), WithBaseURL(server.URL))
	result, err := client.BatchUpdate(context.Background(), "doc-123",
		InsertTextAtEndRequest("hi\n"),
		ReplaceAllTextRequest("old", "new", true),
	)
	require.NoError(t, err)

	requests := gjson.GetBytes(gotBody, "requests")
	require.True(t, requests.IsArray())
	require.Len(t, requests.Array(), 2)
	assert.Equal(t, "hi\n", requests.Get("0.insertText.text").String())
	assert.Equal(t, "old", requests.Get("1.replaceAllText.containsText.text").String())

	assert.Equal(t, "doc-123", result.DocumentID)
	require.Len(t, result.Replies, 2)
	assert.Equal(t, int64(2), gjson.GetBytes(result.Replies[1], "replaceAllText.occurrencesChanged").Int())
}

func TestClient_Get_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`))
	}))
	defer server.Close()

	client := New(activeState(t), WithBaseURL(server.URL))
	_, err := client.Get(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "NOT_FOUND", apiErr.Status)
	assert.Equal(t, "Requested entity was not found.", apiErr.Message)
}

func TestClient_Get_RecordsMetadata(t *testing.T) {
	revision := "rev-1"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, _ := json.Marshal(map[string]any{
			"documentId": "doc-123",
			"title":      "My Document",
			"revisionId": revision,
		})
		_, _ = w.Write(doc)
	}))
	defer server.Close()

	metadataCache, err := cache.Open(filepath.Join(t.TempDir(), "documents.bolt"))
	require.NoError(t, err)
	defer func() {
		_ = metadataCache.Close()
	}()

	client := New(activeState(t), WithBaseURL(server.URL), WithCache(metadataCache))

	_, err = client.Get(context.Background(), "doc-123")
	require.NoError(t, err)

	entry, found, err := metadataCache.Get("doc-123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "My Document", entry.Title)
	assert.Equal(t, "rev-1", entry.RevisionID)

	// A later fetch with a newer revision replaces the recorded one.
	revision = "rev-2"
	_, err = client.Get(context.Background(), "doc-123")
	require.NoError(t, err)

	entry, found, err = metadataCache.Get("doc-123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "rev-2", entry.RevisionID)
}

func readAll(t *testing.T, r *http.Request) []byte {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	return data
}
