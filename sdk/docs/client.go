// Package docs is a thin request builder for the Google Docs REST API. It
// covers the three operations the library demonstrates (get, create,
// batchUpdate) and nothing more; it is not a general Docs or Drive client.
// Authorization material comes from an auth.State per the accessor contract:
// an active token source becomes a Bearer header, otherwise the API key rides
// along as a query parameter.
package docs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/noamross/googledocs/internal/cache"
	"github.com/noamross/googledocs/internal/logging"
	"github.com/noamross/googledocs/internal/util"
	"github.com/noamross/googledocs/sdk/auth"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	docsEndpoint   = "https://docs.googleapis.com"
	docsAPIVersion = "v1"
)

// Client issues raw HTTP requests against the Docs API.
type Client struct {
	state         *auth.State
	httpClient    *http.Client
	metadataCache *cache.Cache
	requestLogger logging.RequestLogger
	baseURL       string
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for API calls, letting hosts
// route requests through a proxy.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCache attaches a document metadata cache. When set, successful calls
// record the document's title and revision, and Get reports revision drift.
func WithCache(metadataCache *cache.Cache) Option {
	return func(c *Client) { c.metadataCache = metadataCache }
}

// WithRequestLogger attaches a logger that captures full request/response
// cycles for debugging.
func WithRequestLogger(logger logging.RequestLogger) Option {
	return func(c *Client) { c.requestLogger = logger }
}

// WithBaseURL overrides the Docs API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// New creates a Docs client drawing authorization from state.
func New(state *auth.State, opts ...Option) *Client {
	c := &Client{
		state:      state,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    docsEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches a document by id.
func (c *Client) Get(ctx context.Context, documentID string) (*Document, error) {
	body, err := c.apiRequest(ctx, http.MethodGet, fmt.Sprintf("/%s/documents/%s", docsAPIVersion, documentID), nil)
	if err != nil {
		return nil, err
	}
	doc := ParseDocument(body)
	c.recordMetadata(doc)
	return doc, nil
}

// Create creates a blank document with the given title.
func (c *Client) Create(ctx context.Context, title string) (*Document, error) {
	reqBody, err := sjson.SetBytes([]byte(`{}`), "title", title)
	if err != nil {
		return nil, fmt.Errorf("failed to build create body: %w", err)
	}
	body, err := c.apiRequest(ctx, http.MethodPost, fmt.Sprintf("/%s/documents", docsAPIVersion), reqBody)
	if err != nil {
		return nil, err
	}
	doc := ParseDocument(body)
	c.recordMetadata(doc)
	return doc, nil
}

// UpdateResult reports the outcome of a batchUpdate call.
type UpdateResult struct {
	DocumentID string
	// RevisionID is the document revision the update was applied against.
	RevisionID string
	// Replies holds the per-request reply objects in request order.
	Replies []json.RawMessage
}

// BatchUpdate applies a sequence of update requests to a document in one
// atomic call. Requests are applied in order; a rejected request fails the
// whole batch on the server side.
func (c *Client) BatchUpdate(ctx context.Context, documentID string, requests ...json.RawMessage) (*UpdateResult, error) {
	reqBody := []byte(`{"requests":[]}`)
	var err error
	for _, request := range requests {
		reqBody, err = sjson.SetRawBytes(reqBody, "requests.-1", request)
		if err != nil {
			return nil, fmt.Errorf("failed to build batchUpdate body: %w", err)
		}
	}

	body, err := c.apiRequest(ctx, http.MethodPost, fmt.Sprintf("/%s/documents/%s:batchUpdate", docsAPIVersion, documentID), reqBody)
	if err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(body)
	result := &UpdateResult{
		DocumentID: root.Get("documentId").String(),
		RevisionID: root.Get("writeControl.requiredRevisionId").String(),
	}
	for _, reply := range root.Get("replies").Array() {
		result.Replies = append(result.Replies, json.RawMessage(reply.Raw))
	}
	if c.metadataCache != nil && result.RevisionID != "" {
		if entry, found, _ := c.metadataCache.Get(result.DocumentID); found {
			entry.RevisionID = result.RevisionID
			if errPut := c.metadataCache.Put(result.DocumentID, entry); errPut != nil {
				log.Warnf("failed to update document metadata cache: %v", errPut)
			}
		}
	}
	return result, nil
}

// apiRequest issues one HTTP call against the Docs API, attaching
// authorization per the accessor contract and translating non-2xx responses
// into *APIError.
func (c *Client) apiRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	requestID := uuid.New().String()
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err = c.state.AttachAuth(ctx, req); err != nil {
		return nil, err
	}
	if req.Header.Get("Authorization") != "" {
		log.Debugf("docs request %s: %s %s (bearer)", requestID, method, path)
	} else {
		log.Debugf("docs request %s: %s %s (key %s)", requestID, method, path, util.HideAPIKey(c.state.APIKey()))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Debugf("failed to close response body: %v", errClose)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.requestLogger != nil && c.requestLogger.IsEnabled() {
		if errLog := c.requestLogger.LogCall(url, method, req.Header, body, resp.StatusCode, resp.Header, respBody); errLog != nil {
			log.Debugf("request logging failed: %v", errLog)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, resp.Status, respBody)
		log.Debugf("docs request %s failed: %v", requestID, apiErr)
		return nil, apiErr
	}
	log.Debugf("docs request %s: %d, %d bytes", requestID, resp.StatusCode, len(respBody))
	return respBody, nil
}

// recordMetadata stores the document's title and revision and logs whether
// the revision moved since the last fetch.
func (c *Client) recordMetadata(doc *Document) {
	if c.metadataCache == nil || doc == nil || doc.DocumentID == "" {
		return
	}
	if previous, found, _ := c.metadataCache.Get(doc.DocumentID); found {
		if previous.RevisionID != doc.RevisionID {
			log.Infof("document %s changed since last fetch (revision %s -> %s)", doc.DocumentID, previous.RevisionID, doc.RevisionID)
		} else {
			log.Debugf("document %s unchanged since last fetch", doc.DocumentID)
		}
	}
	err := c.metadataCache.Put(doc.DocumentID, cache.Entry{
		Title:      doc.Title,
		RevisionID: doc.RevisionID,
	})
	if err != nil {
		log.Warnf("failed to update document metadata cache: %v", err)
	}
}

// APIError is a non-2xx response from the Docs API, parsed from Google's
// error envelope.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("docs api: %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("docs api: %s", e.Status)
}

func parseAPIError(statusCode int, status string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Status: status}
	root := gjson.ParseBytes(body)
	if message := root.Get("error.message"); message.Exists() {
		apiErr.Message = message.String()
	}
	if errStatus := root.Get("error.status"); errStatus.Exists() && errStatus.String() != "" {
		apiErr.Status = errStatus.String()
	}
	return apiErr
}
