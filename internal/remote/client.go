// Package remote implements the mirror client for the portal's tabular REST
// backend: one resource path per collection, full-collection GETs, batched
// upsert POSTs keyed on record identity, and filtered DELETEs.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable marks any failure to reach or understand the remote mirror.
// Callers must treat it as "remote currently unreachable", never as an empty
// collection.
var ErrUnavailable = errors.New("remote mirror unavailable")

// Error describes a failed remote call. Extractable via errors.As() and
// matches ErrUnavailable with errors.Is(). Supports Unwrap().
type Error struct {
	Operation  string
	Table      string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote: %s %s failed (status %d): %v", e.Operation, e.Table, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote: %s %s failed: %v", e.Operation, e.Table, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports every remote error as ErrUnavailable; the mirror contract does
// not distinguish failure causes at the caller level.
func (e *Error) Is(target error) bool { return target == ErrUnavailable }

// Record is a raw mirrored record: its identity plus the JSON document.
type Record struct {
	ID   string
	Data json.RawMessage
}

// Client abstracts the remote tabular store. Implementations must be safe
// for concurrent use.
type Client interface {
	// Ping validates connectivity and credentials.
	Ping(ctx context.Context) error

	// FetchAll retrieves the full collection for a table.
	FetchAll(ctx context.Context, table string) ([]Record, error)

	// Upsert inserts or replaces records keyed by identity. The backend
	// receives a JSON array even for a single record.
	Upsert(ctx context.Context, table string, records []Record) error

	// Delete removes the record with the given identity.
	Delete(ctx context.Context, table, id string) error
}

// DebugLog receives wire-level traces of remote traffic.
type DebugLog interface {
	LogRequest(method, url string, body []byte)
	LogResponse(statusCode int, status string, body []byte)
	LogError(operation string, err error)
}

// HTTPClient implements Client using net/http.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	debug      DebugLog
}

// NewHTTPClient creates a mirror client for the given backend URL. The API
// key is sent as a static bearer credential with every call.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient sets a custom http.Client (for testing or custom timeouts).
func (c *HTTPClient) WithHTTPClient(client *http.Client) *HTTPClient {
	c.httpClient = client
	return c
}

// WithDebug attaches a wire-level debug logger.
func (c *HTTPClient) WithDebug(debug DebugLog) *HTTPClient {
	c.debug = debug
	return c
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("User-Agent", "portalsync-client/1.0")
}

func (c *HTTPClient) logRequest(method, url string, body []byte) {
	if c.debug != nil {
		c.debug.LogRequest(method, url, body)
	}
}

func (c *HTTPClient) logResponse(resp *http.Response, body []byte) {
	if c.debug != nil {
		c.debug.LogResponse(resp.StatusCode, resp.Status, body)
	}
}

func (c *HTTPClient) fail(op, table string, statusCode int, err error) *Error {
	e := &Error{Operation: op, Table: table, StatusCode: statusCode, Err: err}
	if c.debug != nil {
		c.debug.LogError(op, e)
	}
	return e
}

func (c *HTTPClient) failStatus(op, table string, statusCode int, body []byte) *Error {
	msg := ""
	if len(body) > 0 {
		if len(body) > 200 {
			msg = string(body[:200]) + "..."
		} else {
			msg = string(body)
		}
	}
	return c.fail(op, table, statusCode, fmt.Errorf("HTTP %d: %s", statusCode, msg))
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return c.fail("ping", "", 0, err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail("ping", "", 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return c.failStatus("ping", "", resp.StatusCode, body)
	}
	return nil
}

func (c *HTTPClient) FetchAll(ctx context.Context, table string) ([]Record, error) {
	reqURL := c.baseURL + "/" + url.PathEscape(table)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, c.fail("fetch_all", table, 0, err)
	}
	c.setHeaders(req)
	c.logRequest(http.MethodGet, reqURL, nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail("fetch_all", table, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail("fetch_all", table, resp.StatusCode, err)
	}
	c.logResponse(resp, body)

	if resp.StatusCode != http.StatusOK {
		return nil, c.failStatus("fetch_all", table, resp.StatusCode, body)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, c.fail("fetch_all", table, resp.StatusCode, fmt.Errorf("malformed collection: %w", err))
	}

	records := make([]Record, 0, len(raw))
	for _, doc := range raw {
		id, err := extractID(doc)
		if err != nil {
			return nil, c.fail("fetch_all", table, resp.StatusCode, err)
		}
		records = append(records, Record{ID: id, Data: doc})
	}
	return records, nil
}

func (c *HTTPClient) Upsert(ctx context.Context, table string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]json.RawMessage, len(records))
	for i, rec := range records {
		docs[i] = rec.Data
	}
	body, err := json.Marshal(docs)
	if err != nil {
		return c.fail("upsert", table, 0, err)
	}

	reqURL := c.baseURL + "/" + url.PathEscape(table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return c.fail("upsert", table, 0, err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates")
	c.logRequest(http.MethodPost, reqURL, body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail("upsert", table, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	c.logResponse(resp, respBody)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated &&
		resp.StatusCode != http.StatusNoContent {
		return c.failStatus("upsert", table, resp.StatusCode, respBody)
	}
	return nil
}

func (c *HTTPClient) Delete(ctx context.Context, table, id string) error {
	reqURL := fmt.Sprintf("%s/%s?id=eq.%s", c.baseURL, url.PathEscape(table), url.QueryEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return c.fail("delete", table, 0, err)
	}
	c.setHeaders(req)
	c.logRequest(http.MethodDelete, reqURL, nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail("delete", table, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	c.logResponse(resp, respBody)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.failStatus("delete", table, resp.StatusCode, respBody)
	}
	return nil
}

// extractID pulls the identity field out of a raw record document.
func extractID(doc json.RawMessage) (string, error) {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(doc, &probe); err != nil {
		return "", fmt.Errorf("malformed record: %w", err)
	}
	if probe.ID == "" {
		return "", errors.New("record missing identity field")
	}
	return probe.ID, nil
}
