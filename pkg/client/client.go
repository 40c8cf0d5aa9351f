// Package client wraps the Loki, Prometheus, and Tempo HTTP query APIs.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pokgak/lgtm-cli/pkg/auth"
	"github.com/pokgak/lgtm-cli/pkg/config"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// BackendError is a failed backend request: a transport error, a non-2xx
// status, or an unparseable response body. Commands map it to a dedicated
// exit code.
type BackendError struct {
	Backend string
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s request failed (status %d): %s", e.Backend, e.Status, e.Message)
	}

	return fmt.Sprintf("%s request failed: %s", e.Backend, e.Message)
}

// Client is the HTTP core shared by the three backend clients. It holds the
// resolved base URL and auth headers for one backend of one instance and
// tags every outbound request with a per-invocation X-Request-Id.
type Client struct {
	log        logrus.FieldLogger
	backend    string
	baseURL    string
	headers    []auth.Header
	requestID  string
	httpClient *http.Client
}

// New creates a client for one backend of an instance. The backend name is
// used for logging and error messages only.
func New(log logrus.FieldLogger, backend string, cfg *config.Backend, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		log:       log.WithField("backend", backend),
		backend:   backend,
		baseURL:   strings.TrimSuffix(cfg.URL, "/"),
		headers:   auth.Headers(cfg),
		requestID: uuid.NewString(),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// get executes a GET against path with the given query parameters and
// returns the response body. Any non-2xx status or transport failure is a
// BackendError; partial results are never returned.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &BackendError{Backend: c.backend, Message: fmt.Sprintf("creating request: %v", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", c.requestID)

	for _, h := range c.headers {
		req.Header.Set(h.Name, h.Value)
	}

	c.log.WithFields(logrus.Fields{
		"url":        fullURL,
		"request_id": c.requestID,
	}).Debug("Executing query")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &BackendError{Backend: c.backend, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Backend: c.backend, Message: fmt.Sprintf("reading response body: %v", err)}
	}

	c.log.WithFields(logrus.Fields{
		"status": resp.StatusCode,
		"bytes":  len(body),
	}).Debug("Query completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &BackendError{
			Backend: c.backend,
			Status:  resp.StatusCode,
			Message: errorMessage(body),
		}
	}

	return body, nil
}

// getJSON executes get and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) ([]byte, error) {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return nil, &BackendError{Backend: c.backend, Message: fmt.Sprintf("parsing response: %v", err)}
	}

	return body, nil
}

// errorMessage extracts the backend's error message from a failed response
// body. Loki and Prometheus wrap it in the v1 API envelope; anything else is
// returned as-is.
func errorMessage(body []byte) string {
	var envelope struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}

	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "no error message in response"
	}

	return msg
}

// apiResponse is the response envelope shared by the Loki and Prometheus v1
// query APIs.
type apiResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error,omitempty"`
}

// unmarshalData decodes the data section of an API envelope.
func unmarshalData(c *Client, data json.RawMessage, out any) error {
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &BackendError{Backend: c.backend, Message: fmt.Sprintf("parsing response data: %v", err)}
	}

	return nil
}

// checkStatus rejects envelopes whose status field is not "success".
func (c *Client) checkStatus(resp *apiResponse) error {
	if resp.Status != "" && resp.Status != "success" {
		return &BackendError{Backend: c.backend, Message: fmt.Sprintf("query failed with status %q: %s", resp.Status, resp.Error)}
	}

	return nil
}
