package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokgak/lgtm-cli/pkg/config"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func TestClientAttachesHeaders(t *testing.T) {
	var got http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(testLogger(), "loki", &config.Backend{
		URL:   srv.URL,
		Token: "secret",
		Headers: map[string]string{
			"X-Scope-OrgID": "dev",
		},
	}, 0)

	_, err := c.get(context.Background(), "/loki/api/v1/labels", nil)
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", got.Get("Authorization"))
	assert.Equal(t, "dev", got.Get("X-Scope-OrgID"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.NotEmpty(t, got.Get("X-Request-Id"))
}

func TestClientRequestIDStableAcrossRequests(t *testing.T) {
	var ids []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-Id"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(testLogger(), "loki", &config.Backend{URL: srv.URL}, 0)

	_, err := c.get(context.Background(), "/a", nil)
	require.NoError(t, err)
	_, err = c.get(context.Background(), "/b", nil)
	require.NoError(t, err)

	require.Len(t, ids, 2)
	assert.Equal(t, ids[0], ids[1])
}

func TestClientNon2xxIsBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","error":"parse error: unexpected end of input"}`))
	}))
	defer srv.Close()

	c := New(testLogger(), "loki", &config.Backend{URL: srv.URL}, 0)

	body, err := c.get(context.Background(), "/loki/api/v1/query_range", nil)
	require.Error(t, err)
	assert.Nil(t, body, "a failed request must not return data")

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusInternalServerError, backendErr.Status)
	assert.Contains(t, backendErr.Message, "parse error")
	assert.Contains(t, err.Error(), "500")
}

func TestClientNon2xxPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "trace not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testLogger(), "tempo", &config.Backend{URL: srv.URL}, 0)

	_, err := c.get(context.Background(), "/api/traces/abc", nil)
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusNotFound, backendErr.Status)
	assert.Equal(t, "trace not found", backendErr.Message)
}

func TestClientConnectionRefused(t *testing.T) {
	// Reserve a port and close it so the connection is refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(testLogger(), "prometheus", &config.Backend{URL: url}, 0)

	_, err := c.get(context.Background(), "/api/v1/labels", nil)
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Zero(t, backendErr.Status)
}

func TestClientMalformedJSONIsBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	c := New(testLogger(), "prometheus", &config.Backend{URL: srv.URL}, 0)

	var out apiResponse

	_, err := c.getJSON(context.Background(), "/api/v1/labels", nil, &out)
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Contains(t, backendErr.Message, "parsing response")
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(testLogger(), "loki", &config.Backend{URL: srv.URL + "/"}, 0)

	_, err := c.get(context.Background(), "/loki/api/v1/labels", nil)
	require.NoError(t, err)
	assert.Equal(t, "/loki/api/v1/labels", gotPath)
}
