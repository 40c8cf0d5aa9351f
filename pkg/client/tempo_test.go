package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokgak/lgtm-cli/pkg/config"
)

func tempoTestServer(t *testing.T, wantPath, response string) (*Tempo, *url.Values) {
	t.Helper()

	var params url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantPath, r.URL.Path)
		params = r.URL.Query()
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	return NewTempo(testLogger(), &config.Backend{URL: srv.URL}, 0), &params
}

func TestTempoSearch(t *testing.T) {
	response := `{
		"traces": [
			{
				"traceID": "2f3e0cee77ae5dc9c17ade3689eb2e54",
				"rootServiceName": "api",
				"rootTraceName": "GET /orders",
				"startTimeUnixNano": "1700000000000000000",
				"durationMs": 123
			}
		]
	}`

	c, params := tempoTestServer(t, "/api/search", response)

	result, err := c.Search(context.Background(), SearchRequest{
		Query:       `{resource.service.name="api"}`,
		Start:       "1700000000",
		End:         "1700000900",
		MinDuration: "100ms",
		Limit:       20,
	})
	require.NoError(t, err)

	assert.Equal(t, `{resource.service.name="api"}`, params.Get("q"))
	assert.Equal(t, "1700000000", params.Get("start"))
	assert.Equal(t, "1700000900", params.Get("end"))
	assert.Equal(t, "100ms", params.Get("minDuration"))
	assert.False(t, params.Has("maxDuration"))
	assert.Equal(t, "20", params.Get("limit"))

	require.Len(t, result.Traces, 1)
	assert.Equal(t, "2f3e0cee77ae5dc9c17ade3689eb2e54", result.Traces[0].TraceID)
	assert.Equal(t, "api", result.Traces[0].RootServiceName)
	assert.Equal(t, 123, result.Traces[0].DurationMs)
}

func TestTempoSearchNoQuery(t *testing.T) {
	response := `{"traces":[]}`

	c, params := tempoTestServer(t, "/api/search", response)

	result, err := c.Search(context.Background(), SearchRequest{Limit: 20})
	require.NoError(t, err)

	assert.False(t, params.Has("q"))
	assert.Empty(t, result.Traces)
}

func TestTempoTrace(t *testing.T) {
	response := `{"batches":[{"resource":{"attributes":[]}}]}`

	c, _ := tempoTestServer(t, "/api/traces/abc123def456", response)

	result, err := c.Trace(context.Background(), "abc123def456")
	require.NoError(t, err)
	assert.JSONEq(t, response, string(result.Raw))
}

func TestTempoTraceInvalidBody(t *testing.T) {
	c, _ := tempoTestServer(t, "/api/traces/abc", "not json at all")

	_, err := c.Trace(context.Background(), "abc")
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
}

func TestTempoTags(t *testing.T) {
	response := `{"tagNames":["service.name","http.status_code"]}`

	c, _ := tempoTestServer(t, "/api/search/tags", response)

	result, err := c.Tags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"service.name", "http.status_code"}, result.Values)
}

func TestTempoTagValues(t *testing.T) {
	response := `{"tagValues":["api","worker"]}`

	c, _ := tempoTestServer(t, "/api/search/tag/service.name/values", response)

	result, err := c.TagValues(context.Background(), "service.name")
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "worker"}, result.Values)
}

func TestTempoSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewTempo(testLogger(), &config.Backend{URL: srv.URL}, 0)

	result, err := c.Search(context.Background(), SearchRequest{Limit: 20})
	require.Error(t, err)
	assert.Nil(t, result)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusInternalServerError, backendErr.Status)
}
