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

func promTestServer(t *testing.T, wantPath, response string) (*Prometheus, *url.Values) {
	t.Helper()

	var params url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantPath, r.URL.Path)
		params = r.URL.Query()
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	return NewPrometheus(testLogger(), &config.Backend{URL: srv.URL}, 0), &params
}

func TestPrometheusQuery(t *testing.T) {
	response := `{
		"status": "success",
		"data": {
			"resultType": "vector",
			"result": [
				{"metric": {"__name__": "up", "job": "prometheus"}, "value": [1700000000.5, "1"]}
			]
		}
	}`

	c, params := promTestServer(t, "/api/v1/query", response)

	result, err := c.Query(context.Background(), `up{job="prometheus"}`, "")
	require.NoError(t, err)

	assert.Equal(t, `up{job="prometheus"}`, params.Get("query"))
	assert.False(t, params.Has("time"))

	require.Len(t, result.Vector, 1)
	assert.Equal(t, "1", result.Vector[0].Value.Value)
	assert.Equal(t, "up", result.Vector[0].Metric["__name__"])
}

func TestPrometheusQueryRange(t *testing.T) {
	response := `{
		"status": "success",
		"data": {
			"resultType": "matrix",
			"result": [
				{
					"metric": {"job": "api"},
					"values": [[1700000000, "0.5"], [1700000060, "0.7"]]
				}
			]
		}
	}`

	c, params := promTestServer(t, "/api/v1/query_range", response)

	result, err := c.QueryRange(context.Background(), "rate(http_requests_total[5m])",
		"2024-01-15T10:00:00Z", "2024-01-15T11:00:00Z", "60s")
	require.NoError(t, err)

	assert.Equal(t, "rate(http_requests_total[5m])", params.Get("query"))
	assert.Equal(t, "2024-01-15T10:00:00Z", params.Get("start"))
	assert.Equal(t, "2024-01-15T11:00:00Z", params.Get("end"))
	assert.Equal(t, "60s", params.Get("step"))

	assert.Equal(t, ResultTypeMatrix, result.ResultType)
	require.Len(t, result.Matrix, 1)
	require.Len(t, result.Matrix[0].Values, 2)
	assert.Equal(t, "0.7", result.Matrix[0].Values[1].Value)
}

func TestPrometheusScalar(t *testing.T) {
	response := `{"status":"success","data":{"resultType":"scalar","result":[1700000000,"2"]}}`

	c, _ := promTestServer(t, "/api/v1/query", response)

	result, err := c.Query(context.Background(), "1+1", "")
	require.NoError(t, err)

	require.NotNil(t, result.Scalar)
	assert.Equal(t, "2", result.Scalar.Value)
	assert.False(t, result.Empty())
}

func TestPrometheusLabelValues(t *testing.T) {
	response := `{"status":"success","data":["prometheus","node"]}`

	c, _ := promTestServer(t, "/api/v1/label/job/values", response)

	result, err := c.LabelValues(context.Background(), "job", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"prometheus", "node"}, result.Values)
}

func TestPrometheusSeries(t *testing.T) {
	response := `{"status":"success","data":[{"__name__":"up","job":"api"},{"__name__":"up","job":"db"}]}`

	c, params := promTestServer(t, "/api/v1/series", response)

	result, err := c.Series(context.Background(), []string{"up"}, "1700000000", "1700000900")
	require.NoError(t, err)

	assert.Equal(t, []string{"up"}, (*params)["match[]"])
	assert.Len(t, result.Series, 2)
}

func TestPrometheusMetadata(t *testing.T) {
	response := `{
		"status": "success",
		"data": {
			"http_requests_total": [
				{"type": "counter", "help": "Total HTTP requests.", "unit": ""}
			]
		}
	}`

	c, params := promTestServer(t, "/api/v1/metadata", response)

	result, err := c.Metadata(context.Background(), "http_requests_total")
	require.NoError(t, err)

	assert.Equal(t, "http_requests_total", params.Get("metric"))
	require.Contains(t, result.Metadata, "http_requests_total")
	assert.Equal(t, "counter", result.Metadata["http_requests_total"][0].Type)
}

func TestPrometheusMetadataNoFilter(t *testing.T) {
	response := `{"status":"success","data":{}}`

	c, params := promTestServer(t, "/api/v1/metadata", response)

	_, err := c.Metadata(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, params.Has("metric"))
}
