package client

import (
	"context"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pokgak/lgtm-cli/pkg/config"
)

// Prometheus queries a Prometheus-compatible metrics store.
type Prometheus struct {
	*Client
}

// NewPrometheus creates a Prometheus client for the given backend settings.
func NewPrometheus(log logrus.FieldLogger, cfg *config.Backend, timeout time.Duration) *Prometheus {
	return &Prometheus{Client: New(log, config.BackendPrometheus, cfg, timeout)}
}

// Query executes an instant PromQL query. An empty evaluation time means
// "now" on the backend side.
func (p *Prometheus) Query(ctx context.Context, query, ts string) (*QueryResult, error) {
	params := url.Values{"query": {query}}
	if ts != "" {
		params.Set("time", ts)
	}

	return p.query(ctx, "/api/v1/query", params)
}

// QueryRange executes a PromQL range query with the given resolution step.
func (p *Prometheus) QueryRange(ctx context.Context, query, start, end, step string) (*QueryResult, error) {
	params := url.Values{
		"query": {query},
		"start": {start},
		"end":   {end},
		"step":  {step},
	}

	return p.query(ctx, "/api/v1/query_range", params)
}

func (p *Prometheus) query(ctx context.Context, path string, params url.Values) (*QueryResult, error) {
	var resp apiResponse

	body, err := p.getJSON(ctx, path, params, &resp)
	if err != nil {
		return nil, err
	}

	if err := p.checkStatus(&resp); err != nil {
		return nil, err
	}

	return p.parseQueryData(resp.Data, body)
}

// Labels lists the label names known to the backend.
func (p *Prometheus) Labels(ctx context.Context, start, end string) (*LabelsResult, error) {
	return p.labels(ctx, "/api/v1/labels", start, end)
}

// LabelValues lists the values of one label. Passing __name__ lists all
// metric names.
func (p *Prometheus) LabelValues(ctx context.Context, label, start, end string) (*LabelsResult, error) {
	return p.labels(ctx, "/api/v1/label/"+url.PathEscape(label)+"/values", start, end)
}

func (p *Prometheus) labels(ctx context.Context, path, start, end string) (*LabelsResult, error) {
	params := url.Values{}
	if start != "" {
		params.Set("start", start)
	}

	if end != "" {
		params.Set("end", end)
	}

	var resp apiResponse

	body, err := p.getJSON(ctx, path, params, &resp)
	if err != nil {
		return nil, err
	}

	if err := p.checkStatus(&resp); err != nil {
		return nil, err
	}

	result := &LabelsResult{Raw: body}
	if err := unmarshalData(p.Client, resp.Data, &result.Values); err != nil {
		return nil, err
	}

	return result, nil
}

// Series lists the time series matching the given selectors.
func (p *Prometheus) Series(ctx context.Context, matches []string, start, end string) (*SeriesResult, error) {
	params := url.Values{"match[]": matches}
	if start != "" {
		params.Set("start", start)
	}

	if end != "" {
		params.Set("end", end)
	}

	var resp apiResponse

	body, err := p.getJSON(ctx, "/api/v1/series", params, &resp)
	if err != nil {
		return nil, err
	}

	if err := p.checkStatus(&resp); err != nil {
		return nil, err
	}

	result := &SeriesResult{Raw: body}
	if err := unmarshalData(p.Client, resp.Data, &result.Series); err != nil {
		return nil, err
	}

	return result, nil
}

// Metadata returns metric metadata, optionally filtered to one metric name.
func (p *Prometheus) Metadata(ctx context.Context, metric string) (*MetadataResult, error) {
	params := url.Values{}
	if metric != "" {
		params.Set("metric", metric)
	}

	var resp apiResponse

	body, err := p.getJSON(ctx, "/api/v1/metadata", params, &resp)
	if err != nil {
		return nil, err
	}

	if err := p.checkStatus(&resp); err != nil {
		return nil, err
	}

	result := &MetadataResult{Raw: body}
	if err := unmarshalData(p.Client, resp.Data, &result.Metadata); err != nil {
		return nil, err
	}

	return result, nil
}
