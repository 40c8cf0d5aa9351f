package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pokgak/lgtm-cli/pkg/config"
)

// Log query directions.
const (
	DirectionBackward = "backward"
	DirectionForward  = "forward"
)

// Loki queries a Loki-compatible log store.
type Loki struct {
	*Client
}

// NewLoki creates a Loki client for the given backend settings.
func NewLoki(log logrus.FieldLogger, cfg *config.Backend, timeout time.Duration) *Loki {
	return &Loki{Client: New(log, config.BackendLoki, cfg, timeout)}
}

// QueryRange executes a LogQL range query. Start and end are RFC3339 or
// unix timestamps, passed through to the backend.
func (l *Loki) QueryRange(ctx context.Context, query, start, end string, limit int, direction string) (*QueryResult, error) {
	params := url.Values{
		"query":     {query},
		"start":     {start},
		"end":       {end},
		"limit":     {strconv.Itoa(limit)},
		"direction": {direction},
	}

	return l.query(ctx, "/loki/api/v1/query_range", params)
}

// QueryInstant executes an instant LogQL query, for metric-style queries
// like count_over_time. An empty evaluation time means "now".
func (l *Loki) QueryInstant(ctx context.Context, query, ts string) (*QueryResult, error) {
	params := url.Values{"query": {query}}
	if ts != "" {
		params.Set("time", ts)
	}

	return l.query(ctx, "/loki/api/v1/query", params)
}

func (l *Loki) query(ctx context.Context, path string, params url.Values) (*QueryResult, error) {
	var resp apiResponse

	body, err := l.getJSON(ctx, path, params, &resp)
	if err != nil {
		return nil, err
	}

	if err := l.checkStatus(&resp); err != nil {
		return nil, err
	}

	return l.parseQueryData(resp.Data, body)
}

// Labels lists the label names in the store, optionally restricted to a
// time range.
func (l *Loki) Labels(ctx context.Context, start, end string) (*LabelsResult, error) {
	return l.labels(ctx, "/loki/api/v1/labels", start, end)
}

// LabelValues lists the values of one label.
func (l *Loki) LabelValues(ctx context.Context, label, start, end string) (*LabelsResult, error) {
	return l.labels(ctx, "/loki/api/v1/label/"+url.PathEscape(label)+"/values", start, end)
}

func (l *Loki) labels(ctx context.Context, path, start, end string) (*LabelsResult, error) {
	params := url.Values{}
	if start != "" {
		params.Set("start", start)
	}

	if end != "" {
		params.Set("end", end)
	}

	var resp apiResponse

	body, err := l.getJSON(ctx, path, params, &resp)
	if err != nil {
		return nil, err
	}

	if err := l.checkStatus(&resp); err != nil {
		return nil, err
	}

	result := &LabelsResult{Raw: body}
	if err := unmarshalData(l.Client, resp.Data, &result.Values); err != nil {
		return nil, err
	}

	return result, nil
}

// Series lists the log series matching the given stream selectors.
func (l *Loki) Series(ctx context.Context, matches []string, start, end string) (*SeriesResult, error) {
	params := url.Values{"match[]": matches}
	if start != "" {
		params.Set("start", start)
	}

	if end != "" {
		params.Set("end", end)
	}

	var resp apiResponse

	body, err := l.getJSON(ctx, "/loki/api/v1/series", params, &resp)
	if err != nil {
		return nil, err
	}

	if err := l.checkStatus(&resp); err != nil {
		return nil, err
	}

	result := &SeriesResult{Raw: body}
	if err := unmarshalData(l.Client, resp.Data, &result.Series); err != nil {
		return nil, err
	}

	return result, nil
}
