package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pokgak/lgtm-cli/pkg/config"
)

// Tempo queries a Tempo-compatible trace store.
type Tempo struct {
	*Client
}

// NewTempo creates a Tempo client for the given backend settings.
func NewTempo(log logrus.FieldLogger, cfg *config.Backend, timeout time.Duration) *Tempo {
	return &Tempo{Client: New(log, config.BackendTempo, cfg, timeout)}
}

// SearchRequest holds the parameters of a trace search. Start and end are
// unix seconds; durations use Prometheus notation (100ms, 1s).
type SearchRequest struct {
	Query       string
	Start       string
	End         string
	MinDuration string
	MaxDuration string
	Limit       int
}

// Search searches traces with TraceQL.
func (t *Tempo) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	params := url.Values{"limit": {strconv.Itoa(req.Limit)}}
	if req.Query != "" {
		params.Set("q", req.Query)
	}

	if req.Start != "" {
		params.Set("start", req.Start)
	}

	if req.End != "" {
		params.Set("end", req.End)
	}

	if req.MinDuration != "" {
		params.Set("minDuration", req.MinDuration)
	}

	if req.MaxDuration != "" {
		params.Set("maxDuration", req.MaxDuration)
	}

	var resp struct {
		Traces []TraceSummary `json:"traces"`
	}

	body, err := t.getJSON(ctx, "/api/search", params, &resp)
	if err != nil {
		return nil, err
	}

	return &SearchResult{Traces: resp.Traces, Raw: body}, nil
}

// Trace fetches one trace by ID. The span payload is passed through
// unmodified.
func (t *Tempo) Trace(ctx context.Context, traceID string) (*TraceResult, error) {
	body, err := t.get(ctx, "/api/traces/"+url.PathEscape(traceID), nil)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, &BackendError{Backend: t.backend, Message: fmt.Sprintf("trace %s response is not valid JSON", traceID)}
	}

	return &TraceResult{Raw: body}, nil
}

// Tags lists the tag names available for search.
func (t *Tempo) Tags(ctx context.Context) (*LabelsResult, error) {
	var resp struct {
		TagNames []string `json:"tagNames"`
	}

	body, err := t.getJSON(ctx, "/api/search/tags", nil, &resp)
	if err != nil {
		return nil, err
	}

	return &LabelsResult{Values: resp.TagNames, Raw: body}, nil
}

// TagValues lists the values of one tag.
func (t *Tempo) TagValues(ctx context.Context, tag string) (*LabelsResult, error) {
	var resp struct {
		TagValues []string `json:"tagValues"`
	}

	body, err := t.getJSON(ctx, "/api/search/tag/"+url.PathEscape(tag)+"/values", nil, &resp)
	if err != nil {
		return nil, err
	}

	return &LabelsResult{Values: resp.TagValues, Raw: body}, nil
}
