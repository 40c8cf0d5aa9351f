package client

import (
	"encoding/json"
	"fmt"
)

// Result types for the query shapes the Loki and Prometheus v1 APIs return.
// Every result keeps the raw response body so the renderer can emit it
// unmodified in JSON output mode.

// Stream is one log stream: a label set plus [timestamp, line] entries.
type Stream struct {
	Labels  map[string]string `json:"stream"`
	Entries [][2]string       `json:"values"`
}

// SamplePair is one [timestamp, value] sample. The APIs encode the
// timestamp as a JSON number and the value as a string.
type SamplePair struct {
	Timestamp float64
	Value     string
}

// UnmarshalJSON decodes the two-element array form.
func (p *SamplePair) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing sample pair: %w", err)
	}

	if err := json.Unmarshal(raw[0], &p.Timestamp); err != nil {
		return fmt.Errorf("parsing sample timestamp: %w", err)
	}

	if err := json.Unmarshal(raw[1], &p.Value); err != nil {
		return fmt.Errorf("parsing sample value: %w", err)
	}

	return nil
}

// Sample is one instant-vector element.
type Sample struct {
	Metric map[string]string `json:"metric"`
	Value  SamplePair        `json:"value"`
}

// SeriesSamples is one matrix element: a label set with its samples.
type SeriesSamples struct {
	Metric map[string]string `json:"metric"`
	Values []SamplePair      `json:"values"`
}

// Result types returned by Loki and Prometheus queries.
const (
	ResultTypeStreams = "streams"
	ResultTypeVector  = "vector"
	ResultTypeMatrix  = "matrix"
	ResultTypeScalar  = "scalar"
)

// QueryResult is a parsed Loki or Prometheus query response. Exactly one of
// Streams, Vector, Matrix, or Scalar is populated according to ResultType.
type QueryResult struct {
	ResultType string
	Streams    []Stream
	Vector     []Sample
	Matrix     []SeriesSamples
	Scalar     *SamplePair
	Raw        json.RawMessage
}

// Empty reports whether the result carries no data.
func (r *QueryResult) Empty() bool {
	return len(r.Streams) == 0 && len(r.Vector) == 0 && len(r.Matrix) == 0 && r.Scalar == nil
}

// parseQueryData decodes the data section of a query response into a
// QueryResult according to its resultType.
func (c *Client) parseQueryData(data json.RawMessage, raw []byte) (*QueryResult, error) {
	var typed struct {
		ResultType string          `json:"resultType"`
		Result     json.RawMessage `json:"result"`
	}

	if err := json.Unmarshal(data, &typed); err != nil {
		return nil, &BackendError{Backend: c.backend, Message: fmt.Sprintf("parsing query data: %v", err)}
	}

	result := &QueryResult{ResultType: typed.ResultType, Raw: raw}

	var err error

	switch typed.ResultType {
	case ResultTypeStreams:
		err = json.Unmarshal(typed.Result, &result.Streams)
	case ResultTypeVector:
		err = json.Unmarshal(typed.Result, &result.Vector)
	case ResultTypeMatrix:
		err = json.Unmarshal(typed.Result, &result.Matrix)
	case ResultTypeScalar:
		err = json.Unmarshal(typed.Result, &result.Scalar)
	default:
		// Unknown result types are kept raw for JSON output.
	}

	if err != nil {
		return nil, &BackendError{Backend: c.backend, Message: fmt.Sprintf("parsing %s result: %v", typed.ResultType, err)}
	}

	return result, nil
}

// LabelsResult is a parsed label-names, label-values, tag-names, or
// tag-values response.
type LabelsResult struct {
	Values []string
	Raw    json.RawMessage
}

// SeriesResult is a parsed series response: one label set per series.
type SeriesResult struct {
	Series []map[string]string
	Raw    json.RawMessage
}

// MetricMetadata describes one metric as reported by Prometheus.
type MetricMetadata struct {
	Type string `json:"type"`
	Help string `json:"help"`
	Unit string `json:"unit"`
}

// MetadataResult is a parsed metric metadata response.
type MetadataResult struct {
	Metadata map[string][]MetricMetadata
	Raw      json.RawMessage
}

// TraceSummary is one trace in a Tempo search response.
type TraceSummary struct {
	TraceID           string `json:"traceID"`
	RootServiceName   string `json:"rootServiceName"`
	RootTraceName     string `json:"rootTraceName"`
	StartTimeUnixNano string `json:"startTimeUnixNano"`
	DurationMs        int    `json:"durationMs"`
}

// SearchResult is a parsed Tempo search response.
type SearchResult struct {
	Traces []TraceSummary
	Raw    json.RawMessage
}

// TraceResult is a trace-by-ID response. Tempo's span payload is passed
// through unmodified.
type TraceResult struct {
	Raw json.RawMessage
}
