// Package output renders query results for terminal display.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/pokgak/lgtm-cli/pkg/client"
	"github.com/pokgak/lgtm-cli/pkg/config"
)

// Format selects how results are rendered.
type Format string

// Supported output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format flag value. An empty value picks a default
// based on whether stdout is a terminal: text for humans, JSON for pipes.
func ParseFormat(value string) (Format, error) {
	switch value {
	case "":
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return FormatText, nil
		}

		return FormatJSON, nil
	case string(FormatText):
		return FormatText, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", value)
	}
}

// Renderer writes query results to a terminal. It performs no network or
// file access.
type Renderer struct {
	out    io.Writer
	format Format
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, format Format) *Renderer {
	return &Renderer{out: out, format: format}
}

// noResults is printed for every empty result so that success-with-nothing
// is distinguishable from a crash.
const noResults = "no results"

// QueryResult renders a Loki or Prometheus query response.
func (r *Renderer) QueryResult(res *client.QueryResult) error {
	if r.format == FormatJSON {
		return r.rawJSON(res.Raw)
	}

	if res.Empty() {
		return r.println(noResults)
	}

	switch res.ResultType {
	case client.ResultTypeStreams:
		return r.streams(res.Streams)
	case client.ResultTypeVector:
		return r.vector(res.Vector)
	case client.ResultTypeMatrix:
		return r.matrix(res.Matrix)
	case client.ResultTypeScalar:
		return r.println(fmt.Sprintf("%s @ %s", res.Scalar.Value, formatTimestamp(res.Scalar.Timestamp)))
	default:
		return r.rawJSON(res.Raw)
	}
}

func (r *Renderer) streams(streams []client.Stream) error {
	for _, stream := range streams {
		if err := r.println(formatLabels(stream.Labels)); err != nil {
			return err
		}

		for _, entry := range stream.Entries {
			if err := r.println("  " + formatNanoTimestamp(entry[0]) + "  " + entry[1]); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Renderer) vector(samples []client.Sample) error {
	for _, sample := range samples {
		line := fmt.Sprintf("%s => %s @ %s",
			formatLabels(sample.Metric), sample.Value.Value, formatTimestamp(sample.Value.Timestamp))
		if err := r.println(line); err != nil {
			return err
		}
	}

	return nil
}

func (r *Renderer) matrix(series []client.SeriesSamples) error {
	for _, s := range series {
		if err := r.println(formatLabels(s.Metric)); err != nil {
			return err
		}

		for _, v := range s.Values {
			if err := r.println("  " + formatTimestamp(v.Timestamp) + "  " + v.Value); err != nil {
				return err
			}
		}
	}

	return nil
}

// Labels renders a label-names, label-values, tag-names, or tag-values list.
func (r *Renderer) Labels(res *client.LabelsResult) error {
	if r.format == FormatJSON {
		return r.rawJSON(res.Raw)
	}

	if len(res.Values) == 0 {
		return r.println(noResults)
	}

	for _, value := range res.Values {
		if err := r.println(value); err != nil {
			return err
		}
	}

	return nil
}

// Series renders a series list, one label set per line.
func (r *Renderer) Series(res *client.SeriesResult) error {
	if r.format == FormatJSON {
		return r.rawJSON(res.Raw)
	}

	if len(res.Series) == 0 {
		return r.println(noResults)
	}

	for _, labels := range res.Series {
		if err := r.println(formatLabels(labels)); err != nil {
			return err
		}
	}

	return nil
}

// Metadata renders a metric metadata response.
func (r *Renderer) Metadata(res *client.MetadataResult) error {
	if r.format == FormatJSON {
		return r.rawJSON(res.Raw)
	}

	if len(res.Metadata) == 0 {
		return r.println(noResults)
	}

	names := make([]string, 0, len(res.Metadata))
	for name := range res.Metadata {
		names = append(names, name)
	}

	sort.Strings(names)

	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, name := range names {
		for _, meta := range res.Metadata[name] {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", name, meta.Type, meta.Help)
		}
	}

	return tw.Flush()
}

// Search renders a Tempo trace search response.
func (r *Renderer) Search(res *client.SearchResult) error {
	if r.format == FormatJSON {
		return r.rawJSON(res.Raw)
	}

	if len(res.Traces) == 0 {
		return r.println(noResults)
	}

	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TRACE ID\tSERVICE\tNAME\tSTART\tDURATION")

	for _, trace := range res.Traces {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dms\n",
			trace.TraceID, trace.RootServiceName, trace.RootTraceName,
			formatNanoTimestamp(trace.StartTimeUnixNano), trace.DurationMs)
	}

	return tw.Flush()
}

// Trace renders a trace-by-ID response. The span payload is backend-owned,
// so it is pretty-printed as JSON in both modes.
func (r *Renderer) Trace(res *client.TraceResult) error {
	return r.rawJSON(res.Raw)
}

// Instances renders the configured instance names with their backend URLs.
// The default instance is marked.
func (r *Renderer) Instances(cfg *config.Config) error {
	if r.format == FormatJSON {
		doc := map[string]any{
			"default":   cfg.DefaultInstance,
			"instances": map[string]any{},
		}

		instances := doc["instances"].(map[string]any)
		for name, inst := range cfg.Instances {
			entry := map[string]any{}
			for _, kind := range []string{config.BackendLoki, config.BackendPrometheus, config.BackendTempo} {
				if backend := inst.ForKind(kind); backend != nil {
					entry[kind] = backend.URL
				}
			}

			instances[name] = entry
		}

		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}

		return r.println(string(data))
	}

	if len(cfg.Instances) == 0 {
		return r.println(noResults)
	}

	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTANCE\tLOKI\tPROMETHEUS\tTEMPO")

	for _, name := range cfg.InstanceNames() {
		inst := cfg.Instances[name]
		display := name
		if name == cfg.DefaultInstance {
			display += " (default)"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", display,
			backendURL(inst.Loki), backendURL(inst.Prometheus), backendURL(inst.Tempo))
	}

	return tw.Flush()
}

func backendURL(b *config.Backend) string {
	if b == nil {
		return "-"
	}

	return b.URL
}

// rawJSON pretty-prints the raw backend response.
func (r *Renderer) rawJSON(raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		// Not valid JSON; print as-is.
		return r.println(string(raw))
	}

	return r.println(buf.String())
}

func (r *Renderer) println(line string) error {
	_, err := fmt.Fprintln(r.out, line)
	return err
}

// formatLabels renders a label set in selector notation with sorted keys.
func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%q", key, labels[key]))
	}

	return "{" + strings.Join(pairs, ", ") + "}"
}

// formatTimestamp renders a unix-seconds timestamp as RFC3339.
func formatTimestamp(ts float64) string {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))

	return time.Unix(sec, nsec).UTC().Format(time.RFC3339)
}

// formatNanoTimestamp renders a unix-nanoseconds string timestamp as
// RFC3339. Unparseable values are returned as-is.
func formatNanoTimestamp(value string) string {
	ns, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return value
	}

	return time.Unix(0, ns).UTC().Format(time.RFC3339)
}
