package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pokgak/lgtm-cli/pkg/client"
	"github.com/pokgak/lgtm-cli/pkg/config"
)

var promCmd = &cobra.Command{
	Use:   "prom",
	Short: "Query Prometheus/Mimir metrics",
}

var (
	promStart  string
	promEnd    string
	promSince  string
	promStep   string
	promTime   string
	promMetric string
)

var promQueryCmd = &cobra.Command{
	Use:   "query QUERY",
	Short: "Run an instant query",
	Long: `Run an instant PromQL query, evaluated at a single point in time.

Examples:
  lgtm prom query 'up{job="prometheus"}'
  lgtm prom query 'rate(http_requests_total[5m])'`,
	Args: cobra.ExactArgs(1),
	RunE: runPromQuery,
}

var promRangeCmd = &cobra.Command{
	Use:   "range QUERY",
	Short: "Run a range query",
	Long: `Run a PromQL range query over a time window.

Examples:
  lgtm prom range 'rate(http_requests_total[5m])'
  lgtm prom range 'up' --step 5m --start 2024-01-15T10:00:00Z`,
	Args: cobra.ExactArgs(1),
	RunE: runPromRange,
}

var promLabelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List available labels",
	Args:  cobra.NoArgs,
	RunE:  runPromLabels,
}

var promLabelValuesCmd = &cobra.Command{
	Use:   "label-values LABEL",
	Short: "List values for a label",
	Long: `List values for a label.

Examples:
  lgtm prom label-values job
  lgtm prom label-values __name__   # list all metric names`,
	Args: cobra.ExactArgs(1),
	RunE: runPromLabelValues,
}

var promSeriesCmd = &cobra.Command{
	Use:   "series MATCH...",
	Short: "List series matching selectors",
	Long: `List time series matching one or more selectors.

Examples:
  lgtm prom series 'up'
  lgtm prom series 'http_requests_total{job="api"}'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPromSeries,
}

var promMetadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Get metric metadata",
	Long: `Get metric metadata.

Examples:
  lgtm prom metadata
  lgtm prom metadata --metric http_requests_total`,
	Args: cobra.NoArgs,
	RunE: runPromMetadata,
}

func init() {
	rootCmd.AddCommand(promCmd)
	promCmd.AddCommand(promQueryCmd, promRangeCmd, promLabelsCmd, promLabelValuesCmd, promSeriesCmd, promMetadataCmd)

	promQueryCmd.Flags().StringVarP(&promTime, "time", "t", "", "evaluation time (RFC3339, default: now)")

	promRangeCmd.Flags().StringVarP(&promStart, "start", "s", "", "start time (RFC3339 or unix seconds, default: 15 minutes ago)")
	promRangeCmd.Flags().StringVarP(&promEnd, "end", "e", "", "end time (RFC3339 or unix seconds, default: now)")
	promRangeCmd.Flags().StringVar(&promSince, "since", "", "trailing window width instead of --start (e.g. 1h)")
	promRangeCmd.Flags().StringVar(&promStep, "step", defaultPromStep, "resolution step")

	promMetadataCmd.Flags().StringVarP(&promMetric, "metric", "m", "", "filter by metric name")

	for _, c := range []*cobra.Command{promLabelsCmd, promLabelValuesCmd, promSeriesCmd} {
		c.Flags().StringVarP(&promStart, "start", "s", "", "start time filter")
		c.Flags().StringVarP(&promEnd, "end", "e", "", "end time filter")
	}
}

func promClient() (*client.Prometheus, error) {
	backend, err := backendSettings(config.BackendPrometheus)
	if err != nil {
		return nil, err
	}

	return client.NewPrometheus(log, backend, timeout), nil
}

func runPromQuery(cmd *cobra.Command, args []string) error {
	c, err := promClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	result, err := c.Query(cmd.Context(), args[0], promTime)
	if err != nil {
		return err
	}

	return renderer.QueryResult(result)
}

func runPromRange(cmd *cobra.Command, args []string) error {
	if _, err := parseDurationFlag("step", promStep); err != nil {
		return err
	}

	c, err := promClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	start, end, err := resolveRange(promStart, promEnd, promSince, time.Now(), false)
	if err != nil {
		return err
	}

	result, err := c.QueryRange(cmd.Context(), args[0], start, end, promStep)
	if err != nil {
		return err
	}

	return renderer.QueryResult(result)
}

func runPromLabels(cmd *cobra.Command, args []string) error {
	c, err := promClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	result, err := c.Labels(cmd.Context(), promStart, promEnd)
	if err != nil {
		return err
	}

	return renderer.Labels(result)
}

func runPromLabelValues(cmd *cobra.Command, args []string) error {
	c, err := promClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	result, err := c.LabelValues(cmd.Context(), args[0], promStart, promEnd)
	if err != nil {
		return err
	}

	return renderer.Labels(result)
}

func runPromSeries(cmd *cobra.Command, args []string) error {
	c, err := promClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	result, err := c.Series(cmd.Context(), args, promStart, promEnd)
	if err != nil {
		return err
	}

	return renderer.Series(result)
}

func runPromMetadata(cmd *cobra.Command, args []string) error {
	c, err := promClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	result, err := c.Metadata(cmd.Context(), promMetric)
	if err != nil {
		return err
	}

	return renderer.Metadata(result)
}
