package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pokgak/lgtm-cli/pkg/client"
	"github.com/pokgak/lgtm-cli/pkg/config"
)

var lokiCmd = &cobra.Command{
	Use:   "loki",
	Short: "Query Loki logs",
}

var (
	lokiStart     string
	lokiEnd       string
	lokiSince     string
	lokiLimit     int
	lokiDirection string
	lokiTime      string
)

var lokiQueryCmd = &cobra.Command{
	Use:   "query QUERY",
	Short: "Query logs with LogQL",
	Long: `Query logs with LogQL over a time range.

Examples:
  lgtm loki query '{app="myapp"}'
  lgtm loki query '{app="myapp"} |= "error"' --limit 100
  lgtm loki query '{app="myapp"}' --start 2024-01-15T10:00:00Z --end 2024-01-15T11:00:00Z
  lgtm loki query '{app="myapp"}' --since 1h`,
	Args: cobra.ExactArgs(1),
	RunE: runLokiQuery,
}

var lokiInstantCmd = &cobra.Command{
	Use:   "instant QUERY",
	Short: "Run an instant query (for metric queries like count_over_time)",
	Long: `Run an instant LogQL query.

Examples:
  lgtm loki instant 'count_over_time({app="myapp"}[5m])'
  lgtm loki instant 'sum by (level) (count_over_time({app="myapp"} | json [5m]))'`,
	Args: cobra.ExactArgs(1),
	RunE: runLokiInstant,
}

var lokiLabelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List available labels",
	Long:  `List available labels. Use this first to discover what labels exist before querying.`,
	Args:  cobra.NoArgs,
	RunE:  runLokiLabels,
}

var lokiLabelValuesCmd = &cobra.Command{
	Use:   "label-values LABEL",
	Short: "List values for a label",
	Long: `List values for a label.

Examples:
  lgtm loki label-values app
  lgtm loki label-values namespace`,
	Args: cobra.ExactArgs(1),
	RunE: runLokiLabelValues,
}

var lokiSeriesCmd = &cobra.Command{
	Use:   "series MATCH...",
	Short: "List series matching selectors",
	Long: `List log series matching one or more stream selectors.

Examples:
  lgtm loki series '{app="myapp"}'
  lgtm loki series '{namespace="prod"}' '{namespace="staging"}'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLokiSeries,
}

func init() {
	rootCmd.AddCommand(lokiCmd)
	lokiCmd.AddCommand(lokiQueryCmd, lokiInstantCmd, lokiLabelsCmd, lokiLabelValuesCmd, lokiSeriesCmd)

	lokiQueryCmd.Flags().StringVarP(&lokiStart, "start", "s", "", "start time (RFC3339 or unix seconds, default: 15 minutes ago)")
	lokiQueryCmd.Flags().StringVarP(&lokiEnd, "end", "e", "", "end time (RFC3339 or unix seconds, default: now)")
	lokiQueryCmd.Flags().StringVar(&lokiSince, "since", "", "trailing window width instead of --start (e.g. 1h)")
	lokiQueryCmd.Flags().IntVarP(&lokiLimit, "limit", "l", defaultLokiLimit, "max entries to return")
	lokiQueryCmd.Flags().StringVarP(&lokiDirection, "direction", "d", client.DirectionBackward, "scan direction (backward, forward)")

	lokiInstantCmd.Flags().StringVarP(&lokiTime, "time", "t", "", "evaluation time (RFC3339, default: now)")

	for _, c := range []*cobra.Command{lokiLabelsCmd, lokiLabelValuesCmd, lokiSeriesCmd} {
		c.Flags().StringVarP(&lokiStart, "start", "s", "", "start time filter")
		c.Flags().StringVarP(&lokiEnd, "end", "e", "", "end time filter")
	}
}

func lokiClient() (*client.Loki, error) {
	backend, err := backendSettings(config.BackendLoki)
	if err != nil {
		return nil, err
	}

	return client.NewLoki(log, backend, timeout), nil
}

func runLokiQuery(cmd *cobra.Command, args []string) error {
	if lokiDirection != client.DirectionBackward && lokiDirection != client.DirectionForward {
		return usageErrorf("invalid --direction %q (want backward or forward)", lokiDirection)
	}

	c, err := lokiClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	start, end, err := resolveRange(lokiStart, lokiEnd, lokiSince, time.Now(), false)
	if err != nil {
		return err
	}

	result, err := c.QueryRange(cmd.Context(), args[0], start, end, lokiLimit, lokiDirection)
	if err != nil {
		return err
	}

	return renderer.QueryResult(result)
}

func runLokiInstant(cmd *cobra.Command, args []string) error {
	c, err := lokiClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	result, err := c.QueryInstant(cmd.Context(), args[0], lokiTime)
	if err != nil {
		return err
	}

	return renderer.QueryResult(result)
}

func runLokiLabels(cmd *cobra.Command, args []string) error {
	c, err := lokiClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	result, err := c.Labels(cmd.Context(), lokiStart, lokiEnd)
	if err != nil {
		return err
	}

	return renderer.Labels(result)
}

func runLokiLabelValues(cmd *cobra.Command, args []string) error {
	c, err := lokiClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	result, err := c.LabelValues(cmd.Context(), args[0], lokiStart, lokiEnd)
	if err != nil {
		return err
	}

	return renderer.Labels(result)
}

func runLokiSeries(cmd *cobra.Command, args []string) error {
	c, err := lokiClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	result, err := c.Series(cmd.Context(), args, lokiStart, lokiEnd)
	if err != nil {
		return err
	}

	return renderer.Series(result)
}
