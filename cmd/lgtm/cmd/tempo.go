package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pokgak/lgtm-cli/pkg/client"
	"github.com/pokgak/lgtm-cli/pkg/config"
)

var tempoCmd = &cobra.Command{
	Use:   "tempo",
	Short: "Query Tempo traces",
}

var (
	tempoQuery       string
	tempoStart       string
	tempoEnd         string
	tempoSince       string
	tempoMinDuration string
	tempoMaxDuration string
	tempoLimit       int
)

var tempoSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search traces with TraceQL",
	Long: `Search traces with TraceQL.

Examples:
  lgtm tempo search -q '{resource.service.name="api"}'
  lgtm tempo search -q '{status=error}' --min-duration 1s
  lgtm tempo search --min-duration 500ms --limit 50`,
	Args: cobra.NoArgs,
	RunE: runTempoSearch,
}

var tempoTraceCmd = &cobra.Command{
	Use:   "trace TRACE_ID",
	Short: "Get a trace by ID",
	Long: `Fetch a single trace by ID.

Examples:
  lgtm tempo trace abc123def456`,
	Args: cobra.ExactArgs(1),
	RunE: runTempoTrace,
}

var tempoTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List available tags",
	Long:  `List available tags. Use this first to discover what tags/attributes exist.`,
	Args:  cobra.NoArgs,
	RunE:  runTempoTags,
}

var tempoTagValuesCmd = &cobra.Command{
	Use:   "tag-values TAG",
	Short: "List values for a tag",
	Long: `List values for a tag.

Examples:
  lgtm tempo tag-values service.name
  lgtm tempo tag-values http.status_code`,
	Args: cobra.ExactArgs(1),
	RunE: runTempoTagValues,
}

func init() {
	rootCmd.AddCommand(tempoCmd)
	tempoCmd.AddCommand(tempoSearchCmd, tempoTraceCmd, tempoTagsCmd, tempoTagValuesCmd)

	tempoSearchCmd.Flags().StringVarP(&tempoQuery, "query", "q", "", "TraceQL query")
	tempoSearchCmd.Flags().StringVarP(&tempoStart, "start", "s", "", "start time (unix seconds, default: 15 minutes ago)")
	tempoSearchCmd.Flags().StringVarP(&tempoEnd, "end", "e", "", "end time (unix seconds, default: now)")
	tempoSearchCmd.Flags().StringVar(&tempoSince, "since", "", "trailing window width instead of --start (e.g. 1h)")
	tempoSearchCmd.Flags().StringVar(&tempoMinDuration, "min-duration", "", "minimum trace duration (e.g. 100ms, 1s)")
	tempoSearchCmd.Flags().StringVar(&tempoMaxDuration, "max-duration", "", "maximum trace duration")
	tempoSearchCmd.Flags().IntVarP(&tempoLimit, "limit", "l", defaultTempoLimit, "max traces to return")
}

func tempoClient() (*client.Tempo, error) {
	backend, err := backendSettings(config.BackendTempo)
	if err != nil {
		return nil, err
	}

	return client.NewTempo(log, backend, timeout), nil
}

func runTempoSearch(cmd *cobra.Command, args []string) error {
	minDuration, err := parseDurationFlag("min-duration", tempoMinDuration)
	if err != nil {
		return err
	}

	maxDuration, err := parseDurationFlag("max-duration", tempoMaxDuration)
	if err != nil {
		return err
	}

	c, err := tempoClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	start, end, err := resolveRange(tempoStart, tempoEnd, tempoSince, time.Now(), true)
	if err != nil {
		return err
	}

	result, err := c.Search(cmd.Context(), client.SearchRequest{
		Query:       tempoQuery,
		Start:       start,
		End:         end,
		MinDuration: minDuration,
		MaxDuration: maxDuration,
		Limit:       tempoLimit,
	})
	if err != nil {
		return err
	}

	return renderer.Search(result)
}

func runTempoTrace(cmd *cobra.Command, args []string) error {
	c, err := tempoClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	result, err := c.Trace(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return renderer.Trace(result)
}

func runTempoTags(cmd *cobra.Command, args []string) error {
	c, err := tempoClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	result, err := c.Tags(cmd.Context())
	if err != nil {
		return err
	}

	return renderer.Labels(result)
}

func runTempoTagValues(cmd *cobra.Command, args []string) error {
	c, err := tempoClient()
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	result, err := c.TagValues(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return renderer.Labels(result)
}
