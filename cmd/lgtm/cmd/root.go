// Package cmd provides the CLI commands for lgtm.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pokgak/lgtm-cli/pkg/client"
	"github.com/pokgak/lgtm-cli/pkg/config"
	"github.com/pokgak/lgtm-cli/pkg/output"
)

// Exit codes per error category.
const (
	exitOK      = 0
	exitUsage   = 2
	exitConfig  = 3
	exitBackend = 4
)

var (
	cfgFile      string
	instanceName string
	logLevel     string
	outputFormat string
	timeout      time.Duration
	log          *logrus.Logger
)

func init() {
	log = logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

var rootCmd = &cobra.Command{
	Use:   "lgtm",
	Short: "Query Loki, Prometheus, and Tempo from the command line",
	Long: `lgtm queries Loki, Prometheus, and Tempo compatible backends using
their native query APIs and renders the results to the terminal.

Sensible defaults are built in:
  - Default time range: last 15 minutes (override with --start/--end/--since)
  - Default limits: 50 for logs, 20 for traces

Instances are configured in ` + "`~/.config/lgtm/config.yaml`" + ` and selected
with -i/--instance.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(strings.ToLower(logLevel))
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: LGTM_CONFIG env var or ~/.config/lgtm/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&instanceName, "instance", "i", "",
		"instance name from config (default: default_instance)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "",
		"output format: text or json (default: text on a terminal, json when piped)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", client.DefaultTimeout,
		"HTTP request timeout")
}

// Execute runs the root command and maps the error taxonomy to exit codes:
// 0 success, 2 usage, 3 config, 4 backend.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var (
		configErr  *config.Error
		backendErr *client.BackendError
	)

	switch {
	case errors.As(err, &configErr):
		fmt.Fprintf(os.Stderr, "Error (config): %v\n", err)
		return exitConfig
	case errors.As(err, &backendErr):
		fmt.Fprintf(os.Stderr, "Error (backend): %v\n", err)
		return exitBackend
	default:
		// Everything else is a usage problem: cobra flag/arg errors and our
		// own usage errors both land here.
		fmt.Fprintf(os.Stderr, "Error (usage): %v\n", err)
		return exitUsage
	}
}

// usageError is a bad or missing CLI argument.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// backendSettings resolves the active instance and returns its settings for
// the requested backend kind. A selected instance without that backend is a
// usage error.
func backendSettings(kind string) (*config.Backend, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	inst, err := cfg.GetInstance(instanceName)
	if err != nil {
		return nil, err
	}

	backend := inst.ForKind(kind)
	if backend == nil {
		return nil, usageErrorf("%s is not configured for instance %q", kind, inst.Name)
	}

	return backend, nil
}

// newRenderer builds the renderer for stdout from the --output flag.
func newRenderer() (*output.Renderer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, usageErrorf("%v", err)
	}

	return output.NewRenderer(os.Stdout, format), nil
}
