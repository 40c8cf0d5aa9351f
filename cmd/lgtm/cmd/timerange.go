package cmd

import (
	"strconv"
	"time"

	"github.com/prometheus/common/model"
)

// Defaults applied when no time or limit flags are given.
const (
	defaultTimeRange  = 15 * time.Minute
	defaultLokiLimit  = 50
	defaultTempoLimit = 20
	defaultPromStep   = "60s"
)

// timeFormat is how default timestamps are sent to Loki and Prometheus.
const timeFormat = time.RFC3339

// resolveRange computes the start/end pair for a range-style command.
// Explicit start/end flags pass through unchanged; --since widens the
// trailing window; otherwise the last 15 minutes ending at now is used.
// now is captured once per invocation and never re-evaluated. When unix is
// set the defaults are rendered as unix seconds (Tempo), otherwise RFC3339.
func resolveRange(start, end, since string, now time.Time, unix bool) (string, string, error) {
	window := defaultTimeRange

	if since != "" {
		d, err := model.ParseDuration(since)
		if err != nil {
			return "", "", usageErrorf("invalid --since duration %q: %v", since, err)
		}

		window = time.Duration(d)
	}

	if end == "" {
		end = formatTime(now, unix)
	}

	if start == "" {
		start = formatTime(now.Add(-window), unix)
	}

	return start, end, nil
}

func formatTime(t time.Time, unix bool) string {
	if unix {
		return strconv.FormatInt(t.Unix(), 10)
	}

	return t.UTC().Format(timeFormat)
}

// parseDurationFlag validates a Prometheus-style duration flag (100ms, 1s,
// 5m, 1h). Empty values are allowed and pass through.
func parseDurationFlag(name, value string) (string, error) {
	if value == "" {
		return "", nil
	}

	if _, err := model.ParseDuration(value); err != nil {
		return "", usageErrorf("invalid --%s duration %q: %v", name, value, err)
	}

	return value, nil
}
