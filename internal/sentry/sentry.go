// Package sentry wires error tracking through Better Stack's
// Sentry-compatible ingestion. Handler faults caught at the dispatch boundary
// are reported here so a turn that errored is visible even though the user
// only sees the apology string.
package sentry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config describes the Better Stack Errors connection.
type Config struct {
	Token       string // application token; empty disables reporting
	Host        string // ingesting host, e.g. "errors.betterstack.com"
	Environment string
	Release     string
	SampleRate  float64 // 0 means report everything
	Debug       bool
}

// Initialize configures the SDK. With an empty token the package stays
// dormant and every capture call is a no-op.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return errors.New("sentry host is required when token is provided")
	}

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		// Better Stack ignores the project ID but the SDK requires one.
		Dsn:              fmt.Sprintf("https://%s@%s/1", cfg.Token, cfg.Host),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       rate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// IsEnabled reports whether Initialize configured a client.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureError reports err, preferring the request-scoped hub installed by
// the sentrygin middleware over the global one.
func CaptureError(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// Flush blocks until buffered events are delivered or the timeout elapses.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
