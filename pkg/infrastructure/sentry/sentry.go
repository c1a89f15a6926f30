// Package sentry wraps the Sentry SDK for the pipeline's job handlers.
// Initialization is optional: without a DSN every call is a no-op so
// local runs need no Sentry project.
package sentry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

type Config struct {
	DSN         string
	Environment string
	ServerName  string
}

// Init configures the global Sentry client. Safe to call with an empty
// DSN; error tracking is simply disabled.
func Init(cfg Config, logger *slog.Logger) error {
	if cfg.DSN == "" {
		logger.Warn("Sentry DSN not configured - error tracking disabled")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		ServerName:  cfg.ServerName,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// Strip credentials before events leave the process.
			if event.Request != nil && event.Request.Headers != nil {
				delete(event.Request.Headers, "Authorization")
				delete(event.Request.Headers, "Cookie")
			}
			return event
		},
	})
	if err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}

	logger.Info("Sentry initialized", "environment", cfg.Environment)
	return nil
}

// CaptureJobError reports a failed job run with the job name and target
// date attached as event context.
func CaptureJobError(err error, job string, date string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("job", job)
		scope.SetContext("job_run", sentry.Context{
			"job":  job,
			"date": date,
		})
		sentry.CaptureException(err)
	})
}

// Flush drains pending events. Call before the process exits so events
// from the final job run are not lost.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
