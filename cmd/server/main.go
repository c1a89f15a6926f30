// Command server exposes the ingestion jobs over HTTP. Each job gets a
// POST endpoint that runs the job synchronously and reports the row
// count, matching how the scheduler invokes them.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/growthops/statusbrew-pipeline/pkg/bootstrap"
	"github.com/growthops/statusbrew-pipeline/pkg/infrastructure/sentry"
	"github.com/growthops/statusbrew-pipeline/pkg/jobs"
)

type jobFunc func(ctx context.Context, override *civil.Date) (*jobs.RunSummary, error)

func main() {
	logger := bootstrap.NewLogger("statusbrew-pipeline")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.NewService(ctx, logger)
	if err != nil {
		logger.Error("Failed to initialize service", "error", err)
		os.Exit(1)
	}
	defer svc.Statusbrew.Close()

	if err := sentry.Init(sentry.Config{
		DSN:         svc.Config.SentryDSN,
		Environment: svc.Config.Environment,
		ServerName:  "statusbrew-pipeline",
	}, logger); err != nil {
		logger.Error("Failed to initialize Sentry", "error", err)
		os.Exit(1)
	}
	defer sentry.Flush(2 * time.Second)

	runner := jobs.NewRunner(svc.Config, svc.Location, svc.Statusbrew, svc.Warehouse, svc.Notifier, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Post("/job/profile_daily", jobHandler(svc, "profile_daily", runner.RunProfileDaily))
	r.Post("/job/post_snapshots", jobHandler(svc, "post_snapshots", runner.RunPostSnapshots))
	r.Post("/job/follower_demographics", jobHandler(svc, "follower_demographics", runner.RunFollowerDemographics))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", svc.Config.Port),
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("Server listening", "port", svc.Config.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// jobHandler adapts a job run to HTTP. An optional ?date=YYYY-MM-DD
// query overrides the job's default reporting date; failures are
// reported to Sentry and Slack before the 500 goes out.
func jobHandler(svc *bootstrap.Service, name string, run jobFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var override *civil.Date
		if raw := req.URL.Query().Get("date"); raw != "" {
			parsed, err := civil.ParseDate(raw)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", raw), http.StatusBadRequest)
				return
			}
			override = &parsed
		}

		summary, err := run(req.Context(), override)
		if err != nil {
			svc.Logger.Error("Job failed", "job", name, "error", err)
			date := ""
			if override != nil {
				date = override.String()
			}
			sentry.CaptureJobError(err, name, date)
			svc.Notifier.Notify(req.Context(), fmt.Sprintf("[%s] Job failed: %v", name, err))
			http.Error(w, "job failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}
