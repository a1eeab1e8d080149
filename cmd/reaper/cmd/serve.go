package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/compute-reaper/internal/metrics"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run purge cycles on an interval and expose metrics",
	Long: `Run the reaper as a long-lived process: one purge cycle per interval, with
Prometheus metrics and a health endpoint. Cycles stay strictly sequential; a
new cycle never starts while the previous one is running.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify and log but suppress all deletes")
}

func runServe(cmd *cobra.Command, args []string) error {
	coordinator, store, err := buildCoordinator(dryRun)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	interval, err := time.ParseDuration(viper.GetString("serve.interval"))
	if err != nil {
		return fmt.Errorf("invalid serve.interval: %w", err)
	}
	listen := viper.GetString("serve.listen")

	logger := newLogger("serve")
	collector := metrics.NewCollector()

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:         listen,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		logger.Infof("metrics listening on %s", listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("metrics server failed: %v", err)
		}
	}()

	logger.Infof("running a purge cycle every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cycle := func() {
		report, err := coordinator.Run(ctx)
		collector.Observe(report, err)
		if err != nil {
			logger.Errorf("cycle failed: %v", err)
		}
	}

	// First cycle immediately, then on the interval.
	cycle()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("shutdown signal received, stopping")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case <-ticker.C:
			cycle()
		}
	}
}
