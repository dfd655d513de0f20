package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aquanode/aqua-engine/core/apqueue"
	"github.com/aquanode/aqua-engine/core/backup"
	"github.com/aquanode/aqua-engine/core/executor"
	"github.com/aquanode/aqua-engine/core/migrator"
	"github.com/aquanode/aqua-engine/core/scheduler"
	"github.com/aquanode/aqua-engine/core/workflowstore"
	"github.com/aquanode/aqua-engine/metrics"
	"github.com/aquanode/aqua-engine/migrations"
	"github.com/aquanode/aqua-engine/server"
	"github.com/aquanode/aqua-engine/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the workflow engine node",
	Long: `Initialize and run the full engine node: HTTP API, durable run queue,
and the cron scheduler.

Use --config=path-to-your-config-file, default is ./config/aqua-engine.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lg, err := mustLoadConfig()
		if err != nil {
			return err
		}
		defer lg.Sync()

		db, err := storage.NewWithPath(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		backupService := backup.NewService(lg, db, cfg.Storage.Path+"-backups")
		if err := migrator.NewMigrator(db, backupService, migrations.Migrations, lg).Run(); err != nil {
			return err
		}

		deps, err := buildDependencies(cfg, lg)
		if err != nil {
			return err
		}

		engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)
		engineMetrics.StartUptimeCounter(15 * time.Second)

		store := workflowstore.New(db, lg)
		x := executor.New(executor.Config{
			Store:        store,
			Dependencies: deps,
			Metrics:      engineMetrics,
			Logger:       lg,
		})

		queue := apqueue.New(db, &apqueue.QueueOption{Prefix: "default", Logger: lg})
		if err := queue.MustStart(); err != nil {
			return err
		}
		defer queue.Stop()

		worker := apqueue.NewWorker(queue, db)
		worker.RegisterProcessor(apqueue.JobTypeExecuteWorkflow, x)
		worker.MustStart()
		defer worker.Stop()

		// Re-fire runs that were in flight when the last process died.
		if err := queue.Recover(); err != nil {
			lg.Warn("queue recovery failed", "error", err)
		}

		// Drop queued runs whose workflow was deleted while the node was down.
		queue.SchedulePeriodicCleanup(time.Hour, func(owner, workflowID string) bool {
			_, err := store.Get(owner, workflowID)
			return err == nil
		})

		if cfg.Scheduler.Enabled {
			sched, err := scheduler.New(scheduler.Config{
				Store:   store,
				Queue:   queue,
				Metrics: engineMetrics,
				Logger:  lg,
			})
			if err != nil {
				return err
			}
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
		}

		srv := server.New(cfg, store, x, lg)
		go func() {
			if err := srv.Start(); err != nil {
				lg.Warn("HTTP server stopped", "error", err)
			}
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		lg.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
