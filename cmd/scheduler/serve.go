package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-jobalert-scheduler/config"
	v1 "go-jobalert-scheduler/internal/delivery/http/v1"
	"go-jobalert-scheduler/internal/domain"
	redisrepo "go-jobalert-scheduler/internal/repository/redis"
	"go-jobalert-scheduler/internal/scheduler"
	"go-jobalert-scheduler/pkg/email"
	"go-jobalert-scheduler/pkg/logger"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin API, cron scheduler, mail worker and job event listener",
	RunE:  runServe,
}

var serveNoCron bool

func init() {
	serveCmd.Flags().BoolVar(&serveNoCron, "no-cron", false, "Serve the API without scheduling alert passes")
	rootCmd.AddCommand(serveCmd)
}

func scheduleEntries(cfg *config.Config) ([]scheduler.Entry, error) {
	entries := make([]scheduler.Entry, 0, len(cfg.Schedules))
	for _, s := range cfg.Schedules {
		typ, err := domain.ParseNotificationType(s.Type)
		if err != nil {
			return nil, err
		}
		entries = append(entries, scheduler.Entry{Type: typ, Spec: s.Cron})
	}
	return entries, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	logger.Log.Info("Starting job alert scheduler", "port", a.cfg.Port, "env", a.cfg.Environment)

	router := v1.NewRouter(v1.RouterDeps{
		AlertUC:     a.alertUC,
		SocialUC:    a.socialUC,
		ExportUC:    a.exportUC,
		HealthUC:    a.healthUC,
		Tokens:      a.tokens,
		Redis:       a.redis,
		CORSOrigins: a.cfg.AdminCORSOrigins,
	})
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var entries []scheduler.Entry
	if !serveNoCron {
		if entries, err = scheduleEntries(a.cfg); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if len(entries) > 0 {
		cron := scheduler.New(a.alertUC, entries)
		g.Go(func() error {
			if err := cron.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			cron.Stop()
			return nil
		})
	}

	if a.redis != nil {
		if a.cfg.MailWorkerEnabled {
			worker := email.NewWorker(a.queue, a.senders())
			g.Go(func() error { return worker.Run(gctx) })
		}
		events := redisrepo.NewJobEventSubscriber(a.redis, a.socialUC)
		g.Go(func() error { return events.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Server forced to shutdown", "error", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Log.Info("Server exiting")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// signalContext stops one-shot commands on Ctrl-C.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
