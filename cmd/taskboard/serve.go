package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/db"
	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/config"
	"github.com/monocle-dev/taskboard/internal/handlers"
	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/monocle-dev/taskboard/internal/notify"
	"github.com/monocle-dev/taskboard/internal/router"
	"github.com/monocle-dev/taskboard/internal/scheduler"
	"github.com/monocle-dev/taskboard/internal/services"
	"github.com/monocle-dev/taskboard/internal/storage"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logutils.WithComponent("server")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	gdb, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	if err := db.Migrate(gdb); err != nil {
		return err
	}

	store, err := storage.NewDisk(cfg.UploadDir)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	hub := notify.NewHub()
	notifier := notify.NewNotifier(gdb, hub)
	async := notify.NewAsyncDispatcher(notifier)
	defer async.Wait()

	var dispatcher notify.Dispatcher = async

	if cfg.RedisURL != "" {
		queue, err := notify.NewQueueDispatcher(cfg.RedisURL, async)
		if err != nil {
			return err
		}
		defer queue.Close()

		stopWorker, err := notify.StartWorker(cfg.RedisURL, notifier)
		if err != nil {
			return err
		}
		defer stopWorker()

		dispatcher = queue
		log.Info("Notification fan-out runs on the Redis queue")
	}

	h := &handlers.Handler{
		DB:             gdb,
		Users:          services.NewUserService(gdb, tokens),
		Projects:       services.NewProjectService(gdb, store, notifier, dispatcher),
		Tasks:          services.NewTaskService(gdb, store, notifier, dispatcher),
		Attachments:    services.NewAttachmentService(gdb, store, dispatcher),
		Comments:       services.NewCommentService(gdb, dispatcher),
		Notifications:  services.NewNotificationService(gdb),
		Hub:            hub,
		AllowedOrigins: types.AllowedOrigins(cfg.AllowedOrigins...),
	}

	sweeper := scheduler.NewSweeper(gdb, store, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	return listen(cmd.Context(), cfg, router.NewRouter(h, tokens))
}

// listen serves until SIGINT or SIGTERM and then drains open requests.
func listen(parent context.Context, cfg *config.Config, handler http.Handler) error {
	if parent == nil {
		parent = context.Background()
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logutils.WithComponent("server")

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.WithField("port", cfg.Port).Info("Server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
