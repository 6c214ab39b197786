package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moodlog/internal/config"
	"github.com/moodlog/internal/db"
	"github.com/moodlog/internal/handler"
	"github.com/moodlog/internal/router"
	"github.com/moodlog/internal/storage"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}
}

func (a *app) runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	gin.SetMode(a.cfg.GinMode)

	gdb, err := a.openDB()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer closeDB(gdb)

	created, err := db.EnsureUser(gdb, a.cfg.SuperRootUserName, a.cfg.SuperRootPassword, true)
	if err != nil {
		return fmt.Errorf("ensure super root user: %w", err)
	}
	if created {
		a.log.Info("super root user created", "username", a.cfg.SuperRootUserName)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	api := handler.NewAPI(handler.Options{
		DB:     gdb,
		Store:  store,
		Config: a.cfg,
		Logger: a.log,
	})
	routerOpts := router.Options{
		SessionSecret: a.cfg.SessionSecret,
		CORSOrigins:   a.cfg.CORSOrigins,
		UploadURLPath: a.cfg.UploadURLPath,
		Logger:        a.log,
	}
	if a.cfg.MemeStorage == config.MemeStorageLocal {
		routerOpts.UploadDir = a.cfg.UploadDir
	}

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           router.SetupRouter(api, routerOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

// openStore 按配置选择表情包的存储位置。
func (a *app) openStore(ctx context.Context) (storage.ObjectStore, func(), error) {
	if a.cfg.MemeStorage == config.MemeStorageGCS {
		gcs, err := storage.NewGCSStore(ctx, a.cfg.GCSBucket, a.cfg.GCSPublicBaseURL, a.log)
		if err != nil {
			return nil, nil, fmt.Errorf("open gcs store: %w", err)
		}
		return gcs, func() { _ = gcs.Close() }, nil
	}

	local, err := storage.NewLocalStore(a.cfg.UploadDir, a.cfg.UploadURLPath, a.log)
	if err != nil {
		return nil, nil, fmt.Errorf("open upload dir: %w", err)
	}
	return local, func() {}, nil
}
