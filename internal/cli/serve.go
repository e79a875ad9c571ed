package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/unit/internal/api"
	"github.com/rcliao/unit/internal/metrics"
)

// Set with -ldflags "-X github.com/rcliao/unit/internal/cli.Commit=...".
var (
	Commit    string
	BuildTime string
)

const shutdownTimeout = 10 * time.Second

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP backend",
		Run:   runServe,
	}

	cmd.Flags().StringP("listen", "l", "", "Listen address (default: :$PORT or :3000)")

	RootCmd.AddCommand(cmd)
}

func commit() string {
	if Commit != "" {
		return Commit
	}
	return os.Getenv("GIT_COMMIT")
}

func runServe(cmd *cobra.Command, args []string) {
	srv := cfg.Server
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		srv.Listen = listen
	}

	log := srv.NewLogger(os.Stdout)

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(s, api.Options{
		Metrics:     metrics.New(),
		Logger:      log,
		CORSOrigins: srv.CORSOrigins,
		Commit:      commit(),
		BuildTime:   BuildTime,
	})
	httpServer := &http.Server{
		Addr:              srv.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("unit backend started",
			"listen", srv.Listen,
			"db", s.Path(),
			"log_level", srv.LogLevel,
			"cors_origins", srv.CORSOrigins,
			"commit", commit())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		s.Close()
		exitErr("serve", err)
	}
}
