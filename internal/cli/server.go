package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eduquiz-service/internal/config"
	transport "eduquiz-service/internal/transport/http"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server (REST API and live play over websocket)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	// Load eagerly so a broken store fails the start instead of the first request.
	if _, err := d.store.Snapshot(ctx); err != nil {
		return err
	}

	cfg := d.cfg
	tokens := transport.NewTokens(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TokenTTL, 7*24*time.Hour))
	accessLog := logrus.StandardLogger().WriterLevel(logrus.InfoLevel)
	defer accessLog.Close()

	handler := transport.NewRouter(transport.Services{
		Auth:     d.auth,
		Catalog:  d.catalog,
		Rankings: d.rankings,
		Play:     d.play,
		Data:     d.data,
	}, tokens, accessLog)

	server := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: websocket play connections stay open for a whole quiz
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.Infof("starting quiz service on :%s (store: %s)", cfg.Server.Port, cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
