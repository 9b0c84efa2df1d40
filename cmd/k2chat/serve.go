package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/k2-chat/backend/internal/handler"
	"github.com/zhouzirui/k2-chat/backend/internal/render"
	"github.com/zhouzirui/k2-chat/backend/internal/service/chat"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API over HTTP, SSE and WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	chatSvc := chat.NewService(a.opts)
	defer chatSvc.Close()

	janitor, err := chat.StartJanitor(chatSvc, a.cfg.Chat.SweepInterval, nil, a.logger.Named("janitor"))
	if err != nil {
		return err
	}

	router := handler.NewRouter(a.profiles, chatSvc, a.table, render.NewFormatter(), a.logger)
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("K2 chat backend listening", zap.String("addr", srv.Addr))
		return runServer(ctx, srv)
	})
	g.Go(func() error {
		<-ctx.Done()
		return janitor.Shutdown()
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("server stopped", zap.Error(err))
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
