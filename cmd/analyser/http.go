package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	appserver "github.com/HendryAvila/analyser/internal/server"
)

const shutdownTimeout = 10 * time.Second

var httpAddr string

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Start the HTTP API",
	Long: `Serve the advisor, document generation and situation analysis over HTTP.
Requests authenticate with "Authorization: Bearer <token>"; tokens map to
users in the http.tokens section of the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if httpAddr != "" {
			cfg.HTTP.Addr = httpAddr
		}
		if len(cfg.HTTP.Tokens) == 0 {
			logger.Warn("no http tokens configured, every /v1 request will be rejected")
		}

		comp, cleanup, err := appserver.Build(cfg, logger)
		if err != nil {
			return fmt.Errorf("creating services: %w", err)
		}
		defer cleanup()

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           appserver.NewHTTPHandler(cfg, comp, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("http server starting", "addr", srv.Addr, "version", appserver.Version)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("http server shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	httpCmd.Flags().StringVar(&httpAddr, "addr", "", "Listen address (overrides http.addr)")
	rootCmd.AddCommand(httpCmd)
}
