package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/wallet-topups/internal/api"
	"github.com/Veraticus/wallet-topups/internal/certs"
	"github.com/Veraticus/wallet-topups/internal/config"
	"github.com/Veraticus/wallet-topups/internal/engine"
	"github.com/Veraticus/wallet-topups/internal/monday"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API, mailbox poller and board sync",
		Long: `Start the admin REST API under /wallet-topups together with the
background mailbox poller and the monday.com sync worker.

Admin tokens come from api.tokens in the config file:

  api:
    tokens:
      alice: "long-random-token"`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate")
	cmd.Flags().Bool("metrics", false, "expose Prometheus metrics on /metrics")

	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))
	_ = viper.BindPFlag("server.metrics", cmd.Flags().Lookup("metrics"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	serverCfg, err := config.LoadServerConfig(viper.GetViper())
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, appOptions{gmail: true, sync: true})
	if err != nil {
		return err
	}
	defer a.Close()

	srv := api.NewServer(a.engine, serverCfg.Tokens, slog.Default())
	srv.SetVersion(version)
	srv.SetSyncStats(a.syncer.Stats)
	if serverCfg.MondayURL != "" {
		srv.SetBoardDirectory(func(token string) api.BoardDirectory {
			return monday.NewClient(token, monday.WithAPIURL(serverCfg.MondayURL))
		})
	}
	if serverCfg.Metrics {
		srv.EnableMetrics()
	}

	httpServer := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if serverCfg.TLS {
		tlsConfig, err := certs.TLSConfig(certs.NewFileManager(serverCfg.CertDir))
		if err != nil {
			return fmt.Errorf("failed to prepare TLS: %w", err)
		}
		httpServer.TLSConfig = tlsConfig
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Admin API listening",
			"addr", serverCfg.Addr,
			"tls", serverCfg.TLS,
			"admins", len(serverCfg.Tokens),
			"mailbox", a.engine.HasMailSource())
		var err error
		if serverCfg.TLS {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down admin API")
		return httpServer.Shutdown(shutdownCtx)
	})

	if a.engine.HasMailSource() {
		g.Go(func() error {
			return engine.NewPoller(a.engine, slog.Default()).Run(gctx)
		})
	}

	g.Go(func() error {
		return a.syncer.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
