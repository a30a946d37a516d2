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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/xtrntr/p2pdesk/internal/api"
	"github.com/xtrntr/p2pdesk/internal/auth"
	"github.com/xtrntr/p2pdesk/internal/backoffice"
	"github.com/xtrntr/p2pdesk/internal/blobstore"
	"github.com/xtrntr/p2pdesk/internal/catalog"
	"github.com/xtrntr/p2pdesk/internal/config"
	"github.com/xtrntr/p2pdesk/internal/db"
	"github.com/xtrntr/p2pdesk/internal/events"
	"github.com/xtrntr/p2pdesk/internal/fee"
	"github.com/xtrntr/p2pdesk/internal/logging"
	"github.com/xtrntr/p2pdesk/internal/orders"
	"github.com/xtrntr/p2pdesk/internal/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:           "p2pdesk-server",
		Short:         "P2P crypto/fiat trading desk server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if debug {
				cfg.Log.Level = "debug"
			}
			log := logging.New(cfg.Log)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for auth.admin_password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	})
	return rootCmd
}

type storage struct {
	catalog catalog.Store
	orders  orders.Repository
	close   func()
}

func openStorage(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (*storage, error) {
	if cfg.Driver == "postgres" {
		database, err := db.NewDB(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.Migrations != "" {
			if err := database.Migrate(ctx, cfg.Migrations); err != nil {
				database.Close(ctx)
				return nil, fmt.Errorf("failed to apply migrations: %w", err)
			}
		}
		log.Info().Msg("Using postgres storage")
		return &storage{
			catalog: database.Catalog(),
			orders:  database.Orders(),
			close:   func() { database.Close(context.Background()) },
		}, nil
	}

	store := catalog.NewMemoryStore()
	if cfg.Seed {
		if err := catalog.Seed(ctx, store); err != nil {
			return nil, err
		}
	}
	log.Info().Bool("seeded", cfg.Seed).Msg("Using in-memory storage")
	return &storage{catalog: store, orders: orders.NewMemoryRepository(), close: func() {}}, nil
}

func openBlobs(path string, log zerolog.Logger) (blobstore.Store, error) {
	if path == "" {
		return blobstore.NewMemoryStore(), nil
	}
	store, err := blobstore.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Msg("Back-office records stored in sqlite")
	return store, nil
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		SampleRatio: cfg.Telemetry.SampleRatio,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to shut down tracer")
		}
	}()

	hub := events.NewHub(cfg.Events.BufferSize, log)

	store, err := openStorage(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer store.close()

	blobs, err := openBlobs(cfg.Storage.BlobPath, log)
	if err != nil {
		return err
	}
	defer blobs.Close()

	feeCfg, err := cfg.Fee.Model()
	if err != nil {
		return err
	}
	fees, err := fee.NewStore(feeCfg, hub)
	if err != nil {
		return err
	}

	catalogSvc := catalog.NewService(store.catalog, hub, log)
	orderSvc := orders.NewService(store.orders, catalogSvc, orders.NewFactory(fees), hub, log)
	backofficeSvc := backoffice.NewService(blobs, orderSvc, hub, log)
	catalogSvc.Gate = backofficeSvc
	authSvc := auth.NewAuthService(store.catalog, cfg.Auth.Service())

	if cfg.NATS.URL != "" {
		conn, err := events.DialNATS(cfg.NATS.URL, log)
		if err != nil {
			return err
		}
		defer conn.Drain()
		go events.NewBridge(conn, cfg.NATS.SubjectPrefix, log).Run(ctx, hub)
	}

	go orderSvc.RunSweeper(ctx, cfg.Orders.SweepInterval)

	handler := api.NewHandler(api.Handler{
		Auth:           authSvc,
		Catalog:        catalogSvc,
		Orders:         orderSvc,
		Fees:           fees,
		Backoffice:     backofficeSvc,
		Hub:            hub,
		StaticDir:      cfg.Server.StaticDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SecureCookies:  cfg.Auth.SecureCookies,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
