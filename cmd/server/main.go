// main wires high-level dependencies and keeps the process lifecycle small:
// config, stores, external adapters, the HTTP API, and the reconciliation
// loop. Business logic lives in the internal services packages.
//
// When no external backends are configured the process runs in development
// mode on in-memory implementations, which keeps it runnable standalone.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"trustbind/internal/binding"
	bindingmetrics "trustbind/internal/binding/metrics"
	bindingstore "trustbind/internal/binding/store"
	"trustbind/internal/ledger"
	"trustbind/internal/links"
	"trustbind/internal/oracle"
	"trustbind/internal/platform/config"
	"trustbind/internal/platform/httpserver"
	"trustbind/internal/platform/logger"
	platformredis "trustbind/internal/platform/redis"
	"trustbind/internal/reconcile"
	reconcilemetrics "trustbind/internal/reconcile/metrics"
	httptransport "trustbind/internal/transport/http"
	"trustbind/internal/trust"
	"trustbind/pkg/domain"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Binding store: postgres when configured, in-memory otherwise.
	var store bindingstore.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open postgres")
		}
		defer db.Close()
		pg := bindingstore.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensure postgres schema")
		}
		store = pg
	} else {
		store = bindingstore.NewInMemory()
	}

	// Oracle: primary + optional secondary, with an optional redis cache in
	// front of credential lookups.
	var orc oracle.Oracle
	var feed oracle.Feed
	devMode := cfg.Oracle.PrimaryURL == ""
	if devMode {
		log.Warn().Msg("no oracle configured, running in development mode with in-memory backends")
		orc = oracle.NewMemory()
		feed = oracle.NewChannelFeed()
	} else {
		primary := oracle.NewHTTPClient(cfg.Oracle.PrimaryURL, cfg.Oracle.Timeout)
		var secondary oracle.Oracle
		if cfg.Oracle.SecondaryURL != "" {
			secondary = oracle.NewHTTPClient(cfg.Oracle.SecondaryURL, cfg.Oracle.Timeout)
		}
		orc = oracle.NewFallback(primary, secondary)

		kafkaFeed, err := oracle.NewKafkaFeed(ctx, cfg.Kafka, log)
		if err != nil {
			log.Fatal().Err(err).Msg("connect oracle event feed")
		}
		defer kafkaFeed.Close()
		feed = kafkaFeed
	}

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	if rdb != nil {
		defer rdb.Close()
		orc = oracle.NewCache(orc, rdb, cfg.Redis.CacheTTL)
	}

	var linkRegistry links.Registry
	if cfg.Links.URL != "" {
		linkRegistry = links.NewHTTPClient(cfg.Links.URL, cfg.Links.Timeout)
	} else {
		linkRegistry = links.NewMemory()
	}

	var group domain.Account
	if cfg.Ledger.Group != "" {
		group, err = domain.ParseAccount(cfg.Ledger.Group)
		if err != nil {
			log.Fatal().Err(err).Msg("parse ledger group")
		}
	}
	var groupLedger ledger.GroupLedger
	if cfg.Ledger.URL != "" {
		groupLedger = ledger.NewHTTPClient(cfg.Ledger, group)
	} else {
		groupLedger = ledger.NewMemory()
	}

	bindingSvc := binding.NewService(store, orc, linkRegistry, bindingmetrics.New(), log)
	trustSvc := trust.NewService(group, bindingSvc, orc, groupLedger, log)
	reconciler := reconcile.New(feed, trustSvc, store, cfg.Reconcile, reconcilemetrics.New(), log)

	handler := httptransport.NewHandler(trustSvc, bindingSvc, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	log.Info().Str("addr", cfg.Addr).Msg("starting trustbind")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return reconciler.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("trustbind exited with error")
	}
	log.Info().Msg("trustbind stopped")
}
