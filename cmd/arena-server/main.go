package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arena-core/internal/config"
	"arena-core/internal/logging"
	"arena-core/internal/maps"
	"arena-core/internal/match"
	"arena-core/internal/results"
	"arena-core/internal/scheduler"
	"arena-core/internal/spectatorgateway"
	"arena-core/internal/spectatorpush"
	"arena-core/internal/store"
	httptransport "arena-core/internal/transport/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)
	defer func() { _ = logging.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg.Server); err != nil {
		log.Error().Err(err).Msg("arena server failed")
		_ = logging.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.ServerConfig) error {
	specs, err := config.LoadGames(cfg.GamesConfigPath)
	if err != nil {
		return err
	}

	catalog := maps.NewCatalog()
	opts := match.Options{
		Maps:         catalog,
		UpdatePeriod: cfg.UpdatePeriodTicks,
		LinkTTL:      cfg.LinkTTL(),
	}
	if cfg.WorldsDir != "" {
		opts.Worlds = maps.NewDirProvider(cfg.WorldsDir)
	}
	sched := scheduler.New(cfg.TickRate)
	opts.Scheduler = sched
	manager := match.NewManager(opts)

	feed := spectatorgateway.NewFeed(cfg.FeedBufferSize)
	if err := feed.Subscribe(manager.Bus()); err != nil {
		return err
	}
	pushCfg, err := spectatorpush.ConfigFromServer(cfg)
	if err != nil {
		return err
	}
	push := spectatorpush.NewManager(pushCfg)
	if err := push.Subscribe(manager.Bus()); err != nil {
		return err
	}
	deps := httptransport.Deps{Scheduler: sched, Manager: manager, Feed: feed, AdminAPIKey: cfg.AdminAPIKey}
	var writer *results.Writer
	if cfg.PostgresDSN != "" {
		st, err := openStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer st.Close()
		deps.History = st
		deps.DB = st
		writer = results.NewWriter(st, results.Config{QueueSize: cfg.ResultQueueSize, Workers: 2, RetryMax: 3})
		if err := writer.Subscribe(manager.Bus()); err != nil {
			return err
		}
	} else {
		log.Warn().Msg("POSTGRES_DSN not set; match results are not persisted")
	}

	// The tick goroutine is not running yet, so setup may touch the manager
	// directly.
	if err := setupGames(manager, catalog, specs); err != nil {
		return err
	}

	r := httptransport.NewRouter(deps)
	httptransport.LogRoutes(r)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	schedCtx, stopSched := context.WithCancel(context.Background())
	defer stopSched()
	writerCtx, stopWriter := context.WithCancel(context.Background())
	defer stopWriter()
	if writer != nil {
		writer.Start(writerCtx)
	}
	pushCtx, stopPush := context.WithCancel(context.Background())
	defer stopPush()
	if err := push.Start(pushCtx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(schedCtx)
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		// Open event streams would hold Shutdown until the timeout.
		feed.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
		if err := sched.Do(shutdownCtx, manager.Shutdown); err != nil {
			log.Error().Err(err).Msg("manager shutdown failed")
		}
		stopSched()
		if writer != nil {
			if err := writer.Close(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("results writer did not drain")
			}
			stopWriter()
		}
		stopPush()
		return nil
	})
	return g.Wait()
}

func openStore(ctx context.Context, dsn string) (*store.Store, error) {
	st, err := store.New(dsn)
	if err != nil {
		return nil, err
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
