package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"

	"github.com/roopamkhare/fashion-vashion/internal/cache/cachelru"
	"github.com/roopamkhare/fashion-vashion/internal/database"
	"github.com/roopamkhare/fashion-vashion/internal/database/highscore"
	"github.com/roopamkhare/fashion-vashion/internal/leaderboard"
	"github.com/roopamkhare/fashion-vashion/internal/logging"
	"github.com/roopamkhare/fashion-vashion/internal/relay"
	"github.com/roopamkhare/fashion-vashion/internal/shutdown"
)

type config struct {
	Debug     bool `envconfig:"VASHION_DEBUG"`
	CacheSize int  `envconfig:"VASHION_CACHE_SIZE" default:"256"`

	DB    database.Config
	Relay relay.Config
}

func main() {
	ctx, done := shutdown.New()
	defer done()

	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		logging.DefaultLogger().Fatalf("processing the config: %v", err)
	}

	logger := logging.NewLogger(cfg.Debug)
	ctx = logging.WithLogger(ctx, logger)

	if err := realMain(ctx, cfg); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}

	logger.Info("bye")
}

func realMain(ctx context.Context, cfg config) error {
	logger := logging.FromContext(ctx).Named("main.realMain")

	db, err := database.NewFromEnv(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("new database from env: %w", err)
	}
	defer db.Close(ctx)

	scoreCache, err := cachelru.NewLRU(cfg.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create lru cache: %w", err)
	}
	scores := highscore.New(db, scoreCache)

	router := httprouter.New()
	rly := relay.New(cfg.Relay)
	rly.Routes(router)
	leaderboard.New(scores).Routes(router)

	srv := &http.Server{
		Addr:              cfg.Relay.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return rly.Run(ctx)
	})

	group.Go(func() error {
		logger.Infof("relay listening on %s", cfg.Relay.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
