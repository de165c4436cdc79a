package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/drawberry-games/drawberry/internal/buildinfo"
	"github.com/drawberry-games/drawberry/internal/cache"
	"github.com/drawberry-games/drawberry/internal/database"
	stateDb "github.com/drawberry-games/drawberry/internal/database/matchstate/database"
	statDb "github.com/drawberry-games/drawberry/internal/database/stat/database"
	userDb "github.com/drawberry-games/drawberry/internal/database/user/database"
	"github.com/drawberry-games/drawberry/internal/drawberry"
	"github.com/drawberry-games/drawberry/internal/eventbus"
	"github.com/drawberry-games/drawberry/internal/logging"
	"github.com/drawberry-games/drawberry/internal/server"
	"github.com/drawberry-games/drawberry/internal/shutdown"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(os.Stdout, buildinfo.GreetingCLI, buildinfo.ProjectName, buildinfo.Version, buildinfo.GithubURL)

	ctx, done := shutdown.New()
	defer done()

	// a missing .env is fine, the environment wins anyway
	_ = godotenv.Load()

	config := drawberry.Config{}
	if err := envconfig.Process("", &config); err != nil {
		logging.FromContext(ctx).Fatalf("processing the config: %v", err)
	}

	ctx = logging.WithLogger(ctx, logging.NewLogger(config.Debug))
	logger := logging.FromContext(ctx)

	if err := realMain(ctx, &config); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context, config *drawberry.Config) error {
	logger := logging.FromContext(ctx)

	db, err := database.NewFromEnv(ctx, &config.Db)
	if err != nil {
		return fmt.Errorf("new database from env: %w", err)
	}

	defer db.Close(ctx)

	userCache, err := cache.NewLRU(config.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create lru cache: %w", err)
	}

	statCache, err := cache.NewLRU(config.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create lru cache: %w", err)
	}

	srv, err := server.New(config.Port)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	manager := drawberry.NewManager(ctx, config, userDb.New(db, userCache), statDb.New(db, statCache), stateDb.New(db))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("listening on %s:%s", srv.IP(), srv.Port())
		if err := srv.ServeHTTP(ctx, &http.Server{Handler: manager.Handler(ctx)}); err != nil {
			return fmt.Errorf("srv.ServeHTTP: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		if err := manager.Run(ctx); err != nil {
			return fmt.Errorf("manager.Run: %w", err)
		}

		return nil
	})

	if config.Bus.Enabled() {
		g.Go(func() error {
			if err := eventbus.New(config.Bus, manager).Run(ctx); err != nil {
				return fmt.Errorf("eventbus.Run: %w", err)
			}

			return nil
		})
	} else {
		logger.Infof("DRAWBERRY_NATS_URL is empty, event bus disabled")
	}

	return g.Wait()
}
