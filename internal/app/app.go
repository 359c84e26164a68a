package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/auth"
	"github.com/MrSnakeDoc/smartmark/internal/config"
	"github.com/MrSnakeDoc/smartmark/internal/dashboard"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/platform"
	"github.com/MrSnakeDoc/smartmark/internal/redis"
	"github.com/MrSnakeDoc/smartmark/internal/scheduler"
	"github.com/MrSnakeDoc/smartmark/internal/sources/providers"
	"github.com/MrSnakeDoc/smartmark/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/smartmark/internal/store/redis"
	"github.com/MrSnakeDoc/smartmark/internal/store/sqlite"
	"github.com/MrSnakeDoc/smartmark/internal/utils"
	"github.com/MrSnakeDoc/smartmark/internal/version"
)

type App struct {
	cfg       *config.Config
	logger    logger.Logger
	server    *httpserver.Server
	screens   *dashboard.Registry
	collector *scheduler.ScreenCollector
	closers   []namedCloser // released in reverse order on shutdown
}

type namedCloser struct {
	name string
	c    io.Closer
}

// backend is what a store backend contributes to the platform client.
type backend struct {
	table      platform.BookmarkTable
	changes    platform.ChangeFeed
	sessions   auth.SessionStore
	components map[string]deps.Pinger
	closers    []namedCloser
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	catalogue, err := providers.NewLoader(cfg.ProvidersFile).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load providers: %w", err)
	}
	loggerClient.Info("sign-in providers loaded",
		logger.String("providers", fmt.Sprint(catalogue.Names())))

	// Fail fast if the store is unavailable
	be, err := openBackend(cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	idp, err := auth.New(auth.Options{
		PlatformURL: cfg.PlatformURL,
		AccessKey:   cfg.PlatformKey,
		Providers:   catalogue.Names(),
		SessionTTL:  cfg.SessionTTL,
	}, be.sessions, loggerClient)
	if err != nil {
		closeAll(loggerClient, be.closers)
		return nil, fmt.Errorf("failed to build identity provider: %w", err)
	}

	client, err := platform.NewClient(idp, be.table, be.changes)
	if err != nil {
		closeAll(loggerClient, be.closers)
		return nil, err
	}

	screens := dashboard.NewRegistry(client, dashboard.Options{CallTimeout: cfg.CallTimeout}, loggerClient)
	collector := scheduler.NewScreenCollector(screens, loggerClient, cfg.ScreenGCInterval, cfg.ScreenIdleTTL)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		Client:       client,
		Screens:      screens,
		Providers:    catalogue,
		CallbackURL:  cfg.CallbackURL(),
		SessionTTL:   cfg.SessionTTL,
		SecureCookie: cfg.SecureCookie,
		StoreBackend: cfg.StoreBackend,
		Components:   be.components,
		RateLimit: deps.RateLimit{
			Burst:      cfg.RateLimitBurst,
			PerMinute:  cfg.RateLimitPerMinute,
			MaxEntries: cfg.RateLimitMaxIPs,
		},
	}

	return &App{
		cfg:       cfg,
		logger:    loggerClient,
		server:    httpserver.New(cfg.ListenPort, d),
		screens:   screens,
		collector: collector,
		closers:   be.closers,
	}, nil
}

// openBackend wires the bookmark table, change feed and session store of the
// configured backend.
func openBackend(cfg *config.Config, log logger.Logger) (*backend, error) {
	if !cfg.UsesRedis() {
		log.Warn("memory store backend: bookmarks and sessions are lost on restart")
		feed := memory.NewFeed()
		return &backend{
			table:      memory.NewTable(feed),
			changes:    feed,
			sessions:   memory.NewSessions(),
			components: map[string]deps.Pinger{},
		}, nil
	}

	redisClient, err := redis.Connect(context.Background(), redis.OptionsFromConfig(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Redis initialized successfully")

	store := redisstore.NewStore(redisClient)
	feed := redisstore.NewChangeFeed(store, log)
	be := &backend{
		table:      redisstore.NewBookmarkTable(store, feed),
		changes:    feed,
		sessions:   redisstore.NewSessionStore(store),
		components: map[string]deps.Pinger{"redis": store},
		closers:    []namedCloser{{name: "redis", c: redisClient}},
	}

	if cfg.StoreBackend == config.BackendSQLite {
		table, err := sqlite.Open(cfg.SQLitePath, feed)
		if err != nil {
			closeAll(log, be.closers)
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.Info("SQLite store opened", logger.String("path", cfg.SQLitePath))

		be.table = table
		be.components["sqlite"] = table
		be.closers = append(be.closers, namedCloser{name: "sqlite", c: table})
	}

	return be, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting smartmark v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("smartmark %s (commit=%s, built=%s, go=%s, store=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion, a.cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.collector.Start(ctx); err != nil {
		return fmt.Errorf("failed to start screen collector: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.collector.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	// Every screen releases its change subscription before the feed goes away.
	a.screens.CloseAll()
	closeAll(a.logger, a.closers)

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ smartmark stopped cleanly")
	return nil
}

func closeAll(log logger.Logger, closers []namedCloser) {
	for i := len(closers) - 1; i >= 0; i-- {
		utils.CloseLogged(log, closers[i].name, closers[i].c)
	}
}
