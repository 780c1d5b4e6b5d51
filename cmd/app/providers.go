package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/astro-api/internal/domain/aspects"
	"github.com/yanqian/astro-api/internal/domain/astro"
	"github.com/yanqian/astro-api/internal/domain/auth"
	"github.com/yanqian/astro-api/internal/domain/ephemeris"
	"github.com/yanqian/astro-api/internal/infra/chartcache"
	"github.com/yanqian/astro-api/internal/infra/config"
	"github.com/yanqian/astro-api/internal/infra/ephemeris/analytic"
	"github.com/yanqian/astro-api/internal/infra/eventrepo"
	"github.com/yanqian/astro-api/internal/infra/orbprofiles"
)

func provideAstroConfig(cfg *config.Config) astro.Config {
	return cfg.AstroConfig()
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return cfg.AuthConfig()
}

func provideGateway() ephemeris.Gateway {
	return analytic.New()
}

func provideProfileRegistry(cfg *config.Config, logger *slog.Logger) (*aspects.Registry, error) {
	path := strings.TrimSpace(cfg.Aspects.ProfilesFile)
	if path == "" {
		logger.Info("orb profile file not set, using built-in profiles")
		return aspects.NewRegistry(aspects.DefaultCatalog(), cfg.Aspects.DefaultProfile)
	}
	catalog, fileDefault, err := orbprofiles.Load(path)
	if err != nil {
		return nil, err
	}
	def := cfg.Aspects.DefaultProfile
	if _, ok := catalog[strings.ToLower(def)]; !ok {
		logger.Warn("configured default profile missing from file, using file default", "profile", def, "fileDefault", fileDefault)
		def = fileDefault
	}
	logger.Info("orb profiles loaded", "path", path, "profiles", len(catalog), "default", def)
	return aspects.NewRegistry(catalog, def)
}

func provideProfileWatcher(cfg *config.Config, registry *aspects.Registry, logger *slog.Logger) *orbprofiles.Watcher {
	path := strings.TrimSpace(cfg.Aspects.ProfilesFile)
	if path == "" || !cfg.Aspects.Watch {
		return nil
	}
	return orbprofiles.NewWatcher(path, registry, logger)
}

func provideChartCache(cfg *config.Config, logger *slog.Logger) astro.Cache {
	if cfg.Cache.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return chartcache.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return chartcache.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
		} else {
			logger.Info("chart valkey cache enabled", "addr", cfg.Cache.Valkey.Addr)
			return chartcache.NewValkeyStore(client, cfg.Cache.Valkey.Prefix)
		}
	}
	return chartcache.NewMemoryStore()
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Cache.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Cache.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Cache.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	// cached responses are read with plain GETs; no client-side tracking
	opt.DisableCache = true
	return opt, nil
}

func provideEventRepository(cfg *config.Config, logger *slog.Logger) astro.EventRepository {
	fallback := eventrepo.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.Events.Postgres.DSN)
	if dsn == "" {
		logger.Info("events postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.Events.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Events.Postgres.MaxConns
	}
	if cfg.Events.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Events.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	repo := eventrepo.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("events schema setup failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("events postgres repository enabled")
	return repo
}
