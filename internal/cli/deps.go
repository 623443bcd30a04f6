package cli

import (
	"context"
	"time"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/config"
	"eduquiz-service/internal/infra/file"
	"eduquiz-service/internal/infra/memory"
	"eduquiz-service/internal/infra/postgres"
	redisinfra "eduquiz-service/internal/infra/redis"
	"eduquiz-service/internal/store"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// deps is everything a command needs, built from config and flags.
type deps struct {
	cfg      config.Config
	store    *store.Store
	tokens   app.TokenStore
	sessions app.SessionRepository

	auth     *app.AuthService
	catalog  *app.CatalogService
	rankings *app.RankingService
	play     *app.PlayService
	data     *app.DataService

	closers []func()
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if port != "" {
		cfg.Server.Port = port
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if storeFlag != "" {
		cfg.Store.Backend = storeFlag
	}
	if logLevel == "" && cfg.Log.Level != "" {
		if lvl, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
			logrus.SetLevel(lvl)
		}
	}
	return cfg, nil
}

func newDeps(ctx context.Context) (*deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg}

	var backend store.Backend
	switch cfg.Store.Backend {
	case config.BackendFile, "":
		backend = file.NewBlob(cfg.Store.Path)
		d.tokens = file.NewTokenStore(cfg.Auth.TokenPath)
		d.sessions = memory.NewSessionStore()
	case config.BackendMemory:
		backend = memory.NewBlob()
		d.tokens = memory.NewTokenStore()
		d.sessions = memory.NewSessionStore()
	case config.BackendRedis:
		if cfg.Redis.Addr == "" {
			return nil, errors.New("redis addr not configured")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { client.Close() })
		key := cfg.Store.Key
		if key == "" {
			key = redisinfra.DefaultDataKey
		}
		backend = redisinfra.NewBlob(client, key)
		d.tokens = redisinfra.NewTokenStore(client, key)
		d.sessions = redisinfra.NewSessionStore(client, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	case config.BackendPostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, errors.Wrap(err, "connect postgres")
		}
		d.closers = append(d.closers, pool.Close)
		backend = postgres.NewBlob(pool, cfg.Store.Key)
		d.tokens = file.NewTokenStore(cfg.Auth.TokenPath)
		d.sessions = memory.NewSessionStore()
	default:
		return nil, errors.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	logrus.WithField("backend", cfg.Store.Backend).Debug("store configured")

	d.store = store.New(backend)
	d.auth = app.NewAuthService(d.store, d.tokens)
	d.catalog = app.NewCatalogService(d.store)
	d.rankings = app.NewRankingService(d.store)
	d.play = app.NewPlayService(d.store, d.sessions)
	d.data = app.NewDataService(d.store)
	return d, nil
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}
