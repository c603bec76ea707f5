package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/topomap/internal/cache"
	"github.com/annel0/topomap/internal/config"
	"github.com/annel0/topomap/internal/logging"
	"github.com/annel0/topomap/internal/render"
	"github.com/annel0/topomap/internal/storage"
	"github.com/annel0/topomap/internal/world"
	"github.com/prometheus/client_golang/prometheus"
)

// App связывает компоненты сервера карт: хранилище, мир, карты, кеш и сервис тайлов
type App struct {
	Config   *config.Config
	Store    *storage.Store // nil без постоянного хранилища
	World    *world.World
	Maps     []*render.Map
	Metrics  *render.Metrics
	Renderer *render.TileRenderer
	Cache    cache.TileCache // nil без кеша
	Tiles    *render.TileService

	invalidator *cache.NATSInvalidator
	log         *logging.Logger
}

// Options управляет тем, какие компоненты поднимать
type Options struct {
	// WithCache включает кеш тайлов (память или Redis) и NATS-инвалидацию
	WithCache bool
	// InMemory открывает хранилище в памяти вместо диска
	InMemory bool
	// Registry - регистр метрик отрисовки; nil - метрики не регистрируются
	Registry prometheus.Registerer
}

// New поднимает компоненты по конфигурации. При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config, opts Options) (a *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("конфигурация: %w", err)
	}

	a = &App{Config: cfg, log: logging.GetServerLogger()}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	switch {
	case opts.InMemory:
		a.Store, err = storage.OpenInMemory()
	case cfg.Storage.Path != "":
		a.Store, err = storage.Open(cfg.Storage.Path)
	}
	if err != nil {
		return nil, err
	}

	var chunks world.ChunkStore
	if a.Store != nil {
		chunks = a.Store
	}
	a.World, err = world.NewWorld(cfg.World.Name, cfg.World.Seed, cfg.World.Height, chunks)
	if err != nil {
		return nil, err
	}

	a.Maps, err = render.BuildMaps(cfg)
	if err != nil {
		return nil, err
	}

	a.Metrics = render.NewMetrics(opts.Registry)
	a.Renderer = render.NewTileRenderer(a.World, a.Metrics)

	if opts.WithCache {
		if err = a.openCache(ctx); err != nil {
			return nil, err
		}
	}

	a.Tiles = render.NewTileService(a.Renderer, a.Cache, a.Maps, a.Metrics)
	a.log.Info("Мир %s (seed=%d, высота=%d), карт: %d", cfg.World.Name, cfg.World.Seed, cfg.World.Height, len(a.Maps))
	return a, nil
}

// openCache создаёт кеш тайлов; хранилище служит для него Cold Storage
func (a *App) openCache(ctx context.Context) error {
	cfg := a.Config.Cache

	var cold cache.ColdStorage
	if a.Store != nil {
		cold = a.Store
	}

	var inv cache.CacheInvalidator
	if cfg.NATSURL != "" {
		nats, err := cache.NewNATSInvalidator(&cache.InvalidatorConfig{NATSURL: cfg.NATSURL}, cfg.NodeID)
		if err != nil {
			return err
		}
		a.invalidator = nats
		inv = nats
	}

	switch cfg.Backend {
	case "memory":
		mc := cache.NewMemoryCache(cfg.TTL, cold)
		a.Cache = mc
		if inv != nil {
			return mc.UseInvalidator(ctx, inv)
		}
	case "redis":
		rc, err := cache.NewRedisCache(&cache.CacheConfig{
			RedisURL:           cfg.RedisURL,
			RedisPassword:      cfg.RedisPassword,
			RedisDB:            cfg.RedisDB,
			DefaultTTL:         cfg.TTL,
			WriteBehindEnabled: cfg.WriteBehind,
		}, cold, inv)
		if err != nil {
			return err
		}
		a.Cache = rc
		return rc.SubscribeInvalidations(ctx)
	default:
		return fmt.Errorf("неизвестный кеш %q (memory|redis)", cfg.Backend)
	}
	return nil
}

// Map возвращает карту по имени
func (a *App) Map(name string) (*render.Map, error) {
	return a.Tiles.Map(name)
}

// Close освобождает ресурсы в обратном порядке
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.invalidator != nil {
		errs = append(errs, a.invalidator.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
