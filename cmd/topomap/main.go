package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/topomap/internal/api"
	"github.com/annel0/topomap/internal/app"
	"github.com/annel0/topomap/internal/auth"
	"github.com/annel0/topomap/internal/config"
	"github.com/annel0/topomap/internal/logging"
	"github.com/annel0/topomap/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "", "Путь к YAML конфигурации (по умолчанию $TOPOMAP_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Logging.Dir != "" {
		logging.SetLogDir(cfg.Logging.Dir)
		if err := logging.InitDefaultLogger("topomap"); err != nil {
			log.Fatalf("Ошибка инициализации логирования: %v", err)
		}
		defer logging.CloseDefaultLogger()
	}
	if cfg.Logging.Level != "" {
		logging.SetDefaultLevel(logging.ParseLevel(cfg.Logging.Level))
	}
	defer logging.GetLoggerManager().CloseAll()

	if err := run(cfg); err != nil {
		logging.Error("Сервер остановлен с ошибкой: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("Запуск сервера карт topomap...")

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("телеметрия: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("Ошибка остановки телеметрии: %v", err)
		}
	}()

	if cfg.Auth.JWTSecret != "" {
		if err := auth.SetJWTSecret(cfg.Auth.JWTSecret); err != nil {
			return fmt.Errorf("auth.jwt_secret: %w", err)
		}
	} else {
		logging.Warn("auth.jwt_secret не задан: токены не переживут перезапуск")
	}
	auth.SetTokenTTL(cfg.Auth.TokenTTL)

	users, err := auth.NewMemoryUserRepo(cfg.Auth.Admins)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.New(ctx, cfg, app.Options{WithCache: true, Registry: reg})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error("Ошибка закрытия ресурсов: %v", err)
		}
	}()

	port := cfg.Server.GetRESTPort()
	server := api.NewRestServer(api.Config{
		Port:     fmt.Sprintf(":%d", port),
		Tiles:    a.Tiles,
		UserRepo: users,
		Cache:    a.Cache,
		Registry: reg,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logging.Info("Сервер готов: http://localhost:%d (карты: /api/maps, тайлы: /tiles/<map>/<x>/<z>)", port)

	select {
	case <-ctx.Done():
		logging.Info("Получен сигнал завершения, остановка...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("REST API: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logging.Error("Ошибка остановки REST API: %v", err)
	}

	logging.Info("Сервер успешно остановлен")
	return nil
}
