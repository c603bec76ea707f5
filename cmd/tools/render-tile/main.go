package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/annel0/topomap/internal/app"
	"github.com/annel0/topomap/internal/config"
	"github.com/annel0/topomap/internal/render"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML конфигурации")
		mapName    = flag.String("map", "topo", "Имя карты")
		x          = flag.Int("x", 0, "Координата X центрального тайла")
		z          = flag.Int("z", 0, "Координата Z центрального тайла")
		radius     = flag.Int("radius", 0, "Радиус квадрата тайлов вокруг центра")
		out        = flag.String("out", "tiles", "Каталог для PNG файлов")
		workers    = flag.Int("workers", 0, "Число параллельных отрисовок (0 - из конфигурации)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	if *workers <= 0 {
		*workers = cfg.Render.Workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatalf("Ошибка инициализации: %v", err)
	}
	defer a.Close()

	m, err := a.Map(*mapName)
	if err != nil {
		log.Fatalf("%v", err)
	}

	dir := filepath.Join(*out, m.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Ошибка создания каталога %s: %v", dir, err)
	}

	coords := render.TilesAround(*x, *z, *radius)
	start := time.Now()
	var written atomic.Int64

	err = a.Renderer.RenderTiles(ctx, m, coords, *workers, func(res *render.TileResult) error {
		if err := writeTile(dir, res.Coord, "", res.Image); err != nil {
			return err
		}
		if res.DayImage != nil {
			if err := writeTile(dir, res.Coord, "_day", res.DayImage); err != nil {
				return err
			}
		}
		written.Add(1)
		return nil
	})
	if err != nil {
		log.Fatalf("Ошибка отрисовки: %v", err)
	}

	fmt.Printf("Карта %s: %d тайлов за %v -> %s\n", m.Name, written.Load(), time.Since(start).Round(time.Millisecond), dir)
}

func writeTile(dir string, c render.TileCoord, suffix string, img *image.NRGBA) error {
	data, err := render.EncodePNG(img)
	if err != nil {
		return err
	}
	name := filepath.Join(dir, fmt.Sprintf("%d_%d%s.png", c.X, c.Z, suffix))
	return os.WriteFile(name, data, 0644)
}
