package render

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/annel0/topomap/internal/color"
	"github.com/annel0/topomap/internal/logging"
	"github.com/annel0/topomap/internal/vec"
	"github.com/annel0/topomap/internal/world"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ChunkSource - источник данных мира для отрисовки
type ChunkSource interface {
	Height() int
	BrightnessTable() []int
	ChunkCache(minX, minZ, maxX, maxZ int) (*world.ChunkCache, error)
}

// TileCoord - координаты тайла в сетке тайлов карты
type TileCoord struct {
	X int
	Z int
}

// TileResult - результат отрисовки тайла
type TileResult struct {
	Coord    TileCoord
	Image    *image.NRGBA // Основной (ночной при night-and-day) вариант
	DayImage *image.NRGBA // Дневной вариант, nil без night-and-day
	Rays     int
	Steps    int
}

// TileRenderer рисует тайлы карт по снимкам чанков мира.
// Безопасен для параллельного вызова: состояние шейдера создаётся на каждый тайл.
type TileRenderer struct {
	source  ChunkSource
	metrics *Metrics
	log     *logging.Logger
	tracer  trace.Tracer
}

// NewTileRenderer создаёт рендерер; metrics может быть nil
func NewTileRenderer(source ChunkSource, metrics *Metrics) *TileRenderer {
	return &TileRenderer{
		source:  source,
		metrics: metrics,
		log:     logging.GetRenderLogger(),
		tracer:  otel.Tracer("render"),
	}
}

// referenceY - высота, на которой луч пикселя проходит через центр пикселя
func referenceY(height int) int {
	return height / 4
}

// RenderTile рисует один тайл. Отмена контекста проверяется между строками пикселей.
func (r *TileRenderer) RenderTile(ctx context.Context, m *Map, coord TileCoord) (*TileResult, error) {
	ctx, span := r.tracer.Start(ctx, "render.tile", trace.WithAttributes(
		attribute.String("map", m.Name),
		attribute.Int("tile.x", coord.X),
		attribute.Int("tile.z", coord.Z),
	))
	defer span.End()
	start := time.Now()

	height := r.source.Height()
	dir := m.Direction()

	// Смещение по Z между точкой входа луча в мир и опорной высотой, и дальше до дна
	slope := dir.Z / -dir.Y
	back := float64(height-referenceY(height)) * slope
	forward := float64(referenceY(height)) * slope

	bx0 := coord.X * m.TileSize
	bz0 := coord.Z * m.TileSize
	// Поле в один блок со всех сторон: контурные линии читают соседей за краем тайла
	cache, err := r.source.ChunkCache(
		bx0-1, bz0-int(math.Ceil(back))-1,
		bx0+m.TileSize, bz0+m.TileSize-1+int(math.Ceil(forward))+1,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("тайл %s (%d,%d): %w", m.Name, coord.X, coord.Z, err)
	}

	var brightness []int
	if m.UseBrightnessTable {
		brightness = r.source.BrightnessTable()
	}

	iter := cache.Iterator(bx0, height, bz0)
	st := m.Shader.StateInstance(m.Lighting, iter, m.Scale, brightness)
	defer st.Cleanup()
	tracer := newRayTracer(iter, m.Scale)

	size := m.ImageSize()
	res := &TileResult{
		Coord: coord,
		Image: image.NewNRGBA(image.Rect(0, 0, size, size)),
	}
	if m.NightAndDay() {
		res.DayImage = image.NewNRGBA(image.Rect(0, 0, size, size))
	}

	scale := float64(m.Scale)
	var c color.Color
	for pz := 0; pz < size; pz++ {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "canceled")
			return nil, err
		}
		zTarget := float64(bz0) + (float64(pz)+0.5)/scale
		for px := 0; px < size; px++ {
			origin := vec.Vec3Float{
				X: float64(bx0) + (float64(px)+0.5)/scale,
				Y: float64(height),
				Z: zTarget - back,
			}
			steps := tracer.trace(st, origin, dir)
			res.Steps += steps
			r.metrics.observeRay(steps)

			st.RayColor(&c, 0)
			res.Image.SetNRGBA(px, pz, c.NRGBA())
			if res.DayImage != nil {
				st.RayColor(&c, 1)
				res.DayImage.SetNRGBA(px, pz, c.NRGBA())
			}
		}
	}
	res.Rays = size * size

	elapsed := time.Since(start)
	r.metrics.observeTile(m.Name, res.Rays, elapsed)
	span.SetAttributes(attribute.Int("rays", res.Rays), attribute.Int("steps", res.Steps))
	r.log.Debug("Тайл %s (%d,%d): %d лучей, %d шагов за %v", m.Name, coord.X, coord.Z, res.Rays, res.Steps, elapsed)
	return res, nil
}

// RenderTiles рисует набор тайлов не более чем в workers горутинах.
// fn вызывается для каждого готового тайла, возможно параллельно.
// Первая ошибка отменяет оставшиеся тайлы.
func (r *TileRenderer) RenderTiles(ctx context.Context, m *Map, coords []TileCoord, workers int, fn func(*TileResult) error) error {
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, coord := range coords {
		g.Go(func() error {
			res, err := r.RenderTile(gctx, m, coord)
			if err != nil {
				return err
			}
			return fn(res)
		})
	}
	return g.Wait()
}

// TilesAround возвращает тайлы квадрата с центром (x, z) и радиусом radius
func TilesAround(x, z, radius int) []TileCoord {
	if radius < 0 {
		radius = 0
	}
	coords := make([]TileCoord, 0, (2*radius+1)*(2*radius+1))
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			coords = append(coords, TileCoord{X: x + dx, Z: z + dz})
		}
	}
	return coords
}
