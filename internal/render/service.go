package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/annel0/topomap/internal/cache"
	"github.com/annel0/topomap/internal/logging"
	"golang.org/x/sync/singleflight"
)

// DefaultRenderTimeout ограничивает одну общую отрисовку тайла
const DefaultRenderTimeout = 2 * time.Minute

// ErrUnknownMap возвращается для незарегистрированной карты
var ErrUnknownMap = errors.New("unknown map")

// TileKey возвращает ключ кеша тайла
func TileKey(mapName string, x, z int, day bool) string {
	key := fmt.Sprintf("%s%d:%d", MapPrefix(mapName), x, z)
	if day {
		key += ":day"
	}
	return key
}

// MapPrefix возвращает префикс ключей всех тайлов карты
func MapPrefix(mapName string) string {
	return "tile:" + mapName + ":"
}

// TileService отдаёт PNG тайлов: кеш, при промахе - отрисовка и запись в кеш.
// Параллельные запросы одного тайла отрисовываются один раз.
type TileService struct {
	renderer *TileRenderer
	cache    cache.TileCache
	metrics  *Metrics
	log      *logging.Logger

	maps  map[string]*Map
	names []string

	group         singleflight.Group
	renderTimeout time.Duration
}

// NewTileService создаёт сервис; tileCache и metrics могут быть nil
func NewTileService(renderer *TileRenderer, tileCache cache.TileCache, maps []*Map, metrics *Metrics) *TileService {
	s := &TileService{
		renderer: renderer,
		cache:    tileCache,
		metrics:  metrics,
		log:      logging.GetRenderLogger(),
		maps:     make(map[string]*Map, len(maps)),

		renderTimeout: DefaultRenderTimeout,
	}
	for _, m := range maps {
		s.maps[m.Name] = m
		s.names = append(s.names, m.Name)
	}
	sort.Strings(s.names)
	return s
}

// Map возвращает карту по имени
func (s *TileService) Map(name string) (*Map, error) {
	m, ok := s.maps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMap, name)
	}
	return m, nil
}

// Maps возвращает карты, упорядоченные по имени
func (s *TileService) Maps() []*Map {
	out := make([]*Map, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, s.maps[n])
	}
	return out
}

// ClientConfiguration возвращает описания всех карт для клиента
func (s *TileService) ClientConfiguration() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(s.names))
	for _, m := range s.Maps() {
		out = append(out, m.ClientConfiguration())
	}
	return out
}

// GetTile возвращает PNG тайла. day запрашивает дневной вариант; для карт без
// night-and-day отдаётся основной.
func (s *TileService) GetTile(ctx context.Context, mapName string, x, z int, day bool) ([]byte, error) {
	m, err := s.Map(mapName)
	if err != nil {
		return nil, err
	}
	if day && !m.NightAndDay() {
		day = false
	}
	key := TileKey(mapName, x, z, day)

	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		if err == nil {
			s.metrics.cacheHit(mapName)
			return data, nil
		}
		if !cache.IsCacheMiss(err) {
			s.log.Warn("Ошибка чтения кеша %s: %v", key, err)
		}
	}
	s.metrics.cacheMiss(mapName)

	// Оба варианта тайла рисуются одним проходом, поэтому ключ группы без :day.
	// Отрисовка общая для всех ожидающих: отмена одного запроса её не прерывает.
	ch := s.group.DoChan(TileKey(mapName, x, z, false), func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.renderTimeout)
		defer cancel()
		return s.renderAndStore(rctx, m, TileCoord{X: x, Z: z})
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	pngs := res.Val.(*tilePNGs)
	if day {
		return pngs.day, nil
	}
	return pngs.main, nil
}

type tilePNGs struct {
	main []byte
	day  []byte
}

func (s *TileService) renderAndStore(ctx context.Context, m *Map, coord TileCoord) (*tilePNGs, error) {
	res, err := s.renderer.RenderTile(ctx, m, coord)
	if err != nil {
		return nil, err
	}

	out := &tilePNGs{}
	if out.main, err = EncodePNG(res.Image); err != nil {
		return nil, fmt.Errorf("кодирование PNG: %w", err)
	}
	if res.DayImage != nil {
		if out.day, err = EncodePNG(res.DayImage); err != nil {
			return nil, fmt.Errorf("кодирование PNG: %w", err)
		}
	}

	if s.cache != nil {
		s.store(ctx, TileKey(m.Name, coord.X, coord.Z, false), out.main)
		if out.day != nil {
			s.store(ctx, TileKey(m.Name, coord.X, coord.Z, true), out.day)
		}
	}
	return out, nil
}

func (s *TileService) store(ctx context.Context, key string, data []byte) {
	if err := s.cache.Set(ctx, key, data, 0); err != nil {
		s.log.Warn("Не удалось сохранить тайл %s в кеш: %v", key, err)
	}
}

// InvalidateMap удаляет из кеша все тайлы карты
func (s *TileService) InvalidateMap(ctx context.Context, mapName string) error {
	if _, err := s.Map(mapName); err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	s.log.Info("Инвалидация тайлов карты %s", mapName)
	return s.cache.InvalidatePrefix(ctx, MapPrefix(mapName))
}

// ExportMaterials выгружает библиотеку материалов шейдера карты
func (s *TileService) ExportMaterials(mapName string, w io.Writer) error {
	m, err := s.Map(mapName)
	if err != nil {
		return err
	}
	return m.Shader.ExportMaterialLibrary(w)
}
