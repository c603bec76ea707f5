package render

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - Prometheus-метрики отрисовки.
// Все методы допускают nil-получатель (метрики отключены).
//
// Метрики:
// * topomap_tiles_rendered_total{map} - counter
// * topomap_rays_total{map} - counter
// * topomap_ray_steps - histogram, блоков на луч
// * topomap_tile_render_seconds{map} - histogram
// * topomap_tile_cache_hits_total{map}, topomap_tile_cache_misses_total{map} - counter
type Metrics struct {
	tilesRendered *prometheus.CounterVec
	rays          *prometheus.CounterVec
	raySteps      prometheus.Histogram
	renderSeconds *prometheus.HistogramVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
}

// NewMetrics создаёт метрики и регистрирует их в reg (если reg != nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tilesRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topomap",
			Name:      "tiles_rendered_total",
			Help:      "Число отрисованных тайлов.",
		}, []string{"map"}),
		rays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topomap",
			Name:      "rays_total",
			Help:      "Число выпущенных лучей.",
		}, []string{"map"}),
		raySteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "topomap",
			Name:      "ray_steps",
			Help:      "Число блоков, обработанных шейдером на один луч.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		}),
		renderSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "topomap",
			Name:      "tile_render_seconds",
			Help:      "Длительность отрисовки тайла.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"map"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topomap",
			Name:      "tile_cache_hits_total",
			Help:      "Запросы тайлов, отданные из кеша.",
		}, []string{"map"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topomap",
			Name:      "tile_cache_misses_total",
			Help:      "Запросы тайлов, потребовавшие отрисовки.",
		}, []string{"map"}),
	}

	if reg != nil {
		reg.MustRegister(m.tilesRendered, m.rays, m.raySteps, m.renderSeconds, m.cacheHits, m.cacheMisses)
	}
	return m
}

func (m *Metrics) observeRay(steps int) {
	if m == nil {
		return
	}
	m.raySteps.Observe(float64(steps))
}

func (m *Metrics) observeTile(mapName string, rays int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.tilesRendered.WithLabelValues(mapName).Inc()
	m.rays.WithLabelValues(mapName).Add(float64(rays))
	m.renderSeconds.WithLabelValues(mapName).Observe(elapsed.Seconds())
}

func (m *Metrics) cacheHit(mapName string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(mapName).Inc()
}

func (m *Metrics) cacheMiss(mapName string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(mapName).Inc()
}
