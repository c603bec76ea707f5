package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/annel0/topomap/internal/auth"
	"github.com/annel0/topomap/internal/cache"
	"github.com/annel0/topomap/internal/logging"
	"github.com/annel0/topomap/internal/middleware"
	"github.com/annel0/topomap/internal/render"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer - HTTP API сервера карт: тайлы, описание карт и администрирование
type RestServer struct {
	router   *gin.Engine
	server   *http.Server
	tiles    *render.TileService
	userRepo auth.UserRepository
	cache    cache.TileCache
	metrics  *ServerMetrics
	log      *logging.Logger
	maxAge   time.Duration
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string              // адрес для запуска сервера, например ":8088"
	Tiles    *render.TileService // сервис тайлов
	UserRepo auth.UserRepository // учётные записи администраторов; nil - вход отключён
	Cache    cache.TileCache     // для статистики; может быть nil

	// Registry - регистр Prometheus для HTTP-метрик и /metrics; nil - дефолтный
	Registry *prometheus.Registry

	// TileMaxAge - значение Cache-Control для тайлов
	TileMaxAge time.Duration
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse представляет ответ на вход
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.TileMaxAge == 0 {
		config.TileMaxAge = time.Minute
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(otelgin.Middleware("topomap"))
	router.Use(middleware.NewRequestLogger(nil).Handler())

	var reg prometheus.Registerer
	var gatherer prometheus.Gatherer
	if config.Registry != nil {
		reg, gatherer = config.Registry, config.Registry
	}
	promMw := middleware.NewPrometheusMiddleware("topomap", reg, gatherer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	rs := &RestServer{
		router:   router,
		tiles:    config.Tiles,
		userRepo: config.UserRepo,
		cache:    config.Cache,
		metrics:  NewServerMetrics(),
		log:      logging.GetServerLogger(),
		maxAge:   config.TileMaxAge,
	}
	rs.server = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	rs.setupRoutes()
	return rs
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// CORS: тайлы и описание карт читают веб-клиенты с других доменов
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	rs.router.GET("/health", rs.handleHealth)
	rs.router.GET("/tiles/:map/:x/:z", rs.handleTile)

	api := rs.router.Group("/api")
	api.POST("/auth/login", rs.handleLogin)
	api.GET("/maps", rs.handleMaps)
	api.GET("/maps/:map/materials", rs.handleMaterials)

	protected := api.Group("/")
	protected.Use(middleware.JWT())
	{
		protected.GET("/stats", rs.handleStats)

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		admin.POST("/maps/:map/invalidate", rs.handleInvalidate)
	}
}

// Handler возвращает HTTP-обработчик сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер; возвращает nil после Stop
func (rs *RestServer) Start() error {
	rs.log.Info("REST API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает сервер, дожидаясь текущих запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
		"uptime": rs.metrics.GetUptime(),
		"maps":   len(rs.tiles.Maps()),
	})
}

// handleTile отдаёт PNG тайла; ?day=1 запрашивает дневной вариант
func (rs *RestServer) handleTile(c *gin.Context) {
	x, errX := strconv.Atoi(c.Param("x"))
	z, errZ := strconv.Atoi(strings.TrimSuffix(c.Param("z"), ".png"))
	if errX != nil || errZ != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Координаты тайла должны быть целыми"})
		return
	}
	day := c.Query("day") == "1" || c.Query("day") == "true"

	data, err := rs.tiles.GetTile(c.Request.Context(), c.Param("map"), x, z, day)
	switch {
	case errors.Is(err, render.ErrUnknownMap):
		c.JSON(http.StatusNotFound, GenericResponse{Message: err.Error()})
		return
	case errors.Is(err, context.Canceled):
		c.Status(499)
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Message: "Ошибка отрисовки тайла"})
		return
	}

	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(rs.maxAge.Seconds())))
	c.Data(http.StatusOK, "image/png", data)
}

// handleMaps возвращает описания карт для клиента
func (rs *RestServer) handleMaps(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Список карт получен",
		Data:    rs.tiles.ClientConfiguration(),
	})
}

// handleMaterials выгружает библиотеку материалов шейдера карты
func (rs *RestServer) handleMaterials(c *gin.Context) {
	var buf strings.Builder
	err := rs.tiles.ExportMaterials(c.Param("map"), &buf)
	switch {
	case errors.Is(err, render.ErrUnknownMap):
		c.JSON(http.StatusNotFound, GenericResponse{Message: err.Error()})
	case errors.Is(err, errors.ErrUnsupported):
		c.JSON(http.StatusNotImplemented, GenericResponse{Message: err.Error()})
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Message: "Ошибка выгрузки материалов"})
	default:
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(buf.String()))
	}
}

// handleLogin выдаёт JWT по имени и паролю
func (rs *RestServer) handleLogin(c *gin.Context) {
	if rs.userRepo == nil {
		c.JSON(http.StatusNotFound, LoginResponse{Message: "Вход отключён"})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, LoginResponse{Message: "Неверный формат запроса"})
		return
	}

	user, err := rs.userRepo.ValidateCredentials(req.Username, req.Password)
	if err != nil {
		rs.log.Warn("Неудачный вход: user=%s ip=%s", req.Username, c.ClientIP())
		c.JSON(http.StatusUnauthorized, LoginResponse{Message: "Неверное имя пользователя или пароль"})
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, LoginResponse{Message: "Ошибка генерации токена"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		Message: "Успешная авторизация",
		IsAdmin: user.IsAdmin,
	})
}

// handleStats возвращает состояние процесса и кеша тайлов
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := map[string]interface{}{
		"server": rs.metrics.Snapshot(),
	}
	if rs.cache != nil {
		stats["cache"] = rs.cache.GetMetrics()
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleInvalidate сбрасывает кеш тайлов карты на всех узлах
func (rs *RestServer) handleInvalidate(c *gin.Context) {
	mapName := c.Param("map")
	err := rs.tiles.InvalidateMap(c.Request.Context(), mapName)
	switch {
	case errors.Is(err, render.ErrUnknownMap):
		c.JSON(http.StatusNotFound, GenericResponse{Message: err.Error()})
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Message: "Ошибка инвалидации кеша"})
		return
	}

	rs.log.Info("Кеш карты %s сброшен пользователем %s", mapName, c.GetString(middleware.UsernameKey))
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Кеш карты сброшен",
		Data:    gin.H{"map": mapName},
	})
}
