package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера карт.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Auth      AuthConfig      `yaml:"auth"`
	World     WorldConfig     `yaml:"world"`
	Render    RenderConfig    `yaml:"render"`
	Shaders   []Node          `yaml:"shaders"`
	Lightings []Node          `yaml:"lightings"`
	Maps      []MapConfig     `yaml:"maps"`
}

type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type StorageConfig struct {
	Path string `yaml:"path"` // Пусто - без постоянного хранилища
}

type CacheConfig struct {
	Backend       string        `yaml:"backend"` // memory | redis
	RedisURL      string        `yaml:"redis_url"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
	NATSURL       string        `yaml:"nats_url"` // Пусто - без распределённой инвалидации
	WriteBehind   bool          `yaml:"write_behind"` // Только redis: асинхронная запись в хранилище
	NodeID        string        `yaml:"node_id"`      // Пусто - случайный UUID
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`     // host:port OTLP HTTP; пусто - localhost:4318
	SampleRatio float64 `yaml:"sample_ratio"` // 0 - все трассы
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"` // base64, не меньше 32 байт; пусто - случайный при старте
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Admins    []AdminConfig `yaml:"admins"`
}

// AdminConfig - учётная запись администратора карт
type AdminConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"` // bcrypt
}

type WorldConfig struct {
	Name   string `yaml:"name"`
	Seed   int64  `yaml:"seed"`
	Height int    `yaml:"height"`
}

type RenderConfig struct {
	Workers  int `yaml:"workers"`
	TileSize int `yaml:"tile_size"`
}

// MapConfig описывает карту: какой шейдер и освещение использовать и как строить лучи
type MapConfig struct {
	Name               string  `yaml:"name"`
	Title              string  `yaml:"title"`
	Shader             string  `yaml:"shader"`
	Lighting           string  `yaml:"lighting"`
	Scale              int     `yaml:"scale"`
	Inclination        float64 `yaml:"inclination"`
	UseBrightnessTable bool    `yaml:"use_brightness_table"`
}

// GetRESTPort возвращает порт REST API с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "TOPOMAP_REST_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}
	return defaultPort
}

// Default возвращает конфигурацию с одной топографической картой
func Default() *Config {
	cfg := &Config{
		Shaders: []Node{{
			"class":      "topo",
			"name":       "topo",
			"color0":     "#303060",
			"color60":    "#2A5A2A",
			"color100":   "#7A9A4A",
			"color150":   "#8A7A5A",
			"color200":   "#DDDDDD",
			"color255":   "#FFFFFF",
			"linecolor":  "#202020",
			"watercolor": "#4060C0",
			"wateralpha": 0.6,
			"hiddenids":  []interface{}{31, 37, 78},
		}},
		Lightings: []Node{
			{"class": "default", "name": "default"},
			{"class": "shadow", "name": "shadow", "shadowstrength": 1.0},
			{"class": "shadow", "name": "nightandday", "shadowstrength": 1.0, "night-and-day": true},
		},
		Maps: []MapConfig{
			{Name: "topo", Title: "Топографическая", Shader: "topo", Lighting: "default", Scale: 4, Inclination: 90},
			{Name: "topo-shadow", Title: "Топографическая с тенями", Shader: "topo", Lighting: "shadow", Scale: 4, Inclination: 60},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults заполняет незаданные значения
func (c *Config) applyDefaults() {
	if c.Storage.Path == "" {
		c.Storage.Path = "data"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 10 * time.Minute
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "topomap"
	}
	if c.World.Name == "" {
		c.World.Name = "world"
	}
	if c.World.Height == 0 {
		c.World.Height = 256
	}
	if c.World.Seed == 0 {
		c.World.Seed = 12345
	}
	if c.Render.Workers <= 0 {
		c.Render.Workers = 4
	}
	if c.Render.TileSize <= 0 {
		c.Render.TileSize = 32
	}
	for i := range c.Maps {
		m := &c.Maps[i]
		if m.Scale == 0 {
			m.Scale = 4
		}
		if m.Inclination == 0 {
			m.Inclination = 90
		}
		if m.Lighting == "" {
			m.Lighting = "default"
		}
		if m.Title == "" {
			m.Title = m.Name
		}
	}
}

// Validate проверяет ссылки между картами, шейдерами и освещением
func (c *Config) Validate() error {
	shaders := make(map[string]bool)
	for i, n := range c.Shaders {
		name := n.GetString("name", "")
		if name == "" {
			return fmt.Errorf("shaders[%d]: не задано имя", i)
		}
		shaders[name] = true
	}
	lightings := make(map[string]bool)
	for i, n := range c.Lightings {
		name := n.GetString("name", "")
		if name == "" {
			return fmt.Errorf("lightings[%d]: не задано имя", i)
		}
		lightings[name] = true
	}
	seen := make(map[string]bool)
	for i, m := range c.Maps {
		if m.Name == "" {
			return fmt.Errorf("maps[%d]: не задано имя", i)
		}
		if seen[m.Name] {
			return fmt.Errorf("maps[%d]: повторное имя карты %q", i, m.Name)
		}
		seen[m.Name] = true
		if !shaders[m.Shader] {
			return fmt.Errorf("карта %q: неизвестный шейдер %q", m.Name, m.Shader)
		}
		if !lightings[m.Lighting] {
			return fmt.Errorf("карта %q: неизвестное освещение %q", m.Name, m.Lighting)
		}
		if m.Scale < 1 || m.Scale > 16 {
			return fmt.Errorf("карта %q: масштаб %d вне [1,16]", m.Name, m.Scale)
		}
		if m.Inclination < 30 || m.Inclination > 90 {
			return fmt.Errorf("карта %q: наклон %.1f вне [30,90]", m.Name, m.Inclination)
		}
	}
	return nil
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV TOPOMAP_CONFIG или возвращает конфигурацию по умолчанию.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("TOPOMAP_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse разбирает YAML конфигурацию из памяти
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
