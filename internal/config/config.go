package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/annel0/blockverse/internal/cache"
	"github.com/annel0/blockverse/internal/world"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Admin     AdminConfig     `yaml:"admin"`
	World     WorldConfig     `yaml:"world"`
	Hand      HandConfig      `yaml:"hand"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	TickRate  int `yaml:"tick_rate"` // Тиков в секунду
	AdminPort int `yaml:"admin_port"`
}

type AdminConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"` // bcrypt; пустая строка отключает вход по паролю
	Secret       string `yaml:"secret"`        // base64 ключ подписи токенов; пустой генерируется при запуске
}

type WorldConfig struct {
	DataPath   string                `yaml:"data_path"` // Пустая строка: хранилище в памяти
	BlocksFile string                `yaml:"blocks_file"`
	ItemsFile  string                `yaml:"items_file"`
	Autosave   time.Duration         `yaml:"autosave"`
	LoadRadius int                   `yaml:"load_radius"` // Радиус загрузки чанков вокруг игрока
	Generator  world.GeneratorConfig `yaml:"generator"`
	Cache      cache.Config          `yaml:"cache"` // Redis перед хранилищем чанков
}

type HandConfig struct {
	Reach        float64       `yaml:"reach"`         // Максимальная дистанция луча
	BurstWindow  time.Duration `yaml:"burst_window"`  // Окно подавления повторных ударов
	BreakTimeout time.Duration `yaml:"break_timeout"` // Время жизни незавершенного разрушения
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // Пустая строка: шина в памяти
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	FileLevel string `yaml:"file_level"`
	Dir       string `yaml:"dir"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{TickRate: 20},
		Admin:  AdminConfig{Username: "admin"},
		World: WorldConfig{
			BlocksFile: "assets/blocks.yaml",
			ItemsFile:  "assets/items.yaml",
			Autosave:   time.Minute,
			LoadRadius: 1,
			Generator:  world.DefaultGeneratorConfig(),
			Cache:      cache.Config{TTL: 10 * time.Minute},
		},
		Hand: HandConfig{
			Reach:        5,
			BurstWindow:  50 * time.Millisecond,
			BreakTimeout: 500 * time.Millisecond,
		},
		EventBus: EventBusConfig{Stream: "BLOCKVERSE", Retention: 24},
		Logging:  LoggingConfig{Level: "info", FileLevel: "debug", Dir: "logs"},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "blockverse",
		},
	}
}

// TickInterval возвращает длительность одного тика
func (s *ServerConfig) TickInterval() time.Duration {
	rate := s.TickRate
	if rate <= 0 {
		rate = 20
	}
	return time.Second / time.Duration(rate)
}

// GetAdminPort возвращает порт админского API с поддержкой fallback значений
func (s *ServerConfig) GetAdminPort() int {
	return getPortWithEnvFallback(s.AdminPort, "GAME_ADMIN_PORT", 8088)
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

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", используется ENV GAME_CONFIG; если и он пуст, возвращается Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	return Parse(data)
}

// Parse разбирает YAML конфигурацию поверх значений по умолчанию
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	if c.Hand.Reach <= 0 {
		return fmt.Errorf("hand.reach должен быть положительным")
	}
	if c.Hand.BurstWindow < 0 || c.Hand.BreakTimeout <= 0 {
		return fmt.Errorf("некорректные интервалы hand: burst_window=%s break_timeout=%s",
			c.Hand.BurstWindow, c.Hand.BreakTimeout)
	}
	if c.World.LoadRadius < 1 {
		return fmt.Errorf("world.load_radius должен быть не меньше 1")
	}
	return nil
}
