package cache

import (
	"errors"
	"time"
)

// Config содержит конфигурацию кеша чанков.
type Config struct {
	RedisURL      string        `yaml:"redis_url"` // host:port, пустая строка отключает кеш
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"` // Время жизни чанка в кеше, 0 без истечения
	KeyPrefix     string        `yaml:"key_prefix"`
}

// Enabled сообщает, настроен ли кеш
func (c Config) Enabled() bool {
	return c.RedisURL != ""
}

// Metrics содержит метрики кеша.
type Metrics struct {
	Hits     int64   `json:"cache_hits"`
	Misses   int64   `json:"cache_misses"`
	Errors   int64   `json:"cache_errors"` // Ошибки Redis, обслуженные холодным хранилищем
	HitRatio float64 `json:"hit_ratio"`
}

// ErrCorrupted значение в кеше не удалось разобрать
var ErrCorrupted = errors.New("поврежденное значение в кеше")
