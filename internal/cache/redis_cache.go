package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
	"github.com/go-redis/redis/v8"
)

// opTimeout ограничивает каждую операцию Redis: тик не должен ждать кеш
const opTimeout = 200 * time.Millisecond

// ChunkCache горячий кеш чанков в Redis поверх холодного хранилища.
//
// Чтение: Redis, при промахе холодное хранилище с заполнением кеша.
// Запись: сначала холодное хранилище, затем Redis.
// Ошибки Redis не прерывают операции, они обслуживаются холодным хранилищем.
type ChunkCache struct {
	client redis.UniversalClient
	cold   world.ChunkStore
	ttl    time.Duration
	prefix string

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64
}

// NewChunkCache подключается к Redis и создаёт кеш перед cold
func NewChunkCache(cfg Config, cold world.ChunkStore) (*ChunkCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisURL,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis %s: %w", cfg.RedisURL, err)
	}

	logging.Info("🗄️ Кеш чанков Redis: %s (TTL %s)", cfg.RedisURL, cfg.TTL)
	return newChunkCache(rdb, cold, cfg), nil
}

func newChunkCache(client redis.UniversalClient, cold world.ChunkStore, cfg Config) *ChunkCache {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "blockverse:"
	}
	return &ChunkCache{client: client, cold: cold, ttl: cfg.TTL, prefix: prefix}
}

func (c *ChunkCache) key(coords vec.Vec3) string {
	return fmt.Sprintf("%schunk:%d:%d:%d", c.prefix, coords.X, coords.Y, coords.Z)
}

// LoadChunk возвращает чанк из кеша или из холодного хранилища
func (c *ChunkCache) LoadChunk(coords vec.Vec3) (*world.Chunk, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, c.key(coords)).Bytes()
	switch {
	case err == nil:
		chunk, decodeErr := decodeChunk(raw)
		if decodeErr == nil {
			c.hits.Add(1)
			return chunk, nil
		}
		c.errs.Add(1)
		logging.Warn("Кеш чанка %v: %v", coords, decodeErr)
	case errors.Is(err, redis.Nil):
		c.misses.Add(1)
	default:
		c.errs.Add(1)
		logging.Warn("Redis недоступен при чтении чанка %v: %v", coords, err)
	}

	chunk, err := c.cold.LoadChunk(coords)
	if err != nil || chunk == nil {
		return chunk, err
	}
	c.put(ctx, chunk)
	return chunk, nil
}

// SaveChunk сохраняет чанк в холодное хранилище и обновляет кеш
func (c *ChunkCache) SaveChunk(chunk *world.Chunk) error {
	if err := c.cold.SaveChunk(chunk); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	c.put(ctx, chunk)
	return nil
}

func (c *ChunkCache) put(ctx context.Context, chunk *world.Chunk) {
	raw, err := json.Marshal(chunk.Data())
	if err != nil {
		logging.Error("Ошибка сериализации чанка %v для кеша: %v", chunk.Coords, err)
		return
	}
	if err := c.client.Set(ctx, c.key(chunk.Coords), raw, c.ttl).Err(); err != nil {
		c.errs.Add(1)
		logging.Warn("Redis недоступен при записи чанка %v: %v", chunk.Coords, err)
	}
}

func decodeChunk(raw []byte) (*world.Chunk, error) {
	var data world.ChunkData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if len(data.Blocks) != world.ChunkVolume {
		return nil, fmt.Errorf("%w: %d блоков", ErrCorrupted, len(data.Blocks))
	}
	return world.ChunkFromData(data), nil
}

// Metrics возвращает метрики кеша
func (c *ChunkCache) Metrics() Metrics {
	m := Metrics{Hits: c.hits.Load(), Misses: c.misses.Load(), Errors: c.errs.Load()}
	if total := m.Hits + m.Misses; total > 0 {
		m.HitRatio = float64(m.Hits) / float64(total)
	}
	return m
}

// Close закрывает соединение с Redis. Холодное хранилище закрывает владелец.
func (c *ChunkCache) Close() error {
	return c.client.Close()
}

var _ world.ChunkStore = (*ChunkCache)(nil)
