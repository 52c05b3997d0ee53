package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// ErrNotReady возвращается после закрытия хранилища
var ErrNotReady = errors.New("хранилище не готово")

// WorldStorage хранит чанки мира в BadgerDB.
// Значения сериализуются в JSON и сжимаются zstd.
type WorldStorage struct {
	db           *badger.DB
	dbPath       string
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
	mutex        sync.RWMutex
	isReady      bool
}

// NewWorldStorage открывает хранилище в dataPath/world.
// Пустой dataPath открывает BadgerDB в памяти.
func NewWorldStorage(dataPath string) (*WorldStorage, error) {
	var opts badger.Options
	dbPath := ""
	if dataPath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dbPath = filepath.Join(dataPath, "world")
		opts = badger.DefaultOptions(dbPath)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	compressor, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	decompressor, err := zstd.NewReader(nil)
	if err != nil {
		compressor.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	if dbPath != "" {
		logging.Info("💾 Хранилище мира открыто: %s", dbPath)
	} else {
		logging.Info("💾 Хранилище мира открыто в памяти")
	}

	return &WorldStorage{
		db:           db,
		dbPath:       dbPath,
		compressor:   compressor,
		decompressor: decompressor,
		isReady:      true,
	}, nil
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	ws.compressor.Close()
	ws.decompressor.Close()
	return ws.db.Close()
}

func chunkKey(coords vec.Vec3) []byte {
	return []byte(fmt.Sprintf("chunk:%d:%d:%d", coords.X, coords.Y, coords.Z))
}

// SaveChunk сохраняет полный снимок чанка
func (ws *WorldStorage) SaveChunk(chunk *world.Chunk) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrNotReady
	}

	data, err := json.Marshal(chunk.Data())
	if err != nil {
		return fmt.Errorf("ошибка сериализации чанка: %w", err)
	}
	packed := ws.compressor.EncodeAll(data, nil)

	err = ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(chunk.Coords), packed)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	logging.Trace("Чанк %v сохранен (%d -> %d байт)", chunk.Coords, len(data), len(packed))
	return nil
}

// LoadChunk загружает чанк. Для отсутствующего чанка возвращает nil, nil.
func (ws *WorldStorage) LoadChunk(coords vec.Vec3) (*world.Chunk, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, ErrNotReady
	}

	var packed []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(coords))
		if err != nil {
			return err
		}
		packed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	raw, err := ws.decompressor.DecodeAll(packed, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки чанка %v: %w", coords, err)
	}

	var data world.ChunkData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации чанка: %w", err)
	}
	if len(data.Blocks) != world.ChunkVolume {
		return nil, fmt.Errorf("чанк %v поврежден: %d блоков вместо %d", coords, len(data.Blocks), world.ChunkVolume)
	}
	return world.ChunkFromData(data), nil
}

// CountChunks возвращает количество сохраненных чанков
func (ws *WorldStorage) CountChunks() (int, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return 0, ErrNotReady
	}

	count := 0
	err := ws.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte("chunk:")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

var _ world.ChunkStore = (*WorldStorage)(nil)
