package world

import (
	"fmt"
	"sync"

	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/annel0/blockverse/internal/world/entity"
)

// ChunkStore хранилище чанков. LoadChunk возвращает nil, nil для отсутствующего чанка.
type ChunkStore interface {
	LoadChunk(coords vec.Vec3) (*Chunk, error)
	SaveChunk(chunk *Chunk) error
}

// World блочная сетка, разбитая на чанки
type World struct {
	blocks    *block.Registry
	chunks    map[vec.Vec3]*Chunk
	generator *Generator
	store     ChunkStore
	onLoad    []func(*Chunk)
	saveMu    sync.Mutex
	mu        sync.RWMutex
}

// Option настраивает мир
type Option func(*World)

// WithGenerator задает генератор для чанков, отсутствующих в хранилище
func WithGenerator(g *Generator) Option {
	return func(w *World) { w.generator = g }
}

// WithStore задает хранилище чанков
func WithStore(s ChunkStore) Option {
	return func(w *World) { w.store = s }
}

// New создаёт мир с указанным реестром блоков
func New(blocks *block.Registry, opts ...Option) *World {
	w := &World{
		blocks: blocks,
		chunks: make(map[vec.Vec3]*Chunk),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Blocks возвращает реестр конфигураций блоков
func (w *World) Blocks() *block.Registry {
	return w.blocks
}

// OnChunkLoad регистрирует обработчик, вызываемый после загрузки чанка
func (w *World) OnChunkLoad(f func(*Chunk)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onLoad = append(w.onLoad, f)
}

// Chunk возвращает загруженный чанк
func (w *World) Chunk(coords vec.Vec3) (*Chunk, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.chunks[coords]
	return c, ok
}

// LoadChunk возвращает чанк, загружая его из хранилища или генерируя при необходимости
func (w *World) LoadChunk(coords vec.Vec3) (*Chunk, error) {
	if c, ok := w.Chunk(coords); ok {
		return c, nil
	}

	var chunk *Chunk
	if w.store != nil {
		loaded, err := w.store.LoadChunk(coords)
		if err != nil {
			return nil, fmt.Errorf("ошибка загрузки чанка %v: %w", coords, err)
		}
		chunk = loaded
	}
	if chunk == nil && w.generator != nil {
		chunk = w.generator.GenerateChunk(coords)
	}
	if chunk == nil {
		chunk = NewChunk(coords)
		empty := w.blocks.Empty()
		if empty != 0 {
			for i := range chunk.blocks {
				chunk.blocks[i] = empty
			}
		}
	}

	w.mu.Lock()
	if existing, ok := w.chunks[coords]; ok {
		w.mu.Unlock()
		return existing, nil
	}
	w.chunks[coords] = chunk
	hooks := append([]func(*Chunk){}, w.onLoad...)
	w.mu.Unlock()

	for _, hook := range hooks {
		hook(chunk)
	}
	logging.Debug("🧱 Чанк %v загружен", coords)
	return chunk, nil
}

// LoadAround загружает чанки в кубе радиуса radius вокруг центрального чанка
func (w *World) LoadAround(center vec.Vec3, radius int) error {
	for x := -radius; x <= radius; x++ {
		for y := -radius; y <= radius; y++ {
			for z := -radius; z <= radius; z++ {
				if _, err := w.LoadChunk(center.Add(vec.Vec3{X: x, Y: y, Z: z})); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Block возвращает ID блока и признак того, что чанк загружен
func (w *World) Block(pos vec.Vec3) (block.BlockID, bool) {
	c, ok := w.Chunk(pos.ToChunkCoords())
	if !ok {
		return 0, false
	}
	return c.GetBlock(pos.LocalInChunk()), true
}

// State возвращает состояние блока или nil
func (w *World) State(pos vec.Vec3) *block.State {
	c, ok := w.Chunk(pos.ToChunkCoords())
	if !ok {
		return nil
	}
	return c.GetState(pos.LocalInChunk())
}

// BlockConfig возвращает конфигурацию блока в позиции
func (w *World) BlockConfig(pos vec.Vec3) (*block.Config, bool) {
	id, loaded := w.Block(pos)
	if !loaded {
		return nil, false
	}
	return w.blocks.Get(id)
}

// BlockEntity возвращает объект, привязанный к блоку
func (w *World) BlockEntity(pos vec.Vec3) (entity.Handle, bool) {
	c, ok := w.Chunk(pos.ToChunkCoords())
	if !ok {
		return entity.NilHandle, false
	}
	return c.GetBlockEntity(pos.LocalInChunk())
}

// SetBlock изменяет блок. Возвращает false, если чанк не загружен.
// Внутри тика блоки изменяются только через Commands.
func (w *World) SetBlock(pos vec.Vec3, id block.BlockID, state *block.State) bool {
	c, ok := w.Chunk(pos.ToChunkCoords())
	if !ok {
		return false
	}
	c.SetBlock(pos.LocalInChunk(), id, state)
	return true
}

// LoadedChunks возвращает количество загруженных чанков
func (w *World) LoadedChunks() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.chunks)
}

// DirtyChunks возвращает чанки с несохраненными изменениями
func (w *World) DirtyChunks() []*Chunk {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var dirty []*Chunk
	for _, c := range w.chunks {
		if c.HasChanges() {
			dirty = append(dirty, c)
		}
	}
	return dirty
}

// Save сохраняет измененные чанки в хранилище и возвращает их количество
func (w *World) Save() (int, error) {
	if w.store == nil {
		return 0, nil
	}

	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	saved := 0
	for _, c := range w.DirtyChunks() {
		if err := w.store.SaveChunk(c); err != nil {
			return saved, fmt.Errorf("ошибка сохранения чанка %v: %w", c.Coords, err)
		}
		c.ClearChanges()
		saved++
	}
	if saved > 0 {
		logging.Info("💾 Сохранено чанков: %d", saved)
	}
	return saved, nil
}
