package world

import (
	"sync"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/annel0/blockverse/internal/world/entity"
)

// ChunkVolume количество блоков в чанке
const ChunkVolume = vec.ChunkSize * vec.ChunkSize * vec.ChunkSize

// Chunk представляет участок мира размером 16x16x16 блоков
type Chunk struct {
	Coords vec.Vec3 // Координаты чанка в мире

	blocks        [ChunkVolume]block.BlockID
	states        map[int]*block.State     // Ориентация блоков по индексу
	blockEntities map[int]entity.Handle    // Объекты, привязанные к блокам
	changes       map[vec.Vec3]struct{}    // Измененные блоки (локальные координаты)

	ChangeCounter int
	Mu            sync.RWMutex
}

// NewChunk создаёт пустой чанк с указанными координатами
func NewChunk(coords vec.Vec3) *Chunk {
	return &Chunk{
		Coords:        coords,
		states:        make(map[int]*block.State),
		blockEntities: make(map[int]entity.Handle),
		changes:       make(map[vec.Vec3]struct{}),
	}
}

func index(local vec.Vec3) int {
	return local.X<<8 | local.Y<<4 | local.Z
}

func localFromIndex(i int) vec.Vec3 {
	return vec.Vec3{X: i >> 8 & 0xF, Y: i >> 4 & 0xF, Z: i & 0xF}
}

// GetBlock возвращает ID блока по локальным координатам
func (c *Chunk) GetBlock(local vec.Vec3) block.BlockID {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.blocks[index(local)]
}

// GetState возвращает состояние блока или nil
func (c *Chunk) GetState(local vec.Vec3) *block.State {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.states[index(local)]
}

// SetBlock устанавливает блок и его состояние по локальным координатам
func (c *Chunk) SetBlock(local vec.Vec3, id block.BlockID, state *block.State) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.setBlock(local, id, state)
	c.changes[local] = struct{}{}
	c.ChangeCounter++
}

// setBlock записывает блок без учета изменений (генерация и загрузка)
func (c *Chunk) setBlock(local vec.Vec3, id block.BlockID, state *block.State) {
	i := index(local)
	c.blocks[i] = id
	if state == nil || state.Rotation == block.RotationNone {
		delete(c.states, i)
	} else {
		c.states[i] = state
	}
}

// GetBlockEntity возвращает объект, привязанный к блоку
func (c *Chunk) GetBlockEntity(local vec.Vec3) (entity.Handle, bool) {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	h, ok := c.blockEntities[index(local)]
	return h, ok
}

// SetBlockEntity привязывает объект к блоку
func (c *Chunk) SetBlockEntity(local vec.Vec3, h entity.Handle) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.blockEntities[index(local)] = h
}

// RemoveBlockEntity отвязывает объект от блока и возвращает его
func (c *Chunk) RemoveBlockEntity(local vec.Vec3) (entity.Handle, bool) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	i := index(local)
	h, ok := c.blockEntities[i]
	delete(c.blockEntities, i)
	return h, ok
}

// HasChanges возвращает true, если в чанке есть несохраненные изменения
func (c *Chunk) HasChanges() bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.ChangeCounter > 0
}

// ClearChanges очищает список изменений
func (c *Chunk) ClearChanges() {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.changes = make(map[vec.Vec3]struct{})
	c.ChangeCounter = 0
}

// ChunkData сериализуемое представление чанка
type ChunkData struct {
	X         int                    `json:"x"`
	Y         int                    `json:"y"`
	Z         int                    `json:"z"`
	Blocks    []block.BlockID        `json:"blocks"`
	Rotations map[int]block.Rotation `json:"rotations,omitempty"`
}

// Data возвращает снимок чанка для сохранения
func (c *Chunk) Data() ChunkData {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	data := ChunkData{
		X:      c.Coords.X,
		Y:      c.Coords.Y,
		Z:      c.Coords.Z,
		Blocks: make([]block.BlockID, ChunkVolume),
	}
	copy(data.Blocks, c.blocks[:])
	if len(c.states) > 0 {
		data.Rotations = make(map[int]block.Rotation, len(c.states))
		for i, s := range c.states {
			data.Rotations[i] = s.Rotation
		}
	}
	return data
}

// ChunkFromData восстанавливает чанк из снимка
func ChunkFromData(data ChunkData) *Chunk {
	c := NewChunk(vec.Vec3{X: data.X, Y: data.Y, Z: data.Z})
	copy(c.blocks[:], data.Blocks)
	for i, r := range data.Rotations {
		if i >= 0 && i < ChunkVolume {
			c.setBlock(localFromIndex(i), c.blocks[i], block.NewState(r))
		}
	}
	return c
}

// Each вызывает f для каждого блока чанка, отличного от empty
func (c *Chunk) Each(empty block.BlockID, f func(local vec.Vec3, id block.BlockID, state *block.State)) {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	for i, id := range c.blocks {
		if id == empty {
			continue
		}
		f(localFromIndex(i), id, c.states[i])
	}
}
