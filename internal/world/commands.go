package world

import (
	"fmt"
	"math"

	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/annel0/blockverse/internal/world/entity"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
)

// BreakingTexture возвращает имя текстуры стадии разрушения.
// Текстуры нумеруются с 1, стадия 0 использует первую.
func BreakingTexture(stage int) string {
	if stage < 1 {
		stage = 1
	}
	return fmt.Sprintf("blocks/breaking_%d.png", stage)
}

// groundItemBounds объем предмета на земле
var groundItemBounds = cube.Box(-0.125, 0, -0.125, 0.125, 0.25, 0.125)

// BlockUpdate изменение блока в мире
type BlockUpdate struct {
	Position vec.Vec3
	ID       block.BlockID
	State    *block.State
}

// GroundItemSpawn появление предмета на земле
type GroundItemSpawn struct {
	Item     string
	Count    uint32
	ModelID  uint32
	Position vec.Vec3
}

// ProxySpawn создание скрытого индикатора разрушения
type ProxySpawn struct {
	Handle   entity.Handle
	Position vec.Vec3
}

// ProxyUpdate смена стадии и видимости индикатора разрушения
type ProxyUpdate struct {
	Handle  entity.Handle
	Stage   int
	Visible bool
}

// Commands буфер изменений мира и объектов за один тик.
// Изменения применяются разом в конце тика, поэтому все чтения внутри тика
// видят состояние на его начало.
type Commands struct {
	BlockUpdates []BlockUpdate
	GroundItems  []GroundItemSpawn
	ProxySpawns  []ProxySpawn
	ProxyUpdates []ProxyUpdate
	Despawns     []entity.Handle
}

// NewCommands создаёт пустой буфер
func NewCommands() *Commands {
	return &Commands{}
}

// SetBlock добавляет изменение блока
func (c *Commands) SetBlock(pos vec.Vec3, id block.BlockID, state *block.State) {
	c.BlockUpdates = append(c.BlockUpdates, BlockUpdate{Position: pos, ID: id, State: state})
}

// SpawnGroundItem добавляет появление предмета на земле
func (c *Commands) SpawnGroundItem(spawn GroundItemSpawn) {
	c.GroundItems = append(c.GroundItems, spawn)
}

// SpawnProxy резервирует идентификатор индикатора и добавляет его создание
func (c *Commands) SpawnProxy(pos vec.Vec3) entity.Handle {
	h := entity.NewHandle()
	c.ProxySpawns = append(c.ProxySpawns, ProxySpawn{Handle: h, Position: pos})
	return h
}

// UpdateProxy добавляет смену стадии индикатора
func (c *Commands) UpdateProxy(h entity.Handle, stage int, visible bool) {
	c.ProxyUpdates = append(c.ProxyUpdates, ProxyUpdate{Handle: h, Stage: stage, Visible: visible})
}

// Despawn добавляет удаление объекта
func (c *Commands) Despawn(h entity.Handle) {
	c.Despawns = append(c.Despawns, h)
}

// Len возвращает общее количество команд
func (c *Commands) Len() int {
	return len(c.BlockUpdates) + len(c.GroundItems) + len(c.ProxySpawns) + len(c.ProxyUpdates) + len(c.Despawns)
}

// Reset очищает буфер для повторного использования
func (c *Commands) Reset() {
	c.BlockUpdates = c.BlockUpdates[:0]
	c.GroundItems = c.GroundItems[:0]
	c.ProxySpawns = c.ProxySpawns[:0]
	c.ProxyUpdates = c.ProxyUpdates[:0]
	c.Despawns = c.Despawns[:0]
}

// Apply применяет команды к миру и реестру объектов.
// Возвращает изменения блоков, которые были фактически применены.
func (c *Commands) Apply(w *World, objects *entity.Registry) []BlockUpdate {
	for _, spawn := range c.ProxySpawns {
		objects.Spawn(&entity.Object{
			Handle:    spawn.Handle,
			Kind:      entity.KindBreakingProxy,
			Transform: entity.NewTransform(spawn.Position.Float().Add(mgl64.Vec3{0.5, 0.5, 0.5})),
			Visual:    &entity.Visual{Stage: 0, Visible: false, Texture: BreakingTexture(0)},
		})
	}

	for _, upd := range c.ProxyUpdates {
		obj, ok := objects.Get(upd.Handle)
		if !ok || obj.Visual == nil {
			continue
		}
		obj.Visual.Stage = upd.Stage
		obj.Visual.Visible = upd.Visible
		obj.Visual.Texture = BreakingTexture(upd.Stage)
	}

	for _, h := range c.Despawns {
		objects.Despawn(h)
	}

	for _, spawn := range c.GroundItems {
		objects.Spawn(&entity.Object{
			Kind:      entity.KindGroundItem,
			Transform: entity.NewTransform(spawn.Position.Float().Add(mgl64.Vec3{0.5, 0.5, 0.5})),
			Bounds:    &groundItemBounds,
			Item:      &entity.GroundItem{Item: spawn.Item, Count: spawn.Count, ModelID: spawn.ModelID},
		})
	}

	applied := make([]BlockUpdate, 0, len(c.BlockUpdates))
	for _, upd := range c.BlockUpdates {
		chunk, ok := w.Chunk(upd.Position.ToChunkCoords())
		if !ok {
			logging.Warn("Изменение блока %v в незагруженном чанке отброшено", upd.Position)
			continue
		}
		local := upd.Position.LocalInChunk()
		if h, ok := chunk.RemoveBlockEntity(local); ok {
			objects.Despawn(h)
		}
		chunk.SetBlock(local, upd.ID, upd.State)
		if cfg, ok := w.blocks.Get(upd.ID); ok && cfg.BlockEntity {
			spawnBlockEntity(chunk, objects, upd.Position, upd.State)
		}
		applied = append(applied, upd)
	}
	return applied
}

// SpawnBlockEntities создает объекты для блоков чанка, помеченных как block_entity.
// Используется после загрузки чанка из хранилища.
func SpawnBlockEntities(w *World, objects *entity.Registry, chunk *Chunk) int {
	origin := chunk.Coords.ChunkOrigin()
	spawned := 0
	chunk.Each(w.blocks.Empty(), func(local vec.Vec3, id block.BlockID, state *block.State) {
		cfg, ok := w.blocks.Get(id)
		if !ok || !cfg.BlockEntity {
			return
		}
		if _, exists := chunk.GetBlockEntity(local); exists {
			return
		}
		spawnBlockEntity(chunk, objects, origin.Add(local), state)
		spawned++
	})
	return spawned
}

// spawnBlockEntity создает объект в центре основания блока
func spawnBlockEntity(chunk *Chunk, objects *entity.Registry, pos vec.Vec3, state *block.State) {
	transform := entity.NewTransform(entity.BlockAnchor(pos))
	if state != nil && state.Rotation != block.RotationNone {
		transform.Rotation = mgl64.QuatRotate(float64(state.Rotation.Turns())*math.Pi/2, mgl64.Vec3{0, 1, 0})
	}

	// Объем для попаданий берется из хитбокса блока по привязке,
	// взаимодействие идет через карту объектов чанка
	tag := pos
	h := objects.Spawn(&entity.Object{
		Kind:      entity.KindBlockEntity,
		Transform: transform,
		Block:     &tag,
		Sink:      entity.NewInteractionSink(),
	})
	chunk.SetBlockEntity(pos.LocalInChunk(), h)
}
