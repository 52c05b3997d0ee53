package interaction

import (
	"testing"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/annel0/blockverse/internal/world/entity"
	"github.com/annel0/blockverse/internal/world/item"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

const fixtureBlocks = `
empty: air
blocks:
  - name: air
    replaceable: true
  - name: stone
    hardness: 1.5
    hitbox: [0, 0, 0, 1, 1, 1]
    drops:
      any: {item: cobblestone}
      tools:
        pickaxe: {item: stone}
  - name: wood
    hardness: 1
    hitbox: [0, 0, 0, 1, 1, 1]
    drops:
      any: {item: wood, count: 1}
  - name: flower
    hardness: 0
    hitbox: [0.25, 0, 0.25, 0.75, 0.5, 0.75]
    drops:
      any: {item: flower, count: 2}
  - name: glass
    hardness: 0
    hitbox: [0, 0, 0, 1, 1, 1]
  - name: bedrock
    hitbox: [0, 0, 0, 1, 1, 1]
  - name: tall_grass
    hardness: 0
    replaceable: true
    hitbox: [0.1, 0, 0.1, 0.9, 0.8, 0.9]
  - name: barrier
  - name: chest
    hardness: 2
    hitbox: [0.0625, 0, 0.0625, 0.9375, 0.875, 0.9375]
    block_entity: true
  - name: panel
    hardness: 1
    hitbox: [0, 0, 0, 1, 1, 0.25]
  - name: furnace
    hardness: 3
    hitbox: [0, 0, 0, 1, 1, 1]
    placement: {rotatable: true, floor: true, ceiling: true}
`

const fixtureItems = `
items:
  - name: stone
    block: stone
    model: 1
  - name: cobblestone
    model: 2
  - name: wood
    block: wood
    model: 3
  - name: flower
    model: 4
  - name: furnace
    block: furnace
  - name: ghost
    block: no_such_block
  - name: apple
    model: 5
  - name: pickaxe
    tool: {name: pickaxe, efficiency: 2}
    max_stack: 1
  - name: broken_pickaxe
    tool: {name: pickaxe, efficiency: -4}
    max_stack: 1
`

type fixture struct {
	world   *world.World
	objects *entity.Registry
	players *entity.Players
	items   *item.Registry
	usable  *UsableItems
	cmds    *world.Commands
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	blocks, err := block.ParseBlocks([]byte(fixtureBlocks))
	require.NoError(t, err)
	items, err := item.ParseItems([]byte(fixtureItems))
	require.NoError(t, err)

	w := world.New(blocks)
	require.NoError(t, w.LoadAround(vec.Vec3{}, 1))

	return &fixture{
		world:   w,
		objects: entity.NewRegistry(),
		players: entity.NewPlayers(),
		items:   items,
		usable:  NewUsableItems(),
		cmds:    world.NewCommands(),
	}
}

func (f *fixture) id(t *testing.T, name string) block.BlockID {
	t.Helper()
	id, ok := f.world.Blocks().ID(name)
	require.True(t, ok, "блок %s не зарегистрирован", name)
	return id
}

func (f *fixture) set(t *testing.T, pos vec.Vec3, name string) {
	t.Helper()
	require.True(t, f.world.SetBlock(pos, f.id(t, name), nil))
}

// addPlayer добавляет игрока с камерой на уровне ног
func (f *fixture) addPlayer(pos mgl64.Vec3, yaw, pitch float64, held item.Stack) *entity.Player {
	inv := item.NewInventory(item.DefaultInventorySize)
	inv.Slots[0] = held
	p := &entity.Player{
		Position:  pos,
		Camera:    entity.NewCamera(mgl64.Vec3{}, yaw, pitch),
		Inventory: inv,
	}
	f.players.Add(p)
	return p
}

func (f *fixture) apply() []world.BlockUpdate {
	applied := f.cmds.Apply(f.world, f.objects)
	f.cmds.Reset()
	return applied
}
