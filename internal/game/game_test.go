package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/blockverse/internal/eventbus"
	"github.com/annel0/blockverse/internal/interaction"
	"github.com/annel0/blockverse/internal/storage"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/annel0/blockverse/internal/world/entity"
	"github.com/annel0/blockverse/internal/world/item"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBlocks = `
blocks:
  - name: air
    replaceable: true
  - name: wood
    hardness: 1
    hitbox: [0, 0, 0, 1, 1, 1]
    drops:
      any: {item: wood}
  - name: chest
    hardness: 2
    hitbox: [0.0625, 0, 0.0625, 0.9375, 0.875, 0.9375]
    block_entity: true
`

const testItems = `
items:
  - name: wood
    block: wood
    model: 3
`

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func registries(t *testing.T) (*block.Registry, *item.Registry) {
	t.Helper()
	blocks, err := block.ParseBlocks([]byte(testBlocks))
	require.NoError(t, err)
	items, err := item.ParseItems([]byte(testItems))
	require.NoError(t, err)
	return blocks, items
}

func blockID(t *testing.T, blocks *block.Registry, name string) block.BlockID {
	t.Helper()
	id, ok := blocks.ID(name)
	require.True(t, ok)
	return id
}

func join(t *testing.T, g *Game, held item.Stack) entity.Handle {
	t.Helper()
	inv := item.NewInventory(item.DefaultInventorySize)
	inv.Slots[0] = held
	h, err := g.Join(&entity.Player{
		Name:      "tester",
		Position:  mgl64.Vec3{0.5, 1.5, 0},
		Camera:    entity.NewCamera(mgl64.Vec3{}, 0, 0),
		Inventory: inv,
	})
	require.NoError(t, err)
	return h
}

type recorder struct {
	mu     sync.Mutex
	events []eventbus.BlockChanged
}

func (r *recorder) handle(_ context.Context, ev *eventbus.Envelope) {
	payload, err := eventbus.DecodeBlockChanged(ev)
	if err != nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, payload)
	r.mu.Unlock()
}

func TestStep_BreaksBlockAndPublishes(t *testing.T) {
	blocks, items := registries(t)
	w := world.New(blocks)
	bus := eventbus.NewMemoryBus(16)
	var rec recorder
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{eventbus.EventBlockChanged}}, rec.handle)
	require.NoError(t, err)

	g := New(w, items, bus, nil, DefaultOptions())
	player := join(t, g, item.Stack{})
	target := vec.Vec3{X: 0, Y: 1, Z: -3}
	require.True(t, w.SetBlock(target, blockID(t, blocks, "wood"), nil))

	for i := 0; i < 4; i++ {
		g.Intake().PushPrimary(player)
		report, err := g.Step(context.Background(), at(250*i))
		require.NoError(t, err)
		assert.Equal(t, 1, report.Hand.Primary)
		assert.Equal(t, 0, report.Applied)
	}
	assert.Equal(t, 1, g.Breaking().Len())
	assert.Equal(t, uint64(4), g.CurrentTick())

	g.Intake().PushPrimary(player)
	report, err := g.Step(context.Background(), at(1000))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 1, report.Published)
	assert.Equal(t, 0, g.Intake().Len(), "Очередь кликов разобрана")
	assert.Equal(t, 0, g.Breaking().Len())

	id, _ := w.Block(target)
	assert.Equal(t, blocks.Empty(), id)
	assert.Equal(t, 1, g.Objects().CountByKind()[entity.KindGroundItem])

	require.NoError(t, bus.Close())
	require.Len(t, rec.events, 1)
	assert.Equal(t, eventbus.BlockChanged{X: 0, Y: 1, Z: -3, Block: blocks.Empty(), Name: "air", Tick: 5}, rec.events[0])
}

func TestAdvance_HeldButtonIgnoresTimerJitter(t *testing.T) {
	blocks, items := registries(t)
	w := world.New(blocks)
	g := New(w, items, nil, nil, DefaultOptions())
	player := join(t, g, item.Stack{})
	target := vec.Vec3{X: 0, Y: 1, Z: -3}
	require.True(t, w.SetBlock(target, blockID(t, blocks, "wood"), nil))

	// Таймер срабатывает то чуть позже, то чуть раньше 50 мс
	gaps := []time.Duration{50200 * time.Microsecond, 49800 * time.Microsecond}
	wall := t0
	brokenAt := uint64(0)
	for i := 0; i < 40 && brokenAt == 0; i++ {
		g.Intake().PushPrimary(player)
		report, err := g.Advance(context.Background(), wall)
		require.NoError(t, err)
		if report.Tick == 2 {
			snap := g.Breaking().Snapshot()
			require.Len(t, snap, 1)
			assert.Equal(t, g.TickTime(2), snap[0].LastHit, "Время удара берется из расписания")
			assert.Equal(t, 50*time.Millisecond, g.TickTime(2).Sub(g.TickTime(1)))
		}
		if report.Applied > 0 {
			brokenAt = report.Tick
		}
		wall = wall.Add(gaps[i%2])
	}

	// Прочность 1 при тике 50 мс: 20 приращений по 0.05 после первого удара
	require.NotZero(t, brokenAt, "Блок должен быть разрушен")
	assert.GreaterOrEqual(t, brokenAt, uint64(21))
	assert.LessOrEqual(t, brokenAt, uint64(22), "Дрожание таймера не должно терять прогресс")

	id, _ := w.Block(target)
	assert.Equal(t, blocks.Empty(), id)
}

func TestAdvance_ResyncsAfterStall(t *testing.T) {
	blocks, items := registries(t)
	g := New(world.New(blocks), items, nil, nil, DefaultOptions())

	_, err := g.Advance(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, t0, g.TickTime(1))

	// Небольшое отклонение не меняет расписание
	_, err = g.Advance(context.Background(), at(52))
	require.NoError(t, err)
	assert.Equal(t, at(50), g.TickTime(2))

	// Остановка цикла на секунду сдвигает расписание к фактическому времени
	stalled := at(1100)
	_, err = g.Advance(context.Background(), stalled)
	require.NoError(t, err)
	assert.Equal(t, stalled, g.TickTime(3))
	assert.Equal(t, stalled.Add(50*time.Millisecond), g.TickTime(4))
}

func TestStep_PlacesBlock(t *testing.T) {
	blocks, items := registries(t)
	w := world.New(blocks)
	g := New(w, items, nil, nil, DefaultOptions())
	player := join(t, g, item.Stack{Item: "wood", Count: 1})
	require.True(t, w.SetBlock(vec.Vec3{X: 0, Y: 1, Z: -3}, blockID(t, blocks, "wood"), nil))

	g.Intake().PushSecondary(player)
	report, err := g.Step(context.Background(), at(0))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Hand.Secondary.Outcomes[interaction.OutcomePlaced])
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 0, report.Published, "Без шины события не публикуются")

	id, _ := w.Block(vec.Vec3{X: 0, Y: 1, Z: -2})
	assert.Equal(t, blockID(t, blocks, "wood"), id)
}

func TestStep_Autosave(t *testing.T) {
	blocks, items := registries(t)
	store, err := storage.NewWorldStorage("")
	require.NoError(t, err)
	defer store.Close()

	w := world.New(blocks, world.WithStore(store))
	opts := DefaultOptions()
	opts.Autosave = time.Second
	g := New(w, items, nil, nil, opts)
	join(t, g, item.Stack{})

	_, err = g.Step(context.Background(), at(0))
	require.NoError(t, err)
	require.True(t, w.SetBlock(vec.Vec3{X: 4, Y: 4, Z: 4}, blockID(t, blocks, "wood"), nil))

	report, err := g.Step(context.Background(), at(500))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Saved, "Интервал автосохранения еще не истек")

	report, err = g.Step(context.Background(), at(1000))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Saved)
	assert.Empty(t, w.DirtyChunks())

	count, err := store.CountChunks()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestJoin_RestoresBlockEntities(t *testing.T) {
	blocks, items := registries(t)
	store, err := storage.NewWorldStorage("")
	require.NoError(t, err)
	defer store.Close()

	chunk := world.NewChunk(vec.Vec3{})
	for x := 0; x < vec.ChunkSize; x++ {
		for y := 0; y < vec.ChunkSize; y++ {
			for z := 0; z < vec.ChunkSize; z++ {
				chunk.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, blocks.Empty(), nil)
			}
		}
	}
	chunk.SetBlock(vec.Vec3{X: 2, Y: 0, Z: 2}, blockID(t, blocks, "chest"), block.NewState(block.RotationOnce))
	require.NoError(t, store.SaveChunk(chunk))

	g := New(world.New(blocks, world.WithStore(store)), items, nil, nil, DefaultOptions())
	join(t, g, item.Stack{})

	h, ok := g.World().BlockEntity(vec.Vec3{X: 2, Y: 0, Z: 2})
	require.True(t, ok, "Объект сундука восстановлен при загрузке чанка")
	obj, ok := g.Objects().Get(h)
	require.True(t, ok)
	assert.Equal(t, entity.KindBlockEntity, obj.Kind)
	assert.NotNil(t, obj.Sink)
	assert.Equal(t, 1, g.Objects().CountByKind()[entity.KindBlockEntity])
}

func TestRun_StopsOnCancel(t *testing.T) {
	blocks, items := registries(t)
	opts := DefaultOptions()
	opts.TickInterval = time.Millisecond
	g := New(world.New(blocks), items, nil, nil, opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	require.Eventually(t, func() bool { return g.CurrentTick() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("игровой цикл не остановился")
	}
}

func TestIntake_Order(t *testing.T) {
	var in Intake
	a, b := entity.NewHandle(), entity.NewHandle()
	in.PushPrimary(a)
	in.PushSecondary(b)
	in.PushPrimary(b)
	assert.Equal(t, 3, in.Len())

	primary, secondary := in.Drain()
	assert.Equal(t, []interaction.PrimaryClick{{Player: a}, {Player: b}}, primary)
	assert.Equal(t, []interaction.SecondaryClick{{Player: b}}, secondary)
	assert.Equal(t, 0, in.Len())
}
