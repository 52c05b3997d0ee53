package interaction

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world/entity"
	"github.com/annel0/blockverse/internal/world/item"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func newEngine(f *fixture) *BreakingEngine {
	return NewBreakingEngine(f.world.Blocks(), f.items, f.players, DefaultBreakingConfig(), nil)
}

func TestStage(t *testing.T) {
	cases := map[float64]int{
		0:    0,
		0.05: 0,
		0.1:  0,
		0.11: 1,
		0.35: 3,
		0.65: 6,
		0.95: 9,
		1.5:  9,
	}
	for progress, want := range cases {
		assert.Equal(t, want, Stage(progress), "progress=%v", progress)
	}
}

func TestBreaking_AccumulatesUntilBroken(t *testing.T) {
	f := newFixture(t)
	engine := newEngine(f)
	pos := vec.Vec3{X: 1, Y: 1, Z: 1}
	f.set(t, pos, "wood")
	p := f.addPlayer(mgl64.Vec3{}, 0, 0, item.Stack{})
	ev := BreakEvent{Player: p.Handle, Position: pos, Block: f.id(t, "wood")}

	stats := engine.Process(at(0), []BreakEvent{ev}, f.cmds)
	assert.Equal(t, 1, stats.Applied)
	require.Len(t, f.cmds.ProxySpawns, 1, "Создан скрытый индикатор")
	proxy := f.cmds.ProxySpawns[0].Handle
	f.apply()

	prev := 0.0
	for i := 1; i <= 3; i++ {
		engine.Process(at(250*i), []BreakEvent{ev}, f.cmds)
		snap := engine.Store().Snapshot()
		require.Len(t, snap, 1)
		assert.Greater(t, snap[0].Progress, prev, "Прогресс монотонно растет")
		prev = snap[0].Progress
		f.apply()
	}
	assert.InDelta(t, 0.75, prev, 1e-9)

	stats = engine.Process(at(1000), []BreakEvent{ev}, f.cmds)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 0, engine.Store().Len(), "Завершенная запись удалена")
	assert.Contains(t, f.cmds.Despawns, proxy, "Индикатор удален вместе с записью")
	require.Len(t, f.cmds.GroundItems, 1)
	assert.Equal(t, "wood", f.cmds.GroundItems[0].Item)
	assert.Equal(t, uint32(3), f.cmds.GroundItems[0].ModelID)
	assert.Equal(t, pos, f.cmds.GroundItems[0].Position)

	f.apply()
	id, _ := f.world.Block(pos)
	assert.Equal(t, f.world.Blocks().Empty(), id, "Блок заменен пустым")
}

func TestBreaking_ToolEfficiency(t *testing.T) {
	f := newFixture(t)
	engine := newEngine(f)
	pos := vec.Vec3{X: 1, Y: 1, Z: 1}
	f.set(t, pos, "wood")
	p := f.addPlayer(mgl64.Vec3{}, 0, 0, item.Stack{Item: "pickaxe", Count: 1})
	ev := BreakEvent{Player: p.Handle, Position: pos, Block: f.id(t, "wood")}

	engine.Process(at(0), []BreakEvent{ev}, f.cmds)
	engine.Process(at(250), []BreakEvent{ev}, f.cmds)
	assert.InDelta(t, 0.5, engine.Store().Snapshot()[0].Progress, 1e-9, "Эффективность 2 удваивает скорость")

	stats := engine.Process(at(500), []BreakEvent{ev}, f.cmds)
	assert.Equal(t, 1, stats.Completed, "Блок с прочностью 1 ломается за 0.5 с")
}

func TestBreaking_MalformedToolFallsBack(t *testing.T) {
	f := newFixture(t)
	pos := vec.Vec3{X: 2, Y: 1, Z: 2}
	f.set(t, pos, "wood")

	for _, held := range []item.Stack{
		{Item: "broken_pickaxe", Count: 1},
		{Item: "unknown_item", Count: 1},
	} {
		engine := newEngine(f)
		p := f.addPlayer(mgl64.Vec3{}, 0, 0, held)
		ev := BreakEvent{Player: p.Handle, Position: pos, Block: f.id(t, "wood")}

		engine.Process(at(0), []BreakEvent{ev}, f.cmds)
		stats := engine.Process(at(250), []BreakEvent{ev}, f.cmds)
		assert.Equal(t, 1, stats.Applied, "Некорректный инструмент не приводит к ошибке")
		assert.InDelta(t, 0.25, engine.Store().Snapshot()[0].Progress, 1e-9, "Эффективность %s равна 1.0", held.Item)
	}
}

func TestBreaking_InstantBreak(t *testing.T) {
	f := newFixture(t)
	engine := newEngine(f)
	pos := vec.Vec3{X: 3, Y: 1, Z: 0}
	f.set(t, pos, "flower")
	p := f.addPlayer(mgl64.Vec3{}, 0, 0, item.Stack{})
	ev := BreakEvent{Player: p.Handle, Position: pos, Block: f.id(t, "flower")}

	stats := engine.Process(at(0), []BreakEvent{ev, ev, ev}, f.cmds)
	assert.Equal(t, 1, stats.Applied)
	assert.Equal(t, 2, stats.Duplicates, "Повторные удары в том же тике подавлены")
	assert.Empty(t, f.cmds.ProxySpawns, "Мгновенное разрушение без индикатора")
	assert.Empty(t, f.cmds.Despawns)
	require.Len(t, f.cmds.BlockUpdates, 1)
	require.Len(t, f.cmds.GroundItems, 1, "Ровно один выпавший предмет")
	assert.Equal(t, "flower", f.cmds.GroundItems[0].Item)
	assert.Equal(t, uint32(2), f.cmds.GroundItems[0].Count)
	assert.Equal(t, 0, engine.Store().Len(), "Защитная запись удалена в конце тика")

	f.apply()
	id, _ := f.world.Block(pos)
	assert.Equal(t, f.world.Blocks().Empty(), id)
	assert.Equal(t, 1, f.objects.CountByKind()[entity.KindGroundItem])
}

func TestBreaking_InstantBreakWithoutDrop(t *testing.T) {
	f := newFixture(t)
	engine := newEngine(f)
	pos := vec.Vec3{X: 3, Y: 2, Z: 0}
	f.set(t, pos, "glass")
	p := f.addPlayer(mgl64.Vec3{}, 0, 0, item.Stack{})

	engine.Process(at(0), []BreakEvent{{Player: p.Handle, Position: pos, Block: f.id(t, "glass")}}, f.cmds)
	assert.Len(t, f.cmds.BlockUpdates, 1)
	assert.Empty(t, f.cmds.GroundItems)
}

func TestBreaking_Unbreakable(t *testing.T) {
	f := newFixture(t)
	engine := newEngine(f)
	pos := vec.Vec3{X: 0, Y: 0, Z: 0}
	f.set(t, pos, "bedrock")
	p := f.addPlayer(mgl64.Vec3{}, 0, 0, item.Stack{Item: "pickaxe", Count: 1})
	ev := BreakEvent{Player: p.Handle, Position: pos, Block: f.id(t, "bedrock")}

	for i := 0; i < 20; i++ {
		err := engine.Hit(at(i*100), ev, f.cmds)
		assert.True(t, errors.Is(err, ErrPolicy))
		engine.Cleanup(at(i*100), f.cmds)
	}
	assert.Equal(t, 0, engine.Store().Len(), "Неразрушаемый блок не отслеживается")
	assert.Equal(t, 0, f.cmds.Len(), "Мир не изменяется")
}

func TestBreaking_Timeout(t *testing.T) {
	f := newFixture(t)
	engine := newEngine(f)
	pos := vec.Vec3{X: 1, Y: 1, Z: 1}
	f.set(t, pos, "wood")
	p := f.addPlayer(mgl64.Vec3{}, 0, 0, item.Stack{})
	ev := BreakEvent{Player: p.Handle, Position: pos, Block: f.id(t, "wood")}

	engine.Process(at(0), []BreakEvent{ev}, f.cmds)
	engine.Process(at(400), []BreakEvent{ev}, f.cmds)
	proxy := f.cmds.ProxySpawns[0].Handle
	f.apply()

	stats := engine.Process(at(900), nil, f.cmds)
	assert.Equal(t, 0, stats.TimedOut, "Ровно 500 мс еще не таймаут")
	assert.Equal(t, 1, engine.Store().Len())

	stats = engine.Process(at(901), nil, f.cmds)
	assert.Equal(t, 1, stats.TimedOut)
	assert.Equal(t, 0, engine.Store().Len(), "Прогресс сброшен")
	assert.Equal(t, []entity.Handle{proxy}, f.cmds.Despawns)
	assert.Empty(t, f.cmds.BlockUpdates, "Таймаут не изменяет мир")

	// Следующий удар начинает разрушение заново
	engine.Process(at(1000), []BreakEvent{ev}, f.cmds)
	assert.Equal(t, 0.0, engine.Store().Snapshot()[0].Progress)
}

func TestBreaking_StageJumps(t *testing.T) {
	f := newFixture(t)
	engine := newEngine(f)
	pos := vec.Vec3{X: 1, Y: 1, Z: 1}
	f.set(t, pos, "wood")
	p := f.addPlayer(mgl64.Vec3{}, 0, 0, item.Stack{})
	ev := BreakEvent{Player: p.Handle, Position: pos, Block: f.id(t, "wood")}

	engine.Process(at(0), []BreakEvent{ev}, f.cmds)
	proxy := f.cmds.ProxySpawns[0].Handle
	f.apply()

	// 0.05: порог 0.1 не пройден, индикатор остается скрытым
	engine.Process(at(50), []BreakEvent{ev}, f.cmds)
	assert.Empty(t, f.cmds.ProxyUpdates)

	// Скачок до 0.40: одна смена стадии сразу на 3 с включением видимости
	engine.Process(at(400), []BreakEvent{ev}, f.cmds)
	require.Len(t, f.cmds.ProxyUpdates, 1)
	assert.Equal(t, proxy, f.cmds.ProxyUpdates[0].Handle)
	assert.Equal(t, 3, f.cmds.ProxyUpdates[0].Stage)
	assert.True(t, f.cmds.ProxyUpdates[0].Visible)
	f.apply()

	obj, ok := f.objects.Get(proxy)
	require.True(t, ok)
	assert.True(t, obj.Visual.Visible)
	assert.Equal(t, "blocks/breaking_3.png", obj.Visual.Texture)

	// Удар внутри окна 50 мс не меняет прогресс
	engine.Process(at(420), []BreakEvent{ev}, f.cmds)
	assert.Empty(t, f.cmds.ProxyUpdates)
	assert.InDelta(t, 0.4, engine.Store().Snapshot()[0].Progress, 1e-9)

	// 0.4 + 0.25 = 0.65: стадия 6, не выше
	engine.Process(at(670), []BreakEvent{ev}, f.cmds)
	require.Len(t, f.cmds.ProxyUpdates, 1)
	assert.Equal(t, 6, f.cmds.ProxyUpdates[0].Stage)
}

func TestBreaking_DuplicateTimestamps(t *testing.T) {
	f := newFixture(t)
	engine := newEngine(f)
	pos := vec.Vec3{X: 1, Y: 1, Z: 1}
	f.set(t, pos, "wood")
	p := f.addPlayer(mgl64.Vec3{}, 0, 0, item.Stack{})
	ev := BreakEvent{Player: p.Handle, Position: pos, Block: f.id(t, "wood")}

	stats := engine.Process(at(0), []BreakEvent{ev, ev}, f.cmds)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Len(t, f.cmds.ProxySpawns, 1, "Один индикатор на позицию")

	stats = engine.Process(at(250), []BreakEvent{ev, ev, ev}, f.cmds)
	assert.Equal(t, 1, stats.Applied)
	assert.Equal(t, 2, stats.Duplicates)
	assert.InDelta(t, 0.25, engine.Store().Snapshot()[0].Progress, 1e-9, "Одно обновление прогресса")
}

func TestBreakingStore_SnapshotDuringProcess(t *testing.T) {
	f := newFixture(t)
	engine := newEngine(f)
	pos := vec.Vec3{X: 1, Y: 1, Z: 1}
	f.set(t, pos, "wood")
	p := f.addPlayer(mgl64.Vec3{}, 0, 0, item.Stack{})
	ev := BreakEvent{Player: p.Handle, Position: pos, Block: f.id(t, "wood")}

	// Чтение снимков из другой горутины, как в admin API
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				for _, snap := range engine.Store().Snapshot() {
					assert.GreaterOrEqual(t, snap.Progress, 0.0)
				}
			}
		}
	}()

	for i := 0; i < 200; i++ {
		f.cmds.Reset()
		engine.Process(at(60*i), []BreakEvent{ev}, f.cmds)
	}
	close(done)
	wg.Wait()

	snap := engine.Store().Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, at(60*199), snap[0].LastHit)
}

func TestBreaking_DropDependsOnTool(t *testing.T) {
	f := newFixture(t)
	pos := vec.Vec3{X: 1, Y: 1, Z: 1}

	for held, want := range map[string]string{"pickaxe": "stone", "": "cobblestone"} {
		f.cmds.Reset()
		engine := newEngine(f)
		f.set(t, pos, "stone")
		stack := item.Stack{}
		if held != "" {
			stack = item.Stack{Item: held, Count: 1}
		}
		p := f.addPlayer(mgl64.Vec3{}, 0, 0, stack)
		ev := BreakEvent{Player: p.Handle, Position: pos, Block: f.id(t, "stone")}

		engine.Process(at(0), []BreakEvent{ev}, f.cmds)
		engine.Process(at(2000), []BreakEvent{ev}, f.cmds)
		require.Len(t, f.cmds.GroundItems, 1)
		assert.Equal(t, want, f.cmds.GroundItems[0].Item, "инструмент %q", held)
	}
}

func TestBreaking_Preconditions(t *testing.T) {
	f := newFixture(t)
	engine := newEngine(f)
	pos := vec.Vec3{X: 1, Y: 1, Z: 1}
	f.set(t, pos, "wood")

	noInventory := &entity.Player{Camera: entity.NewCamera(mgl64.Vec3{}, 0, 0)}
	f.players.Add(noInventory)

	err := engine.Hit(at(0), BreakEvent{Player: noInventory.Handle, Position: pos, Block: f.id(t, "wood")}, f.cmds)
	assert.True(t, errors.Is(err, ErrPrecondition))

	err = engine.Hit(at(0), BreakEvent{Player: entity.NewHandle(), Position: pos, Block: f.id(t, "wood")}, f.cmds)
	assert.True(t, errors.Is(err, ErrPrecondition), "Неизвестный игрок")

	stats := engine.Process(at(0), []BreakEvent{{Player: noInventory.Handle, Position: pos, Block: f.id(t, "wood")}}, f.cmds)
	assert.Equal(t, 1, stats.Preconditions)
	assert.Equal(t, 0, engine.Store().Len())
	assert.Equal(t, 0, f.cmds.Len())
}
