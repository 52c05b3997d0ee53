package interaction

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/observability"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/annel0/blockverse/internal/world/entity"
	"github.com/annel0/blockverse/internal/world/item"
)

const (
	// DefaultBurstWindow удары чаще этого интервала только обновляют метку времени
	DefaultBurstWindow = 50 * time.Millisecond
	// DefaultBreakTimeout время, после которого незавершенное разрушение сбрасывается
	DefaultBreakTimeout = 500 * time.Millisecond
	// StageCount количество порогов стадий разрушения (0.1 … 0.9)
	StageCount = 9
)

// Stage возвращает количество порогов 0.1 … 0.9, строго превышенных прогрессом
func Stage(progress float64) int {
	stage := 0
	for i := 1; i <= StageCount; i++ {
		if progress > float64(i)/10 {
			stage = i
		}
	}
	return stage
}

// BreakingEntry состояние разрушения одного блока
type BreakingEntry struct {
	Proxy    entity.Handle // Индикатор разрушения, пустой для мгновенно разрушенных блоков
	Progress float64
	LastHit  time.Time
}

// BreakingSnapshot копия записи для внешнего чтения
type BreakingSnapshot struct {
	Position vec.Vec3  `json:"position"`
	Progress float64   `json:"progress"`
	Stage    int       `json:"stage"`
	LastHit  time.Time `json:"last_hit"`
}

// BreakingStore хранит не больше одной записи на позицию блока.
// Изменяется только BreakingEngine.
type BreakingStore struct {
	entries map[vec.Vec3]*BreakingEntry
	mu      sync.RWMutex
}

// NewBreakingStore создаёт пустое хранилище
func NewBreakingStore() *BreakingStore {
	return &BreakingStore{entries: make(map[vec.Vec3]*BreakingEntry)}
}

// get возвращает копию записи. Изменения сохраняются только через put.
func (s *BreakingStore) get(pos vec.Vec3) (BreakingEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[pos]
	if !ok {
		return BreakingEntry{}, false
	}
	return *e, true
}

func (s *BreakingStore) put(pos vec.Vec3, e *BreakingEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[pos] = e
}

// retain удаляет записи, для которых keep возвращает false, и возвращает удаленные
func (s *BreakingStore) retain(keep func(*BreakingEntry) bool) map[vec.Vec3]*BreakingEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[vec.Vec3]*BreakingEntry)
	for pos, e := range s.entries {
		if !keep(e) {
			removed[pos] = e
			delete(s.entries, pos)
		}
	}
	return removed
}

// Len возвращает количество записей
func (s *BreakingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot возвращает копию всех записей, упорядоченную по позиции
func (s *BreakingStore) Snapshot() []BreakingSnapshot {
	s.mu.RLock()
	out := make([]BreakingSnapshot, 0, len(s.entries))
	for pos, e := range s.entries {
		out = append(out, BreakingSnapshot{
			Position: pos,
			Progress: e.Progress,
			Stage:    Stage(e.Progress),
			LastHit:  e.LastHit,
		})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Position, out[j].Position
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return out
}

// BreakingConfig параметры разрушения
type BreakingConfig struct {
	BurstWindow time.Duration
	Timeout     time.Duration
}

// DefaultBreakingConfig возвращает параметры по умолчанию
func DefaultBreakingConfig() BreakingConfig {
	return BreakingConfig{BurstWindow: DefaultBurstWindow, Timeout: DefaultBreakTimeout}
}

// BreakStats итоги обработки ударов за тик
type BreakStats struct {
	Applied       int
	Completed     int
	Duplicates    int
	Ignored       int
	Preconditions int
	TimedOut      int
}

// BreakingEngine ведет автомат разрушения блоков
type BreakingEngine struct {
	cfg     BreakingConfig
	store   *BreakingStore
	blocks  *block.Registry
	items   *item.Registry
	players *entity.Players
	metrics *observability.HandMetrics
	logger  *logging.Logger
}

// NewBreakingEngine создаёт движок разрушения. metrics может быть nil.
func NewBreakingEngine(blocks *block.Registry, items *item.Registry, players *entity.Players, cfg BreakingConfig, metrics *observability.HandMetrics) *BreakingEngine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBreakTimeout
	}
	if cfg.BurstWindow < 0 {
		cfg.BurstWindow = DefaultBurstWindow
	}
	return &BreakingEngine{
		cfg:     cfg,
		store:   NewBreakingStore(),
		blocks:  blocks,
		items:   items,
		players: players,
		metrics: metrics,
		logger:  logging.GetHandLogger(),
	}
}

// Store возвращает хранилище для чтения
func (e *BreakingEngine) Store() *BreakingStore {
	return e.store
}

// toolInfo имя и эффективность инструмента в руке игрока
type toolInfo struct {
	name       string
	efficiency float64
}

// equippedTool определяет инструмент в руке. Некорректная конфигурация дает эффективность 1.0.
func (e *BreakingEngine) equippedTool(p *entity.Player) toolInfo {
	stack := p.Inventory.EquippedStack()
	if stack == nil || stack.IsEmpty() {
		return toolInfo{efficiency: 1.0}
	}
	cfg, ok := e.items.Get(stack.Item)
	if !ok {
		e.logger.Warn("Неизвестный предмет %q в руке игрока %s, эффективность 1.0", stack.Item, p.Handle)
		return toolInfo{efficiency: 1.0}
	}
	if cfg.Tool == nil {
		return toolInfo{efficiency: 1.0}
	}
	if !cfg.Tool.Valid() {
		e.logger.Warn("Некорректная эффективность инструмента %q (%v), используется 1.0", stack.Item, cfg.Tool.Efficiency)
	}
	return toolInfo{name: cfg.Tool.Name, efficiency: cfg.Tool.EffectiveEfficiency()}
}

// Hit обрабатывает один удар по блоку в момент тика now.
// Возвращает ErrDuplicate, ErrPrecondition или ErrPolicy, если событие отброшено.
func (e *BreakingEngine) Hit(now time.Time, ev BreakEvent, cmds *world.Commands) error {
	entry, tracked := e.store.get(ev.Position)
	if tracked && entry.LastHit.Equal(now) {
		return ErrDuplicate
	}

	player, ok := e.players.Get(ev.Player)
	if !ok {
		return fmt.Errorf("%w: игрок %s не найден", ErrPrecondition, ev.Player)
	}
	if player.Inventory == nil {
		return fmt.Errorf("%w: у игрока %s нет инвентаря", ErrPrecondition, ev.Player)
	}
	tool := e.equippedTool(player)

	cfg, ok := e.blocks.Get(ev.Block)
	if !ok || !cfg.Breakable() {
		return fmt.Errorf("%w: блок %d в %v неразрушаем", ErrPolicy, ev.Block, ev.Position)
	}
	hardness := *cfg.Hardness

	if tracked {
		if entry.Progress >= 1 {
			return ErrDuplicate
		}
		elapsed := now.Sub(entry.LastHit)
		entry.LastHit = now
		if elapsed >= e.cfg.BurstWindow {
			prev := entry.Progress
			entry.Progress += elapsed.Seconds() / hardness * tool.efficiency
			e.metrics.IncBreakHit()

			if entry.Progress >= 1 {
				e.complete(ev.Position, cfg, tool, cmds)
			} else if stage := Stage(entry.Progress); stage > Stage(prev) {
				cmds.UpdateProxy(entry.Proxy, stage, true)
			}
		}
		e.store.put(ev.Position, &entry)
		return nil
	}

	e.metrics.IncBreakHit()
	if hardness == 0 {
		e.complete(ev.Position, cfg, tool, cmds)
		// Защита от повторного разрушения в этом же тике
		e.store.put(ev.Position, &BreakingEntry{Progress: 1, LastHit: now})
		return nil
	}

	proxy := cmds.SpawnProxy(ev.Position)
	e.store.put(ev.Position, &BreakingEntry{Proxy: proxy, LastHit: now})
	return nil
}

// complete заменяет блок пустым и создает выпавший предмет
func (e *BreakingEngine) complete(pos vec.Vec3, cfg *block.Config, tool toolInfo, cmds *world.Commands) {
	cmds.SetBlock(pos, e.blocks.Empty(), nil)
	e.metrics.IncBlockBroken()

	drop, ok := cfg.Drops.Resolve(tool.name)
	if !ok {
		return
	}
	var model uint32
	if itemCfg, ok := e.items.Get(drop.Item); ok {
		model = itemCfg.ModelID
	} else {
		e.logger.Warn("Выпадающий предмет %q блока %s не зарегистрирован", drop.Item, cfg.Name)
	}
	cmds.SpawnGroundItem(world.GroundItemSpawn{
		Item:     drop.Item,
		Count:    drop.Count,
		ModelID:  model,
		Position: pos,
	})
}

// Cleanup удаляет записи старше таймаута и завершенные записи вместе с индикаторами.
// Возвращает количество записей, сброшенных по таймауту.
func (e *BreakingEngine) Cleanup(now time.Time, cmds *world.Commands) int {
	timedOut := 0
	removed := e.store.retain(func(entry *BreakingEntry) bool {
		if entry.Progress >= 1 {
			return false
		}
		if now.Sub(entry.LastHit) > e.cfg.Timeout {
			timedOut++
			return false
		}
		return true
	})
	for _, entry := range removed {
		if !entry.Proxy.IsNil() {
			cmds.Despawn(entry.Proxy)
		}
	}
	e.metrics.AddBreakTimeouts(timedOut)
	e.metrics.SetActiveBreaking(e.store.Len())
	return timedOut
}

// Process обрабатывает удары тика в порядке поступления, затем выполняет Cleanup
func (e *BreakingEngine) Process(now time.Time, events []BreakEvent, cmds *world.Commands) BreakStats {
	var stats BreakStats
	for _, ev := range events {
		before := len(cmds.BlockUpdates)
		err := e.Hit(now, ev, cmds)
		switch {
		case err == nil:
			stats.Applied++
			if len(cmds.BlockUpdates) > before {
				stats.Completed++
			}
		case errors.Is(err, ErrDuplicate):
			stats.Duplicates++
			e.metrics.IncDuplicate()
		case errors.Is(err, ErrPrecondition):
			stats.Preconditions++
			e.metrics.IncPrecondition()
			e.logger.Error("Удар по блоку отброшен: %v", err)
		default:
			stats.Ignored++
			e.logger.Trace("Удар по блоку проигнорирован: %v", err)
		}
	}
	stats.TimedOut = e.Cleanup(now, cmds)
	return stats
}
