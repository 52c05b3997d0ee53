package interaction

import (
	"errors"
	"fmt"

	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/observability"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
	"github.com/annel0/blockverse/internal/world/entity"
	"github.com/annel0/blockverse/internal/world/item"
)

// DefaultReach максимальная дистанция действия руки
const DefaultReach = 5.0

// Outcome результат вторичного действия
type Outcome uint8

const (
	OutcomeNone        Outcome = iota // Действие отброшено
	OutcomeObject                     // Попадание в динамический объект
	OutcomeBlockEntity                // Взаимодействие с объектом блока
	OutcomeItemUse                    // Только уведомление об использовании предмета
	OutcomePlaced                     // Установлен блок
)

func (o Outcome) String() string {
	switch o {
	case OutcomeObject:
		return "object"
	case OutcomeBlockEntity:
		return "block_entity"
	case OutcomeItemUse:
		return "item_use"
	case OutcomePlaced:
		return "placed"
	default:
		return "none"
	}
}

// InteractStats итоги обработки вторичных действий за тик
type InteractStats struct {
	Outcomes      map[Outcome]int
	Ignored       int
	Preconditions int
}

// Dispatcher направляет вторичные действия в очередь объекта,
// объект блока или логику использования предмета и установки блока
type Dispatcher struct {
	resolver *Resolver
	world    *world.World
	objects  *entity.Registry
	players  *entity.Players
	items    *item.Registry
	usable   *UsableItems
	reach    float64
	metrics  *observability.HandMetrics
	logger   *logging.Logger
}

// NewDispatcher создаёт диспетчер. metrics может быть nil.
func NewDispatcher(resolver *Resolver, w *world.World, objects *entity.Registry, players *entity.Players,
	items *item.Registry, usable *UsableItems, reach float64, metrics *observability.HandMetrics) *Dispatcher {
	if reach <= 0 {
		reach = DefaultReach
	}
	return &Dispatcher{
		resolver: resolver,
		world:    w,
		objects:  objects,
		players:  players,
		items:    items,
		usable:   usable,
		reach:    reach,
		metrics:  metrics,
		logger:   logging.GetHandLogger(),
	}
}

// Interact обрабатывает одно вторичное действие игрока
func (d *Dispatcher) Interact(click SecondaryClick, cmds *world.Commands) (Outcome, error) {
	player, ok := d.players.Get(click.Player)
	if !ok {
		return OutcomeNone, fmt.Errorf("%w: игрок %s не найден", ErrPrecondition, click.Player)
	}
	if player.Inventory == nil {
		return OutcomeNone, fmt.Errorf("%w: у игрока %s нет инвентаря", ErrPrecondition, click.Player)
	}
	ray, err := RayFromPlayer(player, d.reach)
	if err != nil {
		return OutcomeNone, err
	}

	hit := d.resolver.Resolve(ray, ModeInteraction)

	switch hit.Kind {
	case HitObject:
		// Попадание в объект поглощает действие даже без очереди взаимодействий
		if obj, ok := d.objects.Get(hit.Object); ok && obj.Sink != nil {
			obj.Sink.Push(player.Handle)
		}
		d.metrics.IncInteraction(OutcomeObject.String())
		return OutcomeObject, nil
	case HitBlock:
		if h, ok := d.world.BlockEntity(hit.Block.Position); ok {
			if obj, ok := d.objects.Get(h); ok && obj.Sink != nil {
				obj.Sink.Push(player.Handle)
				d.metrics.IncInteraction(OutcomeBlockEntity.String())
				return OutcomeBlockEntity, nil
			}
		}
	}

	stack := player.Inventory.EquippedStack()
	if stack == nil || stack.IsEmpty() {
		return OutcomeNone, fmt.Errorf("%w: пустая рука", ErrPolicy)
	}

	outcome := OutcomeNone
	if uses, ok := d.usable.Get(stack.Item); ok {
		use := ItemUse{Player: player.Handle}
		if hit.Kind == HitBlock {
			use.Target = &BlockTarget{Position: hit.Block.Position, ID: hit.Block.ID}
		}
		uses.Push(use)
		d.metrics.IncInteraction(OutcomeItemUse.String())
		outcome = OutcomeItemUse
	}

	if hit.Kind != HitBlock {
		return outcome, nil
	}

	target, err := d.placementTarget(hit.Block)
	if err != nil {
		return outcome, err
	}

	itemCfg, ok := d.items.Get(stack.Item)
	if !ok || itemCfg.Block == "" {
		return outcome, fmt.Errorf("%w: предмет %q нельзя установить", ErrPolicy, stack.Item)
	}
	blockID, ok := d.world.Blocks().ID(itemCfg.Block)
	if !ok {
		d.logger.Warn("Предмет %q ссылается на неизвестный блок %q", stack.Item, itemCfg.Block)
		return outcome, fmt.Errorf("%w: неизвестный блок %q", ErrPolicy, itemCfg.Block)
	}
	blockCfg, _ := d.world.Blocks().Get(blockID)

	stack.Subtract(1)

	state := Orientation(blockCfg.Placement, hit.Block.Face, hit.Block.Position, player.Position)
	cmds.SetBlock(target, blockID, state)
	d.metrics.IncPlacement()
	return OutcomePlaced, nil
}

// placementTarget выбирает позицию для нового блока: сам блок, если он заменяемый,
// иначе соседний блок со стороны грани, если он загружен и заменяемый
func (d *Dispatcher) placementTarget(hit world.BlockHit) (vec.Vec3, error) {
	if cfg, ok := d.world.Blocks().Get(hit.ID); ok && cfg.Replaceable {
		return hit.Position, nil
	}

	adjacent := hit.Position.Side(hit.Face)
	cfg, ok := d.world.BlockConfig(adjacent)
	if !ok {
		return vec.Vec3{}, fmt.Errorf("%w: соседний блок %v недоступен", ErrPolicy, adjacent)
	}
	if !cfg.Replaceable {
		return vec.Vec3{}, fmt.Errorf("%w: блок %v занят", ErrPolicy, adjacent)
	}
	return adjacent, nil
}

// Process обрабатывает вторичные действия тика в порядке поступления
func (d *Dispatcher) Process(clicks []SecondaryClick, cmds *world.Commands) InteractStats {
	stats := InteractStats{Outcomes: make(map[Outcome]int)}
	for _, click := range clicks {
		outcome, err := d.Interact(click, cmds)
		stats.Outcomes[outcome]++
		switch {
		case err == nil:
		case errors.Is(err, ErrPrecondition):
			stats.Preconditions++
			d.metrics.IncPrecondition()
			d.logger.Error("Вторичное действие отброшено: %v", err)
		default:
			stats.Ignored++
			d.logger.Trace("Вторичное действие не выполнено: %v", err)
		}
	}
	return stats
}
