package interaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/observability"
	"github.com/annel0/blockverse/internal/world"
	"github.com/annel0/blockverse/internal/world/entity"
	"github.com/annel0/blockverse/internal/world/item"
)

// HandConfig параметры подсистемы руки
type HandConfig struct {
	Reach    float64
	Breaking BreakingConfig
}

// TickStats итоги тика подсистемы руки
type TickStats struct {
	Primary   int // Разрешенные удары по блокам
	Missed    int // Основные клики без цели
	Breaking  BreakStats
	Secondary InteractStats
}

// Hand объединяет поиск целей, разрушение и взаимодействие
type Hand struct {
	cfg        HandConfig
	resolver   *Resolver
	breaking   *BreakingEngine
	dispatcher *Dispatcher
	players    *entity.Players
	metrics    *observability.HandMetrics
	logger     *logging.Logger
}

// NewHand создаёт подсистему руки. metrics может быть nil.
func NewHand(w *world.World, objects *entity.Registry, players *entity.Players, items *item.Registry,
	usable *UsableItems, cfg HandConfig, metrics *observability.HandMetrics) *Hand {
	if cfg.Reach <= 0 {
		cfg.Reach = DefaultReach
	}
	resolver := NewResolver(w, objects)
	return &Hand{
		cfg:        cfg,
		resolver:   resolver,
		breaking:   NewBreakingEngine(w.Blocks(), items, players, cfg.Breaking, metrics),
		dispatcher: NewDispatcher(resolver, w, objects, players, items, usable, cfg.Reach, metrics),
		players:    players,
		metrics:    metrics,
		logger:     logging.GetHandLogger(),
	}
}

// Breaking возвращает движок разрушения
func (h *Hand) Breaking() *BreakingEngine {
	return h.breaking
}

// Resolver возвращает резолвер целей
func (h *Hand) Resolver() *Resolver {
	return h.resolver
}

// ResolvePrimary превращает основной клик в удар по блоку
func (h *Hand) ResolvePrimary(click PrimaryClick) (BreakEvent, error) {
	player, ok := h.players.Get(click.Player)
	if !ok {
		return BreakEvent{}, fmt.Errorf("%w: игрок %s не найден", ErrPrecondition, click.Player)
	}
	ray, err := RayFromPlayer(player, h.cfg.Reach)
	if err != nil {
		return BreakEvent{}, err
	}

	pos, id, ok := h.resolver.Resolve(ray, ModeBreaking).BlockTarget()
	if !ok {
		return BreakEvent{}, fmt.Errorf("%w: луч ни во что не попал", ErrPolicy)
	}
	return BreakEvent{Player: click.Player, Position: pos, Block: id}, nil
}

// Tick обрабатывает клики одного тика. Все изменения попадают в cmds.
func (h *Hand) Tick(now time.Time, primary []PrimaryClick, secondary []SecondaryClick, cmds *world.Commands) TickStats {
	var stats TickStats

	events := make([]BreakEvent, 0, len(primary))
	for _, click := range primary {
		ev, err := h.ResolvePrimary(click)
		if err != nil {
			if errors.Is(err, ErrPrecondition) {
				h.metrics.IncPrecondition()
				h.logger.Error("Основной клик отброшен: %v", err)
			} else {
				stats.Missed++
			}
			continue
		}
		events = append(events, ev)
	}
	stats.Primary = len(events)

	stats.Breaking = h.breaking.Process(now, events, cmds)
	stats.Secondary = h.dispatcher.Process(secondary, cmds)
	return stats
}
