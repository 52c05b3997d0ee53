package game

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/blockverse/internal/eventbus"
	"github.com/annel0/blockverse/internal/interaction"
	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/observability"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
	"github.com/annel0/blockverse/internal/world/entity"
	"github.com/annel0/blockverse/internal/world/item"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Options параметры игрового цикла
type Options struct {
	Source       string        // Имя источника событий
	TickInterval time.Duration // Длительность тика
	Autosave     time.Duration // Интервал автосохранения, 0 отключает
	LoadRadius   int           // Радиус загрузки чанков вокруг игроков
	Hand         interaction.HandConfig
}

// DefaultOptions возвращает параметры по умолчанию
func DefaultOptions() Options {
	return Options{
		Source:       "blockverse",
		TickInterval: 50 * time.Millisecond,
		Autosave:     time.Minute,
		LoadRadius:   1,
		Hand: interaction.HandConfig{
			Reach:    interaction.DefaultReach,
			Breaking: interaction.DefaultBreakingConfig(),
		},
	}
}

// TickReport итоги одного тика
type TickReport struct {
	Tick      uint64
	Hand      interaction.TickStats
	Applied   int // Примененные изменения блоков
	Published int // Опубликованные события
	Saved     int // Сохраненные чанки
	Duration  time.Duration
}

// Game однопоточный игровой цикл: клики, разрушение, взаимодействие, применение, публикация
type Game struct {
	opts     Options
	world    *world.World
	objects  *entity.Registry
	players  *entity.Players
	usable   *interaction.UsableItems
	hand     *interaction.Hand
	bus      eventbus.EventBus
	metrics  *observability.HandMetrics
	tracer   oteltrace.Tracer
	intake   *Intake
	cmds     *world.Commands
	tick     atomic.Uint64
	epoch    time.Time // Момент нулевого тика для расчета времени тиков
	lastSave time.Time
	logger   *logging.Logger
}

// New создаёт игровой цикл. bus и metrics могут быть nil.
func New(w *world.World, items *item.Registry, bus eventbus.EventBus, metrics *observability.HandMetrics, opts Options) *Game {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultOptions().TickInterval
	}
	if opts.LoadRadius < 1 {
		opts.LoadRadius = 1
	}
	if opts.Source == "" {
		opts.Source = DefaultOptions().Source
	}

	objects := entity.NewRegistry()
	players := entity.NewPlayers()
	usable := interaction.NewUsableItems()

	g := &Game{
		opts:    opts,
		world:   w,
		objects: objects,
		players: players,
		usable:  usable,
		hand:    interaction.NewHand(w, objects, players, items, usable, opts.Hand, metrics),
		bus:     bus,
		metrics: metrics,
		tracer:  observability.Tracer(),
		intake:  &Intake{},
		cmds:    world.NewCommands(),
		logger:  logging.GetGameLogger(),
	}

	// Объекты блоков восстанавливаются при каждой загрузке чанка
	w.OnChunkLoad(func(c *world.Chunk) {
		if n := world.SpawnBlockEntities(w, objects, c); n > 0 {
			g.logger.Debug("Чанк %v: создано объектов блоков: %d", c.Coords, n)
		}
	})
	return g
}

// World возвращает мир
func (g *Game) World() *world.World {
	return g.world
}

// Objects возвращает реестр динамических объектов
func (g *Game) Objects() *entity.Registry {
	return g.objects
}

// Players возвращает реестр игроков
func (g *Game) Players() *entity.Players {
	return g.players
}

// Usable возвращает реестр используемых предметов
func (g *Game) Usable() *interaction.UsableItems {
	return g.usable
}

// Intake возвращает очередь кликов
func (g *Game) Intake() *Intake {
	return g.intake
}

// Breaking возвращает хранилище активных разрушений для чтения
func (g *Game) Breaking() *interaction.BreakingStore {
	return g.hand.Breaking().Store()
}

// CurrentTick возвращает номер последнего выполненного тика
func (g *Game) CurrentTick() uint64 {
	return g.tick.Load()
}

// Join добавляет игрока и загружает чанки вокруг него
func (g *Game) Join(p *entity.Player) (entity.Handle, error) {
	h := g.players.Add(p)
	if err := g.world.LoadAround(vec.Floor(p.Position).ToChunkCoords(), g.opts.LoadRadius); err != nil {
		g.players.Remove(h)
		return entity.NilHandle, fmt.Errorf("загрузка чанков вокруг игрока: %w", err)
	}
	g.logger.Info("👤 Игрок %s (%s) вошел в мир", p.Name, h)
	return h, nil
}

// Step выполняет один тик в момент now
func (g *Game) Step(ctx context.Context, now time.Time) (TickReport, error) {
	start := time.Now()
	tick := g.tick.Add(1)
	ctx, span := g.tracer.Start(ctx, "game.tick", oteltrace.WithAttributes(attribute.Int64("tick", int64(tick))))
	defer span.End()

	report := TickReport{Tick: tick}

	primary, secondary := g.intake.Drain()
	report.Hand = g.hand.Tick(now, primary, secondary, g.cmds)

	applied := g.cmds.Apply(g.world, g.objects)
	g.cmds.Reset()
	report.Applied = len(applied)

	if g.bus != nil && len(applied) > 0 {
		if err := eventbus.PublishBlockUpdates(ctx, g.bus, g.opts.Source, tick, applied, g.world.Blocks(), now); err != nil {
			g.logger.Warn("Ошибка публикации изменений тика %d: %v", tick, err)
			span.RecordError(err)
		} else {
			report.Published = len(applied)
		}
	}

	if g.opts.Autosave > 0 {
		if g.lastSave.IsZero() {
			g.lastSave = now
		} else if now.Sub(g.lastSave) >= g.opts.Autosave {
			saved, err := g.world.Save()
			g.lastSave = now
			report.Saved = saved
			if err != nil {
				span.RecordError(err)
				return report, fmt.Errorf("автосохранение: %w", err)
			}
		}
	}

	report.Duration = time.Since(start)
	g.metrics.SetLoadedChunks(g.world.LoadedChunks())
	g.metrics.ObserveTick(report.Duration)
	span.SetAttributes(
		attribute.Int("primary", len(primary)),
		attribute.Int("secondary", len(secondary)),
		attribute.Int("applied", report.Applied),
	)
	return report, nil
}

// TickTime возвращает расписанное время тика n
func (g *Game) TickTime(n uint64) time.Time {
	return g.epoch.Add(time.Duration(n) * g.opts.TickInterval)
}

// Advance выполняет следующий тик по расписанию. wall фактическое время срабатывания таймера.
// Время тика зависит только от его номера.
// Если отставание от wall достигает интервала тика, расписание сдвигается к wall.
func (g *Game) Advance(ctx context.Context, wall time.Time) (TickReport, error) {
	next := g.CurrentTick() + 1
	if g.epoch.IsZero() {
		g.epoch = wall.Add(-time.Duration(next) * g.opts.TickInterval)
	}

	scheduled := g.TickTime(next)
	if drift := wall.Sub(scheduled); drift >= g.opts.TickInterval || drift <= -g.opts.TickInterval {
		g.logger.Debug("Тик %d: расхождение с таймером %s, расписание сдвинуто", next, drift)
		g.epoch = g.epoch.Add(drift)
		scheduled = wall
	}
	return g.Step(ctx, scheduled)
}

// Run выполняет тики с фиксированным интервалом до отмены ctx, затем сохраняет мир
func (g *Game) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.opts.TickInterval)
	defer ticker.Stop()

	g.logger.Info("⏱️ Игровой цикл запущен, тик %s", g.opts.TickInterval)
	for {
		select {
		case <-ctx.Done():
			saved, err := g.world.Save()
			if err != nil {
				return fmt.Errorf("сохранение при остановке: %w", err)
			}
			g.logger.Info("🛑 Игровой цикл остановлен на тике %d, сохранено чанков: %d", g.CurrentTick(), saved)
			return nil
		case wall := <-ticker.C:
			report, err := g.Advance(ctx, wall)
			if err != nil {
				g.logger.Error("Ошибка тика %d: %v", report.Tick, err)
			}
			if report.Duration > g.opts.TickInterval {
				g.logger.Warn("Тик %d занял %s при бюджете %s", report.Tick, report.Duration, g.opts.TickInterval)
			}
		}
	}
}
