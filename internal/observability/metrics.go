package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HandMetrics Prometheus-метрики подсистемы разрушения и взаимодействия.
// Все методы безопасны для nil-получателя.
type HandMetrics struct {
	BreakHits              prometheus.Counter
	BlocksBroken           prometheus.Counter
	BreakTimeouts          prometheus.Counter
	DuplicatesSuppressed   prometheus.Counter
	PreconditionViolations prometheus.Counter
	Placements             prometheus.Counter
	Interactions           *prometheus.CounterVec
	ActiveBreaking         prometheus.Gauge
	LoadedChunks           prometheus.Gauge
	TickDuration           prometheus.Histogram
}

// NewHandMetrics создаёт метрики и регистрирует их в reg.
// Если reg == nil, используется глобальный регистр Prometheus.
func NewHandMetrics(reg prometheus.Registerer) *HandMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &HandMetrics{
		BreakHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockverse",
			Subsystem: "hand",
			Name:      "break_hits_total",
			Help:      "Удары по блокам, изменившие состояние разрушения.",
		}),
		BlocksBroken: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockverse",
			Subsystem: "hand",
			Name:      "blocks_broken_total",
			Help:      "Разрушенные блоки.",
		}),
		BreakTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockverse",
			Subsystem: "hand",
			Name:      "break_timeouts_total",
			Help:      "Незавершенные разрушения, сброшенные по таймауту.",
		}),
		DuplicatesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockverse",
			Subsystem: "hand",
			Name:      "duplicates_suppressed_total",
			Help:      "Повторные события в пределах одного тика.",
		}),
		PreconditionViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockverse",
			Subsystem: "hand",
			Name:      "precondition_violations_total",
			Help:      "События, отброшенные из-за неполного состояния игрока.",
		}),
		Placements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockverse",
			Subsystem: "hand",
			Name:      "placements_total",
			Help:      "Установленные блоки.",
		}),
		Interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockverse",
			Subsystem: "hand",
			Name:      "interactions_total",
			Help:      "Взаимодействия правой кнопкой по типу цели.",
		}, []string{"target"}),
		ActiveBreaking: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockverse",
			Subsystem: "hand",
			Name:      "active_breaking",
			Help:      "Количество блоков в процессе разрушения.",
		}),
		LoadedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockverse",
			Subsystem: "world",
			Name:      "loaded_chunks",
			Help:      "Количество загруженных чанков.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "blockverse",
			Subsystem: "game",
			Name:      "tick_duration_seconds",
			Help:      "Длительность обработки тика.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}

	reg.MustRegister(
		m.BreakHits, m.BlocksBroken, m.BreakTimeouts, m.DuplicatesSuppressed,
		m.PreconditionViolations, m.Placements, m.Interactions,
		m.ActiveBreaking, m.LoadedChunks, m.TickDuration,
	)
	return m
}

func (m *HandMetrics) IncBreakHit() {
	if m != nil {
		m.BreakHits.Inc()
	}
}

func (m *HandMetrics) IncBlockBroken() {
	if m != nil {
		m.BlocksBroken.Inc()
	}
}

func (m *HandMetrics) AddBreakTimeouts(n int) {
	if m != nil && n > 0 {
		m.BreakTimeouts.Add(float64(n))
	}
}

func (m *HandMetrics) IncDuplicate() {
	if m != nil {
		m.DuplicatesSuppressed.Inc()
	}
}

func (m *HandMetrics) IncPrecondition() {
	if m != nil {
		m.PreconditionViolations.Inc()
	}
}

func (m *HandMetrics) IncPlacement() {
	if m != nil {
		m.Placements.Inc()
	}
}

// IncInteraction учитывает взаимодействие с целью target (object, block_entity, item_use)
func (m *HandMetrics) IncInteraction(target string) {
	if m != nil {
		m.Interactions.WithLabelValues(target).Inc()
	}
}

func (m *HandMetrics) SetActiveBreaking(n int) {
	if m != nil {
		m.ActiveBreaking.Set(float64(n))
	}
}

func (m *HandMetrics) SetLoadedChunks(n int) {
	if m != nil {
		m.LoadedChunks.Set(float64(n))
	}
}

func (m *HandMetrics) ObserveTick(d time.Duration) {
	if m != nil {
		m.TickDuration.Observe(d.Seconds())
	}
}
