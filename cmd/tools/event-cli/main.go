package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/blockverse/internal/eventbus"
	"github.com/annel0/blockverse/internal/world/block"
)

const timeFormat = "15:04:05.000"

func main() {
	var (
		url        = flag.String("url", "nats://localhost:4222", "NATS server URL")
		stream     = flag.String("stream", "BLOCKVERSE", "JetStream stream")
		eventTypes = flag.String("types", eventbus.EventBlockChanged, "Event types filter (comma-separated)")
		limit      = flag.Int("limit", 0, "Stop after N events (0 = unlimited)")
		timeout    = flag.Duration("timeout", 0, "Stop after duration (0 = until Ctrl+C)")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*url, *stream, 24*time.Hour)
	if err != nil {
		log.Fatalf("❌ Failed to connect to %s: %v", *url, err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	t := &tail{limit: *limit, done: stop}
	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: parseStringList(*eventTypes)}, t.handle)
	if err != nil {
		log.Fatalf("❌ Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	fmt.Printf("🎬 Tailing %s on %s (types: %s)\n", *stream, *url, *eventTypes)
	<-ctx.Done()

	stats := bus.Metrics()
	fmt.Printf("📊 Received: %d, published: %d, dropped: %d\n", t.count(), stats.Published, stats.Dropped)
	if t.count() == 0 {
		os.Exit(1)
	}
}

// tail печатает события и останавливает утилиту по достижении лимита
type tail struct {
	mu    sync.Mutex
	seen  int
	limit int
	done  context.CancelFunc
}

func (t *tail) handle(_ context.Context, ev *eventbus.Envelope) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.limit > 0 && t.seen >= t.limit {
		return
	}
	t.seen++
	fmt.Println(formatEvent(ev))
	if t.limit > 0 && t.seen >= t.limit {
		t.done()
	}
}

func (t *tail) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seen
}

// formatEvent форматирует событие для вывода
func formatEvent(ev *eventbus.Envelope) string {
	ts := ev.Timestamp.Format(timeFormat)
	if ev.EventType != eventbus.EventBlockChanged {
		return fmt.Sprintf("[%s] %s from %s (%d bytes)", ts, ev.EventType, ev.Source, len(ev.Payload))
	}

	bc, err := eventbus.DecodeBlockChanged(ev)
	if err != nil {
		return fmt.Sprintf("[%s] %s: malformed payload: %v", ts, ev.EventType, err)
	}
	line := fmt.Sprintf("[%s] tick %d: (%d, %d, %d) -> %s", ts, bc.Tick, bc.X, bc.Y, bc.Z, bc.Name)
	if bc.Rotation != block.RotationNone {
		line += fmt.Sprintf(" rot=%d°", bc.Rotation.Turns()*90)
	}
	return line
}

// parseStringList парсит список строк через запятую
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
