package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/annel0/blockverse/internal/world"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/google/uuid"
)

const (
	// EventBlockChanged тип события изменения блока
	EventBlockChanged = "BlockChanged"
	// blockChangedVersion версия схемы BlockChanged
	blockChangedVersion = 1
)

// BlockChanged полезная нагрузка события изменения блока
type BlockChanged struct {
	X        int            `json:"x"`
	Y        int            `json:"y"`
	Z        int            `json:"z"`
	Block    block.BlockID  `json:"block"`
	Name     string         `json:"name,omitempty"`
	Rotation block.Rotation `json:"rotation,omitempty"`
	Tick     uint64         `json:"tick"`
}

// NewBlockChanged упаковывает примененное изменение блока в Envelope
func NewBlockChanged(source string, tick uint64, upd world.BlockUpdate, name string, now time.Time) (*Envelope, error) {
	payload := BlockChanged{
		X:     upd.Position.X,
		Y:     upd.Position.Y,
		Z:     upd.Position.Z,
		Block: upd.ID,
		Name:  name,
		Tick:  tick,
	}
	if upd.State != nil {
		payload.Rotation = upd.State.Rotation
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("сериализация BlockChanged: %w", err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: now.UTC(),
		Source:    source,
		EventType: EventBlockChanged,
		Version:   blockChangedVersion,
		Priority:  HighPriority,
		Payload:   data,
	}, nil
}

// DecodeBlockChanged разбирает полезную нагрузку BlockChanged
func DecodeBlockChanged(ev *Envelope) (BlockChanged, error) {
	var payload BlockChanged
	if ev.EventType != EventBlockChanged {
		return payload, fmt.Errorf("неожиданный тип события %q", ev.EventType)
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return payload, fmt.Errorf("разбор BlockChanged: %w", err)
	}
	return payload, nil
}

// PublishBlockUpdates публикует все изменения тика. Ошибки не прерывают публикацию
// остальных изменений, возвращается первая из них.
func PublishBlockUpdates(ctx context.Context, bus EventBus, source string, tick uint64, updates []world.BlockUpdate, blocks *block.Registry, now time.Time) error {
	var first error
	for _, upd := range updates {
		name := ""
		if cfg, ok := blocks.Get(upd.ID); ok {
			name = cfg.Name
		}
		ev, err := NewBlockChanged(source, tick, upd, name, now)
		if err == nil {
			err = bus.Publish(ctx, ev)
		}
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}
