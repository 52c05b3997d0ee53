package eventbus

import (
	"context"

	"github.com/annel0/blockverse/internal/logging"
)

// StartLoggingListener подписывается на изменения блоков и пишет их в отладочный лог.
// Функция неблокирующая.
func StartLoggingListener(ctx context.Context, bus EventBus) (Subscription, error) {
	sub, err := bus.Subscribe(ctx, Filter{Types: []string{EventBlockChanged}}, func(ctx context.Context, ev *Envelope) {
		payload, err := DecodeBlockChanged(ev)
		if err != nil {
			logging.Warn("[EventBus] %s: %v", ev.ID, err)
			return
		}
		logging.Debug("[EventBus] %s блок (%d,%d,%d) -> %s#%d tick=%d", ev.ID, payload.X, payload.Y, payload.Z, payload.Name, payload.Block, payload.Tick)
	})
	if err != nil {
		return nil, err
	}
	logging.Info("🪵 LoggingListener: подписка на %s активирована", EventBlockChanged)
	return sub, nil
}
