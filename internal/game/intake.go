package game

import (
	"sync"

	"github.com/annel0/blockverse/internal/interaction"
	"github.com/annel0/blockverse/internal/world/entity"
)

// Intake очередь кликов от сетевых обработчиков.
// Клики разбираются игровым циклом в порядке поступления.
type Intake struct {
	mu        sync.Mutex
	primary   []interaction.PrimaryClick
	secondary []interaction.SecondaryClick
}

// PushPrimary добавляет основной клик (удар)
func (in *Intake) PushPrimary(player entity.Handle) {
	in.mu.Lock()
	in.primary = append(in.primary, interaction.PrimaryClick{Player: player})
	in.mu.Unlock()
}

// PushSecondary добавляет вторичный клик (взаимодействие)
func (in *Intake) PushSecondary(player entity.Handle) {
	in.mu.Lock()
	in.secondary = append(in.secondary, interaction.SecondaryClick{Player: player})
	in.mu.Unlock()
}

// Drain забирает накопленные клики
func (in *Intake) Drain() ([]interaction.PrimaryClick, []interaction.SecondaryClick) {
	in.mu.Lock()
	defer in.mu.Unlock()
	primary, secondary := in.primary, in.secondary
	in.primary, in.secondary = nil, nil
	return primary, secondary
}

// Len возвращает количество ожидающих кликов
func (in *Intake) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.primary) + len(in.secondary)
}
