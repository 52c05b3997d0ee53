package interaction

import (
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/annel0/blockverse/internal/world/entity"
)

// PrimaryClick удержание основной кнопки (разрушение)
type PrimaryClick struct {
	Player entity.Handle
}

// SecondaryClick одиночное нажатие вторичной кнопки (взаимодействие, установка)
type SecondaryClick struct {
	Player entity.Handle
}

// BreakEvent удар по конкретному блоку, полученный из PrimaryClick
type BreakEvent struct {
	Player   entity.Handle
	Position vec.Vec3
	Block    block.BlockID
}
