package interaction

import (
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
)

// lateral возвращает true для боковых граней
func lateral(face cube.Face) bool {
	return face != cube.FaceUp && face != cube.FaceDown
}

// faceRotation поворот блока, установленного на боковую грань
func faceRotation(face cube.Face) block.Rotation {
	switch face {
	case cube.FaceEast:
		return block.RotationOnce
	case cube.FaceNorth:
		return block.RotationTwice
	case cube.FaceWest:
		return block.RotationThrice
	default:
		return block.RotationNone
	}
}

// Orientation вычисляет состояние нового блока.
// clicked позиция блока, по грани face которого кликнули; player позиция игрока.
// Возвращает nil, если ориентация не применяется.
func Orientation(placement block.Placement, face cube.Face, clicked vec.Vec3, player mgl64.Vec3) *block.State {
	if !placement.Rotatable && !(placement.SideTransform && lateral(face)) {
		return nil
	}

	if (face == cube.FaceDown && placement.Ceiling) || (face == cube.FaceUp && placement.Floor) {
		// Блок поворачивается к игроку по оси с большим смещением
		d := vec.Floor(player).Sub(clicked)
		if abs(d.X) >= abs(d.Z) {
			if d.X > 0 {
				return block.NewState(block.RotationOnce)
			}
			return block.NewState(block.RotationThrice)
		}
		if d.Z > 0 {
			// Смещение по +Z соответствует исходной ориентации модели
			return nil
		}
		return block.NewState(block.RotationTwice)
	}

	if lateral(face) && placement.Sides {
		return block.NewState(faceRotation(face))
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
