package world

import (
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/block/cube/trace"
	"github.com/go-gl/mathgl/mgl64"
)

// BlockHit результат попадания луча в блок
type BlockHit struct {
	Position vec.Vec3
	ID       block.BlockID
	Face     cube.Face  // Грань, через которую луч вошел в хитбокс
	Point    mgl64.Vec3 // Точка попадания
	Distance float64
}

// Raycast ищет первый блок вдоль луча, чей хитбокс пересекает луч
// на расстоянии не больше maxDistance. Незагруженные чанки пропускаются.
func (w *World) Raycast(origin, dir mgl64.Vec3, maxDistance float64) (BlockHit, bool) {
	if maxDistance <= 0 || dir.Len() == 0 {
		return BlockHit{}, false
	}
	end := origin.Add(dir.Normalize().Mul(maxDistance))

	var (
		hit   BlockHit
		found bool
	)
	trace.TraverseBlocks(origin, end, func(p cube.Pos) bool {
		pos := vec.FromPos(p)
		cfg, ok := w.BlockConfig(pos)
		if !ok || cfg.Hitbox == nil {
			return true
		}

		res, ok := trace.BBoxIntercept(cfg.Hitbox.Translate(pos.Float()), origin, end)
		if !ok {
			return true
		}
		dist := res.Position().Sub(origin).Len()
		if dist > maxDistance {
			return true
		}

		id, _ := w.Block(pos)
		hit = BlockHit{
			Position: pos,
			ID:       id,
			Face:     res.Face(),
			Point:    res.Position(),
			Distance: dist,
		}
		found = true
		return false
	})
	return hit, found
}
