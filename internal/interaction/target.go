package interaction

import (
	"fmt"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/annel0/blockverse/internal/world/entity"
	"github.com/df-mc/dragonfly/server/block/cube/trace"
	"github.com/go-gl/mathgl/mgl64"
)

// Mode режим поиска цели
type Mode uint8

const (
	// ModeBreaking объекты проверяются по хитбоксу привязанного блока с учетом поворота,
	// при равной дистанции выигрывает блок
	ModeBreaking Mode = iota
	// ModeInteraction объекты проверяются по собственному объему без поворота,
	// при равной дистанции выигрывает объект
	ModeInteraction
)

// HitKind тип найденной цели
type HitKind uint8

const (
	HitNone HitKind = iota
	HitBlock
	HitObject
)

func (k HitKind) String() string {
	switch k {
	case HitBlock:
		return "block"
	case HitObject:
		return "object"
	default:
		return "none"
	}
}

// Ray луч от камеры игрока
type Ray struct {
	Origin      mgl64.Vec3
	Direction   mgl64.Vec3
	MaxDistance float64
}

// End возвращает конечную точку луча
func (r Ray) End() mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Normalize().Mul(r.MaxDistance))
}

// RayFromPlayer строит луч из камеры игрока
func RayFromPlayer(p *entity.Player, reach float64) (Ray, error) {
	if p.Camera == nil {
		return Ray{}, fmt.Errorf("%w: у игрока %s нет камеры", ErrPrecondition, p.Handle)
	}
	return Ray{Origin: p.Eye(), Direction: p.Camera.Forward(), MaxDistance: reach}, nil
}

// HitResult ближайшая цель луча.
// Для попадания в объект в режиме ModeBreaking поле Block содержит привязанный блок.
type HitResult struct {
	Kind     HitKind
	Block    world.BlockHit
	Object   entity.Handle
	Distance float64
	tagged   bool // Block заполнен по привязке объекта
}

// BlockTarget возвращает позицию и ID блока, если цель указывает на блок
func (h HitResult) BlockTarget() (vec.Vec3, block.BlockID, bool) {
	if h.Kind == HitBlock || (h.Kind == HitObject && h.tagged) {
		return h.Block.Position, h.Block.ID, true
	}
	return vec.Vec3{}, 0, false
}

// Resolver ищет ближайшую цель среди блоков и динамических объектов
type Resolver struct {
	world   *world.World
	objects *entity.Registry
}

// NewResolver создаёт резолвер целей
func NewResolver(w *world.World, objects *entity.Registry) *Resolver {
	return &Resolver{world: w, objects: objects}
}

// Resolve возвращает ближайшую цель луча в пределах MaxDistance
func (r *Resolver) Resolve(ray Ray, mode Mode) HitResult {
	if ray.MaxDistance <= 0 || ray.Direction.Len() == 0 {
		return HitResult{}
	}

	blockHit, blockOK := r.world.Raycast(ray.Origin, ray.Direction, ray.MaxDistance)
	limit := ray.MaxDistance
	if blockOK && mode == ModeInteraction {
		limit = blockHit.Distance
	}

	obj, objHit, objDist, objOK := r.nearestObject(ray, mode, limit)

	switch {
	case objOK && (!blockOK || mode == ModeInteraction || objDist < blockHit.Distance):
		res := HitResult{Kind: HitObject, Object: obj, Distance: objDist}
		if mode == ModeBreaking {
			res.Block = objHit
			res.tagged = true
		}
		return res
	case blockOK:
		return HitResult{Kind: HitBlock, Block: blockHit, Distance: blockHit.Distance}
	default:
		return HitResult{}
	}
}

// nearestObject перебирает объекты в окрестности 3x3x3 чанков вокруг начала луча.
// Объекты дальше limit отбрасываются.
func (r *Resolver) nearestObject(ray Ray, mode Mode, limit float64) (entity.Handle, world.BlockHit, float64, bool) {
	center := vec.Floor(ray.Origin).ToChunkCoords()
	end := ray.End()

	var (
		best     entity.Handle
		bestHit  world.BlockHit
		bestDist float64
		found    bool
	)
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				for _, obj := range r.objects.InChunk(center.Add(vec.Vec3{X: x, Y: y, Z: z})) {
					var (
						dist float64
						hit  world.BlockHit
						ok   bool
					)
					if mode == ModeBreaking {
						hit, dist, ok = r.testTaggedBlock(obj, ray.Origin, end)
					} else {
						dist, ok = testBounds(obj, ray.Origin, end)
					}
					if !ok || dist > limit {
						continue
					}
					if !found || dist < bestDist {
						best, bestHit, bestDist, found = obj.Handle, hit, dist, true
					}
				}
			}
		}
	}
	return best, bestHit, bestDist, found
}

// testTaggedBlock проверяет луч по хитбоксу привязанного блока в локальном пространстве объекта
func (r *Resolver) testTaggedBlock(obj *entity.Object, origin, end mgl64.Vec3) (world.BlockHit, float64, bool) {
	if obj.Block == nil {
		return world.BlockHit{}, 0, false
	}
	pos := *obj.Block
	id, loaded := r.world.Block(pos)
	if !loaded {
		return world.BlockHit{}, 0, false
	}
	cfg, ok := r.world.Blocks().Get(id)
	if !ok || cfg.Hitbox == nil {
		return world.BlockHit{}, 0, false
	}

	localStart := obj.Transform.ToLocal(origin)
	localEnd := obj.Transform.ToLocal(end)
	res, ok := trace.BBoxIntercept(entity.BlockLocalBox(*cfg.Hitbox), localStart, localEnd)
	if !ok {
		return world.BlockHit{}, 0, false
	}
	dist := res.Position().Sub(localStart).Len()
	return world.BlockHit{
		Position: pos,
		ID:       id,
		Face:     res.Face(),
		Point:    obj.Transform.ToWorld(res.Position()),
		Distance: dist,
	}, dist, true
}

// testBounds проверяет луч по собственному объему объекта, смещенному на его позицию
func testBounds(obj *entity.Object, origin, end mgl64.Vec3) (float64, bool) {
	if obj.Bounds == nil {
		return 0, false
	}
	res, ok := trace.BBoxIntercept(obj.Bounds.Translate(obj.Transform.Translation), origin, end)
	if !ok {
		return 0, false
	}
	return res.Position().Sub(origin).Len(), true
}
