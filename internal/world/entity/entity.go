package entity

import (
	"github.com/annel0/blockverse/internal/vec"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Handle уникальный идентификатор динамического объекта или игрока
type Handle uuid.UUID

// NilHandle пустой идентификатор
var NilHandle Handle

// NewHandle выдает новый идентификатор
func NewHandle() Handle {
	return Handle(uuid.New())
}

// IsNil возвращает true для пустого идентификатора
func (h Handle) IsNil() bool {
	return h == NilHandle
}

// ParseHandle разбирает строковое представление идентификатора
func ParseHandle(s string) (Handle, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NilHandle, err
	}
	return Handle(id), nil
}

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// Kind тип динамического объекта
type Kind uint8

const (
	KindGeneric       Kind = iota
	KindBreakingProxy      // Визуальный индикатор разрушения блока
	KindGroundItem         // Предмет, лежащий на земле
	KindBlockEntity        // Объект, привязанный к блоку (сундук, печь и т.п.)
)

func (k Kind) String() string {
	switch k {
	case KindBreakingProxy:
		return "breaking_proxy"
	case KindGroundItem:
		return "ground_item"
	case KindBlockEntity:
		return "block_entity"
	default:
		return "generic"
	}
}

// Transform положение и ориентация объекта в мире
type Transform struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// NewTransform создает трансформацию без поворота
func NewTransform(translation mgl64.Vec3) Transform {
	return Transform{Translation: translation, Rotation: mgl64.QuatIdent()}
}

// ToLocal переводит точку из мировых координат в локальные координаты объекта
func (t Transform) ToLocal(p mgl64.Vec3) mgl64.Vec3 {
	return t.rotation().Inverse().Rotate(p.Sub(t.Translation))
}

// ToWorld переводит точку из локальных координат объекта в мировые
func (t Transform) ToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return t.rotation().Rotate(p).Add(t.Translation)
}

// DirectionToLocal поворачивает направление в локальное пространство объекта
func (t Transform) DirectionToLocal(d mgl64.Vec3) mgl64.Vec3 {
	return t.rotation().Inverse().Rotate(d)
}

// rotation возвращает нормализованный поворот, нулевой кватернион считается единичным
func (t Transform) rotation() mgl64.Quat {
	if t.Rotation.Len() == 0 {
		return mgl64.QuatIdent()
	}
	return t.Rotation.Normalize()
}

// Visual параметры отображения индикатора разрушения
type Visual struct {
	Stage   int
	Visible bool
	Texture string
}

// GroundItem данные предмета, лежащего на земле
type GroundItem struct {
	Item    string
	Count   uint32
	ModelID uint32
}

// Object динамический объект мира
type Object struct {
	Handle    Handle
	Kind      Kind
	Transform Transform
	Bounds    *cube.BBox       // Локальный объем для проверки попаданий
	Block     *vec.Vec3        // Позиция блока, к которому привязан объект
	Sink      *InteractionSink // Очередь взаимодействий
	Visual    *Visual
	Item      *GroundItem
}

// Position возвращает мировую позицию объекта
func (o *Object) Position() mgl64.Vec3 {
	return o.Transform.Translation
}

// Chunk возвращает координаты чанка, в котором находится объект
func (o *Object) Chunk() vec.Vec3 {
	return vec.Floor(o.Transform.Translation).ToChunkCoords()
}

// BlockLocalBox переводит хитбокс блока в локальное пространство привязанного объекта.
// Начало координат объекта находится в центре основания блока.
func BlockLocalBox(hitbox cube.BBox) cube.BBox {
	return hitbox.Translate(mgl64.Vec3{-0.5, 0, -0.5})
}

// BlockAnchor возвращает мировую позицию начала координат объекта, привязанного к блоку
func BlockAnchor(pos vec.Vec3) mgl64.Vec3 {
	return pos.Float().Add(mgl64.Vec3{0.5, 0, 0.5})
}
