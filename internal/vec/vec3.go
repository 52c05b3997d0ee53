package vec

import (
	"math"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
)

// ChunkSize размер ребра чанка в блоках
const ChunkSize = 16

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Используется как позиция блока в мире и как координаты чанка.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Mul умножает вектор на скаляр
func (v Vec3) Mul(s int) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// ToChunkCoords преобразует мировые координаты блока в координаты чанка
func (v Vec3) ToChunkCoords() Vec3 {
	return Vec3{X: v.X >> 4, Y: v.Y >> 4, Z: v.Z >> 4} // Деление на 16 с округлением вниз
}

// LocalInChunk возвращает локальные координаты внутри чанка
func (v Vec3) LocalInChunk() Vec3 {
	return Vec3{X: v.X & 0xF, Y: v.Y & 0xF, Z: v.Z & 0xF} // Модуль 16
}

// ChunkOrigin возвращает мировую позицию первого блока чанка с координатами v
func (v Vec3) ChunkOrigin() Vec3 {
	return v.Mul(ChunkSize)
}

// DistanceTo возвращает квадрат расстояния до другого вектора
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return float64(dx*dx + dy*dy + dz*dz)
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Float возвращает угол блока в координатах с плавающей точкой
func (v Vec3) Float() mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)}
}

// Pos конвертирует позицию в cube.Pos для работы с трассировкой
func (v Vec3) Pos() cube.Pos {
	return cube.Pos{v.X, v.Y, v.Z}
}

// FromPos создает Vec3 из cube.Pos
func FromPos(p cube.Pos) Vec3 {
	return Vec3{X: p[0], Y: p[1], Z: p[2]}
}

// Floor возвращает блок, в котором находится точка
func Floor(p mgl64.Vec3) Vec3 {
	return Vec3{
		X: int(math.Floor(p[0])),
		Y: int(math.Floor(p[1])),
		Z: int(math.Floor(p[2])),
	}
}

// Side возвращает соседнюю позицию со стороны грани
func (v Vec3) Side(face cube.Face) Vec3 {
	return FromPos(v.Pos().Side(face))
}
