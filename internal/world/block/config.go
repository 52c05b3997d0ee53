package block

import (
	"github.com/df-mc/dragonfly/server/block/cube"
)

// Placement описывает правила ориентации блока при установке
type Placement struct {
	Rotatable     bool `yaml:"rotatable"`      // Блок поворачивается к игроку
	SideTransform bool `yaml:"side_transform"` // Отдельная модель для боковой установки
	Ceiling       bool `yaml:"ceiling"`        // Можно ставить на потолок
	Floor         bool `yaml:"floor"`          // Можно ставить на пол
	Sides         bool `yaml:"sides"`          // Ориентируется по боковой грани
}

// Drop описывает предмет, выпадающий при разрушении
type Drop struct {
	Item  string `yaml:"item"`
	Count uint32 `yaml:"count"`
}

// DropTable таблица выпадения: отдельная запись для каждого инструмента
// и запись по умолчанию.
type DropTable struct {
	Any   *Drop           `yaml:"any"`
	Tools map[string]Drop `yaml:"tools"`
}

// Resolve возвращает выпадение для инструмента (tool может быть пустым)
func (t DropTable) Resolve(tool string) (Drop, bool) {
	if tool != "" {
		if drop, ok := t.Tools[tool]; ok {
			return normalizeDrop(drop)
		}
	}
	if t.Any != nil {
		return normalizeDrop(*t.Any)
	}
	return Drop{}, false
}

func normalizeDrop(d Drop) (Drop, bool) {
	if d.Item == "" {
		return Drop{}, false
	}
	if d.Count == 0 {
		d.Count = 1
	}
	return d, true
}

// Config конфигурация типа блока
type Config struct {
	ID          BlockID
	Name        string
	Hardness    *float64   // Время разрушения в секундах, nil для неразрушаемого
	Hitbox      *cube.BBox // Точный объем для рейкаста, nil если луч проходит насквозь
	Replaceable bool       // Установка блока заменяет этот блок
	BlockEntity bool       // Блок сопровождается объектом с очередью взаимодействий
	Placement   Placement
	Drops       DropTable
}

// Breakable сообщает, можно ли разрушить блок
func (c *Config) Breakable() bool {
	return c.Hardness != nil
}

// FullCube возвращает хитбокс полного блока
func FullCube() cube.BBox {
	return cube.Box(0, 0, 0, 1, 1, 1)
}
