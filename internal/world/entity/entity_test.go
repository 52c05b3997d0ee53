package entity

import (
	"math"
	"testing"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world/item"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SpawnAndIndex(t *testing.T) {
	reg := NewRegistry()

	a := reg.Spawn(&Object{Transform: NewTransform(mgl64.Vec3{1, 1, 1})})
	b := reg.Spawn(&Object{Transform: NewTransform(mgl64.Vec3{2, 3, 4})})
	c := reg.Spawn(&Object{Transform: NewTransform(mgl64.Vec3{-1, 0, 0})})

	assert.False(t, a.IsNil(), "Объекту должен быть выдан идентификатор")
	assert.Equal(t, 3, reg.Len())

	inOrigin := reg.InChunk(vec.Vec3{})
	require.Len(t, inOrigin, 2)
	assert.Equal(t, a, inOrigin[0].Handle, "Порядок добавления сохраняется")
	assert.Equal(t, b, inOrigin[1].Handle)

	negative := reg.InChunk(vec.Vec3{X: -1, Y: 0, Z: 0})
	require.Len(t, negative, 1)
	assert.Equal(t, c, negative[0].Handle)

	assert.True(t, reg.Despawn(a))
	assert.False(t, reg.Despawn(a), "Повторное удаление")
	assert.Len(t, reg.InChunk(vec.Vec3{}), 1)
}

func TestRegistry_Move(t *testing.T) {
	reg := NewRegistry()
	h := reg.Spawn(&Object{Transform: NewTransform(mgl64.Vec3{15.5, 0, 0})})

	require.True(t, reg.Move(h, mgl64.Vec3{16.5, 0, 0}))
	assert.Empty(t, reg.InChunk(vec.Vec3{}))
	assert.Len(t, reg.InChunk(vec.Vec3{X: 1}), 1, "Объект переместился в соседний чанк")
	assert.False(t, reg.Move(NewHandle(), mgl64.Vec3{}))
}

func TestTransform_LocalWorld(t *testing.T) {
	tr := Transform{
		Translation: mgl64.Vec3{10, 0, 0},
		Rotation:    mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}),
	}

	p := mgl64.Vec3{1, 2, 3}
	back := tr.ToWorld(tr.ToLocal(p))
	assert.InDelta(t, p[0], back[0], 1e-9)
	assert.InDelta(t, p[1], back[1], 1e-9)
	assert.InDelta(t, p[2], back[2], 1e-9)

	// Поворот на 90° вокруг Y переводит +X в -Z
	w := tr.ToWorld(mgl64.Vec3{1, 0, 0})
	assert.InDelta(t, 10.0, w[0], 1e-9)
	assert.InDelta(t, -1.0, w[2], 1e-9)

	// Нулевой кватернион считается единичным
	zero := Transform{Translation: mgl64.Vec3{1, 1, 1}}
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, zero.ToLocal(mgl64.Vec3{1, 1, 1}))
}

func TestInteractionSink(t *testing.T) {
	sink := NewInteractionSink()
	p1, p2 := NewHandle(), NewHandle()
	sink.Push(p1)
	sink.Push(p2)
	assert.Equal(t, 2, sink.Len())

	assert.Equal(t, []Handle{p1, p2}, sink.Drain())
	assert.Equal(t, 0, sink.Len(), "Очередь пуста после разбора")
}

func TestCamera_Forward(t *testing.T) {
	cam := NewCamera(mgl64.Vec3{0, 1.6, 0}, 0, 0)
	f := cam.Forward()
	assert.InDelta(t, -1.0, f[2], 1e-9, "Нулевые углы смотрят вдоль -Z")

	down := NewCamera(mgl64.Vec3{}, 0, -math.Pi/2).Forward()
	assert.InDelta(t, -1.0, down[1], 1e-9, "Отрицательный наклон смотрит вниз")

	p := &Player{Position: mgl64.Vec3{1, 2, 3}, Camera: cam}
	assert.Equal(t, mgl64.Vec3{1, 3.6, 3}, p.Eye())
}

func TestPlayers(t *testing.T) {
	players := NewPlayers()
	h := players.Add(&Player{Name: "alice", Inventory: item.NewInventory(item.DefaultInventorySize)})

	p, ok := players.Get(h)
	require.True(t, ok)
	assert.Equal(t, "alice", p.Name)

	players.Remove(h)
	_, ok = players.Get(h)
	assert.False(t, ok)
	assert.Equal(t, 0, players.Len())
}
