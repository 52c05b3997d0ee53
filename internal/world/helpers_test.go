package world

import (
	"testing"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/stretchr/testify/require"
)

func hardness(v float64) *float64 { return &v }

func box(x0, y0, z0, x1, y1, z1 float64) *cube.BBox {
	b := cube.Box(x0, y0, z0, x1, y1, z1)
	return &b
}

// testBlocks реестр блоков для тестов пакета
func testBlocks(t *testing.T) *block.Registry {
	t.Helper()

	reg := block.NewRegistry()
	for _, cfg := range []block.Config{
		{Name: "air", Replaceable: true},
		{Name: "stone", Hardness: hardness(1.5), Hitbox: box(0, 0, 0, 1, 1, 1)},
		{Name: "dirt", Hardness: hardness(0.5), Hitbox: box(0, 0, 0, 1, 1, 1)},
		{Name: "slab", Hardness: hardness(1), Hitbox: box(0, 0, 0, 1, 0.5, 1)},
		{Name: "chest", Hardness: hardness(2), Hitbox: box(0.0625, 0, 0.0625, 0.9375, 0.875, 0.9375), BlockEntity: true},
	} {
		_, err := reg.Register(cfg)
		require.NoError(t, err)
	}
	reg.SetEmpty("air")
	return reg
}

func mustID(t *testing.T, reg *block.Registry, name string) block.BlockID {
	t.Helper()
	id, ok := reg.ID(name)
	require.True(t, ok, "блок %s не зарегистрирован", name)
	return id
}

// loadedWorld создаёт мир с загруженными пустыми чанками вокруг начала координат
func loadedWorld(t *testing.T) *World {
	t.Helper()
	w := New(testBlocks(t))
	require.NoError(t, w.LoadAround(vec.Vec3{}, 1))
	return w
}
