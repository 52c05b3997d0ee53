package item

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItems(t *testing.T) {
	reg, err := ParseItems([]byte(`
items:
  - name: stone
    block: stone
    model: 3
  - name: stone_pickaxe
    tool: {name: pickaxe, efficiency: 4}
    max_stack: 1
`))
	require.NoError(t, err)

	stone, ok := reg.Get("stone")
	require.True(t, ok)
	assert.Equal(t, "stone", stone.Block)
	assert.Equal(t, uint32(3), stone.ModelID)
	assert.Equal(t, uint32(64), stone.MaxStack, "Размер стопки по умолчанию 64")

	pick, ok := reg.Get("stone_pickaxe")
	require.True(t, ok)
	require.NotNil(t, pick.Tool)
	assert.Equal(t, 4.0, pick.Tool.EffectiveEfficiency())
	assert.True(t, pick.Tool.Valid())
}

func TestTool_EffectiveEfficiency(t *testing.T) {
	var missing *Tool
	assert.Equal(t, 1.0, missing.EffectiveEfficiency())
	assert.Equal(t, 1.0, (&Tool{Name: "axe", Efficiency: 0}).EffectiveEfficiency())
	assert.Equal(t, 1.0, (&Tool{Name: "axe", Efficiency: -3}).EffectiveEfficiency())
	assert.Equal(t, 1.0, (&Tool{Name: "axe", Efficiency: math.NaN()}).EffectiveEfficiency())
	assert.False(t, (&Tool{Name: "axe", Efficiency: math.Inf(1)}).Valid())
	assert.Equal(t, 2.5, (&Tool{Name: "axe", Efficiency: 2.5}).EffectiveEfficiency())
}

func TestStack_Subtract(t *testing.T) {
	s := Stack{Item: "dirt", Count: 2}
	s.Subtract(1)
	assert.Equal(t, uint32(1), s.Count)
	assert.False(t, s.IsEmpty())

	s.Subtract(1)
	assert.True(t, s.IsEmpty())
	assert.Equal(t, "", s.Item, "Пустой слот очищается")
}

func TestInventory_EquippedStack(t *testing.T) {
	inv := NewInventory(4)
	inv.Slots[2] = Stack{Item: "dirt", Count: 5}
	inv.Equipped = 2
	require.NotNil(t, inv.EquippedStack())
	assert.Equal(t, "dirt", inv.EquippedStack().Item)

	inv.Equipped = 9
	assert.Nil(t, inv.EquippedStack(), "Неверный индекс слота")
}
