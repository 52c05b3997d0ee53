package item

// Stack стопка предметов в слоте инвентаря
type Stack struct {
	Item  string `json:"item"`
	Count uint32 `json:"count"`
}

// IsEmpty возвращает true для пустого слота
func (s *Stack) IsEmpty() bool {
	return s.Item == "" || s.Count == 0
}

// Subtract уменьшает стопку. Опустевший слот очищается.
func (s *Stack) Subtract(n uint32) {
	if n >= s.Count {
		s.Item = ""
		s.Count = 0
		return
	}
	s.Count -= n
}

// DefaultInventorySize размер инвентаря игрока
const DefaultInventorySize = 36

// Inventory инвентарь игрока с выбранным слотом
type Inventory struct {
	Slots    []Stack
	Equipped int
}

// NewInventory создает пустой инвентарь
func NewInventory(size int) *Inventory {
	return &Inventory{Slots: make([]Stack, size)}
}

// EquippedStack возвращает стопку в руке или nil, если индекс слота неверен
func (inv *Inventory) EquippedStack() *Stack {
	if inv.Equipped < 0 || inv.Equipped >= len(inv.Slots) {
		return nil
	}
	return &inv.Slots[inv.Equipped]
}
