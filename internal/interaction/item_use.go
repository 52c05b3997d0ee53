package interaction

import (
	"sync"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/annel0/blockverse/internal/world/entity"
)

// BlockTarget блок, по которому использовали предмет
type BlockTarget struct {
	Position vec.Vec3
	ID       block.BlockID
}

// ItemUse одно использование предмета игроком
type ItemUse struct {
	Player entity.Handle
	Target *BlockTarget // nil, если луч ни во что не попал
}

// ItemUses очередь использований одного предмета, разбираемая внешним обработчиком
type ItemUses struct {
	mu   sync.Mutex
	uses []ItemUse
}

// Push добавляет использование в очередь
func (u *ItemUses) Push(use ItemUse) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uses = append(u.uses, use)
}

// Drain возвращает накопленные использования и очищает очередь
func (u *ItemUses) Drain() []ItemUse {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := u.uses
	u.uses = nil
	return out
}

// Len возвращает количество ожидающих использований
func (u *ItemUses) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.uses)
}

// UsableItems реестр предметов с обработчиками использования
type UsableItems struct {
	mu   sync.RWMutex
	uses map[string]*ItemUses
}

// NewUsableItems создаёт пустой реестр
func NewUsableItems() *UsableItems {
	return &UsableItems{uses: make(map[string]*ItemUses)}
}

// Register регистрирует предмет и возвращает его очередь.
// Повторная регистрация возвращает существующую очередь.
func (u *UsableItems) Register(itemName string) *ItemUses {
	u.mu.Lock()
	defer u.mu.Unlock()

	if q, ok := u.uses[itemName]; ok {
		return q
	}
	q := &ItemUses{}
	u.uses[itemName] = q
	return q
}

// Get возвращает очередь предмета
func (u *UsableItems) Get(itemName string) (*ItemUses, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	q, ok := u.uses[itemName]
	return q, ok
}
