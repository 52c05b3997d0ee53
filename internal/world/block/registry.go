package block

import (
	"fmt"
	"sync"
)

// DefaultEmptyName имя блока, которым заменяются разрушенные блоки
const DefaultEmptyName = "air"

// Registry хранит конфигурации блоков.
// ID назначаются последовательно в порядке регистрации.
type Registry struct {
	mu        sync.RWMutex
	configs   []*Config
	byName    map[string]BlockID
	emptyName string
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		byName:    make(map[string]BlockID),
		emptyName: DefaultEmptyName,
	}
}

// Register добавляет конфигурацию блока и возвращает присвоенный ID
func (r *Registry) Register(cfg Config) (BlockID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg.Name == "" {
		return 0, fmt.Errorf("пустое имя блока")
	}
	if _, exists := r.byName[cfg.Name]; exists {
		return 0, fmt.Errorf("блок %q уже зарегистрирован", cfg.Name)
	}
	if cfg.Hardness != nil && *cfg.Hardness < 0 {
		return 0, fmt.Errorf("блок %q: отрицательная прочность %v", cfg.Name, *cfg.Hardness)
	}

	cfg.ID = BlockID(len(r.configs))
	stored := cfg
	r.configs = append(r.configs, &stored)
	r.byName[cfg.Name] = cfg.ID
	return cfg.ID, nil
}

// MustRegister как Register, но паникует при ошибке. Для тестов и встроенных блоков.
func (r *Registry) MustRegister(cfg Config) BlockID {
	id, err := r.Register(cfg)
	if err != nil {
		panic(err)
	}
	return id
}

// Get возвращает конфигурацию для указанного ID
func (r *Registry) Get(id BlockID) (*Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(id) >= len(r.configs) {
		return nil, false
	}
	return r.configs[id], true
}

// ID возвращает идентификатор блока по имени
func (r *Registry) ID(name string) (BlockID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	return id, ok
}

// SetEmpty задает имя "пустого" блока
func (r *Registry) SetEmpty(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emptyName = name
}

// Empty возвращает ID пустого блока. Если он не зарегистрирован, используется 0.
func (r *Registry) Empty() BlockID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.byName[r.emptyName]; ok {
		return id
	}
	return 0
}

// Len возвращает количество зарегистрированных блоков
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.configs)
}
