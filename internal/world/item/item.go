package item

import (
	"fmt"
	"math"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Tool параметры инструмента
type Tool struct {
	Name       string  `yaml:"name"`
	Efficiency float64 `yaml:"efficiency"`
}

// EffectiveEfficiency возвращает множитель скорости разрушения.
// Некорректные значения заменяются на 1.0.
func (t *Tool) EffectiveEfficiency() float64 {
	if t == nil {
		return 1.0
	}
	e := t.Efficiency
	if e <= 0 || math.IsNaN(e) || math.IsInf(e, 0) {
		return 1.0
	}
	return e
}

// Valid сообщает, корректно ли описан инструмент
func (t *Tool) Valid() bool {
	if t == nil {
		return false
	}
	e := t.Efficiency
	return t.Name != "" && e > 0 && !math.IsNaN(e) && !math.IsInf(e, 0)
}

// Config конфигурация предмета
type Config struct {
	Name     string `yaml:"name"`
	Tool     *Tool  `yaml:"tool"`      // Предмет является инструментом
	Block    string `yaml:"block"`     // Блок, который ставится этим предметом
	ModelID  uint32 `yaml:"model"`     // Модель предмета на земле
	MaxStack uint32 `yaml:"max_stack"` // Максимальный размер стопки
}

// Registry хранит конфигурации предметов по имени
type Registry struct {
	mu      sync.RWMutex
	configs map[string]*Config
}

// NewRegistry создает пустой реестр предметов
func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]*Config)}
}

// Register добавляет предмет
func (r *Registry) Register(cfg Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg.Name == "" {
		return fmt.Errorf("пустое имя предмета")
	}
	if _, exists := r.configs[cfg.Name]; exists {
		return fmt.Errorf("предмет %q уже зарегистрирован", cfg.Name)
	}
	if cfg.MaxStack == 0 {
		cfg.MaxStack = 64
	}
	stored := cfg
	r.configs[cfg.Name] = &stored
	return nil
}

// Get возвращает конфигурацию предмета
func (r *Registry) Get(name string) (*Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[name]
	return cfg, ok
}

type itemsFile struct {
	Items []Config `yaml:"items"`
}

// LoadItems читает описания предметов из YAML файла
func LoadItems(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseItems(data)
}

// ParseItems разбирает YAML описание предметов
func ParseItems(data []byte) (*Registry, error) {
	var file itemsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ошибка разбора описания предметов: %w", err)
	}

	reg := NewRegistry()
	for _, cfg := range file.Items {
		if err := reg.Register(cfg); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
