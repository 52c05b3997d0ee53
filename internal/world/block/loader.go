package block

import (
	"fmt"
	"os"

	"github.com/df-mc/dragonfly/server/block/cube"
	"gopkg.in/yaml.v3"
)

// blocksFile формат файла assets/blocks.yaml
type blocksFile struct {
	Empty  string       `yaml:"empty"`
	Blocks []blockEntry `yaml:"blocks"`
}

type blockEntry struct {
	Name        string    `yaml:"name"`
	Hardness    *float64  `yaml:"hardness"`
	Hitbox      []float64 `yaml:"hitbox"` // minX, minY, minZ, maxX, maxY, maxZ
	Replaceable bool      `yaml:"replaceable"`
	BlockEntity bool      `yaml:"block_entity"`
	Placement   Placement `yaml:"placement"`
	Drops       DropTable `yaml:"drops"`
}

// LoadBlocks читает описания блоков из YAML файла
func LoadBlocks(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBlocks(data)
}

// ParseBlocks разбирает YAML описание блоков и строит реестр
func ParseBlocks(data []byte) (*Registry, error) {
	var file blocksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ошибка разбора описания блоков: %w", err)
	}

	reg := NewRegistry()
	if file.Empty != "" {
		reg.SetEmpty(file.Empty)
	}

	for _, entry := range file.Blocks {
		cfg := Config{
			Name:        entry.Name,
			Hardness:    entry.Hardness,
			Replaceable: entry.Replaceable,
			BlockEntity: entry.BlockEntity,
			Placement:   entry.Placement,
			Drops:       entry.Drops,
		}

		switch len(entry.Hitbox) {
		case 0:
		case 6:
			h := entry.Hitbox
			box := cube.Box(h[0], h[1], h[2], h[3], h[4], h[5])
			cfg.Hitbox = &box
		default:
			return nil, fmt.Errorf("блок %q: hitbox должен содержать 6 чисел, получено %d", entry.Name, len(entry.Hitbox))
		}

		if _, err := reg.Register(cfg); err != nil {
			return nil, err
		}
	}

	if _, ok := reg.ID(reg.emptyName); !ok {
		return nil, fmt.Errorf("пустой блок %q не описан", reg.emptyName)
	}
	return reg, nil
}
