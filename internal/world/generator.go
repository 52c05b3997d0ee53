package world

import (
	"math"

	"github.com/annel0/blockverse/internal/util"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world/block"
)

// GeneratorConfig параметры генерации ландшафта
type GeneratorConfig struct {
	Seed       int64   `yaml:"seed"`
	BaseHeight int     `yaml:"base_height"` // Средняя высота поверхности
	Amplitude  float64 `yaml:"amplitude"`   // Разброс высоты в блоках
	NoiseScale float64 `yaml:"noise_scale"` // Масштаб шума
	Surface    string  `yaml:"surface"`     // Верхний блок
	Filler     string  `yaml:"filler"`      // Блоки под поверхностью
	Base       string  `yaml:"base"`        // Основная порода
	FillerDeep int     `yaml:"filler_deep"` // Толщина слоя filler
}

// DefaultGeneratorConfig возвращает параметры генерации по умолчанию
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:       1,
		BaseHeight: 32,
		Amplitude:  12,
		NoiseScale: 0.03,
		Surface:    "grass",
		Filler:     "dirt",
		Base:       "stone",
		FillerDeep: 3,
	}
}

// Generator генерирует ландшафт для чанков, отсутствующих в хранилище
type Generator struct {
	cfg     GeneratorConfig
	noise   *util.Noise
	empty   block.BlockID
	surface block.BlockID
	filler  block.BlockID
	base    block.BlockID
}

// NewGenerator создаёт генератор. Неизвестные имена блоков заменяются пустым блоком.
func NewGenerator(cfg GeneratorConfig, blocks *block.Registry) *Generator {
	g := &Generator{
		cfg:   cfg,
		noise: util.NewNoise(cfg.Seed, cfg.NoiseScale),
		empty: blocks.Empty(),
	}
	g.surface = g.lookup(blocks, cfg.Surface)
	g.filler = g.lookup(blocks, cfg.Filler)
	g.base = g.lookup(blocks, cfg.Base)
	return g
}

func (g *Generator) lookup(blocks *block.Registry, name string) block.BlockID {
	if id, ok := blocks.ID(name); ok {
		return id
	}
	return g.empty
}

// Height возвращает высоту поверхности в колонке (x, z)
func (g *Generator) Height(x, z int) int {
	n := g.noise.At(float64(x), float64(z))
	return g.cfg.BaseHeight + int(math.Round((n*2-1)*g.cfg.Amplitude))
}

// GenerateChunk генерирует чанк по его координатам
func (g *Generator) GenerateChunk(coords vec.Vec3) *Chunk {
	chunk := NewChunk(coords)
	origin := coords.ChunkOrigin()

	for x := 0; x < vec.ChunkSize; x++ {
		for z := 0; z < vec.ChunkSize; z++ {
			height := g.Height(origin.X+x, origin.Z+z)
			for y := 0; y < vec.ChunkSize; y++ {
				worldY := origin.Y + y
				id := g.empty
				switch {
				case worldY > height:
				case worldY == height:
					id = g.surface
				case worldY > height-g.cfg.FillerDeep:
					id = g.filler
				default:
					id = g.base
				}
				chunk.setBlock(vec.Vec3{X: x, Y: y, Z: z}, id, nil)
			}
		}
	}
	return chunk
}
