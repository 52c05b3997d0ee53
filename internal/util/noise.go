package util

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	perlinAlpha   = 2.0 // Сглаживание шума
	perlinBeta    = 2.0 // Частота шума
	perlinOctaves = 3   // Количество октав
)

// Noise генератор двумерного шума Перлина с фиксированным сидом
type Noise struct {
	perlin *perlin.Perlin
	scale  float64
}

// NewNoise создает генератор шума. scale задает масштаб координат.
func NewNoise(seed int64, scale float64) *Noise {
	if scale <= 0 {
		scale = 1
	}
	return &Noise{
		perlin: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed),
		scale:  scale,
	}
}

// At возвращает значение шума в точке в диапазоне [0, 1]
func (n *Noise) At(x, z float64) float64 {
	v := (n.perlin.Noise2D(x*n.scale, z*n.scale) + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
