package entity

import (
	"sync"

	"github.com/annel0/blockverse/internal/world/item"
	"github.com/go-gl/mathgl/mgl64"
)

// Camera камера игрока: смещение от позиции и ориентация
type Camera struct {
	Offset   mgl64.Vec3
	Rotation mgl64.Quat
}

// NewCamera создает камеру по углам поворота (радианы).
// Нулевые углы соответствуют взгляду вдоль -Z.
func NewCamera(offset mgl64.Vec3, yaw, pitch float64) *Camera {
	rot := mgl64.QuatRotate(yaw, mgl64.Vec3{0, 1, 0}).Mul(mgl64.QuatRotate(pitch, mgl64.Vec3{1, 0, 0}))
	return &Camera{Offset: offset, Rotation: rot}
}

// Forward возвращает единичный вектор направления взгляда
func (c *Camera) Forward() mgl64.Vec3 {
	rot := c.Rotation
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	return rot.Normalize().Rotate(mgl64.Vec3{0, 0, -1}).Normalize()
}

// Player игрок, способный разрушать блоки и взаимодействовать с миром
type Player struct {
	Handle    Handle
	Name      string
	Position  mgl64.Vec3
	Camera    *Camera
	Inventory *item.Inventory
}

// Eye возвращает позицию камеры в мире
func (p *Player) Eye() mgl64.Vec3 {
	if p.Camera == nil {
		return p.Position
	}
	return p.Position.Add(p.Camera.Offset)
}

// Players реестр подключенных игроков
type Players struct {
	players map[Handle]*Player
	mu      sync.RWMutex
}

// NewPlayers создаёт пустой реестр игроков
func NewPlayers() *Players {
	return &Players{players: make(map[Handle]*Player)}
}

// Add регистрирует игрока, выдавая идентификатор при необходимости
func (ps *Players) Add(p *Player) Handle {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if p.Handle.IsNil() {
		p.Handle = NewHandle()
	}
	ps.players[p.Handle] = p
	return p.Handle
}

// Get возвращает игрока по идентификатору
func (ps *Players) Get(h Handle) (*Player, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	p, ok := ps.players[h]
	return p, ok
}

// Remove удаляет игрока
func (ps *Players) Remove(h Handle) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.players, h)
}

// Len возвращает количество игроков
func (ps *Players) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.players)
}
