package block

// BlockID представляет идентификатор типа блока
type BlockID uint16

// Rotation описывает поворот блока вокруг вертикальной оси шагами по 90°
type Rotation uint8

const (
	RotationNone   Rotation = iota // Без поворота
	RotationOnce                   // 90°
	RotationTwice                  // 180°
	RotationThrice                 // 270°
)

// Turns возвращает количество четвертных оборотов
func (r Rotation) Turns() int {
	return int(r % 4)
}

// State дополнительное состояние блока (ориентация).
// Отсутствие State у блока эквивалентно RotationNone.
type State struct {
	Rotation Rotation `json:"rotation"`
}

// NewState создает состояние с указанным поворотом
func NewState(rotation Rotation) *State {
	return &State{Rotation: rotation}
}
