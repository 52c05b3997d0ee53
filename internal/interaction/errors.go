package interaction

import "errors"

// Категории отброшенных событий. Ошибки оборачиваются через fmt.Errorf("%w"),
// проверка выполняется через errors.Is.
var (
	// ErrPrecondition у игрока или объекта нет обязательного состояния (камера, инвентарь)
	ErrPrecondition = errors.New("нарушено предусловие")
	// ErrPolicy действие отклонено правилами игры
	ErrPolicy = errors.New("действие отклонено правилами")
	// ErrDuplicate повторное событие с той же меткой времени
	ErrDuplicate = errors.New("повторное событие")
)
