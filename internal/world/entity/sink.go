package entity

import "sync"

// InteractionSink упорядоченная очередь игроков, взаимодействовавших с объектом.
// Очередь разбирается внешними обработчиками.
type InteractionSink struct {
	mu      sync.Mutex
	players []Handle
}

// NewInteractionSink создает пустую очередь
func NewInteractionSink() *InteractionSink {
	return &InteractionSink{}
}

// Push добавляет игрока в конец очереди
func (s *InteractionSink) Push(player Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = append(s.players, player)
}

// Drain возвращает накопленные взаимодействия и очищает очередь
func (s *InteractionSink) Drain() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.players
	s.players = nil
	return out
}

// Len возвращает количество ожидающих взаимодействий
func (s *InteractionSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}
