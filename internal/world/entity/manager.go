package entity

import (
	"sync"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

// Registry хранит динамические объекты и индексирует их по чанкам
type Registry struct {
	objects map[Handle]*Object   // Хранилище всех объектов
	chunks  map[vec.Vec3][]Handle // Индекс объектов по чанкам в порядке добавления
	mu      sync.RWMutex
}

// NewRegistry создаёт пустой реестр объектов
func NewRegistry() *Registry {
	return &Registry{
		objects: make(map[Handle]*Object),
		chunks:  make(map[vec.Vec3][]Handle),
	}
}

// Spawn добавляет объект в реестр. Пустой идентификатор заменяется новым.
func (r *Registry) Spawn(obj *Object) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if obj.Handle.IsNil() {
		obj.Handle = NewHandle()
	}
	if obj.Transform.Rotation.Len() == 0 {
		obj.Transform.Rotation = mgl64.QuatIdent()
	}

	if old, exists := r.objects[obj.Handle]; exists {
		r.unindex(old)
	}
	r.objects[obj.Handle] = obj
	chunk := obj.Chunk()
	r.chunks[chunk] = append(r.chunks[chunk], obj.Handle)
	return obj.Handle
}

// Get возвращает объект по идентификатору
func (r *Registry) Get(h Handle) (*Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	obj, ok := r.objects[h]
	return obj, ok
}

// Despawn удаляет объект из реестра
func (r *Registry) Despawn(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj, exists := r.objects[h]
	if !exists {
		return false
	}
	r.unindex(obj)
	delete(r.objects, h)
	return true
}

// Move перемещает объект и обновляет индекс чанков
func (r *Registry) Move(h Handle, translation mgl64.Vec3) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj, exists := r.objects[h]
	if !exists {
		return false
	}
	oldChunk := obj.Chunk()
	obj.Transform.Translation = translation
	if newChunk := obj.Chunk(); newChunk != oldChunk {
		r.removeFromChunk(oldChunk, h)
		r.chunks[newChunk] = append(r.chunks[newChunk], h)
	}
	return true
}

// InChunk возвращает объекты, находящиеся в чанке
func (r *Registry) InChunk(chunk vec.Vec3) []*Object {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := r.chunks[chunk]
	if len(handles) == 0 {
		return nil
	}
	out := make([]*Object, 0, len(handles))
	for _, h := range handles {
		out = append(out, r.objects[h])
	}
	return out
}

// CountByKind возвращает количество объектов каждого типа
func (r *Registry) CountByKind() map[Kind]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[Kind]int)
	for _, obj := range r.objects {
		counts[obj.Kind]++
	}
	return counts
}

// Len возвращает общее количество объектов
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

func (r *Registry) unindex(obj *Object) {
	r.removeFromChunk(obj.Chunk(), obj.Handle)
}

func (r *Registry) removeFromChunk(chunk vec.Vec3, h Handle) {
	handles := r.chunks[chunk]
	for i, other := range handles {
		if other == h {
			handles = append(handles[:i], handles[i+1:]...)
			break
		}
	}
	if len(handles) == 0 {
		delete(r.chunks, chunk)
		return
	}
	r.chunks[chunk] = handles
}
