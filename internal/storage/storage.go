// Package storage provides an in-memory keyed store shared by the lookup indexes.
package storage

import "sync"

type Store[T any] struct {
	items map[string]T
	mu    sync.RWMutex
}

func New[T any]() *Store[T] {
	return &Store[T]{
		items: make(map[string]T),
	}
}

func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, exists := s.items[key]
	return item, exists
}

func (s *Store[T]) Set(key string, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = item
}

// Update replaces the value under key with fn(current, exists) atomically
func (s *Store[T]) Update(key string, fn func(current T, exists bool) T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.items[key]
	s.items[key] = fn(current, exists)
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
